package converter

import (
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
)

// Converter turns published timetable snapshots into SIRI responses, using the
// GTFS index for names, modes and scheduled times.
type Converter struct {
	gtfs *gtfs.Index
	opts ConverterOptions
}

// NewConverter creates a new converter instance
func NewConverter(index *gtfs.Index, opts ConverterOptions) *Converter {
	if opts.AgencyID == "" {
		opts.AgencyID = index.AgencyID
	}
	if opts.AgencyID == "" {
		opts.AgencyID = "UNKNOWN"
	}
	return &Converter{gtfs: index, opts: opts}
}

// Codespace is the agency prefix used in every SIRI reference.
func (c *Converter) Codespace() string { return c.opts.AgencyID }
