package timetable

import (
	"maps"
	"slices"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
)

// Timetable is the realtime override of one pattern: the trips of that
// pattern that received an update.
type Timetable struct {
	pattern *gtfs.Pattern
	trips   map[string]*TripTimes
}

func newTimetable(p *gtfs.Pattern) *Timetable {
	return &Timetable{pattern: p, trips: map[string]*TripTimes{}}
}

func (t *Timetable) Pattern() *gtfs.Pattern { return t.pattern }

func (t *Timetable) TripTimes(tripID string) (*TripTimes, bool) {
	tt, ok := t.trips[tripID]
	return tt, ok
}

// TripIDs returns the updated trips in lexical order.
func (t *Timetable) TripIDs() []string {
	return slices.Sorted(maps.Keys(t.trips))
}

func (t *Timetable) Len() int { return len(t.trips) }

// clone copies the trip map. TripTimes values are shared since they are
// immutable.
func (t *Timetable) clone() *Timetable {
	return &Timetable{pattern: t.pattern, trips: maps.Clone(t.trips)}
}
