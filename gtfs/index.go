package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/config"
)

// PatternResolver maps a trip identifier to the pattern it follows.
type PatternResolver interface {
	PatternForTrip(tripID string) (*Pattern, bool)
}

// Index stores GTFS static data in memory for fast lookups. Fields are
// exported so the index can be gob-encoded (see cache.go); treat them as
// read-only once the index is built.
type Index struct {
	AgencyID    string
	AgencyName  string
	Timezone    string
	Patterns    map[string]*Pattern // pattern id -> pattern
	TripPattern map[string]string   // trip_id -> pattern id
	Routes      map[string]Route    // route_id -> route
	Stops       map[string]Stop     // stop_id -> stop
}

// NewIndex creates a new empty index
func NewIndex(agencyID string) *Index {
	return &Index{
		AgencyID:    agencyID,
		Patterns:    map[string]*Pattern{},
		TripPattern: map[string]string{},
		Routes:      map[string]Route{},
		Stops:       map[string]Stop{},
	}
}

// NewIndexFromConfig loads the static feed named by cfg. StaticURL may be an
// http(s) URL or a local zip path. When CachePath is set, a readable cache
// file is used instead of the feed, and a freshly parsed index is written back.
func NewIndexFromConfig(ctx context.Context, cfg config.GTFSConfig, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CachePath != "" {
		if g, err := DeserializeIndexFromFile(cfg.CachePath); err == nil {
			logger.Info("loaded GTFS index from cache", "path", cfg.CachePath, "patterns", len(g.Patterns))
			return g, nil
		} else if !os.IsNotExist(err) {
			logger.Warn("ignoring unreadable GTFS cache", "path", cfg.CachePath, "error", err)
		}
	}

	var (
		g   *Index
		err error
	)
	switch {
	case cfg.StaticURL == "":
		return nil, fmt.Errorf("no static GTFS source configured")
	case strings.HasPrefix(cfg.StaticURL, "http://"), strings.HasPrefix(cfg.StaticURL, "https://"):
		g, err = NewIndexFromURL(ctx, cfg.StaticURL, cfg.AgencyID)
	default:
		g, err = NewIndexFromZip(cfg.StaticURL, cfg.AgencyID)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Timezone != "" {
		g.Timezone = cfg.Timezone
	}
	logger.Info("loaded GTFS index", "source", cfg.StaticURL, "patterns", len(g.Patterns), "trips", len(g.TripPattern))

	if cfg.CachePath != "" {
		if err := SerializeIndexToFile(g, cfg.CachePath); err != nil {
			logger.Warn("failed to write GTFS cache", "path", cfg.CachePath, "error", err)
		}
	}
	return g, nil
}

// PatternForTrip is part of the PatternResolver interface.
func (g *Index) PatternForTrip(tripID string) (*Pattern, bool) {
	id, ok := g.TripPattern[tripID]
	if !ok {
		return nil, false
	}
	p, ok := g.Patterns[id]
	return p, ok
}

// Location returns the agency timezone, falling back to UTC.
func (g *Index) Location() *time.Location {
	if g.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (g *Index) GetRouteShortName(routeID string) string { return g.Routes[routeID].ShortName }

func (g *Index) GetRouteType(routeID string) int { return g.Routes[routeID].Type }

func (g *Index) GetStopName(stopID string) string { return g.Stops[stopID].Name }

// GetAllPatternIDs returns pattern ids in sorted order.
func (g *Index) GetAllPatternIDs() []string {
	ids := make([]string, 0, len(g.Patterns))
	for id := range g.Patterns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
