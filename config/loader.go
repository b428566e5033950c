package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPaths are searched in order by LoadAppConfig when no path is given.
var DefaultPaths = []string{"config.yml", "./config/config.yml"}

// LoadAppConfig loads and validates the application configuration from the
// first readable file in paths (DefaultPaths when empty). Fields missing from
// the file keep their Default() value.
func LoadAppConfig(paths ...string) (*AppConfig, error) {
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document over Default().
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SelectFeed chooses a feed by name; fallback to first; if none, use top-level GTFS/GTFSRT.
// Feed-level realtime settings left at zero inherit the top-level ones.
func (c *AppConfig) SelectFeed(name string) (GTFSConfig, GTFSRTConfig, error) {
	pick := func(f Feed) (GTFSConfig, GTFSRTConfig, error) {
		rt := f.GTFSRT
		if rt.ReadIntervalMS == 0 {
			rt.ReadIntervalMS = c.GTFSRT.ReadIntervalMS
		}
		if rt.TimeoutMS == 0 {
			rt.TimeoutMS = c.GTFSRT.TimeoutMS
		}
		return f.GTFS, rt, nil
	}
	if name != "" {
		for _, f := range c.Feeds {
			if f.Name == name {
				return pick(f)
			}
		}
		return GTFSConfig{}, GTFSRTConfig{}, fmt.Errorf("feed %q not found", name)
	}
	if len(c.Feeds) > 0 {
		return pick(c.Feeds[0])
	}
	if c.GTFSRT.TripUpdatesURL == "" {
		return c.GTFS, c.GTFSRT, errors.New("no gtfsrt.tripUpdatesURL configured")
	}
	return c.GTFS, c.GTFSRT, nil
}
