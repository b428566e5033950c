package config

import (
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfsrt"
)

// ServerConfig contains server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lte=65535"`
}

// GTFSConfig contains GTFS static feed configuration
type GTFSConfig struct {
	StaticURL string `yaml:"staticURL"` // http(s) URL or local zip path
	AgencyID  string `yaml:"agency_id"`
	CachePath string `yaml:"cachePath"`
	Timezone  string `yaml:"timezone"` // overrides agency_timezone
}

// GTFSRTConfig contains GTFS-Realtime feed configuration
type GTFSRTConfig struct {
	TripUpdatesURL string            `yaml:"tripUpdatesURL"` // http(s) URL or local file path
	ReadIntervalMS int               `yaml:"readIntervalMS" validate:"gte=0"`
	TimeoutMS      int               `yaml:"timeoutMS" validate:"gte=0"`
	Headers        map[string]string `yaml:"headers"`
}

// ReadInterval is the pause between two polls of the feed.
func (c GTFSRTConfig) ReadInterval() time.Duration {
	return time.Duration(c.ReadIntervalMS) * time.Millisecond
}

// Timeout bounds a single feed request; zero means no timeout.
func (c GTFSRTConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// UpdaterConfig tunes the ingestion worker and the snapshot publisher.
type UpdaterConfig struct {
	// MinPublishIntervalMS is the throttle window between two commits.
	MinPublishIntervalMS int `yaml:"minPublishIntervalMS" validate:"gte=0"`
	// ProgressLogInterval is the number of applied trip updates between progress reports.
	ProgressLogInterval int `yaml:"progressLogInterval" validate:"gte=0"`
	// EmptyRetryDelayMS is the pause after the transport returned no batch.
	EmptyRetryDelayMS int `yaml:"emptyRetryDelayMS" validate:"gte=0"`
	// ErrorRetryDelayMS is the pause after the transport failed.
	ErrorRetryDelayMS int                  `yaml:"errorRetryDelayMS" validate:"gte=0"`
	Filter            gtfsrt.FilterOptions `yaml:"filter"`
}

func (c UpdaterConfig) MinPublishInterval() time.Duration {
	return time.Duration(c.MinPublishIntervalMS) * time.Millisecond
}

func (c UpdaterConfig) EmptyRetryDelay() time.Duration {
	return time.Duration(c.EmptyRetryDelayMS) * time.Millisecond
}

func (c UpdaterConfig) ErrorRetryDelay() time.Duration {
	return time.Duration(c.ErrorRetryDelayMS) * time.Millisecond
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Feed represents a single GTFS feed configuration
type Feed struct {
	Name   string       `yaml:"name" validate:"required"`
	GTFS   GTFSConfig   `yaml:"gtfs"`
	GTFSRT GTFSRTConfig `yaml:"gtfsrt"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	GTFS    GTFSConfig    `yaml:"gtfs"`
	GTFSRT  GTFSRTConfig  `yaml:"gtfsrt"`
	Updater UpdaterConfig `yaml:"updater"`
	Logging LoggingConfig `yaml:"logging"`
	Feeds   []Feed        `yaml:"feeds" validate:"dive"`
}

// Default returns the configuration used for every field config.yml leaves out.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{Port: 16181},
		GTFSRT: GTFSRTConfig{
			ReadIntervalMS: 30000,
			TimeoutMS:      10000,
		},
		Updater: UpdaterConfig{
			MinPublishIntervalMS: 1000,
			ProgressLogInterval:  2000,
			EmptyRetryDelayMS:    100,
			ErrorRetryDelayMS:    5000,
			Filter:               gtfsrt.DefaultFilterOptions(),
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
