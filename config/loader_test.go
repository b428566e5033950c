package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: 8080
gtfs:
  staticURL: ./gtfs.zip
  agency_id: SOFIA
  cachePath: /tmp/sofia.gob
gtfsrt:
  tripUpdatesURL: https://example.com/trip-updates.pb
  headers:
    Authorization: Bearer abc
updater:
  minPublishIntervalMS: 250
  filter:
    negativeDwells: false
logging:
  format: json
`

func TestLoadAppConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	cfg, err := LoadAppConfig("does-not-exist.yml", path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "SOFIA", cfg.GTFS.AgencyID)
	assert.Equal(t, "/tmp/sofia.gob", cfg.GTFS.CachePath)
	assert.Equal(t, "Bearer abc", cfg.GTFSRT.Headers["Authorization"])
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level, "unset fields keep their default")

	assert.Equal(t, 250, cfg.Updater.MinPublishIntervalMS)
	assert.Equal(t, 2000, cfg.Updater.ProgressLogInterval)
	assert.Equal(t, 5000, cfg.Updater.ErrorRetryDelayMS)
	assert.True(t, cfg.Updater.Filter.DuplicateStops)
	assert.False(t, cfg.Updater.Filter.NegativeDwells)
	assert.True(t, cfg.Updater.Filter.UnmodifiedStops)
}

func TestLoadAppConfig_MissingFile(t *testing.T) {
	_, err := LoadAppConfig(filepath.Join(t.TempDir(), "config.yml"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "invalid: yaml: content: [[["},
		{"bad port", "server:\n  port: 70000\n"},
		{"negative interval", "updater:\n  minPublishIntervalMS: -1\n"},
		{"unknown level", "logging:\n  level: loud\n"},
		{"unnamed feed", "feeds:\n  - gtfs:\n      agency_id: X\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSelectFeed(t *testing.T) {
	cfg, err := Parse([]byte(`
gtfsrt:
  readIntervalMS: 15000
feeds:
  - name: sofia
    gtfs: {agency_id: SOFIA}
    gtfsrt: {tripUpdatesURL: https://a.example/tu}
  - name: plovdiv
    gtfs: {agency_id: PDV}
    gtfsrt: {tripUpdatesURL: https://b.example/tu, readIntervalMS: 5000}
`))
	require.NoError(t, err)

	g, rt, err := cfg.SelectFeed("")
	require.NoError(t, err)
	assert.Equal(t, "SOFIA", g.AgencyID)
	assert.Equal(t, 15000, rt.ReadIntervalMS, "inherits top-level interval")

	g, rt, err = cfg.SelectFeed("plovdiv")
	require.NoError(t, err)
	assert.Equal(t, "PDV", g.AgencyID)
	assert.Equal(t, 5000, rt.ReadIntervalMS)

	_, _, err = cfg.SelectFeed("varna")
	assert.Error(t, err)
}

func TestSelectFeed_TopLevelRequiresTripUpdates(t *testing.T) {
	cfg := Default()
	_, _, err := cfg.SelectFeed("")
	assert.Error(t, err)

	cfg.GTFSRT.TripUpdatesURL = "feed.pb"
	_, rt, err := cfg.SelectFeed("")
	require.NoError(t, err)
	assert.Equal(t, "feed.pb", rt.TripUpdatesURL)
}
