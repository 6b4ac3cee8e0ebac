package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/solar-power-monitor/internal/solar"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("METEOSOURCE_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Zero(t, cfg.ScheduleInterval)
	assert.Equal(t, "https://services.swpc.noaa.gov/products/solar-wind/plasma-5-minute.json", cfg.NOAA.PlasmaURL)
	assert.True(t, cfg.Daylight.Enabled)
	assert.Equal(t, "Indian/Mauritius", cfg.Daylight.TimeZone)
	assert.Equal(t, "Table 1", cfg.AppSheet.Table)
	assert.Empty(t, cfg.AppSheet.AppID)
	assert.Equal(t, 64, cfg.Sink.QueueSize)
	assert.Len(t, cfg.Locations, 11)
	assert.Equal(t, "Le Bocage", cfg.Locations[0].Name)
	assert.Equal(t, "Le Morne", cfg.Locations[10].Name)

	policy := cfg.SolarPolicy()
	assert.Equal(t, 50.0, policy.FallbackCloudCover)
	assert.Equal(t, solar.Thresholds{Optimal: 70, Normal: 40}, policy.Thresholds)
	assert.Equal(t, 10*time.Second, policy.CallTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("METEOSOURCE_API_KEY", "key")
	t.Setenv("SOLAR_LOCATIONS", "Port Louis:-20.16:57.5; Rose Hill:-20.24:57.47")
	t.Setenv("FALLBACK_CLOUD_COVER", "65")
	t.Setenv("OPTIMAL_THRESHOLD", "80")
	t.Setenv("NORMAL_THRESHOLD", "30")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("SCHEDULE_INTERVAL", "15m")
	t.Setenv("APPSHEET_APP_ID", "app")
	t.Setenv("APPSHEET_ACCESS_KEY", "secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, LocationList{
		{Name: "Port Louis", Latitude: -20.16, Longitude: 57.5},
		{Name: "Rose Hill", Latitude: -20.24, Longitude: 57.47},
	}, cfg.Locations)
	assert.Equal(t, 15*time.Minute, cfg.ScheduleInterval)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	policy := cfg.SolarPolicy()
	assert.Equal(t, 65.0, policy.FallbackCloudCover)
	assert.Equal(t, solar.Thresholds{Optimal: 80, Normal: 30}, policy.Thresholds)
	assert.Equal(t, 3*time.Second, policy.CallTimeout)

	w := cfg.AppSheetWriterConfig()
	assert.Equal(t, "app", w.AppID)
	assert.Equal(t, "secret", w.AccessKey)
	assert.Equal(t, "Indian/Mauritius", w.TimeZone)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing meteosource key": {"METEOSOURCE_API_KEY": ""},
		"thresholds inverted":     {"OPTIMAL_THRESHOLD": "30", "NORMAL_THRESHOLD": "40"},
		"fallback out of range":   {"FALLBACK_CLOUD_COVER": "120"},
		"app id without key":      {"APPSHEET_APP_ID": "app"},
		"bad time zone":           {"DAYLIGHT_TIMEZONE": "Mars/Olympus"},
		"bad log level":           {"LOG_LEVEL": "chatty"},
		"duplicate location":      {"SOLAR_LOCATIONS": "A:1:1;A:2:2"},
		"latitude out of range":   {"SOLAR_LOCATIONS": "A:95:1"},
		"malformed location":      {"SOLAR_LOCATIONS": "Curepipe"},
		"malformed timeout":       {"UPSTREAM_TIMEOUT": "soon"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("METEOSOURCE_API_KEY", "key")
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLocationListDecode(t *testing.T) {
	var l LocationList
	require.NoError(t, l.Decode("Fort: George:-20.1:57.4;;  Flacq :-20.19:57.71  "))

	assert.Equal(t, LocationList{
		{Name: "Fort: George", Latitude: -20.1, Longitude: 57.4},
		{Name: "Flacq", Latitude: -20.19, Longitude: 57.71},
	}, l)

	assert.Error(t, l.Decode("Flacq:north:57.7"))
	assert.Error(t, l.Decode("Flacq:-20.19"))
}

func TestDefaultLocationsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, loc := range DefaultLocations() {
		assert.False(t, seen[loc.Name], loc.Name)
		seen[loc.Name] = true
	}
	assert.Len(t, seen, 11)
}
