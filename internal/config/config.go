package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/solar-power-monitor/internal/solar"
	"github.com/i474232898/solar-power-monitor/internal/solar/providers"
)

type AppConfig struct {
	Port     string `envconfig:"PORT" default:"8080" validate:"required"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// UpstreamTimeout bounds every outbound call.
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s" validate:"gt=0"`

	// ScheduleInterval runs the aggregation periodically (0 = only on request).
	ScheduleInterval time.Duration `envconfig:"SCHEDULE_INTERVAL" default:"0s" validate:"gte=0"`

	NOAA        NOAAConfig
	Meteosource MeteosourceConfig
	Daylight    DaylightConfig
	AppSheet    AppSheetConfig
	Sink        SinkConfig
	Policy      PolicyConfig

	// Locations to estimate, in processing order.
	Locations LocationList `envconfig:"SOLAR_LOCATIONS" validate:"min=1,unique=Name,dive"`
}

type NOAAConfig struct {
	PlasmaURL string `envconfig:"NOAA_PLASMA_URL" default:"https://services.swpc.noaa.gov/products/solar-wind/plasma-5-minute.json" validate:"required,url"`
}

type MeteosourceConfig struct {
	BaseURL string `envconfig:"METEOSOURCE_BASE_URL" default:"https://www.meteosource.com/api/v1/free/point" validate:"required,url"`
	APIKey  string `envconfig:"METEOSOURCE_API_KEY" validate:"required"`
}

// DaylightConfig is the reference point for the write gate.
type DaylightConfig struct {
	Enabled   bool    `envconfig:"DAYLIGHT_GATE_ENABLED" default:"true"`
	URL       string  `envconfig:"SUNRISE_SUNSET_URL" default:"https://api.sunrisesunset.io/json" validate:"required,url"`
	Latitude  float64 `envconfig:"DAYLIGHT_LAT" default:"-20.21863" validate:"latitude"`
	Longitude float64 `envconfig:"DAYLIGHT_LNG" default:"57.50339" validate:"longitude"`
	TimeZone  string  `envconfig:"DAYLIGHT_TIMEZONE" default:"Indian/Mauritius" validate:"required,timezone"`
}

// AppSheetConfig holds the table credentials. An empty AppID disables writes.
type AppSheetConfig struct {
	BaseURL   string `envconfig:"APPSHEET_BASE_URL" default:"https://api.appsheet.com/api/v2" validate:"required,url"`
	AppID     string `envconfig:"APPSHEET_APP_ID"`
	AccessKey string `envconfig:"APPSHEET_ACCESS_KEY" validate:"required_with=AppID"`
	Table     string `envconfig:"APPSHEET_TABLE" default:"Table 1" validate:"required"`
	Locale    string `envconfig:"APPSHEET_LOCALE" default:"en-US"`
}

type SinkConfig struct {
	QueueSize int `envconfig:"SINK_QUEUE_SIZE" default:"64" validate:"gt=0"`
}

// PolicyConfig holds the business constants of the estimate.
type PolicyConfig struct {
	FallbackCloudCover float64 `envconfig:"FALLBACK_CLOUD_COVER" default:"50" validate:"gte=0,lte=100"`
	OptimalThreshold   float64 `envconfig:"OPTIMAL_THRESHOLD" default:"70" validate:"gtfield=NormalThreshold"`
	NormalThreshold    float64 `envconfig:"NORMAL_THRESHOLD" default:"40"`
}

// Load reads configuration from environment (and an optional .env file),
// applies defaults and validates the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if len(cfg.Locations) == 0 {
		cfg.Locations = DefaultLocations()
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SolarPolicy converts the policy settings for the aggregator.
func (c *AppConfig) SolarPolicy() solar.Policy {
	return solar.Policy{
		FallbackCloudCover: c.Policy.FallbackCloudCover,
		Thresholds: solar.Thresholds{
			Optimal: c.Policy.OptimalThreshold,
			Normal:  c.Policy.NormalThreshold,
		},
		CallTimeout: c.UpstreamTimeout,
	}
}

// DaylightLocation loads the gate's time zone. Load has already validated it.
func (c *AppConfig) DaylightLocation() *time.Location {
	loc, err := time.LoadLocation(c.Daylight.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AppSheetWriterConfig returns the writer settings; rows are stamped with the
// daylight time zone.
func (c *AppConfig) AppSheetWriterConfig() providers.AppSheetConfig {
	return providers.AppSheetConfig{
		BaseURL:   c.AppSheet.BaseURL,
		AppID:     c.AppSheet.AppID,
		AccessKey: c.AppSheet.AccessKey,
		Table:     c.AppSheet.Table,
		Locale:    c.AppSheet.Locale,
		TimeZone:  c.Daylight.TimeZone,
	}
}

// SlogLevel maps LogLevel to a slog level.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LocationList decodes SOLAR_LOCATIONS, a ';'-separated list of
// "name:latitude:longitude" entries. Names may themselves contain ':'.
type LocationList []solar.Location

func (l *LocationList) Decode(value string) error {
	var out LocationList
	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		lngSep := strings.LastIndex(entry, ":")
		if lngSep < 0 {
			return fmt.Errorf("location %q: want name:lat:lng", entry)
		}
		latSep := strings.LastIndex(entry[:lngSep], ":")
		if latSep < 0 {
			return fmt.Errorf("location %q: want name:lat:lng", entry)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(entry[latSep+1:lngSep]), 64)
		if err != nil {
			return fmt.Errorf("location %q: latitude: %w", entry, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(entry[lngSep+1:]), 64)
		if err != nil {
			return fmt.Errorf("location %q: longitude: %w", entry, err)
		}

		out = append(out, solar.Location{
			Name:      strings.TrimSpace(entry[:latSep]),
			Latitude:  lat,
			Longitude: lng,
		})
	}
	*l = out
	return nil
}

// DefaultLocations is the built-in set of eleven Mauritian sites.
func DefaultLocations() LocationList {
	return LocationList{
		{Name: "Le Bocage", Latitude: -20.2, Longitude: 57.5},
		{Name: "Curepipe", Latitude: -20.3162, Longitude: 57.5166},
		{Name: "Mahebourg", Latitude: -20.4081, Longitude: 57.7},
		{Name: "Henrietta", Latitude: -20.2344, Longitude: 57.4761},
		{Name: "Bambous", Latitude: -20.2667, Longitude: 57.4000},
		{Name: "Triolet", Latitude: -20.0589, Longitude: 57.5506},
		{Name: "Laventure", Latitude: -20.1667, Longitude: 57.6667},
		{Name: "Queen Victoria", Latitude: -20.2167, Longitude: 57.4833},
		{Name: "Bel Air Rivière Sèche", Latitude: -20.2583, Longitude: 57.7500},
		{Name: "Cap Malheureux", Latitude: -19.9833, Longitude: 57.6167},
		{Name: "Le Morne", Latitude: -20.4500, Longitude: 57.3167},
	}
}
