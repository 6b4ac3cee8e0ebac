package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/solar-power-monitor/internal/solar"
)

// DefaultSunriseSunsetURL is the sunrisesunset.io lookup endpoint.
const DefaultSunriseSunsetURL = "https://api.sunrisesunset.io/json"

// sunTimeLayout is the wall-clock format used for sunrise and sunset.
const sunTimeLayout = "3:04:05 PM"

// SunriseSunsetConfig configures the daylight gate reference point.
type SunriseSunsetConfig struct {
	BaseURL   string
	Latitude  float64
	Longitude float64
	// Location is the zone whose wall clock is compared against sunrise and sunset.
	Location *time.Location
	Enabled  bool
	Logger   *slog.Logger
}

// SunriseSunsetProvider restricts writes to daylight hours at a fixed point.
// It fails open: any lookup error allows the write. A successful lookup is
// reused for the rest of the local day.
type SunriseSunsetProvider struct {
	name    string
	cfg     SunriseSunsetConfig
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
	logger  *slog.Logger

	mu        sync.Mutex
	cachedDay string
	cached    DaylightWindow
}

func NewSunriseSunsetProvider(client *http.Client, cfg SunriseSunsetConfig) *SunriseSunsetProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSunriseSunsetURL
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SunriseSunsetProvider{
		name:    "sunrisesunset",
		cfg:     cfg,
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newCircuitBreaker("sunrisesunset"),
		now:     time.Now,
		logger:  logger,
	}
}

func (p *SunriseSunsetProvider) Name() string {
	return p.name
}

// DaylightWindow is sunrise and sunset as offsets from local midnight.
type DaylightWindow struct {
	Sunrise time.Duration
	Sunset  time.Duration
}

// Contains reports whether the wall-clock time of t falls within the window, inclusive.
func (w DaylightWindow) Contains(t time.Time) bool {
	tod := sinceMidnight(t)
	return w.Sunrise <= tod && tod <= w.Sunset
}

// Allow reports whether records may be written now.
func (p *SunriseSunsetProvider) Allow(ctx context.Context) bool {
	if !p.cfg.Enabled {
		return true
	}

	now := p.now().In(p.cfg.Location)
	w, err := p.cachedWindow(ctx, now.Format(time.DateOnly))
	if err != nil {
		p.logger.Warn("daylight lookup failed; allowing write", "provider", p.name, "error", err)
		return true
	}
	return w.Contains(now)
}

// cachedWindow returns the window for day, fetching it at most once per day.
// Failed lookups are not cached.
func (p *SunriseSunsetProvider) cachedWindow(ctx context.Context, day string) (DaylightWindow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cachedDay == day {
		return p.cached, nil
	}

	w, err := p.window(ctx, day)
	if err != nil {
		return DaylightWindow{}, err
	}
	p.cachedDay, p.cached = day, w
	return w, nil
}

// Window fetches today's sunrise and sunset for the reference point.
func (p *SunriseSunsetProvider) Window(ctx context.Context) (DaylightWindow, error) {
	return p.window(ctx, p.now().In(p.cfg.Location).Format(time.DateOnly))
}

func (p *SunriseSunsetProvider) window(ctx context.Context, day string) (DaylightWindow, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%g", p.cfg.Latitude))
		values.Set("lng", fmt.Sprintf("%g", p.cfg.Longitude))
		values.Set("date", day)

		u := fmt.Sprintf("%s?%s", p.cfg.BaseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return DaylightWindow{}, solar.Unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Results struct {
			Sunrise string `json:"sunrise" validate:"required"`
			Sunset  string `json:"sunset" validate:"required"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return DaylightWindow{}, solar.Malformed(p.name, err)
	}
	if err := validate.Struct(payload); err != nil {
		return DaylightWindow{}, solar.Malformed(p.name, err)
	}

	sunrise, err := time.Parse(sunTimeLayout, payload.Results.Sunrise)
	if err != nil {
		return DaylightWindow{}, solar.Malformed(p.name, err)
	}
	sunset, err := time.Parse(sunTimeLayout, payload.Results.Sunset)
	if err != nil {
		return DaylightWindow{}, solar.Malformed(p.name, err)
	}

	return DaylightWindow{
		Sunrise: sinceMidnight(sunrise),
		Sunset:  sinceMidnight(sunset),
	}, nil
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}
