package providers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/solar-power-monitor/internal/common"
	"github.com/i474232898/solar-power-monitor/internal/solar"
)

// DefaultNOAAPlasmaURL is the SWPC 5-minute real-time solar wind plasma product.
const DefaultNOAAPlasmaURL = "https://services.swpc.noaa.gov/products/solar-wind/plasma-5-minute.json"

var errNoValidRow = errors.New("no row with numeric density, speed and temperature")

// NOAAPlasmaProvider implements solar.WindSource for the NOAA SWPC plasma feed.
type NOAAPlasmaProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewNOAAPlasmaProvider(client *http.Client, baseURL string, logger *slog.Logger) *NOAAPlasmaProvider {
	if baseURL == "" {
		baseURL = DefaultNOAAPlasmaURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &NOAAPlasmaProvider{
		name:    "noaa-swpc",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newCircuitBreaker("noaa-swpc"),
		logger:  logger,
	}
}

func (p *NOAAPlasmaProvider) Name() string {
	return p.name
}

// LatestSample returns the most recent row whose density, speed and
// temperature all parse as non-negative decimals.
func (p *NOAAPlasmaProvider) LatestSample(ctx context.Context) (solar.SolarWindSample, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.baseURL, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return solar.SolarWindSample{}, solar.Unavailable(p.name, err)
	}
	defer resp.Body.Close()

	// Rows look like ["2026-03-14 06:25:00.000","4.12","401.3","98234"]; the
	// first row is the header and any cell may be null.
	var rows [][]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return solar.SolarWindSample{}, solar.Malformed(p.name, err)
	}

	sample, err := selectSample(rows)
	if err != nil {
		return solar.SolarWindSample{}, solar.Malformed(p.name, err)
	}

	p.logger.Debug("plasma rows decoded", "provider", p.name, "rows", len(rows))
	return sample, nil
}

// selectSample scans rows newest to oldest and returns the first valid one.
func selectSample(rows [][]any) (solar.SolarWindSample, error) {
	for i := len(rows) - 1; i >= 0; i-- {
		vals, ok := parseRow(rows[i])
		if !ok {
			continue
		}
		return solar.SolarWindSample{
			Density:     vals[0],
			Speed:       vals[1],
			Temperature: vals[2],
		}, nil
	}
	return solar.SolarWindSample{}, errNoValidRow
}

func parseRow(row []any) ([3]float64, bool) {
	var out [3]float64
	if len(row) < 4 {
		return out, false
	}
	for i := 1; i <= 3; i++ {
		s, ok := row[i].(string)
		if !ok || !common.IsDecimal(s) {
			return out, false
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return out, false
		}
		out[i-1] = v
	}
	return out, true
}
