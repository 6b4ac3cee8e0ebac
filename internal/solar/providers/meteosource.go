package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/solar-power-monitor/internal/solar"
)

// DefaultMeteosourceURL is the free-tier point forecast endpoint.
const DefaultMeteosourceURL = "https://www.meteosource.com/api/v1/free/point"

// MeteosourceProvider implements solar.CloudCoverSource for Meteosource.
type MeteosourceProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewMeteosourceProvider(client *http.Client, baseURL, apiKey string) *MeteosourceProvider {
	if baseURL == "" {
		baseURL = DefaultMeteosourceURL
	}

	return &MeteosourceProvider{
		name:    "meteosource",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newCircuitBreaker("meteosource"),
	}
}

func (p *MeteosourceProvider) Name() string {
	return p.name
}

type meteosourcePayload struct {
	Current *struct {
		CloudCover *float64 `json:"cloud_cover" validate:"required,gte=0,lte=100"`
	} `json:"current" validate:"required"`
}

// CloudCover returns the current cloud cover percentage for loc.
// Meteosource resolves the location by its place name.
func (p *MeteosourceProvider) CloudCover(ctx context.Context, loc solar.Location) (float64, error) {
	if p.apiKey == "" {
		return 0, solar.Unavailable(p.name, errors.New("meteosource api key is not configured"))
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("place_id", loc.Name)
		values.Set("sections", "all")
		values.Set("timezone", "UTC")
		values.Set("language", "en")
		values.Set("units", "metric")
		values.Set("key", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return 0, solar.Unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload meteosourcePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, solar.Malformed(p.name, err)
	}
	if err := validate.Struct(payload); err != nil {
		return 0, solar.Malformed(p.name, err)
	}

	return *payload.Current.CloudCover, nil
}
