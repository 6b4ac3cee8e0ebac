package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/solar-power-monitor/internal/solar"
)

// DefaultAppSheetURL is the AppSheet REST API v2 root.
const DefaultAppSheetURL = "https://api.appsheet.com/api/v2"

var errAppSheetDisabled = errors.New("appsheet app id is not configured")

// AppSheetConfig identifies the target table and its row properties.
type AppSheetConfig struct {
	BaseURL   string
	AppID     string
	AccessKey string
	Table     string
	Locale    string
	TimeZone  string
}

// AppSheetWriter appends sheet records to an AppSheet table with the "Add" action.
type AppSheetWriter struct {
	name    string
	cfg     AppSheetConfig
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewAppSheetWriter(client *http.Client, cfg AppSheetConfig) *AppSheetWriter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAppSheetURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &AppSheetWriter{
		name:    "appsheet",
		cfg:     cfg,
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newCircuitBreaker("appsheet"),
	}
}

func (w *AppSheetWriter) Name() string {
	return w.name
}

// Enabled reports whether an app id is configured.
func (w *AppSheetWriter) Enabled() bool {
	return w.cfg.AppID != ""
}

type appSheetAction struct {
	Action     string              `json:"Action"`
	Properties appSheetProperties  `json:"Properties"`
	Rows       []solar.SheetRecord `json:"Rows"`
}

type appSheetProperties struct {
	Locale   string `json:"Locale,omitempty"`
	TimeZone string `json:"TimeZone,omitempty"`
}

// Write appends rec as a single row. The response body is returned for logging.
func (w *AppSheetWriter) Write(ctx context.Context, rec solar.SheetRecord) (string, error) {
	if !w.Enabled() {
		return "", solar.WriteFailed(w.name, errAppSheetDisabled)
	}

	body, err := json.Marshal(appSheetAction{
		Action: "Add",
		Properties: appSheetProperties{
			Locale:   w.cfg.Locale,
			TimeZone: w.cfg.TimeZone,
		},
		Rows: []solar.SheetRecord{rec},
	})
	if err != nil {
		return "", solar.WriteFailed(w.name, err)
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/apps/%s/tables/%s/Action",
			w.cfg.BaseURL, url.PathEscape(w.cfg.AppID), url.PathEscape(w.cfg.Table))
		req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("applicationAccessKey", w.cfg.AccessKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := doRequest(ctx, w.httpCfg, w.circuit, buildRequest)
	if err != nil {
		return "", solar.WriteFailed(w.name, err)
	}
	defer resp.Body.Close()

	reply, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return strings.TrimSpace(string(reply)), nil
}
