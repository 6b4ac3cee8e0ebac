package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/solar-power-monitor/internal/solar"
)

const plasmaFixture = `[
	["time_tag","density","speed","temperature"],
	["2026-03-14 06:10:00.000","3.90","395.1","91000"],
	["2026-03-14 06:15:00.000","4","400","100000"],
	["2026-03-14 06:20:00.000","4.2",null,"100500"],
	["2026-03-14 06:25:00.000","-1.0","401.0","100700"]
]`

func newTestClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

func TestNOAALatestSample_SkipsInvalidTrailingRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(plasmaFixture))
	}))
	defer srv.Close()

	p := NewNOAAPlasmaProvider(newTestClient(), srv.URL, nil)

	sample, err := p.LatestSample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solar.SolarWindSample{Density: 4, Speed: 400, Temperature: 100000}, sample)
}

func TestNOAALatestSample_NoValidRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[["time_tag","density","speed","temperature"],["2026-03-14 06:25:00.000",null,null,null]]`))
	}))
	defer srv.Close()

	p := NewNOAAPlasmaProvider(newTestClient(), srv.URL, nil)

	_, err := p.LatestSample(context.Background())
	assert.ErrorIs(t, err, solar.ErrMalformedUpstreamData)
	assert.ErrorIs(t, err, errNoValidRow)
}

func TestNOAALatestSample_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewNOAAPlasmaProvider(newTestClient(), srv.URL, nil)

	_, err := p.LatestSample(context.Background())
	assert.ErrorIs(t, err, solar.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, errUnexpected)
}

func TestNOAALatestSample_GarbagePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	p := NewNOAAPlasmaProvider(newTestClient(), srv.URL, nil)

	_, err := p.LatestSample(context.Background())
	assert.ErrorIs(t, err, solar.ErrMalformedUpstreamData)
}

func TestSelectSample(t *testing.T) {
	rows := [][]any{
		{"time_tag", "density", "speed", "temperature"},
		{"t1", "1.5", "350", "40000"},
		{"t2", "2"},
		{"t3", 2.0, "360", "41000"},
		{"t4", "", "370", "42000"},
	}

	s, err := selectSample(rows)
	require.NoError(t, err)
	assert.Equal(t, solar.SolarWindSample{Density: 1.5, Speed: 350, Temperature: 40000}, s)

	_, err = selectSample(nil)
	assert.ErrorIs(t, err, errNoValidRow)
}

func TestSelectSample_AcceptsZero(t *testing.T) {
	s, err := selectSample([][]any{{"t", "0", "0.0", "5"}})
	require.NoError(t, err)
	assert.Zero(t, s.Density)
	assert.ErrorIs(t, s.Validate(), solar.ErrInvalidSample)
}
