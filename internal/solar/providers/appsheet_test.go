package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/solar-power-monitor/internal/solar"
)

func testRecord() solar.SheetRecord {
	return solar.SheetRecord{
		ID:               "2026-03-14T06:30:00.123456_Le_Bocage",
		Datetime:         "2026-03-14T06:30:00.123456",
		Location:         "Le Bocage",
		CloudCover:       12,
		AboveClouds:      77.92,
		OnGround:         68.57,
		Status:           solar.StatusNormal,
		SolarPowerStatus: solar.StatusNormal,
	}
}

func TestAppSheetWrite_Success(t *testing.T) {
	var (
		gotPath   string
		gotKey    string
		gotType   string
		gotAction map[string]any
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.EscapedPath()
		gotKey = r.Header.Get("applicationAccessKey")
		gotType = r.Header.Get("Content-Type")

		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &gotAction))

		_, _ = w.Write([]byte(`{"Rows":[{"ID":"x"}]}`))
	}))
	defer srv.Close()

	wr := NewAppSheetWriter(newTestClient(), AppSheetConfig{
		BaseURL:   srv.URL + "/",
		AppID:     "app-123",
		AccessKey: "secret",
		Table:     "Table 1",
		Locale:    "en-US",
		TimeZone:  "Indian/Mauritius",
	})

	reply, err := wr.Write(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, `{"Rows":[{"ID":"x"}]}`, reply)

	assert.Equal(t, "/apps/app-123/tables/Table%201/Action", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "application/json", gotType)

	assert.Equal(t, "Add", gotAction["Action"])
	assert.Equal(t, map[string]any{"Locale": "en-US", "TimeZone": "Indian/Mauritius"}, gotAction["Properties"])

	rows, ok := gotAction["Rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "2026-03-14T06:30:00.123456_Le_Bocage", row["ID"])
	assert.Equal(t, "Le Bocage", row["location"])
	assert.Equal(t, "normal", row["solar_power_status"])
	assert.Equal(t, false, row["is_fallback"])
	assert.Equal(t, 12.0, row["cloud_cover"])
}

func TestAppSheetWrite_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"column missing"}`))
	}))
	defer srv.Close()

	wr := NewAppSheetWriter(newTestClient(), AppSheetConfig{BaseURL: srv.URL, AppID: "a", AccessKey: "k", Table: "t"})

	_, err := wr.Write(context.Background(), testRecord())
	require.ErrorIs(t, err, solar.ErrSinkWriteFailure)

	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Contains(t, se.Body, "column missing")
}

func TestAppSheetWrite_Disabled(t *testing.T) {
	wr := NewAppSheetWriter(newTestClient(), AppSheetConfig{})

	assert.False(t, wr.Enabled())
	_, err := wr.Write(context.Background(), testRecord())
	assert.ErrorIs(t, err, solar.ErrSinkWriteFailure)
	assert.ErrorIs(t, err, errAppSheetDisabled)
}
