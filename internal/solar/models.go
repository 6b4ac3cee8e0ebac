package solar

import (
	"strings"
	"time"
)

// Status represents the categorical generation outlook for a location.
type Status string

const (
	StatusOptimal Status = "optimal"
	StatusNormal  Status = "normal"
	StatusLow     Status = "low"
	StatusUnknown Status = "unknown"
)

// SolarWindSample is a single plasma reading (density, speed, temperature)
// taken from the space-weather time series. One sample drives every location
// of a request.
type SolarWindSample struct {
	Density     float64 `json:"density"`
	Speed       float64 `json:"speed"`
	Temperature float64 `json:"temperature"`
}

// Location represents a named place for which we estimate solar power.
// Name must be unique within the configured set.
type Location struct {
	Name      string  `json:"name" validate:"required"`
	Latitude  float64 `json:"lat" validate:"latitude"`
	Longitude float64 `json:"lng" validate:"longitude"`
}

// Key returns the location name with spaces replaced by underscores.
func (l Location) Key() string {
	return strings.ReplaceAll(l.Name, " ", "_")
}

// PowerMetrics holds the three derived power values for one location.
type PowerMetrics struct {
	AboveClouds float64 `json:"power_output_above_clouds"`
	OnGround    float64 `json:"power_output_on_ground"`
	Loss        float64 `json:"power_loss"`
}

// LocationResult is the per-location outcome of an aggregation run.
type LocationResult struct {
	Location   string  `json:"-"`
	CloudCover float64 `json:"cloud_cover"`
	IsFallback bool    `json:"is_fallback"`
	Status     Status  `json:"status"`
	PowerMetrics
}

// Report maps location name to its result.
type Report map[string]LocationResult

// Fallbacks returns how many locations in the report used the fallback cloud cover.
func (r Report) Fallbacks() int {
	n := 0
	for _, res := range r {
		if res.IsFallback {
			n++
		}
	}
	return n
}

// recordTimeLayout matches the naive ISO 8601 form the sheet has always received.
const recordTimeLayout = "2006-01-02T15:04:05.000000"

// SheetRecord is the row appended to the external tabular store.
type SheetRecord struct {
	ID               string  `json:"ID"`
	Datetime         string  `json:"datetime"`
	Location         string  `json:"location"`
	CloudCover       float64 `json:"cloud_cover"`
	AboveClouds      float64 `json:"power_output_above_clouds"`
	OnGround         float64 `json:"power_output_on_ground"`
	Status           Status  `json:"status"`
	SolarPowerStatus Status  `json:"solar_power_status"`
	IsFallback       bool    `json:"is_fallback"`
}

// NewSheetRecord projects a result into a sheet row. ts is rendered in UTC.
func NewSheetRecord(loc Location, res LocationResult, ts time.Time) SheetRecord {
	stamp := ts.UTC().Format(recordTimeLayout)
	return SheetRecord{
		ID:               stamp + "_" + loc.Key(),
		Datetime:         stamp,
		Location:         loc.Name,
		CloudCover:       res.CloudCover,
		AboveClouds:      res.AboveClouds,
		OnGround:         res.OnGround,
		Status:           res.Status,
		SolarPowerStatus: res.Status,
		IsFallback:       res.IsFallback,
	}
}
