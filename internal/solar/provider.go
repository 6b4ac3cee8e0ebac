package solar

import (
	"context"
)

// WindSource provides the latest valid solar-wind plasma sample.
type WindSource interface {
	LatestSample(ctx context.Context) (SolarWindSample, error)
}

// CloudCoverSource provides the current cloud cover percentage for a location.
type CloudCoverSource interface {
	CloudCover(ctx context.Context, loc Location) (float64, error)
}

// RecordSink accepts sheet records for best-effort delivery.
// Submit must not block on the delivery itself.
type RecordSink interface {
	Submit(rec SheetRecord)
}
