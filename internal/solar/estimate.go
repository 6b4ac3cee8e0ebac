package solar

import "math"

// Estimate derives power metrics from a plasma sample and a cloud cover
// percentage (0-100). All sample values must be strictly positive.
func Estimate(sample SolarWindSample, cloudCover float64) (PowerMetrics, error) {
	if err := sample.Validate(); err != nil {
		return PowerMetrics{}, err
	}

	above := math.Log(sample.Density*sample.Speed*sample.Temperature/3)*10 - 100
	onGround := above * (1 - cloudCover/100)

	return PowerMetrics{
		AboveClouds: above,
		OnGround:    onGround,
		Loss:        above - onGround,
	}, nil
}

// Validate reports whether the sample satisfies the estimator preconditions.
func (s SolarWindSample) Validate() error {
	if !(s.Density > 0) || !(s.Speed > 0) || !(s.Temperature > 0) {
		return ErrInvalidSample
	}
	return nil
}

// Thresholds are the on-ground power levels separating the status brackets.
// Both comparisons are strict.
type Thresholds struct {
	Optimal float64
	Normal  float64
}

// DefaultThresholds returns the 70/40 brackets.
func DefaultThresholds() Thresholds {
	return Thresholds{Optimal: 70, Normal: 40}
}

// Classify maps on-ground power to a status. A fallback estimate is always unknown.
func (t Thresholds) Classify(onGround float64, isFallback bool) Status {
	switch {
	case isFallback:
		return StatusUnknown
	case onGround > t.Optimal:
		return StatusOptimal
	case onGround > t.Normal:
		return StatusNormal
	default:
		return StatusLow
	}
}
