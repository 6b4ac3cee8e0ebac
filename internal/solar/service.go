package solar

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy holds the business constants applied during aggregation.
type Policy struct {
	FallbackCloudCover float64
	Thresholds         Thresholds
	// CallTimeout bounds each outbound call. Zero means no extra bound
	// beyond the HTTP client's own timeout.
	CallTimeout time.Duration
}

// DefaultPolicy returns a 50% fallback cloud cover and the 70/40 thresholds.
func DefaultPolicy() Policy {
	return Policy{
		FallbackCloudCover: 50,
		Thresholds:         DefaultThresholds(),
		CallTimeout:        10 * time.Second,
	}
}

// Service orchestrates the shared solar-wind fetch and the per-location estimates.
type Service struct {
	wind      WindSource
	clouds    CloudCoverSource
	sink      RecordSink
	locations []Location
	policy    Policy
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for per-location diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new Service. locations is copied and processed in order.
func NewService(wind WindSource, clouds CloudCoverSource, sink RecordSink, locations []Location, policy Policy, opts ...Option) *Service {
	s := &Service{
		wind:      wind,
		clouds:    clouds,
		sink:      sink,
		locations: append([]Location(nil), locations...),
		policy:    policy,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locations returns a copy of the configured location table.
func (s *Service) Locations() []Location {
	return append([]Location(nil), s.locations...)
}

// FetchAndAggregate fetches the shared solar-wind sample and aggregates every
// configured location. Any failure to obtain a usable sample aborts the whole run.
func (s *Service) FetchAndAggregate(ctx context.Context) (Report, error) {
	callCtx, cancel := s.callContext(ctx)
	sample, err := s.wind.LatestSample(callCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch solar wind sample: %w", err)
	}
	if err := sample.Validate(); err != nil {
		return nil, fmt.Errorf("fetch solar wind sample: %w", Malformed("solar-wind", err))
	}

	s.logger.Debug("solar wind sample selected",
		"request_id", RequestID(ctx),
		"density", sample.Density,
		"speed", sample.Speed,
		"temperature", sample.Temperature,
	)

	return s.Aggregate(ctx, sample)
}

// Aggregate computes a result for every configured location using sample.
// Per-location cloud cover failures fall back to the policy value and never
// abort the run. Each result is also submitted to the record sink.
func (s *Service) Aggregate(ctx context.Context, sample SolarWindSample) (Report, error) {
	ts := s.now()
	report := make(Report, len(s.locations))

	for _, loc := range s.locations {
		cloudCover, isFallback := s.fetchCloudCover(ctx, loc).resolve(s.policy.FallbackCloudCover)

		metrics, err := Estimate(sample, cloudCover)
		if err != nil {
			// Only reachable if the caller skipped sample validation.
			return nil, err
		}

		res := LocationResult{
			Location:     loc.Name,
			CloudCover:   cloudCover,
			IsFallback:   isFallback,
			Status:       s.policy.Thresholds.Classify(metrics.OnGround, isFallback),
			PowerMetrics: metrics,
		}
		report[loc.Name] = res

		if s.sink != nil {
			s.sink.Submit(NewSheetRecord(loc, res, ts))
		}
	}

	return report, nil
}

// CloudCoverResult is the outcome of a single cloud cover lookup.
type CloudCoverResult struct {
	Value float64
	Err   error
}

// resolve applies the fallback policy: any error yields the fallback value.
func (r CloudCoverResult) resolve(fallback float64) (cloudCover float64, isFallback bool) {
	if r.Err != nil {
		return fallback, true
	}
	return r.Value, false
}

func (s *Service) fetchCloudCover(ctx context.Context, loc Location) CloudCoverResult {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	v, err := s.clouds.CloudCover(callCtx, loc)
	if err != nil {
		s.logger.Error("cloud cover fetch failed; using fallback",
			"request_id", RequestID(ctx),
			"location", loc.Name,
			"fallback", s.policy.FallbackCloudCover,
			"error", err,
		)
	}
	return CloudCoverResult{Value: v, Err: err}
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.policy.CallTimeout > 0 {
		return context.WithTimeout(ctx, s.policy.CallTimeout)
	}
	return context.WithCancel(ctx)
}

type requestIDKey struct{}

// WithRequestID returns a context carrying id for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
