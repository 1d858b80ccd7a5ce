// Package metricsx instruments a gql pipeline with Prometheus metrics.
//
// Install it as the outermost middleware so every request is observed,
// including the ones the deduplication stage later swallows:
//
//	metrics, err := metricsx.New()
//	if err != nil {
//		return err
//	}
//	client := gql.NewClient(transport,
//		gql.WithMiddleware(metrics.Middleware(), dedup.Middleware()),
//	)
//
// A request's outcome is decided when its stream finishes: "ok" when it
// drained normally, "error" when it failed, and "cancelled" when its
// cancellation signal fired, which covers both the error surface below
// the deduplication stage and the silent empty stream above it.
package metricsx

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/gql"
)

// Outcome labels on the duration histogram.
const (
	outcomeOK        = "ok"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
)

// Metrics holds the pipeline's Prometheus collectors. Safe for
// concurrent use; one instance typically serves one client.
type Metrics struct {
	requestsTotal  *prometheus.CounterVec
	inFlight       prometheus.Gauge
	responsesTotal *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	cancellations  prometheus.Counter
}

// New creates the collectors and registers them. Registration problems
// surface as errors so a duplicate registration cannot crash the host
// process.
func New(opts ...Option) (*Metrics, *errx.Error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "requests_total",
				Help:      "Requests entering the pipeline, by operation kind.",
			},
			[]string{"kind"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.namespace,
				Name:      "requests_in_flight",
				Help:      "Requests whose stream has not finished yet.",
			},
		),
		responsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "responses_total",
				Help:      "Responses delivered to consumers, by operation kind.",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.namespace,
				Name:      "request_duration_seconds",
				Help:      "Time from entering the pipeline to the stream finishing.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind", "outcome"},
		),
		cancellations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "cancellations_total",
				Help:      "Requests that ended because their cancellation signal fired.",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.requestsTotal, m.inFlight, m.responsesTotal, m.duration, m.cancellations,
	}
	for _, c := range collectors {
		if err := cfg.registerer.Register(c); err != nil {
			return nil, errorRegistry.NewWithCause(ErrRegister, err)
		}
	}
	return m, nil
}

// Middleware returns the observing pipeline stage.
func (m *Metrics) Middleware() gql.Middleware {
	return func(next gql.Handler) gql.Handler {
		return gql.HandlerFunc(func(ctx context.Context, req *gql.Request) (gql.ResponseStream, error) {
			kind := req.Operation.Kind.String()
			m.requestsTotal.WithLabelValues(kind).Inc()
			m.inFlight.Inc()
			start := time.Now()

			stream, err := next.Handle(ctx, req)
			if err != nil {
				m.settle(ctx, kind, start, errOutcome(err))
				return nil, err
			}

			return &observedStream{
				inner: stream,
				m:     m,
				ctx:   ctx,
				kind:  kind,
				start: start,
			}, nil
		})
	}
}

// settle records the end of one request. An "ok" outcome is upgraded to
// "cancelled" when the request's signal fired, which is the only trace
// a swallowed cancellation leaves.
func (m *Metrics) settle(ctx context.Context, kind string, start time.Time, outcome string) {
	if outcome == outcomeOK {
		if sig, ok := gql.CancelSignalFrom(ctx); ok && sig.IsCancelled() {
			outcome = outcomeCancelled
		}
	}
	if outcome == outcomeCancelled {
		m.cancellations.Inc()
	}
	m.inFlight.Dec()
	m.duration.WithLabelValues(kind, outcome).Observe(time.Since(start).Seconds())
}

func errOutcome(err error) string {
	if gql.IsCancellation(err) {
		return outcomeCancelled
	}
	return outcomeError
}

// observedStream counts delivered responses and settles the request
// exactly once, at EOF, on error, or at Close, whichever comes first.
type observedStream struct {
	inner gql.ResponseStream
	m     *Metrics
	ctx   context.Context
	kind  string
	start time.Time
	once  sync.Once
}

func (s *observedStream) Next() (*gql.Response, error) {
	resp, err := s.inner.Next()
	if err == io.EOF {
		s.settle(outcomeOK)
		return nil, io.EOF
	}
	if err != nil {
		s.settle(errOutcome(err))
		return nil, err
	}
	s.m.responsesTotal.WithLabelValues(s.kind).Inc()
	return resp, nil
}

func (s *observedStream) Close() error {
	s.settle(outcomeOK)
	return s.inner.Close()
}

func (s *observedStream) settle(outcome string) {
	s.once.Do(func() {
		s.m.settle(s.ctx, s.kind, s.start, outcome)
	})
}
