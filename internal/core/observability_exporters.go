package core

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var expvarSeq uint64

// ExpvarMetricsRecorder publishes an expvar map under /debug/vars with one
// counter per "<operation>.success" and "<operation>.error" key and a running
// "<operation>.duration_ms" total.
type ExpvarMetricsRecorder struct {
	name string
	vars *expvar.Map
}

// NewExpvarMetricsRecorder publishes a recorder under name. An empty name is
// replaced by a unique stocktake_service_metrics_N.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("stocktake_service_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	vars := new(expvar.Map).Init()
	expvar.Publish(name, vars)
	return &ExpvarMetricsRecorder{name: name, vars: vars}
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.vars.Add(operation+"."+outcome(success), 1)
	r.vars.AddFloat(operation+".duration_ms", float64(duration)/float64(time.Millisecond))
}

// Count returns how many times operation finished with the given outcome.
func (r *ExpvarMetricsRecorder) Count(operation string, success bool) int64 {
	if v, ok := r.vars.Get(operation + "." + outcome(success)).(*expvar.Int); ok {
		return v.Value()
	}
	return 0
}

// DurationMS returns the summed duration of operation in milliseconds.
func (r *ExpvarMetricsRecorder) DurationMS(operation string) float64 {
	if v, ok := r.vars.Get(operation + ".duration_ms").(*expvar.Float); ok {
		return v.Value()
	}
	return 0
}

func outcome(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

// JSONTraceEntry is one span line written by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	EntityID   string    `json:"entity_id,omitempty"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// JSONTraceTracer writes one JSON line per finished span. The CLI points it
// at stderr with -trace.
type JSONTraceTracer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONTracer writes spans to w. A nil writer discards them.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	if w == nil {
		w = io.Discard
	}
	return &JSONTraceTracer{enc: json.NewEncoder(w)}
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, entry: JSONTraceEntry{Operation: operation, StartedAt: time.Now().UTC()}}
}

type jsonTraceSpan struct {
	tracer *JSONTraceTracer
	entry  JSONTraceEntry
}

// SetEntityID tags the span with the product code or order id it touched.
func (s *jsonTraceSpan) SetEntityID(id string) { s.entry.EntityID = id }

func (s *jsonTraceSpan) End(err error) {
	entry := s.entry
	entry.Status = outcome(err == nil)
	if err != nil {
		entry.Error = err.Error()
	}
	entry.DurationMS = float64(time.Since(entry.StartedAt)) / float64(time.Millisecond)
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	_ = s.tracer.enc.Encode(entry)
}

// PrometheusMetricsRecorder exports operation counts and latency histograms.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers the stocktake_service_* collectors on reg.
// Registering twice on one registry reuses the existing collectors.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocktake",
		Subsystem: "service",
		Name:      "operations_total",
		Help:      "Service operations by outcome.",
	}, []string{"operation", "status"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stocktake",
		Subsystem: "service",
		Name:      "operation_duration_seconds",
		Help:      "Service operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	var err error
	if operations, err = registerOrReuse(reg, operations); err != nil {
		return nil, err
	}
	if durations, err = registerOrReuse(reg, durations); err != nil {
		return nil, err
	}
	return &PrometheusMetricsRecorder{operations: operations, durations: durations}, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.operations.WithLabelValues(operation, outcome(success)).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}
