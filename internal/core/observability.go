package core

import (
	"context"
	"time"
)

// Logger is the structured logging surface the service writes to. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the current time. Export file names use its location.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// MultiMetricsRecorder fans observations out to several recorders.
type MultiMetricsRecorder []MetricsRecorder

// Observe implements MetricsRecorder.
func (m MultiMetricsRecorder) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range m {
		if r != nil {
			r.Observe(ctx, operation, success, duration)
		}
	}
}

// Tracer starts a span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended with the operation's error, nil on success.
type TraceSpan interface {
	End(err error)
}

// EntitySpan is implemented by spans that record the product code or order
// id an operation touched. The service sets it just before End.
type EntitySpan interface {
	SetEntityID(id string)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// AuditStatus is the outcome recorded on an AuditEntry.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one state-changing operation.
type AuditEntry struct {
	Operation string        `json:"operation"`
	Entity    AuditEntity   `json:"entity"`
	Action    AuditAction   `json:"action"`
	EntityID  string        `json:"entity_id,omitempty"`
	Status    AuditStatus   `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// AuditRecorder receives audit entries for state-changing operations.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

// LogAuditRecorder writes audit entries to a Logger at info level.
type LogAuditRecorder struct {
	Logger Logger
}

// Record implements AuditRecorder.
func (r LogAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	if r.Logger == nil {
		return
	}
	args := []any{
		"operation", entry.Operation,
		"entity", string(entry.Entity),
		"action", string(entry.Action),
		"entity_id", entry.EntityID,
		"status", string(entry.Status),
		"duration", entry.Duration,
	}
	if entry.Error != "" {
		args = append(args, "error", entry.Error)
	}
	r.Logger.Info("audit", args...)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMetricsRecorder installs a metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditRecorder installs an audit sink.
func WithAuditRecorder(a AuditRecorder) Option {
	return func(s *Service) {
		if a != nil {
			s.audit = a
		}
	}
}
