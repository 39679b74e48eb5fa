package telemetry

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Setup installs a global tracer provider that writes finished spans to
// logger. The returned function flushes and shuts the provider down.
func Setup(logger *log.Logger, service string) func(context.Context) error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(NewLogExporter(logger, service)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// LogExporter is a span exporter writing one logrus entry per span.
type LogExporter struct {
	logger  *log.Logger
	service string
}

func NewLogExporter(logger *log.Logger, service string) *LogExporter {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogExporter{logger: logger, service: service}
}

func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := log.Fields{
			"service":     e.service,
			"span":        s.Name(),
			"trace_id":    s.SpanContext().TraceID().String(),
			"span_id":     s.SpanContext().SpanID().String(),
			"duration_ms": float64(s.EndTime().Sub(s.StartTime())) / float64(time.Millisecond),
			"status":      s.Status().Code.String(),
		}
		if s.Parent().IsValid() {
			fields["parent_span_id"] = s.Parent().SpanID().String()
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.AsInterface()
		}
		entry := e.logger.WithFields(fields)
		if desc := s.Status().Description; desc != "" {
			entry = entry.WithField("status_description", desc)
		}
		entry.Debug("trace.span")
	}
	return nil
}

func (e *LogExporter) Shutdown(ctx context.Context) error {
	return nil
}
