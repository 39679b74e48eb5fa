package telemetry

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLogExporterWritesSpanFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(NewLogExporter(logger, "recap-api")),
	)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	_, child := tp.Tracer("test").Start(ctx, "child")
	child.SetAttributes(attribute.String("meeting.id", "m1"))
	child.End()
	parent.End()

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 span entries, got %d", len(entries))
	}
	first := entries[0]
	if first.Message != "trace.span" || first.Data["span"] != "child" {
		t.Fatalf("unexpected entry: %s %#v", first.Message, first.Data)
	}
	if first.Data["meeting.id"] != "m1" || first.Data["service"] != "recap-api" {
		t.Fatalf("missing attributes: %#v", first.Data)
	}
	if _, ok := first.Data["parent_span_id"]; !ok {
		t.Fatalf("child span should record its parent")
	}
	if _, ok := entries[1].Data["parent_span_id"]; ok {
		t.Fatalf("root span should not record a parent")
	}
}
