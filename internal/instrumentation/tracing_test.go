package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("drive_read_file").
		WithFileID("abc").
		WithReadOnly(true).
		Build()

	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}

	empty := NewSpanAttributeBuilder().WithFileID("").Build()
	if len(empty) != 0 {
		t.Errorf("empty values should be skipped, got %d attributes", len(empty))
	}
}

func TestStartSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, toolSpan := StartToolSpan(context.Background(), "drive_list_files")
	_, driveSpan := StartDriveSpan(ctx, OperationList)
	SetSpanError(driveSpan, errors.New("boom"))
	driveSpan.End()
	SetSpanSuccess(toolSpan)
	toolSpan.End()

	ended := recorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(ended))
	}

	if ended[0].Name() != "drive.list" {
		t.Errorf("drive span name = %q", ended[0].Name())
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("drive span should be marked error")
	}
	if ended[0].Parent().SpanID() != ended[1].SpanContext().SpanID() {
		t.Error("drive span should be a child of the tool span")
	}
	if ended[1].Name() != "tool.drive_list_files" {
		t.Errorf("tool span name = %q", ended[1].Name())
	}
	if ended[1].Status().Code != codes.Ok {
		t.Errorf("tool span should be marked ok")
	}

	var tool string
	for _, kv := range ended[1].Attributes() {
		if string(kv.Key) == SpanAttrTool {
			tool = kv.Value.AsString()
		}
	}
	if tool != "drive_list_files" {
		t.Errorf("tool span %s = %q, want %q", SpanAttrTool, tool, "drive_list_files")
	}
}

func TestSetSpanError_Nil(t *testing.T) {
	_, span := StartToolSpan(context.Background(), "noop")
	SetSpanError(span, nil)
	span.End()
}
