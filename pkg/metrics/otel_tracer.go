package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
)

// OpenTelemetryTracer is an implementation of Tracer using OpenTelemetry.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a tracer from the given provider.
func NewOpenTelemetryTracer(provider trace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{tracer: provider.Tracer(instrumentationName)}
}

// StartRunSpan starts a root span for a RunExecution.
func (t *OpenTelemetryTracer) StartRunSpan(ctx context.Context, run *model.RunExecution) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "run",
		trace.WithAttributes(
			attribute.String("run.id", run.ID),
			attribute.String("run.name", run.RunName),
			attribute.String("run.config_path", run.ConfigPath),
		),
	)
	return ctx, func() {
		endSpan(span, run.Status, run.Failures)
	}
}

// StartStageSpan starts a child span for a StageExecution.
func (t *OpenTelemetryTracer) StartStageSpan(ctx context.Context, stage *model.StageExecution) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, stage.StageName,
		trace.WithAttributes(
			attribute.String("stage.id", stage.ID),
			attribute.String("stage.phase", stage.Phase),
		),
	)
	return ctx, func() {
		endSpan(span, stage.Status, stage.Failures)
	}
}

func endSpan(span trace.Span, status model.Status, failures model.FailureList) {
	span.SetAttributes(attribute.String("status", status.String()))
	if status == model.StatusFailed {
		msg := ""
		if len(failures) > 0 {
			msg = failures[len(failures)-1]
		}
		span.SetStatus(codes.Error, msg)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// RecordError records an error in the current span.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(
		attribute.String("module", module),
		attribute.String("error.kind", string(exception.KindOf(err))),
	))
}

// RecordEvent records an event in the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, toAttribute(k, v))
	}
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

func toAttribute(key string, v interface{}) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(key, val)
	case int:
		return attribute.Int(key, val)
	case int64:
		return attribute.Int64(key, val)
	case float64:
		return attribute.Float64(key, val)
	case bool:
		return attribute.Bool(key, val)
	default:
		return attribute.String(key, fmt.Sprint(val))
	}
}

var _ Tracer = (*OpenTelemetryTracer)(nil)
