// Package metrics records run, stage and spectrum metrics and traces.
package metrics

import (
	"context"
	"time"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
)

// MetricRecorder is an abstract interface for recording pipeline metrics.
// It lets the driver and the spectra generator stay independent of the metrics
// backend (Prometheus textfile, OpenTelemetry or none).
type MetricRecorder interface {
	// RecordRunStart records the start of a RunExecution.
	RecordRunStart(ctx context.Context, run *model.RunExecution)

	// RecordRunEnd records the end of a RunExecution.
	RecordRunEnd(ctx context.Context, run *model.RunExecution)

	// RecordStageStart records the start of a StageExecution.
	RecordStageStart(ctx context.Context, stage *model.StageExecution)

	// RecordStageEnd records the end of a StageExecution.
	RecordStageEnd(ctx context.Context, stage *model.StageExecution)

	// RecordSpectrum records the outcome of one generated spectrum.
	RecordSpectrum(ctx context.Context, record *model.SpectrumRecord)

	// RecordDuration records the execution time of a named operation
	// (e.g. "interpolation", "babsyn", "bsyn").
	RecordDuration(ctx context.Context, name string, duration time.Duration)

	// Flush exports whatever has been recorded so far.
	Flush(ctx context.Context) error
}

// Tracer is an abstract interface for distributed tracing of runs and stages.
type Tracer interface {
	// StartRunSpan starts a span for a RunExecution.
	//
	// Returns: A context with the new span set, and a function to end the span.
	// The span status is taken from the run when the function is called.
	StartRunSpan(ctx context.Context, run *model.RunExecution) (context.Context, func())

	// StartStageSpan starts a span for a StageExecution.
	StartStageSpan(ctx context.Context, stage *model.StageExecution) (context.Context, func())

	// RecordError records an error in the current span.
	//
	// module: The component where the error occurred (e.g., "compilation", "spectra").
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
