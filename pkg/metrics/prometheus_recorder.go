package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	logger "github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of MetricRecorder.
// A run is a short-lived process, so instead of serving /metrics the registry is
// written to a node_exporter textfile on Flush.
type PrometheusRecorder struct {
	registry *prometheus.Registry
	textfile string
	log      *logger.Logger

	runDurationSeconds *prometheus.HistogramVec
	runStatusCounter   *prometheus.CounterVec

	stageDurationSeconds *prometheus.HistogramVec
	stageStatusCounter   *prometheus.CounterVec

	spectrumCounter         *prometheus.CounterVec
	spectrumDurationSeconds *prometheus.HistogramVec

	operationDurationSeconds *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a PrometheusRecorder writing to textfile on Flush.
// An empty textfile disables the export.
func NewPrometheusRecorder(textfile string, log *logger.Logger) *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		textfile: textfile,
		log:      logger.OrDefault(log),
		runDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tswrapper_run_duration_seconds",
			Help:    "Duration of pipeline runs.",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 7200, 21600},
		}, []string{"status", "exit_status"}),
		runStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tswrapper_run_status_total",
			Help: "Total number of pipeline runs by status.",
		}, []string{"status"}),
		stageDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tswrapper_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"stage_name", "status", "exit_status"}),
		stageStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tswrapper_stage_status_total",
			Help: "Total number of pipeline stages by status.",
		}, []string{"stage_name", "status"}),
		spectrumCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tswrapper_spectra_total",
			Help: "Total number of spectra by outcome.",
		}, []string{"status"}),
		spectrumDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tswrapper_spectrum_duration_seconds",
			Help:    "Wall-clock time spent on one spectrum.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"status"}),
		operationDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tswrapper_operation_duration_seconds",
			Help:    "Duration of external tool invocations.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"operation"}),
	}

	registry.MustRegister(r.runDurationSeconds)
	registry.MustRegister(r.runStatusCounter)
	registry.MustRegister(r.stageDurationSeconds)
	registry.MustRegister(r.stageStatusCounter)
	registry.MustRegister(r.spectrumCounter)
	registry.MustRegister(r.spectrumDurationSeconds)
	registry.MustRegister(r.operationDurationSeconds)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordRunStart records the start of a RunExecution.
func (r *PrometheusRecorder) RecordRunStart(ctx context.Context, run *model.RunExecution) {
	r.runStatusCounter.WithLabelValues(run.Status.String()).Inc()
	r.log.Debugf("Metrics: run '%s' started.", run.RunName)
}

// RecordRunEnd records the end of a RunExecution.
func (r *PrometheusRecorder) RecordRunEnd(ctx context.Context, run *model.RunExecution) {
	if run.EndTime == nil {
		return
	}
	duration := run.Duration().Seconds()
	r.runStatusCounter.WithLabelValues(run.Status.String()).Inc()
	r.runDurationSeconds.WithLabelValues(run.Status.String(), string(run.ExitStatus)).Observe(duration)
	r.log.Debugf("Metrics: run '%s' ended. Duration: %.3fs", run.RunName, duration)
}

// RecordStageStart records the start of a StageExecution.
func (r *PrometheusRecorder) RecordStageStart(ctx context.Context, stage *model.StageExecution) {
	r.stageStatusCounter.WithLabelValues(stage.StageName, stage.Status.String()).Inc()
}

// RecordStageEnd records the end of a StageExecution.
func (r *PrometheusRecorder) RecordStageEnd(ctx context.Context, stage *model.StageExecution) {
	if stage.EndTime == nil {
		return
	}
	duration := stage.Duration().Seconds()
	r.stageStatusCounter.WithLabelValues(stage.StageName, stage.Status.String()).Inc()
	r.stageDurationSeconds.WithLabelValues(stage.StageName, stage.Status.String(), string(stage.ExitStatus)).Observe(duration)
	r.log.Debugf("Metrics: stage '%s' ended. Duration: %.3fs", stage.StageName, duration)
}

// RecordSpectrum records the outcome of one spectrum.
func (r *PrometheusRecorder) RecordSpectrum(ctx context.Context, record *model.SpectrumRecord) {
	status := record.Status.String()
	r.spectrumCounter.WithLabelValues(status).Inc()
	r.spectrumDurationSeconds.WithLabelValues(status).Observe(float64(record.DurationMillis) / 1000)
}

// RecordDuration records the duration of a named operation.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration) {
	r.operationDurationSeconds.WithLabelValues(name).Observe(duration.Seconds())
}

// Flush writes the registry to the textfile.
func (r *PrometheusRecorder) Flush(ctx context.Context) error {
	if r.textfile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.textfile), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(r.textfile, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to '%s': %w", r.textfile, err)
	}
	r.log.Debugf("Metrics written to %s", r.textfile)
	return nil
}

var _ MetricRecorder = (*PrometheusRecorder)(nil)
