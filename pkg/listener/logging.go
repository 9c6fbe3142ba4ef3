// Package listener provides the run and stage listeners registered with the pipeline driver.
package listener

import (
	"context"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	port "github.com/littlepadawan/turbospectrum-wrapper/pkg/port"
	logger "github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// --- Run Listener ---

// LoggingRunListener logs the start and end of a run. Failures are logged at WARN;
// the ERROR line belongs to the driver's error boundary.
type LoggingRunListener struct {
	log *logger.Logger
}

func NewLoggingRunListener(log *logger.Logger) *LoggingRunListener {
	return &LoggingRunListener{log: logger.OrDefault(log)}
}

func (l *LoggingRunListener) BeforeRun(ctx context.Context, run *model.RunExecution) {
	l.log.Infof("Starting run %s (ID: %s, config: %s)", run.RunName, run.ID, run.ConfigPath)
}

func (l *LoggingRunListener) AfterRun(ctx context.Context, run *model.RunExecution) {
	if run.Status == model.StatusFailed {
		l.log.Warnf("Run %s finished with status %s after %d stage(s)", run.RunName, run.Status, len(run.StageExecutions))
		return
	}
	l.log.Infof("Run %s finished with status %s", run.RunName, run.Status)
}

var _ port.RunListener = (*LoggingRunListener)(nil)

// --- Stage Listener ---

type LoggingStageListener struct {
	log *logger.Logger
}

func NewLoggingStageListener(log *logger.Logger) *LoggingStageListener {
	return &LoggingStageListener{log: logger.OrDefault(log)}
}

func (l *LoggingStageListener) BeforeStage(ctx context.Context, stage *model.StageExecution) {
	l.log.Debugf("Stage %s started (ID: %s)", stage.StageName, stage.ID)
}

func (l *LoggingStageListener) AfterStage(ctx context.Context, stage *model.StageExecution) {
	if stage.Status == model.StatusFailed {
		l.log.Warnf("Stage %s failed after %.2fs", stage.StageName, stage.Duration().Seconds())
		return
	}
	l.log.Infof("Stage %s completed in %.2fs", stage.StageName, stage.Duration().Seconds())
}

var _ port.StageListener = (*LoggingStageListener)(nil)
