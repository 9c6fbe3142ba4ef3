// Package port defines the listener interfaces notified by the pipeline driver.
package port

import (
	"context"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
)

// RunListener is notified around a whole pipeline run.
type RunListener interface {
	// BeforeRun is called after the run record is created and before the first stage.
	BeforeRun(ctx context.Context, run *model.RunExecution)
	// AfterRun is called once the run reached COMPLETED or FAILED.
	AfterRun(ctx context.Context, run *model.RunExecution)
}

// StageListener is notified around each stage.
type StageListener interface {
	BeforeStage(ctx context.Context, stage *model.StageExecution)
	AfterStage(ctx context.Context, stage *model.StageExecution)
}
