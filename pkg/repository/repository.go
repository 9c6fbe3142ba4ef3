// Package repository defines persistence of run history: runs, their stages and the
// spectra they produced.
package repository

import (
	"context"
	"errors"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
)

// ErrRunNotFound is returned when a run (or a record to update) does not exist.
var ErrRunNotFound = errors.New("run execution not found")

// RunRepository stores execution records of pipeline runs.
type RunRepository interface {
	// SaveRun persists a new RunExecution.
	SaveRun(ctx context.Context, run *model.RunExecution) error
	// UpdateRun updates status, exit status, end time and failures of an existing run.
	UpdateRun(ctx context.Context, run *model.RunExecution) error

	SaveStage(ctx context.Context, stage *model.StageExecution) error
	UpdateStage(ctx context.Context, stage *model.StageExecution) error

	// SaveSpectrum persists the outcome of one spectrum.
	SaveSpectrum(ctx context.Context, record *model.SpectrumRecord) error

	// FindRun returns the run with its stages ordered by start time.
	FindRun(ctx context.Context, id string) (*model.RunExecution, error)
	// ListSpectra returns the spectrum records of a run ordered by parameter ID.
	ListSpectra(ctx context.Context, runID string) ([]*model.SpectrumRecord, error)

	Close() error
}
