// Package inmemory provides a RunRepository kept in process memory.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository"
)

// InMemoryRunRepository is a map-backed RunRepository. It is safe for concurrent use.
type InMemoryRunRepository struct {
	mu      sync.RWMutex
	runs    map[string]model.RunExecution
	stages  map[string]model.StageExecution
	spectra map[string][]model.SpectrumRecord
}

// NewInMemoryRunRepository creates an empty repository.
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{
		runs:    make(map[string]model.RunExecution),
		stages:  make(map[string]model.StageExecution),
		spectra: make(map[string][]model.SpectrumRecord),
	}
}

// SaveRun persists a new RunExecution.
// It returns an error if a run with the same ID already exists.
func (r *InMemoryRunRepository) SaveRun(ctx context.Context, run *model.RunExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("RunExecution with ID %s already exists", run.ID)
	}
	r.runs[run.ID] = copyRun(run)
	return nil
}

// UpdateRun updates an existing RunExecution.
func (r *InMemoryRunRepository) UpdateRun(ctx context.Context, run *model.RunExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; !exists {
		return fmt.Errorf("%w: %s", repository.ErrRunNotFound, run.ID)
	}
	r.runs[run.ID] = copyRun(run)
	return nil
}

// SaveStage persists a new StageExecution.
func (r *InMemoryRunRepository) SaveStage(ctx context.Context, stage *model.StageExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[stage.RunID]; !exists {
		return fmt.Errorf("%w: %s", repository.ErrRunNotFound, stage.RunID)
	}
	if _, exists := r.stages[stage.ID]; exists {
		return fmt.Errorf("StageExecution with ID %s already exists", stage.ID)
	}
	r.stages[stage.ID] = copyStage(stage)
	return nil
}

// UpdateStage updates an existing StageExecution.
func (r *InMemoryRunRepository) UpdateStage(ctx context.Context, stage *model.StageExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stages[stage.ID]; !exists {
		return fmt.Errorf("StageExecution with ID %s not found for update", stage.ID)
	}
	r.stages[stage.ID] = copyStage(stage)
	return nil
}

// SaveSpectrum persists a SpectrumRecord.
func (r *InMemoryRunRepository) SaveSpectrum(ctx context.Context, record *model.SpectrumRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[record.RunID]; !exists {
		return fmt.Errorf("%w: %s", repository.ErrRunNotFound, record.RunID)
	}
	r.spectra[record.RunID] = append(r.spectra[record.RunID], *record)
	return nil
}

// FindRun returns a copy of the run with its stages.
func (r *InMemoryRunRepository) FindRun(ctx context.Context, id string) (*model.RunExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, id)
	}
	run := stored
	run.Failures = append(model.FailureList{}, stored.Failures...)
	run.StageExecutions = make([]*model.StageExecution, 0)
	for _, s := range r.stages {
		if s.RunID == id {
			st := s
			run.StageExecutions = append(run.StageExecutions, &st)
		}
	}
	sort.SliceStable(run.StageExecutions, func(i, j int) bool {
		return run.StageExecutions[i].StartTime.Before(run.StageExecutions[j].StartTime)
	})
	return &run, nil
}

// ListSpectra returns copies of the spectrum records of a run.
func (r *InMemoryRunRepository) ListSpectra(ctx context.Context, runID string) ([]*model.SpectrumRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.spectra[runID]
	out := make([]*model.SpectrumRecord, 0, len(records))
	for i := range records {
		rec := records[i]
		out = append(out, &rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ParameterID < out[j].ParameterID })
	return out, nil
}

// Close is a no-op.
func (r *InMemoryRunRepository) Close() error { return nil }

func copyRun(run *model.RunExecution) model.RunExecution {
	c := *run
	c.StageExecutions = nil
	c.Failures = append(model.FailureList{}, run.Failures...)
	return c
}

func copyStage(stage *model.StageExecution) model.StageExecution {
	c := *stage
	c.Failures = append(model.FailureList{}, stage.Failures...)
	return c
}

var _ repository.RunRepository = (*InMemoryRunRepository)(nil)
