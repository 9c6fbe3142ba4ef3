// Package model holds the execution records of a spectra run: the run itself, each of its
// stages and each generated spectrum.
package model

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	logger "github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// Status represents the state of a run, stage or spectrum.
type Status string

const (
	StatusStarting  Status = "STARTING"
	StatusStarted   Status = "STARTED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// String returns the string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// IsFinished checks if the Status is terminal.
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ExitStatus is the detailed outcome recorded once an execution finishes.
type ExitStatus string

const (
	ExitStatusUnknown   ExitStatus = "UNKNOWN"
	ExitStatusCompleted ExitStatus = "COMPLETED"
	ExitStatusFailed    ExitStatus = "FAILED"
)

// FailureList holds a list of error messages.
type FailureList []string

// Value implements the `driver.Valuer` interface, converting FailureList to a JSON string.
func (fl FailureList) Value() (driver.Value, error) {
	if fl == nil {
		return "[]", nil
	}
	data, err := json.Marshal(fl)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to FailureList.
func (fl *FailureList) Scan(value interface{}) error {
	if value == nil {
		*fl = make(FailureList, 0)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for FailureList: %T", value)
	}
	if len(b) == 0 {
		*fl = make(FailureList, 0)
		return nil
	}
	if err := json.Unmarshal(b, fl); err != nil {
		return fmt.Errorf("failed to unmarshal FailureList JSON: %w", err)
	}
	return nil
}

func (fl FailureList) add(err error) FailureList {
	if err == nil {
		return fl
	}
	msg := exception.ExtractErrorMessage(err)
	for _, existing := range fl {
		if existing == msg {
			return fl
		}
	}
	return append(fl, msg)
}

// NewID generates a new UUID string.
func NewID() string {
	return uuid.New().String()
}

// RunExecution is one invocation of the pipeline.
type RunExecution struct {
	ID              string
	RunName         string
	ConfigPath      string
	Status          Status
	ExitStatus      ExitStatus
	StartTime       time.Time
	EndTime         *time.Time
	Failures        FailureList
	StageExecutions []*StageExecution
	LastUpdated     time.Time
}

// NewRunExecution creates a new RunExecution in STARTING state.
func NewRunExecution(runName, configPath string) *RunExecution {
	now := time.Now()
	return &RunExecution{
		ID:              NewID(),
		RunName:         runName,
		ConfigPath:      configPath,
		Status:          StatusStarting,
		ExitStatus:      ExitStatusUnknown,
		StartTime:       now,
		Failures:        make(FailureList, 0),
		StageExecutions: make([]*StageExecution, 0),
		LastUpdated:     now,
	}
}

// isValidTransition is shared by runs, stages and spectra.
func isValidTransition(current, next Status) bool {
	switch current {
	case StatusStarting:
		return next == StatusStarted || next == StatusFailed
	case StatusStarted:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// TransitionTo safely transitions the state of RunExecution.
func (re *RunExecution) TransitionTo(newStatus Status) error {
	if !isValidTransition(re.Status, newStatus) {
		return fmt.Errorf("RunExecution (ID: %s): invalid state transition: %s -> %s", re.ID, re.Status, newStatus)
	}
	re.Status = newStatus
	return nil
}

// MarkAsStarted updates the RunExecution status to STARTED.
func (re *RunExecution) MarkAsStarted() {
	if err := re.TransitionTo(StatusStarted); err != nil {
		logger.Warnf("Could not update RunExecution (ID: %s) status to STARTED: %v", re.ID, err)
		re.Status = StatusStarted
	}
	re.LastUpdated = time.Now()
}

// MarkAsCompleted updates the RunExecution status to COMPLETED.
func (re *RunExecution) MarkAsCompleted() {
	if err := re.TransitionTo(StatusCompleted); err != nil {
		logger.Warnf("Could not update RunExecution (ID: %s) status to COMPLETED: %v", re.ID, err)
		re.Status = StatusCompleted
	}
	re.ExitStatus = ExitStatusCompleted
	now := time.Now()
	re.EndTime = &now
	re.LastUpdated = now
}

// MarkAsFailed updates the RunExecution status to FAILED and records err.
func (re *RunExecution) MarkAsFailed(err error) {
	if terr := re.TransitionTo(StatusFailed); terr != nil {
		logger.Warnf("Could not update RunExecution (ID: %s) status to FAILED: %v", re.ID, terr)
		re.Status = StatusFailed
	}
	re.ExitStatus = ExitStatusFailed
	now := time.Now()
	re.EndTime = &now
	re.LastUpdated = now
	re.Failures = re.Failures.add(err)
}

// AddStageExecution appends a stage to the run.
func (re *RunExecution) AddStageExecution(se *StageExecution) {
	re.StageExecutions = append(re.StageExecutions, se)
}

// Duration returns the elapsed time of a finished run, or zero.
func (re *RunExecution) Duration() time.Duration {
	if re.EndTime == nil {
		return 0
	}
	return re.EndTime.Sub(re.StartTime)
}

// StageExecution is one stage of a run. Phase is the error-report phase the stage
// belongs to ("setup", "spectra generation", "publish" or "cleanup").
type StageExecution struct {
	ID          string
	RunID       string
	StageName   string
	Phase       string
	Status      Status
	ExitStatus  ExitStatus
	StartTime   time.Time
	EndTime     *time.Time
	Failures    FailureList
	LastUpdated time.Time
}

// NewStageExecution creates a new StageExecution in STARTING state and attaches it to run.
func NewStageExecution(run *RunExecution, stageName, phase string) *StageExecution {
	now := time.Now()
	se := &StageExecution{
		ID:          NewID(),
		StageName:   stageName,
		Phase:       phase,
		Status:      StatusStarting,
		ExitStatus:  ExitStatusUnknown,
		StartTime:   now,
		Failures:    make(FailureList, 0),
		LastUpdated: now,
	}
	if run != nil {
		se.RunID = run.ID
		run.AddStageExecution(se)
	}
	return se
}

// TransitionTo safely transitions the state of StageExecution.
func (se *StageExecution) TransitionTo(newStatus Status) error {
	if !isValidTransition(se.Status, newStatus) {
		return fmt.Errorf("StageExecution (ID: %s): invalid state transition: %s -> %s", se.ID, se.Status, newStatus)
	}
	se.Status = newStatus
	return nil
}

// MarkAsStarted updates the StageExecution status to STARTED.
func (se *StageExecution) MarkAsStarted() {
	if err := se.TransitionTo(StatusStarted); err != nil {
		logger.Warnf("Could not update StageExecution (ID: %s) status to STARTED: %v", se.ID, err)
		se.Status = StatusStarted
	}
	se.LastUpdated = time.Now()
}

// MarkAsCompleted updates the StageExecution status to COMPLETED.
func (se *StageExecution) MarkAsCompleted() {
	if err := se.TransitionTo(StatusCompleted); err != nil {
		logger.Warnf("Could not update StageExecution (ID: %s) status to COMPLETED: %v", se.ID, err)
		se.Status = StatusCompleted
	}
	se.ExitStatus = ExitStatusCompleted
	now := time.Now()
	se.EndTime = &now
	se.LastUpdated = now
}

// MarkAsFailed updates the StageExecution status to FAILED and records err.
func (se *StageExecution) MarkAsFailed(err error) {
	if terr := se.TransitionTo(StatusFailed); terr != nil {
		logger.Warnf("Could not update StageExecution (ID: %s) status to FAILED: %v", se.ID, terr)
		se.Status = StatusFailed
	}
	se.ExitStatus = ExitStatusFailed
	now := time.Now()
	se.EndTime = &now
	se.LastUpdated = now
	se.Failures = se.Failures.add(err)
}

// Duration returns the elapsed time of a finished stage, or zero.
func (se *StageExecution) Duration() time.Duration {
	if se.EndTime == nil {
		return 0
	}
	return se.EndTime.Sub(se.StartTime)
}

// SpectrumRecord is the outcome of generating one spectrum.
type SpectrumRecord struct {
	ID             string
	RunID          string
	ParameterID    string
	Teff           float64
	Logg           float64
	FeH            float64
	Status         Status
	OutputPath     string
	Error          string
	DurationMillis int64
	CreateTime     time.Time
}

// NewSpectrumRecord builds a finished record. err decides between COMPLETED and FAILED.
func NewSpectrumRecord(runID, parameterID string, teff, logg, feh float64, outputPath string, elapsed time.Duration, err error) *SpectrumRecord {
	rec := &SpectrumRecord{
		ID:             NewID(),
		RunID:          runID,
		ParameterID:    parameterID,
		Teff:           teff,
		Logg:           logg,
		FeH:            feh,
		Status:         StatusCompleted,
		OutputPath:     outputPath,
		DurationMillis: elapsed.Milliseconds(),
		CreateTime:     time.Now(),
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.OutputPath = ""
		rec.Error = exception.ExtractErrorMessage(err)
	}
	return rec
}

type runIDKey struct{}

// WithRunID stores the run ID on ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID stored by WithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
