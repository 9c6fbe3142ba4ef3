// Package gormrepo provides a RunRepository backed by GORM (SQLite, MySQL or PostgreSQL).
package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository"
)

// GormRunRepository implements repository.RunRepository on a *gorm.DB.
type GormRunRepository struct {
	db *gorm.DB
}

// Open migrates the schema of the given database and connects to it.
func Open(dbType, dsn string) (*GormRunRepository, error) {
	if err := MigrateSchema(dbType, dsn); err != nil {
		return nil, err
	}
	dialector, err := NewDialector(dbType, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s run repository: %w", dbType, err)
	}
	return New(db), nil
}

// New wraps an existing connection. The schema is not migrated.
func New(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

func (r *GormRunRepository) SaveRun(ctx context.Context, run *model.RunExecution) error {
	if err := r.db.WithContext(ctx).Create(toRunEntity(run)).Error; err != nil {
		return fmt.Errorf("failed to save RunExecution %s: %w", run.ID, err)
	}
	return nil
}

func (r *GormRunRepository) UpdateRun(ctx context.Context, run *model.RunExecution) error {
	e := toRunEntity(run)
	res := r.db.WithContext(ctx).Model(&runEntity{}).Where("id = ?", run.ID).Updates(map[string]interface{}{
		"status":       e.Status,
		"exit_status":  e.ExitStatus,
		"end_time":     e.EndTime,
		"failures":     e.Failures,
		"last_updated": e.LastUpdated,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update RunExecution %s: %w", run.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", repository.ErrRunNotFound, run.ID)
	}
	return nil
}

func (r *GormRunRepository) SaveStage(ctx context.Context, stage *model.StageExecution) error {
	if err := r.db.WithContext(ctx).Create(toStageEntity(stage)).Error; err != nil {
		return fmt.Errorf("failed to save StageExecution %s: %w", stage.ID, err)
	}
	return nil
}

func (r *GormRunRepository) UpdateStage(ctx context.Context, stage *model.StageExecution) error {
	e := toStageEntity(stage)
	res := r.db.WithContext(ctx).Model(&stageEntity{}).Where("id = ?", stage.ID).Updates(map[string]interface{}{
		"status":       e.Status,
		"exit_status":  e.ExitStatus,
		"end_time":     e.EndTime,
		"failures":     e.Failures,
		"last_updated": e.LastUpdated,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update StageExecution %s: %w", stage.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("StageExecution with ID %s not found for update", stage.ID)
	}
	return nil
}

func (r *GormRunRepository) SaveSpectrum(ctx context.Context, record *model.SpectrumRecord) error {
	if err := r.db.WithContext(ctx).Create(toSpectrumEntity(record)).Error; err != nil {
		return fmt.Errorf("failed to save spectrum record %s: %w", record.ParameterID, err)
	}
	return nil
}

func (r *GormRunRepository) FindRun(ctx context.Context, id string) (*model.RunExecution, error) {
	var e runEntity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load RunExecution %s: %w", id, err)
	}

	var stages []stageEntity
	if err := r.db.WithContext(ctx).Where("run_id = ?", id).Order("start_time").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("failed to load stages of RunExecution %s: %w", id, err)
	}

	run := e.toModel()
	for i := range stages {
		run.StageExecutions = append(run.StageExecutions, stages[i].toModel())
	}
	return run, nil
}

func (r *GormRunRepository) ListSpectra(ctx context.Context, runID string) ([]*model.SpectrumRecord, error) {
	var rows []spectrumEntity
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("parameter_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list spectra of RunExecution %s: %w", runID, err)
	}
	out := make([]*model.SpectrumRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

// Close closes the underlying connection pool.
func (r *GormRunRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ repository.RunRepository = (*GormRunRepository)(nil)
