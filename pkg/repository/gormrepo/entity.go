package gormrepo

import (
	"time"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
)

type runEntity struct {
	ID          string `gorm:"primaryKey;size:36"`
	RunName     string `gorm:"size:64;index"`
	ConfigPath  string `gorm:"size:1024"`
	Status      string `gorm:"size:16"`
	ExitStatus  string `gorm:"size:16"`
	StartTime   time.Time
	EndTime     *time.Time
	Failures    model.FailureList `gorm:"type:text"`
	LastUpdated time.Time
}

func (runEntity) TableName() string { return "tsw_run_execution" }

type stageEntity struct {
	ID          string `gorm:"primaryKey;size:36"`
	RunID       string `gorm:"size:36;index"`
	StageName   string `gorm:"size:64"`
	Phase       string `gorm:"size:32"`
	Status      string `gorm:"size:16"`
	ExitStatus  string `gorm:"size:16"`
	StartTime   time.Time
	EndTime     *time.Time
	Failures    model.FailureList `gorm:"type:text"`
	LastUpdated time.Time
}

func (stageEntity) TableName() string { return "tsw_stage_execution" }

type spectrumEntity struct {
	ID             string `gorm:"primaryKey;size:36"`
	RunID          string `gorm:"size:36;index"`
	ParameterID    string `gorm:"size:32"`
	Teff           float64
	Logg           float64
	FeH            float64 `gorm:"column:feh"`
	Status         string  `gorm:"size:16"`
	OutputPath     string  `gorm:"size:1024"`
	Error          string  `gorm:"type:text"`
	DurationMillis int64
	CreateTime     time.Time
}

func (spectrumEntity) TableName() string { return "tsw_spectrum" }

func toRunEntity(r *model.RunExecution) *runEntity {
	return &runEntity{
		ID:          r.ID,
		RunName:     r.RunName,
		ConfigPath:  r.ConfigPath,
		Status:      r.Status.String(),
		ExitStatus:  string(r.ExitStatus),
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Failures:    r.Failures,
		LastUpdated: r.LastUpdated,
	}
}

func (e *runEntity) toModel() *model.RunExecution {
	return &model.RunExecution{
		ID:              e.ID,
		RunName:         e.RunName,
		ConfigPath:      e.ConfigPath,
		Status:          model.Status(e.Status),
		ExitStatus:      model.ExitStatus(e.ExitStatus),
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		Failures:        e.Failures,
		StageExecutions: make([]*model.StageExecution, 0),
		LastUpdated:     e.LastUpdated,
	}
}

func toStageEntity(s *model.StageExecution) *stageEntity {
	return &stageEntity{
		ID:          s.ID,
		RunID:       s.RunID,
		StageName:   s.StageName,
		Phase:       s.Phase,
		Status:      s.Status.String(),
		ExitStatus:  string(s.ExitStatus),
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Failures:    s.Failures,
		LastUpdated: s.LastUpdated,
	}
}

func (e *stageEntity) toModel() *model.StageExecution {
	return &model.StageExecution{
		ID:          e.ID,
		RunID:       e.RunID,
		StageName:   e.StageName,
		Phase:       e.Phase,
		Status:      model.Status(e.Status),
		ExitStatus:  model.ExitStatus(e.ExitStatus),
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Failures:    e.Failures,
		LastUpdated: e.LastUpdated,
	}
}

func toSpectrumEntity(s *model.SpectrumRecord) *spectrumEntity {
	return &spectrumEntity{
		ID:             s.ID,
		RunID:          s.RunID,
		ParameterID:    s.ParameterID,
		Teff:           s.Teff,
		Logg:           s.Logg,
		FeH:            s.FeH,
		Status:         s.Status.String(),
		OutputPath:     s.OutputPath,
		Error:          s.Error,
		DurationMillis: s.DurationMillis,
		CreateTime:     s.CreateTime,
	}
}

func (e *spectrumEntity) toModel() *model.SpectrumRecord {
	return &model.SpectrumRecord{
		ID:             e.ID,
		RunID:          e.RunID,
		ParameterID:    e.ParameterID,
		Teff:           e.Teff,
		Logg:           e.Logg,
		FeH:            e.FeH,
		Status:         model.Status(e.Status),
		OutputPath:     e.OutputPath,
		Error:          e.Error,
		DurationMillis: e.DurationMillis,
		CreateTime:     e.CreateTime,
	}
}
