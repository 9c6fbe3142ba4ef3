// Package provider selects the RunRepository implementation from configuration.
package provider

import (
	"context"

	"go.uber.org/fx"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository/gormrepo"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository/inmemory"
	logger "github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// Params holds the dependencies of NewRunRepository.
type Params struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *logger.Logger
}

// NewRunRepository opens the repository configured by repository.type. The run history is
// auxiliary, so when the database cannot be opened the failure is logged and an in-memory
// repository is used instead.
func NewRunRepository(p Params) repository.RunRepository {
	log := logger.OrDefault(p.Logger)
	cfg := p.Config

	var repo repository.RunRepository
	switch cfg.Repository.Type {
	case "memory", "":
		repo = inmemory.NewInMemoryRunRepository()
	default:
		g, err := gormrepo.Open(cfg.Repository.Type, cfg.RepositoryDSN())
		if err != nil {
			log.Warnf("Run history disabled, falling back to in-memory repository: %v", err)
			repo = inmemory.NewInMemoryRunRepository()
		} else {
			log.Debugf("Run history stored in %s repository", cfg.Repository.Type)
			repo = g
		}
	}

	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if err := repo.Close(); err != nil {
					log.Warnf("Failed to close run repository: %v", err)
				}
				return nil
			},
		})
	}
	return repo
}

// Module provides the RunRepository.
var Module = fx.Options(
	fx.Provide(NewRunRepository),
)
