// Package provider wires the storage adapters selected by publish.type.
package provider

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/storage"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/storage/gcs"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/storage/local"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// NewConnectionFactory returns a factory that opens a local or gcs connection.
// Connections are opened lazily so that no client is created when publishing is disabled.
func NewConnectionFactory(log *logger.Logger) storage.ConnectionFactory {
	return func(ctx context.Context, cfg config.PublishConfig) (storage.StorageConnection, error) {
		switch cfg.Type {
		case local.ProviderType, "":
			return local.NewAdapter(cfg, log)
		case gcs.ProviderType:
			return gcs.NewAdapter(ctx, cfg, log)
		default:
			return nil, fmt.Errorf("no storage adapter for type '%s'", cfg.Type)
		}
	}
}

// Module provides the ConnectionFactory and the Publisher.
var Module = fx.Options(
	fx.Provide(NewConnectionFactory),
	fx.Provide(storage.NewPublisher),
)
