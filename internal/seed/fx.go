package seed

import (
	"context"

	"github.com/smallbiznis/provisora/internal/config"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Provide(NewSource),
	fx.Invoke(registerSampleData),
)

// NewSource picks the provision source read by reports.
func NewSource(cfg config.Config, store provisiondomain.Service, log *zap.Logger) provisiondomain.Source {
	switch cfg.DataSource {
	case config.DataSourceSeed:
		log.Info("reports read the built-in sample data set")
		return NewSampleSource(SampleProvisions())
	case config.DataSourceEmpty:
		log.Info("reports read an empty data set")
		return EmptySource{}
	default:
		return store
	}
}

func registerSampleData(lc fx.Lifecycle, cfg config.Config, db *gorm.DB, log *zap.Logger) {
	if !cfg.SeedSampleData {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := EnsureSampleData(ctx, db); err != nil {
				return err
			}
			log.Info("sample data seeded")
			return nil
		},
	})
}
