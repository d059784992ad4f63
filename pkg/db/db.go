package db

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/smallbiznis/provisora/internal/config"
	obslogger "github.com/smallbiznis/provisora/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	gormprometheus "gorm.io/plugin/prometheus"
)

const slowQueryThreshold = 200 * time.Millisecond

var Module = fx.Module("db",
	fx.Provide(New),
)

// New opens the configured database, applies pool settings and registers
// connection pool metrics and query tracing.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, tp trace.TracerProvider) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         obslogger.NewGormLogger(log, gormlogger.Warn, slowQueryThreshold),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBType, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	pool := poolConfig(cfg)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConn)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConn)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	registerPlugins(conn, cfg, log, tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return sqlDB.Close()
		},
	})

	log.Info("database connected", zap.String("type", cfg.DBType), zap.String("name", cfg.DBName))
	return conn, nil
}

// registerPlugins attaches pool metrics and query tracing. Plugin failures
// are logged and the connection stays usable.
func registerPlugins(conn *gorm.DB, cfg config.Config, log *zap.Logger, tp trace.TracerProvider) {
	if err := conn.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          cfg.DBName,
		RefreshInterval: 15,
		StartServer:     false,
	})); err != nil {
		log.Warn("failed to register gorm prometheus plugin", zap.Error(err))
	}
	if err := UseTracing(conn, cfg.DBName, tp); err != nil {
		log.Warn("failed to register gorm tracing plugin", zap.Error(err))
	}
}

// UseTracing records a span per query on tp. Query arguments are left out of
// the recorded statement.
func UseTracing(conn *gorm.DB, dbName string, tp trace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return conn.Use(otelgorm.NewPlugin(
		otelgorm.WithTracerProvider(tp),
		otelgorm.WithDBName(dbName),
		otelgorm.WithoutQueryVariables(),
	))
}

// NewTest opens an isolated in-memory SQLite database.
func NewTest() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}
