package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/provisora/internal/aggregation"
	aggregationdomain "github.com/smallbiznis/provisora/internal/aggregation/domain"
	"github.com/smallbiznis/provisora/internal/audit"
	auditdomain "github.com/smallbiznis/provisora/internal/audit/domain"
	"github.com/smallbiznis/provisora/internal/config"
	"github.com/smallbiznis/provisora/internal/contract"
	contractdomain "github.com/smallbiznis/provisora/internal/contract/domain"
	"github.com/smallbiznis/provisora/internal/costledger"
	costledgerdomain "github.com/smallbiznis/provisora/internal/costledger/domain"
	"github.com/smallbiznis/provisora/internal/export"
	obslogger "github.com/smallbiznis/provisora/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/provisora/internal/observability/metrics"
	"github.com/smallbiznis/provisora/internal/observability/tracing"
	"github.com/smallbiznis/provisora/internal/provision"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	"github.com/smallbiznis/provisora/internal/reconciliation"
	"github.com/smallbiznis/provisora/internal/seed"
	"github.com/smallbiznis/provisora/internal/workforce"
	workforcedomain "github.com/smallbiznis/provisora/internal/workforce/domain"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	reconciliation.Module,
	audit.Module,
	contract.Module,
	workforce.Module,
	provision.Module,
	costledger.Module,
	seed.Module,
	aggregation.Module,
	export.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger, metrics *obsmetrics.Metrics, tp trace.TracerProvider) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log, obslogger.MiddlewareConfig{
		Debug:           !cfg.IsProduction(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(tracing.GinMiddleware(tp))
	r.Use(metrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	log            *zap.Logger
	reconciliation *reconciliation.Engine
	provisionSvc   provisiondomain.Service
	source         provisiondomain.Source
	auditSvc       auditdomain.Service
	aggregationSvc aggregationdomain.Service
	exportSvc      *export.Service
	costSvc        costledgerdomain.Service
	contractSvc    contractdomain.Service
	workforceSvc   workforcedomain.Service
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Log            *zap.Logger
	Reconciliation *reconciliation.Engine
	ProvisionSvc   provisiondomain.Service
	Source         provisiondomain.Source
	AuditSvc       auditdomain.Service
	AggregationSvc aggregationdomain.Service
	ExportSvc      *export.Service
	CostSvc        costledgerdomain.Service
	ContractSvc    contractdomain.Service
	WorkforceSvc   workforcedomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Gin,
		log:            p.Log.Named("http.server"),
		reconciliation: p.Reconciliation,
		provisionSvc:   p.ProvisionSvc,
		source:         p.Source,
		auditSvc:       p.AuditSvc,
		aggregationSvc: p.AggregationSvc,
		exportSvc:      p.ExportSvc,
		costSvc:        p.CostSvc,
		contractSvc:    p.ContractSvc,
		workforceSvc:   p.WorkforceSvc,
	}

	s.registerAPIRoutes()
	s.registerFallback()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Provisions --------
	api.GET("/provisions", s.ListProvisions)
	api.POST("/provisions", s.CreateProvision)
	api.GET("/provisions/:id", s.GetProvisionByID)
	api.PATCH("/provisions/:id", s.UpdateProvision)
	api.GET("/provisions/:id/audit", s.ListProvisionAudit)
	api.GET("/periods/:contract_id/:year/:month", s.GetProvisionByPeriod)

	// -------- Reports --------
	api.GET("/reports/aggregates", s.GetAggregates)
	api.GET("/reports/variance", s.GetContractVariance)
	api.GET("/reports/monthly", s.GetMonthlySeries)
	api.GET("/reports/deductions", s.GetDeductions)
	api.GET("/reports/cost-breakdown", s.GetCostBreakdown)
	api.GET("/reports/export", s.ExportProvisions)

	// -------- Cost entries --------
	api.GET("/cost-entries", s.ListCostEntries)
	api.POST("/cost-entries", s.CreateCostEntry)
	api.GET("/cost-entries/:id", s.GetCostEntryByID)
	api.PATCH("/cost-entries/:id/status", s.UpdateCostEntryStatus)

	// -------- Contracts --------
	api.GET("/contracts", s.ListContracts)
	api.GET("/contracts/:id/fringe", s.GetContractFringe)
	api.GET("/contracts/:id/employees", s.ListContractEmployees)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
