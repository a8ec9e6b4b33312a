package main

import (
	"context"
	"time"

	"github.com/flexprice/flexprice/internal/api/v1/handlers"
	"github.com/flexprice/flexprice/internal/api/v1/middleware"
	"github.com/flexprice/flexprice/internal/cache"
	"github.com/flexprice/flexprice/internal/clickhouse"
	"github.com/flexprice/flexprice/internal/config"
	"github.com/flexprice/flexprice/internal/logger"
	"github.com/flexprice/flexprice/internal/postgres"
	"github.com/flexprice/flexprice/internal/queue"
	"github.com/flexprice/flexprice/internal/redisclient"
	chrepo "github.com/flexprice/flexprice/internal/repository/clickhouse"
	pgrepo "github.com/flexprice/flexprice/internal/repository/postgres"
	"github.com/flexprice/flexprice/internal/router"
	"github.com/flexprice/flexprice/internal/service/aggregator"
	"github.com/flexprice/flexprice/internal/service/processor"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/flexprice/flexprice/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title Usage Tracking & Billing Pipeline API
// @version 1.0
// @description Multi-tenant usage ingest, aggregation, and billing API
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func init() {
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	opts = append(opts,
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,

			cache.Initialize,

			postgres.NewDB,
			clickhouse.NewStore,
			redisclient.NewClient,
			queue.New,

			pgrepo.NewServiceRegistryRepository,
			pgrepo.NewBillingRuleRepository,
			pgrepo.NewTenantRepository,
			pgrepo.NewAlertConfigRepository,
			pgrepo.NewAlertInstanceRepository,
			pgrepo.NewAggregateRepository,
			pgrepo.NewBillingSummaryRepository,
			chrepo.NewEventRepository,

			middleware.NewRateLimiter,

			processor.New,
			aggregator.New,

			handlers.NewEventsHandler,
			handlers.NewQueryHandler,
			handlers.NewAlertsHandler,
			handlers.NewPricingHandler,
			provideHealthHandler,

			provideRouter,
		),
		fx.Invoke(startServices),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHealthHandler(store *clickhouse.Store, db *postgres.DB, redis *redisclient.Client) *handlers.HealthHandler {
	return handlers.NewHealthHandler(store, db, redis)
}

func provideRouter(
	cfg *config.Configuration,
	log *logger.Logger,
	rl *middleware.RateLimiter,
	events *handlers.EventsHandler,
	query *handlers.QueryHandler,
	health *handlers.HealthHandler,
	alerts *handlers.AlertsHandler,
	pricing *handlers.PricingHandler,
) *gin.Engine {
	return router.NewRouter(router.Params{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rl,
		Events:      events,
		Query:       query,
		Health:      health,
		Alerts:      alerts,
		Pricing:     pricing,
	})
}

// startServices switches on the deployment mode (§5) to decide which
// of the three loops this process runs: the ingest/query HTTP server,
// the event processor, the aggregation engine, or all three.
func startServices(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	proc *processor.Processor,
	agg *aggregator.Aggregator,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeAll
	}

	switch mode {
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeProcessor:
		startProcessor(lc, proc, log)
	case types.ModeAggregator:
		startAggregator(lc, agg, log)
	case types.ModeAll:
		startAPIServer(lc, r, cfg, log)
		startProcessor(lc, proc, log)
		startAggregator(lc, agg, log)
	default:
		log.Fatalf("unknown deployment mode: %s", mode)
	}
}

func startAPIServer(lc fx.Lifecycle, r *gin.Engine, cfg *config.Configuration, log *logger.Logger) {
	log.Info("registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down API server")
			return nil
		},
	})
}

func startProcessor(lc fx.Lifecycle, proc *processor.Processor, log *logger.Logger) {
	log.Info("registering event processor start hook")
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			go proc.Run(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping event processor")
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}

func startAggregator(lc fx.Lifecycle, agg *aggregator.Aggregator, log *logger.Logger) {
	log.Info("registering aggregation engine start hook")
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			go agg.Run(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping aggregation engine")
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}
