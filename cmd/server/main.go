package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feargreed-bot/internal/app"
	"feargreed-bot/internal/bot"
	"feargreed-bot/internal/cache"
	"feargreed-bot/internal/config"
	"feargreed-bot/internal/db"
	"feargreed-bot/internal/domain"
	"feargreed-bot/internal/handler"
	"feargreed-bot/internal/job"
	"feargreed-bot/internal/repository"
	"feargreed-bot/pkg/logger"
	"feargreed-bot/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "feargreed-bot/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	setupLoggerFunc        = logger.Setup
	loadConfigFunc         = config.Load
	resolveTokenFunc       = config.ResolveTelegramToken
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newBotFunc             = bot.New
	startBotFunc           = func(b *bot.Bot) { b.Start() }
	startPollerFunc        = func(p *job.PricePoller, ctx context.Context) { go p.Start(ctx) }
	startReportJobFunc     = func(j *job.ReportJob, ctx context.Context) { go j.Start(ctx) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

const pricePollSecs = 300

// @title           Fear & Greed Bot API
// @version         4.0
// @description     Fear & Greed indices and BTC / S&P 500 prices with source fallback.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()
	setupLoggerFunc(logger.ConfigFromEnv())
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx, cfg.TracingOptions(domain.ReportVersion))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var redisClient cache.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	}
	stack := app.NewStack(ctx, tracer, cfg, redisClient, reg)

	var subscribers *repository.SubscriberRepository
	if db.Pool != nil {
		subscribers = repository.NewSubscriberRepository(db.Pool, tracer)
		if err := subscribers.RunMigrations(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	startPollerFunc(job.NewPricePoller(tracer, stack.Prices, pricePollSecs), ctx)

	if err := startTelegram(ctx, tracer, cfg, stack, subscribers); err != nil {
		log.Warn().Err(err).Msg("Telegram bot disabled")
	}

	h := handler.New(tracer, stack.Reports, stack.LastKnown)
	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	h.RegisterRoutes(r, cfg.APIKey, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
