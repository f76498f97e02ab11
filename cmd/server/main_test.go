package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"feargreed-bot/internal/bot"
	"feargreed-bot/internal/config"
	"feargreed-bot/internal/job"
	"feargreed-bot/pkg/logger"
	"feargreed-bot/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func TestStartTelegramWithoutToken(t *testing.T) {
	restore := stubServerDeps()
	defer restore()

	resolveTokenFunc = func(string, string) (string, error) { return "", config.ErrMissingToken }
	botCreated := false
	newBotFunc = func(string, bot.ReportSource, bot.SubscriberStore) (*bot.Bot, error) {
		botCreated = true
		return nil, errors.New("unexpected")
	}

	err := startTelegram(context.Background(), testTracer(), &config.Config{}, nil, nil)
	if !errors.Is(err, config.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if botCreated {
		t.Fatal("bot must not be created without a token")
	}
}

func TestStartTelegramUsesConfiguredToken(t *testing.T) {
	restore := stubServerDeps()
	defer restore()

	var configured, envFile string
	resolveTokenFunc = func(token, file string) (string, error) {
		configured, envFile = token, file
		return "", config.ErrMissingToken
	}

	_ = startTelegram(context.Background(), testTracer(), &config.Config{TelegramBotToken: "123:abc"}, nil, nil)
	if configured != "123:abc" || envFile != config.DefaultEnvFile {
		t.Fatalf("resolver got token %q file %q", configured, envFile)
	}
}

func TestMainSetsUpLoggerBeforeLoadingConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	var order []string
	setupLoggerFunc = func(logger.Config) zerolog.Logger {
		order = append(order, "logger")
		return zerolog.Nop()
	}
	stubConfig := loadConfigFunc
	loadConfigFunc = func() *config.Config {
		order = append(order, "config")
		return stubConfig()
	}

	main()

	if len(order) != 2 || order[0] != "logger" || order[1] != "config" {
		t.Fatalf("config warnings must go through the configured logger, got order %v", order)
	}
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func stubServerDeps() func() {
	origLoadEnv := loadEnvFunc
	origSetupLogger := setupLoggerFunc
	origLoadConfig := loadConfigFunc
	origResolveToken := resolveTokenFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewBot := newBotFunc
	origStartBot := startBotFunc
	origStartPoller := startPollerFunc
	origStartReportJob := startReportJobFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			HTTPTimeoutSecs:     1,
			HTTPPort:            8080,
			ReportSchedule:      config.DefaultReportSchedule,
			ReportTimezone:      "UTC",
			BreakerMaxFailures:  5,
			BreakerCooldownSecs: 60,
		}
	}
	resolveTokenFunc = func(string, string) (string, error) { return "", config.ErrMissingToken }
	initPostgresFunc = func(context.Context, string) {}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context, opts tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	startBotFunc = func(*bot.Bot) {}
	startPollerFunc = func(*job.PricePoller, context.Context) {}
	startReportJobFunc = func(*job.ReportJob, context.Context) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		setupLoggerFunc = origSetupLogger
		loadConfigFunc = origLoadConfig
		resolveTokenFunc = origResolveToken
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newBotFunc = origNewBot
		startBotFunc = origStartBot
		startPollerFunc = origStartPoller
		startReportJobFunc = origStartReportJob
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
