package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"feargreed-bot/internal/app"
	"feargreed-bot/internal/cache"
	"feargreed-bot/internal/config"
	"feargreed-bot/internal/domain"
	"feargreed-bot/internal/mcpserver"
	"feargreed-bot/pkg/logger"
	"feargreed-bot/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initRedisFunc  = cache.InitRedis
	initTracerFunc = tracing.InitTracer
	runServerFunc  = func(ctx context.Context, s *mcp.Server) error {
		return s.Run(ctx, &mcp.StdioTransport{})
	}
)

// stdout carries the MCP protocol; logs go to stderr.
func main() {
	_ = loadEnvFunc()
	logger.Setup(logger.ConfigFromEnv())
	cfg := loadConfigFunc()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	var redisClient cache.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	}
	stack := app.NewStack(ctx, tracer, cfg, redisClient, nil)

	log.Info().Str("transport", cfg.MCPTransport).Msg("MCP server starting")
	if err := runServerFunc(ctx, mcpserver.New(stack.Reports, domain.ReportVersion)); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("MCP server stopped")
	}
	log.Info().Msg("MCP server exited")
}
