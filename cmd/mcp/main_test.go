package main

import (
	"context"
	"testing"
	"time"

	"feargreed-bot/internal/config"
	"feargreed-bot/pkg/tracing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origRun := runServerFunc
	defer func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		runServerFunc = origRun
	}()

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{HTTPTimeoutSecs: 1, MCPTransport: "stdio", BreakerMaxFailures: 5, BreakerCooldownSecs: 60}
	}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context, opts tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	var served *mcp.Server
	runServerFunc = func(ctx context.Context, s *mcp.Server) error {
		served = s
		return nil
	}

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
	if served == nil {
		t.Fatal("expected MCP server to run")
	}
}
