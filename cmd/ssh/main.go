package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"feargreed-bot/internal/app"
	"feargreed-bot/internal/cache"
	"feargreed-bot/internal/config"
	"feargreed-bot/internal/domain"
	"feargreed-bot/internal/tui"
	"feargreed-bot/pkg/logger"
	"feargreed-bot/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initRedisFunc     = cache.InitRedis
	initTracerFunc    = tracing.InitTracer
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	logger.Setup(logger.ConfigFromEnv())
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	if len(cfg.SSHAllowedFingerprints) == 0 {
		log.Warn().Msg("SSH_ALLOWED_FINGERPRINTS is empty, every key will be rejected")
	}
	allowed := newFingerprintAllowlist(cfg.SSHAllowedFingerprints)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)
	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			fingerprint := gossh.FingerprintSHA256(key)
			if !allowed.contains(fingerprint) {
				log.Warn().Str("user", ctx.User()).Str("fingerprint", fingerprint).Msg("SSH auth denied")
				return false
			}
			log.Info().Str("user", ctx.User()).Str("fingerprint", fingerprint).Msg("SSH auth accepted")
			return true
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewModel(stack.Reports, s.User())
				if pty, _, ok := s.Pty(); ok {
					model.SetSize(pty.Window.Width, pty.Window.Height)
				}
				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create SSH server")
	}

	if srv != nil {
		go func() {
			log.Info().Str("addr", addr).Msg("SSH server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
				log.Error().Err(err).Msg("SSH server stopped")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("SSH server shutdown error")
		}
	}

	log.Info().Msg("SSH server exited")
}

type fingerprintAllowlist map[string]struct{}

func newFingerprintAllowlist(fingerprints []string) fingerprintAllowlist {
	set := make(fingerprintAllowlist, len(fingerprints))
	for _, fp := range fingerprints {
		set[fp] = struct{}{}
	}
	return set
}

func (a fingerprintAllowlist) contains(fingerprint string) bool {
	_, ok := a[fingerprint]
	return ok
}
