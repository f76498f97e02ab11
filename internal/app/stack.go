package app

import (
	"context"
	"time"

	"feargreed-bot/internal/cache"
	"feargreed-bot/internal/config"
	"feargreed-bot/internal/provider"
	"feargreed-bot/internal/service"
	"feargreed-bot/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Stack is the report pipeline shared by every entry point.
type Stack struct {
	Reports   *service.ReportService
	Prices    *service.PriceAggregator
	LastKnown *service.LastKnownPrices
	Metrics   *metrics.Recorder
}

// NewStack wires the index providers, the price fallback chains and the
// report service. redisClient and reg may be nil.
func NewStack(ctx context.Context, tracer trace.Tracer, cfg *config.Config, redisClient cache.RedisClient, reg prometheus.Registerer) *Stack {
	timeout := time.Duration(cfg.HTTPTimeoutSecs) * time.Second

	var rec *metrics.Recorder
	if reg != nil {
		rec = metrics.New(reg)
	}

	var mirror service.PriceMirror
	if redisClient != nil {
		mirror = cache.NewRedisPriceStore(redisClient, tracer)
	}
	lastKnown := service.NewLastKnownPrices(mirror)
	if n, err := lastKnown.Warm(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load last known prices from redis")
	} else if n > 0 {
		log.Info().Int("count", n).Msg("last known prices restored")
	}

	chains := service.DefaultChains(
		[]service.BTCSource{
			provider.NewCoinbaseProvider(tracer, timeout),
			provider.NewCoinGeckoProvider(tracer, timeout),
		},
		[]service.SPXSource{
			provider.NewStooqProvider(tracer, timeout),
			provider.NewFREDProvider(tracer, timeout),
		},
	)
	prices := service.NewPriceAggregator(
		tracer,
		provider.NewYahooQuoteProvider(tracer, timeout),
		chains,
		lastKnown,
		service.WithMetrics(rec),
		service.WithBreakers(uint32(cfg.BreakerMaxFailures), time.Duration(cfg.BreakerCooldownSecs)*time.Second),
	)

	reports := service.NewReportService(
		tracer,
		provider.NewCNNFearGreedProvider(tracer, timeout),
		provider.NewFearGreedProvider(tracer, timeout),
		prices,
		rec,
	)

	return &Stack{
		Reports:   reports,
		Prices:    prices,
		LastKnown: lastKnown,
		Metrics:   rec,
	}
}
