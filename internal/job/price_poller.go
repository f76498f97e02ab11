package job

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"feargreed-bot/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// PricePoller refreshes market prices between reports so the last-known
// cache holds a recent value when every live source is down.
type PricePoller struct {
	tracer       trace.Tracer
	prices       PriceRefresher
	pollInterval time.Duration
	runs         atomic.Int64
}

type PriceRefresher interface {
	FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error)
}

func NewPricePoller(tracer trace.Tracer, prices PriceRefresher, pollIntervalSecs int) *PricePoller {
	return &PricePoller{
		tracer:       tracer,
		prices:       prices,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (p *PricePoller) Start(ctx context.Context) {
	log.Info().Dur("interval", p.pollInterval).Msg("price poller starting")
	p.pollLoop(ctx, p.refresh)
	log.Info().Msg("price poller stopped")
}

func (p *PricePoller) pollLoop(ctx context.Context, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		log.Warn().Err(err).Msg("price poller initial run failed")
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Warn().Err(err).Msg("price poller run failed")
			}
		}
	}
}

func (p *PricePoller) refresh(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "price-poller.refresh")
	defer span.End()
	p.runs.Add(1)

	prices, err := p.prices.FetchMarketPrices(ctx)
	if err != nil && !errors.Is(err, domain.ErrNoPriceSources) {
		return err
	}
	if err != nil {
		// partial results are still cached by the aggregator
		log.Debug().Err(err).Msg("price poller: some instruments unavailable")
		return nil
	}
	log.Debug().
		Float64("btc", prices.BTC.Price).
		Float64("spx", prices.SPX.Price).
		Msg("prices refreshed")
	return nil
}
