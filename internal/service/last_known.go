package service

import (
	"context"
	"math"
	"sync"

	"feargreed-bot/internal/domain"

	"github.com/rs/zerolog/log"
)

// PriceMirror persists last known prices outside the process.
type PriceMirror interface {
	SaveLastPrice(ctx context.Context, instrument domain.Instrument, price float64) error
	LoadLastPrices(ctx context.Context) (map[domain.Instrument]float64, error)
}

// LastKnownPrices holds the most recent successfully fetched price per
// instrument. A slot is only ever replaced by a valid price; it is never cleared.
type LastKnownPrices struct {
	mu     sync.RWMutex
	prices map[domain.Instrument]float64
	mirror PriceMirror
}

// NewLastKnownPrices creates an empty cache. mirror may be nil.
func NewLastKnownPrices(mirror PriceMirror) *LastKnownPrices {
	return &LastKnownPrices{
		prices: make(map[domain.Instrument]float64, len(domain.Instruments)),
		mirror: mirror,
	}
}

func (c *LastKnownPrices) Get(instrument domain.Instrument) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	price, ok := c.prices[instrument]
	return price, ok
}

// Set records price for instrument. Invalid prices are ignored.
func (c *LastKnownPrices) Set(ctx context.Context, instrument domain.Instrument, price float64) {
	if !validPrice(price) {
		return
	}
	c.mu.Lock()
	c.prices[instrument] = price
	c.mu.Unlock()

	if c.mirror == nil {
		return
	}
	if err := c.mirror.SaveLastPrice(ctx, instrument, price); err != nil {
		log.Warn().Err(err).Str("instrument", string(instrument)).Msg("last price mirror write failed")
	}
}

// Snapshot returns a copy of every populated slot.
func (c *LastKnownPrices) Snapshot() map[domain.Instrument]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[domain.Instrument]float64, len(c.prices))
	for k, v := range c.prices {
		out[k] = v
	}
	return out
}

// Warm seeds empty slots from the mirror. Slots already populated in memory win.
func (c *LastKnownPrices) Warm(ctx context.Context) (int, error) {
	if c.mirror == nil {
		return 0, nil
	}
	stored, err := c.mirror.LoadLastPrices(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	seeded := 0
	for inst, price := range stored {
		if !inst.IsValid() || !validPrice(price) {
			continue
		}
		if _, ok := c.prices[inst]; ok {
			continue
		}
		c.prices[inst] = price
		seeded++
	}
	return seeded, nil
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
