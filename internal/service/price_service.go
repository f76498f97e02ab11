package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"feargreed-bot/internal/domain"
	"feargreed-bot/pkg/metrics"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LastKnownSource names quotes served from the last-known-price cache.
const LastKnownSource = "last_known"

// errCallerDone marks a source failure caused by the caller's context ending.
// Breakers count it as a success so a cut-short request never opens them.
var errCallerDone = errors.New("caller context done")

// PriceSource is one ranked entry of an instrument's fallback chain.
type PriceSource struct {
	Name  string
	Fetch func(ctx context.Context) (float64, error)

	// set for views of the combined response, whose call is already guarded
	unguarded bool
}

// QuoteBatcher returns quotes for several instruments in a single call.
type QuoteBatcher interface {
	Name() string
	FetchQuotes(ctx context.Context) (map[domain.Instrument]float64, error)
}

type BTCSource interface {
	Name() string
	FetchBTC(ctx context.Context) (float64, error)
}

type SPXSource interface {
	Name() string
	FetchSPX(ctx context.Context) (float64, error)
}

// DefaultChains builds the dedicated per-instrument chains in the given order.
func DefaultChains(btc []BTCSource, spx []SPXSource) map[domain.Instrument][]PriceSource {
	chains := make(map[domain.Instrument][]PriceSource, 2)
	for _, s := range btc {
		chains[domain.InstrumentBTC] = append(chains[domain.InstrumentBTC], PriceSource{Name: s.Name(), Fetch: s.FetchBTC})
	}
	for _, s := range spx {
		chains[domain.InstrumentSPX] = append(chains[domain.InstrumentSPX], PriceSource{Name: s.Name(), Fetch: s.FetchSPX})
	}
	return chains
}

// PriceAggregator resolves BTC and S&P 500 prices through ordered fallback
// chains and the last-known-price cache.
type PriceAggregator struct {
	tracer    trace.Tracer
	combined  QuoteBatcher
	chains    map[domain.Instrument][]PriceSource
	lastKnown *LastKnownPrices
	metrics   *metrics.Recorder

	breakerMu       sync.Mutex
	breakers        map[string]*gobreaker.CircuitBreaker
	breakerFailures uint32
	breakerCooldown time.Duration
}

type AggregatorOption func(*PriceAggregator)

func WithMetrics(r *metrics.Recorder) AggregatorOption {
	return func(a *PriceAggregator) { a.metrics = r }
}

// WithBreakers skips a source for cooldown after maxFailures consecutive failures.
// A zero maxFailures disables breakers.
func WithBreakers(maxFailures uint32, cooldown time.Duration) AggregatorOption {
	return func(a *PriceAggregator) {
		a.breakerFailures = maxFailures
		a.breakerCooldown = cooldown
	}
}

// NewPriceAggregator wires the combined provider (may be nil), the dedicated
// chains and the cache. A nil cache gets a fresh in-memory one.
func NewPriceAggregator(
	tracer trace.Tracer,
	combined QuoteBatcher,
	chains map[domain.Instrument][]PriceSource,
	lastKnown *LastKnownPrices,
	opts ...AggregatorOption,
) *PriceAggregator {
	if lastKnown == nil {
		lastKnown = NewLastKnownPrices(nil)
	}
	a := &PriceAggregator{
		tracer:    tracer,
		combined:  combined,
		chains:    chains,
		lastKnown: lastKnown,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LastKnown exposes the cache backing the aggregator.
func (a *PriceAggregator) LastKnown() *LastKnownPrices {
	return a.lastKnown
}

// FetchMarketPrices resolves every instrument. It fails with ErrNoPriceSources
// if any instrument has neither a live quote nor a cached one.
func (a *PriceAggregator) FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error) {
	ctx, span := a.tracer.Start(ctx, "price-aggregator.fetch-market-prices")
	defer span.End()

	var batch map[domain.Instrument]float64
	var batchErr error
	if a.combined != nil {
		batch, batchErr = a.fetchBatch(ctx)
	}

	quotes := make(map[domain.Instrument]domain.PriceQuote, len(domain.Instruments))
	var missing []string
	for _, inst := range domain.Instruments {
		chain := make([]PriceSource, 0, len(a.chains[inst])+1)
		if a.combined != nil {
			chain = append(chain, batchView(a.combined.Name(), inst, batch, batchErr))
		}
		chain = append(chain, a.chains[inst]...)

		quote, ok := a.resolve(ctx, inst, chain)
		if !ok {
			missing = append(missing, inst.DisplayName())
			continue
		}
		quotes[inst] = quote
		span.SetAttributes(attribute.String("source."+strings.ToLower(string(inst)), quote.Source))
	}

	if len(missing) > 0 {
		err := fmt.Errorf("%w for %s", domain.ErrNoPriceSources, strings.Join(missing, ", "))
		span.RecordError(err)
		return domain.MarketPrices{}, err
	}

	return domain.MarketPrices{
		BTC: quotes[domain.InstrumentBTC],
		SPX: quotes[domain.InstrumentSPX],
	}, nil
}

func (a *PriceAggregator) fetchBatch(ctx context.Context) (map[domain.Instrument]float64, error) {
	name := a.combined.Name()
	out, err := a.guard(ctx, name, func() (interface{}, error) {
		return a.combined.FetchQuotes(ctx)
	})
	if err != nil {
		log.Debug().Err(err).Str("source", name).Msg("combined quote source unavailable")
		return nil, err
	}
	batch, _ := out.(map[domain.Instrument]float64)
	return batch, nil
}

// batchView exposes one instrument of the combined response as a chain entry.
func batchView(name string, inst domain.Instrument, batch map[domain.Instrument]float64, batchErr error) PriceSource {
	return PriceSource{
		Name:      name,
		unguarded: true,
		Fetch: func(context.Context) (float64, error) {
			if batchErr != nil {
				return 0, batchErr
			}
			price, ok := batch[inst]
			if !ok {
				return 0, fmt.Errorf("%s omitted %s: %w", name, inst, domain.ErrNoData)
			}
			return price, nil
		},
	}
}

func (a *PriceAggregator) resolve(ctx context.Context, inst domain.Instrument, chain []PriceSource) (domain.PriceQuote, bool) {
	for _, src := range chain {
		if ctx.Err() != nil {
			log.Debug().Err(ctx.Err()).Str("instrument", string(inst)).Msg("caller gone, skipping remaining price sources")
			break
		}
		price, err := a.fetchGuarded(ctx, src)
		if err == nil && !validPrice(price) {
			err = fmt.Errorf("%w: invalid price %v", domain.ErrNoData, price)
		}
		if err != nil {
			a.metrics.SourceAttempt(src.Name, string(inst), attemptResult(err))
			log.Debug().Err(err).Str("source", src.Name).Str("instrument", string(inst)).Msg("price source unavailable")
			continue
		}

		a.metrics.SourceAttempt(src.Name, string(inst), metrics.ResultOK)
		a.metrics.LastPrice(string(inst), price)
		a.lastKnown.Set(ctx, inst, price)
		return domain.PriceQuote{Instrument: inst, Price: price, Source: src.Name}, true
	}

	if price, ok := a.lastKnown.Get(inst); ok {
		a.metrics.Fallback(string(inst))
		log.Warn().Str("instrument", string(inst)).Float64("price", price).Msg("all price sources failed, serving last known price")
		return domain.PriceQuote{Instrument: inst, Price: price, Source: LastKnownSource, Cached: true}, true
	}
	return domain.PriceQuote{}, false
}

func (a *PriceAggregator) fetchGuarded(ctx context.Context, src PriceSource) (float64, error) {
	if src.unguarded {
		return src.Fetch(ctx)
	}
	out, err := a.guard(ctx, src.Name, func() (interface{}, error) {
		return src.Fetch(ctx)
	})
	if err != nil {
		return 0, err
	}
	price, _ := out.(float64)
	return price, nil
}

func (a *PriceAggregator) guard(ctx context.Context, name string, fn func() (interface{}, error)) (interface{}, error) {
	call := func() (interface{}, error) {
		out, err := fn()
		if err != nil && ctx.Err() != nil {
			return out, fmt.Errorf("%w: %w", errCallerDone, err)
		}
		return out, err
	}
	cb := a.breaker(name)
	if cb == nil {
		return call()
	}
	return cb.Execute(call)
}

func (a *PriceAggregator) breaker(name string) *gobreaker.CircuitBreaker {
	if a.breakerFailures == 0 {
		return nil
	}
	a.breakerMu.Lock()
	defer a.breakerMu.Unlock()

	if cb, ok := a.breakers[name]; ok {
		return cb
	}
	maxFailures := a.breakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     a.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerDone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("price source breaker state changed")
		},
	})
	a.breakers[name] = cb
	return cb
}

func attemptResult(err error) string {
	if errors.Is(err, errCallerDone) {
		return metrics.ResultCanceled
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return metrics.ResultUnavailable
	}
	return metrics.ResultError
}
