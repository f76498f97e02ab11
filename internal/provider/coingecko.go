package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feargreed-bot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// BitcoinCoinID is the CoinGecko identifier for BTC.
const BitcoinCoinID = "bitcoin"

// CoinGeckoProvider fetches spot prices from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a new provider with built-in rate limiting.
// Rate limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer, timeout time.Duration) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  newHTTPClient(timeout),
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

func (p *CoinGeckoProvider) Name() string { return "coingecko" }

// FetchSpotUSD returns the USD price of a coin by its CoinGecko id.
func (p *CoinGeckoProvider) FetchSpotUSD(ctx context.Context, coinID string) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-spot")
	defer span.End()
	span.SetAttributes(attribute.String("coin_id", coinID))

	if err := p.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd",
		strings.TrimRight(p.baseURL, "/"), url.QueryEscape(coinID))
	body, err := getBody(ctx, p.client, "coingecko", endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	// Response shape: {"bitcoin": {"usd": 97000}}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parse coingecko prices: %w", err)
	}
	coin, ok := raw[coinID]
	if !ok {
		return 0, fmt.Errorf("coingecko: %w: %s", domain.ErrMissingField, coinID)
	}
	price, ok := coin["usd"]
	if !ok {
		return 0, fmt.Errorf("coingecko: %w: %s.usd", domain.ErrMissingField, coinID)
	}
	return price, nil
}

// FetchBTC is FetchSpotUSD for bitcoin.
func (p *CoinGeckoProvider) FetchBTC(ctx context.Context) (float64, error) {
	return p.FetchSpotUSD(ctx, BitcoinCoinID)
}
