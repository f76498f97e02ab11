package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"feargreed-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coinbaseBaseURL = "https://api.coinbase.com"

// CoinbaseProvider reads BTC-USD spot from the Coinbase public API.
type CoinbaseProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewCoinbaseProvider(tracer trace.Tracer, timeout time.Duration) *CoinbaseProvider {
	return &CoinbaseProvider{
		client:  newHTTPClient(timeout),
		baseURL: coinbaseBaseURL,
		tracer:  tracer,
	}
}

func (p *CoinbaseProvider) Name() string { return "coinbase" }

func (p *CoinbaseProvider) FetchBTC(ctx context.Context) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "coinbase.fetch-btc")
	defer span.End()

	url := strings.TrimRight(p.baseURL, "/") + "/v2/prices/BTC-USD/spot"
	body, err := getBody(ctx, p.client, "coinbase", url, map[string]string{"Accept": "application/json"})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	// Response shape: {"data":{"amount":"67000.12","base":"BTC","currency":"USD"}}
	var payload struct {
		Data *struct {
			Amount string `json:"amount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decode coinbase response: %w", err)
	}
	if payload.Data == nil || strings.TrimSpace(payload.Data.Amount) == "" {
		return 0, fmt.Errorf("coinbase: %w: data.amount", domain.ErrMissingField)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(payload.Data.Amount), 64)
	if err != nil {
		return 0, fmt.Errorf("parse coinbase amount: %w", err)
	}
	return price, nil
}
