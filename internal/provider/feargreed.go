package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"feargreed-bot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://api.alternative.me"

// FearGreedProvider reads the crypto Fear & Greed index from alternative.me.
type FearGreedProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedProvider(tracer trace.Tracer, timeout time.Duration) *FearGreedProvider {
	return &FearGreedProvider{
		client:  newHTTPClient(timeout),
		baseURL: fearGreedBaseURL,
		tracer:  tracer,
	}
}

func (p *FearGreedProvider) Name() string { return "alternative.me" }

func (p *FearGreedProvider) FetchLatest(ctx context.Context) (domain.SentimentReading, error) {
	ctx, span := p.tracer.Start(ctx, "feargreed.fetch-latest")
	defer span.End()

	url := strings.TrimRight(p.baseURL, "/") + "/fng/?limit=1"
	body, err := getBody(ctx, p.client, "fear & greed", url, map[string]string{"Accept": "application/json"})
	if err != nil {
		span.RecordError(err)
		return domain.SentimentReading{}, err
	}

	var payload struct {
		Data []struct {
			Value          any     `json:"value"`
			Classification *string `json:"value_classification"`
			Timestamp      any     `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.SentimentReading{}, fmt.Errorf("decode fear & greed response: %w", err)
	}
	if len(payload.Data) == 0 {
		return domain.SentimentReading{}, fmt.Errorf("fear & greed response has no rows: %w", domain.ErrNoData)
	}

	row := payload.Data[0]
	if row.Value == nil {
		return domain.SentimentReading{}, fmt.Errorf("fear & greed: %w: value", domain.ErrMissingField)
	}
	if row.Classification == nil {
		return domain.SentimentReading{}, fmt.Errorf("fear & greed: %w: value_classification", domain.ErrMissingField)
	}
	if row.Timestamp == nil {
		return domain.SentimentReading{}, fmt.Errorf("fear & greed: %w: timestamp", domain.ErrMissingField)
	}

	value, err := parseIntegerScore(row.Value)
	if err != nil {
		return domain.SentimentReading{}, fmt.Errorf("parse fear & greed value: %w", err)
	}
	observed, err := NormalizeTimestamp(row.Timestamp)
	if err != nil {
		return domain.SentimentReading{}, fmt.Errorf("parse fear & greed timestamp: %w", err)
	}

	span.SetAttributes(attribute.Int("value", value))
	return domain.SentimentReading{
		Score:      float64(value),
		Rating:     *row.Classification,
		ObservedAt: observed,
	}, nil
}

// parseIntegerScore accepts the API's string-encoded value as well as a bare number.
func parseIntegerScore(v any) (int, error) {
	switch n := v.(type) {
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("invalid value %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
