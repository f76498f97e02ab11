package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"feargreed-bot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const cnnBaseURL = "https://production.dataviz.cnn.io"

// CNN rejects default HTTP clients, so the stock index is requested with
// browser-like headers and the public page as referer.
var cnnHeaders = withHeaders(browserHeaders, map[string]string{
	"Referer": "https://edition.cnn.com/markets/fear-and-greed",
	"Origin":  "https://edition.cnn.com",
})

// CNNFearGreedProvider reads the equities Fear & Greed index.
type CNNFearGreedProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewCNNFearGreedProvider(tracer trace.Tracer, timeout time.Duration) *CNNFearGreedProvider {
	return &CNNFearGreedProvider{
		client:  newHTTPClient(timeout),
		baseURL: cnnBaseURL,
		tracer:  tracer,
	}
}

func (p *CNNFearGreedProvider) Name() string { return "cnn" }

func (p *CNNFearGreedProvider) FetchLatest(ctx context.Context) (domain.SentimentReading, error) {
	ctx, span := p.tracer.Start(ctx, "cnn.fetch-latest")
	defer span.End()

	url := strings.TrimRight(p.baseURL, "/") + "/index/fearandgreed/graphdata"
	body, err := getBody(ctx, p.client, "cnn fear & greed", url, cnnHeaders)
	if err != nil {
		span.RecordError(err)
		return domain.SentimentReading{}, err
	}

	var payload struct {
		FearAndGreed *struct {
			Score     *float64 `json:"score"`
			Rating    *string  `json:"rating"`
			Timestamp any      `json:"timestamp"`
		} `json:"fear_and_greed"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.SentimentReading{}, fmt.Errorf("decode cnn fear & greed response: %w", err)
	}

	fg := payload.FearAndGreed
	switch {
	case fg == nil:
		return domain.SentimentReading{}, fmt.Errorf("cnn fear & greed: %w: fear_and_greed", domain.ErrMissingField)
	case fg.Score == nil:
		return domain.SentimentReading{}, fmt.Errorf("cnn fear & greed: %w: score", domain.ErrMissingField)
	case fg.Rating == nil:
		return domain.SentimentReading{}, fmt.Errorf("cnn fear & greed: %w: rating", domain.ErrMissingField)
	case fg.Timestamp == nil:
		return domain.SentimentReading{}, fmt.Errorf("cnn fear & greed: %w: timestamp", domain.ErrMissingField)
	}

	observed, err := NormalizeTimestamp(fg.Timestamp)
	if err != nil {
		return domain.SentimentReading{}, fmt.Errorf("parse cnn fear & greed timestamp: %w", err)
	}

	span.SetAttributes(attribute.Float64("score", *fg.Score))
	return domain.SentimentReading{
		Score:      *fg.Score,
		Rating:     *fg.Rating,
		ObservedAt: observed,
	}, nil
}
