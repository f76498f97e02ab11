package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"feargreed-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const fredBaseURL = "https://fred.stlouisfed.org"

// FREDProvider reads the SP500 daily series as CSV.
type FREDProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFREDProvider(tracer trace.Tracer, timeout time.Duration) *FREDProvider {
	return &FREDProvider{
		client:  newHTTPClient(timeout),
		baseURL: fredBaseURL,
		tracer:  tracer,
	}
}

func (p *FREDProvider) Name() string { return "fred" }

func (p *FREDProvider) FetchSPX(ctx context.Context) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "fred.fetch-spx")
	defer span.End()

	url := strings.TrimRight(p.baseURL, "/") + "/graph/fredgraph.csv?id=SP500"
	body, err := getBody(ctx, p.client, "fred", url, map[string]string{"Accept": "text/csv,*/*"})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return ParseFREDLatest(body)
}

// ParseFREDLatest scans the series from the newest row backwards and returns
// the first observation that is not blank or ".".
func ParseFREDLatest(body []byte) (float64, error) {
	rows, err := readCSV(body)
	if err != nil {
		return 0, fmt.Errorf("parse fred csv: %w", err)
	}
	if len(rows) < 2 {
		return 0, fmt.Errorf("fred: %w", domain.ErrNoData)
	}

	for i := len(rows) - 1; i >= 1; i-- {
		row := rows[i]
		if len(row) < 2 {
			continue
		}
		if v, ok := parseCSVPrice(row[len(row)-1]); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("fred: %w", domain.ErrNoData)
}
