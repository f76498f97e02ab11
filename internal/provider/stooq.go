package provider

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"feargreed-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const stooqBaseURL = "https://stooq.com"

// Columns: Symbol,Date,Time,Open,High,Low,Close,Volume
const stooqCloseColumn = 6

// StooqProvider reads the daily S&P 500 quote as CSV.
type StooqProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewStooqProvider(tracer trace.Tracer, timeout time.Duration) *StooqProvider {
	return &StooqProvider{
		client:  newHTTPClient(timeout),
		baseURL: stooqBaseURL,
		tracer:  tracer,
	}
}

func (p *StooqProvider) Name() string { return "stooq" }

func (p *StooqProvider) FetchSPX(ctx context.Context) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "stooq.fetch-spx")
	defer span.End()

	url := strings.TrimRight(p.baseURL, "/") + "/q/l/?s=%5Espx&f=sd2t2ohlcv&h&e=csv"
	body, err := getBody(ctx, p.client, "stooq", url, map[string]string{"Accept": "text/csv,*/*"})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return ParseStooqClose(body)
}

// ParseStooqClose returns the first usable close price after the header row.
// Empty and "N/D" cells count as absent.
func ParseStooqClose(body []byte) (float64, error) {
	rows, err := readCSV(body)
	if err != nil {
		return 0, fmt.Errorf("parse stooq csv: %w", err)
	}
	if len(rows) < 2 {
		return 0, fmt.Errorf("stooq: %w", domain.ErrNoData)
	}

	for _, row := range rows[1:] {
		if len(row) <= stooqCloseColumn {
			continue
		}
		if v, ok := parseCSVPrice(row[stooqCloseColumn]); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("stooq: %w", domain.ErrNoData)
}

func readCSV(body []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// parseCSVPrice treats blanks and the "N/D" / "." placeholders as absent.
func parseCSVPrice(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	switch strings.ToUpper(cell) {
	case "", "N/D", ".", "-":
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
