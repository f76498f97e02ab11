package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"feargreed-bot/internal/config"
	"feargreed-bot/internal/domain"
)

type stubAPI struct {
	priceErr error
}

func (s *stubAPI) FetchStockIndex(ctx context.Context) (domain.SentimentReading, error) {
	return domain.SentimentReading{Score: 41.5, Rating: "fear", ObservedAt: time.Date(2026, 2, 9, 20, 0, 0, 0, time.UTC)}, nil
}

func (s *stubAPI) FetchCryptoIndex(ctx context.Context) (domain.SentimentReading, error) {
	return domain.SentimentReading{Score: 72, Rating: "Greed"}, nil
}

func (s *stubAPI) FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error) {
	return domain.MarketPrices{
		BTC: domain.PriceQuote{Instrument: domain.InstrumentBTC, Price: 67000.12, Source: "coinbase"},
		SPX: domain.PriceQuote{Instrument: domain.InstrumentSPX, Price: 6012.5, Source: "last_known", Cached: true},
	}, s.priceErr
}

func (s *stubAPI) BuildReport(ctx context.Context) string { return "full report" }

func stubDeps(t *testing.T, api reportAPI) {
	t.Helper()
	origLoadEnv, origLoadConfig, origNewAPI := loadEnvFunc, loadConfigFunc, newReportAPIFunc
	t.Cleanup(func() {
		loadEnvFunc, loadConfigFunc, newReportAPIFunc = origLoadEnv, origLoadConfig, origNewAPI
	})
	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config { return &config.Config{HTTPTimeoutSecs: 1} }
	newReportAPIFunc = func(context.Context, *config.Config) reportAPI { return api }
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportDefault(t *testing.T) {
	stubDeps(t, &stubAPI{})
	out, err := execute(t)
	if err != nil || out != "full report\n" {
		t.Fatalf("unexpected output %q err=%v", out, err)
	}
}

func TestReportPricesSection(t *testing.T) {
	stubDeps(t, &stubAPI{})
	out, err := execute(t, "--section", "prices")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "S&P 500: 6,012.50 (последнее известное значение)") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestReportJSON(t *testing.T) {
	stubDeps(t, &stubAPI{})
	out, err := execute(t, "--section", "stock", "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var r domain.SentimentReading
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if r.Score != 41.5 || r.Rating != "fear" {
		t.Fatalf("unexpected reading: %+v", r)
	}
}

func TestReportErrors(t *testing.T) {
	stubDeps(t, &stubAPI{priceErr: domain.ErrNoPriceSources})

	if _, err := execute(t, "--section", "prices"); !errors.Is(err, domain.ErrNoPriceSources) {
		t.Fatalf("expected ErrNoPriceSources, got %v", err)
	}
	if _, err := execute(t, "--section", "gold"); err == nil {
		t.Fatal("expected unknown section error")
	}
	if _, err := execute(t, "--format", "json"); err == nil {
		t.Fatal("expected error for json full report")
	}
}
