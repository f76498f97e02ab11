package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feargreed-bot/internal/domain"
	"feargreed-bot/pkg/metrics"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// IndexFetcher returns the latest reading of one sentiment index.
type IndexFetcher interface {
	Name() string
	FetchLatest(ctx context.Context) (domain.SentimentReading, error)
}

type MarketPriceFetcher interface {
	FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error)
}

const (
	StockSectionTitle  = "📈 Акции (CNN)"
	CryptoSectionTitle = "🪙 Крипто (alternative.me)"
	PricesSectionTitle = "💵 Цены"
)

// ReportService exposes the three data points and the combined report.
type ReportService struct {
	tracer  trace.Tracer
	stock   IndexFetcher
	crypto  IndexFetcher
	prices  MarketPriceFetcher
	metrics *metrics.Recorder
}

func NewReportService(
	tracer trace.Tracer,
	stock IndexFetcher,
	crypto IndexFetcher,
	prices MarketPriceFetcher,
	rec *metrics.Recorder,
) *ReportService {
	return &ReportService{
		tracer:  tracer,
		stock:   stock,
		crypto:  crypto,
		prices:  prices,
		metrics: rec,
	}
}

func (s *ReportService) FetchStockIndex(ctx context.Context) (domain.SentimentReading, error) {
	ctx, span := s.tracer.Start(ctx, "report-service.fetch-stock-index")
	defer span.End()

	reading, err := s.stock.FetchLatest(ctx)
	s.metrics.IndexFetch("stock", err)
	return reading, err
}

func (s *ReportService) FetchCryptoIndex(ctx context.Context) (domain.SentimentReading, error) {
	ctx, span := s.tracer.Start(ctx, "report-service.fetch-crypto-index")
	defer span.End()

	reading, err := s.crypto.FetchLatest(ctx)
	s.metrics.IndexFetch("crypto", err)
	return reading, err
}

func (s *ReportService) FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error) {
	return s.prices.FetchMarketPrices(ctx)
}

// BuildReport fetches every section sequentially. A failed section becomes an
// error line; the report itself never fails.
func (s *ReportService) BuildReport(ctx context.Context) string {
	ctx, span := s.tracer.Start(ctx, "report-service.build-report")
	defer span.End()
	start := time.Now()

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Индекс страха и жадности (%s)\n\n", domain.ReportVersion)

	if r, err := s.FetchStockIndex(ctx); err != nil {
		b.WriteString(FormatSectionError(StockSectionTitle, err))
	} else {
		b.WriteString(FormatStockSection(r))
	}
	b.WriteString("\n\n")

	if r, err := s.FetchCryptoIndex(ctx); err != nil {
		b.WriteString(FormatSectionError(CryptoSectionTitle, err))
	} else {
		b.WriteString(FormatCryptoSection(r))
	}
	b.WriteString("\n\n")

	if p, err := s.FetchMarketPrices(ctx); err != nil {
		b.WriteString(FormatSectionError(PricesSectionTitle, err))
	} else {
		b.WriteString(FormatPricesSection(p))
	}

	s.metrics.ReportBuilt(time.Since(start))
	return b.String()
}

func FormatStockSection(r domain.SentimentReading) string {
	return fmt.Sprintf("%s: %.2f\nСостояние: %s\nОбновлено: %s",
		StockSectionTitle, r.Score, r.Rating, r.ObservedAtString())
}

func FormatCryptoSection(r domain.SentimentReading) string {
	return fmt.Sprintf("%s: %.0f\nСостояние: %s\nОбновлено: %s",
		CryptoSectionTitle, r.Score, r.Rating, r.ObservedAtString())
}

func FormatPricesSection(p domain.MarketPrices) string {
	return fmt.Sprintf("%s\n%s\n%s", PricesSectionTitle, formatQuote(p.BTC, "$"), formatQuote(p.SPX, ""))
}

func FormatSectionError(title string, err error) string {
	return fmt.Sprintf("%s: не удалось получить данные: %v", title, err)
}

func formatQuote(q domain.PriceQuote, currency string) string {
	amount := message.NewPrinter(language.English).Sprintf("%.2f", q.Price)
	line := fmt.Sprintf("%s: %s%s", q.Instrument.DisplayName(), currency, amount)
	if q.Cached {
		line += " (последнее известное значение)"
	}
	return line
}
