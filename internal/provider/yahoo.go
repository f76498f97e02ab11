package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feargreed-bot/internal/domain"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooSymbols maps instruments to Yahoo Finance tickers.
var YahooSymbols = map[domain.Instrument]string{
	domain.InstrumentBTC: "BTC-USD",
	domain.InstrumentSPX: "^GSPC",
}

// YahooQuoteProvider returns quotes for every instrument in one call.
type YahooQuoteProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewYahooQuoteProvider(tracer trace.Tracer, timeout time.Duration) *YahooQuoteProvider {
	return &YahooQuoteProvider{
		client:  newHTTPClient(timeout),
		baseURL: yahooBaseURL,
		tracer:  tracer,
	}
}

func (p *YahooQuoteProvider) Name() string { return "yahoo" }

// FetchQuotes returns the positive prices present in the response. Instruments
// missing from the response are simply absent from the map.
func (p *YahooQuoteProvider) FetchQuotes(ctx context.Context) (map[domain.Instrument]float64, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-quotes")
	defer span.End()

	symbols := make([]string, 0, len(domain.Instruments))
	bySymbol := make(map[string]domain.Instrument, len(domain.Instruments))
	for _, inst := range domain.Instruments {
		sym := YahooSymbols[inst]
		symbols = append(symbols, sym)
		bySymbol[sym] = inst
	}

	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s",
		strings.TrimRight(p.baseURL, "/"), url.QueryEscape(strings.Join(symbols, ",")))

	body, err := getBody(ctx, p.client, "yahoo quote", endpoint, browserHeaders)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	quotes, err := parseYahooQuotes(body, bySymbol)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("quotes", len(quotes)))
	return quotes, nil
}

// Response shape: {"quoteResponse":{"result":[{"symbol":"BTC-USD","regularMarketPrice":67000.1}],"error":null}}
func parseYahooQuotes(body []byte, bySymbol map[string]domain.Instrument) (map[domain.Instrument]float64, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("parse yahoo quote response: invalid json")
	}
	result := gjson.GetBytes(body, "quoteResponse.result")
	if !result.Exists() || !result.IsArray() {
		return nil, fmt.Errorf("yahoo quote: %w: quoteResponse.result", domain.ErrMissingField)
	}

	quotes := make(map[domain.Instrument]float64, len(bySymbol))
	result.ForEach(func(_, row gjson.Result) bool {
		inst, ok := bySymbol[row.Get("symbol").String()]
		if !ok {
			return true
		}
		price := row.Get("regularMarketPrice")
		if !price.Exists() || price.Type != gjson.Number {
			return true
		}
		if v := price.Float(); v > 0 && !math.IsInf(v, 0) {
			quotes[inst] = v
		}
		return true
	})
	if len(quotes) == 0 {
		return nil, fmt.Errorf("yahoo quote: %w", domain.ErrNoData)
	}
	return quotes, nil
}
