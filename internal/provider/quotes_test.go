package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"feargreed-bot/internal/domain"
)

func TestYahooFetchQuotes(t *testing.T) {
	p := NewYahooQuoteProvider(testTracer, time.Second)
	p.baseURL = "http://example"
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if got := req.URL.Query().Get("symbols"); got != "BTC-USD,^GSPC" {
			t.Fatalf("unexpected symbols: %q", got)
		}
		return stubClient(t, "/v7/finance/quote", http.StatusOK, `{"quoteResponse":{"result":[
			{"symbol":"BTC-USD","regularMarketPrice":67000.12},
			{"symbol":"^GSPC","regularMarketPrice":6012.5},
			{"symbol":"ETH-USD","regularMarketPrice":3000}
		],"error":null}}`).Transport.RoundTrip(req)
	})}

	quotes, err := p.FetchQuotes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quotes[domain.InstrumentBTC] != 67000.12 || quotes[domain.InstrumentSPX] != 6012.5 {
		t.Fatalf("unexpected quotes: %+v", quotes)
	}
	if len(quotes) != 2 {
		t.Fatalf("unexpected extra quotes: %+v", quotes)
	}
}

func TestYahooFetchQuotesOmitsInstrument(t *testing.T) {
	p := NewYahooQuoteProvider(testTracer, time.Second)
	p.baseURL = "http://example"
	p.client = stubClient(t, "", http.StatusOK, `{"quoteResponse":{"result":[
		{"symbol":"BTC-USD"},
		{"symbol":"^GSPC","regularMarketPrice":6012.5}
	]}}`)

	quotes, err := p.FetchQuotes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := quotes[domain.InstrumentBTC]; ok {
		t.Fatalf("BTC should be absent: %+v", quotes)
	}
}

func TestYahooFetchQuotesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"finance":{"error":"Unauthorized"}}`},
		{name: "invalid json", status: http.StatusOK, body: `{"quoteResponse":`},
		{name: "missing result", status: http.StatusOK, body: `{"finance":{}}`, want: domain.ErrMissingField},
		{name: "empty result", status: http.StatusOK, body: `{"quoteResponse":{"result":[]}}`, want: domain.ErrNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewYahooQuoteProvider(testTracer, time.Second)
			p.baseURL = "http://example"
			p.client = stubClient(t, "", tt.status, tt.body)

			_, err := p.FetchQuotes(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCoinbaseFetchBTC(t *testing.T) {
	p := NewCoinbaseProvider(testTracer, time.Second)
	p.baseURL = "http://example"
	p.client = stubClient(t, "/v2/prices/BTC-USD/spot", http.StatusOK, `{"data":{"amount":"67000.12","base":"BTC","currency":"USD"}}`)

	price, err := p.FetchBTC(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 67000.12 {
		t.Fatalf("expected 67000.12, got %v", price)
	}
}

func TestCoinbaseFetchBTCMissingAmount(t *testing.T) {
	p := NewCoinbaseProvider(testTracer, time.Second)
	p.baseURL = "http://example"
	p.client = stubClient(t, "", http.StatusOK, `{"data":{}}`)

	if _, err := p.FetchBTC(context.Background()); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}
}

func TestParseStooqClose(t *testing.T) {
	tests := []struct {
		name string
		body string
		want float64
		err  bool
	}{
		{
			name: "close column",
			body: "Symbol,Date,Time,Open,High,Low,Close,Volume\n^SPX,2026-02-09,22:00:00,5990.1,6020.3,5985.2,6012.55,0\n",
			want: 6012.55,
		},
		{
			name: "no data sentinel",
			body: "Symbol,Date,Time,Open,High,Low,Close,Volume\n^SPX,N/D,N/D,N/D,N/D,N/D,N/D,N/D\n",
			err:  true,
		},
		{
			name: "dot placeholder close",
			body: "Symbol,Date,Time,Open,High,Low,Close,Volume\n^SPX,2026-02-09,22:00:00,5990.1,6020.3,5985.2,.,0\n",
			err:  true,
		},
		{
			name: "empty close",
			body: "Symbol,Date,Time,Open,High,Low,Close,Volume\n^SPX,2026-02-09,22:00:00,1,2,3,,0\n",
			err:  true,
		},
		{
			name: "short row",
			body: "Symbol,Date,Time,Open,High,Low,Close,Volume\n^SPX,2026-02-09\n",
			err:  true,
		},
		{name: "header only", body: "Symbol,Date,Time,Open,High,Low,Close,Volume\n", err: true},
		{name: "empty body", body: "", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStooqClose([]byte(tt.body))
			if tt.err {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				if got != 0 {
					t.Fatalf("absent price must not read as a value, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseCSVPricePlaceholders(t *testing.T) {
	for _, cell := range []string{"", " ", ".", "N/D", "n/d", "-", "abc", "0", "-3"} {
		if v, ok := parseCSVPrice(cell); ok {
			t.Fatalf("cell %q must read as absent, got %v", cell, v)
		}
	}
	if v, ok := parseCSVPrice(" 6012.55 "); !ok || v != 6012.55 {
		t.Fatalf("expected 6012.55, got %v ok=%v", v, ok)
	}
}

func TestParseFREDLatest(t *testing.T) {
	body := "observation_date,SP500\n2026-02-05,5980.10\n2026-02-06,6001.25\n2026-02-09,.\n2026-02-10,\n"
	got, err := ParseFREDLatest([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 6001.25 {
		t.Fatalf("expected most recent valid value 6001.25, got %v", got)
	}

	if _, err := ParseFREDLatest([]byte("DATE,SP500\n2026-02-09,.\n")); !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected no data error, got %v", err)
	}
}

func TestStooqAndFREDFetch(t *testing.T) {
	stooq := NewStooqProvider(testTracer, time.Second)
	stooq.baseURL = "http://example"
	stooq.client = stubClient(t, "/q/l/", http.StatusOK, "Symbol,Date,Time,Open,High,Low,Close,Volume\n^SPX,2026-02-09,22:00:00,1,2,3,6010,0\n")
	if v, err := stooq.FetchSPX(context.Background()); err != nil || v != 6010 {
		t.Fatalf("stooq: got %v, %v", v, err)
	}

	fred := NewFREDProvider(testTracer, time.Second)
	fred.baseURL = "http://example"
	fred.client = stubClient(t, "/graph/fredgraph.csv", http.StatusOK, "DATE,SP500\n2026-02-09,6005.5\n")
	if v, err := fred.FetchSPX(context.Background()); err != nil || v != 6005.5 {
		t.Fatalf("fred: got %v, %v", v, err)
	}
}
