package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"feargreed-bot/internal/domain"
	"feargreed-bot/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

type ReportAPI interface {
	FetchStockIndex(ctx context.Context) (domain.SentimentReading, error)
	FetchCryptoIndex(ctx context.Context) (domain.SentimentReading, error)
	FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error)
	BuildReport(ctx context.Context) string
}

type IndexInput struct {
	Index string `json:"index" jsonschema:"which index to fetch: stock (CNN) or crypto (alternative.me)"`
}

type PricesInput struct {
	Format string `json:"format,omitempty" jsonschema:"text (default) or json"`
}

type tools struct {
	api ReportAPI
}

// New returns an MCP server exposing the report, index and price tools.
func New(api ReportAPI, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "feargreed-bot", Version: version}, nil)
	t := &tools{api: api}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_report",
		Description: "Full Fear & Greed report: stock index, crypto index, BTC and S&P 500 prices.",
	}, t.report)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index",
		Description: "Latest Fear & Greed index reading for the stock or crypto market.",
	}, t.index)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_prices",
		Description: "Current BTC and S&P 500 prices with multi-source fallback and last known values.",
	}, t.prices)
	return server
}

func (t *tools) report(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	return textResult(t.api.BuildReport(ctx)), nil, nil
}

func (t *tools) index(ctx context.Context, req *mcp.CallToolRequest, in IndexInput) (*mcp.CallToolResult, any, error) {
	switch strings.ToLower(strings.TrimSpace(in.Index)) {
	case "stock", "":
		r, err := t.api.FetchStockIndex(ctx)
		if err != nil {
			return errorResult(service.FormatSectionError(service.StockSectionTitle, err)), nil, nil
		}
		return textResult(service.FormatStockSection(r)), nil, nil
	case "crypto":
		r, err := t.api.FetchCryptoIndex(ctx)
		if err != nil {
			return errorResult(service.FormatSectionError(service.CryptoSectionTitle, err)), nil, nil
		}
		return textResult(service.FormatCryptoSection(r)), nil, nil
	default:
		return errorResult(fmt.Sprintf("unknown index %q, expected stock or crypto", in.Index)), nil, nil
	}
}

func (t *tools) prices(ctx context.Context, req *mcp.CallToolRequest, in PricesInput) (*mcp.CallToolResult, any, error) {
	p, err := t.api.FetchMarketPrices(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("mcp get_prices failed")
		return errorResult(service.FormatSectionError(service.PricesSectionTitle, err)), nil, nil
	}
	if strings.EqualFold(in.Format, "json") {
		body, err := json.Marshal(p)
		if err != nil {
			return nil, nil, err
		}
		return textResult(string(body)), nil, nil
	}
	return textResult(service.FormatPricesSection(p)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}
