package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"feargreed-bot/internal/app"
	"feargreed-bot/internal/cache"
	"feargreed-bot/internal/config"
	"feargreed-bot/internal/domain"
	"feargreed-bot/internal/service"
	"feargreed-bot/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

type reportAPI interface {
	FetchStockIndex(ctx context.Context) (domain.SentimentReading, error)
	FetchCryptoIndex(ctx context.Context) (domain.SentimentReading, error)
	FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error)
	BuildReport(ctx context.Context) string
}

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	newReportAPIFunc = func(ctx context.Context, cfg *config.Config) reportAPI {
		cache.InitRedis(ctx, cfg.RedisURL)
		var redisClient cache.RedisClient
		if cache.Client != nil {
			redisClient = cache.Client
		}
		tracer := trace.NewNoopTracerProvider().Tracer("report-cli")
		return app.NewStack(ctx, tracer, cfg, redisClient, nil).Reports
	}
)

type options struct {
	section string
	format  string
	timeout time.Duration
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the Fear & Greed report",
		Long: `Fetch the Fear & Greed indices and BTC / S&P 500 prices once and print them.

Examples:
  report
  report --section prices
  report --section crypto --format json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), out, opts)
		},
	}
	cmd.Flags().StringVar(&opts.section, "section", "report", "Section to print (report|stock|crypto|prices)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format (text|json)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Overall timeout, 0 waits for every fallback source")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options) error {
	section := strings.ToLower(opts.section)
	switch section {
	case "report", "stock", "crypto", "prices":
	default:
		return fmt.Errorf("unknown section %q", opts.section)
	}
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	if section == "report" && opts.format == "json" {
		return fmt.Errorf("json output is not available for the full report")
	}

	_ = loadEnvFunc()
	cfg := loadConfigFunc()

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}
	api := newReportAPIFunc(ctx, cfg)

	var (
		value any
		text  string
		err   error
	)
	switch section {
	case "report":
		text = api.BuildReport(ctx)
	case "stock":
		var r domain.SentimentReading
		if r, err = api.FetchStockIndex(ctx); err == nil {
			value, text = r, service.FormatStockSection(r)
		}
	case "crypto":
		var r domain.SentimentReading
		if r, err = api.FetchCryptoIndex(ctx); err == nil {
			value, text = r, service.FormatCryptoSection(r)
		}
	case "prices":
		var p domain.MarketPrices
		if p, err = api.FetchMarketPrices(ctx); err == nil {
			value, text = p, service.FormatPricesSection(p)
		}
	}
	if err != nil {
		return fmt.Errorf("fetch %s: %w", section, err)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

func main() {
	logger.Setup(logger.Config{Level: os.Getenv("LOG_LEVEL"), Format: "console"})
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("report failed")
		os.Exit(1)
	}
}
