package handler

import (
	"context"
	"net/http"

	"feargreed-bot/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ReportAPI is implemented by service.ReportService.
type ReportAPI interface {
	FetchStockIndex(ctx context.Context) (domain.SentimentReading, error)
	FetchCryptoIndex(ctx context.Context) (domain.SentimentReading, error)
	FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error)
	BuildReport(ctx context.Context) string
}

type LastKnownReader interface {
	Snapshot() map[domain.Instrument]float64
}

type Handler struct {
	tracer    trace.Tracer
	reports   ReportAPI
	lastKnown LastKnownReader
}

func New(tracer trace.Tracer, reports ReportAPI, lastKnown LastKnownReader) *Handler {
	return &Handler{
		tracer:    tracer,
		reports:   reports,
		lastKnown: lastKnown,
	}
}

// RegisterRoutes mounts the API. /health and /metrics stay open; /api
// requires X-API-Key when apiKey is set.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string, metricsHandler http.Handler) {
	r.GET("/health", h.Health)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/report", h.GetReport)
	api.GET("/indices/stock", h.GetStockIndex)
	api.GET("/indices/crypto", h.GetCryptoIndex)
	api.GET("/prices", h.GetPrices)
	api.GET("/prices/last-known", h.GetLastKnownPrices)
}
