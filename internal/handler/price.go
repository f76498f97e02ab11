package handler

import (
	"errors"
	"net/http"

	"feargreed-bot/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetPrices godoc
// @Summary      Current BTC and S&P 500 prices
// @Description  Runs the fallback chain. Quotes served from the last-known cache have cached=true.
// @Tags         prices
// @Produce      json
// @Success      200  {object}  domain.MarketPrices
// @Failure      503  {object}  map[string]string
// @Router       /api/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	prices, err := h.reports.FetchMarketPrices(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNoPriceSources) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prices)
}

// LastKnownResponse maps instrument symbols to their last resolved price.
type LastKnownResponse struct {
	Prices map[string]float64 `json:"prices"`
}

// GetLastKnownPrices godoc
// @Summary      Last known prices
// @Description  Returns the cache contents without contacting any source
// @Tags         prices
// @Produce      json
// @Success      200  {object}  LastKnownResponse
// @Router       /api/prices/last-known [get]
func (h *Handler) GetLastKnownPrices(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-last-known-prices")
	defer span.End()

	out := make(map[string]float64)
	for inst, price := range h.lastKnown.Snapshot() {
		out[string(inst)] = price
	}
	c.JSON(http.StatusOK, LastKnownResponse{Prices: out})
}
