package handler

import (
	"net/http"

	"feargreed-bot/internal/domain"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	// CachedPrices lists instruments that can still be served if every live source fails.
	CachedPrices []domain.Instrument `json:"cached_prices"`
}

// Health godoc
// @Summary      Health check
// @Description  Liveness plus the instruments covered by the last known price cache
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:       "healthy",
		Version:      domain.ReportVersion,
		CachedPrices: []domain.Instrument{},
	}
	if h.lastKnown != nil {
		snap := h.lastKnown.Snapshot()
		for _, inst := range domain.Instruments {
			if _, ok := snap[inst]; ok {
				resp.CachedPrices = append(resp.CachedPrices, inst)
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}
