package handler

import (
	"net/http"

	"feargreed-bot/internal/domain"

	"github.com/gin-gonic/gin"
)

type IndexResponse struct {
	Index      string  `json:"index"`
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
	Rating     string  `json:"rating"`
	ObservedAt string  `json:"observed_at"`
}

func newIndexResponse(index, source string, r domain.SentimentReading) IndexResponse {
	return IndexResponse{
		Index:      index,
		Source:     source,
		Score:      r.Score,
		Rating:     r.Rating,
		ObservedAt: r.ObservedAtString(),
	}
}

// GetReport godoc
// @Summary      Combined Fear & Greed report
// @Description  Builds the same text report the bot sends. Failed sections are rendered inline.
// @Tags         report
// @Produce      plain
// @Success      200  {string}  string
// @Router       /api/report [get]
func (h *Handler) GetReport(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-report")
	defer span.End()

	c.String(http.StatusOK, h.reports.BuildReport(ctx))
}

// GetStockIndex godoc
// @Summary      Stock market Fear & Greed index
// @Tags         indices
// @Produce      json
// @Success      200  {object}  IndexResponse
// @Failure      502  {object}  map[string]string
// @Router       /api/indices/stock [get]
func (h *Handler) GetStockIndex(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stock-index")
	defer span.End()

	r, err := h.reports.FetchStockIndex(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newIndexResponse("stock", "cnn", r))
}

// GetCryptoIndex godoc
// @Summary      Crypto Fear & Greed index
// @Tags         indices
// @Produce      json
// @Success      200  {object}  IndexResponse
// @Failure      502  {object}  map[string]string
// @Router       /api/indices/crypto [get]
func (h *Handler) GetCryptoIndex(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-crypto-index")
	defer span.End()

	r, err := h.reports.FetchCryptoIndex(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newIndexResponse("crypto", "alternative.me", r))
}
