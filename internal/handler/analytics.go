package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tradejournal/internal/journal"
	"tradejournal/internal/service"
)

type AnalyticsHandler struct {
	Journal *service.JournalService
}

func (h *AnalyticsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/analytics")
	g.GET("/stats", h.stats)
	g.GET("/equity", h.equity)
}

func (h *AnalyticsHandler) stats(c *gin.Context) {
	if h.Journal == nil {
		Error(c, http.StatusInternalServerError, "journal unavailable", nil)
		return
	}
	w, err := journal.ParseWindow(c.Query("window"))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	stats, err := h.Journal.StatsFor(c.Request.Context(), w)
	if errors.Is(err, journal.ErrNoTrades) {
		// An empty range is a valid answer, not a failure.
		Ok(c, nil, map[string]any{"window": string(w), "empty": true})
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, stats, map[string]any{"window": string(w)})
}

func (h *AnalyticsHandler) equity(c *gin.Context) {
	if h.Journal == nil {
		Error(c, http.StatusInternalServerError, "journal unavailable", nil)
		return
	}
	w, err := journal.ParseWindow(c.Query("window"))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	points, baseline, err := h.Journal.EquityFor(c.Request.Context(), w)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, points, map[string]any{
		"window":   string(w),
		"baseline": baseline,
	})
}
