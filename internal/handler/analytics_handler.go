package handler

import (
	"net/http"

	"salon_admin/internal/model"
	"salon_admin/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analytics service.AnalyticsService
	respond   *Responder
}

func NewAnalyticsHandler(analytics service.AnalyticsService, respond *Responder) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, respond: respond}
}

func (h *AnalyticsHandler) Report(c *gin.Context) {
	timeRange, err := model.ParseTimeRange(c.Query("range"))
	if err != nil {
		h.respond.Failed(c, err, "Failed to load analytics")
		return
	}

	report, err := h.analytics.Report(c.Request.Context(), timeRange)
	if err != nil {
		h.respond.fail(c, err, "Failed to load analytics", gin.H{"report": nil, "retry": true})
		return
	}
	h.respond.Page(c, http.StatusOK, gin.H{"report": report})
}

func (h *AnalyticsHandler) RegisterAnalyticsRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	rg.Group("", mws...).GET("/analytics", h.Report)
}
