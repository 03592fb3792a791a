package handler

import (
	"errors"
	"fmt"
	"net/http"

	"salon_admin/internal/model"
	"salon_admin/internal/service"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the dashboard and bookings pages
type BookingHandler struct {
	bookings service.BookingService
	exports  service.ExportService
	respond  *Responder
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings service.BookingService, exports service.ExportService, respond *Responder) *BookingHandler {
	return &BookingHandler{bookings: bookings, exports: exports, respond: respond}
}

func (h *BookingHandler) Dashboard(c *gin.Context) {
	filter, err := service.ParseStatusFilter(c.Query("filter"))
	if err != nil {
		h.respond.BadRequest(c, err.Error())
		return
	}

	page, err := h.bookings.Dashboard(c.Request.Context(), c.Query("q"), filter)
	if err != nil {
		h.respond.LoadFailed(c, err, "Failed to load today's bookings", "bookings")
		return
	}
	h.respond.Page(c, http.StatusOK, gin.H{"page": page})
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter, err := service.ParseStatusFilter(c.Query("filter"))
	if err != nil {
		h.respond.BadRequest(c, err.Error())
		return
	}

	page, err := h.bookings.List(c.Request.Context(), c.Query("q"), filter)
	if err != nil {
		h.respond.LoadFailed(c, err, "Failed to load bookings", "bookings")
		return
	}
	h.respond.Page(c, http.StatusOK, gin.H{"page": page})
}

// Transition changes a booking's status and answers with the reloaded scope.
func (h *BookingHandler) Transition(c *gin.Context) {
	action, err := service.ParseAction(c.Param("action"))
	if err != nil {
		h.respond.Failed(c, err, "Failed to update booking")
		return
	}
	scope, err := model.ParseScope(c.Query("scope"))
	if err != nil {
		h.respond.BadRequest(c, err.Error())
		return
	}

	page, err := h.bookings.Transition(c.Request.Context(), scope, model.EntityID(c.Param("id")), action)
	var reloadErr *service.ReloadError
	if errors.As(err, &reloadErr) {
		// the backend took the change; only the refreshed list is missing
		h.respond.notices.Add(c, NoticeSuccess, fmt.Sprintf("Booking marked as %s", action.PastTense()))
		h.respond.LoadFailed(c, reloadErr.Err, "Failed to reload bookings", "bookings")
		return
	}
	if err != nil {
		h.respond.Failed(c, err, fmt.Sprintf("Failed to mark booking as %s", action.PastTense()))
		return
	}
	h.respond.Success(c, fmt.Sprintf("Booking marked as %s", action.PastTense()), gin.H{"page": page})
}

func (h *BookingHandler) Export(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		h.respond.Failed(c, err, "Failed to export bookings")
		return
	}
	filter, err := service.ParseStatusFilter(c.Query("filter"))
	if err != nil {
		h.respond.BadRequest(c, err.Error())
		return
	}

	file, err := h.exports.ExportBookings(c.Request.Context(), format, filter)
	if err != nil {
		h.respond.Failed(c, err, "Failed to export bookings")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// RegisterBookingRoutes registers dashboard and booking routes
func (h *BookingHandler) RegisterBookingRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	group := rg.Group("", mws...)
	{
		group.GET("/dashboard", h.Dashboard)
		group.GET("/bookings", h.ListBookings)
		group.GET("/bookings/export", h.Export)
		group.POST("/bookings/:id/:action", h.Transition)
	}
}
