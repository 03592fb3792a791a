package handler

import (
	"net/http"
	"strconv"
	"time"

	"salon_admin/internal/service"

	"github.com/gin-gonic/gin"
)

// CalendarHandler serves the month grid and day views
type CalendarHandler struct {
	calendar service.CalendarService
	respond  *Responder
	now      func() time.Time
}

func NewCalendarHandler(calendar service.CalendarService, respond *Responder) *CalendarHandler {
	return &CalendarHandler{calendar: calendar, respond: respond, now: time.Now}
}

// Month defaults to the current month when year or month is omitted.
func (h *CalendarHandler) Month(c *gin.Context) {
	now := h.now()
	year, month := now.Year(), int(now.Month())

	if v := c.Query("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.respond.BadRequest(c, "Invalid year")
			return
		}
		year = parsed
	}
	if v := c.Query("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			h.respond.BadRequest(c, "Invalid month, use 1-12")
			return
		}
		month = parsed
	}

	grid, err := h.calendar.Month(c.Request.Context(), year, time.Month(month))
	if err != nil {
		h.respond.fail(c, err, "Failed to load calendar", gin.H{"calendar": nil, "retry": true})
		return
	}
	h.respond.Page(c, http.StatusOK, gin.H{"calendar": grid})
}

func (h *CalendarHandler) Day(c *gin.Context) {
	day, err := h.calendar.Day(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.respond.fail(c, err, "Failed to load bookings for this day", gin.H{"day": nil, "retry": true})
		return
	}
	h.respond.Page(c, http.StatusOK, gin.H{"day": day})
}

// RegisterCalendarRoutes registers calendar routes
func (h *CalendarHandler) RegisterCalendarRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	group := rg.Group("/calendar", mws...)
	{
		group.GET("", h.Month)
		group.GET("/:date", h.Day)
	}
}
