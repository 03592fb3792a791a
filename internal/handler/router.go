package handler

import (
	"log/slog"
	"net/http"
	"time"

	"salon_admin/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// AdminBasePath is the group all protected pages live under.
const AdminBasePath = "/api/v1/admin"

// Router bundles the handlers and cross-cutting settings of the HTTP API.
type Router struct {
	Auth      *AuthHandler
	Bookings  *BookingHandler
	Users     *UserHandler
	Analytics *AnalyticsHandler
	Calendar  *CalendarHandler

	Gate         middleware.SessionGate
	Tokens       middleware.TokenVerifier
	LoginPath    string
	AllowOrigins []string
	Log          *slog.Logger
	// Health reports dependency status for /health; nil means always healthy.
	Health func() (gin.H, bool)
}

// Engine builds the gin engine with every route registered.
func (r *Router) Engine() *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RequestLogger(r.Log), gin.Recovery())
	if len(r.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     r.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Disposition", "Location", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(middleware.RequireJSON())

	// --- Initialize Middlewares ---
	guardMW := middleware.SessionGuardMiddleware(r.Gate, r.Tokens, r.LoginPath)
	adminRoleMW := middleware.AdminMiddleware()

	// --- Register Routes ---
	router.GET(r.LoginPath, r.Auth.LoginPage)
	apiGroup := router.Group("/api/v1")
	r.Auth.RegisterAuthRoutes(apiGroup)

	adminGroup := router.Group(AdminBasePath)
	r.Bookings.RegisterBookingRoutes(adminGroup, guardMW, adminRoleMW)
	r.Users.RegisterUserRoutes(adminGroup, guardMW, adminRoleMW)
	r.Analytics.RegisterAnalyticsRoutes(adminGroup, guardMW, adminRoleMW)
	r.Calendar.RegisterCalendarRoutes(adminGroup, guardMW, adminRoleMW)

	router.GET("/health", func(c *gin.Context) {
		if r.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		details, ok := r.Health()
		details["status"] = "ok"
		if !ok {
			details["status"] = "error"
			c.JSON(http.StatusServiceUnavailable, details)
			return
		}
		c.JSON(http.StatusOK, details)
	})

	return router
}
