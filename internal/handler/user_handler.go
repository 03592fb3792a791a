package handler

import (
	"net/http"

	"salon_admin/internal/model"
	"salon_admin/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the user management page
type UserHandler struct {
	users   service.UserService
	respond *Responder
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users service.UserService, respond *Responder) *UserHandler {
	return &UserHandler{users: users, respond: respond}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	filter, err := service.ParseUserFilter(c.Query("filter"))
	if err != nil {
		h.respond.BadRequest(c, err.Error())
		return
	}

	page, err := h.users.List(c.Request.Context(), c.Query("q"), filter)
	if err != nil {
		h.respond.LoadFailed(c, err, "Failed to load users", "users")
		return
	}
	h.respond.Page(c, http.StatusOK, gin.H{"page": page})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), model.EntityID(c.Param("id")))
	if err != nil {
		h.respond.Failed(c, err, "Failed to load user")
		return
	}
	h.respond.Page(c, http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) VerifyUser(c *gin.Context) {
	page, err := h.users.Verify(c.Request.Context(), model.EntityID(c.Param("id")))
	if err != nil {
		h.respond.Failed(c, err, "Failed to verify user")
		return
	}
	h.respond.Success(c, "User verified", gin.H{"page": page})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	page, err := h.users.Delete(c.Request.Context(), model.EntityID(c.Param("id")))
	if err != nil {
		h.respond.Failed(c, err, "Failed to delete user")
		return
	}
	h.respond.Success(c, "User deleted", gin.H{"page": page})
}

// RegisterUserRoutes registers user management routes
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	group := rg.Group("/users", mws...)
	{
		group.GET("", h.ListUsers)
		group.GET("/:id", h.GetUser)
		group.POST("/:id/verify", h.VerifyUser)
		group.DELETE("/:id", h.DeleteUser)
	}
}
