package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"salon_admin/internal/backend"
	"salon_admin/internal/model"
	"salon_admin/internal/service"

	"github.com/gin-gonic/gin"
)

// Responder writes page responses with their pending notices and maps
// errors onto status codes.
type Responder struct {
	notices   *Notices
	loginPath string
	log       *slog.Logger
}

func NewResponder(notices *Notices, loginPath string, log *slog.Logger) *Responder {
	if log == nil {
		log = slog.Default()
	}
	return &Responder{notices: notices, loginPath: loginPath, log: log}
}

// Page writes payload plus the drained notices.
func (r *Responder) Page(c *gin.Context, status int, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["notices"] = r.notices.Drain(c)
	c.JSON(status, payload)
}

// Success queues a success notice and writes the page.
func (r *Responder) Success(c *gin.Context, message string, payload gin.H) {
	r.notices.Add(c, NoticeSuccess, message)
	r.Page(c, http.StatusOK, payload)
}

// LoadFailed reports a failed page load: an error notice, the empty
// collection under emptyKey and a retry hint.
func (r *Responder) LoadFailed(c *gin.Context, err error, fallback, emptyKey string) {
	r.fail(c, err, fallback, gin.H{emptyKey: []any{}, "retry": true})
}

// Failed reports a failed action.
func (r *Responder) Failed(c *gin.Context, err error, fallback string) {
	r.fail(c, err, fallback, gin.H{})
}

// BadRequest reports invalid input without touching the backend.
func (r *Responder) BadRequest(c *gin.Context, message string) {
	r.notices.Add(c, NoticeError, message)
	r.Page(c, http.StatusBadRequest, gin.H{"error": message})
}

func (r *Responder) fail(c *gin.Context, err error, fallback string, payload gin.H) {
	_ = c.Error(err)

	// the client's 401 hook has already cleared the session
	if errors.Is(err, backend.ErrUnauthorized) {
		r.notices.Add(c, NoticeError, "Your session has expired, please sign in again")
		c.Header("Location", r.loginPath)
		c.AbortWithStatus(http.StatusSeeOther)
		return
	}

	status, message := r.classify(err, fallback)
	if status >= http.StatusInternalServerError {
		r.log.Error(fallback, "error", err)
	}
	r.notices.Add(c, NoticeError, message)
	payload["error"] = message
	r.Page(c, status, payload)
}

func (r *Responder) classify(err error, fallback string) (int, string) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, service.ErrNotAdmin), errors.Is(err, service.ErrAdminExempt):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrAlreadyVerified):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUnknownAction), errors.Is(err, service.ErrUnknownFormat),
		errors.Is(err, model.ErrInvalidRange), errors.Is(err, service.ErrInvalidDate):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, backend.ErrNetwork):
		return http.StatusBadGateway, fallback + ": backend unreachable"
	case errors.As(err, &apiErr):
		message := backend.Message(err, fallback)
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode, message
		}
		return http.StatusBadGateway, message
	}
	return http.StatusInternalServerError, fallback
}
