package handler

import (
	"encoding/gob"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const noticeSessionName = "admin-notices"

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

func init() {
	gob.Register(Notice{})
}

// Notice is a transient message shown once to the operator.
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Notices queues transient notices in a signed cookie session. A notice added
// while handling a request is delivered in that request's response, or in the
// next response when the current one is a redirect.
type Notices struct {
	store sessions.Store
}

// NewNotices creates the notice store with the given cookie key.
func NewNotices(key []byte, secure bool) *Notices {
	store := sessions.NewCookieStore(key)
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = "/"
	return &Notices{store: store}
}

func (n *Notices) Add(c *gin.Context, typ, message string) {
	session, err := n.store.Get(c.Request, noticeSessionName)
	if err != nil {
		// a cookie signed with an old key; start over with a fresh session
		slog.Debug("discarding unreadable notice session", "error", err)
	}
	session.AddFlash(Notice{Type: typ, Message: message})
	if err := session.Save(c.Request, c.Writer); err != nil {
		slog.Error("failed to save notice session", "error", err)
	}
}

// Drain returns and removes every pending notice.
func (n *Notices) Drain(c *gin.Context) []Notice {
	session, _ := n.store.Get(c.Request, noticeSessionName)
	flashes := session.Flashes()
	notices := make([]Notice, 0, len(flashes))
	for _, f := range flashes {
		if notice, ok := f.(Notice); ok {
			notices = append(notices, notice)
		}
	}
	if len(flashes) > 0 {
		if err := session.Save(c.Request, c.Writer); err != nil {
			slog.Error("failed to save notice session", "error", err)
		}
	}
	return notices
}
