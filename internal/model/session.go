package model

import "encoding/json"

// SessionRecordVersion is the schema version written to the storage slot.
const SessionRecordVersion = 1

// SessionRecordKey names the storage record holding the persisted session.
const SessionRecordKey = "admin-auth-storage"

// Credentials are posted to the admin login endpoint.
type Credentials struct {
	Email    string `json:"email,omitempty" binding:"required_without=Username"`
	Username string `json:"username,omitempty"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is the backend's successful login response.
type LoginResult struct {
	Message string `json:"message,omitempty"`
	User    *User  `json:"user"`
	Token   string `json:"token"`
}

// Session is a read-only snapshot of the admin session. SessionID identifies
// one sign-in; dashboard credentials are bound to it.
type Session struct {
	User            *User  `json:"user"`
	Token           string `json:"-"`
	SessionID       string `json:"-"`
	IsAuthenticated bool   `json:"is_authenticated"`
	IsLoading       bool   `json:"is_loading"`
	IsInitialized   bool   `json:"is_initialized"`
}

// PersistedSession is the subset of Session written to storage. User is kept
// raw so a corrupted user payload can be detected and wiped on startup.
type PersistedSession struct {
	Version         int             `json:"version,omitempty"`
	User            json.RawMessage `json:"user"`
	Token           string          `json:"token"`
	SessionID       string          `json:"sessionId,omitempty"`
	IsAuthenticated bool            `json:"isAuthenticated"`
}
