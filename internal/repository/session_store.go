package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoRecord is returned by Load when the slot is empty.
var ErrNoRecord = errors.New("no session record stored")

// SessionStore is the single persisted session slot of one profile.
// Only the session guard writes to it.
type SessionStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// PgxQuerier is the part of *pgxpool.Pool the Postgres store uses.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresSessionStore struct {
	db      PgxQuerier
	profile string
	key     string
}

// NewPostgresSessionStore stores the slot in the session_storage table, one row per (profile, key).
func NewPostgresSessionStore(db PgxQuerier, profile, key string) SessionStore {
	return &postgresSessionStore{db: db, profile: profile, key: key}
}

func (s *postgresSessionStore) Load(ctx context.Context) ([]byte, error) {
	var value string
	sql := `SELECT value FROM session_storage WHERE profile = $1 AND key = $2`
	err := s.db.QueryRow(ctx, sql, s.profile, s.key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to load session record: %w", err)
	}
	return []byte(value), nil
}

func (s *postgresSessionStore) Save(ctx context.Context, data []byte) error {
	sql := `INSERT INTO session_storage (profile, key, value, updated_at)
            VALUES ($1, $2, $3, NOW())
            ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := s.db.Exec(ctx, sql, s.profile, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

func (s *postgresSessionStore) Clear(ctx context.Context) error {
	sql := `DELETE FROM session_storage WHERE profile = $1 AND key = $2`
	if _, err := s.db.Exec(ctx, sql, s.profile, s.key); err != nil {
		return fmt.Errorf("failed to clear session record: %w", err)
	}
	return nil
}

type fileSessionStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSessionStore keeps the slot in <dir>/<profile>.<key>.json.
func NewFileSessionStore(dir, profile, key string) SessionStore {
	return &fileSessionStore{path: filepath.Join(dir, profile+"."+key+".json")}
}

func (s *fileSessionStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoRecord
	}
	return data, nil
}

func (s *fileSessionStore) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (s *fileSessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemorySessionStore keeps the slot in process memory. It backs tests and
// the "memory" storage driver.
type MemorySessionStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrNoRecord
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemorySessionStore) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *MemorySessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

// Raw returns the stored bytes, or nil when the slot is empty.
func (s *MemorySessionStore) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}
