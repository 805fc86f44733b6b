// Package tokenstore persists the single session token between runs.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/frahmantamala/construction-dashboard/internal"
)

var ErrSealed = errors.New("tokenstore: cannot open sealed token")

// Store holds at most one token under a fixed name.
type Store interface {
	// Load reports ok=false when no token is stored.
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	// Clear is a no-op when nothing is stored.
	Clear(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg internal.TokenStoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.KeyName
	if name == "" {
		name = internal.DefaultTokenKeyName
	}

	switch cfg.Driver {
	case "", "file":
		key, err := cfg.GetSealKey()
		if err != nil {
			return nil, err
		}
		logger.Debug("using file token store", "path", cfg.Path, "sealed", key != nil)
		return NewFileStore(cfg.Path, key), nil
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "postgres":
		store, err := OpenSQLStore(ctx, cfg.Driver, DSN(cfg), name)
		if err != nil {
			return nil, err
		}
		logger.Debug("using sql token store", "driver", cfg.Driver, "key_name", name)
		return store, nil
	}
	return nil, fmt.Errorf("tokenstore: unknown driver %q", cfg.Driver)
}

// DSN is the connection string for the sql drivers; sqlite falls back to Path.
func DSN(cfg internal.TokenStoreConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return cfg.Path
}

type MemoryStore struct {
	mu    sync.Mutex
	token string
	ok    bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.ok, nil
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.ok = token, true
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.ok = "", false
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
