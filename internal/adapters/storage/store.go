// Package storage defines the key-value persistence contract the engagement
// components save their state through, with memory and SQLite backends.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Well-known key prefixes.
const (
	KeyProfilePrefix      = "sportiq_user_profile_v2/"
	KeyGamificationPrefix = "sportiq_gamification/"
	KeyLeaderboards       = "sportiq_leaderboards"
	KeyContent            = "sportiq_content"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// KV is a flat byte-oriented key-value store.
type KV interface {
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Open builds the backend named by driver. path is ignored for memory.
func Open(ctx context.Context, driver, path string) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return NewSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, driver)
	}
}

// LoadJSON decodes the blob at key into v. It returns ErrNotFound for a
// missing key and wraps ErrCorrupt when the blob does not decode.
func LoadJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

// SaveJSON encodes v and stores it at key.
func SaveJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Put(ctx, key, raw)
}

// IsNotFound reports whether err is a missing-key error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
