package db

import (
	"context"
	"time"
)

// Store is the database facade used by repositories.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns values in key order; missing keys yield nil entries.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// ScanPrefix returns every key starting with prefix once, in no particular order.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
}

// PollReady calls ping every 100ms until it succeeds or timeout expires.
func PollReady(ctx context.Context, timeout time.Duration, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &Error{Op: OpPing, Err: ctx.Err()}
		case <-ticker.C:
			if err := ping(ctx); err == nil {
				return nil
			}
		}
	}
}
