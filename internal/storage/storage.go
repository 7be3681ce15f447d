// Package storage defines the key-value capability artifacts are persisted through.
package storage

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by a medium that cannot be used in the current
// execution context. Callers treat it as "nothing stored, nothing written".
var ErrUnsupported = errors.New("storage medium unavailable")

// KV is a flat string key-value medium. Implementations must be safe for
// concurrent use; no cross-writer coordination is required (last write wins).
type KV interface {
	// Get returns the value under key. found is false when nothing is stored.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set replaces the value under key.
	Set(ctx context.Context, key, value string) error
	// Keys lists every key starting with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Unsupported is the medium of a context without storage. Every call fails
// with ErrUnsupported.
type Unsupported struct{}

func (Unsupported) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrUnsupported
}

func (Unsupported) Set(context.Context, string, string) error {
	return ErrUnsupported
}

func (Unsupported) Keys(context.Context, string) ([]string, error) {
	return nil, ErrUnsupported
}

// IsUnsupported reports whether err signals a missing medium.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
