// Package metadata provides the key/value stores that hold safecheck's
// persisted settings. Every backend stores opaque byte values under string
// keys; encoding is the settings layer's job.
package metadata

import (
	"context"
)

// Repository is a flat key/value store dedicated to safecheck settings.
//
// Get returns (nil, nil) for a missing key. SetMany writes all pairs or none
// where the backend allows it. Clear removes every key in a single write, so
// an erase never leaves half of the settings behind.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetMany(ctx context.Context, values map[string][]byte) error
	Clear(ctx context.Context) error
}
