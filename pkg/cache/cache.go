// Package cache stores serialized S-ADM frames so that repeated runs over
// the same document skip segmentation.
//
// # Backends
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the frame service
//   - [NullCache]: stores nothing, used when caching is disabled
//
// # Keys
//
// Keys are derived by a [Keyer] from a hash of the source document and the
// parameters that shape a frame. The same document segmented with the same
// window, frame ID and output options maps to the same key.
package cache

import (
	"context"
	"time"
)

// TTLFrame is the default lifetime of a cached frame.
const TTLFrame = 24 * time.Hour

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value stored under key. A missing or expired entry is
	// reported as a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// FrameKeyOpts holds everything besides the document that changes a
// serialized frame.
type FrameKeyOpts struct {
	ID        uint64        `json:"id"`
	Start     time.Duration `json:"start"`
	Duration  time.Duration `json:"duration"`
	FrameType string        `json:"frame_type,omitempty"`
	// Transport is the hash of the chna table the transport descriptor was
	// built from; empty when frames carry none.
	Transport     string `json:"transport,omitempty"`
	ITUStructure  bool   `json:"itu,omitempty"`
	DefaultValues bool   `json:"defaults,omitempty"`
}
