package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer derives cache keys.
type Keyer interface {
	// FrameKey returns the key of one serialized frame of the document whose
	// content hash is docHash.
	FrameKey(docHash string, opts FrameKeyOpts) string
}

// ContentHash returns the hex SHA-256 of data. Documents and chna tables
// enter frame keys through it.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// FrameKey returns "frame:<sha256>" over the document hash and opts.
func (DefaultKeyer) FrameKey(docHash string, opts FrameKeyOpts) string {
	data, _ := json.Marshal(struct {
		Doc string `json:"doc"`
		FrameKeyOpts
	}{docHash, opts})
	return "frame:" + ContentHash(data)
}

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// deployments can share one Redis instance:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "studio-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// FrameKey returns the inner key behind the prefix.
func (k *ScopedKeyer) FrameKey(docHash string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(docHash, opts)
}
