// Package store archives serialized S-ADM frames by run.
//
// A run is one segmentation of one document. Every frame of a run is kept
// as a [Record] carrying the frame's XML, so a run can later be replayed
// into a combiner or served again without the source document.
//
// Three backends are provided:
//   - [DirStore]: one XML file per frame under <dir>/<run>/, for the CLI
//   - [SQLiteStore]: one row per frame in a local database file
//   - [MongoStore]: one document per frame in a MongoDB collection
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned by List when a run has no frames.
var ErrRunNotFound = errors.New("run not found")

// Record is one archived frame.
type Record struct {
	RunID string `json:"run_id" bson:"run_id"`
	// Index is the frame's frameFormat ID; runs list in Index order.
	Index    uint64        `json:"index" bson:"index"`
	Start    time.Duration `json:"start" bson:"start"`
	Duration time.Duration `json:"duration" bson:"duration"`
	XML      []byte        `json:"xml" bson:"xml"`
}

// Store is the interface for frame archive backends.
type Store interface {
	// Put stores r, replacing any record with the same run and index.
	Put(ctx context.Context, r Record) error

	// List returns the frames of a run ordered by index. Returns
	// ErrRunNotFound if the run holds no frames.
	List(ctx context.Context, runID string) ([]Record, error)

	// Close releases the backend's resources.
	Close() error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}
