// Package pipeline runs segmentation and recombination end to end for the
// CLI and the frame service.
//
// # Stages
//
// A segmentation run loads a document ([Load]), cuts it into consecutive
// windows of [Options.FrameSize] and serializes every frame to S-ADM XML.
// Serialized frames are cached by document hash and window, so a second
// run over the same document only reads the cache. A recombination run
// parses frames in order and folds them into one document.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	src, err := pipeline.Load("scene.wav")
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Segment(ctx, src, pipeline.Options{FrameSize: time.Second},
//	    func(ctx context.Context, f pipeline.Frame) error {
//	        return os.WriteFile(fmt.Sprintf("frame_%05d.xml", f.ID), f.XML, 0644)
//	    })
//
// Recombine files written by a run:
//
//	combined, err := runner.Combine(ctx, pipeline.Files(paths))
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sadm/pkg/adm"
	errs "github.com/matzehuels/sadm/pkg/errors"
	pkgio "github.com/matzehuels/sadm/pkg/io"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultFrameSize is the default segment duration.
const DefaultFrameSize = time.Second

// DefaultFrameType is written to frame headers unless overridden.
const DefaultFrameType = adm.FrameTypeFull

// ValidFrameTypes is the set of frame types a run may write.
var ValidFrameTypes = map[string]bool{
	adm.FrameTypeFull:         true,
	adm.FrameTypeHeader:       true,
	adm.FrameTypeDivided:      true,
	adm.FrameTypeIntermediate: true,
	adm.FrameTypeAll:          true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures a segmentation run.
type Options struct {
	// FrameSize is the duration of every window.
	FrameSize time.Duration `json:"frame_size,omitempty"`

	// MaxFrames caps the number of frames. Zero means until the end of the
	// longest programme, or of the audio for BW64 input.
	MaxFrames int `json:"max_frames,omitempty"`

	// FrameType is written to every frame header.
	FrameType string `json:"frame_type,omitempty"`

	// Transport attaches a transportTrackFormat built from the source's
	// chna table to every frame.
	Transport bool `json:"transport,omitempty"`

	// XML controls frame serialization.
	XML pkgio.Options `json:"-"`

	// Refresh ignores cached frames; fresh frames are still written back.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.FrameSize == 0 {
		o.FrameSize = DefaultFrameSize
	}
	if err := errs.ValidateFrameSize(o.FrameSize); err != nil {
		return err
	}
	if o.MaxFrames < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "max frames must not be negative, got %d", o.MaxFrames)
	}
	if o.FrameType == "" {
		o.FrameType = DefaultFrameType
	}
	if !ValidFrameTypes[o.FrameType] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid frame type: %q (must be one of: full, header, divided, intermediate, all)", o.FrameType)
	}
	o.validated = true
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Frame is one serialized frame produced by [Runner.Segment].
type Frame struct {
	ID       uint64
	Start    time.Duration
	Duration time.Duration
	XML      []byte
	// Cached is true when XML came from the cache.
	Cached bool
}

// Result summarizes a segmentation run.
type Result struct {
	// DocumentHash is the content hash of the normalized document.
	DocumentHash string

	// Items is the number of segmentation items traced in the document.
	Items int

	// Frames is the number of frames emitted.
	Frames int

	// CacheHits counts frames served from the cache.
	CacheHits int

	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Combined is the outcome of a recombination run.
type Combined struct {
	Document  *adm.Document
	Transport *adm.TransportTrackFormat
	Frames    int
	Elapsed   time.Duration
}
