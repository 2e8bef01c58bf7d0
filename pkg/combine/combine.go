package combine

import (
	"errors"
	"fmt"

	"github.com/matzehuels/sadm/pkg/adm"
)

var (
	// ErrTransportMismatch is returned by [Combiner.Push] when a frame's
	// transportTrackFormat has a different transport ID than the one
	// recorded from earlier frames. The combined document is left unchanged.
	ErrTransportMismatch = errors.New("transport track format mismatch")

	// ErrNilFrame is returned by [Combiner.Push] for a nil frame.
	ErrNilFrame = errors.New("nil frame")
)

// Combiner folds a time-ordered stream of frames back into one document.
//
// Frames must be pushed in non-decreasing order of their start time; block
// formats are appended in arrival order and never re-sorted. A Combiner is
// not safe for concurrent use.
type Combiner struct {
	doc       *adm.Document
	transport *adm.TransportTrackFormat
	frames    int
}

// New creates an empty Combiner.
func New() *Combiner {
	return &Combiner{doc: adm.NewDocument()}
}

// Push merges f into the combined document.
//
// Entities whose ID is not yet known are copied in with their references.
// Known entities are kept as they are, except that a known channel format
// gains every incoming block format whose ID it does not hold yet.
//
// The first transportTrackFormat seen is recorded; later ones must carry
// the same transport ID and contribute their tracks to it. A mismatch fails
// with ErrTransportMismatch before anything is merged.
func (c *Combiner) Push(f *adm.Frame) error {
	if f == nil {
		return ErrNilFrame
	}
	if err := c.check(f); err != nil {
		return err
	}

	for _, e := range f.All() {
		existing, ok := c.doc.Lookup(e.ID())
		if !ok {
			// Cannot fail: the ID is not present.
			_ = c.doc.Add(e.Copy())
			continue
		}
		if e.Kind() != adm.KindChannelFormat {
			continue
		}
		for _, b := range e.BlockFormats() {
			if !existing.HasBlockFormat(b.ID) {
				_ = existing.AddBlockFormat(b)
			}
		}
	}

	if t := f.Header.Transport; t != nil {
		if c.transport == nil {
			c.transport = t.Copy()
		} else {
			for _, tr := range t.Tracks {
				c.transport.AddTrack(tr)
			}
		}
	}
	c.frames++
	return nil
}

// check reports every condition that would make f unmergeable.
func (c *Combiner) check(f *adm.Frame) error {
	t := f.Header.Transport
	if t == nil || c.transport == nil || t.ID == c.transport.ID {
		return nil
	}
	return fmt.Errorf("%w: frame %s carries %s, expected %s",
		ErrTransportMismatch, f.Header.Format.FormattedID(), t.FormattedID(), c.transport.FormattedID())
}

// Document returns the combined document. It stays owned by the Combiner
// and changes with every successful push.
func (c *Combiner) Document() *adm.Document { return c.doc }

// TransportTrackFormat returns a copy of the recorded transport descriptor,
// or nil if no frame carried one.
func (c *Combiner) TransportTrackFormat() *adm.TransportTrackFormat {
	return c.transport.Copy()
}

// Frames returns the number of frames merged so far.
func (c *Combiner) Frames() int { return c.frames }
