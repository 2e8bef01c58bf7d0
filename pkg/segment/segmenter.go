package segment

import (
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/sadm/pkg/adm"
	"github.com/matzehuels/sadm/pkg/adm/route"
	"github.com/matzehuels/sadm/pkg/bw64"
)

// Item is the segmenter's view of one channel format: the routes that lead
// to it and the absolute interval in which its blocks are valid.
//
// Routes that resolve to the same channel with the same validity collapse
// into one item; the item then carries every entity of every such route.
type Item struct {
	Channel  adm.ID
	Validity Interval
	Routes   []route.Route

	entities []adm.ID
}

// Entities returns the IDs of every entity the item copies into a frame, in
// route order.
func (it Item) Entities() []adm.ID { return slices.Clone(it.entities) }

func (it *Item) addRoute(r route.Route) {
	it.Routes = append(it.Routes, r)
	for _, id := range r.IDs() {
		if !slices.Contains(it.entities, id) {
			it.entities = append(it.entities, id)
		}
	}
}

type itemKey struct {
	channel  adm.ID
	validity Interval
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithTransportTrackFormat includes a copy of ttf in every frame.
func WithTransportTrackFormat(ttf *adm.TransportTrackFormat) Option {
	return func(s *Segmenter) { s.transport = ttf.Copy() }
}

// WithFrameType sets the frame type written to frame headers. The default
// is adm.FrameTypeFull.
func WithFrameType(t string) Option {
	return func(s *Segmenter) { s.frameType = t }
}

// Segmenter cuts an ADM document into time-bounded frames.
//
// A Segmenter is not safe for concurrent use. Each document needs its own
// Segmenter; the frame counter is per instance.
type Segmenter struct {
	doc       *adm.Document
	items     []Item
	counter   uint64
	transport *adm.TransportTrackFormat
	frameType string
}

// New prepares doc for segmentation. The document is copied, so later
// changes to doc do not affect the Segmenter. Every reference must resolve;
// block formats are stably sorted by rtime and every programme is traced
// into items.
//
// Returns an error wrapping adm.ErrUnresolvedReference for dangling
// references and route.ErrCycle for cyclic graphs.
func New(doc *adm.Document, opts ...Option) (*Segmenter, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("segmenter: %w", err)
	}
	s := &Segmenter{doc: doc.Copy(), frameType: adm.FrameTypeFull}
	for _, opt := range opts {
		opt(s)
	}
	s.doc.SortBlockFormats()

	routes, err := route.Trace(s.doc)
	if err != nil {
		return nil, fmt.Errorf("segmenter: %w", err)
	}
	seen := make(map[itemKey]int)
	for _, r := range routes {
		key := itemKey{channel: r.Channel(), validity: s.validity(r)}
		i, ok := seen[key]
		if !ok {
			i = len(s.items)
			seen[key] = i
			s.items = append(s.items, Item{Channel: key.channel, Validity: key.validity})
		}
		s.items[i].addRoute(r)
	}
	return s, nil
}

// validity computes the route's absolute validity interval. The start is
// the latest start of any object on the route. The end is the tightest of
// the programme's length and each object's start+duration.
func (s *Segmenter) validity(r route.Route) Interval {
	iv := Interval{End: Forever}
	objects := make([]*adm.Entity, 0, 2)
	for _, id := range r.AllOf(adm.KindObject) {
		if o, ok := s.doc.Lookup(id); ok {
			objects = append(objects, o)
		}
	}
	for _, o := range objects {
		if st, ok := o.Start(); ok && st > iv.Start {
			iv.Start = st
		}
	}
	if prog, ok := s.doc.Lookup(r.Programme()); ok {
		if end, ok := prog.End(); ok {
			start, _ := prog.Start()
			iv.End = min(iv.End, end-start)
		}
	}
	for _, o := range objects {
		if d, ok := o.Duration(); ok {
			st, _ := o.Start()
			iv.End = min(iv.End, st+d)
		}
	}
	return iv
}

// Document returns the segmenter's normalized copy of the source document.
// It must not be modified.
func (s *Segmenter) Document() *adm.Document { return s.doc }

// Items returns the segmenter's items in trace order.
func (s *Segmenter) Items() []Item { return slices.Clone(s.items) }

// Length returns the longest programme length (end minus start) and whether
// any programme declares an end.
func (s *Segmenter) Length() (time.Duration, bool) {
	var (
		length time.Duration
		found  bool
	)
	for _, p := range s.doc.Entities(adm.KindProgramme) {
		end, ok := p.End()
		if !ok {
			continue
		}
		start, _ := p.Start()
		length = max(length, end-start)
		found = true
	}
	return length, found
}

// Selection is the set of blocks an item contributes to a window.
type Selection struct {
	Item   Item
	Blocks []adm.BlockFormat
}

// Select reports, for every item that contributes to the window
// [segStart, segStart+segDuration), the blocks it contributes. It does not
// advance the frame counter.
func (s *Segmenter) Select(segStart, segDuration time.Duration) []Selection {
	window := Window(segStart, segDuration)
	var out []Selection
	for _, it := range s.items {
		ch, ok := s.doc.Lookup(it.Channel)
		if !ok {
			continue
		}
		if blocks := SelectBlocks(ch.BlockFormats(), it.Validity, window); len(blocks) > 0 {
			out = append(out, Selection{Item: it, Blocks: blocks})
		}
	}
	return out
}

// Frame builds the frame for the window [segStart, segStart+segDuration).
// Every call advances the frame counter by one; the first frame has ID 1.
//
// An item contributes only if at least one of its blocks is selected, in
// which case every entity on its routes is copied into the frame once.
// References are then restricted to entities present in the frame.
func (s *Segmenter) Frame(segStart, segDuration time.Duration) (*adm.Frame, error) {
	s.counter++
	return s.FrameAt(s.counter, segStart, segDuration)
}

// FrameAt builds the frame for a window like [Segmenter.Frame], but with an
// explicit frame ID. The frame counter is left unchanged. It serves random
// access to a frame sequence whose IDs are known up front.
func (s *Segmenter) FrameAt(id uint64, segStart, segDuration time.Duration) (*adm.Frame, error) {
	f := adm.NewFrame(segStart, segDuration, s.frameType)
	f.Header.Format.ID = id
	f.Header.Transport = s.transport.Copy()

	for _, sel := range s.Select(segStart, segDuration) {
		for _, eid := range sel.Item.entities {
			if f.Has(eid) {
				continue
			}
			src, err := s.doc.Resolve(eid)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", id, err)
			}
			c := src.Copy()
			c.ClearBlockFormats()
			if err := f.Add(c); err != nil {
				return nil, fmt.Errorf("frame %d: add %s: %w", id, eid, err)
			}
		}
		ch, err := f.Resolve(sel.Item.Channel)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", id, err)
		}
		for _, b := range sel.Blocks {
			if ch.HasBlockFormat(b.ID) {
				continue
			}
			if err := ch.AddBlockFormat(b); err != nil {
				return nil, fmt.Errorf("frame %d: %w", id, err)
			}
		}
	}

	rewire(f.Document)
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("frame %d: %w", id, err)
	}
	return f, nil
}

// rewire drops references to entities that were not copied into doc, so
// that every remaining reference resolves to a copy.
func rewire(doc *adm.Document) {
	for _, e := range doc.All() {
		for _, ref := range e.AllReferences() {
			if !doc.Has(ref) {
				e.RemoveReference(ref)
			}
		}
	}
}

// SetTransportTrackFormat includes a copy of ttf in every subsequent frame,
// replacing any descriptor set earlier. A nil ttf removes it.
func (s *Segmenter) SetTransportTrackFormat(ttf *adm.TransportTrackFormat) {
	s.transport = ttf.Copy()
}

// TransportTrackFormat builds the transport descriptor for a window from a
// chna allocation table. Its ID is TP_0001. Tracks appear in the order of
// their first row whose UID is present in the window, each listing its
// present UIDs in row order; tracks without present UIDs are left out.
//
// Returns an error wrapping adm.ErrInvalidID for malformed UIDs.
func (s *Segmenter) TransportTrackFormat(table bw64.ChnaTable, segStart, segDuration time.Duration) (*adm.TransportTrackFormat, error) {
	ttf := &adm.TransportTrackFormat{ID: 1}
	for _, row := range table.IDs {
		uid, err := adm.ParseID(row.UID)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", row.TrackIndex, err)
		}
		if !s.IsPresent(uid, segStart, segDuration) {
			continue
		}
		ttf.AddTrack(adm.AudioTrack{TrackID: int(row.TrackIndex), UIDs: []adm.ID{uid}})
	}
	return ttf, nil
}

// IsPresent reports whether the track UID may carry audio in the window
// [segStart, segStart+segDuration). It is false only if every object
// referencing the UID lies outside the window: the object starts at or
// after the window end, or has a duration and ends at or before the window
// start. Objects without a start are always present, as are UIDs no object
// references.
func (s *Segmenter) IsPresent(uid adm.ID, segStart, segDuration time.Duration) bool {
	window := Window(segStart, segDuration)
	referenced := false
	for _, o := range s.doc.Entities(adm.KindObject) {
		if !o.HasReference(uid) {
			continue
		}
		referenced = true
		start, ok := o.Start()
		if !ok {
			return true
		}
		if start >= window.End {
			continue
		}
		if d, ok := o.Duration(); ok && start+d <= window.Start {
			continue
		}
		return true
	}
	return !referenced
}
