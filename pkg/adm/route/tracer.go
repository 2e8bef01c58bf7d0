package route

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/sadm/pkg/adm"
)

// ErrCycle is returned when tracing meets an entity that is already on the
// current path. ADM reference graphs must be acyclic.
var ErrCycle = errors.New("reference cycle")

// Tracer enumerates routes through an ADM document. The zero value is ready
// to use.
type Tracer struct{}

// Run traces every route that starts at the given programme, depth first:
// contents and objects in reference order, nested objects down to terminal
// objects, and at each terminal object every pack format (nested packs
// included) down to its channel formats. Each channel format reached is one
// route.
//
// The object's track UIDs are attached to the route of the channel they
// resolve to, either through a direct channel reference or through
// trackFormat -> streamFormat -> channelFormat, sharing it when several UIDs
// name the same channel. UIDs without channel information fill the remaining
// channels in order, preferring channels below the UID's pack format. Every
// UID lands on exactly one route; a channel carrying several UIDs is emitted
// once per UID.
//
// Returns an error wrapping ErrCycle if an entity repeats on the current
// path, and adm.ErrUnresolvedReference for references missing from doc.
func (Tracer) Run(doc *adm.Document, programme adm.ID) ([]Route, error) {
	if programme.Kind() != adm.KindProgramme {
		return nil, fmt.Errorf("%w: %s is not an audioProgramme", adm.ErrInvalidReference, programme)
	}
	w := &walker{doc: doc, onPath: make(map[adm.ID]bool)}
	if err := w.programme(programme); err != nil {
		return nil, err
	}
	return w.routes, nil
}

// Trace runs the tracer for every programme in doc, in document order.
func Trace(doc *adm.Document) ([]Route, error) {
	var (
		t   Tracer
		all []Route
	)
	for _, p := range doc.Entities(adm.KindProgramme) {
		routes, err := t.Run(doc, p.ID())
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", p.ID(), err)
		}
		all = append(all, routes...)
	}
	return all, nil
}

type leaf struct {
	prefix  []adm.ID
	channel adm.ID
}

type walker struct {
	doc    *adm.Document
	path   []adm.ID
	onPath map[adm.ID]bool
	routes []Route
}

func (w *walker) enter(id adm.ID) (*adm.Entity, error) {
	if w.onPath[id] {
		return nil, fmt.Errorf("%w: %s", ErrCycle, w.describe(id))
	}
	e, err := w.doc.Resolve(id)
	if err != nil {
		return nil, err
	}
	w.onPath[id] = true
	w.path = append(w.path, id)
	return e, nil
}

func (w *walker) leave() {
	last := w.path[len(w.path)-1]
	delete(w.onPath, last)
	w.path = w.path[:len(w.path)-1]
}

func (w *walker) describe(repeated adm.ID) string {
	var b strings.Builder
	for _, id := range w.path {
		b.WriteString(string(id))
		b.WriteString(" -> ")
	}
	b.WriteString(string(repeated))
	return b.String()
}

func (w *walker) programme(id adm.ID) error {
	prog, err := w.enter(id)
	if err != nil {
		return err
	}
	defer w.leave()
	for _, cid := range prog.References(adm.KindContent) {
		content, err := w.enter(cid)
		if err != nil {
			return err
		}
		for _, oid := range content.References(adm.KindObject) {
			if err := w.object(oid); err != nil {
				return err
			}
		}
		w.leave()
	}
	return nil
}

func (w *walker) object(id adm.ID) error {
	obj, err := w.enter(id)
	if err != nil {
		return err
	}
	defer w.leave()

	for _, nested := range obj.References(adm.KindObject) {
		if err := w.object(nested); err != nil {
			return err
		}
	}

	var leaves []leaf
	for _, pid := range obj.References(adm.KindPackFormat) {
		if err := w.pack(pid, &leaves); err != nil {
			return err
		}
	}
	if len(leaves) == 0 {
		return nil
	}

	uids := obj.References(adm.KindTrackUID)
	byLeaf, err := w.assign(uids, leaves)
	if err != nil {
		return err
	}
	for i, lf := range leaves {
		base := append(slices.Clone(lf.prefix), lf.channel)
		if len(byLeaf[i]) == 0 {
			w.routes = append(w.routes, New(base...))
			continue
		}
		for _, uid := range byLeaf[i] {
			tail, err := w.uidChain(uid)
			if err != nil {
				return err
			}
			w.routes = append(w.routes, New(append(slices.Clone(base), tail...)...))
		}
	}
	return nil
}

// assign distributes an object's track UIDs over its leaves. Every UID ends
// up on exactly one leaf. A UID that resolves to a free leaf's channel takes
// that leaf. The rest go to the first leaf carrying their channel even if
// taken, else the first free leaf below their pack format, else the first
// free leaf, else any leaf below their pack, else the first leaf.
func (w *walker) assign(uids []adm.ID, leaves []leaf) ([][]adm.ID, error) {
	byLeaf := make([][]adm.ID, len(leaves))
	taken := make([]bool, len(leaves))
	channels := make([]adm.ID, len(uids))
	var rest []int
	for j, uid := range uids {
		ch, err := w.uidChannel(uid)
		if err != nil {
			return nil, err
		}
		channels[j] = ch
		i := -1
		if ch != "" {
			i = firstLeaf(leaves, taken, func(lf leaf) bool { return lf.channel == ch })
		}
		if i < 0 {
			rest = append(rest, j)
			continue
		}
		taken[i] = true
		byLeaf[i] = append(byLeaf[i], uid)
	}

	for _, j := range rest {
		uid, err := w.doc.Resolve(uids[j])
		if err != nil {
			return nil, err
		}
		pack, hasPack := uid.Reference(adm.KindPackFormat)
		underPack := func(lf leaf) bool { return hasPack && slices.Contains(lf.prefix, pack) }
		free := func(leaf) bool { return true }

		i := -1
		if ch := channels[j]; ch != "" {
			i = slices.IndexFunc(leaves, func(lf leaf) bool { return lf.channel == ch })
		}
		if i < 0 {
			i = firstLeaf(leaves, taken, underPack)
		}
		if i < 0 {
			i = firstLeaf(leaves, taken, free)
		}
		if i < 0 {
			i = slices.IndexFunc(leaves, underPack)
		}
		if i < 0 {
			i = 0
		}
		taken[i] = true
		byLeaf[i] = append(byLeaf[i], uids[j])
	}
	return byLeaf, nil
}

// firstLeaf returns the index of the first leaf not yet taken that
// satisfies match, or -1.
func firstLeaf(leaves []leaf, taken []bool, match func(leaf) bool) int {
	for i, lf := range leaves {
		if !taken[i] && match(lf) {
			return i
		}
	}
	return -1
}

func (w *walker) pack(id adm.ID, leaves *[]leaf) error {
	pack, err := w.enter(id)
	if err != nil {
		return err
	}
	defer w.leave()
	for _, ref := range pack.AllReferences() {
		switch ref.Kind() {
		case adm.KindChannelFormat:
			if _, err := w.doc.Resolve(ref); err != nil {
				return err
			}
			*leaves = append(*leaves, leaf{prefix: slices.Clone(w.path), channel: ref})
		case adm.KindPackFormat:
			if err := w.pack(ref, leaves); err != nil {
				return err
			}
		}
	}
	return nil
}

// uidChannel returns the channel format a track UID resolves to, or "" if it
// carries no channel information.
func (w *walker) uidChannel(id adm.ID) (adm.ID, error) {
	uid, err := w.doc.Resolve(id)
	if err != nil {
		return "", err
	}
	if ch, ok := uid.Reference(adm.KindChannelFormat); ok {
		return ch, nil
	}
	tfID, ok := uid.Reference(adm.KindTrackFormat)
	if !ok {
		return "", nil
	}
	tf, err := w.doc.Resolve(tfID)
	if err != nil {
		return "", err
	}
	sfID, ok := tf.Reference(adm.KindStreamFormat)
	if !ok {
		return "", nil
	}
	sf, err := w.doc.Resolve(sfID)
	if err != nil {
		return "", err
	}
	ch, _ := sf.Reference(adm.KindChannelFormat)
	return ch, nil
}

// uidChain returns the track UID followed by its track and stream formats
// where present.
func (w *walker) uidChain(id adm.ID) ([]adm.ID, error) {
	chain := []adm.ID{id}
	uid, err := w.doc.Resolve(id)
	if err != nil {
		return nil, err
	}
	tfID, ok := uid.Reference(adm.KindTrackFormat)
	if !ok {
		return chain, nil
	}
	tf, err := w.doc.Resolve(tfID)
	if err != nil {
		return nil, err
	}
	chain = append(chain, tfID)
	if sfID, ok := tf.Reference(adm.KindStreamFormat); ok {
		if _, err := w.doc.Resolve(sfID); err != nil {
			return nil, err
		}
		chain = append(chain, sfID)
	}
	return chain, nil
}
