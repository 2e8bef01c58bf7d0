package adm

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

var (
	// ErrInvalidID is returned when an identifier string does not parse, or
	// when an entity is created with an ID whose kind is not an entity kind.
	ErrInvalidID = errors.New("invalid ADM identifier")

	// ErrDuplicateID is returned by [Document.Add] when an entity with the
	// same ID is already present. IDs are unique within one document.
	ErrDuplicateID = errors.New("duplicate ADM identifier")

	// ErrUnresolvedReference is returned when a reference names an ID that is
	// not present in the document. The wrapped message carries the ID.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrInvalidReference is returned by [Entity.AddReference] when the
	// target kind cannot be referenced from the source kind.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrNotChannelFormat is returned when block formats are added to an
	// entity that is not an audioChannelFormat.
	ErrNotChannelFormat = errors.New("block formats belong to channel formats only")

	// ErrInvalidTimecode is returned by [ParseTimecode] for malformed input.
	ErrInvalidTimecode = errors.New("invalid timecode")

	// ErrUnsupportedTimecode is returned by [ParseTimecode] for frame based
	// timecodes (hh:mm:ss:ff).
	ErrUnsupportedTimecode = errors.New("frame based timecodes not supported")
)

// Attributes holds optional attributes the model does not interpret
// (e.g. audioContentLanguage, interact). They round-trip through XML.
// Attributes maps are never nil on entities returned by [NewEntity].
type Attributes map[string]string

// cardinality describes how many references of one kind an entity may hold.
type cardinality int

const (
	many cardinality = iota
	single
)

// referenceRules lists, per source kind, the kinds it may reference.
var referenceRules = map[Kind]map[Kind]cardinality{
	KindProgramme: {KindContent: many},
	KindContent:   {KindObject: many},
	KindObject:    {KindObject: many, KindPackFormat: many, KindTrackUID: many},
	KindPackFormat: {
		KindChannelFormat: many,
		KindPackFormat:    many,
	},
	KindStreamFormat: {KindChannelFormat: single, KindTrackFormat: many},
	KindTrackFormat:  {KindStreamFormat: single},
	KindTrackUID: {
		KindTrackFormat:   single,
		KindPackFormat:    single,
		KindChannelFormat: single,
	},
}

// CanReference reports whether an entity of kind from may reference an
// entity of kind to.
func CanReference(from, to Kind) bool {
	_, ok := referenceRules[from][to]
	return ok
}

// Entity is a node of the ADM graph. Entities reference each other by ID;
// the [Document] they are added to resolves those IDs.
//
// The zero value is not usable - use [NewEntity].
type Entity struct {
	id   ID
	kind Kind

	// Name is the entity's name attribute (audioObjectName, ...).
	Name string
	// TypeDefinition is set for pack and channel formats, and for stream
	// and track formats when they carry a formatDefinition.
	TypeDefinition TypeDefinition
	// Attrs holds uninterpreted optional attributes.
	Attrs Attributes
	// Elements holds uninterpreted child elements (loudnessMetadata,
	// dialogue, frequency, ...).
	Elements []Element

	start    *time.Duration
	end      *time.Duration
	duration *time.Duration

	refs   []ID
	blocks []BlockFormat
}

// NewEntity creates an entity whose kind is derived from id.
// Returns ErrInvalidID if id does not name an entity kind.
func NewEntity(id ID, name string) (*Entity, error) {
	kind := id.Kind()
	if !slices.Contains(EntityKinds, kind) {
		return nil, fmt.Errorf("%w: %q is not an entity ID", ErrInvalidID, id)
	}
	e := &Entity{id: id, kind: kind, Name: name, Attrs: Attributes{}}
	if t := id.TypeDefinition(); t != TypeUndefined {
		e.TypeDefinition = t
	}
	return e, nil
}

// ID returns the entity's identifier.
func (e *Entity) ID() ID { return e.id }

// Kind returns the entity's kind.
func (e *Entity) Kind() Kind { return e.kind }

// Start returns the start attribute (programmes and objects) and whether
// it is set.
func (e *Entity) Start() (time.Duration, bool) { return get(e.start) }

// SetStart sets the start attribute.
func (e *Entity) SetStart(d time.Duration) { e.start = &d }

// UnsetStart removes the start attribute.
func (e *Entity) UnsetStart() { e.start = nil }

// HasStart reports whether the start attribute is set.
func (e *Entity) HasStart() bool { return e.start != nil }

// End returns the end attribute (programmes) and whether it is set.
func (e *Entity) End() (time.Duration, bool) { return get(e.end) }

// SetEnd sets the end attribute.
func (e *Entity) SetEnd(d time.Duration) { e.end = &d }

// UnsetEnd removes the end attribute.
func (e *Entity) UnsetEnd() { e.end = nil }

// HasEnd reports whether the end attribute is set.
func (e *Entity) HasEnd() bool { return e.end != nil }

// Duration returns the duration attribute (objects) and whether it is set.
func (e *Entity) Duration() (time.Duration, bool) { return get(e.duration) }

// SetDuration sets the duration attribute.
func (e *Entity) SetDuration(d time.Duration) { e.duration = &d }

// UnsetDuration removes the duration attribute.
func (e *Entity) UnsetDuration() { e.duration = nil }

// HasDuration reports whether the duration attribute is set.
func (e *Entity) HasDuration() bool { return e.duration != nil }

func get(p *time.Duration) (time.Duration, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// AddReference appends a reference to target. For kinds the source may hold
// only one of (e.g. a track UID's track format) the previous reference of
// that kind is replaced, so the last set wins. Adding a reference that is
// already present is a no-op.
//
// Returns ErrInvalidReference if the source kind cannot reference the
// target kind.
func (e *Entity) AddReference(target ID) error {
	card, ok := referenceRules[e.kind][target.Kind()]
	if !ok {
		return fmt.Errorf("%w: %s %s cannot reference %s", ErrInvalidReference, e.kind, e.id, target)
	}
	if card == single {
		e.ClearReferences(target.Kind())
	}
	if !slices.Contains(e.refs, target) {
		e.refs = append(e.refs, target)
	}
	return nil
}

// SetReference replaces every reference of target's kind with target.
func (e *Entity) SetReference(target ID) error {
	if !CanReference(e.kind, target.Kind()) {
		return fmt.Errorf("%w: %s %s cannot reference %s", ErrInvalidReference, e.kind, e.id, target)
	}
	e.ClearReferences(target.Kind())
	e.refs = append(e.refs, target)
	return nil
}

// References returns the referenced IDs of the given kind in the order they
// were added. The returned slice is a copy.
func (e *Entity) References(kind Kind) []ID {
	var out []ID
	for _, r := range e.refs {
		if r.Kind() == kind {
			out = append(out, r)
		}
	}
	return out
}

// Reference returns the first reference of the given kind.
func (e *Entity) Reference(kind Kind) (ID, bool) {
	for _, r := range e.refs {
		if r.Kind() == kind {
			return r, true
		}
	}
	return "", false
}

// AllReferences returns every reference in insertion order.
func (e *Entity) AllReferences() []ID { return slices.Clone(e.refs) }

// HasReference reports whether e references target.
func (e *Entity) HasReference(target ID) bool { return slices.Contains(e.refs, target) }

// RemoveReference removes target from e's references if present.
func (e *Entity) RemoveReference(target ID) {
	e.refs = slices.DeleteFunc(e.refs, func(r ID) bool { return r == target })
}

// ClearReferences removes every reference of the given kind.
func (e *Entity) ClearReferences(kind Kind) {
	e.refs = slices.DeleteFunc(e.refs, func(r ID) bool { return r.Kind() == kind })
}

// AddBlockFormat appends b to the channel format's block formats.
// Returns ErrNotChannelFormat for other kinds.
func (e *Entity) AddBlockFormat(b BlockFormat) error {
	if e.kind != KindChannelFormat {
		return fmt.Errorf("%w: %s", ErrNotChannelFormat, e.id)
	}
	e.blocks = append(e.blocks, b.Copy())
	return nil
}

// BlockFormats returns the channel format's block formats in their current
// order. The returned slice must be treated as read-only.
func (e *Entity) BlockFormats() []BlockFormat { return e.blocks }

// HasBlockFormat reports whether a block with the given ID is present.
func (e *Entity) HasBlockFormat(id ID) bool {
	return slices.ContainsFunc(e.blocks, func(b BlockFormat) bool { return b.ID == id })
}

// ClearBlockFormats removes all block formats.
func (e *Entity) ClearBlockFormats() { e.blocks = nil }

// SortBlockFormats stably sorts the block formats by rtime. Blocks with
// equal rtime keep their relative order.
func (e *Entity) SortBlockFormats() {
	slices.SortStableFunc(e.blocks, func(a, b BlockFormat) int {
		switch {
		case a.Rtime < b.Rtime:
			return -1
		case a.Rtime > b.Rtime:
			return 1
		}
		return 0
	})
}

// Copy returns a deep copy of e with the same ID. The copy shares no
// mutable state with e.
func (e *Entity) Copy() *Entity {
	c := &Entity{
		id:             e.id,
		kind:           e.kind,
		Name:           e.Name,
		TypeDefinition: e.TypeDefinition,
		Attrs:          maps.Clone(e.Attrs),
		start:          clonePtr(e.start),
		end:            clonePtr(e.end),
		duration:       clonePtr(e.duration),
		refs:           slices.Clone(e.refs),
	}
	if c.Attrs == nil {
		c.Attrs = Attributes{}
	}
	if e.Elements != nil {
		c.Elements = make([]Element, len(e.Elements))
		for i, el := range e.Elements {
			c.Elements[i] = el.Copy()
		}
	}
	if e.blocks != nil {
		c.blocks = make([]BlockFormat, len(e.blocks))
		for i, b := range e.blocks {
			c.blocks[i] = b.Copy()
		}
	}
	return c
}

func clonePtr(p *time.Duration) *time.Duration {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
