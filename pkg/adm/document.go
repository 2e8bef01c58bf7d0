package adm

import (
	"fmt"
	"slices"
)

// Document is an arena of ADM entities keyed by ID. References between
// entities are stored as IDs and resolved through the document, so an
// entity reachable from several parents (a shared channel format) exists
// exactly once.
//
// Entities are enumerated in insertion order. A Document is not safe for
// concurrent use.
type Document struct {
	entities map[ID]*Entity
	order    []ID
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{entities: make(map[ID]*Entity)}
}

// Add inserts e into the document. The document takes ownership of e;
// callers that keep using e mutate the document's entity.
//
// Returns ErrInvalidID for a nil or ID-less entity and ErrDuplicateID if an
// entity with the same ID is already present. References are not checked
// here - use [Document.Validate] once the graph is complete.
func (d *Document) Add(e *Entity) error {
	if e == nil || e.id == "" {
		return ErrInvalidID
	}
	if _, exists := d.entities[e.id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, e.id)
	}
	d.entities[e.id] = e
	d.order = append(d.order, e.id)
	return nil
}

// Lookup returns the entity with the given ID.
func (d *Document) Lookup(id ID) (*Entity, bool) {
	e, ok := d.entities[id]
	return e, ok
}

// Has reports whether an entity with the given ID is present.
func (d *Document) Has(id ID) bool {
	_, ok := d.entities[id]
	return ok
}

// Resolve is like Lookup but returns an error wrapping
// ErrUnresolvedReference that names id when it is missing.
func (d *Document) Resolve(id ID) (*Entity, error) {
	e, ok := d.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedReference, id)
	}
	return e, nil
}

// Entities returns the entities of the given kind in insertion order.
func (d *Document) Entities(kind Kind) []*Entity {
	var out []*Entity
	for _, id := range d.order {
		if id.Kind() == kind {
			out = append(out, d.entities[id])
		}
	}
	return out
}

// All returns every entity grouped by kind in [EntityKinds] order, and in
// insertion order within a kind.
func (d *Document) All() []*Entity {
	out := make([]*Entity, 0, len(d.order))
	for _, k := range EntityKinds {
		out = append(out, d.Entities(k)...)
	}
	return out
}

// IDs returns every entity ID in insertion order.
func (d *Document) IDs() []ID { return slices.Clone(d.order) }

// Len returns the number of entities.
func (d *Document) Len() int { return len(d.order) }

// Referrers returns the entities that reference id, in insertion order.
func (d *Document) Referrers(id ID) []*Entity {
	var out []*Entity
	for _, oid := range d.order {
		if e := d.entities[oid]; e.HasReference(id) {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks that every reference resolves to an entity in the
// document. The first dangling reference is reported as an error wrapping
// ErrUnresolvedReference with the referencing and missing IDs.
func (d *Document) Validate() error {
	for _, id := range d.order {
		for _, ref := range d.entities[id].refs {
			if _, ok := d.entities[ref]; !ok {
				return fmt.Errorf("%w: %s referenced from %s", ErrUnresolvedReference, ref, id)
			}
		}
	}
	return nil
}

// SortBlockFormats stably sorts every channel format's block formats by
// rtime.
func (d *Document) SortBlockFormats() {
	for _, c := range d.Entities(KindChannelFormat) {
		c.SortBlockFormats()
	}
}

// Copy returns a deep copy of the document. No entity is shared between
// the original and the copy.
func (d *Document) Copy() *Document {
	c := &Document{
		entities: make(map[ID]*Entity, len(d.entities)),
		order:    slices.Clone(d.order),
	}
	for id, e := range d.entities {
		c.entities[id] = e.Copy()
	}
	return c
}
