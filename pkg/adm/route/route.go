package route

import (
	"slices"
	"strings"

	"github.com/matzehuels/sadm/pkg/adm"
)

// Link is one element of a route: an entity ID tagged with its kind.
type Link struct {
	Kind adm.Kind
	ID   adm.ID
}

// Route is an immutable chain of entity IDs from a programme down to a
// channel format, optionally followed by the track UID that carries it and
// that UID's track and stream formats.
//
// Routes only hold IDs. Resolve them through the document they were traced
// from.
type Route struct {
	links []Link
}

// New builds a route from the given IDs. The kind of each link is derived
// from its ID.
func New(ids ...adm.ID) Route {
	links := make([]Link, len(ids))
	for i, id := range ids {
		links[i] = Link{Kind: id.Kind(), ID: id}
	}
	return Route{links: links}
}

// Links returns a copy of the route's links in chain order.
func (r Route) Links() []Link { return slices.Clone(r.links) }

// Len returns the number of links.
func (r Route) Len() int { return len(r.links) }

// IDs returns every ID along the route in chain order.
func (r Route) IDs() []adm.ID {
	out := make([]adm.ID, len(r.links))
	for i, l := range r.links {
		out[i] = l.ID
	}
	return out
}

// FirstOf returns the first ID of the given kind along the route.
func (r Route) FirstOf(kind adm.Kind) (adm.ID, bool) {
	for _, l := range r.links {
		if l.Kind == kind {
			return l.ID, true
		}
	}
	return "", false
}

// LastOf returns the last ID of the given kind along the route. For nested
// objects this is the terminal object.
func (r Route) LastOf(kind adm.Kind) (adm.ID, bool) {
	for i := len(r.links) - 1; i >= 0; i-- {
		if r.links[i].Kind == kind {
			return r.links[i].ID, true
		}
	}
	return "", false
}

// AllOf returns every ID of the given kind along the route in chain order.
func (r Route) AllOf(kind adm.Kind) []adm.ID {
	var out []adm.ID
	for _, l := range r.links {
		if l.Kind == kind {
			out = append(out, l.ID)
		}
	}
	return out
}

// Contains reports whether id is on the route.
func (r Route) Contains(id adm.ID) bool {
	return slices.ContainsFunc(r.links, func(l Link) bool { return l.ID == id })
}

// Programme returns the route's programme.
func (r Route) Programme() adm.ID {
	id, _ := r.FirstOf(adm.KindProgramme)
	return id
}

// Channel returns the route's channel format.
func (r Route) Channel() adm.ID {
	id, _ := r.LastOf(adm.KindChannelFormat)
	return id
}

// Equal reports whether both routes hold the same chain.
func (r Route) Equal(o Route) bool { return slices.Equal(r.links, o.links) }

// String joins the IDs with " -> ".
func (r Route) String() string {
	parts := make([]string, len(r.links))
	for i, l := range r.links {
		parts[i] = string(l.ID)
	}
	return strings.Join(parts, " -> ")
}
