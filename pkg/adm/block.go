package adm

import (
	"maps"
	"slices"
	"time"
)

// Element is an uninterpreted XML child element of a block format
// (position, gain, jumpPosition, ...). Attribute order is preserved.
type Element struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []Element
}

// Attr is a single name/value attribute of an [Element].
type Attr struct {
	Name  string
	Value string
}

// Copy returns a deep copy of el.
func (el Element) Copy() Element {
	c := Element{Name: el.Name, Attrs: slices.Clone(el.Attrs), Text: el.Text}
	if el.Children != nil {
		c.Children = make([]Element, len(el.Children))
		for i, ch := range el.Children {
			c.Children[i] = ch.Copy()
		}
	}
	return c
}

// BlockFormat is one timed metadata sample of a channel format.
// Rtime is relative to the start of the owning object.
type BlockFormat struct {
	ID    ID
	Rtime time.Duration
	// Duration is nil when the block does not carry an explicit duration.
	Duration *time.Duration
	// Attrs holds uninterpreted attributes of the audioBlockFormat element.
	Attrs Attributes
	// Elements holds the type-specific payload.
	Elements []Element
}

// NewBlockFormat creates a block with the given ID and rtime.
func NewBlockFormat(id ID, rtime time.Duration) BlockFormat {
	return BlockFormat{ID: id, Rtime: rtime}
}

// WithDuration returns b with its duration set to d.
func (b BlockFormat) WithDuration(d time.Duration) BlockFormat {
	b.Duration = &d
	return b
}

// HasDuration reports whether the block carries an explicit duration.
func (b BlockFormat) HasDuration() bool { return b.Duration != nil }

// Copy returns a deep copy of b.
func (b BlockFormat) Copy() BlockFormat {
	c := BlockFormat{
		ID:       b.ID,
		Rtime:    b.Rtime,
		Duration: clonePtr(b.Duration),
		Attrs:    maps.Clone(b.Attrs),
	}
	if b.Elements != nil {
		c.Elements = make([]Element, len(b.Elements))
		for i, el := range b.Elements {
			c.Elements[i] = el.Copy()
		}
	}
	return c
}
