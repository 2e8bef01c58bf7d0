// Package admtest provides helpers for building ADM documents in tests.
package admtest

import (
	"testing"
	"time"

	"github.com/matzehuels/sadm/pkg/adm"
)

// Builder adds entities and references to a document and fails the test on
// the first error.
type Builder struct {
	tb  testing.TB
	Doc *adm.Document
}

// New returns a builder over an empty document.
func New(tb testing.TB) *Builder {
	tb.Helper()
	return &Builder{tb: tb, Doc: adm.NewDocument()}
}

// Entity creates and adds an entity.
func (b *Builder) Entity(id, name string) *adm.Entity {
	b.tb.Helper()
	pid, err := adm.ParseID(id)
	if err != nil {
		b.tb.Fatalf("parse %s: %v", id, err)
	}
	e, err := adm.NewEntity(pid, name)
	if err != nil {
		b.tb.Fatalf("new entity %s: %v", id, err)
	}
	if err := b.Doc.Add(e); err != nil {
		b.tb.Fatalf("add %s: %v", id, err)
	}
	return e
}

// Ref adds a reference from one entity to another. Both must exist.
func (b *Builder) Ref(from, to string) {
	b.tb.Helper()
	e, ok := b.Doc.Lookup(adm.ID(from))
	if !ok {
		b.tb.Fatalf("ref from unknown entity %s", from)
	}
	if err := e.AddReference(adm.ID(to)); err != nil {
		b.tb.Fatalf("ref %s -> %s: %v", from, to, err)
	}
}

// Block appends a block format to a channel. A negative duration means the
// block carries none.
func (b *Builder) Block(channel string, counter uint32, rtime, duration time.Duration) adm.ID {
	b.tb.Helper()
	e, ok := b.Doc.Lookup(adm.ID(channel))
	if !ok {
		b.tb.Fatalf("block on unknown channel %s", channel)
	}
	bf := adm.NewBlockFormat(adm.BlockFormatID(e.ID(), counter), rtime)
	if duration >= 0 {
		bf = bf.WithDuration(duration)
	}
	if err := e.AddBlockFormat(bf); err != nil {
		b.tb.Fatalf("block %s: %v", bf.ID, err)
	}
	return bf.ID
}

// IDs of the entities created by [Scene].
const (
	Programme = "APR_1001"
	Content   = "ACO_1001"
	Object    = "AO_1001"
	Pack      = "AP_00031001"
	Channel   = "AC_00031001"
	Stream    = "AS_00031001"
	Track     = "AT_00031001_01"
	UID       = "ATU_00000001"
)

// Scene builds a single-object Objects scene:
//
//	APR_1001 -> ACO_1001 -> AO_1001 -> AP_00031001 -> AC_00031001
//	AO_1001 -> ATU_00000001 -> AT_00031001_01 -> AS_00031001 -> AC_00031001
//
// The programme and object carry no timing; set it on the returned builder.
func Scene(tb testing.TB) *Builder {
	tb.Helper()
	b := New(tb)
	b.Entity(Programme, "Programme")
	b.Entity(Content, "Content")
	b.Entity(Object, "Object")
	b.Entity(Pack, "Pack")
	b.Entity(Channel, "Channel")
	b.Entity(Stream, "Stream")
	b.Entity(Track, "Track")
	b.Entity(UID, "")
	b.Ref(Programme, Content)
	b.Ref(Content, Object)
	b.Ref(Object, Pack)
	b.Ref(Object, UID)
	b.Ref(Pack, Channel)
	b.Ref(UID, Track)
	b.Ref(Track, Stream)
	b.Ref(Stream, Channel)
	b.Ref(Stream, Track)
	return b
}

// Get returns the entity with the given ID or fails the test.
func (b *Builder) Get(id string) *adm.Entity {
	b.tb.Helper()
	e, ok := b.Doc.Lookup(adm.ID(id))
	if !ok {
		b.tb.Fatalf("no entity %s", id)
	}
	return e
}

// Seconds converts fractional seconds to a duration.
func Seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }
