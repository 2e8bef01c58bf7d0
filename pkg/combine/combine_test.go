package combine

import (
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/sadm/pkg/adm"
	"github.com/matzehuels/sadm/pkg/adm/admtest"
	"github.com/matzehuels/sadm/pkg/segment"
)

var sec = admtest.Seconds

func roundTrip(t *testing.T, doc *adm.Document, frames int) *Combiner {
	t.Helper()
	s, err := segment.New(doc)
	if err != nil {
		t.Fatalf("segment.New: %v", err)
	}
	c := New()
	for i := 0; i < frames; i++ {
		f, err := s.Frame(time.Duration(i)*time.Second, time.Second)
		if err != nil {
			t.Fatalf("Frame(%d): %v", i, err)
		}
		if err := c.Push(f); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	b := admtest.Scene(t)
	b.Get(admtest.Object).SetStart(10 * time.Second)
	var want []adm.ID
	for i, rt := range []float64{0.5, 1.25, 2.0, 2.5, 3.0} {
		want = append(want, b.Block(admtest.Channel, uint32(i+1), sec(rt), -1))
	}

	c := roundTrip(t, b.Doc, 30)
	doc := c.Document()

	for _, k := range adm.EntityKinds {
		if n := len(doc.Entities(k)); n != 1 {
			t.Errorf("%v: %d copies, want 1", k, n)
		}
	}
	ch, ok := doc.Lookup(admtest.Channel)
	if !ok {
		t.Fatal("channel missing")
	}
	var got []adm.ID
	for _, bf := range ch.BlockFormats() {
		got = append(got, bf.ID)
	}
	if !slices.Equal(got, want) {
		t.Errorf("blocks = %v, want %v", got, want)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("combined document: %v", err)
	}

	prog, _ := doc.Lookup(admtest.Programme)
	if refs := prog.References(adm.KindContent); len(refs) != 1 {
		t.Errorf("programme content refs = %v", refs)
	}
	uid, _ := doc.Lookup(admtest.UID)
	if _, ok := uid.Reference(adm.KindTrackFormat); !ok {
		t.Error("track UID lost its track format")
	}
	src, _ := b.Doc.Lookup(admtest.Programme)
	if src == prog {
		t.Error("combined document aliases the source")
	}
	if c.Frames() != 30 {
		t.Errorf("Frames = %d", c.Frames())
	}
}

func TestRoundTripRtimeZero(t *testing.T) {
	b := admtest.Scene(t)
	b.Block(admtest.Channel, 1, 0, sec(1.25))
	b.Block(admtest.Channel, 2, sec(1.25), -1)

	c := roundTrip(t, b.Doc, 30)
	ch, _ := c.Document().Lookup(admtest.Channel)
	if n := len(ch.BlockFormats()); n != 2 {
		t.Errorf("blocks = %d, want 2", n)
	}
}

func TestRoundTripKeepsPartlyMatchedUIDs(t *testing.T) {
	b := admtest.New(t)
	for _, id := range []string{"APR_1001", "ACO_1001", "AO_1001", "AP_00010002",
		"AC_00010001", "AC_00010002", "ATU_00000001", "ATU_00000002"} {
		b.Entity(id, "")
	}
	b.Ref("APR_1001", "ACO_1001")
	b.Ref("ACO_1001", "AO_1001")
	b.Ref("AO_1001", "AP_00010002")
	b.Ref("AO_1001", "ATU_00000001")
	b.Ref("AO_1001", "ATU_00000002")
	b.Ref("AP_00010002", "AC_00010001")
	b.Ref("AP_00010002", "AC_00010002")
	b.Ref("ATU_00000001", "AC_00010001")
	b.Ref("ATU_00000002", "AP_00010002")
	b.Block("AC_00010001", 1, 0, sec(3))
	b.Block("AC_00010002", 1, 0, sec(3))

	doc := roundTrip(t, b.Doc, 3).Document()
	for _, id := range []adm.ID{"ATU_00000001", "ATU_00000002"} {
		if _, ok := doc.Lookup(id); !ok {
			t.Errorf("combined document lacks %s", id)
		}
	}
	if n := len(doc.Entities(adm.KindTrackUID)); n != 2 {
		t.Errorf("track UIDs = %d, want 2", n)
	}
}

func frameWithTransport(t *testing.T, id uint16, tracks ...adm.AudioTrack) *adm.Frame {
	t.Helper()
	f := adm.NewFrame(0, time.Second, adm.FrameTypeFull)
	ttf := &adm.TransportTrackFormat{ID: id, Name: "file"}
	for _, tr := range tracks {
		ttf.AddTrack(tr)
	}
	f.Header.Transport = ttf
	return f
}

func TestTransportCounts(t *testing.T) {
	f := frameWithTransport(t, 1,
		adm.AudioTrack{TrackID: 0, UIDs: []adm.ID{"ATU_00000001", "ATU_00000002"}},
		adm.AudioTrack{TrackID: 1, UIDs: []adm.ID{"ATU_00000003"}},
		adm.AudioTrack{TrackID: 2, UIDs: []adm.ID{"ATU_00000004"}},
	)
	c := New()
	for i := 0; i < 2; i++ {
		if err := c.Push(f); err != nil {
			t.Fatal(err)
		}
	}
	ttf := c.TransportTrackFormat()
	if ttf.NumTracks() != 3 || ttf.NumIDs() != 4 {
		t.Errorf("tracks = %d, ids = %d; want 3, 4", ttf.NumTracks(), ttf.NumIDs())
	}
	if New().TransportTrackFormat() != nil {
		t.Error("empty combiner has a transport descriptor")
	}
}

func TestTransportMismatchIsAtomic(t *testing.T) {
	b := admtest.Scene(t)
	b.Block(admtest.Channel, 1, 0, -1)
	s, err := segment.New(b.Doc)
	if err != nil {
		t.Fatal(err)
	}

	c := New()
	s.SetTransportTrackFormat(&adm.TransportTrackFormat{ID: 1})
	first, _ := s.Frame(0, time.Second)
	if err := c.Push(first); err != nil {
		t.Fatal(err)
	}
	before := c.Document().Copy()
	beforeTTF := c.TransportTrackFormat()

	b2 := admtest.New(t)
	b2.Entity("AO_1002", "")
	b2.Entity("AC_00031002", "")
	b2.Block("AC_00031002", 1, 0, -1)
	second := adm.NewFrame(time.Second, time.Second, adm.FrameTypeFull)
	second.Document = b2.Doc
	second.Header.Transport = &adm.TransportTrackFormat{ID: 2}
	second.Header.Transport.AddTrack(adm.AudioTrack{TrackID: 1, UIDs: []adm.ID{"ATU_00000009"}})

	err = c.Push(second)
	if !errors.Is(err, ErrTransportMismatch) {
		t.Fatalf("err = %v, want ErrTransportMismatch", err)
	}
	if !reflect.DeepEqual(before, c.Document()) {
		t.Error("rejected push changed the combined document")
	}
	if !reflect.DeepEqual(beforeTTF, c.TransportTrackFormat()) {
		t.Error("rejected push changed the transport descriptor")
	}
	if c.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", c.Frames())
	}
}

func TestPushKeepsExistingReferences(t *testing.T) {
	c := New()
	b1 := admtest.New(t)
	b1.Entity("AO_1001", "")
	b1.Entity("AP_00031001", "")
	b1.Ref("AO_1001", "AP_00031001")
	f1 := adm.NewFrame(0, time.Second, adm.FrameTypeFull)
	f1.Document = b1.Doc

	b2 := admtest.New(t)
	b2.Entity("AO_1001", "renamed")
	b2.Entity("AP_00031002", "")
	b2.Ref("AO_1001", "AP_00031002")
	f2 := adm.NewFrame(time.Second, time.Second, adm.FrameTypeFull)
	f2.Document = b2.Doc

	for _, f := range []*adm.Frame{f1, f2} {
		if err := c.Push(f); err != nil {
			t.Fatal(err)
		}
	}
	obj, _ := c.Document().Lookup("AO_1001")
	if obj.Name != "" {
		t.Errorf("existing entity overwritten: name %q", obj.Name)
	}
	if got := obj.References(adm.KindPackFormat); !slices.Equal(got, []adm.ID{"AP_00031001"}) {
		t.Errorf("references = %v", got)
	}
	if !c.Document().Has("AP_00031002") {
		t.Error("new entity not added")
	}
	if err := c.Push(nil); !errors.Is(err, ErrNilFrame) {
		t.Errorf("err = %v, want ErrNilFrame", err)
	}
}
