package route

import (
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/sadm/pkg/adm"
	"github.com/matzehuels/sadm/pkg/adm/admtest"
)

func TestRunSimpleScene(t *testing.T) {
	b := admtest.Scene(t)

	routes, err := Tracer{}.Run(b.Doc, admtest.Programme)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("routes = %d, want 1", len(routes))
	}
	want := []adm.ID{
		admtest.Programme, admtest.Content, admtest.Object, admtest.Pack,
		admtest.Channel, admtest.UID, admtest.Track, admtest.Stream,
	}
	if got := routes[0].IDs(); !slices.Equal(got, want) {
		t.Errorf("route = %v, want %v", got, want)
	}
	if got := routes[0].Channel(); got != admtest.Channel {
		t.Errorf("Channel() = %s", got)
	}
}

func TestRunNestedObjects(t *testing.T) {
	b := admtest.New(t)
	b.Entity("APR_1001", "")
	b.Entity("ACO_1001", "")
	b.Entity("AO_1001", "outer")
	b.Entity("AO_1002", "inner")
	b.Entity("AP_00031001", "")
	b.Entity("AC_00031001", "")
	b.Ref("APR_1001", "ACO_1001")
	b.Ref("ACO_1001", "AO_1001")
	b.Ref("AO_1001", "AO_1002")
	b.Ref("AO_1002", "AP_00031001")
	b.Ref("AP_00031001", "AC_00031001")

	routes, err := Tracer{}.Run(b.Doc, "APR_1001")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("routes = %d, want 1", len(routes))
	}
	r := routes[0]
	if got, _ := r.FirstOf(adm.KindObject); got != "AO_1001" {
		t.Errorf("FirstOf(object) = %s", got)
	}
	if got, _ := r.LastOf(adm.KindObject); got != "AO_1002" {
		t.Errorf("LastOf(object) = %s", got)
	}
	if got := r.AllOf(adm.KindObject); !slices.Equal(got, []adm.ID{"AO_1001", "AO_1002"}) {
		t.Errorf("AllOf(object) = %v", got)
	}
	if _, ok := r.FirstOf(adm.KindTrackUID); ok {
		t.Error("route without UIDs has a track UID link")
	}
}

func TestRunNestedPacksAndPositionalUIDs(t *testing.T) {
	b := admtest.New(t)
	b.Entity("APR_1001", "")
	b.Entity("ACO_1001", "")
	b.Entity("AO_1001", "")
	b.Entity("AP_00010002", "stereo")
	b.Entity("AP_00011001", "inner")
	b.Entity("AC_00010001", "L")
	b.Entity("AC_00010002", "R")
	b.Entity("ATU_00000001", "")
	b.Entity("ATU_00000002", "")
	b.Ref("APR_1001", "ACO_1001")
	b.Ref("ACO_1001", "AO_1001")
	b.Ref("AO_1001", "AP_00010002")
	b.Ref("AO_1001", "ATU_00000001")
	b.Ref("AO_1001", "ATU_00000002")
	b.Ref("AP_00010002", "AC_00010001")
	b.Ref("AP_00010002", "AP_00011001")
	b.Ref("AP_00011001", "AC_00010002")

	routes, err := Tracer{}.Run(b.Doc, "APR_1001")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(routes))
	}
	tests := []struct {
		channel adm.ID
		uid     adm.ID
		packs   []adm.ID
	}{
		{"AC_00010001", "ATU_00000001", []adm.ID{"AP_00010002"}},
		{"AC_00010002", "ATU_00000002", []adm.ID{"AP_00010002", "AP_00011001"}},
	}
	for i, tt := range tests {
		r := routes[i]
		if got := r.Channel(); got != tt.channel {
			t.Errorf("route %d channel = %s, want %s", i, got, tt.channel)
		}
		if got, _ := r.FirstOf(adm.KindTrackUID); got != tt.uid {
			t.Errorf("route %d uid = %s, want %s", i, got, tt.uid)
		}
		if got := r.AllOf(adm.KindPackFormat); !slices.Equal(got, tt.packs) {
			t.Errorf("route %d packs = %v, want %v", i, got, tt.packs)
		}
	}
}

func TestRunMatchesUIDsByChannel(t *testing.T) {
	b := admtest.New(t)
	b.Entity("APR_1001", "")
	b.Entity("ACO_1001", "")
	b.Entity("AO_1001", "")
	b.Entity("AP_00010002", "")
	b.Entity("AC_00010001", "L")
	b.Entity("AC_00010002", "R")
	b.Entity("ATU_00000001", "")
	b.Entity("ATU_00000002", "")
	b.Ref("APR_1001", "ACO_1001")
	b.Ref("ACO_1001", "AO_1001")
	b.Ref("AO_1001", "AP_00010002")
	// UIDs listed in the opposite order of the pack's channels.
	b.Ref("AO_1001", "ATU_00000001")
	b.Ref("AO_1001", "ATU_00000002")
	b.Ref("AP_00010002", "AC_00010001")
	b.Ref("AP_00010002", "AC_00010002")
	b.Ref("ATU_00000001", "AC_00010002")
	b.Ref("ATU_00000002", "AC_00010001")

	routes, err := Tracer{}.Run(b.Doc, "APR_1001")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := map[adm.ID]adm.ID{
		"AC_00010001": "ATU_00000002",
		"AC_00010002": "ATU_00000001",
	}
	for _, r := range routes {
		uid, _ := r.FirstOf(adm.KindTrackUID)
		if want[r.Channel()] != uid {
			t.Errorf("channel %s carries %s, want %s", r.Channel(), uid, want[r.Channel()])
		}
	}
}

func TestRunPlacesEveryUID(t *testing.T) {
	stereo := func(t *testing.T) *admtest.Builder {
		b := admtest.New(t)
		b.Entity("APR_1001", "")
		b.Entity("ACO_1001", "")
		b.Entity("AO_1001", "")
		b.Entity("AP_00010002", "")
		b.Entity("AC_00010001", "L")
		b.Entity("AC_00010002", "R")
		b.Ref("APR_1001", "ACO_1001")
		b.Ref("ACO_1001", "AO_1001")
		b.Ref("AO_1001", "AP_00010002")
		b.Ref("AP_00010002", "AC_00010001")
		b.Ref("AP_00010002", "AC_00010002")
		return b
	}
	tests := []struct {
		name  string
		setup func(b *admtest.Builder)
		want  map[adm.ID][]adm.ID
	}{
		{
			name: "mixed channel info",
			setup: func(b *admtest.Builder) {
				b.Entity("ATU_00000001", "")
				b.Entity("ATU_00000002", "")
				b.Ref("AO_1001", "ATU_00000001")
				b.Ref("AO_1001", "ATU_00000002")
				b.Ref("ATU_00000001", "AC_00010001")
				b.Ref("ATU_00000002", "AP_00010002")
			},
			want: map[adm.ID][]adm.ID{
				"ATU_00000001": {"AC_00010001"},
				"ATU_00000002": {"AC_00010002"},
			},
		},
		{
			name: "channel info taken first",
			setup: func(b *admtest.Builder) {
				b.Entity("ATU_00000001", "")
				b.Entity("ATU_00000002", "")
				b.Ref("AO_1001", "ATU_00000001")
				b.Ref("AO_1001", "ATU_00000002")
				b.Ref("ATU_00000002", "AC_00010001")
			},
			want: map[adm.ID][]adm.ID{
				"ATU_00000001": {"AC_00010002"},
				"ATU_00000002": {"AC_00010001"},
			},
		},
		{
			name: "more uids than channels",
			setup: func(b *admtest.Builder) {
				for _, id := range []string{"ATU_00000001", "ATU_00000002", "ATU_00000003"} {
					b.Entity(id, "")
					b.Ref("AO_1001", id)
				}
			},
			want: map[adm.ID][]adm.ID{
				"ATU_00000001": {"AC_00010001"},
				"ATU_00000002": {"AC_00010002"},
				"ATU_00000003": {"AC_00010001"},
			},
		},
		{
			name: "two uids name one channel",
			setup: func(b *admtest.Builder) {
				b.Entity("ATU_00000001", "")
				b.Entity("ATU_00000002", "")
				b.Ref("AO_1001", "ATU_00000001")
				b.Ref("AO_1001", "ATU_00000002")
				b.Ref("ATU_00000001", "AC_00010001")
				b.Ref("ATU_00000002", "AC_00010001")
			},
			want: map[adm.ID][]adm.ID{
				"ATU_00000001": {"AC_00010001"},
				"ATU_00000002": {"AC_00010001"},
			},
		},
		{
			name: "fewer uids than channels",
			setup: func(b *admtest.Builder) {
				b.Entity("ATU_00000001", "")
				b.Ref("AO_1001", "ATU_00000001")
			},
			want: map[adm.ID][]adm.ID{
				"ATU_00000001": {"AC_00010001"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := stereo(t)
			tt.setup(b)
			routes, err := Tracer{}.Run(b.Doc, "APR_1001")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			got := make(map[adm.ID][]adm.ID)
			channels := make(map[adm.ID]bool)
			for _, r := range routes {
				channels[r.Channel()] = true
				if uid, ok := r.FirstOf(adm.KindTrackUID); ok {
					got[uid] = append(got[uid], r.Channel())
				}
			}
			for uid, want := range tt.want {
				if !slices.Equal(got[uid], want) {
					t.Errorf("%s on %v, want %v", uid, got[uid], want)
				}
			}
			if len(got) != len(tt.want) {
				t.Errorf("uids on routes = %v, want %d", got, len(tt.want))
			}
			if !channels["AC_00010001"] || !channels["AC_00010002"] {
				t.Errorf("channels traced = %v, want both", channels)
			}
		})
	}
}

func TestRunCycle(t *testing.T) {
	b := admtest.New(t)
	b.Entity("APR_1001", "")
	b.Entity("ACO_1001", "")
	b.Entity("AO_1001", "")
	b.Entity("AO_1002", "")
	b.Ref("APR_1001", "ACO_1001")
	b.Ref("ACO_1001", "AO_1001")
	b.Ref("AO_1001", "AO_1002")
	b.Ref("AO_1002", "AO_1001")

	_, err := Tracer{}.Run(b.Doc, "APR_1001")
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("err = %v, want ErrCycle", err)
	}
}

func TestRunUnresolved(t *testing.T) {
	b := admtest.Scene(t)
	b.Ref(admtest.Pack, "AC_00031002")

	_, err := Tracer{}.Run(b.Doc, admtest.Programme)
	if !errors.Is(err, adm.ErrUnresolvedReference) {
		t.Fatalf("err = %v, want ErrUnresolvedReference", err)
	}
}

func TestRunRejectsNonProgramme(t *testing.T) {
	b := admtest.Scene(t)
	if _, err := (Tracer{}).Run(b.Doc, admtest.Object); !errors.Is(err, adm.ErrInvalidReference) {
		t.Fatalf("err = %v, want ErrInvalidReference", err)
	}
}

func TestTraceDeterministic(t *testing.T) {
	b := admtest.Scene(t)
	first, err := Trace(b.Doc)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Trace(b.Doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("route counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("route %d differs: %s vs %s", i, first[i], second[i])
		}
	}
}
