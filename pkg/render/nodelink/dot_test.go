package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/sadm/pkg/adm"
	"github.com/matzehuels/sadm/pkg/adm/admtest"
)

func TestToDOT(t *testing.T) {
	b := admtest.Scene(t)
	b.Get(admtest.Object).SetStart(2 * time.Second)
	b.Block(admtest.Channel, 1, 0, time.Second)

	dot := ToDOT(b.Doc, Options{})
	for _, want := range []string{
		`digraph ADM {`,
		`"APR_1001" [label="APR_1001\nProgramme"`,
		`"APR_1001" -> "ACO_1001";`,
		`"AO_1001" -> "ATU_00000001";`,
		`"AS_00031001" -> "AC_00031001";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "start:") {
		t.Error("plain labels carry details")
	}
	if strings.Count(dot, " -> ") != 9 {
		t.Errorf("edges = %d, want 9", strings.Count(dot, " -> "))
	}
}

func TestToDOTDetailed(t *testing.T) {
	b := admtest.Scene(t)
	b.Get(admtest.Object).SetStart(2 * time.Second)
	b.Get(admtest.Channel).TypeDefinition = adm.TypeObjects
	b.Block(admtest.Channel, 1, 0, time.Second)

	dot := ToDOT(b.Doc, Options{Detailed: true, Title: "frame 1"})
	for _, want := range []string{
		`start: 00:00:02.000000000`,
		`type: Objects`,
		`blocks: 1`,
		`label="frame 1";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	dot := ToDOT(admtest.Scene(t).Doc, Options{})
	svg, err := RenderSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.Contains(got, `width="100" height="50"`) {
		t.Errorf("normalizeViewBox = %s", got)
	}
	if plain := []byte("<svg/>"); !bytes.Equal(normalizeViewBox(plain), plain) {
		t.Error("svg without viewBox changed")
	}
}
