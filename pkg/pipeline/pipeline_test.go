package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sadm/pkg/adm"
	"github.com/matzehuels/sadm/pkg/adm/admtest"
	"github.com/matzehuels/sadm/pkg/bw64"
	"github.com/matzehuels/sadm/pkg/cache"
	errs "github.com/matzehuels/sadm/pkg/errors"
	pkgio "github.com/matzehuels/sadm/pkg/io"
	"github.com/matzehuels/sadm/pkg/observability"
	"github.com/matzehuels/sadm/pkg/segment"
	"github.com/matzehuels/sadm/pkg/store"
)

var quiet = log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel})

// testSource is the single object scene with a 3s programme and one block
// per second.
func testSource(t *testing.T) *Source {
	t.Helper()
	b := admtest.Scene(t)
	b.Get(admtest.Programme).SetEnd(3 * time.Second)
	b.Block(admtest.Channel, 1, 0, time.Second)
	b.Block(admtest.Channel, 2, time.Second, time.Second)
	b.Block(admtest.Channel, 3, 2*time.Second, time.Second)
	return &Source{Doc: b.Doc}
}

func collect(frames *[]Frame) Emit {
	return func(_ context.Context, f Frame) error {
		*frames = append(*frames, f)
		return nil
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.FrameSize != DefaultFrameSize || o.FrameType != adm.FrameTypeFull {
		t.Errorf("defaults = %+v", o)
	}

	tests := []Options{
		{FrameSize: -time.Second},
		{MaxFrames: -1},
		{FrameType: "partial"},
	}
	for _, tt := range tests {
		if err := tt.ValidateAndSetDefaults(); !errs.Is(err, errs.ErrCodeInvalidInput) {
			t.Errorf("%+v: err = %v, want INVALID_INPUT", tt, err)
		}
	}
}

func TestSegmentCombineRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, quiet)

	var frames []Frame
	res, err := r.Segment(ctx, testSource(t), Options{}, collect(&frames))
	if err != nil {
		t.Fatal(err)
	}
	if res.Frames != 3 || len(frames) != 3 || res.Items != 1 {
		t.Fatalf("result = %+v, frames = %d", res, len(frames))
	}
	for i, f := range frames {
		if f.ID != uint64(i+1) || f.Start != time.Duration(i)*time.Second || f.Cached {
			t.Errorf("frame %d = id %d start %v cached %v", i, f.ID, f.Start, f.Cached)
		}
	}

	combined, err := r.Combine(ctx, slicesSeq(frames))
	if err != nil {
		t.Fatal(err)
	}
	if combined.Frames != 3 {
		t.Errorf("combined frames = %d", combined.Frames)
	}
	ch, ok := combined.Document.Lookup(admtest.Channel)
	if !ok {
		t.Fatal("channel missing from combined document")
	}
	if n := len(ch.BlockFormats()); n != 3 {
		t.Errorf("combined blocks = %d, want 3", n)
	}
}

func slicesSeq(frames []Frame) func(func(Input, error) bool) {
	return func(yield func(Input, error) bool) {
		for _, f := range frames {
			if !yield(Input{Name: "mem", Data: f.XML}, nil) {
				return
			}
		}
	}
}

func TestSegmentCache(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quiet)

	var first, second, refreshed []Frame
	if _, err := r.Segment(ctx, testSource(t), Options{}, collect(&first)); err != nil {
		t.Fatal(err)
	}
	res, err := r.Segment(ctx, testSource(t), Options{}, collect(&second))
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHits != 3 {
		t.Errorf("cache hits = %d, want 3", res.CacheHits)
	}
	for i := range first {
		if !bytes.Equal(first[i].XML, second[i].XML) || !second[i].Cached {
			t.Errorf("frame %d differs from cache", i+1)
		}
	}

	res, err = r.Segment(ctx, testSource(t), Options{Refresh: true}, collect(&refreshed))
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHits != 0 {
		t.Errorf("refresh cache hits = %d", res.CacheHits)
	}

	// A different frame size must not reuse cached frames.
	var half []Frame
	res, err = r.Segment(ctx, testSource(t), Options{FrameSize: 500 * time.Millisecond}, collect(&half))
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHits != 0 || res.Frames != 6 {
		t.Errorf("half-second run = %+v", res)
	}
}

func TestFrameCount(t *testing.T) {
	open := admtest.Scene(t).Doc
	ended := testSource(t).Doc
	tests := []struct {
		name     string
		doc      *adm.Document
		duration time.Duration
		opts     Options
		want     int
		wantErr  bool
	}{
		{"programme end", ended, 0, Options{FrameSize: time.Second}, 3, false},
		{"partial last frame", ended, 0, Options{FrameSize: 2 * time.Second}, 2, false},
		{"capped", ended, 0, Options{FrameSize: time.Second, MaxFrames: 2}, 2, false},
		{"audio length", open, 4500 * time.Millisecond, Options{FrameSize: time.Second}, 5, false},
		{"max frames only", open, 0, Options{FrameSize: time.Second, MaxFrames: 7}, 7, false},
		{"unbounded", open, 0, Options{FrameSize: time.Second}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := segment.New(tt.doc)
			if err != nil {
				t.Fatal(err)
			}
			got, err := FrameCount(seg, &Source{Doc: tt.doc, Duration: tt.duration}, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FrameCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSegmentStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(nil, nil, quiet)
	n := 0
	_, err := r.Segment(ctx, testSource(t), Options{}, func(context.Context, Frame) error {
		n++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if n != 1 {
		t.Errorf("emitted %d frames after cancel", n)
	}
}

func TestSegmentEmitError(t *testing.T) {
	boom := errors.New("disk full")
	r := NewRunner(nil, nil, quiet)
	_, err := r.Segment(context.Background(), testSource(t), Options{}, func(context.Context, Frame) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestSegmentTransport(t *testing.T) {
	src := testSource(t)
	src.Chna = &bw64.ChnaTable{IDs: []bw64.AudioID{{TrackIndex: 1, UID: admtest.UID, TrackRef: admtest.Track, PackRef: admtest.Pack}}}

	var frames []Frame
	r := NewRunner(nil, nil, quiet)
	if _, err := r.Segment(context.Background(), src, Options{Transport: true, MaxFrames: 1}, collect(&frames)); err != nil {
		t.Fatal(err)
	}
	f, err := pkgio.ReadFrame(bytes.NewReader(frames[0].XML))
	if err != nil {
		t.Fatal(err)
	}
	ttf := f.Header.Transport
	if ttf == nil || ttf.ID != 1 || ttf.NumIDs() != 1 || ttf.Tracks[0].UIDs[0] != admtest.UID {
		t.Errorf("transport = %+v", ttf)
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	frames int
	pushes int
}

func (h *countingHooks) OnFrame(context.Context, observability.FrameEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames++
}

func (h *countingHooks) OnPush(context.Context, uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushes++
}

func TestHooks(t *testing.T) {
	h := &countingHooks{}
	observability.SetPipelineHooks(h)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	r := NewRunner(nil, nil, quiet)
	var frames []Frame
	if _, err := r.Segment(ctx, testSource(t), Options{}, collect(&frames)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Combine(ctx, slicesSeq(frames)); err != nil {
		t.Fatal(err)
	}
	if h.frames != 3 || h.pushes != 3 {
		t.Errorf("hooks saw %d frames, %d pushes", h.frames, h.pushes)
	}
}

func TestCombineFilesAndRecords(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, quiet)
	var frames []Frame
	if _, err := r.Segment(ctx, testSource(t), Options{}, collect(&frames)); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	var paths []string
	var recs []store.Record
	for _, f := range frames {
		p := filepath.Join(dir, fmt.Sprintf("frame_%05d.xml", f.ID))
		if err := os.WriteFile(p, f.XML, 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
		recs = append(recs, store.Record{RunID: "run", Index: f.ID, XML: f.XML})
	}

	fromFiles, err := r.Combine(ctx, Files(paths))
	if err != nil {
		t.Fatal(err)
	}
	fromRecords, err := r.Combine(ctx, Records(recs))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := pkgio.MarshalDocument(fromFiles.Document, pkgio.Options{})
	b, _ := pkgio.MarshalDocument(fromRecords.Document, pkgio.Options{})
	if !bytes.Equal(a, b) {
		t.Error("file and record inputs combined differently")
	}

	_, err = r.Combine(ctx, Files([]string{filepath.Join(dir, "missing.xml")}))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
	_, err = r.Combine(ctx, Records([]store.Record{{RunID: "run", Index: 1, XML: []byte("<audioFormatExtended/>")}}))
	if !errors.Is(err, pkgio.ErrNoFrame) {
		t.Errorf("non-frame input err = %v", err)
	}
}

func TestLoad(t *testing.T) {
	doc := testSource(t).Doc
	axml, err := pkgio.MarshalDocument(doc, pkgio.Options{})
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	xmlPath := filepath.Join(dir, "scene.xml")
	if err := os.WriteFile(xmlPath, axml, 0644); err != nil {
		t.Fatal(err)
	}
	src, err := Load(xmlPath)
	if err != nil {
		t.Fatal(err)
	}
	if src.Doc.Len() != doc.Len() || src.Chna != nil || src.Duration != 0 {
		t.Errorf("xml source = %+v", src)
	}

	table := bw64.ChnaTable{IDs: []bw64.AudioID{{TrackIndex: 1, UID: admtest.UID, TrackRef: admtest.Track, PackRef: admtest.Pack}}}
	chna, _ := table.MarshalBinary()
	format := bw64.Format{FormatTag: 1, Channels: 1, SampleRate: 48000, ByteRate: 96000, BlockAlign: 2, BitsPerSample: 16}
	var buf bytes.Buffer
	err = bw64.Write(&buf,
		bw64.FormatChunk(format),
		bw64.Chunk{ID: "chna", Data: chna},
		bw64.Chunk{ID: "axml", Data: axml},
		bw64.Chunk{ID: "data", Data: make([]byte, 48000*2*3)},
	)
	if err != nil {
		t.Fatal(err)
	}
	wavPath := filepath.Join(dir, "scene.wav")
	if err := os.WriteFile(wavPath, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	src, err = Load(wavPath)
	if err != nil {
		t.Fatal(err)
	}
	if src.Chna == nil || src.Chna.NumUIDs() != 1 {
		t.Errorf("chna = %+v", src.Chna)
	}
	if src.Duration != 3*time.Second {
		t.Errorf("duration = %v", src.Duration)
	}
	if src.Path != wavPath {
		t.Errorf("path = %q", src.Path)
	}

	if _, err := Load(filepath.Join(dir, "missing.xml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestRender(t *testing.T) {
	doc := testSource(t).Doc
	out, err := Render(context.Background(), doc, RenderOptions{Formats: []string{FormatXML, FormatDOT}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out[FormatXML], []byte("<audioFormatExtended")) {
		t.Error("xml output lacks audioFormatExtended")
	}
	if !bytes.HasPrefix(out[FormatDOT], []byte("digraph ADM {")) {
		t.Error("dot output lacks graph header")
	}
	if _, err := Render(context.Background(), doc, RenderOptions{Formats: []string{"png"}}); err == nil {
		t.Error("png accepted")
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"xml", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"SVG", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}
