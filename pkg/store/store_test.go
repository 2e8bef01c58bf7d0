package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/sadm/pkg/adm"
	pkgio "github.com/matzehuels/sadm/pkg/io"
)

func frameRecord(t *testing.T, runID string, id uint64) Record {
	t.Helper()
	start := time.Duration(id-1) * time.Second
	f := adm.NewFrame(start, time.Second, adm.FrameTypeFull)
	f.Header.Format.ID = id
	data, err := pkgio.MarshalFrame(f, pkgio.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return Record{RunID: runID, Index: id, Start: start, Duration: time.Second, XML: data}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	run, other := NewRunID(), NewRunID()

	for _, id := range []uint64{3, 1, 2} {
		if err := s.Put(ctx, frameRecord(t, run, id)); err != nil {
			t.Fatalf("Put(%d): %v", id, err)
		}
	}
	if err := s.Put(ctx, frameRecord(t, other, 1)); err != nil {
		t.Fatal(err)
	}
	// Replacing a frame keeps one record per index.
	if err := s.Put(ctx, frameRecord(t, run, 2)); err != nil {
		t.Fatal(err)
	}

	got, err := s.List(ctx, run)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("List = %d records, want 3", len(got))
	}
	for i, r := range got {
		want := uint64(i + 1)
		if r.Index != want || r.RunID != run {
			t.Errorf("record %d = run %s index %d", i, r.RunID, r.Index)
		}
		if r.Start != time.Duration(i)*time.Second || r.Duration != time.Second {
			t.Errorf("record %d window = [%v, +%v)", i, r.Start, r.Duration)
		}
		if len(r.XML) == 0 {
			t.Errorf("record %d has no XML", i)
		}
	}

	if _, err := s.List(ctx, NewRunID()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("List(unknown) err = %v, want ErrRunNotFound", err)
	}
}

func TestDirStore(t *testing.T) {
	s, err := NewDirStore(filepath.Join(t.TempDir(), "archive"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestDirStoreLayout(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	run := NewRunID()
	if err := s.Put(context.Background(), frameRecord(t, run, 12)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(s.Path(), run, "frame_00012.xml")); err != nil {
		t.Errorf("frame file: %v", err)
	}
}

func TestDirStoreConcurrentPut(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	run := NewRunID()
	var wg sync.WaitGroup
	for id := uint64(1); id <= 8; id++ {
		rec := frameRecord(t, run, id)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Put(context.Background(), rec); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := s.List(context.Background(), run)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 8 {
		t.Errorf("List = %d records, want 8", len(got))
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "frames.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestDirStoreRejectsForeignFiles(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	run := NewRunID()
	if err := s.Put(context.Background(), Record{RunID: run, Index: 1, XML: []byte("<audioFormatExtended/>")}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.List(context.Background(), run); !errors.Is(err, pkgio.ErrNoFrame) {
		t.Errorf("List err = %v, want ErrNoFrame", err)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("SADM_TEST_MONGO")
	if uri == "" {
		t.Skip("SADM_TEST_MONGO not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "sadm_test"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}
