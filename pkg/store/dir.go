package store

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/gofrs/flock"

	pkgio "github.com/matzehuels/sadm/pkg/io"
)

// FramePattern is the name of an archived frame file within a run
// directory, formatted with the frame index.
const FramePattern = "frame_%05d.xml"

// lockName is the lock file inside a run directory. Put holds it
// exclusively and List shared, across processes.
const lockName = ".lock"

// DirStore keeps each run in its own directory, one S-ADM XML file per
// frame. Start and duration are read back from the frame headers.
type DirStore struct {
	dir string
}

// NewDirStore creates a store rooted at dir, creating it if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Path returns the root directory.
func (s *DirStore) Path() string { return s.dir }

func (s *DirStore) runDir(runID string) string { return filepath.Join(s.dir, runID) }

// Put writes r.XML to <dir>/<run>/frame_<index>.xml.
func (s *DirStore) Put(ctx context.Context, r Record) error {
	dir := s.runDir(r.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock run %s: %w", r.RunID, err)
	}
	defer lock.Unlock()

	path := filepath.Join(dir, fmt.Sprintf(FramePattern, r.Index))
	if err := os.WriteFile(path, r.XML, 0644); err != nil {
		return fmt.Errorf("write frame file: %w", err)
	}
	return nil
}

// List reads every frame file of a run.
func (s *DirStore) List(ctx context.Context, runID string) ([]Record, error) {
	dir := s.runDir(runID)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	lock := flock.New(filepath.Join(dir, lockName))
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock run %s: %w", runID, err)
	}
	defer lock.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read run dir: %w", err)
	}

	var out []Record
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".xml" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read frame file: %w", err)
		}
		f, err := pkgio.ReadFrame(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		ff := f.Header.Format
		out = append(out, Record{RunID: runID, Index: ff.ID, Start: ff.Start, Duration: ff.Duration, XML: data})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	slices.SortFunc(out, func(a, b Record) int { return cmp.Compare(a.Index, b.Index) })
	return out, nil
}

// Close does nothing for the directory store.
func (s *DirStore) Close() error { return nil }

var _ Store = (*DirStore)(nil)
