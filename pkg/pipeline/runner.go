package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sadm/pkg/adm"
	"github.com/matzehuels/sadm/pkg/cache"
	"github.com/matzehuels/sadm/pkg/combine"
	errs "github.com/matzehuels/sadm/pkg/errors"
	pkgio "github.com/matzehuels/sadm/pkg/io"
	"github.com/matzehuels/sadm/pkg/observability"
	"github.com/matzehuels/sadm/pkg/segment"
	"github.com/matzehuels/sadm/pkg/store"
)

// Runner executes runs with caching. It holds no run state, so one Runner
// may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long frames stay cached.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLFrame,
	}
}

// Emit receives the frames of a run in order. Returning an error stops the
// run with that error.
type Emit func(ctx context.Context, f Frame) error

// Segment cuts src into frames of opts.FrameSize starting at zero and
// passes each serialized frame to emit. Frame IDs run from 1.
//
// Without MaxFrames the run covers the longest programme; a document with
// no programme end falls back to the audio length of BW64 input and fails
// with INVALID_INPUT if there is none. The context is checked between
// frames.
func (r *Runner) Segment(ctx context.Context, src *Source, opts Options, emit Emit) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	hooks := observability.Pipeline()
	begin := time.Now()

	res, err := r.segment(ctx, src, opts, emit)
	frames := 0
	if res != nil {
		frames = res.Frames
		res.Elapsed = time.Since(begin)
	}
	hooks.OnSegmentComplete(ctx, frames, time.Since(begin), err)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("segmented document",
		"frames", res.Frames,
		"cached", res.CacheHits,
		"duration", res.Elapsed)
	return res, nil
}

func (r *Runner) segment(ctx context.Context, src *Source, opts Options, emit Emit) (*Result, error) {
	p, err := r.Prepare(src, opts)
	if err != nil {
		return nil, err
	}
	observability.Pipeline().OnSegmentStart(ctx, len(p.Seg.Items()))

	n, err := FrameCount(p.Seg, src, opts)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("prepared segmenter",
		"items", len(p.Seg.Items()),
		"frames", n,
		"frame_size", opts.FrameSize,
		"document", p.DocumentHash[:12])

	res := &Result{DocumentHash: p.DocumentHash, Items: len(p.Seg.Items())}
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := uint64(i)
		f, err := r.Frame(ctx, p, opts, id, time.Duration(i-1)*opts.FrameSize)
		if err != nil {
			return nil, err
		}
		if f.Cached {
			res.CacheHits++
		}
		if err := emit(ctx, f); err != nil {
			return nil, fmt.Errorf("frame %d: %w", id, err)
		}
		res.Frames++
	}
	return res, nil
}

// Prepared is a source ready for frame extraction. Its Segmenter is not
// safe for concurrent use.
type Prepared struct {
	Seg          *segment.Segmenter
	Src          *Source
	DocumentHash string

	// TransportHash identifies the chna table; empty when frames carry no
	// transport descriptor.
	TransportHash string
}

// Prepare builds the segmenter and content hashes for src. opts must have
// been validated.
func (r *Runner) Prepare(src *Source, opts Options) (*Prepared, error) {
	seg, err := segment.New(src.Doc, segment.WithFrameType(opts.FrameType))
	if err != nil {
		return nil, err
	}
	docHash, err := DocumentHash(seg.Document())
	if err != nil {
		return nil, err
	}
	p := &Prepared{Seg: seg, Src: src, DocumentHash: docHash}
	if opts.Transport && src.Chna != nil {
		data, err := src.Chna.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("hash chna: %w", err)
		}
		p.TransportHash = cache.ContentHash(data)
	}
	return p, nil
}

// Frame returns frame id covering [start, start+opts.FrameSize), from the
// cache when possible.
func (r *Runner) Frame(ctx context.Context, p *Prepared, opts Options, id uint64, start time.Duration) (Frame, error) {
	r.applyLogger(&opts)
	key := r.Keyer.FrameKey(p.DocumentHash, cache.FrameKeyOpts{
		ID:            id,
		Start:         start,
		Duration:      opts.FrameSize,
		FrameType:     opts.FrameType,
		Transport:     p.TransportHash,
		ITUStructure:  opts.XML.ITUStructure,
		DefaultValues: opts.XML.WriteDefaultValues,
	})
	out := Frame{ID: id, Start: start, Duration: opts.FrameSize}
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			cacheHooks.OnCacheHit(ctx, "frame")
			out.XML, out.Cached = data, true
			observability.Pipeline().OnFrame(ctx, observability.FrameEvent{ID: id, Start: start, Duration: opts.FrameSize, Cached: true})
			return out, nil
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "frame", id, "err", err)
		}
		cacheHooks.OnCacheMiss(ctx, "frame")
	}

	seg := p.Seg
	if p.TransportHash != "" {
		ttf, err := seg.TransportTrackFormat(*p.Src.Chna, start, opts.FrameSize)
		if err != nil {
			return out, err
		}
		seg.SetTransportTrackFormat(ttf)
	}
	f, err := seg.FrameAt(id, start, opts.FrameSize)
	if err != nil {
		return out, err
	}
	data, err := pkgio.MarshalFrame(f, opts.XML)
	if err != nil {
		return out, fmt.Errorf("frame %d: %w", id, err)
	}
	out.XML = data

	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		opts.Logger.Warn("cache write failed", "frame", id, "err", err)
	} else {
		cacheHooks.OnCacheSet(ctx, "frame", len(data))
	}

	blocks := 0
	for _, ch := range f.Entities(adm.KindChannelFormat) {
		blocks += len(ch.BlockFormats())
	}
	observability.Pipeline().OnFrame(ctx, observability.FrameEvent{
		ID:       id,
		Start:    start,
		Duration: opts.FrameSize,
		Entities: f.Len(),
		Blocks:   blocks,
	})
	opts.Logger.Debug("built frame", "id", id, "start", start, "entities", f.Len(), "blocks", blocks)
	return out, nil
}

// FrameCount returns how many frames a run over src produces.
func FrameCount(seg *segment.Segmenter, src *Source, opts Options) (int, error) {
	length, ok := seg.Length()
	if !ok && src.Duration > 0 {
		length, ok = src.Duration, true
	}
	if !ok {
		if opts.MaxFrames > 0 {
			return opts.MaxFrames, nil
		}
		return 0, errs.New(errs.ErrCodeInvalidInput, "document has no programme end and no audio length; set a frame count")
	}
	n := int((length + opts.FrameSize - 1) / opts.FrameSize)
	if opts.MaxFrames > 0 {
		n = min(n, opts.MaxFrames)
	}
	return n, nil
}

// DocumentHash returns the content hash of doc's canonical XML form.
func DocumentHash(doc *adm.Document) (string, error) {
	data, err := pkgio.MarshalDocument(doc, pkgio.Options{})
	if err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}
	return cache.ContentHash(data), nil
}

// Input is one serialized frame to recombine.
type Input struct {
	// Name identifies the frame in error messages, e.g. its file name.
	Name string
	Data []byte
}

// Combine parses frames in order and merges them into one document. It
// stops at the first input or merge error.
func (r *Runner) Combine(ctx context.Context, inputs iter.Seq2[Input, error]) (*Combined, error) {
	hooks := observability.Pipeline()
	begin := time.Now()
	c := combine.New()

	err := func() error {
		for in, err := range inputs {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := pkgio.ReadFrame(bytes.NewReader(in.Data))
			if err != nil {
				return fmt.Errorf("%s: %w", in.Name, err)
			}
			err = c.Push(f)
			hooks.OnPush(ctx, f.Header.Format.ID, err)
			if err != nil {
				return fmt.Errorf("%s: %w", in.Name, err)
			}
			r.Logger.Debug("merged frame", "name", in.Name, "id", f.Header.Format.ID, "entities", f.Len())
		}
		return nil
	}()
	doc := c.Document()
	hooks.OnCombineComplete(ctx, c.Frames(), doc.Len(), time.Since(begin), err)
	if err != nil {
		return nil, err
	}

	out := &Combined{
		Document:  doc,
		Transport: c.TransportTrackFormat(),
		Frames:    c.Frames(),
		Elapsed:   time.Since(begin),
	}
	r.Logger.Info("combined frames",
		"frames", out.Frames,
		"entities", doc.Len(),
		"duration", out.Elapsed)
	return out, nil
}

// Files yields the contents of paths in order.
func Files(paths []string) iter.Seq2[Input, error] {
	return func(yield func(Input, error) bool) {
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				yield(Input{Name: p}, fmt.Errorf("read %s: %w", p, err))
				return
			}
			if !yield(Input{Name: p, Data: data}, nil) {
				return
			}
		}
	}
}

// Records yields archived frames in order.
func Records(recs []store.Record) iter.Seq2[Input, error] {
	return func(yield func(Input, error) bool) {
		for _, rec := range recs {
			name := fmt.Sprintf("%s/%d", rec.RunID, rec.Index)
			if !yield(Input{Name: name, Data: rec.XML}, nil) {
				return
			}
		}
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
