// Package observability lets a binary watch segmentation runs, frame cache
// traffic and the frame service without the library packages depending on
// a metrics backend.
//
// Library code reports through whatever is registered:
//
//	observability.Pipeline().OnFrame(ctx, observability.FrameEvent{ID: 1})
//
// Until main registers hooks every event is dropped. [LogHooks] writes
// events to a logger at debug level:
//
//	observability.Register(observability.NewLogHooks(logger))
package observability

import (
	"context"
	"sync"
	"time"
)

// FrameEvent describes one frame produced by a segmentation run.
type FrameEvent struct {
	ID       uint64
	Start    time.Duration
	Duration time.Duration
	Entities int
	Blocks   int
	// Cached is true when the serialized frame came from the cache.
	Cached bool
}

// PipelineHooks receives events from segmentation and recombination runs.
type PipelineHooks interface {
	OnSegmentStart(ctx context.Context, items int)
	OnFrame(ctx context.Context, ev FrameEvent)
	OnSegmentComplete(ctx context.Context, frames int, duration time.Duration, err error)

	OnPush(ctx context.Context, frameID uint64, err error)
	OnCombineComplete(ctx context.Context, frames, entities int, duration time.Duration, err error)
}

// CacheHooks receives frame cache lookups and writes. kind names the
// cached value, currently always "frame".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

// HTTPHooks receives requests of the frame service.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, status int, elapsed time.Duration)
}

// NoopPipelineHooks drops pipeline events. Embed it to implement a subset.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnSegmentStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnFrame(context.Context, FrameEvent)                               {}
func (NoopPipelineHooks) OnSegmentComplete(context.Context, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnPush(context.Context, uint64, error)                             {}
func (NoopPipelineHooks) OnCombineComplete(context.Context, int, int, time.Duration, error) {}

// NoopCacheHooks drops cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks drops HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

type registry struct {
	mu       sync.RWMutex
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var reg = registry{
	pipeline: NoopPipelineHooks{},
	cache:    NoopCacheHooks{},
	http:     NoopHTTPHooks{},
}

// Register installs h for every hook interface it implements and reports
// whether it implements any.
func Register(h any) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	found := false
	if p, ok := h.(PipelineHooks); ok {
		reg.pipeline, found = p, true
	}
	if c, ok := h.(CacheHooks); ok {
		reg.cache, found = c, true
	}
	if x, ok := h.(HTTPHooks); ok {
		reg.http, found = x, true
	}
	return found
}

// SetPipelineHooks installs h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h == nil {
		return
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.pipeline = h
}

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.cache = h
}

// SetHTTPHooks installs h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h == nil {
		return
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.http = h
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.pipeline
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.cache
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.http
}

// Reset restores the no-op hooks.
func Reset() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.pipeline = NoopPipelineHooks{}
	reg.cache = NoopCacheHooks{}
	reg.http = NoopHTTPHooks{}
}
