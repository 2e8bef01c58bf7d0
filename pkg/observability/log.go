package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements
// all three hook interfaces.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks logging to l, prefixed with "obs".
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l.WithPrefix("obs")}
}

func (h *LogHooks) OnSegmentStart(_ context.Context, items int) {
	h.logger.Debug("segment start", "items", items)
}

func (h *LogHooks) OnFrame(_ context.Context, ev FrameEvent) {
	h.logger.Debug("frame", "id", ev.ID, "start", ev.Start, "duration", ev.Duration,
		"entities", ev.Entities, "blocks", ev.Blocks, "cached", ev.Cached)
}

func (h *LogHooks) OnSegmentComplete(_ context.Context, frames int, elapsed time.Duration, err error) {
	h.logger.Debug("segment complete", "frames", frames, "elapsed", elapsed, "err", err)
}

func (h *LogHooks) OnPush(_ context.Context, frameID uint64, err error) {
	if err != nil {
		h.logger.Debug("push failed", "frame", frameID, "err", err)
	}
}

func (h *LogHooks) OnCombineComplete(_ context.Context, frames, entities int, elapsed time.Duration, err error) {
	h.logger.Debug("combine complete", "frames", frames, "entities", entities, "elapsed", elapsed, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, kind string) {
	h.logger.Debug("cache hit", "kind", kind)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h *LogHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, elapsed time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "elapsed", elapsed)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
