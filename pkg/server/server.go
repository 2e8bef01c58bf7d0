// Package server serves S-ADM frames of one document over HTTP.
//
// Routes:
//
//	GET /healthz                          liveness probe
//	GET /document                         the full ADM document
//	GET /frames/{index}                   frame index (from 1) of the fixed grid
//	GET /frames?start=&duration=          a frame for an arbitrary window
//	GET /transport?start=&duration=       the transportTrackFormat of a window
//
// Query durations accept Go duration strings ("1.5s") and ADM timecodes
// ("00:00:01.50000"). Responses are XML. Errors are plain text: invalid
// input gives 400, unknown frames and missing resources 404.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/sadm/pkg/adm"
	"github.com/matzehuels/sadm/pkg/buildinfo"
	errs "github.com/matzehuels/sadm/pkg/errors"
	pkgio "github.com/matzehuels/sadm/pkg/io"
	"github.com/matzehuels/sadm/pkg/observability"
	"github.com/matzehuels/sadm/pkg/pipeline"
)

const contentTypeXML = "application/xml; charset=utf-8"

// Server is the HTTP frame service for one source.
type Server struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger

	// mu guards prepared.Seg, which keeps transport state between frames.
	mu       sync.Mutex
	prepared *pipeline.Prepared
	frames   int // grid size; zero when the document has no length

	router chi.Router
}

// New prepares src for serving. A nil runner serves without a cache.
func New(runner *pipeline.Runner, src *pipeline.Source, opts pipeline.Options) (*Server, error) {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, nil)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = runner.Logger
	}
	p, err := runner.Prepare(src, opts)
	if err != nil {
		return nil, err
	}
	s := &Server{
		runner:   runner,
		opts:     opts,
		logger:   opts.Logger,
		prepared: p,
	}
	if n, err := pipeline.FrameCount(p.Seg, src, opts); err == nil {
		s.frames = n
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving frames", "addr", addr, "frames", s.frames, "frame_size", s.opts.FrameSize)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/document", s.handleDocument)
	r.Get("/frames", s.handleWindow)
	r.Get("/frames/{index}", s.handleIndex)
	r.Get("/transport", s.handleTransport)
	return r
}

// instrument sets the Server header, reports to the HTTP hooks and logs
// each request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		begin := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		w.Header().Set("Server", buildinfo.ServerHeader())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(begin)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, _ *http.Request) {
	data, err := pkgio.MarshalDocument(s.prepared.Seg.Document(), s.opts.XML)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeXML(w, data)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || index == 0 {
		s.fail(w, errs.New(errs.ErrCodeInvalidInput, "frame index must be a positive integer, got %q", raw))
		return
	}
	if s.frames > 0 && index > uint64(s.frames) {
		s.fail(w, errs.New(errs.ErrCodeFrameNotFound, "frame %d is beyond the last frame %d", index, s.frames))
		return
	}
	start := time.Duration(index-1) * s.opts.FrameSize
	s.serveFrame(w, r, index, start, s.opts.FrameSize)
}

// handleWindow serves a frame for any window. Its ID is the window's
// position on a grid of its own duration.
func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	start, duration, err := s.window(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.serveFrame(w, r, uint64(start/duration)+1, start, duration)
}

func (s *Server) serveFrame(w http.ResponseWriter, r *http.Request, id uint64, start, duration time.Duration) {
	opts := s.opts
	opts.FrameSize = duration

	s.mu.Lock()
	f, err := s.runner.Frame(r.Context(), s.prepared, opts, id, start)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, err)
		return
	}
	if f.Cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeXML(w, f.XML)
}

func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	chna := s.prepared.Src.Chna
	if chna == nil {
		s.fail(w, errs.New(errs.ErrCodeNotFound, "source has no chna chunk"))
		return
	}
	start, duration, err := s.window(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	s.mu.Lock()
	ttf, err := s.prepared.Seg.TransportTrackFormat(*chna, start, duration)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, err)
		return
	}
	data, err := pkgio.MarshalTransport(ttf)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeXML(w, data)
}

// window reads start and duration from the query. Both are optional:
// start defaults to zero and duration to the frame size.
func (s *Server) window(r *http.Request) (time.Duration, time.Duration, error) {
	q := r.URL.Query()
	start, err := parseDuration(q.Get("start"), 0)
	if err != nil {
		return 0, 0, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid start: %v", err)
	}
	duration, err := parseDuration(q.Get("duration"), s.opts.FrameSize)
	if err != nil {
		return 0, 0, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid duration: %v", err)
	}
	if err := errs.ValidateWindow(start, duration); err != nil {
		return 0, 0, err
	}
	return start, duration, nil
}

// parseDuration accepts a Go duration string or an ADM timecode.
func parseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	return adm.ParseTimecode(raw)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	err = errs.Classify(err)
	status := statusFor(errs.GetCode(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, errs.UserMessage(err))
}

func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidID, errs.ErrCodeInvalidTimecode,
		errs.ErrCodeInvalidReference, errs.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound, errs.ErrCodeFrameNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeXML(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", contentTypeXML)
	_, _ = w.Write(data)
}
