// Package cli implements the sadm command-line interface.
//
// Commands work on ADM XML or BW64 files carrying an axml chunk:
//   - segment: cut a document into S-ADM frames
//   - combine: merge frame files or an archived run back into one document
//   - trace: list the routes from programmes to channel formats
//   - inspect: show the blocks each channel contributes to a window
//   - render: draw the entity graph as DOT or SVG
//   - serve: serve frames over HTTP
//   - cache: manage the frame cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Logs go to
// stderr so frame XML can be piped from stdout.
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/sadm/config.toml (see package config);
// flags override them.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Wrote 12 frames (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
