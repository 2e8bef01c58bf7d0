package errors

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ValidateFrameSize checks a segment duration.
func ValidateFrameSize(d time.Duration) error {
	if d <= 0 {
		return New(ErrCodeInvalidInput, "frame size must be positive, got %s", d)
	}
	return nil
}

// ValidateWindow checks a window start and duration as given to the frame
// service.
func ValidateWindow(start, duration time.Duration) error {
	if start < 0 {
		return New(ErrCodeInvalidInput, "window start must not be negative, got %s", start)
	}
	if duration <= 0 {
		return New(ErrCodeInvalidInput, "window duration must be positive, got %s", duration)
	}
	return nil
}

// ValidateRunID checks that id is a UUID as stamped on archived frames.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "run ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "run ID %q is not a UUID", id)
	}
	return nil
}

// ValidatePrefix validates an output file prefix. Frames are written to
// <prefix>_00001.xml and so on, so the prefix may contain directories but
// must name a file.
//
// Validation rules:
//   - Prefix cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No trailing path separator
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidPath, "output prefix cannot be empty")
	}

	const maxPathLength = 500
	if len(prefix) > maxPathLength {
		return New(ErrCodeInvalidPath, "output prefix too long (max %d characters)", maxPathLength)
	}

	for _, r := range prefix {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output prefix contains invalid characters")
		}
	}

	if strings.HasSuffix(prefix, "/") || strings.HasSuffix(prefix, "\\") {
		return New(ErrCodeInvalidPath, "output prefix must name a file, not a directory")
	}
	return nil
}
