package adm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	timecodeCommon         = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})\.(\d{1,9})$`)
	timecodeFrames         = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}):(\d{2})$`)
	timecodeFraction       = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})\.(\d{1,6})S(\d{1,6})$`)
	timecodeSimpleFraction = regexp.MustCompile(`^(\d{1,11})S(\d{1,6})$`)
)

// ParseTimecode parses an ADM time expression into a duration.
//
// Supported forms:
//
//	hh:mm:ss.fffffffff   up to nine fractional digits
//	hh:mm:ss.nnnnnnSddddd  fractional part as numerator "S" denominator
//	nnnnnnSddddd         plain fraction of seconds
//
// Frame based timecodes (hh:mm:ss:ff) fail with ErrUnsupportedTimecode.
// Anything else fails with ErrInvalidTimecode naming the input.
func ParseTimecode(s string) (time.Duration, error) {
	if m := timecodeCommon.FindStringSubmatch(s); m != nil {
		base := hms(m[1], m[2], m[3])
		frac := m[4] + strings.Repeat("0", 9-len(m[4]))
		ns, _ := strconv.ParseInt(frac, 10, 64)
		return base + time.Duration(ns), nil
	}
	if timecodeFrames.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedTimecode, s)
	}
	if m := timecodeFraction.FindStringSubmatch(s); m != nil {
		frac, err := fraction(m[4], m[5], s)
		if err != nil {
			return 0, err
		}
		return hms(m[1], m[2], m[3]) + frac, nil
	}
	if m := timecodeSimpleFraction.FindStringSubmatch(s); m != nil {
		return fraction(m[1], m[2], s)
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimecode, s)
}

func hms(h, m, s string) time.Duration {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	ss, _ := strconv.Atoi(s)
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(ss)*time.Second
}

func fraction(num, den, input string) (time.Duration, error) {
	n, _ := strconv.ParseInt(num, 10, 64)
	d, _ := strconv.ParseInt(den, 10, 64)
	if d == 0 {
		return 0, fmt.Errorf("%w: zero denominator in %q", ErrInvalidTimecode, input)
	}
	ns := math.Round(float64(n) / float64(d) * float64(time.Second))
	if ns >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q exceeds the longest duration", ErrInvalidTimecode, input)
	}
	return time.Duration(ns), nil
}

// FormatTimecode formats d as "hh:mm:ss.fffffffff". Negative durations are
// clamped to zero.
func FormatTimecode(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	ns := d % time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%09d", h, m, s, ns)
}
