package segment

import (
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/sadm/pkg/adm"
)

// Forever is the end of an unbounded interval.
const Forever = time.Duration(math.MaxInt64)

// Interval is the half-open time range [Start, End). End is [Forever] for
// intervals without an upper bound.
type Interval struct {
	Start time.Duration
	End   time.Duration
}

// Window returns the interval [start, start+duration).
func Window(start, duration time.Duration) Interval {
	return Interval{Start: start, End: start + duration}
}

// Bounded reports whether the interval has a finite end.
func (iv Interval) Bounded() bool { return iv.End != Forever }

// Empty reports whether the interval contains no instant.
func (iv Interval) Empty() bool { return iv.Start >= iv.End }

// Overlaps reports whether iv and o share an instant under half-open
// semantics: iv.Start < o.End && iv.End > o.Start.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start < o.End && iv.End > o.Start
}

// Intersect returns the common part of iv and o. The result may be empty.
func (iv Interval) Intersect(o Interval) Interval {
	return Interval{Start: max(iv.Start, o.Start), End: min(iv.End, o.End)}
}

// Closure returns iv with both bounds treated as inclusive, as the interval
// [Start, End+1ns). Closure(a).Overlaps(Closure(b)) is true when a and b
// overlap or touch.
func (iv Interval) Closure() Interval {
	if iv.End == Forever {
		return iv
	}
	return Interval{Start: iv.Start, End: iv.End + 1}
}

func (iv Interval) String() string {
	if !iv.Bounded() {
		return fmt.Sprintf("[%v, open)", iv.Start)
	}
	return fmt.Sprintf("[%v, %v)", iv.Start, iv.End)
}

// Position classifies an item's validity interval against a window.
type Position int

const (
	// Before means the item ended before the window starts.
	Before Position = iota
	// Overlapping means the item may contribute blocks to the window.
	Overlapping
	// After means the item starts after the window ends.
	After
)

// Classify places validity relative to window. An item is Before when its
// end lies strictly before window.Start and After when its start lies
// strictly after window.End; an item touching either window edge still
// counts as Overlapping.
func Classify(validity, window Interval) Position {
	if validity.Closure().Overlaps(window.Closure()) {
		return Overlapping
	}
	if validity.End < window.Start {
		return Before
	}
	return After
}

// SelectBlocks returns the blocks of a channel that are needed to render
// the window, given the item's validity interval. blocks must be sorted by
// rtime; rtimes are relative to validity.Start.
//
// With absolute block starts a[k] = validity.Start + Rtime[k], block k is
// needed over [a[k-1], a[k+2]): from the start of its predecessor (it holds
// the target values the predecessor interpolates towards) until its
// successor has ended (the successor's start bounds its duration). Missing
// neighbours stretch the range to a[0] and [Forever]. Block k is selected
// when that range overlaps the search range, the intersection of validity
// and window.
//
// The selection is empty when the item is not Overlapping the window or the
// search range is empty.
func SelectBlocks(blocks []adm.BlockFormat, validity, window Interval) []adm.BlockFormat {
	if Classify(validity, window) != Overlapping {
		return nil
	}
	search := validity.Intersect(window)
	if search.Empty() {
		return nil
	}
	abs := func(k int) time.Duration {
		if k >= len(blocks) {
			return Forever
		}
		return validity.Start + blocks[max(k, 0)].Rtime
	}
	var out []adm.BlockFormat
	for k := range blocks {
		needed := Interval{Start: abs(k - 1), End: abs(k + 2)}
		if needed.Overlaps(search) {
			out = append(out, blocks[k])
		}
	}
	return out
}
