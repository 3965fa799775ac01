// Package gotodate implements go-to-timestamp (§4.K): a bisection over
// byte positions driven by an external date-format recognizer. TakeLine
// is the take_line subroutine - the nearest line in a direction that
// parses as a date - and Bisect is the standard bisection built on top
// of it, bounded by the file's two ends, collapsing equal dates to the
// earliest occurrence. Grounded on internal/delim for line-at-a-time
// scanning (the same approach internal/search's regex scan uses) and on
// internal/tasks for cancellation during what can be a slow scan over an
// unindexed file.
package gotodate

import (
	"io"
	"time"

	"github.com/mimecast/logview/internal/delim"
	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/tasks"
)

// GuessContext carries the ambiguity-resolving context a date parse
// needs (§6: "the guess context carries a default year").
type GuessContext struct {
	DefaultYear int
}

// Match is the byte span within a line's content where a timestamp was
// recognized.
type Match struct {
	Start, End int
}

// KnownDateFormat is the date-recognition collaborator (§6): accepted
// here as an interface, not implemented - a concrete detector sniffs the
// file's own timestamp layout and is handed in by the caller.
type KnownDateFormat interface {
	Parse(line string, guess GuessContext) (time.Time, bool)
	ParseAndMatch(line string, guess GuessContext) (time.Time, Match, bool)
}

// TakeLine returns the line nearest to offset, scanning in direction (+1
// forward, -1 backward) without crossing boundary, whose content parses
// as a date under format. ok is false if no such line exists before
// boundary is reached.
func TakeLine(r io.ReadSeeker, offset, boundary offsetint.Offset, direction int, format KnownDateFormat, guess GuessContext) (content string, start, end offsetint.Offset, parsed time.Time, ok bool, err error) {
	cur := offset
	for {
		if direction >= 0 {
			if cur.Int64() > boundary.Int64() {
				return "", 0, 0, time.Time{}, false, nil
			}
			line, lerr := readOneLine(r, cur, 1)
			if lerr != nil {
				return "", 0, 0, time.Time{}, false, lerr
			}
			if line == nil || line.Start.Int64() > boundary.Int64() {
				return "", 0, 0, time.Time{}, false, nil
			}
			if t, matched := format.Parse(line.Content, guess); matched {
				return line.Content, line.Start, line.End, t, true, nil
			}
			cur = line.End.Add(1)
		} else {
			if cur.Int64() < boundary.Int64() {
				return "", 0, 0, time.Time{}, false, nil
			}
			line, lerr := readOneLine(r, cur, -1)
			if lerr != nil {
				return "", 0, 0, time.Time{}, false, lerr
			}
			if line == nil || line.End.Int64() < boundary.Int64() {
				return "", 0, 0, time.Time{}, false, nil
			}
			if t, matched := format.Parse(line.Content, guess); matched {
				return line.Content, line.Start, line.End, t, true, nil
			}
			cur = line.Start.Add(-1)
		}
	}
}

func readOneLine(r io.ReadSeeker, offset offsetint.Offset, n int) (*delim.Segment, error) {
	segs, err := delim.ReadLines(r, offset, n, nil)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, nil
	}
	return &segs[0], nil
}

// Bisect implements §4.K's bisection: narrows [low, high] toward the
// leftmost line whose parsed date is >= target, returning that line's
// start offset. Equal dates collapse to the earliest match. ctx may be
// nil (used directly, outside a spawned task); when non-nil its
// InterruptedDebounced is polled between steps and ErrCancelled aborts
// the search.
func Bisect(ctx *tasks.Context, r io.ReadSeeker, low, high offsetint.Offset, target time.Time, format KnownDateFormat, guess GuessContext) (offsetint.Offset, error) {
	for low.Int64() < high.Int64() {
		if ctx != nil && ctx.InterruptedDebounced() {
			return offsetint.Zero, errors.ErrCancelled
		}

		mid := offsetint.Offset((low.Int64() + high.Int64()) / 2)
		_, start, end, t, ok, err := TakeLine(r, mid, high, 1, format, guess)
		if err != nil {
			return offsetint.Zero, err
		}
		if !ok {
			high = mid
			continue
		}
		if t.Before(target) {
			// This line (and everything up to it) is too early; the
			// next candidate starts strictly after its content, which
			// guarantees low advances past mid.
			low = end.Add(1)
		} else {
			// This line is a candidate for "leftmost >= target"; keep
			// narrowing down to it or an earlier one.
			high = start
		}
	}
	return low, nil
}

// Result is the Complete signal's payload for a spawned go-to-date task.
type Result struct {
	Offset offsetint.Offset
	Line   string
}

// Goto spawns the bisection as a background task on rt, opening an
// independent reader via open (§5: "background reads open their own
// independent readers"), and resolving to the nearest line at or after
// target.
func Goto(rt *tasks.Runtime, open func() (io.ReadSeeker, error), length int64, target time.Time, format KnownDateFormat, guess GuessContext) tasks.Handle {
	return rt.Spawn("go-to-date", target.Format(time.RFC3339), func(tc *tasks.Context) (any, error) {
		r, err := open()
		if err != nil {
			return nil, err
		}
		if closer, ok := r.(io.Closer); ok {
			defer closer.Close()
		}

		off, err := Bisect(tc, r, offsetint.Zero, offsetint.Offset(length), target, format, guess)
		if err != nil {
			return nil, err
		}
		line, start, _, _, ok, err := TakeLine(r, off, offsetint.Offset(length), 1, format, guess)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.ErrNotFound
		}
		return Result{Offset: start, Line: line}, nil
	})
}
