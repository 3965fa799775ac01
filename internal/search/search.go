// Package search implements the searchers (§4.G): literal and regex
// occurrence search in a byte range over any seekable reader, forward or
// backward. Grounded on dtail's internal/regex literal/regex split
// (adapted into internal/regex.Matcher) and on internal/delim for the
// regex searcher's line-at-a-time scan. Readers passed in here are
// always independent of the viewport's own reader (§4.G: "may be
// brand-new").
package search

import (
	"bytes"
	"io"

	"github.com/mimecast/logview/internal/delim"
	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/interval"
	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/regex"
)

// Direction is the direction a search proceeds in.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Range is the half-open-or-unbounded byte range a search is confined
// to, expressed with the shared interval type.
type Range = interval.Interval[offsetint.Offset]

// Occurrence is a half-open [Start, End) byte match (§3).
type Occurrence struct {
	Start, End offsetint.Offset
}

// Searcher is the capability both Literal and Regex implement, and the
// one internal/navsearch depends on.
type Searcher interface {
	Search(r io.ReadSeeker, rng Range, dir Direction) (Occurrence, error)
}

// occurrenceInRange reports whether occ lies wholly within rng: its
// Start respects the left bound and its End respects the right bound.
// Using End (not Start) against the right bound is what makes backward
// search exclude an occurrence that starts exactly at a closed right
// boundary (§8 scenario 6, §9 Open Question on cursor-exact matches).
func occurrenceInRange(occ Occurrence, rng Range) bool {
	if rng.Left.Present {
		if occ.Start.Less(rng.Left.Value) {
			return false
		}
		if occ.Start == rng.Left.Value && !rng.Left.Closed {
			return false
		}
	}
	if rng.Right.Present {
		if rng.Right.Value.Less(occ.End) {
			return false
		}
		if occ.End == rng.Right.Value && !rng.Right.Closed {
			return false
		}
	}
	return true
}

func streamLength(r io.ReadSeeker) (int64, error) {
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}

// Literal searches for an exact byte-sequence occurrence via a rolling
// buffer the width of the pattern (§4.G).
type Literal struct {
	Pattern string
}

// Search implements Searcher.
func (l Literal) Search(r io.ReadSeeker, rng Range, dir Direction) (Occurrence, error) {
	pattern := []byte(l.Pattern)
	if len(pattern) == 0 {
		return Occurrence{}, errors.ErrNotFound
	}
	length, err := streamLength(r)
	if err != nil {
		return Occurrence{}, err
	}
	if dir == Forward {
		start := int64(0)
		if rng.Left.Present {
			start = rng.Left.Value.Int64()
			if !rng.Left.Closed {
				start++
			}
		}
		if start < 0 {
			start = 0
		}
		return literalScan(r, pattern, start, length, rng, true)
	}
	start := length
	if rng.Right.Present {
		start = rng.Right.Value.Int64()
		if !rng.Right.Closed {
			start--
		}
	}
	if start > length {
		start = length
	}
	return literalScan(r, pattern, start-int64(len(pattern)), length, rng, false)
}

func literalScan(r io.ReadSeeker, pattern []byte, start, length int64, rng Range, forward bool) (Occurrence, error) {
	buf := make([]byte, len(pattern))
	pos := start
	for pos >= 0 && pos+int64(len(pattern)) <= length {
		if forward && rng.Right.Present && offsetint.Offset(pos).Int64() > rng.Right.Value.Int64() {
			break
		}
		if !forward && rng.Left.Present && offsetint.Offset(pos).Int64() < rng.Left.Value.Int64() {
			break
		}
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return Occurrence{}, err
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			if forward {
				break
			}
			return Occurrence{}, err
		}
		if bytes.Equal(buf, pattern) {
			occ := Occurrence{Start: offsetint.Offset(pos), End: offsetint.Offset(pos + int64(len(pattern)))}
			if occurrenceInRange(occ, rng) {
				return occ, nil
			}
		}
		if forward {
			pos++
		} else {
			pos--
		}
	}
	return Occurrence{}, errors.ErrNotFound
}

// Regex searches line by line with a compiled pattern (§4.G).
type Regex struct {
	Matcher regex.Matcher
}

// Search implements Searcher.
func (s Regex) Search(r io.ReadSeeker, rng Range, dir Direction) (Occurrence, error) {
	length, err := streamLength(r)
	if err != nil {
		return Occurrence{}, err
	}
	if dir == Forward {
		start := offsetint.Offset(0)
		if rng.Left.Present {
			start = rng.Left.Value
			if !rng.Left.Closed {
				start = start.Add(1)
			}
		}
		return regexForward(r, s.Matcher, start, rng)
	}
	start := offsetint.Offset(length)
	if rng.Right.Present {
		start = rng.Right.Value
		if !rng.Right.Closed {
			start = start.Add(-1)
		}
	}
	return regexBackward(r, s.Matcher, start, rng)
}

func regexForward(r io.ReadSeeker, m regex.Matcher, offset offsetint.Offset, rng Range) (Occurrence, error) {
	cur := offset
	for {
		if rng.Right.Present && rng.Right.Value.Less(cur) {
			return Occurrence{}, errors.ErrNotFound
		}
		segs, err := delim.ReadLines(r, cur, 1, nil)
		if err != nil {
			return Occurrence{}, err
		}
		if len(segs) == 0 {
			return Occurrence{}, errors.ErrNotFound
		}
		line := segs[0]
		rel := int(cur.Int64() - line.Start.Int64())
		if rel < 0 {
			rel = 0
		}
		for _, sp := range m.FindAllStringIndex(line.Content) {
			if sp[0] < rel {
				continue
			}
			occ := Occurrence{Start: line.Start.Add(int64(sp[0])), End: line.Start.Add(int64(sp[1]))}
			if occurrenceInRange(occ, rng) {
				return occ, nil
			}
		}
		cur = line.End.Add(1)
	}
}

func regexBackward(r io.ReadSeeker, m regex.Matcher, offset offsetint.Offset, rng Range) (Occurrence, error) {
	cur := offset
	for cur.Int64() >= 0 {
		if rng.Left.Present && cur.Less(rng.Left.Value) {
			return Occurrence{}, errors.ErrNotFound
		}
		segs, err := delim.ReadLines(r, cur, -1, nil)
		if err != nil {
			return Occurrence{}, err
		}
		if len(segs) == 0 {
			return Occurrence{}, errors.ErrNotFound
		}
		line := segs[0]
		rel := int(cur.Int64()-line.Start.Int64()) + 1
		if last := m.LastStringIndex(line.Content, rel); last != nil {
			occ := Occurrence{Start: line.Start.Add(int64(last[0])), End: line.Start.Add(int64(last[1]))}
			if occurrenceInRange(occ, rng) {
				return occ, nil
			}
		}
		if line.Start.Int64() == 0 {
			return Occurrence{}, errors.ErrNotFound
		}
		cur = line.Start.Add(-1)
	}
	return Occurrence{}, errors.ErrNotFound
}
