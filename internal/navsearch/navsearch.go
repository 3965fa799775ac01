// Package navsearch implements the navigable search (§4.H): a stateful
// wrapper over a search.Searcher that remembers the last queried range
// and the occurrences found in it, so repeated "next/previous
// occurrence" calls from the viewport don't re-scan from scratch.
// Grounded on internal/search for the underlying scan and on the
// viewport's "cached last search" record in spec.md §3 (Search).
package navsearch

import (
	"io"
	"sync"

	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/interval"
	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/search"
)

// Navigable tracks the last queried range and the occurrences found in
// it (§3 Search). Safe for concurrent use.
type Navigable struct {
	searcher search.Searcher

	mu         sync.Mutex
	haveRange  bool
	lastRange  search.Range
	occurrence []search.Occurrence
	current    int // index into occurrence of the "current" one, -1 if none
}

// New wraps searcher. An optional initial offset seeds the range so the
// first NextOccurrence begins scanning from the cursor (§4.H).
func New(searcher search.Searcher, initialOffset offsetint.Offset) *Navigable {
	n := &Navigable{searcher: searcher, current: -1}
	n.lastRange = interval.New[offsetint.Offset](
		interval.Closed(initialOffset), interval.Closed(initialOffset))
	n.haveRange = true
	return n
}

// FindAllInRange returns every forward occurrence whose full span lies
// in rng, using the cache if rng is unchanged from the last call.
func (n *Navigable) FindAllInRange(r io.ReadSeeker, rng search.Range) ([]search.Occurrence, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.haveRange && rangeEqual(n.lastRange, rng) {
		return n.occurrence, nil
	}

	var out []search.Occurrence
	cursor := rng
	for {
		occ, err := n.searcher.Search(r, cursor, search.Forward)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				break
			}
			return nil, err
		}
		out = append(out, occ)
		cursor = interval.New[offsetint.Offset](interval.Open(occ.Start), cursor.Right)
	}

	n.lastRange = rng
	n.occurrence = out
	n.haveRange = true
	n.current = -1
	return out, nil
}

// NextOccurrence searches outside the last queried range's boundary in
// direction dir and, on success, narrows the tracked range to a single
// point at the result (§4.H).
func (n *Navigable) NextOccurrence(r io.ReadSeeker, dir search.Direction) (search.Occurrence, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var rng search.Range
	if dir == search.Forward {
		left := interval.Unbounded[offsetint.Offset]()
		if n.haveRange && n.lastRange.Right.Present {
			left = interval.Open(n.lastRange.Right.Value)
		}
		rng = interval.New[offsetint.Offset](left, interval.Unbounded[offsetint.Offset]())
	} else {
		right := interval.Unbounded[offsetint.Offset]()
		if n.haveRange && n.lastRange.Left.Present {
			right = interval.Open(n.lastRange.Left.Value)
		}
		rng = interval.New[offsetint.Offset](interval.Unbounded[offsetint.Offset](), right)
	}

	occ, err := n.searcher.Search(r, rng, dir)
	if err != nil {
		return search.Occurrence{}, err
	}

	n.lastRange = interval.New[offsetint.Offset](interval.Closed(occ.Start), interval.Closed(occ.End))
	n.haveRange = true
	n.occurrence = []search.Occurrence{occ}
	n.current = 0
	return occ, nil
}

// Current returns the currently tracked occurrence, or false if there is
// none.
func (n *Navigable) Current() (search.Occurrence, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current < 0 || n.current >= len(n.occurrence) {
		return search.Occurrence{}, false
	}
	return n.occurrence[n.current], true
}

func rangeEqual(a, b search.Range) bool {
	return a.Left == b.Left && a.Right == b.Right
}
