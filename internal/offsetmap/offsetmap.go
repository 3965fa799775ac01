// Package offsetmap implements the offset mapper (§4.E): a
// piecewise-constant-delta function from a filtered source's proxy
// offset space back to the underlying concrete source's original
// offset space. Grounded on dtail's internal/mapr/groupset.go for the
// "mutex-guarded, sorted, binary-searched" shape `sort` gives the rest
// of the pack for ordered lookups.
package offsetmap

import (
	"sort"
	"sync"

	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/offsetint"
)

// Eval is the outcome of evaluating a proxy offset against the map.
type Eval int

const (
	// Exact means proxy falls within a known pivot segment.
	Exact Eval = iota
	// LastConfirmed means proxy is at or beyond the confirmed watermark
	// (the first proxy offset not yet mapped), or beyond the last pivot
	// when nothing has been confirmed; the caller must resume scanning
	// from ResumeProxy/ResumeOriginal.
	LastConfirmed
	// Unpredictable means no pivots exist yet.
	Unpredictable
)

// Result is the outcome of Eval.
type Result struct {
	Kind           Eval
	Original       offsetint.Offset // valid when Kind == Exact
	ResumeProxy    offsetint.Offset // valid when Kind == LastConfirmed
	ResumeOriginal offsetint.Offset // valid when Kind == LastConfirmed
}

type pivot struct {
	proxy offsetint.Offset
	delta int64
}

// Mapper holds the pivot list and the confirmed watermark. Safe for
// concurrent use.
type Mapper struct {
	mu     sync.RWMutex
	pivots []pivot

	hasConfirmed      bool
	confirmedProxy    offsetint.Offset
	confirmedOriginal offsetint.Offset
}

// New returns an empty mapper.
func New() *Mapper {
	return &Mapper{}
}

// Add appends a pivot mapping proxy to original. Rejects non-monotonic
// input (proxy must be >= every previously added proxy). If the new
// delta equals the previous pivot's delta, and the confirmed watermark
// has not reached the previous pivot, the previous pivot is replaced
// rather than duplicated. Once the watermark is at or past the previous
// pivot, that pivot stays in place and a new one is appended, so the
// proxies it already maps keep their mapping.
func (m *Mapper) Add(proxy, original offsetint.Offset) error {
	delta := original.Sub(proxy)

	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.pivots); n > 0 {
		last := m.pivots[n-1]
		if proxy.Int64() < last.proxy.Int64() {
			return errors.Wrapf(errors.ErrInvalidArgument,
				"offset map: proxy %d precedes previous pivot at %d", proxy.Int64(), last.proxy.Int64())
		}
		if delta == last.delta {
			isWatermark := m.hasConfirmed && m.confirmedProxy.Int64() >= last.proxy.Int64()
			if !isWatermark {
				m.pivots[n-1] = pivot{proxy: proxy, delta: delta}
				return nil
			}
		}
	}
	m.pivots = append(m.pivots, pivot{proxy: proxy, delta: delta})
	return nil
}

// Confirm advances the confirmed watermark to proxy, the exclusive end
// of the mapped proxy range, carrying forward
// the delta of the last pivot (0 if there are no pivots yet).
func (m *Mapper) Confirm(proxy offsetint.Offset) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var delta int64
	if n := len(m.pivots); n > 0 {
		delta = m.pivots[n-1].delta
	}
	m.confirmedProxy = proxy
	m.confirmedOriginal = proxy.Add(delta)
	m.hasConfirmed = true
}

// Eval maps proxy to an original offset, or reports that the caller
// must resume scanning.
func (m *Mapper) Eval(proxy offsetint.Offset) Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.pivots) == 0 {
		return Result{Kind: Unpredictable}
	}

	last := m.pivots[len(m.pivots)-1]
	watermarkProxy, watermarkOriginal := last.proxy, last.proxy.Add(last.delta)
	if m.hasConfirmed {
		watermarkProxy, watermarkOriginal = m.confirmedProxy, m.confirmedOriginal
	}

	if proxy.Int64() > watermarkProxy.Int64() || (m.hasConfirmed && proxy == watermarkProxy) {
		return Result{Kind: LastConfirmed, ResumeProxy: watermarkProxy, ResumeOriginal: watermarkOriginal}
	}
	if proxy.Int64() < m.pivots[0].proxy.Int64() {
		return Result{Kind: Unpredictable}
	}

	i := sort.Search(len(m.pivots), func(i int) bool {
		return m.pivots[i].proxy.Int64() > proxy.Int64()
	})
	// i is the first pivot strictly after proxy; the covering pivot is i-1.
	p := m.pivots[i-1]
	return Result{Kind: Exact, Original: proxy.Add(p.delta)}
}

// GetHighestKnown returns the confirmed watermark pair, or false if
// nothing has been confirmed yet.
func (m *Mapper) GetHighestKnown() (proxy, original offsetint.Offset, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasConfirmed {
		return 0, 0, false
	}
	return m.confirmedProxy, m.confirmedOriginal, true
}
