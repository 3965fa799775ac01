// Package registry implements the line registry (§4.B): an
// incrementally-built, concurrently-queried index of newline byte
// offsets. One writer (the background indexer that owns it) appends
// batches under a short write lock; many readers look up counts and
// offsets under a read lock. Grounded on dtail's
// internal/mapr/safe_aggregateset.go (mutex-guarded ordered accumulation)
// for the locking discipline and internal/io/fs/chunkedreader.go for the
// chunked scan loop in Build.
package registry

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/mimecast/logview/internal/constants"
	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/interval"
	"github.com/mimecast/logview/internal/offsetint"
)

// Registry is the append-only, newline-offset index for one concrete
// source. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	breaks  []offsetint.Offset
	crawled offsetint.Offset
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Push appends offset. The caller must guarantee offset is greater than
// every previously pushed value.
func (r *Registry) Push(offset offsetint.Offset) {
	r.mu.Lock()
	r.breaks = append(r.breaks, offset)
	r.mu.Unlock()
}

// PushBatch appends many offsets in one locked section - the discipline
// §4.B requires ("chunk submit is batched per buffer, not per newline").
func (r *Registry) PushBatch(offsets []offsetint.Offset, crawledTo offsetint.Offset) {
	if len(offsets) == 0 && crawledTo <= r.Crawled() {
		return
	}
	r.mu.Lock()
	r.breaks = append(r.breaks, offsets...)
	if crawledTo > r.crawled {
		r.crawled = crawledTo
	}
	r.mu.Unlock()
}

// Crawled returns the exclusive upper bound of bytes indexed so far.
func (r *Registry) Crawled() offsetint.Offset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.crawled
}

// Count returns the number of newline offsets contained in rng. If rng's
// right bound exceeds the crawled watermark, it returns ErrNotReachedYet
// since §4.B requires: "If the range's right bound exceeds crawled,
// return NotReachedYet{requested, limit=crawled}".
func (r *Registry) Count(rng interval.Interval[offsetint.Offset]) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rng.Right.Present && r.crawled.Less(rng.Right.Value) {
		return 0, errors.Wrapf(errors.ErrNotReachedYet, "requested up to %d, indexed up to %d",
			rng.Right.Value.Int64(), r.crawled.Int64())
	}
	count := 0
	for _, b := range r.breaks {
		if rng.Contains(b) {
			count++
		}
	}
	return count, nil
}

// FindOffsetByLineNumber returns the byte offset of the n-th newline
// (0-based), or ErrNotReachedYet carrying the current watermark if not
// yet known.
func (r *Registry) FindOffsetByLineNumber(n int) (offsetint.Offset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n < 0 || n >= len(r.breaks) {
		return r.crawled, errors.Wrapf(errors.ErrNotReachedYet, "line %d not indexed, crawled to %d",
			n, r.crawled.Int64())
	}
	return r.breaks[n], nil
}

// Len returns how many newline offsets are currently known. Safe for
// concurrent use.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.breaks)
}

// Progress reports bytes processed so far during a Build call. Called at
// most once per constants.RegistryProgressInterval while reading, plus
// once more at end of stream.
type Progress func(bytesRead int64)

// Build streams reader in fixed-size chunks (§4.B: "≥ 8 KiB, ≤ 1 MiB"),
// counting '\n' bytes and pushing their absolute offsets. isInterrupted
// is polled between chunks. On success Build updates the registry's
// crawled watermark to the total byte length read.
func (r *Registry) Build(ctx context.Context, reader io.Reader, isInterrupted func() bool, progress Progress) error {
	return r.BuildFrom(ctx, reader, 0, isInterrupted, progress)
}

// BuildFrom is Build, but the reader is assumed to already be positioned
// at startOffset (so pushed newline offsets are startOffset-relative
// absolute positions, not relative to the reader's own start).
func (r *Registry) BuildFrom(ctx context.Context, reader io.Reader, startOffset offsetint.Offset,
	isInterrupted func() bool, progress Progress) error {

	const chunkSize = constants.DefaultChunkSize
	buf := make([]byte, chunkSize)

	batch := make([]offsetint.Offset, 0, 256)
	total := startOffset
	var lastReport time.Time

	for {
		if isInterrupted != nil && isInterrupted() {
			return errors.ErrCancelled
		}
		select {
		case <-ctx.Done():
			return errors.ErrCancelled
		default:
		}

		n, err := reader.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			for i, b := range chunk {
				if b == '\n' {
					batch = append(batch, total.Add(int64(i)))
				}
			}
			total = total.Add(int64(n))
			r.PushBatch(batch, total)
			batch = batch[:0]

			if progress != nil && time.Since(lastReport) >= constants.RegistryProgressInterval {
				progress(total.Int64())
				lastReport = time.Now()
			}
		}
		if err != nil {
			if err == io.EOF {
				if progress != nil {
					progress(total.Int64())
				}
				return nil
			}
			return err
		}
	}
}
