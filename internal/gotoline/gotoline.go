// Package gotoline implements go-to-line-number (§4.K): answer
// synchronously from the line registry when it already knows the
// target, otherwise spawn a background task that streams the file
// counting newlines, reporting progress at most every
// constants.GotoLineProgressInterval or 1% of the stream, whichever
// comes first. Grounded on internal/registry for the synchronous path
// and on registry.Build's chunked-scan-with-cancellation style for the
// streaming fallback.
package gotoline

import (
	"fmt"
	"io"
	"time"

	"github.com/mimecast/logview/internal/constants"
	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/registry"
	"github.com/mimecast/logview/internal/tasks"
)

// Result is the Complete signal's payload for a spawned go-to-line task.
type Result struct {
	Offset offsetint.Offset
}

// Resolve implements §4.K's line-number go-to: n is 1-based. Line 1
// always starts at offset 0. For n > 1, if the registry already knows
// the (n-2)-th newline (the one immediately before line n-1, 0-based),
// its offset+1 is returned synchronously with a nil Handle. Otherwise a
// task is spawned on rt to stream reader (opened fresh via open) to find
// it; the caller's runtime listener receives the eventual Result.
func Resolve(reg *registry.Registry, length int64, open func() (io.ReadSeeker, error), n int, rt *tasks.Runtime) (offsetint.Offset, tasks.Handle, bool, error) {
	if n <= 1 {
		return offsetint.Zero, tasks.Handle{}, true, nil
	}

	target := n - 2 // 0-based index of the newline ending line n-2
	if reg != nil {
		if off, err := reg.FindOffsetByLineNumber(target); err == nil {
			return off.Add(1), tasks.Handle{}, true, nil
		}
	}
	if rt == nil {
		return offsetint.Zero, tasks.Handle{}, false, errors.Wrap(errors.ErrInvalidState, "no runtime available to count lines")
	}

	handle := rt.Spawn("go-to-line", fmt.Sprintf("line %d", n), func(tc *tasks.Context) (any, error) {
		r, err := open()
		if err != nil {
			return nil, err
		}
		if closer, ok := r.(io.Closer); ok {
			defer closer.Close()
		}
		return scanForNewline(tc, r, length, target)
	})
	return offsetint.Zero, handle, false, nil
}

// scanForNewline streams r from the start counting '\n' bytes until the
// target-th one (0-based) is found, returning the offset one past it -
// the start of the requested line.
func scanForNewline(tc *tasks.Context, r io.ReadSeeker, length int64, target int) (any, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	buf := make([]byte, constants.DefaultChunkSize)
	var total int64
	count := 0
	lastReport := time.Time{}
	lastPercent := -1

	for {
		if tc.InterruptedDebounced() {
			return nil, errors.ErrCancelled
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			for i, b := range chunk {
				if b != '\n' {
					continue
				}
				if count == target {
					return Result{Offset: offsetint.Offset(total + int64(i) + 1)}, nil
				}
				count++
			}
			total += int64(n)

			percent := 0
			if length > 0 {
				percent = int(total * 100 / length)
			}
			if percent != lastPercent || time.Since(lastReport) >= constants.GotoLineProgressInterval {
				tc.UpdateProgress(uint8(percent))
				lastReport = time.Now()
				lastPercent = percent
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return nil, errors.ErrNotFound
			}
			return nil, rerr
		}
	}
}
