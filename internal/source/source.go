package source

import (
	"context"
	"io"
	"sync"

	"github.com/mimecast/logview/internal/breader"
	"github.com/mimecast/logview/internal/delim"
	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/registry"
)

// LineSource is the capability set every variant (concrete file,
// concrete in-memory, filtered) exposes (§9 "Multi-variant line
// sources"). A holder that must know whether it has a Concrete or a
// filter.Filtered (e.g. to call GetLength, meaningful only on a
// Concrete or a fully-scanned filtered source) type-switches on the
// concrete type rather than growing this interface.
type LineSource interface {
	ReadLines(offset offsetint.Offset, n int) ([]Line, error)
	ReadNextLine(offset offsetint.Offset) (Line, error)
	ReadPrevLine(offset offsetint.Offset) (Line, error)
	ReadRaw(start, end offsetint.Offset) (string, error)
	SkipToken(offset offsetint.Offset, direction int) (offsetint.Offset, error)
	TrackLineNumber(on bool)
	GetLineRegistry() *registry.Registry
}

// Concrete is the line source (§4.D) over one Backend: a file or an
// in-memory buffer. Safe for concurrent use once constructed; the
// underlying registry (if tracking is enabled) has its own locking.
type Concrete struct {
	backend Backend

	mu      sync.Mutex
	reg     *registry.Registry
	tracked bool
}

// New wraps backend with line-number tracking initially off.
func New(backend Backend) *Concrete {
	return &Concrete{backend: backend}
}

// GetLength returns the backend's total byte length.
func (c *Concrete) GetLength() (int64, error) {
	return c.backend.Length()
}

// Reader returns a fresh, independently-seekable reader over the
// backend bytes - for callers (e.g. internal/search) that need direct
// io.ReadSeeker access outside the line-oriented API.
func (c *Concrete) Reader() (io.ReadSeeker, error) {
	return c.backend.NewReader()
}

// GetLineRegistry returns the shared registry handle, or nil if line
// number tracking was never enabled.
func (c *Concrete) GetLineRegistry() *registry.Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg
}

// TrackLineNumber toggles whether lines returned by ReadLines carry a
// line number. Turning it on (from off) allocates a registry and kicks
// off a background build; the registry fills in incrementally, so early
// reads may come back without a number until the build reaches them.
func (c *Concrete) TrackLineNumber(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on == c.tracked {
		return
	}
	c.tracked = on
	if !on {
		return
	}
	if c.reg == nil {
		c.reg = registry.New()
	}
	reg := c.reg
	go func() {
		r, err := c.backend.NewReader()
		if err != nil {
			return
		}
		defer closeIfCloser(r)
		_ = reg.Build(context.Background(), r, nil, nil)
	}()
}

func (c *Concrete) registryForReads() *registry.Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tracked {
		return nil
	}
	return c.reg
}

func closeIfCloser(r io.ReadSeeker) {
	if cl, ok := r.(io.Closer); ok {
		cl.Close()
	}
}

// ReadLines reads up to n newline-delimited lines forward (n > 0) or
// backward (n < 0) from offset.
func (c *Concrete) ReadLines(offset offsetint.Offset, n int) ([]Line, error) {
	r, err := c.backend.NewReader()
	if err != nil {
		return nil, err
	}
	defer closeIfCloser(r)

	segs, err := delim.ReadLines(r, offset, n, c.registryForReads())
	if err != nil {
		return nil, err
	}
	return toLines(segs), nil
}

// ReadNextLine returns the line whose byte range contains offset (or
// starts at it), per the round-trip invariant in §8.
func (c *Concrete) ReadNextLine(offset offsetint.Offset) (Line, error) {
	lines, err := c.ReadLines(offset, 1)
	if err != nil {
		return Line{}, err
	}
	if len(lines) == 0 {
		return Line{}, errors.ErrNotFound
	}
	return lines[0], nil
}

// ReadPrevLine returns the line containing offset, read backward. An
// offset at a line's terminating newline counts as inside that line, so
// passing a line's Start-1 yields the line before it.
func (c *Concrete) ReadPrevLine(offset offsetint.Offset) (Line, error) {
	lines, err := c.ReadLines(offset, -1)
	if err != nil {
		return Line{}, err
	}
	if len(lines) == 0 {
		return Line{}, errors.ErrNotFound
	}
	return lines[0], nil
}

// ReadRaw copies bytes [start, end) into a UTF-8 string, in the
// source's own coordinate system.
func (c *Concrete) ReadRaw(start, end offsetint.Offset) (string, error) {
	if end.Int64() <= start.Int64() {
		return "", nil
	}
	r, err := c.backend.NewReader()
	if err != nil {
		return "", err
	}
	defer closeIfCloser(r)

	if _, err := r.Seek(start.Int64(), io.SeekStart); err != nil {
		return "", err
	}
	buf := make([]byte, end.Int64()-start.Int64())
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func isWordChar(r rune) bool { return !delim.IsWordDelimiter(r) }

// SkipToken implements word-wise cursor motion (§4.D): from offset
// shifted by one code point in direction (+1 or -1), classify the
// character; if it's a token character, read until the next delimiter;
// if it's a delimiter, read until the next token character. Returns the
// offset of the last character consumed.
func (c *Concrete) SkipToken(offset offsetint.Offset, direction int) (offsetint.Offset, error) {
	r, err := c.backend.NewReader()
	if err != nil {
		return offset, err
	}
	defer closeIfCloser(r)

	if direction >= 0 {
		return skipForward(r, offset)
	}
	return skipBackward(r, offset)
}

func skipForward(r io.ReadSeeker, offset offsetint.Offset) (offsetint.Offset, error) {
	if _, err := r.Seek(offset.Int64(), io.SeekStart); err != nil {
		return offset, err
	}
	first, size, err := breader.NextChar(r)
	if err == io.EOF {
		return offset, nil
	}
	if err != nil {
		return offset, err
	}
	last := offset.Add(int64(size))
	wantWord := isWordChar(first)
	for {
		rn, size, err := breader.PeekNextChar(r)
		if err == io.EOF {
			return last.Add(-1), nil
		}
		if err != nil {
			return last.Add(-1), err
		}
		if isWordChar(rn) != wantWord {
			return last.Add(-1), nil
		}
		if _, _, err := breader.NextChar(r); err != nil {
			return last.Add(-1), err
		}
		last = last.Add(int64(size))
	}
}

func skipBackward(r io.ReadSeeker, offset offsetint.Offset) (offsetint.Offset, error) {
	if offset.Int64() <= 0 {
		return offset, nil
	}
	if _, err := r.Seek(offset.Int64(), io.SeekStart); err != nil {
		return offset, err
	}
	first, size, err := breader.PrevChar(r)
	if err == io.EOF {
		return offset, nil
	}
	if err != nil {
		return offset, err
	}
	last := offset.Add(-int64(size))
	wantWord := isWordChar(first)
	for {
		rn, size, err := breader.PeekPrevChar(r)
		if err == io.EOF {
			return last, nil
		}
		if err != nil {
			return last, err
		}
		if isWordChar(rn) != wantWord {
			return last, nil
		}
		if _, _, err := breader.PrevChar(r); err != nil {
			return last, err
		}
		last = last.Add(-int64(size))
	}
}

var _ LineSource = (*Concrete)(nil)

func toLines(segs []delim.Segment) []Line {
	if len(segs) == 0 {
		return nil
	}
	out := make([]Line, len(segs))
	for i, s := range segs {
		out[i] = Line{Content: s.Content, Start: s.Start, End: s.End, Number: s.LineNumber}
	}
	return out
}
