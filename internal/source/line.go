// Package source implements the concrete line source (§4.D): a backend
// (file or in-memory) paired with an optional line registry, exposing
// the line-oriented read operations every other layer (filter, search,
// viewport) is built on. Grounded on dtail's internal/io/fs/filereader.go
// for the interface shape and internal/io/line/line.go for the record
// fields, both generalized from "stream processed lines to a channel"
// to "random-access read by offset".
package source

import (
	"bytes"
	"io"
	"os"

	"github.com/mimecast/logview/internal/offsetint"
)

// Line is one record read from a source: content with no trailing
// newline, its byte range, an optional 0-based line number, and an
// optional highlight map keyed by collaborator (e.g. the filter's
// "FilteredLineSourceCustomData" key, or a search hit span).
type Line struct {
	Content    string
	Start, End offsetint.Offset
	Number     *int
	Custom     map[string]interface{}
}

// Data is an ordered sequence of Lines, used as the viewport cache.
// Start and End mirror the first line's Start and the last line's End.
type Data struct {
	Lines      []Line
	Start, End offsetint.Offset
}

// Backend abstracts where bytes come from: a file reopened per reader,
// or an in-memory buffer shared (read-only) across readers.
type Backend interface {
	Length() (int64, error)
	NewReader() (io.ReadSeeker, error)
}

// FileBackend re-opens Path for every NewReader call, so concurrent
// readers (foreground viewport, background indexer) never share a file
// descriptor's seek position.
type FileBackend struct {
	Path string
}

// Length stats the file.
func (b FileBackend) Length() (int64, error) {
	fi, err := os.Stat(b.Path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// NewReader opens a fresh, independently-seekable handle on the file.
func (b FileBackend) NewReader() (io.ReadSeeker, error) {
	return os.Open(b.Path)
}

// MemoryBackend wraps an immutable byte slice. Readers are independent
// *bytes.Reader values over the shared slice - safe because the slice
// is never mutated after construction.
type MemoryBackend struct {
	Data []byte
}

// Length returns the slice length.
func (b MemoryBackend) Length() (int64, error) {
	return int64(len(b.Data)), nil
}

// NewReader returns a fresh bytes.Reader over the shared slice.
func (b MemoryBackend) NewReader() (io.ReadSeeker, error) {
	return bytes.NewReader(b.Data), nil
}
