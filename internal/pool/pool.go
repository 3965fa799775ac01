// Package pool recycles the byte buffers the delimited reader and line
// registry allocate on every segment/chunk read, since a log viewer
// re-reads the same hot region of a file constantly while scrolling.
// Grounded on dtail's internal/io/pool/bytesbuffer.go.
package pool

import (
	"bytes"
	"sync"
)

// BytesBuffer pools *bytes.Buffer values sized for one typical log line.
var BytesBuffer = sync.Pool{
	New: func() interface{} {
		b := &bytes.Buffer{}
		b.Grow(4096)
		return b
	},
}

// Get returns a reset buffer from the pool.
func Get() *bytes.Buffer {
	b := BytesBuffer.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// Put recycles b for later reuse.
func Put(b *bytes.Buffer) {
	BytesBuffer.Put(b)
}
