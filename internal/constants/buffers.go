package constants

// Buffer size constants in bytes
const (
	// LineBufferInitialCapacity is the initial capacity for line buffers (8KB)
	LineBufferInitialCapacity = 8192

	// ReadBufferSize is the size of read buffers (8KB)
	ReadBufferSize = 8192

	// MinChunkSize is the line registry's smallest allowed scan chunk (8KB, §4.B).
	MinChunkSize = 8 * 1024

	// DefaultChunkSize is the default chunk size for streaming reads (64KB).
	DefaultChunkSize = 64 * 1024

	// MaxChunkSize is the line registry's largest allowed scan chunk (1MB, §4.B).
	MaxChunkSize = 1024 * 1024
)
