// Package offsetint provides the wide signed integer logview uses for every
// byte offset. A plain int64 already covers any file a single process can
// seek into; the point of this type is documenting (and centralizing) the
// "tolerates transient negatives" contract described for the model's offset
// arithmetic, e.g. "one before start" expressions at the origin.
package offsetint

// Offset is a byte position in a seekable stream. It is allowed to go
// transiently negative during arithmetic (e.g. start-1); callers that need
// a real position must clamp with Clamp before using it to seek.
type Offset int64

// Zero is the start of any stream.
const Zero Offset = 0

// Add returns o+delta.
func (o Offset) Add(delta int64) Offset {
	return o + Offset(delta)
}

// Sub returns the signed distance o-other.
func (o Offset) Sub(other Offset) int64 {
	return int64(o - other)
}

// IsNegative reports whether o fell below zero.
func (o Offset) IsNegative() bool {
	return o < 0
}

// Clamp saturates a transiently negative offset to Zero.
func (o Offset) Clamp() Offset {
	if o < 0 {
		return Zero
	}
	return o
}

// Int64 returns the plain int64 value.
func (o Offset) Int64() int64 {
	return int64(o)
}

// Less reports whether o comes before other.
func (o Offset) Less(other Offset) bool {
	return o < other
}

// Min returns the smaller of two offsets.
func Min(a, b Offset) Offset {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two offsets.
func Max(a, b Offset) Offset {
	if a > b {
		return a
	}
	return b
}
