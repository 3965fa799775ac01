// Package breader provides the byte/UTF-8 reader utilities (§4.A): safe
// forward and backward code point decoding over any seekable byte
// stream, plus a small bidirectional buffered reader (BufReader).
// Grounded on dtail's
// internal/io/fs/chunkedreader.go for the "assemble from chunks, handle
// partial sequences" shape, generalized here from "forward, line-mode
// only" to "either direction, any delimiter".
package breader

import (
	"errors"
	"io"
	"unicode/utf8"

	"github.com/mimecast/logview/internal/constants"
)

// ErrInvalidUTF8 is returned when a code point cannot be decoded.
var ErrInvalidUTF8 = errors.New("invalid utf-8 sequence")

// NextChar decodes one UTF-8 code point starting at r's current
// position, leaving the position just past it. Returns io.EOF at end of
// stream.
func NextChar(r io.ReadSeeker) (rune, int, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	buf := make([]byte, utf8.UTFMax)
	n, err := r.Read(buf)
	if n == 0 {
		if err == io.EOF || err == nil {
			return 0, 0, io.EOF
		}
		return 0, 0, err
	}
	buf = buf[:n]
	rn, size := utf8.DecodeRune(buf)
	if rn == utf8.RuneError && size <= 1 {
		return 0, 0, ErrInvalidUTF8
	}
	if _, err := r.Seek(pos+int64(size), io.SeekStart); err != nil {
		return 0, 0, err
	}
	return rn, size, nil
}

// PrevChar moves r's position one code point backward and returns it.
// Backward decode walks at most 3 continuation bytes before locating a
// lead byte; if the byte immediately before the current position is
// itself a continuation byte, decoding backs off further automatically -
// this is how backward scans resume mid-character. Returns io.EOF at the
// start of the stream.
func PrevChar(r io.ReadSeeker) (rune, int, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	if pos <= 0 {
		return 0, 0, io.EOF
	}
	start := pos - utf8.UTFMax
	if start < 0 {
		start = 0
	}
	length, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, 0, err
	}
	end := pos + utf8.UTFMax - 1
	if end > length {
		end = length
	}
	if end < pos {
		end = pos
	}
	buf := make([]byte, end-start)
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return 0, 0, err
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, 0, err
	}
	// A position inside a code point decodes that code point: the cut is
	// moved forward past its continuation bytes.
	cut := int(pos - start)
	for cut < len(buf) && !utf8.RuneStart(buf[cut]) {
		cut++
	}
	rn, size := utf8.DecodeLastRune(buf[:cut])
	if rn == utf8.RuneError && size <= 1 {
		return 0, 0, ErrInvalidUTF8
	}
	newPos := start + int64(cut-size)
	if _, err := r.Seek(newPos, io.SeekStart); err != nil {
		return 0, 0, err
	}
	return rn, size, nil
}

// PeekNextChar decodes the next code point without consuming it.
func PeekNextChar(r io.ReadSeeker) (rune, int, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	rn, size, err := NextChar(r)
	if _, seekErr := r.Seek(pos, io.SeekStart); seekErr != nil && err == nil {
		err = seekErr
	}
	return rn, size, err
}

// PeekPrevChar decodes the previous code point without consuming it.
func PeekPrevChar(r io.ReadSeeker) (rune, int, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	rn, size, err := PrevChar(r)
	if _, seekErr := r.Seek(pos, io.SeekStart); seekErr != nil && err == nil {
		err = seekErr
	}
	return rn, size, err
}

// SeekTo moves r to offset, saturating negative offsets at 0 and
// treating a seek past EOF as leaving the position at EOF.
func SeekTo(r io.ReadSeeker, offset int64) (int64, error) {
	if offset < 0 {
		offset = 0
	}
	length, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if offset > length {
		offset = length
	}
	return r.Seek(offset, io.SeekStart)
}

// BufReader is a small bidirectional buffered reader over a seekable
// stream.
type BufReader struct {
	r io.ReadSeeker
}

// NewBufReader wraps r.
func NewBufReader(r io.ReadSeeker) *BufReader {
	return &BufReader{r: r}
}

// ReadFluently advances r's position by delta bytes (positive or
// negative), invoking chunk once per buffer of bytes passed over, and
// returns the resulting position.
func (b *BufReader) ReadFluently(delta int64, chunk func([]byte)) (int64, error) {
	pos, err := b.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	if delta == 0 {
		return pos, nil
	}

	if delta > 0 {
		remaining := delta
		buf := make([]byte, constants.ReadBufferSize)
		for remaining > 0 {
			want := remaining
			if want > int64(len(buf)) {
				want = int64(len(buf))
			}
			n, err := b.r.Read(buf[:want])
			if n > 0 {
				chunk(buf[:n])
				remaining -= int64(n)
			}
			if err != nil {
				break
			}
		}
		return b.r.Seek(0, io.SeekCurrent)
	}

	target := pos + delta
	if target < 0 {
		target = 0
	}
	n := pos - target
	if n > 0 {
		buf := make([]byte, n)
		if _, err := b.r.Seek(target, io.SeekStart); err != nil {
			return 0, err
		}
		if _, err := io.ReadFull(b.r, buf); err != nil {
			return 0, err
		}
		chunk(buf)
	}
	return b.r.Seek(target, io.SeekStart)
}

// ReadBackwardsUntil walks r backward one byte at a time from the
// current position, calling stop on each byte, and leaves the position
// at the byte for which stop returned true (or at 0 if none did).
// Returns the resulting offset.
func (b *BufReader) ReadBackwardsUntil(stop func(byte) bool) (int64, error) {
	pos, err := b.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	cur := pos
	buf := make([]byte, 1)
	for cur > 0 {
		cur--
		if _, err := b.r.Seek(cur, io.SeekStart); err != nil {
			return 0, err
		}
		if _, err := io.ReadFull(b.r, buf); err != nil {
			return 0, err
		}
		if stop(buf[0]) {
			if _, err := b.r.Seek(cur, io.SeekStart); err != nil {
				return 0, err
			}
			return cur, nil
		}
	}
	if _, err := b.r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return 0, nil
}
