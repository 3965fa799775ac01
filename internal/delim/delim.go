// Package delim implements the delimited reader (§4.C): splitting a
// seekable byte stream into runs bounded by a caller-supplied delimiter
// predicate, in either direction from an arbitrary byte offset. Line
// mode and word mode are both instances of the same engine with
// different predicates and trimming rules. Grounded on dtail's
// internal/io/fs/chunkedreader.go (chunked, resumable scanning) and
// internal/io/fs/readfilelcontext.go (reading a line's neighbourhood by
// walking outward from an anchor offset).
package delim

import (
	"io"
	"unicode"

	"github.com/mimecast/logview/internal/breader"
	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/pool"
	"github.com/mimecast/logview/internal/registry"
)

// Segment is one delimiter-bounded run. Start and End mark the content
// range [Start, End); the delimiter bytes, if any, lie at [End, End+d)
// for some d the caller never needs to know. LineNumber is set only when
// a registry was supplied (ReadLines or ReadDelimited).
type Segment struct {
	Content    string
	Start, End offsetint.Offset
	LineNumber *int
}

func isNewline(r rune) bool { return r == '\n' }

// IsWordDelimiter reports whether r separates tokens in word mode: any
// code point that isn't a letter, digit or underscore.
func IsWordDelimiter(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

// ReadLines reads up to n newline-delimited segments forward (n > 0) or
// backward (n < 0) from offset, trimming trailing \r\n from content and
// annotating LineNumber when reg is non-nil.
func ReadLines(r io.ReadSeeker, offset offsetint.Offset, n int, reg *registry.Registry) ([]Segment, error) {
	return read(r, offset, n, true, true, isNewline, reg)
}

// ReadWords reads up to n token segments forward or backward from
// offset, skipping runs of delimiters without counting them as empty
// segments.
func ReadWords(r io.ReadSeeker, offset offsetint.Offset, n int) ([]Segment, error) {
	return read(r, offset, n, false, false, IsWordDelimiter, nil)
}

// ReadDelimited is the general entry point (§4.C): split on isDelimiter,
// optionally keeping empty runs. It never trims a trailing \r; only
// ReadLines does.
func ReadDelimited(r io.ReadSeeker, offset offsetint.Offset, n int, allowEmpty bool,
	reg *registry.Registry, isDelimiter func(rune) bool) ([]Segment, error) {
	return read(r, offset, n, allowEmpty, false, isDelimiter, reg)
}

func streamLength(r io.ReadSeeker) (offsetint.Offset, error) {
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return offsetint.Offset(end), nil
}

func read(r io.ReadSeeker, offset offsetint.Offset, n int, allowEmpty, trimCR bool,
	isDelimiter func(rune) bool, reg *registry.Registry) ([]Segment, error) {

	if n == 0 || offset.IsNegative() {
		return nil, nil
	}
	length, err := streamLength(r)
	if err != nil {
		return nil, err
	}
	if offset.Int64() > length.Int64() {
		return nil, nil
	}
	count := n
	if count < 0 {
		count = -count
	}

	var segs []Segment
	if n > 0 {
		if offset == length {
			return nil, nil
		}
		segs, err = readForward(r, offset, count, allowEmpty, trimCR, isDelimiter, length)
	} else {
		if offset == 0 {
			return nil, nil
		}
		segs, err = readBackward(r, offset, count, allowEmpty, trimCR, isDelimiter, length)
	}
	if err != nil {
		return nil, err
	}
	annotate(segs, reg)
	return segs, nil
}

func annotate(segs []Segment, reg *registry.Registry) {
	if reg == nil || len(segs) == 0 {
		return
	}
	base, err := lineNumberAt(reg, segs[0].Start)
	if err != nil {
		return
	}
	for i := range segs {
		ln := base + i
		segs[i].LineNumber = &ln
	}
}

// lineNumberAt returns the 0-based line number of the segment starting
// at offset: the count of newlines strictly before it.
func lineNumberAt(reg *registry.Registry, offset offsetint.Offset) (int, error) {
	n := 0
	for {
		off, err := reg.FindOffsetByLineNumber(n)
		if err != nil {
			// Past the last known newline: if offset lies within the
			// indexed bytes, all n newlines before it are known.
			if n == reg.Len() && offset.Int64() <= reg.Crawled().Int64() {
				return n, nil
			}
			return 0, err
		}
		if off >= offset {
			return n, nil
		}
		n++
	}
}

// scanSegStart finds the start of the segment containing anchor: walk
// backward over non-delimiter code points until a delimiter or the
// start of the stream is reached.
func scanSegStart(r io.ReadSeeker, anchor offsetint.Offset, isDelimiter func(rune) bool) (offsetint.Offset, error) {
	pos := anchor
	for {
		if pos == 0 {
			return 0, nil
		}
		if _, err := r.Seek(pos.Int64(), io.SeekStart); err != nil {
			return 0, err
		}
		rn, size, err := breader.PeekPrevChar(r)
		if err == io.EOF {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		if isDelimiter(rn) {
			return pos, nil
		}
		pos = pos.Add(-int64(size))
	}
}

// segmentBounds reads forward from start, returning the content end
// offset (exclusive of any delimiter), whether EOF was reached before a
// delimiter, and the raw (untrimmed) delimiter offset.
func segmentBounds(r io.ReadSeeker, start offsetint.Offset, trimCR bool,
	isDelimiter func(rune) bool, length offsetint.Offset) (end offsetint.Offset, eof bool, err error) {

	if _, err = r.Seek(start.Int64(), io.SeekStart); err != nil {
		return 0, false, err
	}
	pos := start
	for {
		rn, size, rerr := breader.NextChar(r)
		if rerr == io.EOF {
			return length, true, nil
		}
		if rerr != nil {
			return 0, false, rerr
		}
		if isDelimiter(rn) {
			rawEnd := pos
			if trimCR && rn == '\n' && rawEnd.Int64() > start.Int64() {
				if _, serr := r.Seek(rawEnd.Int64(), io.SeekStart); serr != nil {
					return 0, false, serr
				}
				prn, psize, perr := breader.PeekPrevChar(r)
				if perr == nil && prn == '\r' && psize == 1 {
					rawEnd = rawEnd.Add(-1)
				}
			}
			return rawEnd, false, nil
		}
		pos = pos.Add(int64(size))
	}
}

func content(r io.ReadSeeker, start, end offsetint.Offset) (string, error) {
	n := end.Int64() - start.Int64()
	if n <= 0 {
		return "", nil
	}
	if _, err := r.Seek(start.Int64(), io.SeekStart); err != nil {
		return "", err
	}
	buf := pool.Get()
	defer pool.Put(buf)
	if _, err := io.CopyN(buf, r, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func readForward(r io.ReadSeeker, offset offsetint.Offset, count int, allowEmpty, trimCR bool,
	isDelimiter func(rune) bool, length offsetint.Offset) ([]Segment, error) {

	segStart, err := scanSegStart(r, offset, isDelimiter)
	if err != nil {
		return nil, err
	}

	var segs []Segment
	pos := segStart
	for len(segs) < count {
		end, eof, err := segmentBounds(r, pos, trimCR, isDelimiter, length)
		if err != nil {
			return nil, err
		}
		text, err := content(r, pos, end)
		if err != nil {
			return nil, err
		}
		if end.Int64() > pos.Int64() || allowEmpty {
			segs = append(segs, Segment{Content: text, Start: pos, End: end})
		}
		if eof {
			break
		}
		// Advance past the delimiter: find where the next segment starts
		// by scanning forward from end over exactly one delimiter match.
		next, err := delimiterEnd(r, end)
		if err != nil {
			return nil, err
		}
		pos = next
		if pos.Int64() >= length.Int64() {
			if pos.Int64() == length.Int64() {
				if !eof && (allowEmpty) && len(segs) < count {
					segs = append(segs, Segment{Content: "", Start: pos, End: pos})
				}
			}
			break
		}
	}
	return segs, nil
}

// delimiterEnd returns the offset just past the matched delimiter
// starting at contentEnd, consuming a trailing \r\n pair as a single
// two-byte delimiter.
func delimiterEnd(r io.ReadSeeker, contentEnd offsetint.Offset) (offsetint.Offset, error) {
	if _, err := r.Seek(contentEnd.Int64(), io.SeekStart); err != nil {
		return 0, err
	}
	rn, size, err := breader.NextChar(r)
	if err == io.EOF {
		return contentEnd, nil
	}
	if err != nil {
		return 0, err
	}
	pos := contentEnd.Add(int64(size))
	if rn == '\r' {
		// peek: is the next char '\n'? If so it's part of the same delimiter.
		rn2, size2, err2 := breader.PeekNextChar(r)
		if err2 == nil && rn2 == '\n' {
			pos = pos.Add(int64(size2))
		}
	}
	return pos, nil
}

func readBackward(r io.ReadSeeker, offset offsetint.Offset, count int, allowEmpty, trimCR bool,
	isDelimiter func(rune) bool, length offsetint.Offset) ([]Segment, error) {

	var collected []Segment

	// offset == length is handled the same way as any other anchor: the
	// backward scan from EOF naturally finds the last segment, whether
	// or not the stream ends with a delimiter.
	segStart, err := scanSegStart(r, offset, isDelimiter)
	if err != nil {
		return nil, err
	}
	end, _, err := segmentBounds(r, segStart, trimCR, isDelimiter, length)
	if err != nil {
		return nil, err
	}
	text, err := content(r, segStart, end)
	if err != nil {
		return nil, err
	}
	if end.Int64() > segStart.Int64() || allowEmpty {
		collected = append(collected, Segment{Content: text, Start: segStart, End: end})
	}
	pos := segStart

	for len(collected) < count && pos.Int64() > 0 {
		delimStart, err := delimiterStart(r, pos, trimCR)
		if err != nil {
			return nil, err
		}
		prevStart, err := scanSegStart(r, delimStart, isDelimiter)
		if err != nil {
			return nil, err
		}
		text, err := content(r, prevStart, delimStart)
		if err != nil {
			return nil, err
		}
		if delimStart.Int64() > prevStart.Int64() || allowEmpty {
			collected = append(collected, Segment{Content: text, Start: prevStart, End: delimStart})
		}
		pos = prevStart
	}

	if len(collected) > count {
		collected = collected[:count]
	}
	// collected is nearest-to-offset first; reverse to source order.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected, nil
}

// delimiterStart returns the content-end offset of the segment
// immediately preceding pos, i.e. pos minus the width of the delimiter
// that ends there (1 byte for '\n', 2 for '\r\n' when trimCR applies).
func delimiterStart(r io.ReadSeeker, pos offsetint.Offset, trimCR bool) (offsetint.Offset, error) {
	if _, err := r.Seek(pos.Int64(), io.SeekStart); err != nil {
		return 0, err
	}
	rn, size, err := breader.PrevChar(r)
	if err != nil {
		return 0, err
	}
	end := pos.Add(-int64(size))
	if trimCR && rn == '\n' && end.Int64() > 0 {
		if _, err := r.Seek(end.Int64(), io.SeekStart); err != nil {
			return 0, err
		}
		prn, psize, perr := breader.PeekPrevChar(r)
		if perr == nil && prn == '\r' && psize == 1 {
			end = end.Add(-1)
		}
	}
	return end, nil
}
