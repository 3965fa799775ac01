// Package filter implements the foreseeing filter and the filtered line
// source (§4.F): a predicate plus ±k neighbourhood expansion laid over a
// concrete source, presenting a contiguous virtual ("proxy") offset
// space. Grounded on dtail's internal/io/fs/readfilelcontext.go, which
// already implements "N lines of context before/after a match" as a
// one-pass streaming scan; here it is generalized into a random-access,
// lazily-extended view driven by internal/offsetmap.
package filter

import (
	"io"
	"sync"
	"time"

	"github.com/mimecast/logview/internal/constants"
	"github.com/mimecast/logview/internal/delim"
	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/offsetmap"
	"github.com/mimecast/logview/internal/regex"
	"github.com/mimecast/logview/internal/registry"
	"github.com/mimecast/logview/internal/source"
	"github.com/mimecast/logview/internal/tasks"
)

// MatchKind is the outcome of Foreseeing.Lookup (§4.F).
type MatchKind int

const (
	PreciseMatch MatchKind = iota
	NeighbourMatch
	NoMatch
	EOF
)

// Result is one Lookup outcome.
type Result struct {
	Kind       MatchKind
	Line       source.Line
	Spans      [][2]int          // valid when Kind == PreciseMatch
	NextOffset offsetint.Offset // valid when Kind == NoMatch
}

// Foreseeing is the pure predicate-plus-neighbourhood scanner (§4.F). A
// bounded LRU of line-level match results (size ≥ 2k+1) prevents
// re-scanning the same lines as the neighbourhood window slides.
type Foreseeing struct {
	Src     *source.Concrete
	Pattern regex.Matcher
	K       int

	mu    sync.Mutex
	order []offsetint.Offset
	cache map[offsetint.Offset][][2]int
}

// NewForeseeing returns a Foreseeing filter over src with the given
// pattern and neighbourhood k (clamped to [0, constants.MaxNeighbourhood]).
func NewForeseeing(src *source.Concrete, pattern regex.Matcher, k int) *Foreseeing {
	if k < 0 {
		k = 0
	}
	if k > constants.MaxNeighbourhood {
		k = constants.MaxNeighbourhood
	}
	return &Foreseeing{
		Src:     src,
		Pattern: pattern,
		K:       k,
		cache:   make(map[offsetint.Offset][][2]int),
	}
}

// spansFor returns (and caches) the match spans for the line starting at
// lineStart with the given content.
func (f *Foreseeing) spansFor(lineStart offsetint.Offset, content string) [][2]int {
	f.mu.Lock()
	if spans, ok := f.cache[lineStart]; ok {
		for i, o := range f.order {
			if o == lineStart {
				f.order = append(append(f.order[:i:i], f.order[i+1:]...), lineStart)
				break
			}
		}
		f.mu.Unlock()
		return spans
	}
	f.mu.Unlock()

	spans := f.Pattern.FindAllStringIndex(content)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cache[lineStart]; !ok {
		size := constants.FilterLRUSize
		if 2*f.K+1 > size {
			size = 2*f.K + 1
		}
		if len(f.order) >= size {
			evict := f.order[0]
			f.order = f.order[1:]
			delete(f.cache, evict)
		}
		f.order = append(f.order, lineStart)
	}
	f.cache[lineStart] = spans
	return spans
}

// Lookup resolves the line containing offset to one of PreciseMatch,
// NeighbourMatch, NoMatch, or EOF (§4.F).
func (f *Foreseeing) Lookup(offset offsetint.Offset) (Result, error) {
	line, err := f.Src.ReadNextLine(offset)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return Result{Kind: EOF}, nil
		}
		return Result{}, err
	}

	spans := f.spansFor(line.Start, line.Content)
	if len(spans) > 0 {
		return Result{Kind: PreciseMatch, Line: line, Spans: spans}, nil
	}

	if f.K > 0 {
		if before, err := f.Src.ReadLines(line.Start.Add(-1), -f.K); err != nil {
			return Result{}, err
		} else if f.anyMatches(before) {
			return Result{Kind: NeighbourMatch, Line: line}, nil
		}
		after, err := f.Src.ReadLines(line.End.Add(1), f.K)
		if err != nil {
			return Result{}, err
		}
		if f.anyMatches(after) {
			return Result{Kind: NeighbourMatch, Line: line}, nil
		}
	}

	return Result{Kind: NoMatch, NextOffset: line.End.Add(1)}, nil
}

func (f *Foreseeing) anyMatches(lines []source.Line) bool {
	for _, l := range lines {
		if len(f.spansFor(l.Start, l.Content)) > 0 {
			return true
		}
	}
	return false
}

// State is the filtered source's lifecycle stage (§4.F state machine).
type State int

const (
	Fresh State = iota
	Lazy
	Scanning
	Complete
)

// Filtered is the virtual line source (§4.F): filtered lines
// concatenated with single-byte breaks, no gaps. Implements
// source.LineSource.
type Filtered struct {
	base       *source.Concrete
	foreseeing *Foreseeing
	mapper     *offsetmap.Mapper
	reg        *registry.Registry
	runtime    *tasks.Runtime

	mu          sync.Mutex
	state       State
	length      int64 // -1 until Complete
	scanHandle  *tasks.Handle
	trackingNum bool
}

// New wraps base with a filter predicate and neighbourhood k. runtime
// may be nil, in which case StartEagerScan runs the scan on its own
// goroutine without the semaphore bound.
func New(base *source.Concrete, pattern regex.Matcher, k int, runtime *tasks.Runtime) *Filtered {
	return &Filtered{
		base:       base,
		foreseeing: NewForeseeing(base, pattern, k),
		mapper:     offsetmap.New(),
		reg:        registry.New(),
		runtime:    runtime,
		state:      Fresh,
		length:     -1,
	}
}

// Underlying returns the concrete source this filter wraps - used by
// "destroy" (§4.F state machine: "any -> destroy -> returns the
// underlying concrete source").
func (f *Filtered) Underlying() *source.Concrete {
	return f.base
}

func (f *Filtered) markLazy() {
	f.mu.Lock()
	if f.state == Fresh {
		f.state = Lazy
	}
	f.mu.Unlock()
}

// resolve maps a proxy offset to its original-source offset and the
// delta (original - proxy) in force at that point, extending the
// mapper via the foreseeing filter when the proxy is beyond what's
// already known (§4.F steps 1-4).
func (f *Filtered) resolve(proxy offsetint.Offset) (original offsetint.Offset, delta int64, err error) {
	f.markLazy()
	res := f.mapper.Eval(proxy)
	switch res.Kind {
	case offsetmap.Exact:
		return res.Original, res.Original.Sub(proxy), nil
	case offsetmap.LastConfirmed:
		return f.extendFrom(res.ResumeProxy, res.ResumeOriginal)
	default: // Unpredictable
		return f.extendFrom(0, 0)
	}
}

// extendFrom drives the foreseeing filter forward from originalN until
// the next matching line, records the pivot, and returns the matched
// line's original start plus the delta now in force.
func (f *Filtered) extendFrom(proxyN, originalN offsetint.Offset) (offsetint.Offset, int64, error) {
	cur := originalN
	for {
		res, err := f.foreseeing.Lookup(cur)
		if err != nil {
			return 0, 0, err
		}
		switch res.Kind {
		case EOF:
			f.setComplete(proxyN)
			return 0, 0, errors.ErrNotFound
		case PreciseMatch, NeighbourMatch:
			if err := f.mapper.Add(proxyN, res.Line.Start); err != nil {
				return 0, 0, err
			}
			lineLen := res.Line.End.Sub(res.Line.Start)
			f.mapper.Confirm(proxyN.Add(lineLen + 1))
			return res.Line.Start, res.Line.Start.Sub(proxyN), nil
		default: // NoMatch
			cur = res.NextOffset
		}
	}
}

func (f *Filtered) setComplete(proxy offsetint.Offset) {
	f.mu.Lock()
	f.state = Complete
	f.length = proxy.Int64()
	f.mu.Unlock()
}

// ReadNextLine implements source.LineSource.
func (f *Filtered) ReadNextLine(proxy offsetint.Offset) (source.Line, error) {
	original, delta, err := f.resolve(proxy)
	if err != nil {
		return source.Line{}, err
	}
	line, err := f.base.ReadNextLine(original)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			f.setComplete(proxy)
		}
		return source.Line{}, err
	}
	return f.rebase(line, delta), nil
}

// ReadPrevLine implements source.LineSource. Backward browsing reuses
// the same forward-built mapper: resolving a proxy offset never scans
// backward past what the foreseeing filter has already confirmed.
func (f *Filtered) ReadPrevLine(proxy offsetint.Offset) (source.Line, error) {
	original, delta, err := f.resolve(proxy)
	if err != nil {
		return source.Line{}, err
	}
	line, err := f.base.ReadPrevLine(original)
	if err != nil {
		return source.Line{}, err
	}
	return f.rebase(line, delta), nil
}

func (f *Filtered) rebase(line source.Line, delta int64) source.Line {
	spans := f.foreseeing.spansFor(line.Start, line.Content)
	custom := map[string]interface{}{}
	if len(spans) > 0 {
		custom["FilteredLineSourceCustomData"] = spans
	}
	return source.Line{
		Content: line.Content,
		Start:   line.Start.Add(-delta),
		End:     line.End.Add(-delta),
		Number:  line.Number,
		Custom:  custom,
	}
}

// ReadLines implements source.LineSource: reads up to n virtual lines
// forward (n > 0) or backward (n < 0) from proxy offset.
func (f *Filtered) ReadLines(offset offsetint.Offset, n int) ([]source.Line, error) {
	if n == 0 {
		return nil, nil
	}
	count := n
	if count < 0 {
		count = -count
	}
	var lines []source.Line
	cur := offset
	for i := 0; i < count; i++ {
		var (
			ln  source.Line
			err error
		)
		if n > 0 {
			ln, err = f.ReadNextLine(cur)
		} else {
			ln, err = f.ReadPrevLine(cur)
		}
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				break
			}
			return nil, err
		}
		if n > 0 {
			lines = append(lines, ln)
			cur = ln.End.Add(1)
		} else {
			lines = append([]source.Line{ln}, lines...)
			cur = ln.Start.Add(-1)
		}
	}
	return lines, nil
}

// ReadRaw implements source.LineSource: reads proxy bytes [start, end)
// by fetching successive virtual lines, each followed by its single
// '\n' separator byte (§4.F).
func (f *Filtered) ReadRaw(start, end offsetint.Offset) (string, error) {
	if end.Int64() <= start.Int64() {
		return "", nil
	}
	var b []byte
	cur := start
	for cur.Int64() < end.Int64() {
		line, err := f.ReadNextLine(cur)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				break
			}
			return "", err
		}
		content := line.Content
		lo := int64(0)
		if cur.Int64() > line.Start.Int64() {
			lo = cur.Int64() - line.Start.Int64()
		}
		hi := int64(len(content))
		if end.Int64() < line.End.Int64() {
			hi = end.Int64() - line.Start.Int64()
		}
		if lo < hi {
			b = append(b, content[lo:hi]...)
		}
		if end.Int64() > line.End.Int64() {
			b = append(b, '\n')
		}
		cur = line.End.Add(1)
	}
	return string(b), nil
}

// SkipToken implements source.LineSource. It operates within the
// virtual line containing offset only - word-wise motion never needs to
// cross a filtered line boundary in practice, since a neighbourhood of
// matched lines is always at least one full line wide.
func (f *Filtered) SkipToken(offset offsetint.Offset, direction int) (offsetint.Offset, error) {
	line, err := f.ReadNextLine(offset)
	if err != nil {
		return offset, err
	}
	rel := int(offset.Int64() - line.Start.Int64())
	content := line.Content
	if rel < 0 || rel >= len(content) {
		return offset, nil
	}

	type rpos struct {
		byteIdx int
		r       rune
	}
	var positions []rpos
	for i, r := range content {
		positions = append(positions, rpos{i, r})
	}
	idx := 0
	for i, p := range positions {
		if p.byteIdx == rel {
			idx = i
			break
		}
	}

	want := !delim.IsWordDelimiter(positions[idx].r)
	endByteOf := func(i int) int {
		if i+1 < len(positions) {
			return positions[i+1].byteIdx
		}
		return len(content)
	}

	if direction >= 0 {
		i := idx
		for i+1 < len(positions) && (!delim.IsWordDelimiter(positions[i+1].r)) == want {
			i++
		}
		return line.Start.Add(int64(endByteOf(i) - 1)), nil
	}
	i := idx
	for i-1 >= 0 && (!delim.IsWordDelimiter(positions[i-1].r)) == want {
		i--
	}
	return line.Start.Add(int64(positions[i].byteIdx)), nil
}

// TrackLineNumber implements source.LineSource by forwarding to the
// underlying concrete source; filtered-view line numbers are the
// underlying source's line numbers, unaffected by filtering.
func (f *Filtered) TrackLineNumber(on bool) {
	f.mu.Lock()
	f.trackingNum = on
	f.mu.Unlock()
	f.base.TrackLineNumber(on)
}

// GetLineRegistry returns this filtered source's own registry of
// proxy-space line breaks, built incrementally by the eager scan.
func (f *Filtered) GetLineRegistry() *registry.Registry {
	return f.reg
}

// GetLength returns the filtered source's total virtual byte length,
// available only once the eager scan has completed (§4.F, §7
// LengthUnknown).
func (f *Filtered) GetLength() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Complete {
		return 0, errors.ErrLengthUnknown
	}
	return f.length, nil
}

// State reports the filtered source's current lifecycle stage.
func (f *Filtered) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// StartEagerScan launches the background scan that streams the base
// backend and confirms the mapper up to EOF, so GetLength becomes
// available (§4.F "Background eager scan"). A no-op if already scanning
// or complete.
func (f *Filtered) StartEagerScan() {
	f.mu.Lock()
	if f.state == Scanning || f.state == Complete {
		f.mu.Unlock()
		return
	}
	f.state = Scanning
	f.mu.Unlock()

	scan := func(ctx *tasks.Context) (any, error) {
		watermarkProxy, watermarkOriginal, ok := f.mapper.GetHighestKnown()
		if !ok {
			watermarkProxy, watermarkOriginal = 0, 0
		}
		cur := watermarkOriginal
		proxyCur := watermarkProxy
		sinceFlush := 0
		lastFlush := time.Now()
		for {
			if ctx != nil && ctx.InterruptedDebounced() {
				f.mu.Lock()
				if f.state == Scanning {
					f.state = Lazy
				}
				f.mu.Unlock()
				return nil, errors.ErrCancelled
			}
			res, err := f.foreseeing.Lookup(cur)
			if err != nil {
				return nil, err
			}
			if res.Kind == EOF {
				f.setComplete(proxyCur)
				if ctx != nil {
					ctx.SendMessage(f.length)
				}
				return f.length, nil
			}
			if res.Kind == PreciseMatch || res.Kind == NeighbourMatch {
				if err := f.mapper.Add(proxyCur, res.Line.Start); err != nil {
					return nil, err
				}
				lineLen := res.Line.End.Sub(res.Line.Start)
				f.reg.Push(proxyCur.Add(lineLen))
				proxyCur = proxyCur.Add(lineLen + 1)
				f.mapper.Confirm(proxyCur)
				cur = res.Line.End.Add(1)
				sinceFlush++
				if sinceFlush >= constants.EagerScanBatchLines || time.Since(lastFlush) >= constants.EagerScanBatchInterval {
					sinceFlush = 0
					lastFlush = time.Now()
					if ctx != nil {
						ctx.UpdateProgress(0)
					}
				}
			} else {
				cur = res.NextOffset
			}
		}
	}

	if f.runtime != nil {
		f.scanHandle = new(tasks.Handle)
		*f.scanHandle = f.runtime.Spawn("filter scan", "scanning for matches", scan)
		return
	}
	go func() { _, _ = scan(nil) }()
}

// Reader returns a fresh io.ReadSeeker over the filtered (proxy) byte
// space, for callers (e.g. internal/search) that need direct access
// outside the line-oriented API. Only available once the eager scan has
// completed, since the virtual length must be known up front to answer
// Seek(io.SeekEnd).
func (f *Filtered) Reader() (io.ReadSeeker, error) {
	length, err := f.GetLength()
	if err != nil {
		return nil, err
	}
	return &virtualReader{f: f, length: length}, nil
}

type virtualReader struct {
	f      *Filtered
	pos    int64
	length int64
}

func (v *virtualReader) Read(p []byte) (int, error) {
	if v.pos >= v.length {
		return 0, io.EOF
	}
	end := v.pos + int64(len(p))
	if end > v.length {
		end = v.length
	}
	s, err := v.f.ReadRaw(offsetint.Offset(v.pos), offsetint.Offset(end))
	if err != nil {
		return 0, err
	}
	n := copy(p, s)
	v.pos += int64(n)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (v *virtualReader) Seek(offset int64, whence int) (int64, error) {
	var np int64
	switch whence {
	case io.SeekStart:
		np = offset
	case io.SeekCurrent:
		np = v.pos + offset
	case io.SeekEnd:
		np = v.length + offset
	default:
		return 0, errors.ErrInvalidArgument
	}
	if np < 0 {
		return 0, errors.ErrInvalidArgument
	}
	v.pos = np
	return np, nil
}

var _ source.LineSource = (*Filtered)(nil)
