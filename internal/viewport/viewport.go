// Package viewport implements the viewport/cursor model (§4.J): the
// single stateful owner of what's on screen — the active line source,
// the scroll position, the cursor, the selection, and the current
// search. Grounded on dtail's internal/clients/handlers/interactive
// cursor/viewport bookkeeping style (fetch-then-clamp around a cached
// window), generalized from a log-tailing pager to random-access
// scroll/cursor/selection over any source.LineSource.
package viewport

import (
	"io"
	"sort"

	"github.com/rivo/uniseg"

	"github.com/mimecast/logview/internal/constants"
	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/filter"
	"github.com/mimecast/logview/internal/interval"
	"github.com/mimecast/logview/internal/navsearch"
	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/regex"
	"github.com/mimecast/logview/internal/search"
	"github.com/mimecast/logview/internal/source"
	"github.com/mimecast/logview/internal/tasks"
)

// Shift is the kind of cursor motion requested by move_cursor (§4.J).
type Shift int

const (
	ShiftX Shift = iota
	ShiftY
	TokenForward
	TokenBackward
)

// reader is the capability a LineSource exposes for direct byte access,
// used by search. Both source.Concrete and filter.Filtered implement it.
type reader interface {
	Reader() (io.ReadSeeker, error)
}

// graphemeCell is one rendered column position (§9 "Grapheme math").
type graphemeCell struct {
	OriginalByteOffset int
	RenderedByteOffset int
	IsFirstInOriginal  bool
}

// graphemeLayout walks content's grapheme clusters once, producing the
// (original, rendered, is-first) triples moveCursor's horizontal shift
// binary-searches.
func graphemeLayout(content string) []graphemeCell {
	var cells []graphemeCell
	state := -1
	boff := 0
	for len(content) > 0 {
		_, rest, width, newState := uniseg.FirstGraphemeClusterInString(content, state)
		if width <= 0 {
			width = 1
		}
		cells = append(cells, graphemeCell{OriginalByteOffset: boff, RenderedByteOffset: len(cells), IsFirstInOriginal: true})
		for w := 1; w < width; w++ {
			cells = append(cells, graphemeCell{OriginalByteOffset: boff, RenderedByteOffset: len(cells), IsFirstInOriginal: false})
		}
		boff += len(content) - len(rest)
		content = rest
		state = newState
	}
	return cells
}

// Model is the viewport/cursor model (§4.J).
type Model struct {
	src     source.LineSource
	prevSrc source.LineSource // set while a filter is active, for Esc revert
	runtime *tasks.Runtime

	height, width int
	scroll        offsetint.Offset
	hScroll       int
	cache         []source.Line

	cursor offsetint.Offset
	column int // sticky display column for vertical motion

	hasSelection bool
	selectAll    bool
	selAnchor    offsetint.Offset

	showLineNumbers bool
	dateFormat      string
	theme           interface{}

	nav *navsearch.Navigable

	escHandler func()
}

// New constructs a Model over src with an initial viewport size, reading
// the first page into the cache.
func New(src source.LineSource, height, width int, runtime *tasks.Runtime) (*Model, error) {
	m := &Model{src: src, height: height, width: width, runtime: runtime}
	lines, err := src.ReadLines(0, height)
	if err != nil {
		return nil, err
	}
	m.cache = lines
	return m, nil
}

// Cache returns the current cached page of lines (the data render, §4.J).
func (m *Model) Cache() []source.Line { return m.cache }

// Cursor returns the cursor's current byte offset.
func (m *Model) Cursor() offsetint.Offset { return m.cursor }

// ScrollOffset returns the top of the cached window.
func (m *Model) ScrollOffset() offsetint.Offset { return m.scroll }

// HorizontalScroll returns the current horizontal scroll, in graphemes.
func (m *Model) HorizontalScroll() int { return m.hScroll }

// SetDateFormat records the date format hint used by go-to-date.
func (m *Model) SetDateFormat(f string) { m.dateFormat = f }

// DateFormat returns the current date format hint.
func (m *Model) DateFormat() string { return m.dateFormat }

// SetShowLineNumbers toggles the line-number gutter.
func (m *Model) SetShowLineNumbers(on bool) { m.showLineNumbers = on }

// ShowLineNumbers reports whether the line-number gutter is shown.
func (m *Model) ShowLineNumbers() bool { return m.showLineNumbers }

func (m *Model) refreshCache(top offsetint.Offset) error {
	lines, err := m.src.ReadLines(top, m.height)
	if err != nil {
		return err
	}
	m.scroll = top
	m.cache = lines
	return nil
}

// SetViewportHeight implements §4.J set_viewport_height: refreshes the
// cache at the current scroll offset with the new height, rejecting the
// change (keeping the previous height and cache) if fewer than h lines
// come back while scroll > 0 - i.e. the resize would show a short page
// that isn't actually at EOF-minus-one-page.
func (m *Model) SetViewportHeight(h int) error {
	lines, err := m.src.ReadLines(m.scroll, h)
	if err != nil {
		return err
	}
	if len(lines) < h && m.scroll.Int64() > 0 {
		return errors.Wrapf(errors.ErrInvalidState, "viewport height %d would not fill from scroll %d", h, m.scroll.Int64())
	}
	m.height = h
	m.cache = lines
	return nil
}

// SetViewportWidth implements §4.J set_viewport_width: stores the new
// width and clamps horizontal scroll so it never hides the cursor's
// current column.
func (m *Model) SetViewportWidth(w int) {
	m.width = w
	if w > 0 && m.column >= m.hScroll+w {
		m.hScroll = m.column - w + 1
	}
}

// Scroll implements §4.J scroll(Δlines).
func (m *Model) Scroll(delta int) error {
	if delta == 0 {
		return nil
	}
	if delta > 0 {
		lines, err := m.src.ReadLines(m.scroll, delta+m.height)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		var top offsetint.Offset
		if len(lines) > m.height {
			top = lines[len(lines)-m.height].Start
		} else {
			top = lines[0].Start
		}
		return m.refreshCache(top)
	}

	lines, err := m.src.ReadLines(m.scroll.Add(-1), delta) // delta is negative: n lines backward
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return m.refreshCache(lines[0].Start)
}

// lineIndexFor returns the index in m.cache of the line containing
// offset, via binary search on each line's Start, or -1 if offset falls
// outside the cache.
func (m *Model) lineIndexFor(offset offsetint.Offset) int {
	i := sort.Search(len(m.cache), func(i int) bool {
		return m.cache[i].Start.Int64() > offset.Int64()
	})
	i--
	if i < 0 || i >= len(m.cache) {
		return -1
	}
	if offset.Int64() < m.cache[i].Start.Int64() || offset.Int64() > m.cache[i].End.Int64() {
		return -1
	}
	return i
}

func lineAtColumn(line source.Line, column int) offsetint.Offset {
	cells := graphemeLayout(line.Content)
	first := firstInOriginalCells(cells)
	if len(first) == 0 {
		return line.Start
	}
	idx := column
	if idx >= len(first) {
		idx = len(first) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return line.Start.Add(int64(first[idx].OriginalByteOffset))
}

func firstInOriginalCells(cells []graphemeCell) []graphemeCell {
	out := cells[:0:0]
	for _, c := range cells {
		if c.IsFirstInOriginal {
			out = append(out, c)
		}
	}
	return out
}

func columnOf(line source.Line, offset offsetint.Offset) int {
	rel := int(offset.Int64() - line.Start.Int64())
	cells := graphemeLayout(line.Content)
	col := 0
	for _, c := range cells {
		if !c.IsFirstInOriginal {
			continue
		}
		if c.OriginalByteOffset >= rel {
			return col
		}
		col++
	}
	return col
}

// MoveCursor implements §4.J move_cursor.
func (m *Model) MoveCursor(shift Shift, amount int, adjustSelection bool) error {
	old := m.cursor

	switch shift {
	case ShiftY:
		if err := m.moveVertical(amount); err != nil {
			return err
		}
	case ShiftX:
		if err := m.moveHorizontal(amount); err != nil {
			return err
		}
	case TokenForward:
		next, err := m.src.SkipToken(m.cursor, 1)
		if err != nil {
			return err
		}
		m.cursor = next
		m.syncColumn()
	case TokenBackward:
		next, err := m.src.SkipToken(m.cursor, -1)
		if err != nil {
			return err
		}
		m.cursor = next
		m.syncColumn()
	}

	m.applySelection(old, adjustSelection)
	return m.BringIntoView(m.cursor)
}

func (m *Model) syncColumn() {
	if idx := m.lineIndexFor(m.cursor); idx >= 0 {
		m.column = columnOf(m.cache[idx], m.cursor)
	}
}

func (m *Model) moveVertical(dy int) error {
	idx := m.lineIndexFor(m.cursor)
	var line source.Line
	if idx >= 0 {
		line = m.cache[idx]
	} else {
		l, err := m.src.ReadNextLine(m.cursor)
		if err != nil {
			return err
		}
		line = l
	}

	step := 1
	if dy < 0 {
		step = -1
	}
	for i := 0; i < abs(dy); i++ {
		var (
			next source.Line
			err  error
		)
		if step > 0 {
			next, err = m.src.ReadNextLine(line.End.Add(1))
		} else {
			next, err = m.src.ReadPrevLine(line.Start.Add(-1))
		}
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				break
			}
			return err
		}
		line = next
	}

	m.cursor = lineAtColumn(line, m.column)
	return nil
}

func (m *Model) moveHorizontal(dx int) error {
	idx := m.lineIndexFor(m.cursor)
	var line source.Line
	if idx >= 0 {
		line = m.cache[idx]
	} else {
		l, err := m.src.ReadNextLine(m.cursor)
		if err != nil {
			return err
		}
		line = l
	}

	cells := firstInOriginalCells(graphemeLayout(line.Content))
	rel := int(m.cursor.Int64() - line.Start.Int64())
	cur := 0
	for i, c := range cells {
		if c.OriginalByteOffset <= rel {
			cur = i
		}
	}

	target := cur + dx
	for target < 0 {
		prev, err := m.src.ReadPrevLine(line.Start.Add(-1))
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				target = 0
				break
			}
			return err
		}
		line = prev
		cells = firstInOriginalCells(graphemeLayout(line.Content))
		target += len(cells)
		if target < 0 {
			target = 0
		}
	}
	for target >= len(cells) {
		next, err := m.src.ReadNextLine(line.End.Add(1))
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				target = len(cells) - 1
				break
			}
			return err
		}
		target -= len(cells)
		line = next
		cells = firstInOriginalCells(graphemeLayout(line.Content))
		if target >= len(cells) {
			continue
		}
	}
	if target < 0 {
		target = 0
	}
	if len(cells) == 0 {
		m.cursor = line.Start
	} else if target < len(cells) {
		m.cursor = line.Start.Add(int64(cells[target].OriginalByteOffset))
	} else {
		m.cursor = line.End
	}
	m.column = target
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (m *Model) applySelection(old offsetint.Offset, adjustSelection bool) {
	if !adjustSelection {
		m.hasSelection = false
		m.selectAll = false
		return
	}
	if m.selectAll {
		return
	}
	if !m.hasSelection {
		m.selAnchor = old
		m.hasSelection = true
	}
}

// Selection returns the current selection range, if any (§4.J).
func (m *Model) Selection() (interval.Interval[offsetint.Offset], bool) {
	if m.selectAll {
		return interval.All[offsetint.Offset](), true
	}
	if !m.hasSelection {
		return interval.Interval[offsetint.Offset]{}, false
	}
	a, b := m.selAnchor, m.cursor
	if b.Int64() < a.Int64() {
		a, b = b, a
	}
	return interval.New[offsetint.Offset](interval.Closed(a), interval.Open(b)), true
}

// SelectAll sets the selection to [0, +∞), leaving the cursor untouched
// (§4.J).
func (m *Model) SelectAll() {
	m.hasSelection = true
	m.selectAll = true
}

// ClearSelection drops the current selection.
func (m *Model) ClearSelection() {
	m.hasSelection = false
	m.selectAll = false
}

// BringIntoView implements §4.J bring_into_view.
func (m *Model) BringIntoView(offset offsetint.Offset) error {
	if idx := m.lineIndexFor(offset); idx >= 0 {
		col := columnOf(m.cache[idx], offset)
		if col < m.hScroll {
			m.hScroll = col
		} else if m.width > 0 && col >= m.hScroll+m.width {
			m.hScroll = col - m.width + 1
		}
		return nil
	}

	if m.height == 0 {
		return nil
	}

	if offset.Int64() > m.scroll.Int64() {
		gap := offset.Int64() - m.scroll.Int64()
		if gap < constants.BringIntoViewMaxScan {
			n := 0
			cur := offset
			for cur.Int64() > m.scroll.Int64() && n < m.height*4 {
				prev, err := m.src.ReadPrevLine(cur.Add(-1))
				if err != nil {
					break
				}
				cur = prev.Start
				n++
			}
			return m.Scroll(n)
		}
		return m.refreshCache(offsetint.Offset(offset.Int64() - int64(m.height/2)).Clamp())
	}

	gap := m.scroll.Int64() - offset.Int64()
	if gap < constants.BringIntoViewMaxScan {
		n := 0
		cur := offset
		for cur.Int64() < m.scroll.Int64() && n < m.height*4 {
			next, err := m.src.ReadNextLine(cur)
			if err != nil {
				break
			}
			cur = next.End.Add(1)
			n++
		}
		return m.Scroll(-n)
	}
	return m.refreshCache(offsetint.Offset(offset.Int64() - int64(m.height/2)).Clamp())
}

// lengthSource is implemented by both source.Concrete and
// filter.Filtered: GetLength is only meaningful on those, not on the
// bare LineSource interface (§9 "Multi-variant line sources").
type lengthSource interface {
	GetLength() (int64, error)
}

// MoveCursorToEnd implements §4.J move_cursor_to_end. If the active
// source is a filtered source whose eager scan hasn't completed, it
// starts the scan and returns ErrLengthUnknown; the caller is expected
// to retry once the scan's Complete signal arrives.
func (m *Model) MoveCursorToEnd() error {
	ls, ok := m.src.(lengthSource)
	if !ok {
		return errors.ErrInvalidState
	}
	length, err := ls.GetLength()
	if err != nil {
		if f, ok := m.src.(*filter.Filtered); ok && errors.Is(err, errors.ErrLengthUnknown) {
			f.StartEagerScan()
		}
		return err
	}
	m.cursor = offsetint.Offset(length)
	m.column = 0
	return m.BringIntoView(m.cursor)
}

// Filter implements §4.J filter(pattern, k): wraps the active source
// (unwrapping a prior filter if present) in a new filter.Filtered, makes
// it active, and resets scroll/cursor/selection while preserving the
// date format. RevertFilter is registered as the returned Esc handler.
func (m *Model) Filter(pattern string, k int) (func(), error) {
	matcher, err := regex.Compile(pattern)
	if err != nil {
		return nil, err
	}

	base := m.src
	if f, ok := base.(*filter.Filtered); ok {
		base = f.Underlying()
	}
	concrete, ok := base.(*source.Concrete)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidState, "filter requires a concrete source")
	}

	prev := m.src
	f := filter.New(concrete, matcher, k, m.runtime)
	m.prevSrc = prev
	m.src = f
	m.scroll = offsetint.Zero
	m.cursor = offsetint.Zero
	m.column = 0
	m.hasSelection = false
	m.selectAll = false
	m.nav = nil

	if err := m.refreshCache(offsetint.Zero); err != nil {
		return nil, err
	}

	m.escHandler = func() { _ = m.RevertFilter() }
	return m.escHandler, nil
}

// RevertFilter restores the source that was active before the last
// Filter call, if any.
func (m *Model) RevertFilter() error {
	if m.prevSrc == nil {
		return nil
	}
	m.src = m.prevSrc
	m.prevSrc = nil
	m.escHandler = nil
	m.scroll = offsetint.Zero
	m.cursor = offsetint.Zero
	m.column = 0
	m.hasSelection = false
	m.selectAll = false
	m.nav = nil
	return m.refreshCache(offsetint.Zero)
}

// EscHandler returns the handler registered by the last Filter call, or
// nil if no filter is active.
func (m *Model) EscHandler() func() { return m.escHandler }

// StartSearch begins a new navigable search over the active source from
// the current cursor (§4.H, §4.J "current search").
func (m *Model) StartSearch(pattern string, isRegex bool) error {
	var searcher search.Searcher
	if isRegex {
		matcher, err := regex.Compile(pattern)
		if err != nil {
			return err
		}
		searcher = search.Regex{Matcher: matcher}
	} else {
		searcher = search.Literal{Pattern: pattern}
	}
	m.nav = navsearch.New(searcher, m.cursor)
	return nil
}

// NextMatch advances the current search in dir, moving the cursor to
// (and bringing into view) the resulting occurrence.
func (m *Model) NextMatch(dir search.Direction) (search.Occurrence, error) {
	if m.nav == nil {
		return search.Occurrence{}, errors.Wrap(errors.ErrInvalidState, "no active search")
	}
	rd, ok := m.src.(reader)
	if !ok {
		return search.Occurrence{}, errors.Wrap(errors.ErrInvalidState, "active source has no reader")
	}
	r, err := rd.Reader()
	if err != nil {
		return search.Occurrence{}, err
	}
	if closer, ok := r.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	occ, err := m.nav.NextOccurrence(r, dir)
	if err != nil {
		return search.Occurrence{}, err
	}
	m.cursor = occ.Start
	m.column = 0
	if err := m.BringIntoView(m.cursor); err != nil {
		return occ, err
	}
	return occ, nil
}
