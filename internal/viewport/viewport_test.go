package viewport

import (
	"testing"

	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/source"
)

// Fixture: ten lines "Line0".."Line9", no trailing newline.
//
//	0 "Line0" [0,5)    5 "Line5" [30,35)
//	1 "Line1" [6,11)   6 "Line6" [36,41)
//	2 "Line2" [12,17)  7 "Line7" [42,47)
//	3 "Line3" [18,23)  8 "Line8" [48,53)
//	4 "Line4" [24,29)  9 "Line9" [54,59)
const fixture = "Line0\nLine1\nLine2\nLine3\nLine4\nLine5\nLine6\nLine7\nLine8\nLine9"

func newFixtureSource() *source.Concrete {
	return source.New(source.MemoryBackend{Data: []byte(fixture)})
}

func TestNewLoadsInitialPage(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cache := m.Cache()
	if len(cache) != 3 || cache[0].Content != "Line0" || cache[2].Content != "Line2" {
		t.Fatalf("unexpected initial cache: %+v", cache)
	}
}

func TestScrollForwardPastAPage(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Scroll(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ScrollOffset() != 12 {
		t.Fatalf("expected new scroll 12, got %d", m.ScrollOffset())
	}
	cache := m.Cache()
	if len(cache) != 3 || cache[0].Content != "Line2" || cache[2].Content != "Line4" {
		t.Fatalf("unexpected cache after scroll forward: %+v", cache)
	}
}

func TestScrollBackward(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Scroll(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Scroll(-1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ScrollOffset() != 6 {
		t.Fatalf("expected scroll back to 6, got %d", m.ScrollOffset())
	}
	cache := m.Cache()
	if cache[0].Content != "Line1" {
		t.Fatalf("unexpected top line after scrolling back: %+v", cache[0])
	}
}

func TestMoveCursorVerticalKeepsColumn(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.MoveCursor(ShiftY, 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Cursor() != 6 {
		t.Fatalf("expected cursor at line1 start (6), got %d", m.Cursor())
	}
}

func TestMoveCursorHorizontal(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.MoveCursor(ShiftY, 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.MoveCursor(ShiftX, 2, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Cursor() != 8 {
		t.Fatalf("expected cursor at offset 8 ('n' in Line1), got %d", m.Cursor())
	}
}

func TestSelectAllIsUnboundedAndLeavesCursor(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.MoveCursor(ShiftY, 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cursorBefore := m.Cursor()
	m.SelectAll()
	rng, ok := m.Selection()
	if !ok {
		t.Fatal("expected a selection after SelectAll")
	}
	if rng.Left.Present || rng.Right.Present {
		t.Fatalf("expected an unbounded selection, got %+v", rng)
	}
	if m.Cursor() != cursorBefore {
		t.Fatalf("expected SelectAll to leave the cursor alone, moved from %d to %d", cursorBefore, m.Cursor())
	}
}

func TestBringIntoViewWithinCacheOnlyAdjustsHorizontal(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.BringIntoView(6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ScrollOffset() != 0 {
		t.Fatalf("expected scroll to stay at 0 for an in-cache offset, got %d", m.ScrollOffset())
	}
}

func TestBringIntoViewBelowCacheScrolls(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.BringIntoView(54); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ScrollOffset() == 0 {
		t.Fatal("expected scroll to move to bring offset 54 into view")
	}
}

func TestMoveCursorToEndOnConcreteSource(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.MoveCursorToEnd(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Cursor() != offsetint.Offset(len(fixture)) {
		t.Fatalf("expected cursor at EOF (%d), got %d", len(fixture), m.Cursor())
	}
}

func TestFilterThenRevertRestoresConcreteSource(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.MoveCursor(ShiftY, 2, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	esc, err := m.Filter("Line5", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cache := m.Cache()
	if len(cache) != 1 || cache[0].Content != "Line5" {
		t.Fatalf("expected filtered cache to contain only Line5, got %+v", cache)
	}
	if m.Cursor() != 0 {
		t.Fatalf("expected filter to reset cursor to 0, got %d", m.Cursor())
	}

	esc()

	cache = m.Cache()
	if len(cache) != 3 || cache[0].Content != "Line0" {
		t.Fatalf("expected revert to restore the original cache, got %+v", cache)
	}
}

func TestStartSearchAndNextMatch(t *testing.T) {
	m, err := New(newFixtureSource(), 3, 80, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.StartSearch("Line3", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	occ, err := m.NextMatch(0) // search.Forward == 0
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if occ.Start != 18 {
		t.Fatalf("expected match at offset 18, got %d", occ.Start)
	}
	if m.Cursor() != 18 {
		t.Fatalf("expected cursor to follow the match, got %d", m.Cursor())
	}
}
