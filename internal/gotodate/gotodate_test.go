package gotodate

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/tasks"
)

// Fixture: five 17-byte lines ("2020-01-0X lineN\n"), dates 01,03,05,07,09.
//
//	0 [0,16)  "2020-01-01 line0"
//	1 [17,33) "2020-01-03 line1"
//	2 [34,50) "2020-01-05 line2"
//	3 [51,67) "2020-01-07 line3"
//	4 [68,84) "2020-01-09 line4"
//
// total length 85.
var fixtureLines = []string{
	"2020-01-01 line0",
	"2020-01-03 line1",
	"2020-01-05 line2",
	"2020-01-07 line3",
	"2020-01-09 line4",
}

var fixture = strings.Join(fixtureLines, "\n") + "\n"

func openFixture() (io.ReadSeeker, error) {
	return bytes.NewReader([]byte(fixture)), nil
}

type stubFormat struct{}

func (stubFormat) Parse(line string, guess GuessContext) (time.Time, bool) {
	if len(line) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", line[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (f stubFormat) ParseAndMatch(line string, guess GuessContext) (time.Time, Match, bool) {
	t, ok := f.Parse(line, guess)
	if !ok {
		return time.Time{}, Match{}, false
	}
	return t, Match{Start: 0, End: 10}, true
}

func date(day int) time.Time {
	return time.Date(2020, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestTakeLineForwardFindsContainingLine(t *testing.T) {
	r, _ := openFixture()
	content, start, end, parsed, ok, err := TakeLine(r, 0, offsetint.Offset(len(fixture)), 1, stubFormat{}, GuessContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || content != fixtureLines[0] || start != 0 || end != 16 {
		t.Fatalf("unexpected result: content=%q start=%d end=%d ok=%v", content, start, end, ok)
	}
	if !parsed.Equal(date(1)) {
		t.Fatalf("expected date 2020-01-01, got %v", parsed)
	}
}

func TestTakeLineForwardFromMidLine(t *testing.T) {
	r, _ := openFixture()
	// Offset 40 lands inside line 2 ("2020-01-05 line2", [34,50)).
	_, start, _, parsed, ok, err := TakeLine(r, 40, offsetint.Offset(len(fixture)), 1, stubFormat{}, GuessContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || start != 34 {
		t.Fatalf("expected to land on line 2's start (34), got %d (ok=%v)", start, ok)
	}
	if !parsed.Equal(date(5)) {
		t.Fatalf("expected date 2020-01-05, got %v", parsed)
	}
}

func TestTakeLineBackward(t *testing.T) {
	r, _ := openFixture()
	// Offset 83 lands inside line 4 ("2020-01-09 line4", [68,84)).
	_, start, _, parsed, ok, err := TakeLine(r, 83, 0, -1, stubFormat{}, GuessContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || start != 68 {
		t.Fatalf("expected to land on line 4's start (68), got %d (ok=%v)", start, ok)
	}
	if !parsed.Equal(date(9)) {
		t.Fatalf("expected date 2020-01-09, got %v", parsed)
	}
}

func TestTakeLineNoMatchBeforeBoundary(t *testing.T) {
	r, _ := openFixture()
	// Searching forward from offset 69, one byte past line 4's start,
	// with the boundary at 68: the search already starts past the
	// boundary, so no line is taken.
	_, _, _, _, ok, err := TakeLine(r, 69, 68, 1, stubFormat{}, GuessContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no match: the search starts past the boundary")
	}
}

func TestBisectFindsLeftmostLineAtOrAfterTarget(t *testing.T) {
	r, _ := openFixture()
	off, err := Bisect(nil, r, 0, offsetint.Offset(len(fixture)), date(5), stubFormat{}, GuessContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if off != 34 {
		t.Fatalf("expected bisection to land on line 2's start (34), got %d", off)
	}
}

func TestBisectCollapsesToEarliestOnAmbiguousTarget(t *testing.T) {
	// A target strictly between two known dates (01-04) still resolves
	// to the first line whose date is >= target, i.e. line 2 (01-05).
	r, _ := openFixture()
	off, err := Bisect(nil, r, 0, offsetint.Offset(len(fixture)), date(4), stubFormat{}, GuessContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if off != 34 {
		t.Fatalf("expected bisection to land on line 2's start (34), got %d", off)
	}
}

func TestGotoSpawnsTaskAndResolves(t *testing.T) {
	rt := tasks.NewRuntime(4)
	var result Result
	var taskErr error
	done := make(chan struct{})
	rt.Listen(func(s tasks.Signal) {
		if s.Kind == tasks.SignalComplete {
			taskErr = s.Err
			if r, ok := s.Result.(Result); ok {
				result = r
			}
			close(done)
		}
	})

	handle := Goto(rt, openFixture, int64(len(fixture)), date(7), stubFormat{}, GuessContext{})
	if handle.ID == 0 {
		t.Fatal("expected a non-zero task handle")
	}

	deadline := time.After(2 * time.Second)
	for {
		rt.Drain()
		select {
		case <-done:
			if taskErr != nil {
				t.Fatalf("unexpected task error: %v", taskErr)
			}
			if result.Offset != 51 || result.Line != fixtureLines[3] {
				t.Fatalf("unexpected result: %+v", result)
			}
			return
		case <-deadline:
			t.Fatal("go-to-date task never completed")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
