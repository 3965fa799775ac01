package delim

import (
	"context"
	"strings"
	"testing"

	"github.com/mimecast/logview/internal/offsetint"
	"github.com/mimecast/logview/internal/registry"
)

func mustRegistry(t *testing.T, data string) *registry.Registry {
	t.Helper()
	reg := registry.New()
	if err := reg.Build(context.Background(), strings.NewReader(data), nil, nil); err != nil {
		t.Fatalf("unexpected error building registry: %v", err)
	}
	return reg
}

func assertSegs(t *testing.T, got []Segment, want [][2]int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d segments, got %d (%+v)", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Start.Int64() != w[0] || got[i].End.Int64() != w[1] {
			t.Errorf("segment %d: expected (%d,%d), got (%d,%d) content=%q",
				i, w[0], w[1], got[i].Start.Int64(), got[i].End.Int64(), got[i].Content)
		}
	}
}

func TestReadLinesForwardBasic(t *testing.T) {
	data := "AAA\nBBB\nCCC"
	r := strings.NewReader(data)
	segs, err := ReadLines(r, 0, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, [][2]int64{{0, 3}, {4, 7}, {8, 11}})
	for i, want := range []string{"AAA", "BBB", "CCC"} {
		if segs[i].Content != want {
			t.Errorf("segment %d: expected %q, got %q", i, want, segs[i].Content)
		}
	}
}

func TestReadLinesBackwardBasic(t *testing.T) {
	data := "AAA\nBBB\nCCC"
	r := strings.NewReader(data)
	segs, err := ReadLines(r, 5, -2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, [][2]int64{{0, 3}, {4, 7}})
}

func TestReadLinesBackwardFromEOF(t *testing.T) {
	data := "AAA\nBBB\nCCC"
	r := strings.NewReader(data)
	segs, err := ReadLines(r, offsetint.Offset(len(data)), -2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, [][2]int64{{4, 7}, {8, 11}})
}

func TestReadLinesEmptyLines(t *testing.T) {
	data := "AAA\n\n\nCCC"
	r := strings.NewReader(data)
	segs, err := ReadLines(r, 4, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, [][2]int64{{4, 4}, {5, 5}, {6, 9}})
	if segs[2].Content != "CCC" {
		t.Errorf("expected CCC, got %q", segs[2].Content)
	}
}

func TestReadLinesPastEOFReturnsFewer(t *testing.T) {
	data := "AAA\nBBB\nCCC"
	r := strings.NewReader(data)
	segs, err := ReadLines(r, 12, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if segs != nil {
		t.Errorf("expected no segments past EOF, got %+v", segs)
	}
}

func TestReadLinesTrailingDelimiterProducesEmptySegment(t *testing.T) {
	data := "AAA\n"
	r := strings.NewReader(data)
	segs, err := ReadLines(r, 0, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, [][2]int64{{0, 3}, {4, 4}})
}

func TestReadDelimitedTrailingDelimiterNoEmptyWhenDisallowed(t *testing.T) {
	data := "AAA\n"
	r := strings.NewReader(data)
	segs, err := ReadDelimited(r, 0, 2, false, nil, isNewline)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, [][2]int64{{0, 3}})
}

func TestReadLinesTrimsCRLF(t *testing.T) {
	data := "AAA\r\nBBB"
	r := strings.NewReader(data)
	segs, err := ReadLines(r, 0, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, [][2]int64{{0, 3}, {5, 8}})
	if segs[0].Content != "AAA" {
		t.Errorf("expected AAA with CR trimmed, got %q", segs[0].Content)
	}
}

func TestReadLinesUTF8(t *testing.T) {
	data := "€\nBBB"
	r := strings.NewReader(data)
	segs, err := ReadLines(r, 0, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, [][2]int64{{0, 3}})
	if segs[0].Content != "€" {
		t.Errorf("expected euro sign, got %q", segs[0].Content)
	}
}

func TestReadLinesExactlyEOFReturnsNoSegments(t *testing.T) {
	data := "AAA"
	r := strings.NewReader(data)
	segs, err := ReadLines(r, offsetint.Offset(len(data)), 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if segs != nil {
		t.Errorf("expected no segments reading forward from EOF, got %+v", segs)
	}
}

func TestReadLinesBackwardFromZeroReturnsNoSegments(t *testing.T) {
	data := "AAA\nBBB"
	r := strings.NewReader(data)
	segs, err := ReadLines(r, 0, -1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if segs != nil {
		t.Errorf("expected no segments reading backward from 0, got %+v", segs)
	}
}

func TestReadLinesNegativeOneFromZero(t *testing.T) {
	data := ""
	r := strings.NewReader(data)
	segs, err := ReadLines(r, 0, -1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if segs != nil {
		t.Errorf("expected no segments, got %+v", segs)
	}
}

func TestReadLinesAnnotatesLineNumber(t *testing.T) {
	data := "AAA\nBBB\nCCC"
	reg := mustRegistry(t, data)
	r := strings.NewReader(data)
	segs, err := ReadLines(r, 0, 3, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, seg := range segs {
		if seg.LineNumber == nil || *seg.LineNumber != i {
			t.Errorf("segment %d: expected line number %d, got %v", i, i, seg.LineNumber)
		}
	}
}

func TestReadWordsForward(t *testing.T) {
	data := "Word1 word2  word3    Word4\tword_5"
	r := strings.NewReader(data)
	segs, err := ReadWords(r, 0, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, [][2]int64{{0, 5}, {6, 11}, {13, 18}, {22, 27}})
	for i, want := range []string{"Word1", "word2", "word3", "Word4"} {
		if segs[i].Content != want {
			t.Errorf("segment %d: expected %q, got %q", i, want, segs[i].Content)
		}
	}
}

func TestReadWordsSkipsEmptyRuns(t *testing.T) {
	data := "a,,b"
	r := strings.NewReader(data)
	segs, err := ReadWords(r, 0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSegs(t, segs, [][2]int64{{0, 1}, {3, 4}})
}

func TestReadDelimitedZeroCountReturnsNil(t *testing.T) {
	r := strings.NewReader("AAA\nBBB")
	segs, err := ReadDelimited(r, 0, 0, true, nil, isNewline)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if segs != nil {
		t.Errorf("expected nil for n=0, got %+v", segs)
	}
}

func TestReadLinesForwardRoundTripContainsOffset(t *testing.T) {
	data := "one\ntwo\nthree\nfour\n"
	r := strings.NewReader(data)
	fwd, err := ReadLines(r, 8, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fwd) != 1 || fwd[0].Content != "three" {
		t.Fatalf("expected [three], got %+v", fwd)
	}
	if fwd[0].Start.Int64() > 8 || fwd[0].End.Int64() < 8 {
		t.Errorf("round trip invariant violated: offset 8 not within [%d,%d)", fwd[0].Start.Int64(), fwd[0].End.Int64())
	}
}
