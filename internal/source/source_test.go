package source

import (
	"testing"
	"time"

	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/testutil"
)

func TestMemoryBackendReadLines(t *testing.T) {
	c := New(MemoryBackend{Data: []byte("AAA\nBBB\nCCC")})
	lines, err := c.ReadLines(0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 || lines[0].Content != "AAA" || lines[2].Content != "CCC" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	length, err := c.GetLength()
	if err != nil || length != 11 {
		t.Errorf("expected length 11, got %d (%v)", length, err)
	}
}

func TestFileBackendReadLines(t *testing.T) {
	path := testutil.TempFile(t, "one\ntwo\nthree\n")
	c := New(FileBackend{Path: path})
	lines, err := c.ReadLines(0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 || lines[1].Content != "two" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestReadNextLineNotFoundPastEOF(t *testing.T) {
	c := New(MemoryBackend{Data: []byte("AAA")})
	_, err := c.ReadNextLine(3)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReadRaw(t *testing.T) {
	c := New(MemoryBackend{Data: []byte("hello world")})
	s, err := c.ReadRaw(6, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "world" {
		t.Errorf("expected world, got %q", s)
	}
}

func TestSkipTokenForwardOverWord(t *testing.T) {
	c := New(MemoryBackend{Data: []byte("hello world")})
	end, err := c.SkipToken(0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if end != 4 {
		t.Errorf("expected to land on offset 4 (last char of 'hello'), got %d", end)
	}
}

func TestSkipTokenForwardOverDelimiter(t *testing.T) {
	c := New(MemoryBackend{Data: []byte("hello world")})
	end, err := c.SkipToken(5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if end != 5 {
		t.Errorf("expected to land on offset 5 (the single space), got %d", end)
	}
}

func TestSkipTokenBackward(t *testing.T) {
	c := New(MemoryBackend{Data: []byte("hello world")})
	start, err := c.SkipToken(11, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != 6 {
		t.Errorf("expected to land on offset 6 (first char of 'world'), got %d", start)
	}
}

func TestTrackLineNumberAnnotatesOnceBuilt(t *testing.T) {
	c := New(MemoryBackend{Data: []byte("AAA\nBBB\nCCC")})
	c.TrackLineNumber(true)
	if c.GetLineRegistry() == nil {
		t.Fatal("expected a registry once tracking is on")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		lines, err := c.ReadLines(0, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lines) == 1 && lines[0].Number != nil {
			if *lines[0].Number != 0 {
				t.Errorf("expected line number 0, got %d", *lines[0].Number)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("registry never finished building in time")
}
