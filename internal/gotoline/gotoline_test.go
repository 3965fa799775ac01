package gotoline

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/mimecast/logview/internal/registry"
	"github.com/mimecast/logview/internal/tasks"
)

// Fixture: five lines, 4 bytes each including the newline ("AAA\n" etc),
// total length 20. Line k (0-based) starts at offset 4*k.
const fixture = "AAA\nBBB\nCCC\nDDD\nEEE\n"

func openFixture() (io.ReadSeeker, error) {
	return bytes.NewReader([]byte(fixture)), nil
}

func TestResolveLineOneIsAlwaysOffsetZero(t *testing.T) {
	off, _, ok, err := Resolve(nil, int64(len(fixture)), openFixture, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || off != 0 {
		t.Fatalf("expected synchronous offset 0, got %d (ok=%v)", off, ok)
	}
}

func TestResolveFromRegistryWhenKnown(t *testing.T) {
	reg := registry.New()
	r, _ := openFixture()
	if err := reg.Build(context.Background(), r, nil, nil); err != nil {
		t.Fatalf("unexpected error building registry: %v", err)
	}

	// Line 3 (1-based) is "CCC", starting at offset 8.
	off, _, ok, err := Resolve(reg, int64(len(fixture)), openFixture, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a synchronous resolution once the registry is fully built")
	}
	if off != 8 {
		t.Fatalf("expected offset 8, got %d", off)
	}
}

func TestResolveSpawnsTaskWhenRegistryUnavailable(t *testing.T) {
	rt := tasks.NewRuntime(4)
	var result Result
	done := make(chan struct{})
	rt.Listen(func(s tasks.Signal) {
		if s.Kind == tasks.SignalComplete {
			if r, ok := s.Result.(Result); ok {
				result = r
			}
			close(done)
		}
	})

	off, handle, ok, err := Resolve(nil, int64(len(fixture)), openFixture, 4, rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected an asynchronous resolution with no registry")
	}
	if handle.ID == 0 {
		t.Fatal("expected a non-zero task handle")
	}
	_ = off

	deadline := time.After(2 * time.Second)
	for {
		rt.Drain()
		select {
		case <-done:
			if result.Offset != 12 {
				t.Fatalf("expected line 4 ('DDD') at offset 12, got %d", result.Offset)
			}
			return
		case <-deadline:
			t.Fatal("go-to-line task never completed")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestResolveReportsNotFoundPastEOF(t *testing.T) {
	rt := tasks.NewRuntime(4)
	var taskErr error
	done := make(chan struct{})
	rt.Listen(func(s tasks.Signal) {
		if s.Kind == tasks.SignalComplete {
			taskErr = s.Err
			close(done)
		}
	})

	_, _, ok, err := Resolve(nil, int64(len(fixture)), openFixture, 50, rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected an asynchronous resolution")
	}

	deadline := time.After(2 * time.Second)
	for {
		rt.Drain()
		select {
		case <-done:
			if taskErr == nil {
				t.Fatal("expected an error for a line number past EOF")
			}
			return
		case <-deadline:
			t.Fatal("go-to-line task never completed")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
