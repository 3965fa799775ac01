package offsetmap

import (
	"testing"

	"github.com/mimecast/logview/internal/errors"
	"github.com/mimecast/logview/internal/offsetint"
)

func TestEvalUnpredictableWithNoPivots(t *testing.T) {
	m := New()
	r := m.Eval(0)
	if r.Kind != Unpredictable {
		t.Errorf("expected Unpredictable, got %v", r.Kind)
	}
}

func TestAddAndEvalExact(t *testing.T) {
	m := New()
	if err := m.Add(0, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Confirm(10)
	r := m.Eval(5)
	if r.Kind != Exact || r.Original != 15 {
		t.Errorf("expected Exact(15), got %v %d", r.Kind, r.Original)
	}
}

func TestAddRejectsNonMonotonic(t *testing.T) {
	m := New()
	if err := m.Add(10, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := m.Add(5, 5)
	if !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAddExtendsSegmentWithSameDelta(t *testing.T) {
	m := New()
	if err := m.Add(0, 10); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(5, 15); err != nil {
		t.Fatal(err)
	}
	if len(m.pivots) != 1 {
		t.Fatalf("expected the second pivot to extend the first, got %d pivots", len(m.pivots))
	}
	if m.pivots[0].proxy != 5 {
		t.Errorf("expected pivot to have advanced to proxy 5, got %d", m.pivots[0].proxy)
	}
}

func TestAddKeepsSeparatePivotOnDeltaChange(t *testing.T) {
	m := New()
	if err := m.Add(0, 10); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(5, 20); err != nil {
		t.Fatal(err)
	}
	if len(m.pivots) != 2 {
		t.Fatalf("expected 2 pivots, got %d", len(m.pivots))
	}
	r := m.Eval(5)
	if r.Kind != Exact || r.Original != 20 {
		t.Errorf("expected Exact(20) using the new delta, got %v %d", r.Kind, r.Original)
	}
}

func TestConfirmCarriesDeltaForward(t *testing.T) {
	m := New()
	if err := m.Add(0, 10); err != nil {
		t.Fatal(err)
	}
	m.Confirm(100)
	proxy, original, ok := m.GetHighestKnown()
	if !ok || proxy != 100 || original != 110 {
		t.Errorf("expected (100,110), got (%d,%d,%v)", proxy, original, ok)
	}
}

func TestEvalBeyondWatermarkReturnsLastConfirmed(t *testing.T) {
	m := New()
	if err := m.Add(0, 10); err != nil {
		t.Fatal(err)
	}
	m.Confirm(50)
	r := m.Eval(60)
	if r.Kind != LastConfirmed || r.ResumeProxy != 50 || r.ResumeOriginal != 60 {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestEvalWithinConfirmedWatermarkIsExact(t *testing.T) {
	m := New()
	if err := m.Add(0, 10); err != nil {
		t.Fatal(err)
	}
	m.Confirm(50)
	r := m.Eval(30)
	if r.Kind != Exact || r.Original != 40 {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestAddSameDeltaDoesNotReplaceConfirmedWatermarkPivot(t *testing.T) {
	m := New()
	if err := m.Add(0, 10); err != nil {
		t.Fatal(err)
	}
	m.Confirm(0)
	if err := m.Add(5, 15); err != nil {
		t.Fatal(err)
	}
	if len(m.pivots) != 2 {
		t.Fatalf("expected the confirmed pivot to be preserved and a new one appended, got %d pivots", len(m.pivots))
	}
}

func TestOffsetSubMatchesDelta(t *testing.T) {
	a := offsetint.Offset(15)
	b := offsetint.Offset(5)
	if a.Sub(b) != 10 {
		t.Errorf("expected 10, got %d", a.Sub(b))
	}
}
