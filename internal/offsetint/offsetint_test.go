package offsetint

import "testing"

func TestAddAndSub(t *testing.T) {
	o := Offset(10)
	if got := o.Add(-15); got != -5 {
		t.Fatalf("expected -5, got %d", got)
	}
	if got := Offset(10).Sub(Offset(3)); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestIsNegativeAndClamp(t *testing.T) {
	o := Offset(0).Add(-1)
	if !o.IsNegative() {
		t.Fatal("expected -1 to be negative")
	}
	if got := o.Clamp(); got != Zero {
		t.Fatalf("expected Clamp to saturate to Zero, got %d", got)
	}
	if got := Offset(5).Clamp(); got != 5 {
		t.Fatalf("expected Clamp to leave a non-negative offset untouched, got %d", got)
	}
}

func TestLess(t *testing.T) {
	if !Offset(1).Less(Offset(2)) {
		t.Fatal("expected 1 < 2")
	}
	if Offset(2).Less(Offset(2)) {
		t.Fatal("expected 2 not less than 2")
	}
}

func TestMinMax(t *testing.T) {
	if got := Min(Offset(3), Offset(7)); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := Max(Offset(3), Offset(7)); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}
