package regex

import "testing"

func TestCompileLiteralDetection(t *testing.T) {
	m, err := Compile("ERROR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.IsLiteral() {
		t.Error("expected ERROR to compile as literal")
	}

	m, err = Compile("ba.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.IsLiteral() {
		t.Error("expected ba. to compile as regex, not literal")
	}
}

func TestMatchStringLiteral(t *testing.T) {
	m, _ := Compile("bar")
	if !m.MatchString("foo bar baz") {
		t.Error("expected match")
	}
	if m.MatchString("foo baz") {
		t.Error("expected no match")
	}
}

func TestFindAllStringIndexRegexScenario(t *testing.T) {
	m, err := Compile("ba.")
	if err != nil {
		t.Fatal(err)
	}
	spans := m.FindAllStringIndex("Foo bar")
	if len(spans) != 1 || spans[0] != [2]int{4, 7} {
		t.Errorf("expected [[4 7]], got %v", spans)
	}
}

func TestFindAllStringIndexLiteralNonOverlapping(t *testing.T) {
	m, _ := Compile("aa")
	spans := m.FindAllStringIndex("aaaa")
	if len(spans) != 2 || spans[0] != [2]int{0, 2} || spans[1] != [2]int{2, 4} {
		t.Errorf("expected [[0 2] [2 4]], got %v", spans)
	}
}

func TestLastStringIndex(t *testing.T) {
	m, _ := Compile("ba.")
	last := m.LastStringIndex("bar baz", 7)
	if last == nil || last[0] != 4 || last[1] != 7 {
		t.Errorf("expected [4 7], got %v", last)
	}
	last = m.LastStringIndex("bar baz", 4)
	if last == nil || last[0] != 0 || last[1] != 3 {
		t.Errorf("expected [0 3] (bounded by upto=4), got %v", last)
	}
}

func TestMatchStringEmptyPatternNeverMatches(t *testing.T) {
	m, _ := Compile("")
	if m.MatchString("anything") {
		t.Error("expected empty pattern to never match")
	}
}
