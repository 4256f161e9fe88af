package symbol

import "testing"

func TestInternEquality(t *testing.T) {
	tbl := NewTable()
	a := tbl.Intern("foo")
	b := tbl.Intern("foo")
	c := tbl.Intern("bar")

	if a != b {
		t.Fatalf("interning the same string twice produced different symbols: %d != %d", a, b)
	}
	if a == c {
		t.Fatalf("interning different strings produced the same symbol")
	}
	if tbl.String(a) != "foo" || tbl.String(c) != "bar" {
		t.Fatalf("round trip through String lost the original text")
	}
}

func TestInternEmptyStringIsNone(t *testing.T) {
	tbl := NewTable()
	if sym := tbl.Intern(""); sym != None {
		t.Fatalf("interning \"\" should yield None, got %d", sym)
	}
}

func TestLenCountsDistinctNames(t *testing.T) {
	tbl := NewTable()
	tbl.Intern("a")
	tbl.Intern("b")
	tbl.Intern("a")
	if got := tbl.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestStringOutOfRange(t *testing.T) {
	tbl := NewTable()
	if s := tbl.String(Symbol(9999)); s != "" {
		t.Fatalf("String() on an unknown symbol should be \"\", got %q", s)
	}
}
