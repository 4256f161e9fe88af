package values

import (
	"testing"

	"github.com/purelang/evalcore/internal/symbol"
)

func TestNewBindingsFromMapSortsBySymbol(t *testing.T) {
	syms := symbol.NewTable()
	c := syms.Intern("c")
	a := syms.Intern("a")
	b := syms.Intern("b")

	bindings := NewBindingsFromMap([]Binding{
		{Name: c, Value: Int(3)},
		{Name: a, Value: Int(1)},
		{Name: b, Value: Int(2)},
	})

	if bindings.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", bindings.Len())
	}
	for i := 1; i < bindings.Len(); i++ {
		if bindings.At(i-1).Name >= bindings.At(i).Name {
			t.Fatalf("bindings not sorted by symbol id: entry %d (%d) >= entry %d (%d)",
				i-1, bindings.At(i-1).Name, i, bindings.At(i).Name)
		}
	}

	v, ok := bindings.Get(b)
	if !ok || v.I != 2 {
		t.Fatalf("Get(b) = %v, %v; want Int(2), true", v, ok)
	}
	if _, ok := bindings.Get(symbol.Symbol(99999)); ok {
		t.Fatalf("Get on an absent symbol should report ok=false")
	}
}

func TestThunkUpdateInPlace(t *testing.T) {
	v := NewThunk(nil, nil)
	if v.IsWHNF() {
		t.Fatalf("a fresh thunk should not be WHNF")
	}
	result := Int(42)
	v.Update(result)
	if !v.IsWHNF() {
		t.Fatalf("after Update, a thunk cell should report WHNF")
	}
	if v.Kind != KindInt || v.I != 42 {
		t.Fatalf("Update did not overwrite the cell's fields in place: %+v", v)
	}
}

func TestStringContextUnionIsMonotone(t *testing.T) {
	a := NewStringContext(ContextElem{Kind: CtxOpaque, StorePath: "/store/a"})
	b := NewStringContext(ContextElem{Kind: CtxOpaque, StorePath: "/store/b"})
	u := Union(a, b)
	if len(u.Elems()) != 2 {
		t.Fatalf("Union of two singleton contexts should have 2 elements, got %d", len(u.Elems()))
	}
	for _, e := range a.Elems() {
		found := false
		for _, ue := range u.Elems() {
			if ue == e {
				found = true
			}
		}
		if !found {
			t.Fatalf("Union dropped an element from its left operand: %+v", e)
		}
	}
}
