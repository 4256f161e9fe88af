package builtins_test

import (
	"testing"

	"github.com/purelang/evalcore/internal/settings"
	"github.com/purelang/evalcore/internal/values"
	"github.com/purelang/evalcore/pkg/langcore"
)

func eval(t *testing.T, src string) *values.Value {
	t.Helper()
	e := langcore.New(langcore.Options{Settings: settings.Default()})
	v, err := e.EvalDeep("<test>", src)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func TestMapAttrsStaysLazyPerEntry(t *testing.T) {
	// one entry throws; as long as it's never selected, mapAttrs must
	// not have forced it eagerly.
	v := eval(t, `(builtins.mapAttrs (n: v: if n == "ok" then v + 1 else throw "forced") {
		ok = 1;
		bad = 2;
	}).ok`)
	if v.Kind != values.KindInt || v.I != 2 {
		t.Fatalf("got %+v, want Int(2)", v)
	}
}

func TestRemoveAttrsDropsNamedKeys(t *testing.T) {
	v := eval(t, `builtins.attrNames (builtins.removeAttrs { a = 1; b = 2; c = 3; } ["b"])`)
	if v.Kind != values.KindList || len(v.List) != 2 {
		t.Fatalf("got %+v, want a 2-element list", v)
	}
}

func TestListToAttrsBuildsSortedSet(t *testing.T) {
	v := eval(t, `builtins.listToAttrs [ { name = "b"; value = 2; } { name = "a"; value = 1; } ]`)
	if v.Kind != values.KindAttrs || v.Attrs.Len() != 2 {
		t.Fatalf("got %+v, want a 2-entry attrset", v)
	}
	if v.Attrs.At(0).Name >= v.Attrs.At(1).Name {
		t.Fatalf("listToAttrs output is not sorted by symbol id")
	}
}

func TestMapOverList(t *testing.T) {
	v := eval(t, `map (x: x * 2) [1 2 3]`)
	if v.Kind != values.KindList || len(v.List) != 3 {
		t.Fatalf("got %+v, want a 3-element list", v)
	}
	want := []int64{2, 4, 6}
	for i, el := range v.List {
		if el.I != want[i] {
			t.Fatalf("element %d = %d, want %d", i, el.I, want[i])
		}
	}
}

func TestFilterKeepsMatchingElements(t *testing.T) {
	v := eval(t, `builtins.filter (x: x > 1) [1 2 3]`)
	if v.Kind != values.KindList || len(v.List) != 2 {
		t.Fatalf("got %+v, want [2 3]", v)
	}
}

func TestSubstring(t *testing.T) {
	v := eval(t, `builtins.substring 1 3 "hello"`)
	if v.Kind != values.KindString || v.S != "ell" {
		t.Fatalf("got %q, want %q", v.S, "ell")
	}
}

func TestConcatStringsSep(t *testing.T) {
	v := eval(t, `builtins.concatStringsSep ", " ["a" "b" "c"]`)
	if v.Kind != values.KindString || v.S != "a, b, c" {
		t.Fatalf("got %q, want %q", v.S, "a, b, c")
	}
}

func TestCompareVersions(t *testing.T) {
	v := eval(t, `builtins.compareVersions "1.2" "1.10"`)
	if v.Kind != values.KindInt || v.I != -1 {
		t.Fatalf("got %+v, want Int(-1) (1.2 < 1.10 numerically)", v)
	}
}
