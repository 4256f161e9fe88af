package langcore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/purelang/evalcore/internal/settings"
	"github.com/purelang/evalcore/internal/store"
	"github.com/purelang/evalcore/internal/values"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(Options{Settings: settings.Default()})
}

func evalDeep(t *testing.T, src string) *values.Value {
	t.Helper()
	e := newTestEngine(t)
	v, err := e.EvalDeep("<test>", src)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func TestTryEvalCatchesThrow(t *testing.T) {
	v := evalDeep(t, `builtins.tryEval (throw "nope")`)
	e := newTestEngine(t)
	success, ok := v.Attrs.Get(e.Syms.Intern("success"))
	if !ok || success.B != false {
		t.Fatalf("tryEval.success = %+v, want false", success)
	}
	value, ok := v.Attrs.Get(e.Syms.Intern("value"))
	if !ok || value.Kind != values.KindBool || value.B != false {
		t.Fatalf("tryEval.value = %+v, want Bool(false)", value)
	}
}

func TestFoldlPrimeSum(t *testing.T) {
	v := evalDeep(t, `builtins.foldl' (a: b: a + b) 0 [1 2 3 4]`)
	if v.Kind != values.KindInt || v.I != 10 {
		t.Fatalf("got %+v, want Int(10)", v)
	}
}

func TestIndentedStringStripsLeadingWhitespace(t *testing.T) {
	v := evalDeep(t, "''  hello\n  world''")
	if v.Kind != values.KindString || v.S != "hello\nworld" {
		t.Fatalf("got %q, want %q", v.S, "hello\nworld")
	}
}

func TestGenericClosureWalksChain(t *testing.T) {
	e := newTestEngine(t)
	v, err := e.EvalDeep("<test>", `builtins.genericClosure {
		startSet = [{key=1;}];
		operator = x: if x.key < 3 then [{key = x.key+1;}] else [];
	}`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Kind != values.KindList || len(v.List) != 3 {
		t.Fatalf("got %+v, want a 3-element list", v)
	}
	for i, el := range v.List {
		forced := e.Ev.Force(el)
		key, ok := forced.Attrs.Get(e.Syms.Intern("key"))
		if !ok {
			t.Fatalf("element %d has no 'key'", i)
		}
		forcedKey := e.Ev.Force(key)
		if forcedKey.I != int64(i+1) {
			t.Fatalf("element %d has key %d, want %d", i, forcedKey.I, i+1)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	v, err := e.EvalDeep("<test>", `builtins.fromJSON (builtins.toJSON { a = 1; b = [1 2 3]; c = "hi"; })`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Kind != values.KindAttrs {
		t.Fatalf("got kind %s, want attrs", v.Kind)
	}
	a, _ := v.Attrs.Get(e.Syms.Intern("a"))
	if e.Ev.Force(a).I != 1 {
		t.Fatalf("a = %+v, want Int(1)", a)
	}
	c, _ := v.Attrs.Get(e.Syms.Intern("c"))
	if e.Ev.Force(c).S != "hi" {
		t.Fatalf("c = %+v, want String(hi)", c)
	}
}

func TestPathCanonicalization(t *testing.T) {
	v := evalDeep(t, "/a/../b//c")
	if v.Kind != values.KindPath {
		t.Fatalf("got kind %s, want path", v.Kind)
	}
	for _, bad := range []string{"/..", "//", "/./"} {
		if containsSubstring(v.P, bad) {
			t.Fatalf("canonicalized path %q still contains %q", v.P, bad)
		}
	}
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestDerivationStrictIsDeterministic(t *testing.T) {
	src := `(builtins.derivationStrict { name = "pkg"; builder = "/bin/sh"; }).drvPath`

	dir1 := t.TempDir()
	st1, err := store.Open(dir1, 1)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st1.Close()
	e1 := New(Options{Settings: settings.Default(), Store: st1})
	v1, err := e1.EvalDeep("<test>", src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	dir2 := t.TempDir()
	st2, err := store.Open(dir2, 1)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st2.Close()
	e2 := New(Options{Settings: settings.Default(), Store: st2})
	v2, err := e2.EvalDeep("<test>", src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	if v1.S != v2.S {
		t.Fatalf("derivationStrict of equivalent inputs produced different drvPaths: %q vs %q", v1.S, v2.S)
	}
}

func TestImportEvaluatesFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "lib.nix")
	require.NoError(t, os.WriteFile(target, []byte("{ a = 1; b = 2; }"), 0o644))

	e := New(Options{Settings: settings.Default(), Resolver: NewSourceResolver(dir)})
	v, err := e.EvalDeep("<test>", `(import "`+target+`").a + (import "`+target+`").b`)
	require.NoError(t, err)
	require.Equal(t, values.KindInt, v.Kind)
	require.EqualValues(t, 3, v.I)
}

func TestScopedImportMergesExtraScope(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "lib.nix")
	require.NoError(t, os.WriteFile(target, []byte("x + y"), 0o644))

	e := New(Options{Settings: settings.Default(), Resolver: NewSourceResolver(dir)})
	v, err := e.EvalDeep("<test>", `scopedImport { x = 1; y = 2; } "`+target+`"`)
	require.NoError(t, err)
	require.Equal(t, values.KindInt, v.Kind)
	require.EqualValues(t, 3, v.I)
}

func TestSearchPathLiteralFindsFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "pkg.nix")
	require.NoError(t, os.WriteFile(target, []byte("1 + 1"), 0o644))

	cfg := settings.Default()
	cfg.SearchPath = []string{dir}
	e := New(Options{Settings: cfg, Resolver: NewSourceResolver(dir)})
	v, err := e.EvalDeep("<test>", `import <pkg.nix>`)
	require.NoError(t, err)
	require.Equal(t, values.KindInt, v.Kind)
	require.EqualValues(t, 2, v.I)
}

func TestNixVersionAndCurrentSystemConstants(t *testing.T) {
	v := evalDeep(t, `builtins.isString builtins.nixVersion && builtins.isString builtins.currentSystem`)
	require.Equal(t, values.KindBool, v.Kind)
	require.True(t, v.B)
}

func TestPureEvalHidesCurrentSystemAndTime(t *testing.T) {
	cfg := settings.Default()
	cfg.PureEval = true
	e := New(Options{Settings: cfg})
	_, err := e.EvalDeep("<test>", `builtins.currentTime`)
	require.Error(t, err, "expected an error referencing currentTime under pure-eval")
	_, err = e.EvalDeep("<test>", `builtins.currentSystem`)
	require.Error(t, err, "expected an error referencing currentSystem under pure-eval")
}

func TestRenderStructuralOutput(t *testing.T) {
	e := newTestEngine(t)
	v, err := e.EvalDeep("<test>", `{ a = 1; b = [1 2]; c = "x"; }`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	got := e.Render(v)
	want := `{ a = 1; b = [ 1 2 ]; c = "x"; }`
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}
