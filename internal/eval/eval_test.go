package eval

import (
	"testing"

	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/lexer"
	"github.com/purelang/evalcore/internal/parser"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/resolver"
	"github.com/purelang/evalcore/internal/symbol"
	"github.com/purelang/evalcore/internal/values"
)

// evalSrc parses and evaluates src against an empty base environment (no
// builtins bound — internal/builtins imports this package, so anything
// needing a builtin lives in pkg/langcore's tests instead). It returns
// the deep-forced result, recovering a raised *errs.Error into err.
func evalSrc(t *testing.T, src string) (v *values.Value, err *errs.Error, ev *Evaluator) {
	t.Helper()
	syms := symbol.NewTable()
	pos := postable.NewTable()
	origin := pos.AddOrigin(postable.Origin{Kind: postable.OriginFile, Name: "<test>", Text: src})
	lex := lexer.New(src, origin, pos)
	p := parser.New(lex, syms, pos, parser.Flags{})
	root := p.Parse()

	res := resolver.New(syms)
	res.Resolve(root, nil)

	ev = New(syms, pos, nil)
	env := values.NewEnv(nil, 0)

	defer func() {
		if r := recover(); r != nil {
			err = errs.AsEvalError(r)
		}
	}()
	result := ev.Eval(root, env)
	return ev.ForceDeep(result), nil, ev
}

func TestLetBinding(t *testing.T) {
	v, err, _ := evalSrc(t, "let x = 1; y = x + 1; in y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != values.KindInt || v.I != 2 {
		t.Fatalf("got %+v, want Int(2)", v)
	}
}

func TestRecAttrsSelfReference(t *testing.T) {
	v, err, ev := evalSrc(t, "rec { a = 1; b = a + 1; c = b + 1; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != values.KindAttrs {
		t.Fatalf("got kind %s, want attrs", v.Kind)
	}
	want := map[string]int64{"a": 1, "b": 2, "c": 3}
	if v.Attrs.Len() != len(want) {
		t.Fatalf("got %d bindings, want %d", v.Attrs.Len(), len(want))
	}
	for i := 0; i < v.Attrs.Len(); i++ {
		entry := v.Attrs.At(i)
		name := ev.Syms.String(entry.Name)
		got := ev.Force(entry.Value)
		if got.I != want[name] {
			t.Fatalf("%s = %d, want %d", name, got.I, want[name])
		}
	}
	for i := 1; i < v.Attrs.Len(); i++ {
		if v.Attrs.At(i-1).Name >= v.Attrs.At(i).Name {
			t.Fatalf("attrset bindings are not sorted by symbol id")
		}
	}
}

func TestInfiniteRecursionDetected(t *testing.T) {
	_, err, _ := evalSrc(t, "let x = x; in x")
	if err == nil {
		t.Fatalf("expected an InfiniteRecursionError, got none")
	}
	if err.Kind != errs.InfiniteRecursionError {
		t.Fatalf("got error kind %v, want InfiniteRecursionError", err.Kind)
	}
}

func TestUpdateOperatorMerge(t *testing.T) {
	v, err, ev := evalSrc(t, "{ a = 1; } // { a = 2; b = 3; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := v.Attrs.Get(ev.Syms.Intern("a"))
	b, _ := v.Attrs.Get(ev.Syms.Intern("b"))
	if ev.Force(a).I != 2 {
		t.Fatalf("a = %d, want 2 (right operand wins)", ev.Force(a).I)
	}
	if ev.Force(b).I != 3 {
		t.Fatalf("b = %d, want 3", ev.Force(b).I)
	}
}

func TestNestedAttrPathMerge(t *testing.T) {
	v, err, ev := evalSrc(t, "({ a.b.c = 1; a.b.d = 2; }).a.b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != values.KindAttrs || v.Attrs.Len() != 2 {
		t.Fatalf("got %+v, want a 2-entry attrset", v)
	}
	c, _ := v.Attrs.Get(ev.Syms.Intern("c"))
	d, _ := v.Attrs.Get(ev.Syms.Intern("d"))
	if ev.Force(c).I != 1 || ev.Force(d).I != 2 {
		t.Fatalf("c=%v d=%v, want 1 and 2", ev.Force(c), ev.Force(d))
	}
}

func TestCurriedLambdaApplication(t *testing.T) {
	v, err, _ := evalSrc(t, "(x: y: x + y) 2 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != values.KindInt || v.I != 5 {
		t.Fatalf("got %+v, want Int(5)", v)
	}

	partial, err2, ev2 := evalSrc(t, "(x: y: x + y) 2")
	if err2 != nil {
		t.Fatalf("unexpected error: %v", err2)
	}
	if partial.Kind != values.KindLambda {
		t.Fatalf("partially applied call should yield a Lambda, got %s", partial.Kind)
	}
	applied := ev2.CallFunction(partial, []*values.Value{values.Int(3)}, 0)
	applied = ev2.Force(applied)
	if applied.I != 5 {
		t.Fatalf("applying the remaining argument gave %+v, want Int(5)", applied)
	}
}

func TestStringInterpolation(t *testing.T) {
	v, err, _ := evalSrc(t, `"a${"b" + "c"}d"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != values.KindString || v.S != "abcd" {
		t.Fatalf("got %+v, want String(\"abcd\")", v)
	}
	if !v.Ctx.Empty() {
		t.Fatalf("plain string concatenation should carry no context, got %+v", v.Ctx.Elems())
	}
}

func TestForceReturnsWHNFValueUnchanged(t *testing.T) {
	syms := symbol.NewTable()
	pos := postable.NewTable()
	ev := New(syms, pos, nil)

	whnf := values.Int(7)
	first := ev.Force(whnf)
	second := ev.Force(first)
	if first != second {
		t.Fatalf("forcing an already-WHNF value should return it unchanged")
	}
}

func TestIntegerOverflowRaisesEvalError(t *testing.T) {
	_, err, _ := evalSrc(t, "9223372036854775807 + 1")
	if err == nil {
		t.Fatalf("expected an overflow error, got none")
	}
	if err.Kind != errs.EvalError {
		t.Fatalf("got error kind %v, want EvalError (overflow has no dedicated kind)", err.Kind)
	}
}
