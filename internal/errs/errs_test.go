package errs

import (
	"testing"

	"github.com/purelang/evalcore/internal/postable"
)

func TestErrorMessageFormatting(t *testing.T) {
	e := New(TypeError, postable.NoPos, "expected %s, got %s", "int", "string")
	got := e.Error()
	want := "type error: expected int, got string"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWithSuggestionsAppendsHint(t *testing.T) {
	e := New(UndefinedVarError, postable.NoPos, "undefined variable 'lst'").WithSuggestions([]string{"list", "last"})
	got := e.Error()
	want := "undefined variable: undefined variable 'lst' (did you mean: list, last?)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAsEvalErrorPassesThroughExistingError(t *testing.T) {
	original := New(AssertionError, postable.NoPos, "nope")
	got := AsEvalError(original)
	if got != original {
		t.Fatalf("AsEvalError should return an *Error unwrapped, not reboxed")
	}
}

func TestAsEvalErrorWrapsArbitraryPanic(t *testing.T) {
	got := AsEvalError("plain string panic")
	if got.Kind != EvalError {
		t.Fatalf("got kind %v, want EvalError", got.Kind)
	}
}

func TestPushTraceAccumulatesFrames(t *testing.T) {
	e := New(EvalError, postable.NoPos, "boom")
	e.PushTrace(postable.NoPos, "while calling f").PushTrace(postable.NoPos, "while calling g")
	if len(e.Trace) != 2 {
		t.Fatalf("got %d trace frames, want 2", len(e.Trace))
	}
	if e.Trace[0].Hint != "while calling f" || e.Trace[1].Hint != "while calling g" {
		t.Fatalf("trace frames not in push order: %+v", e.Trace)
	}
}
