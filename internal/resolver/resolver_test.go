package resolver

import (
	"testing"

	"github.com/purelang/evalcore/internal/ast"
	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/lexer"
	"github.com/purelang/evalcore/internal/parser"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/symbol"
)

func parseSrc(t *testing.T, syms *symbol.Table, src string) ast.Expr {
	t.Helper()
	pos := postable.NewTable()
	origin := pos.AddOrigin(postable.Origin{Kind: postable.OriginFile, Name: "<test>", Text: src})
	lex := lexer.New(src, origin, pos)
	p := parser.New(lex, syms, pos, parser.Flags{})
	return p.Parse()
}

func TestResolveRootNameGetsLevelZero(t *testing.T) {
	syms := symbol.NewTable()
	builtinsSym := syms.Intern("builtins")
	root := parseSrc(t, syms, "builtins")

	r := New(syms)
	r.Resolve(root, []symbol.Symbol{builtinsSym})

	v, ok := root.(*ast.Var)
	if !ok {
		t.Fatalf("got %T, want *ast.Var", root)
	}
	if v.Level != 0 || v.Displ != 0 {
		t.Fatalf("root-scope var resolved to level=%d displ=%d, want 0,0", v.Level, v.Displ)
	}
}

func TestResolveUndefinedVariableErrors(t *testing.T) {
	syms := symbol.NewTable()
	root := parseSrc(t, syms, "doesNotExist")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a panic for an undefined variable, got none")
		}
		e := errs.AsEvalError(r)
		if e.Kind != errs.UndefinedVarError {
			t.Fatalf("got error kind %v, want UndefinedVarError", e.Kind)
		}
	}()
	New(syms).Resolve(root, nil)
}

func TestResolveLetIntroducesNestedLevel(t *testing.T) {
	syms := symbol.NewTable()
	root := parseSrc(t, syms, "let x = 1; in x")
	New(syms).Resolve(root, nil)

	letExpr, ok := root.(*ast.Let)
	if !ok {
		t.Fatalf("got %T, want *ast.Let", root)
	}
	v, ok := letExpr.Body.(*ast.Var)
	if !ok {
		t.Fatalf("body is %T, want *ast.Var", letExpr.Body)
	}
	if v.Level != 0 {
		t.Fatalf("a var referring to its own let frame should resolve at level 0, got %d", v.Level)
	}
}
