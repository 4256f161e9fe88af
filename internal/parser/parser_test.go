package parser

import (
	"testing"

	"github.com/purelang/evalcore/internal/ast"
	"github.com/purelang/evalcore/internal/lexer"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/symbol"
)

func parseSrc(t *testing.T, src string) ast.Expr {
	t.Helper()
	syms := symbol.NewTable()
	pos := postable.NewTable()
	origin := pos.AddOrigin(postable.Origin{Kind: postable.OriginFile, Name: "<test>", Text: src})
	lex := lexer.New(src, origin, pos)
	p := New(lex, syms, pos, Flags{})
	return p.Parse()
}

func TestParseIntLiteral(t *testing.T) {
	e := parseSrc(t, "42")
	n, ok := e.(*ast.Int)
	if !ok {
		t.Fatalf("got %T, want *ast.Int", e)
	}
	if n.Value != 42 {
		t.Fatalf("got %d, want 42", n.Value)
	}
}

func TestParseLetBinding(t *testing.T) {
	e := parseSrc(t, "let x = 1; in x")
	letExpr, ok := e.(*ast.Let)
	if !ok {
		t.Fatalf("got %T, want *ast.Let", e)
	}
	if len(letExpr.Attrs.Attrs) != 1 {
		t.Fatalf("got %d bindings, want 1", len(letExpr.Attrs.Attrs))
	}
}

func TestParseBinOpPrecedence(t *testing.T) {
	e := parseSrc(t, "1 + 2 * 3")
	op, ok := e.(*ast.BinOp)
	if !ok {
		t.Fatalf("got %T, want *ast.BinOp", e)
	}
	if op.Op != ast.OpAdd {
		t.Fatalf("top-level operator is %v, want OpAdd (multiplication should bind tighter)", op.Op)
	}
	rhs, ok := op.Right.(*ast.BinOp)
	if !ok || rhs.Op != ast.OpMul {
		t.Fatalf("right operand is %T, want a multiplication *ast.BinOp", op.Right)
	}
}

func TestParseLambda(t *testing.T) {
	e := parseSrc(t, "x: y: x + y")
	lam, ok := e.(*ast.Lambda)
	if !ok {
		t.Fatalf("got %T, want *ast.Lambda", e)
	}
	if lam.Pattern.IsAttrs {
		t.Fatalf("a bare-identifier lambda parameter should not be an attrs pattern")
	}
	if _, ok := lam.Body.(*ast.Lambda); !ok {
		t.Fatalf("curried lambda body should itself be a *ast.Lambda, got %T", lam.Body)
	}
}
