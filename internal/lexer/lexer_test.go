package lexer

import (
	"testing"

	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/token"
)

func tokenKinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	pos := postable.NewTable()
	origin := pos.AddOrigin(postable.Origin{Kind: postable.OriginFile, Name: "<test>", Text: src})
	lex := New(src, origin, pos)
	var kinds []token.Kind
	for {
		tok := lex.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			return kinds
		}
	}
}

func TestLexArithmeticExpression(t *testing.T) {
	got := tokenKinds(t, "1 + 2 * 3")
	want := []token.Kind{token.Int, token.Plus, token.Int, token.Star, token.Int, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexKeywordsAndIdent(t *testing.T) {
	got := tokenKinds(t, "let x = 1; in x")
	want := []token.Kind{token.KwLet, token.Ident, token.Assign, token.Int, token.Semi, token.KwIn, token.Ident, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexAbsolutePath(t *testing.T) {
	got := tokenKinds(t, "/a/b")
	if len(got) != 2 || got[0] != token.Path || got[1] != token.EOF {
		t.Fatalf("got %v, want [Path EOF]", got)
	}
}

func TestLexUpdateVsPathDoesNotCollide(t *testing.T) {
	got := tokenKinds(t, "a // b")
	want := []token.Kind{token.Ident, token.Update, token.Ident, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}
