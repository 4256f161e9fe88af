package lexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/token"
)

// TestLexGoldenFixtures drives the lexer over the named source blocks in
// testdata/golden.txtar and compares the resulting token stream against
// the matching "<name>.tokens" block, one line per token as "kind %q".
func TestLexGoldenFixtures(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "golden.txtar"))
	if err != nil {
		t.Fatalf("reading golden.txtar: %v", err)
	}
	archive := txtar.Parse(data)

	sources := map[string]string{}
	wants := map[string]string{}
	for _, f := range archive.Files {
		name := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		switch {
		case strings.HasSuffix(f.Name, ".nix"):
			sources[name] = string(f.Data)
		case strings.HasSuffix(f.Name, ".tokens"):
			wants[name] = string(f.Data)
		}
	}
	if len(sources) == 0 {
		t.Fatalf("no .nix fixtures found in golden.txtar")
	}

	for name, src := range sources {
		want, ok := wants[name]
		if !ok {
			t.Fatalf("fixture %q has no matching .tokens block", name)
		}
		t.Run(name, func(t *testing.T) {
			got := lexGolden(src)
			if got != want {
				t.Fatalf("token stream mismatch for %q:\n--- got ---\n%s--- want ---\n%s", name, got, want)
			}
		})
	}
}

func lexGolden(src string) string {
	pos := postable.NewTable()
	origin := pos.AddOrigin(postable.Origin{Kind: postable.OriginFile, Name: "<golden>", Text: src})
	lex := New(src, origin, pos)
	var b strings.Builder
	for {
		tok := lex.Next()
		fmt.Fprintf(&b, "%s %q\n", tok.Kind.Name(), tok.Literal)
		if tok.Kind == token.EOF {
			break
		}
	}
	return b.String()
}
