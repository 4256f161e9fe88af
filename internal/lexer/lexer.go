// Package lexer implements a hand-written scanner over UTF-8 source
// text, producing token.Token values for the parser. It understands
// the two string forms (with indentation stripping for the indented
// form deferred to the parser, which reassembles raw segments), path
// and URI literals, and the multi-character operator set.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/token"
)

// Lexer scans one origin's source text.
type Lexer struct {
	src       string
	pos       int // byte offset of the next unread rune
	originIdx int
	posTable  *postable.Table

	// The lexer keeps no interpolation-brace state: the parser tracks
	// `${ ... }` nesting and drives re-entry into string mode through
	// LexStringBody/LexIndentStringBody.
}

// New creates a Lexer over src, which has already been interned as
// originIdx in posTable.
func New(src string, originIdx int, posTable *postable.Table) *Lexer {
	return &Lexer{src: src, originIdx: originIdx, posTable: posTable}
}

func (l *Lexer) mkPos(offset int) postable.PosIdx {
	return l.posTable.Add(l.originIdx, offset)
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) peekRune() (rune, int) {
	if l.eof() {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.src[l.pos:])
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || r == '\'' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// skipTrivia consumes whitespace and both comment forms.
func (l *Lexer) skipTrivia() {
	for !l.eof() {
		c := l.peekByte()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '#':
			for !l.eof() && l.peekByte() != '\n' {
				l.pos++
			}
		case c == '/' && l.peekByteAt(1) == '*':
			l.pos += 2
			for !l.eof() && !(l.peekByte() == '*' && l.peekByteAt(1) == '/') {
				l.pos++
			}
			if !l.eof() {
				l.pos += 2
			}
		default:
			return
		}
	}
}

// Next scans and returns the next token, skipping leading trivia.
func (l *Lexer) Next() token.Token {
	l.skipTrivia()
	start := l.pos
	if l.eof() {
		return token.Token{Kind: token.EOF, Pos: l.mkPos(start)}
	}

	c := l.peekByte()

	switch {
	case isDigit(c):
		return l.lexNumber()
	case c == '"':
		l.pos++
		return token.Token{Kind: token.StringStart, Literal: `"`, Pos: l.mkPos(start)}
	case c == '\'' && l.peekByteAt(1) == '\'':
		l.pos += 2
		return token.Token{Kind: token.IndentStringStart, Literal: `''`, Pos: l.mkPos(start)}
	case c == '/' && (l.peekByteAt(1) == '/' ) && l.peekByteAt(2) != '/':
		l.pos += 2
		return token.Token{Kind: token.Update, Literal: "//", Pos: l.mkPos(start)}
	case c == '<' && isIdentStart(runeOr(l.peekByteAt(1))):
		if tok, ok := l.tryLexSearchPath(start); ok {
			return tok
		}
	case c == '.' && l.peekByteAt(1) == '.' && l.peekByteAt(2) == '.':
		l.pos += 3
		return token.Token{Kind: token.Ellipsis, Literal: "...", Pos: l.mkPos(start)}
	case c == '.' && isDigit(l.peekByteAt(1)):
		return l.lexNumber()
	case c == '.':
		l.pos++
		return token.Token{Kind: token.Dot, Literal: ".", Pos: l.mkPos(start)}
	case c == '/' || c == '~':
		if tok, ok := l.tryLexPath(start); ok {
			return tok
		}
	case isIdentStart(runeOr(c)):
		r, _ := l.peekRune()
		if isIdentStart(r) {
			return l.lexIdentOrPathOrURI(start)
		}
	}

	return l.lexOperator(start)
}

func runeOr(b byte) rune {
	if b < utf8.RuneSelf {
		return rune(b)
	}
	return utf8.RuneError
}

func (l *Lexer) lexNumber() token.Token {
	start := l.pos
	isFloat := false
	for !l.eof() && isDigit(l.peekByte()) {
		l.pos++
	}
	if !l.eof() && l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.pos++
		for !l.eof() && isDigit(l.peekByte()) {
			l.pos++
		}
	}
	if !l.eof() && (l.peekByte() == 'e' || l.peekByte() == 'E') {
		save := l.pos
		l.pos++
		if !l.eof() && (l.peekByte() == '+' || l.peekByte() == '-') {
			l.pos++
		}
		if !l.eof() && isDigit(l.peekByte()) {
			isFloat = true
			for !l.eof() && isDigit(l.peekByte()) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	lit := l.src[start:l.pos]
	kind := token.Int
	if isFloat {
		kind = token.Float
	}
	return token.Token{Kind: kind, Literal: lit, Pos: l.mkPos(start)}
}

// lexIdentOrPathOrURI scans an identifier, then checks whether it is
// actually the start of a URI (`scheme:` followed by URI characters);
// it does not look for paths.
func (l *Lexer) lexIdentOrPathOrURI(start int) token.Token {
	for {
		r, size := l.peekRune()
		if size == 0 || !isIdentCont(r) {
			break
		}
		l.pos += size
	}
	// scheme:... URI form, gated by a deprecation flag upstream; the
	// lexer always recognizes the shape and lets settings decide.
	if !l.eof() && l.peekByte() == ':' && l.peekByteAt(1) != ':' && isURISchemeChar(l.peekByteAt(1)) {
		uriStart := start
		save := l.pos
		l.pos++ // ':'
		for !l.eof() && isURIRestChar(l.peekByte()) {
			l.pos++
		}
		if l.pos > save+1 {
			return token.Token{Kind: token.URI, Literal: l.src[uriStart:l.pos], Pos: l.mkPos(uriStart)}
		}
		l.pos = save
	}
	lit := l.src[start:l.pos]
	return token.Token{Kind: token.LookupIdent(lit), Literal: lit, Pos: l.mkPos(start)}
}

func isURISchemeChar(b byte) bool {
	return b == '+' || b == '-' || b == '.' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || isDigit(b)
}

func isURIRestChar(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '"', '\'', '(', ')', '{', '}', ';', ',':
		return false
	}
	return b > 0
}

// tryLexPath attempts to scan a path literal starting at '/' or '~'.
// Paths must contain at least one '/' (handled by caller context for
// '/'); a lone '~' with no following '/' is not a path.
func (l *Lexer) tryLexPath(start int) (token.Token, bool) {
	save := l.pos
	if l.peekByte() == '~' {
		if l.peekByteAt(1) != '/' {
			return token.Token{}, false
		}
		l.pos++ // consume '~'
	}
	if l.peekByte() != '/' {
		l.pos = save
		return token.Token{}, false
	}
	sawSlash := false
	for !l.eof() && isPathChar(l.peekByte()) {
		if l.peekByte() == '/' {
			sawSlash = true
		}
		l.pos++
	}
	if !sawSlash {
		l.pos = save
		return token.Token{}, false
	}
	return token.Token{Kind: token.Path, Literal: l.src[start:l.pos], Pos: l.mkPos(start)}, true
}

func isPathChar(b byte) bool {
	switch b {
	case '/', '.', '_', '-', '+', '~':
		return true
	}
	return unicode.IsLetter(rune(b)) || isDigit(b)
}

// tryLexSearchPath scans `<nixpath>`.
func (l *Lexer) tryLexSearchPath(start int) (token.Token, bool) {
	save := l.pos
	l.pos++ // '<'
	for !l.eof() && l.peekByte() != '>' && l.peekByte() != '\n' {
		l.pos++
	}
	if l.eof() || l.peekByte() != '>' {
		l.pos = save
		return token.Token{}, false
	}
	l.pos++ // '>'
	return token.Token{Kind: token.SPath, Literal: l.src[start:l.pos], Pos: l.mkPos(start)}, true
}

func (l *Lexer) lexOperator(start int) token.Token {
	two := l.src[start:min(start+2, len(l.src))]
	three := l.src[start:min(start+3, len(l.src))]
	mk := func(k token.Kind, n int) token.Token {
		l.pos = start + n
		return token.Token{Kind: k, Literal: l.src[start:l.pos], Pos: l.mkPos(start)}
	}
	switch three {
	case "...":
		return mk(token.Ellipsis, 3)
	}
	switch two {
	case "==":
		return mk(token.Eq, 2)
	case "!=":
		return mk(token.NEq, 2)
	case "<=":
		return mk(token.Leq, 2)
	case ">=":
		return mk(token.Geq, 2)
	case "&&":
		return mk(token.And, 2)
	case "||":
		return mk(token.Or, 2)
	case "->":
		return mk(token.Impl, 2)
	case "//":
		return mk(token.Update, 2)
	case "++":
		return mk(token.Concat, 2)
	case "${":
		return mk(token.DollarBrace, 2)
	case "|>":
		return mk(token.Pipe, 2)
	case "<|":
		return mk(token.PipeL, 2)
	}
	switch c := l.peekByte(); c {
	case '(':
		return mk(token.LParen, 1)
	case ')':
		return mk(token.RParen, 1)
	case '{':
		return mk(token.LBrace, 1)
	case '}':
		return mk(token.RBrace, 1)
	case '[':
		return mk(token.LBracket, 1)
	case ']':
		return mk(token.RBracket, 1)
	case ';':
		return mk(token.Semi, 1)
	case ',':
		return mk(token.Comma, 1)
	case ':':
		return mk(token.Colon, 1)
	case '@':
		return mk(token.At, 1)
	case '?':
		return mk(token.Question, 1)
	case '=':
		return mk(token.Assign, 1)
	case '<':
		return mk(token.Lt, 1)
	case '>':
		return mk(token.Gt, 1)
	case '!':
		return mk(token.Not, 1)
	case '+':
		return mk(token.Plus, 1)
	case '-':
		return mk(token.Minus, 1)
	case '*':
		return mk(token.Star, 1)
	case '/':
		return mk(token.Slash, 1)
	default:
		l.pos++
		errs.Throw(errs.ParseError, l.mkPos(start), "unexpected character %q", c)
		panic("unreachable")
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// --- string-body scanning, driven by the parser once it has consumed
// a StringStart/IndentStringStart token ---

// StringPiece is one literal-text or escape-decoded run within a
// `"..."` string, up to the next `${` interpolation or the closing `"`.
type StringPiece struct {
	Text   string
	AtEnd  bool // reached closing quote
	AtInterp bool // reached ${
	Pos    postable.PosIdx
}

// LexStringBody scans up to the next `${` or closing `"`, decoding
// escapes as it goes.
func (l *Lexer) LexStringBody() StringPiece {
	start := l.pos
	var b strings.Builder
	for {
		if l.eof() {
			errs.Throw(errs.ParseError, l.mkPos(start), "unterminated string")
		}
		c := l.peekByte()
		switch {
		case c == '"':
			l.pos++
			return StringPiece{Text: b.String(), AtEnd: true, Pos: l.mkPos(start)}
		case c == '$' && l.peekByteAt(1) == '{':
			l.pos += 2
			return StringPiece{Text: b.String(), AtInterp: true, Pos: l.mkPos(start)}
		case c == '\\':
			l.pos++
			e := l.peekByte()
			l.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			case '$':
				b.WriteByte('$')
			case '"':
				b.WriteByte('"')
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
}

// LexIndentStringBody scans up to the next `${` or closing `''` inside
// an indented string, decoding the `''...` escape forms. Indentation
// stripping is a post-processing step the parser applies to the full
// set of pieces once all have been collected (it needs to see every
// line across every piece to compute the minimum indent).
func (l *Lexer) LexIndentStringBody() StringPiece {
	start := l.pos
	var b strings.Builder
	for {
		if l.eof() {
			errs.Throw(errs.ParseError, l.mkPos(start), "unterminated indented string")
		}
		c := l.peekByte()
		switch {
		case c == '\'' && l.peekByteAt(1) == '\'':
			switch l.peekByteAt(2) {
			case '\'':
				b.WriteByte('\'')
				l.pos += 3
				continue
			case '$':
				b.WriteByte('$')
				l.pos += 3
				continue
			case '\\':
				l.pos += 3
				e := l.peekByte()
				l.pos++
				switch e {
				case 'n':
					b.WriteByte('\n')
				case 'r':
					b.WriteByte('\r')
				case 't':
					b.WriteByte('\t')
				default:
					b.WriteByte(e)
				}
				continue
			default:
				l.pos += 2
				return StringPiece{Text: b.String(), AtEnd: true, Pos: l.mkPos(start)}
			}
		case c == '$' && l.peekByteAt(1) == '{':
			l.pos += 2
			return StringPiece{Text: b.String(), AtInterp: true, Pos: l.mkPos(start)}
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
}

// Pos exposes the lexer's current byte offset, interned on demand, for
// parser-side error positions between tokens.
func (l *Lexer) Pos() postable.PosIdx {
	return l.mkPos(l.pos)
}
