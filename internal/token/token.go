// Package token defines the lexical token kinds shared by the lexer and
// parser.
package token

import "github.com/purelang/evalcore/internal/postable"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	Illegal Kind = iota
	EOF

	Ident
	Int
	Float
	Path
	SPath // search-path literal, <nixpath>
	URI

	// string openers; the lexer emits only StringStart and
	// IndentStringStart, and string bodies come back from
	// LexStringBody/LexIndentStringBody as lexer.StringPiece values. The
	// Mid/End kinds are not emitted.
	StringStart
	StringMid
	StringEnd
	IndentStringStart
	IndentStringMid
	IndentStringEnd

	// punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semi
	Comma
	Dot
	Colon
	At
	Question
	Ellipsis
	DollarBrace

	// operators
	Assign
	Eq
	NEq
	Lt
	Gt
	Leq
	Geq
	And
	Or
	Not
	Impl
	Update // //  (attrset merge)
	Concat // ++  (list concat)
	Plus
	Minus
	Star
	Slash
	Pipe  // |>
	PipeL // <|

	// keywords
	KwIf
	KwThen
	KwElse
	KwAssert
	KwWith
	KwLet
	KwIn
	KwRec
	KwInherit
	KwOr
)

var keywords = map[string]Kind{
	"if":      KwIf,
	"then":    KwThen,
	"else":    KwElse,
	"assert":  KwAssert,
	"with":    KwWith,
	"let":     KwLet,
	"in":      KwIn,
	"rec":     KwRec,
	"inherit": KwInherit,
	"or":      KwOr,
}

// LookupIdent resolves an identifier to a keyword Kind, or Ident if it
// is not reserved.
func LookupIdent(s string) Kind {
	if k, ok := keywords[s]; ok {
		return k
	}
	return Ident
}

// Token is a single lexical unit with its literal text and source
// position.
type Token struct {
	Kind    Kind
	Literal string
	Pos     postable.PosIdx
}

func (t Token) String() string {
	return t.Literal
}

var names = map[Kind]string{
	Illegal: "illegal", EOF: "eof", Ident: "ident", Int: "int", Float: "float",
	Path: "path", SPath: "spath", URI: "uri",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Semi: ";", Comma: ",", Dot: ".", Colon: ":", At: "@", Question: "?",
	Ellipsis: "...", DollarBrace: "${",
	Assign: "=", Eq: "==", NEq: "!=", Lt: "<", Gt: ">", Leq: "<=", Geq: ">=",
	And: "&&", Or: "||", Not: "!", Impl: "->", Update: "//", Concat: "++",
	Plus: "+", Minus: "-", Star: "*", Slash: "/",
	Pipe: "|>", PipeL: "<|",
	KwIf: "if", KwThen: "then", KwElse: "else", KwAssert: "assert",
	KwWith: "with", KwLet: "let", KwIn: "in", KwRec: "rec",
	KwInherit: "inherit", KwOr: "or",
}

// Name returns a human-readable name for a Kind, used in parse errors.
func (k Kind) Name() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "unknown"
}
