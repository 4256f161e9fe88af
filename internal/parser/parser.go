// Package parser implements a hand-written recursive-descent, Pratt-style
// parser that turns token.Token streams from the lexer into an ast.Expr
// tree, per the operator-precedence chain and desugarings of the
// language's PEG grammar.
package parser

import (
	"strconv"
	"strings"

	"github.com/purelang/evalcore/internal/ast"
	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/lexer"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/symbol"
	"github.com/purelang/evalcore/internal/token"
)

// Flags gates the parser's deprecated/experimental grammar productions.
type Flags struct {
	URLLiterals bool // bare `scheme://...` parses as a string
	LetLegacy   bool // `let { ... }` desugars to `(rec { ... }).body`
	PipeOps     bool // `|>` and `<|`
}

// Parser holds one parse's state.
type Parser struct {
	lex   *lexer.Lexer
	tok   token.Token
	syms  *symbol.Table
	pos   *postable.Table
	flags Flags
}

// New creates a Parser reading from lex, interning identifiers into
// syms and positions into pos.
func New(lex *lexer.Lexer, syms *symbol.Table, pos *postable.Table, flags Flags) *Parser {
	p := &Parser{lex: lex, syms: syms, pos: pos, flags: flags}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.tok = p.lex.Next()
}

func (p *Parser) at(k token.Kind) bool { return p.tok.Kind == k }

func (p *Parser) expect(k token.Kind) token.Token {
	if p.tok.Kind != k {
		errs.Throw(errs.ParseError, p.tok.Pos, "expected %s, got %q", k.Name(), p.tok.Literal)
	}
	t := p.tok
	p.advance()
	return t
}

func (p *Parser) sym(name string) symbol.Symbol { return p.syms.Intern(name) }

// Parse parses a complete expression, requiring EOF afterward.
func (p *Parser) Parse() ast.Expr {
	e := p.parseExpr()
	if !p.at(token.EOF) {
		errs.Throw(errs.ParseError, p.tok.Pos, "unexpected trailing token %q", p.tok.Literal)
	}
	return e
}

// --- precedence climbing ---
//
// low -> high: ->, ||, &&, == !=, < > <= >=, // (right), !, + - (binary),
// * /, ++ (right), ?, |> / <| (gated), unary -, application, .

// parseExpr is the sole entry point for a full expression production
// (expr_function in the grammar): it recognizes the loose, right-
// extending forms (lambda, with, assert, let, if) before falling
// through to the binary-operator precedence chain. Everywhere else in
// the parser (application arguments, list elements, selection targets)
// calls parseSelect/parseUnaryMinus and friends instead, since those
// forms require parentheses outside of top position, matching the PEG
// grammar's expr_function/expr_select split.
func (p *Parser) parseExpr() ast.Expr {
	switch p.tok.Kind {
	case token.KwWith:
		return p.parseWith()
	case token.KwAssert:
		return p.parseAssertExpr()
	case token.KwLet:
		return p.parseLetTop()
	case token.KwIf:
		return p.parseIfExpr()
	case token.Ident:
		switch p.peekAfter() {
		case token.Colon:
			return p.parseSimpleLambda()
		case token.At:
			return p.parseAtLambda()
		}
	case token.LBrace:
		if p.looksLikeLambdaPatternAhead() {
			pos := p.tok.Pos
			p.advance() // consume '{'
			return p.parseAttrsLambda(pos)
		}
	}
	return p.parseImpl()
}

func (p *Parser) parseWith() ast.Expr {
	pos := p.tok.Pos
	p.advance()
	scope := p.parseExpr()
	p.expect(token.Semi)
	body := p.parseExpr()
	return &ast.With{Base: ast.NewBase(pos), Scope: scope, Body: body}
}

func (p *Parser) parseAssertExpr() ast.Expr {
	pos := p.tok.Pos
	p.advance()
	cond := p.parseExpr()
	p.expect(token.Semi)
	body := p.parseExpr()
	return &ast.Assert{Base: ast.NewBase(pos), Cond: cond, Body: body}
}

func (p *Parser) parseIfExpr() ast.Expr {
	pos := p.tok.Pos
	p.advance()
	cond := p.parseExpr()
	p.expect(token.KwThen)
	then := p.parseExpr()
	p.expect(token.KwElse)
	els := p.parseExpr()
	return &ast.If{Base: ast.NewBase(pos), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseLetTop() ast.Expr {
	pos := p.tok.Pos
	p.advance() // KwLet
	if p.at(token.LBrace) && p.flags.LetLegacy {
		p.advance()
		attrs := p.parseAttrsBody(true, pos)
		return &ast.Select{Base: ast.NewBase(pos), E: attrs, Path: []ast.AttrPathElem{{Name: p.sym("body")}}}
	}
	return p.parseLet(pos)
}

func (p *Parser) parseSimpleLambda() ast.Expr {
	pos := p.tok.Pos
	name := p.tok.Literal
	p.advance() // ident
	p.expect(token.Colon)
	body := p.parseExpr()
	return &ast.Lambda{Base: ast.NewBase(pos), Pattern: ast.Pattern{Simple: p.sym(name)}, Body: body}
}

func (p *Parser) parseAtLambda() ast.Expr {
	pos := p.tok.Pos
	name := p.tok.Literal
	p.advance() // ident
	p.expect(token.At)
	p.expect(token.LBrace)
	lam := p.parseAttrsLambda(pos).(*ast.Lambda)
	lam.Pattern.At = p.sym(name)
	return lam
}

// looksLikeLambdaPatternAhead peeks past a not-yet-consumed '{' to
// decide whether it opens an attrs-destructuring lambda pattern,
// without disturbing parser state.
func (p *Parser) looksLikeLambdaPatternAhead() bool {
	savedLex := *p.lex
	savedTok := p.tok
	p.advance() // hypothetically consume '{'
	result := p.looksLikeLambdaPattern()
	*p.lex = savedLex
	p.tok = savedTok
	return result
}

func (p *Parser) parseImpl() ast.Expr {
	lhs := p.parseOr()
	if p.at(token.Impl) {
		pos := p.tok.Pos
		p.advance()
		rhs := p.parseImpl()
		return &ast.BinOp{Base: ast.NewBase(pos), Op: ast.OpImpl, Left: lhs, Right: rhs}
	}
	return lhs
}

func (p *Parser) parseOr() ast.Expr {
	lhs := p.parseAnd()
	for p.at(token.Or) {
		pos := p.tok.Pos
		p.advance()
		rhs := p.parseAnd()
		lhs = &ast.BinOp{Base: ast.NewBase(pos), Op: ast.OpOr, Left: lhs, Right: rhs}
	}
	return lhs
}

func (p *Parser) parseAnd() ast.Expr {
	lhs := p.parseEquality()
	for p.at(token.And) {
		pos := p.tok.Pos
		p.advance()
		rhs := p.parseEquality()
		lhs = &ast.BinOp{Base: ast.NewBase(pos), Op: ast.OpAnd, Left: lhs, Right: rhs}
	}
	return lhs
}

func (p *Parser) parseEquality() ast.Expr {
	lhs := p.parseComparison()
	for p.at(token.Eq) || p.at(token.NEq) {
		op, pos := ast.OpEq, p.tok.Pos
		if p.at(token.NEq) {
			op = ast.OpNEq
		}
		p.advance()
		rhs := p.parseComparison()
		lhs = &ast.BinOp{Base: ast.NewBase(pos), Op: op, Left: lhs, Right: rhs}
	}
	return lhs
}

func (p *Parser) parseComparison() ast.Expr {
	lhs := p.parseUpdate()
	for p.at(token.Lt) || p.at(token.Gt) || p.at(token.Leq) || p.at(token.Geq) {
		var op ast.BinOpKind
		switch p.tok.Kind {
		case token.Lt:
			op = ast.OpLt
		case token.Gt:
			op = ast.OpGt
		case token.Leq:
			op = ast.OpLeq
		case token.Geq:
			op = ast.OpGeq
		}
		pos := p.tok.Pos
		p.advance()
		rhs := p.parseUpdate()
		lhs = &ast.BinOp{Base: ast.NewBase(pos), Op: op, Left: lhs, Right: rhs}
	}
	return lhs
}

// parseUpdate: `//`, right-associative.
func (p *Parser) parseUpdate() ast.Expr {
	lhs := p.parseNot()
	if p.at(token.Update) {
		pos := p.tok.Pos
		p.advance()
		rhs := p.parseUpdate()
		return &ast.BinOp{Base: ast.NewBase(pos), Op: ast.OpUpdate, Left: lhs, Right: rhs}
	}
	return lhs
}

func (p *Parser) parseNot() ast.Expr {
	if p.at(token.Not) {
		pos := p.tok.Pos
		p.advance()
		e := p.parseNot()
		return &ast.UnaryNot{Base: ast.NewBase(pos), E: e}
	}
	return p.parseAdd()
}

func (p *Parser) parseAdd() ast.Expr {
	lhs := p.parseMul()
	for p.at(token.Plus) || p.at(token.Minus) {
		op, pos := ast.OpAdd, p.tok.Pos
		if p.at(token.Minus) {
			op = ast.OpSub
		}
		p.advance()
		rhs := p.parseMul()
		lhs = &ast.BinOp{Base: ast.NewBase(pos), Op: op, Left: lhs, Right: rhs}
	}
	return lhs
}

func (p *Parser) parseMul() ast.Expr {
	lhs := p.parseConcat()
	for p.at(token.Star) || p.at(token.Slash) {
		op, pos := ast.OpMul, p.tok.Pos
		if p.at(token.Slash) {
			op = ast.OpDiv
		}
		p.advance()
		rhs := p.parseConcat()
		lhs = &ast.BinOp{Base: ast.NewBase(pos), Op: op, Left: lhs, Right: rhs}
	}
	return lhs
}

// parseConcat: `++`, right-associative.
func (p *Parser) parseConcat() ast.Expr {
	lhs := p.parseHasAttr()
	if p.at(token.Concat) {
		pos := p.tok.Pos
		p.advance()
		rhs := p.parseConcat()
		return &ast.BinOp{Base: ast.NewBase(pos), Op: ast.OpConcatLists, Left: lhs, Right: rhs}
	}
	return lhs
}

func (p *Parser) parseHasAttr() ast.Expr {
	lhs := p.parsePipe()
	if p.at(token.Question) {
		pos := p.tok.Pos
		p.advance()
		path := p.parseAttrPath()
		return &ast.HasAttr{Base: ast.NewBase(pos), E: lhs, Path: path}
	}
	return lhs
}

func (p *Parser) parsePipe() ast.Expr {
	lhs := p.parseUnaryMinus()
	if !p.flags.PipeOps {
		return lhs
	}
	for p.at(token.Pipe) || p.at(token.PipeL) {
		if p.at(token.Pipe) {
			pos := p.tok.Pos
			p.advance()
			rhs := p.parseUnaryMinus()
			lhs = &ast.Call{Base: ast.NewBase(pos), Fn: rhs, Arg: lhs}
		} else {
			pos := p.tok.Pos
			p.advance()
			rhs := p.parseUnaryMinus()
			lhs = &ast.Call{Base: ast.NewBase(pos), Fn: lhs, Arg: rhs}
		}
	}
	return lhs
}

func (p *Parser) parseUnaryMinus() ast.Expr {
	if p.at(token.Minus) {
		pos := p.tok.Pos
		p.advance()
		e := p.parseUnaryMinus()
		return &ast.UnaryNeg{Base: ast.NewBase(pos), E: e}
	}
	return p.parseApp()
}

// parseApp: left-associative juxtaposition application, binding tighter
// than every binary operator but looser than `.` selection.
func (p *Parser) parseApp() ast.Expr {
	fn := p.parseSelect()
	for p.startsAppArg() {
		pos := p.tok.Pos
		arg := p.parseSelect()
		fn = &ast.Call{Base: ast.NewBase(pos), Fn: fn, Arg: arg}
	}
	return fn
}

// startsAppArg reports whether the current token can begin an
// application argument (a primary expression), used to decide whether
// juxtaposition continues.
func (p *Parser) startsAppArg() bool {
	switch p.tok.Kind {
	case token.Ident, token.Int, token.Float, token.Path, token.SPath, token.URI,
		token.StringStart, token.IndentStringStart,
		token.LParen, token.LBrace, token.LBracket,
		token.KwRec:
		return true
	}
	return false
}

// parseSelect: `.` attribute selection, with `or default` binding to
// the whole select.
func (p *Parser) parseSelect() ast.Expr {
	e := p.parsePrimary()
	for p.at(token.Dot) {
		pos := p.tok.Pos
		p.advance()
		path := p.parseAttrPath()
		sel := &ast.Select{Base: ast.NewBase(pos), E: e, Path: path}
		if p.at(token.KwOr) {
			p.advance()
			sel.Default = p.parseSelect()
		}
		e = sel
	}
	return e
}

func (p *Parser) parseAttrPathElem() ast.AttrPathElem {
	if p.at(token.DollarBrace) {
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RBrace)
		return ast.AttrPathElem{Expr: inner}
	}
	if p.at(token.StringStart) {
		s := p.parseStringLiteralSimpleName()
		return ast.AttrPathElem{Name: p.sym(s)}
	}
	name := p.expectIdentLike()
	return ast.AttrPathElem{Name: p.sym(name)}
}

func (p *Parser) parseAttrPath() []ast.AttrPathElem {
	path := []ast.AttrPathElem{p.parseAttrPathElem()}
	for p.at(token.Dot) {
		p.advance()
		path = append(path, p.parseAttrPathElem())
	}
	return path
}

// expectIdentLike accepts an identifier or a keyword used as an
// attribute name (e.g. `x.or`, `x.assert`), matching the grammar's
// allowance for keywords in attribute-name position.
func (p *Parser) expectIdentLike() string {
	switch p.tok.Kind {
	case token.Ident, token.KwIf, token.KwThen, token.KwElse, token.KwAssert,
		token.KwWith, token.KwLet, token.KwIn, token.KwRec, token.KwInherit, token.KwOr:
		lit := p.tok.Literal
		p.advance()
		return lit
	}
	errs.Throw(errs.ParseError, p.tok.Pos, "expected attribute name, got %q", p.tok.Literal)
	panic("unreachable")
}

// parseStringLiteralSimpleName parses a `"..."` used in attribute-name
// position, rejecting interpolation (names must be static for this use).
func (p *Parser) parseStringLiteralSimpleName() string {
	pos := p.tok.Pos
	p.advance() // consumed StringStart by lexer.Next already; body follows
	piece := p.lex.LexStringBody()
	if !piece.AtEnd {
		errs.Throw(errs.ParseError, pos, "interpolation not allowed in attribute name")
	}
	p.advance()
	return piece.Text
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.tok.Pos
	switch p.tok.Kind {
	case token.Int:
		lit := p.tok.Literal
		p.advance()
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			errs.Throw(errs.ParseError, pos, "integer literal out of range: %s", lit)
		}
		return &ast.Int{Base: ast.NewBase(pos), Value: n}
	case token.Float:
		lit := p.tok.Literal
		p.advance()
		f, _ := strconv.ParseFloat(lit, 64)
		return &ast.Float{Base: ast.NewBase(pos), Value: f}
	case token.Path:
		lit := p.tok.Literal
		p.advance()
		if strings.HasSuffix(lit, "/") && lit != "/" {
			errs.Throw(errs.ParseError, pos, "trailing slash in path literal")
		}
		return &ast.Path{Base: ast.NewBase(pos), Raw: lit}
	case token.SPath:
		lit := p.tok.Literal
		p.advance()
		name := strings.TrimSuffix(strings.TrimPrefix(lit, "<"), ">")
		findFile := &ast.Var{Base: ast.NewBase(pos), Name: p.sym("__findFile")}
		nixPath := &ast.Var{Base: ast.NewBase(pos), Name: p.sym("__nixPath")}
		call1 := &ast.Call{Base: ast.NewBase(pos), Fn: findFile, Arg: nixPath}
		return &ast.Call{Base: ast.NewBase(pos), Fn: call1, Arg: &ast.Str{Base: ast.NewBase(pos), Value: name}}
	case token.URI:
		lit := p.tok.Literal
		p.advance()
		if !p.flags.URLLiterals {
			errs.Throw(errs.ParseError, pos, "URL literals are disabled")
		}
		return &ast.Str{Base: ast.NewBase(pos), Value: lit}
	case token.Ident:
		lit := p.tok.Literal
		p.advance()
		if lit == "__curPos" {
			return &ast.CurPos{Base: ast.NewBase(pos)}
		}
		return &ast.Var{Base: ast.NewBase(pos), Name: p.sym(lit)}
	case token.StringStart:
		return p.parseString(false)
	case token.IndentStringStart:
		return p.parseString(true)
	case token.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RParen)
		return e
	case token.LBracket:
		return p.parseList()
	case token.LBrace:
		p.advance()
		return p.parseAttrsBody(false, pos)
	case token.KwRec:
		p.advance()
		p.expect(token.LBrace)
		return p.parseAttrsBody(true, pos)
	}
	// with/assert/if/let and lambda forms are only valid at the
	// expr_function level; reaching here with one of those tokens means
	// it was used where parentheses are required.
	errs.Throw(errs.ParseError, pos, "unexpected token %q (parenthesize if this starts a with/assert/if/let/lambda)", p.tok.Literal)
	panic("unreachable")
}

func (p *Parser) parseList() ast.Expr {
	pos := p.tok.Pos
	p.advance() // [
	var elems []ast.Expr
	for !p.at(token.RBracket) {
		elems = append(elems, p.parseSelect())
	}
	p.expect(token.RBracket)
	return &ast.List{Base: ast.NewBase(pos), Elems: elems}
}

func (p *Parser) parseLet(pos postable.PosIdx) ast.Expr {
	attrs := p.parseBindingsUntil(token.KwIn, true)
	p.expect(token.KwIn)
	body := p.parseExpr()
	return &ast.Let{Base: ast.NewBase(pos), Attrs: attrs, Body: body}
}

// looksLikeLambdaPattern performs bounded lookahead by re-lexing is not
// available without a re-entrant lexer, so instead the grammar is
// disambiguated structurally: an attrs-pattern lambda can only start
// with `}:`, an identifier followed by `,`, `?`, `}` or `@`, or `...`.
// A plain attrset's first binding is `name = ...` or `inherit` or
// `${`. We peek one token (already materialized in p.tok) and, for the
// identifier case, must look one token further; since the lexer is
// single-token lookahead, this case is handled with a small local
// save/restore over a cloned lexer position.
func (p *Parser) looksLikeLambdaPattern() bool {
	if p.at(token.RBrace) {
		return p.peekAfter() == token.Colon
	}
	if p.at(token.Ellipsis) {
		return true
	}
	if p.at(token.Ident) {
		after := p.peekAfter()
		return after == token.Comma || after == token.Question || after == token.RBrace || after == token.At
	}
	return false
}

// peekAfter scans one extra token using a throwaway copy of the lexer
// state and restores the real lexer/token afterward; the lexer is pure
// over (src, pos) so cloning it is just copying the struct.
func (p *Parser) peekAfter() token.Kind {
	savedLex := *p.lex
	savedTok := p.tok
	p.advance()
	k := p.tok.Kind
	*p.lex = savedLex
	p.tok = savedTok
	return k
}

func (p *Parser) parseAttrsLambda(pos postable.PosIdx) ast.Expr {
	pattern := ast.Pattern{IsAttrs: true}
	for !p.at(token.RBrace) {
		if p.at(token.Ellipsis) {
			pattern.Ellipsis = true
			p.advance()
			break
		}
		name := p.expect(token.Ident).Literal
		f := ast.Formal{Name: p.sym(name)}
		if p.at(token.Question) {
			p.advance()
			f.Default = p.parseSelect()
		}
		pattern.Formals = append(pattern.Formals, f)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBrace)
	if p.at(token.At) {
		p.advance()
		name := p.expect(token.Ident).Literal
		pattern.At = p.sym(name)
	}
	p.expect(token.Colon)
	body := p.parseExpr()
	return &ast.Lambda{Base: ast.NewBase(pos), Pattern: pattern, Body: body}
}

// parseAttrsBody parses the body of `{ ... }` / `rec { ... }` (the
// opening brace already consumed), and the shared binding-list grammar
// used by `let`.
func (p *Parser) parseAttrsBody(recursive bool, pos postable.PosIdx) *ast.Attrs {
	return p.parseBindingsUntil(token.RBrace, recursive)
}

func (p *Parser) parseBindingsUntil(end token.Kind, recursive bool) *ast.Attrs {
	pos := p.tok.Pos
	a := &ast.Attrs{Base: ast.NewBase(pos), Recursive: recursive}
	for !p.at(end) {
		if p.at(token.KwInherit) {
			p.advance()
			var from ast.Expr
			if p.at(token.LParen) {
				p.advance()
				from = p.parseExpr()
				p.expect(token.RParen)
			}
			var names []symbol.Symbol
			ipos := p.tok.Pos
			for p.at(token.Ident) || isKeywordAttrName(p.tok.Kind) {
				names = append(names, p.sym(p.tok.Literal))
				p.advance()
			}
			a.Inherits = append(a.Inherits, ast.InheritBinding{From: from, Names: names, Pos: ipos})
			p.expect(token.Semi)
			continue
		}
		bpos := p.tok.Pos
		if p.at(token.DollarBrace) {
			path := p.parseAttrPath()
			p.expect(token.Assign)
			val := p.parseExpr()
			p.expect(token.Semi)
			a.Attrs = append(a.Attrs, ast.AttrBinding{Path: path, Value: val, Pos: bpos})
			continue
		}
		path := p.parseAttrPath()
		p.expect(token.Assign)
		val := p.parseExpr()
		p.expect(token.Semi)
		a.Attrs = append(a.Attrs, ast.AttrBinding{Path: path, Value: val, Pos: bpos})
	}
	if end == token.RBrace {
		p.expect(token.RBrace)
	}
	return a
}

func isKeywordAttrName(k token.Kind) bool {
	switch k {
	case token.KwIf, token.KwThen, token.KwElse, token.KwAssert, token.KwWith,
		token.KwLet, token.KwIn, token.KwRec, token.KwInherit, token.KwOr:
		return true
	}
	return false
}

// parseString parses a complete string literal, including any
// interpolations, and for indented strings performs the indentation
// stripping pass over the collected literal pieces before returning.

// strPart is one literal-text or interpolated-expr segment of a string
// literal under construction.
type strPart struct {
	lit  string
	expr ast.Expr
	pos  postable.PosIdx
}

// parseString parses a complete string literal, including any
// interpolations. For indented strings, the collected literal pieces go
// through an indentation-stripping pass before being reassembled.
func (p *Parser) parseString(indented bool) ast.Expr {
	pos := p.tok.Pos
	p.advance() // consume Start token; lexer is now positioned for LexStringBody

	var parts []strPart
	for {
		var piece lexer.StringPiece
		if indented {
			piece = p.lex.LexIndentStringBody()
		} else {
			piece = p.lex.LexStringBody()
		}
		parts = append(parts, strPart{lit: piece.Text, pos: piece.Pos})
		if piece.AtEnd {
			break
		}
		// piece.AtInterp: the lexer consumed through `${`; load the
		// first token of the interpolated expression and parse it with
		// the ordinary token stream.
		p.advance()
		inner := p.parseExpr()
		if !p.at(token.RBrace) {
			errs.Throw(errs.ParseError, p.tok.Pos, "expected %s to close interpolation, got %q", token.RBrace.Name(), p.tok.Literal)
		}
		// The RBrace token was produced by the ordinary lexer, which
		// already advanced past the '}' character; resume raw
		// string-body scanning from here without calling p.advance().
		parts = append(parts, strPart{expr: inner, pos: piece.Pos})
	}
	p.advance() // load the token following the closing quote

	if indented {
		parts = stripIndentedStringParts(parts)
	}

	hasInterp := false
	for _, pt := range parts {
		if pt.expr != nil {
			hasInterp = true
			break
		}
	}
	if !hasInterp {
		var b strings.Builder
		for _, pt := range parts {
			b.WriteString(pt.lit)
		}
		return &ast.Str{Base: ast.NewBase(pos), Value: b.String()}
	}

	exprs := make([]ast.Expr, 0, len(parts))
	for _, pt := range parts {
		if pt.expr != nil {
			exprs = append(exprs, pt.expr)
		} else if pt.lit != "" {
			exprs = append(exprs, &ast.Str{Base: ast.NewBase(pt.pos), Value: pt.lit})
		}
	}
	return &ast.ConcatStrings{Base: ast.NewBase(pos), Parts: exprs, IsInterpolation: true}
}

// stripIndentedStringParts implements the indented-string stripping
// rule: compute the minimum leading-whitespace count across all
// non-blank lines that do not begin with an interpolation, strip that
// many characters from the start of every line, and drop a trailing
// whitespace-only line entirely.
func stripIndentedStringParts(parts []strPart) []strPart {
	var lines [][]strPart
	var cur []strPart
	for _, pt := range parts {
		if pt.expr != nil {
			cur = append(cur, pt)
			continue
		}
		segs := strings.Split(pt.lit, "\n")
		for i, seg := range segs {
			cur = append(cur, strPart{lit: seg, pos: pt.pos})
			if i != len(segs)-1 {
				lines = append(lines, cur)
				cur = nil
			}
		}
	}
	lines = append(lines, cur)

	isBlankLine := func(line []strPart) bool {
		for _, s := range line {
			if s.expr != nil {
				return false
			}
			if strings.Trim(s.lit, " \t") != "" {
				return false
			}
		}
		return true
	}
	lineIndent := func(line []strPart) (int, bool) {
		if len(line) == 0 || line[0].expr != nil || isBlankLine(line) {
			return 0, false
		}
		text := line[0].lit
		n := 0
		for n < len(text) && (text[n] == ' ' || text[n] == '\t') {
			n++
		}
		return n, true
	}

	minIndent := -1
	for _, line := range lines {
		if ind, ok := lineIndent(line); ok && (minIndent == -1 || ind < minIndent) {
			minIndent = ind
		}
	}
	if minIndent == -1 {
		minIndent = 0
	}

	for li, line := range lines {
		if len(line) == 0 || line[0].expr != nil {
			continue
		}
		t := line[0].lit
		n := 0
		for n < len(t) && n < minIndent && (t[n] == ' ' || t[n] == '\t') {
			n++
		}
		lines[li][0].lit = t[n:]
	}

	if len(lines) > 1 && isBlankLine(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}

	var out []strPart
	for li, line := range lines {
		if li > 0 {
			if len(line) > 0 && line[0].expr == nil {
				line[0].lit = "\n" + line[0].lit
			} else {
				out = append(out, strPart{lit: "\n"})
			}
		}
		out = append(out, line...)
	}
	return out
}
