// Package ast defines the immutable expression tree produced by the
// parser and consumed by the resolver and evaluator. Every node carries
// a PosIdx for error reporting; nodes carry no behavior of their own —
// dispatch lives in the resolver and evaluator packages, which switch
// on concrete node type.
package ast

import (
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/symbol"
)

// Expr is implemented by every expression node.
type Expr interface {
	Pos() postable.PosIdx
}

// Base embeds the source position common to every node.
type Base struct {
	PosIdx postable.PosIdx
}

// Pos returns the node's source position.
func (b Base) Pos() postable.PosIdx { return b.PosIdx }

// Int is an integer literal.
type Int struct {
	Base
	Value int64
}

// Float is a floating point literal.
type Float struct {
	Base
	Value float64
}

// Str is a plain, already-assembled string literal (no interpolation).
type Str struct {
	Base
	Value string
}

// Path is a path literal. Raw is the literal text before canonicalization;
// canonicalization happens at evaluation time since `~` and relative
// paths depend on the evaluating file's directory.
type Path struct {
	Base
	Raw      string
	IsSearch bool // `<nixpath>` form: desugars to a call in the parser, this node is unused for that case
}

// Var references a name. The resolver fills Level/Displ/FromWith;
// before resolution only Name is meaningful.
type Var struct {
	Base
	Name     symbol.Symbol
	Level    int
	Displ    int
	FromWith bool // resolved dynamically through the nearest enclosing `with`
}

// AttrPathElem is one component of a dotted attribute path. Either Name
// is set (static component) or Expr is set (a `${...}` dynamic
// component).
type AttrPathElem struct {
	Name symbol.Symbol
	Expr Expr // nil if Name is static
}

// Select is `e.path` with an optional `or default`.
type Select struct {
	Base
	E       Expr
	Path    []AttrPathElem
	Default Expr // nil if no `or`
}

// HasAttr is the `?` operator: `e ? path`.
type HasAttr struct {
	Base
	E    Expr
	Path []AttrPathElem
}

// AttrBinding is one `name = expr;` entry of an attribute-set literal.
type AttrBinding struct {
	Path  []AttrPathElem // supports `a.b.c = ...;` nested-path sugar
	Value Expr
	Pos   postable.PosIdx
}

// InheritBinding is one `inherit x y;` or `inherit (e) x y;` clause.
type InheritBinding struct {
	From  Expr // nil for plain `inherit x y;`
	Names []symbol.Symbol
	Pos   postable.PosIdx
	// FromSlot is populated by the resolver when From != nil: the
	// hidden inherit-from env slot that caches From's forced value so
	// repeated `inherit (e) a b c;` names evaluate e only once.
	FromSlot int
	// ResolvedVars is populated by the resolver when From == nil,
	// parallel to Names: the resolved reference to each name in the
	// scope enclosing the attrs/let, since plain `inherit x;` reads x
	// from the surrounding scope rather than from the new rec frame.
	ResolvedVars []*Var
}

// Attrs is an attribute-set literal, plain or `rec`.
type Attrs struct {
	Base
	Recursive bool
	Attrs     []AttrBinding
	Inherits  []InheritBinding
	// InheritFromSlots is populated by the resolver: the number of
	// distinct `inherit (e) ...` source expressions, used to size the
	// hidden env frame that caches each e's value across repeated use.
	InheritFromSlots int
	// RecFrameSize is populated by the resolver for Recursive attrs
	// only: the total slot count of the rec env frame (named bindings +
	// inherited names + trailing inherit-from cache slots).
	RecFrameSize int
	// RecNames is populated by the resolver for Recursive attrs only:
	// the distinct named-binding/inherited-name symbols in slot order
	// (slot i holds RecNames[i]), excluding the trailing inherit-from
	// cache slots. The evaluator uses this single ordering to populate,
	// then later read back, the rec env frame, instead of recomputing
	// the same dedup-in-source-order walk in multiple places.
	RecNames []symbol.Symbol
}

// List is a list literal.
type List struct {
	Base
	Elems []Expr
}

// Formal is one formal parameter of an attrs-pattern lambda.
type Formal struct {
	Name    symbol.Symbol
	Default Expr // nil if required
}

// Pattern is a lambda parameter pattern: either a bare name or an
// attrs-destructuring pattern (optionally also bound to a name via `@`).
type Pattern struct {
	Simple   symbol.Symbol // set if this is `x: ...`
	IsAttrs  bool
	Formals  []Formal // sorted lexicographically by the resolver
	Ellipsis bool     // `...` present
	At       symbol.Symbol // `@name`, None if absent
}

// Lambda is a function literal.
type Lambda struct {
	Base
	Pattern Pattern
	Body    Expr
}

// Call is function application `fn arg`. Multi-argument application
// `f a b c` parses as nested left-associative Call nodes.
type Call struct {
	Base
	Fn  Expr
	Arg Expr
}

// Let is `let attrs...; in body`. The bindings are represented as an
// Attrs node (non-recursive in syntax, but evaluated with rec-like
// scoping per the language's `let` semantics).
type Let struct {
	Base
	Attrs *Attrs
	Body  Expr
}

// With introduces a dynamic scope: names unresolved in any static
// frame are looked up in With.Scope at evaluation time.
type With struct {
	Base
	Scope Expr
	Body  Expr
}

// If is a conditional.
type If struct {
	Base
	Cond Expr
	Then Expr
	Else Expr
}

// Assert evaluates Cond for truth as a side effect, then evaluates to Body.
type Assert struct {
	Base
	Cond Expr
	Body Expr
}

// BinOpKind enumerates the binary operator node kinds that are not
// string concatenation.
type BinOpKind int

const (
	OpEq BinOpKind = iota
	OpNEq
	OpAnd
	OpOr
	OpImpl
	OpUpdate
	OpConcatLists
	OpLt
	OpGt
	OpLeq
	OpGeq
	OpAdd
	OpSub
	OpMul
	OpDiv
)

// BinOp is a binary operator application.
type BinOp struct {
	Base
	Op    BinOpKind
	Left  Expr
	Right Expr
}

// UnaryNot is the `!` operator.
type UnaryNot struct {
	Base
	E Expr
}

// UnaryNeg is unary `-`.
type UnaryNeg struct {
	Base
	E Expr
}

// ConcatStrings is a string built from literal and interpolated parts:
// `"a${b}c"` or an indented string after stripping. IsInterpolation
// marks whether any part came from `${...}` (vs. a source string with
// no interpolation at all, which parses directly to Str).
type ConcatStrings struct {
	Base
	Parts           []Expr
	IsInterpolation bool
}

// InheritFromVar is the pseudo-variable produced for names bound via
// `inherit (e) name;`: it reads slot Displ of the attrs literal's
// hidden inherit-from env frame, which caches e's forced value.
type InheritFromVar struct {
	Base
	Displ int
	Name  symbol.Symbol
}

// CurPos evaluates to the `__curPos` attrset at its own position.
type CurPos struct {
	Base
}

// NativeThunk wraps an arbitrary Go closure as an expression so
// builtins that must produce a value lazily (e.g. mapAttrs, whose
// per-entry callback should only run if the caller actually selects
// that entry) can build a thunk cell without an AST fragment to
// re-evaluate. Never produced by the parser.
type NativeThunk struct {
	Base
	Fn func() Value
}

// Value is the minimal value contract eval.Eval needs back from a
// NativeThunk without this package depending on internal/values (which
// already depends on this package). eval.go adapts it to *values.Value.
type Value interface{}

// BlackHole is never produced by the parser, and nothing else constructs
// it: a thunk being forced is marked on the value cell
// (values.KindBlackhole) and keeps its original Expr. The resolver treats
// this node as a leaf; the evaluator has no case for it.
type BlackHole struct {
	Base
}

// NewBase constructs the embeddable position-carrying Base.
func NewBase(pos postable.PosIdx) Base {
	return Base{PosIdx: pos}
}
