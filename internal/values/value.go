// Package values defines the evaluator's runtime Value representation:
// the tagged union, the runtime Env frame (the static scope used during
// resolution lives in internal/resolver), attribute-set Bindings, and
// string contexts.
package values

import (
	"sort"

	"github.com/spaolacci/murmur3"

	"github.com/purelang/evalcore/internal/ast"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/symbol"
)

// PrimOpFn is a builtin's implementation. args are unforced (thunks or
// already-WHNF values per the caller's laziness); the implementation
// forces what it needs via the evaluator's forceX helpers so that a
// type error carries pos, the call site, in its message.
type PrimOpFn func(args []*Value, pos postable.PosIdx) *Value

// Kind discriminates the Value tagged union.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindPath
	KindNull
	KindAttrs
	KindList
	KindLambda
	KindPrimOp
	KindPrimOpApp
	KindThunk
	KindBlackhole
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindPath:
		return "path"
	case KindNull:
		return "null"
	case KindAttrs:
		return "set"
	case KindList:
		return "list"
	case KindLambda, KindPrimOp, KindPrimOpApp:
		return "lambda"
	case KindThunk, KindBlackhole:
		return "thunk"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// ContextElemKind discriminates StringContext members.
type ContextElemKind int

const (
	CtxOpaque ContextElemKind = iota
	CtxBuilt
	CtxDrvDeep
)

// ContextElem is one tagged store-path reference carried by a string.
type ContextElem struct {
	Kind       ContextElemKind
	StorePath  string // Opaque, DrvDeep
	DrvPath    string // Built
	OutputName string // Built
}

// Less orders context elements for the sorted-set invariant: by kind
// first, then by store path (for Built elements, derivation path then
// output name), so the set has one canonical order.
func (a ContextElem) Less(b ContextElem) bool {
	ka, kb := a.key(), b.key()
	return ka < kb
}

func (a ContextElem) key() string {
	switch a.Kind {
	case CtxOpaque:
		return "0" + a.StorePath
	case CtxBuilt:
		return "1" + a.DrvPath + "\x00" + a.OutputName
	case CtxDrvDeep:
		return "2" + a.StorePath
	}
	return ""
}

// StringContext is a sorted, deduplicated set of ContextElems.
type StringContext struct {
	elems []ContextElem
}

// NewStringContext builds a StringContext from an arbitrary slice,
// sorting and deduplicating it.
func NewStringContext(elems ...ContextElem) StringContext {
	if len(elems) == 0 {
		return StringContext{}
	}
	cp := append([]ContextElem(nil), elems...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Less(cp[j]) })
	out := cp[:1]
	for _, e := range cp[1:] {
		if e.key() != out[len(out)-1].key() {
			out = append(out, e)
		}
	}
	return StringContext{elems: out}
}

// Elems returns the sorted elements; callers must not mutate the result.
func (c StringContext) Elems() []ContextElem { return c.elems }

// Empty reports whether the context has no elements.
func (c StringContext) Empty() bool { return len(c.elems) == 0 }

// Union merges two contexts, maintaining sortedness and dedup.
func Union(a, b StringContext) StringContext {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return NewStringContext(append(append([]ContextElem(nil), a.elems...), b.elems...)...)
}

// Equal reports structural equality of two contexts (same elements, same order).
func (c StringContext) Equal(o StringContext) bool {
	if len(c.elems) != len(o.elems) {
		return false
	}
	for i := range c.elems {
		if c.elems[i].key() != o.elems[i].key() {
			return false
		}
	}
	return true
}

// Binding is one (name, value, position) entry of an attribute set.
type Binding struct {
	Name  symbol.Symbol
	Value *Value
	Pos   postable.PosIdx
}

// Bindings is a sorted-by-Symbol array of attribute bindings shared by
// pointer among Values that reference the same set (e.g. a `//` with an
// empty operand returns the other operand's Bindings as they are).
type Bindings struct {
	entries []Binding
}

// NewBindingsSorted builds a Bindings from entries already known to be
// sorted and deduplicated by the caller (the common case: the resolver
// / evaluator produce bindings in sorted order directly).
func NewBindingsSorted(entries []Binding) *Bindings {
	return &Bindings{entries: entries}
}

// NewBindingsFromMap builds a sorted Bindings, sorting the given
// entries, for paths that assemble a set dynamically (merges, builtins).
func NewBindingsFromMap(entries []Binding) *Bindings {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return &Bindings{entries: entries}
}

// Len reports the number of bindings.
func (b *Bindings) Len() int { return len(b.entries) }

// At returns the i-th binding in sorted order.
func (b *Bindings) At(i int) Binding { return b.entries[i] }

// All returns the underlying sorted slice; callers must not mutate it.
func (b *Bindings) All() []Binding { return b.entries }

// Get finds a binding by symbol via binary search, per invariant 2.
func (b *Bindings) Get(name symbol.Symbol) (*Value, bool) {
	i := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].Name >= name })
	if i < len(b.entries) && b.entries[i].Name == name {
		return b.entries[i].Value, true
	}
	return nil, false
}

// Value is the tagged-union runtime representation. Exactly one set of
// fields is meaningful per Kind; inline fields are used for the
// frequent small variants to avoid an allocation per value.
type Value struct {
	Kind Kind

	I   int64
	F   float64
	B   bool
	S   string
	Ctx StringContext
	P   string // canonicalized path

	Attrs *Bindings
	List  []*Value

	Lam *ast.Lambda
	Env *Env

	Prim    *PrimOp
	AppLeft *Value // PrimOpApp: accumulated-args chain, left side
	AppArg  *Value // PrimOpApp: accumulated-args chain, new argument

	ThunkEnv  *Env
	ThunkExpr ast.Expr

	External interface{}
}

// PrimOp is a built-in function descriptor.
type PrimOp struct {
	Name     string
	Arity    int
	Fn       PrimOpFn
	Gated    bool
	GateName string
}

// Env is a runtime scope frame: a parent pointer and a fixed-size slot
// array, per the static (level, displ) resolution contract.
type Env struct {
	Up    *Env
	Slots []*Value
	// WithValue holds the forced scope-attrs value for a `with` frame,
	// nil for ordinary frames. Dynamically-resolved Vars search these.
	WithValue *Value
}

// NewEnv allocates a frame of the given size linked to up.
func NewEnv(up *Env, size int) *Env {
	return &Env{Up: up, Slots: make([]*Value, size)}
}

// Frame walks up `level` parents.
func (e *Env) Frame(level int) *Env {
	f := e
	for i := 0; i < level; i++ {
		f = f.Up
	}
	return f
}

// Int constructs an already-WHNF integer value.
func Int(i int64) *Value { return &Value{Kind: KindInt, I: i} }

// Float constructs an already-WHNF float value.
func Float(f float64) *Value { return &Value{Kind: KindFloat, F: f} }

// Bool constructs an already-WHNF bool value.
func Bool(b bool) *Value { return &Value{Kind: KindBool, B: b} }

// Null is the singleton null value. It is safe to share since Null
// carries no mutable state.
var Null = &Value{Kind: KindNull}

// Str constructs a context-free string value.
func Str(s string) *Value { return &Value{Kind: KindString, S: s} }

// StrCtx constructs a string value with an explicit context.
func StrCtx(s string, ctx StringContext) *Value {
	return &Value{Kind: KindString, S: s, Ctx: ctx}
}

// PathV constructs a canonicalized path value.
func PathV(p string) *Value { return &Value{Kind: KindPath, P: p} }

// EmptyList is the shared empty-list singleton, preserved by reference
// per the `++` identity requirement.
var EmptyList = &Value{Kind: KindList, List: nil}

// ListV constructs a list value, reusing EmptyList for zero elements.
func ListV(elems []*Value) *Value {
	if len(elems) == 0 {
		return EmptyList
	}
	return &Value{Kind: KindList, List: elems}
}

// AttrsV constructs an attribute-set value.
func AttrsV(b *Bindings) *Value { return &Value{Kind: KindAttrs, Attrs: b} }

// blackholeSingleton is a shared KindBlackhole value. Nothing uses it:
// ToBlackhole marks the thunk cell itself, and re-entry onto a cell of
// KindBlackhole signals infinite recursion.
var blackholeSingleton = &Value{Kind: KindBlackhole}

// NewThunk builds an unevaluated thunk cell.
func NewThunk(env *Env, expr ast.Expr) *Value {
	return &Value{Kind: KindThunk, ThunkEnv: env, ThunkExpr: expr}
}

// ToBlackhole overwrites a thunk cell in place with the blackhole
// sentinel, per the force protocol (invariant 6). Only Kind changes:
// ThunkEnv and ThunkExpr stay in the cell, and the caller hands them to
// RestoreThunk below if the evaluation fails.
func (v *Value) ToBlackhole() {
	v.Kind = KindBlackhole
}

// RestoreThunk rewrites a cell back to its original Thunk form after a
// failed force, so that a subsequent force can retry.
func (v *Value) RestoreThunk(env *Env, expr ast.Expr) {
	v.Kind = KindThunk
	v.ThunkEnv = env
	v.ThunkExpr = expr
}

// Update overwrites a cell in place with result's fields, implementing
// the "thunk forced once, mutated in place" invariant without changing
// the cell's identity (other values may hold a pointer to it).
func (v *Value) Update(result *Value) {
	*v = *result
}

// KeySet is a hash set of string closure keys, bucketed by a 64-bit
// murmur3 hash so that builtins.genericClosure's fixed-point loop can
// test membership without an O(n) string-equality scan once the
// visited set grows large (the key collision list within a bucket is
// checked by exact comparison only on a hash match).
type KeySet struct {
	buckets map[uint64][]string
}

// NewKeySet builds an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{buckets: map[uint64][]string{}}
}

// Add reports whether key was newly inserted (false if already present).
func (s *KeySet) Add(key string) bool {
	h := murmur3.Sum64([]byte(key))
	for _, k := range s.buckets[h] {
		if k == key {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], key)
	return true
}

// IsWHNF reports whether v needs no further forcing.
func (v *Value) IsWHNF() bool {
	switch v.Kind {
	case KindThunk, KindBlackhole:
		return false
	default:
		return true
	}
}
