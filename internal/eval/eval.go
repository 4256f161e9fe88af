// Package eval implements the call-by-need evaluator: Eval drives an
// expression to weak head normal form, Force drives a thunk cell to
// WHNF in place, and CallFunction (in apply.go) implements function
// application against every callable Value shape. Binary operator
// semantics, coercion and equality live in operators.go; the optional
// debug trace stack lives in trace.go.
package eval

import (
	"sort"
	"strings"

	"github.com/purelang/evalcore/internal/ast"
	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/symbol"
	"github.com/purelang/evalcore/internal/values"
)

// ContentStore is the narrow interface the evaluator needs from the
// content-addressed store: registering a path or string's contents and
// getting back a store path to pin into a string's context. Derivation
// instantiation and realization go through the same interface at a
// wider surface in internal/store; the evaluator only ever needs this
// much of it.
type ContentStore interface {
	AddTextToStore(name, content string, refs []string) (storePath string, err error)
}

// Evaluator owns the tables and policy knobs shared by every Eval/Force
// call against one program: symbol/position interning, the call-depth
// limit, the optional debug trace, and the external Store used by path
// and string coercion.
type Evaluator struct {
	Syms  *symbol.Table
	Pos   *postable.Table
	Store ContentStore

	// MaxCallDepth bounds CallFunction recursion; 0 means unbounded
	// (only used in tests — production configs always set a limit).
	MaxCallDepth int
	depth        int

	// AllowIntInterpolation gates whether `"${1}"` coerces an integer
	// during string interpolation (spec's Interpolation coercion mode).
	AllowIntInterpolation bool

	Trace *TraceStack

	// Metrics, if non-nil, is notified of thunk forcing, blackhole
	// detection and attrset allocation; internal/metrics implements
	// this narrowly so the evaluator never imports prometheus directly.
	Metrics MetricsSink

	// ImportHook backs the import/scopedImport primops: given a
	// resolver-checked path and an optional scope attrset (nil for
	// plain import), it parses, resolves and evaluates that file
	// against this evaluator's own base environment. pkg/langcore's
	// implementation caches plain imports by checked path; scopedImport
	// results are not cached. pkg/langcore wires this
	// since only it holds the symbol table, base names and base
	// environment the evaluator core doesn't itself own. Nil means
	// import/scopedImport raise EvalError.
	ImportHook func(path string, scope *values.Value, pos postable.PosIdx) *values.Value

	// Logger receives printf-style diagnostic output, the plain-printf
	// idiom the teacher's own tooling uses in place of a structured
	// logging library. Nil means diagnostics are discarded.
	Logger Logger
}

// Logger is the evaluator's diagnostic sink. cmd/langeval wires a
// colorized stderr logger; tests and a bare Engine leave it nil.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

func (ev *Evaluator) logErrorf(format string, args ...interface{}) {
	if ev.Logger != nil {
		ev.Logger.Errorf(format, args...)
	}
}

func (ev *Evaluator) logInfof(format string, args ...interface{}) {
	if ev.Logger != nil {
		ev.Logger.Infof(format, args...)
	}
}

// MetricsSink is the narrow set of counters the evaluator increments as
// it runs; internal/metrics.Evaluator satisfies it.
type MetricsSink interface {
	ThunkForced()
	BlackholeHit()
	AttrsetAllocated()
	ObserveCallDepth(depth int)
}

// New builds an Evaluator. syms and pos must be the same tables the
// parser and resolver used, so Symbol/PosIdx values line up.
func New(syms *symbol.Table, pos *postable.Table, store ContentStore) *Evaluator {
	return &Evaluator{Syms: syms, Pos: pos, Store: store, MaxCallDepth: 10000}
}

// Eval evaluates expr in env to weak head normal form. It never
// returns a Thunk, App-like, or Blackhole value.
func (ev *Evaluator) Eval(expr ast.Expr, env *values.Env) *values.Value {
	switch n := expr.(type) {
	case *ast.Int:
		return values.Int(n.Value)
	case *ast.Float:
		return values.Float(n.Value)
	case *ast.Str:
		return values.Str(n.Value)
	case *ast.Path:
		return values.PathV(canonicalizePath(n.Raw))
	case *ast.Var:
		return ev.evalVar(n, env)
	case *ast.Select:
		return ev.evalSelect(n, env)
	case *ast.HasAttr:
		return values.Bool(ev.evalHasAttr(n, env))
	case *ast.Attrs:
		return ev.evalAttrs(n, env)
	case *ast.List:
		elems := make([]*values.Value, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = ev.thunk(el, env)
		}
		return values.ListV(elems)
	case *ast.Lambda:
		return &values.Value{Kind: values.KindLambda, Lam: n, Env: env}
	case *ast.Call:
		fn := ev.Eval(n.Fn, env)
		arg := ev.thunk(n.Arg, env)
		return ev.CallFunction(fn, []*values.Value{arg}, n.Pos())
	case *ast.Let:
		return ev.evalLet(n, env)
	case *ast.With:
		scope := ev.thunk(n.Scope, env)
		withEnv := &values.Env{Up: env, WithValue: scope}
		return ev.Eval(n.Body, withEnv)
	case *ast.If:
		if ev.ForceBool(ev.Eval(n.Cond, env), n.Pos()) {
			return ev.Eval(n.Then, env)
		}
		return ev.Eval(n.Else, env)
	case *ast.Assert:
		if !ev.ForceBool(ev.Eval(n.Cond, env), n.Pos()) {
			panic(errs.New(errs.AssertionError, n.Pos(), "assertion failed"))
		}
		return ev.Eval(n.Body, env)
	case *ast.BinOp:
		return ev.evalBinOp(n, env)
	case *ast.UnaryNot:
		return values.Bool(!ev.ForceBool(ev.Eval(n.E, env), n.Pos()))
	case *ast.UnaryNeg:
		return ev.evalNeg(ev.Eval(n.E, env), n.Pos())
	case *ast.ConcatStrings:
		return ev.evalConcatStrings(n, env)
	case *ast.InheritFromVar:
		return ev.evalInheritFromVar(n, env)
	case *ast.CurPos:
		return ev.curPosAttrs(n.Pos())
	case *ast.NativeThunk:
		return n.Fn().(*values.Value)
	default:
		panic(errs.New(errs.EvalError, expr.Pos(), "eval: unhandled node type %T", expr))
	}
}

// NativeThunk builds a lazily-evaluated cell around an arbitrary Go
// closure, for builtins (mapAttrs, zipAttrsWith) that must defer a
// callback invocation per result entry without an AST fragment to
// re-evaluate it from.
func (ev *Evaluator) NativeThunk(fn func() *values.Value) *values.Value {
	return values.NewThunk(nil, &ast.NativeThunk{Fn: func() ast.Value { return fn() }})
}

// thunk wraps expr as an unevaluated cell; literals that are already
// WHNF are evaluated eagerly since thunking them buys nothing.
func (ev *Evaluator) thunk(expr ast.Expr, env *values.Env) *values.Value {
	switch expr.(type) {
	case *ast.Int, *ast.Float, *ast.Str:
		return ev.Eval(expr, env)
	}
	return values.NewThunk(env, expr)
}

// Force drives v to WHNF in place and returns it (same pointer: other
// values may hold a reference to this cell and must observe the
// update). Already-WHNF values are returned unchanged.
func (ev *Evaluator) Force(v *values.Value) *values.Value {
	for {
		switch v.Kind {
		case values.KindBlackhole:
			if ev.Metrics != nil {
				ev.Metrics.BlackholeHit()
			}
			ev.logErrorf("infinite recursion: thunk re-entered while already being forced")
			panic(errs.New(errs.InfiniteRecursionError, postable.NoPos, "infinite recursion encountered"))
		case values.KindThunk:
			env, expr := v.ThunkEnv, v.ThunkExpr
			v.ToBlackhole()
			result, err := ev.forceSafely(expr, env)
			if err != nil {
				v.RestoreThunk(env, expr)
				if ee, ok := err.(*errs.Error); ok && ee.Kind == errs.InfiniteRecursionError && ee.Pos == postable.NoPos {
					ee.Pos = expr.Pos()
				}
				panic(err)
			}
			v.Update(result)
			if ev.Metrics != nil {
				ev.Metrics.ThunkForced()
			}
			continue
		default:
			return v
		}
	}
}

// forceSafely runs Eval under recover so Force can restore the thunk
// cell and re-raise on failure, per the thunk protocol.
func (ev *Evaluator) forceSafely(expr ast.Expr, env *values.Env) (result *values.Value, err interface{}) {
	defer func() {
		if r := recover(); r != nil {
			err = r
		}
	}()
	result = ev.Eval(expr, env)
	return result, nil
}

// ForceDeep recursively forces a value and, for lists/attrsets, every
// element/attribute value, as `builtins.deepSeq`/`toJSON` require.
func (ev *Evaluator) ForceDeep(v *values.Value) *values.Value {
	v = ev.Force(v)
	switch v.Kind {
	case values.KindList:
		for _, el := range v.List {
			ev.ForceDeep(el)
		}
	case values.KindAttrs:
		for i := 0; i < v.Attrs.Len(); i++ {
			ev.ForceDeep(v.Attrs.At(i).Value)
		}
	}
	return v
}

func (ev *Evaluator) typeError(pos postable.PosIdx, want string, v *values.Value) *errs.Error {
	return errs.New(errs.TypeError, pos, "expected %s, got %s", want, v.Kind.String())
}

// ForceInt forces v and requires it to be an Int (Float is never
// silently coerced here; callers that accept either use ForceNumber).
func (ev *Evaluator) ForceInt(v *values.Value, pos postable.PosIdx) int64 {
	v = ev.Force(v)
	if v.Kind != values.KindInt {
		panic(ev.typeError(pos, "int", v))
	}
	return v.I
}

// ForceNumber forces v, requiring Int or Float, and returns it widened
// to float64 plus whether the original was an Int.
func (ev *Evaluator) ForceNumber(v *values.Value, pos postable.PosIdx) (f float64, isInt bool) {
	v = ev.Force(v)
	switch v.Kind {
	case values.KindInt:
		return float64(v.I), true
	case values.KindFloat:
		return v.F, false
	}
	panic(ev.typeError(pos, "number", v))
}

// ForceString forces v and requires a String, returning bytes+context.
func (ev *Evaluator) ForceString(v *values.Value, pos postable.PosIdx) (string, values.StringContext) {
	v = ev.Force(v)
	if v.Kind != values.KindString {
		panic(ev.typeError(pos, "string", v))
	}
	return v.S, v.Ctx
}

// ForceBool forces v and requires a Bool.
func (ev *Evaluator) ForceBool(v *values.Value, pos postable.PosIdx) bool {
	v = ev.Force(v)
	if v.Kind != values.KindBool {
		panic(ev.typeError(pos, "bool", v))
	}
	return v.B
}

// ForceAttrs forces v and requires an attribute set.
func (ev *Evaluator) ForceAttrs(v *values.Value, pos postable.PosIdx) *values.Bindings {
	v = ev.Force(v)
	if v.Kind != values.KindAttrs {
		panic(ev.typeError(pos, "set", v))
	}
	return v.Attrs
}

// ForceList forces v and requires a list.
func (ev *Evaluator) ForceList(v *values.Value, pos postable.PosIdx) []*values.Value {
	v = ev.Force(v)
	if v.Kind != values.KindList {
		panic(ev.typeError(pos, "list", v))
	}
	return v.List
}

// ForceFunction forces v and requires something callable: a lambda, a
// primop (possibly partially applied), or an attrset with __functor.
func (ev *Evaluator) ForceFunction(v *values.Value, pos postable.PosIdx) *values.Value {
	v = ev.Force(v)
	switch v.Kind {
	case values.KindLambda, values.KindPrimOp, values.KindPrimOpApp:
		return v
	case values.KindAttrs:
		if _, ok := v.Attrs.Get(ev.Syms.Intern("__functor")); ok {
			return v
		}
	}
	panic(ev.typeError(pos, "function", v))
}

func (ev *Evaluator) evalVar(v *ast.Var, env *values.Env) *values.Value {
	if v.FromWith {
		return ev.lookupWithVar(env, v.Name, v.Pos())
	}
	frame := env.Frame(v.Level)
	return ev.Force(frame.Slots[v.Displ])
}

// lookupWithVar walks the runtime Env chain (which mirrors the static
// scope's `with` frames one-to-one) looking for name in the nearest
// enclosing `with` whose scope attrset actually has it, falling
// through to outer `with`s when it doesn't — the dynamic half of name
// resolution the resolver cannot decide at parse time.
func (ev *Evaluator) lookupWithVar(env *values.Env, name symbol.Symbol, pos postable.PosIdx) *values.Value {
	for f := env; f != nil; f = f.Up {
		if f.WithValue == nil {
			continue
		}
		attrs := ev.ForceAttrs(f.WithValue, pos)
		if val, ok := attrs.Get(name); ok {
			return ev.Force(val)
		}
	}
	panic(errs.New(errs.UndefinedVarError, pos, "undefined variable '%s'", ev.Syms.String(name)))
}

func (ev *Evaluator) evalInheritFromVar(n *ast.InheritFromVar, env *values.Env) *values.Value {
	cache := ev.Force(env.Slots[n.Displ])
	attrs := ev.ForceAttrs(cache, n.Pos())
	val, ok := attrs.Get(n.Name)
	if !ok {
		panic(errs.New(errs.EvalError, n.Pos(), "attribute '%s' missing from inherit source", ev.Syms.String(n.Name)))
	}
	return ev.Force(val)
}

// attrName resolves one AttrPathElem to a Symbol, forcing and
// requiring a string if it is a `${...}` dynamic component.
func (ev *Evaluator) attrName(elem ast.AttrPathElem, env *values.Env) symbol.Symbol {
	if elem.Expr == nil {
		return elem.Name
	}
	s, _ := ev.ForceString(ev.Eval(elem.Expr, env), elem.Expr.Pos())
	return ev.Syms.Intern(s)
}

// evalSelect walks the attribute path, iteratively forcing and
// descending. Any step that hits a non-set value or a missing name
// falls back to the `or` default if present; otherwise it raises the
// precise error for what actually went wrong at that step.
func (ev *Evaluator) evalSelect(n *ast.Select, env *values.Env) *values.Value {
	cur := ev.Eval(n.E, env)
	for _, elem := range n.Path {
		v := ev.Force(cur)
		if v.Kind != values.KindAttrs {
			if n.Default != nil {
				return ev.Eval(n.Default, env)
			}
			panic(ev.typeError(n.Pos(), "set", v))
		}
		name := ev.attrName(elem, env)
		val, ok := v.Attrs.Get(name)
		if !ok {
			if n.Default != nil {
				return ev.Eval(n.Default, env)
			}
			panic(ev.missingAttrError(v.Attrs, name, n.Pos()))
		}
		cur = ev.Force(val)
	}
	return cur
}

func (ev *Evaluator) missingAttrError(attrs *values.Bindings, name symbol.Symbol, pos postable.PosIdx) *errs.Error {
	err := errs.New(errs.EvalError, pos, "attribute '%s' missing", ev.Syms.String(name))
	err.WithSuggestions(ev.suggestAttr(attrs, name))
	return err
}

func (ev *Evaluator) suggestAttr(attrs *values.Bindings, want symbol.Symbol) []string {
	wantStr := ev.Syms.String(want)
	var candidates []string
	for i := 0; i < attrs.Len(); i++ {
		candidates = append(candidates, ev.Syms.String(attrs.At(i).Name))
	}
	sort.Strings(candidates)
	var out []string
	for _, c := range candidates {
		if len(c) > 0 && len(wantStr) > 0 && c[0] == wantStr[0] && c != wantStr {
			out = append(out, c)
		}
		if len(out) >= 3 {
			break
		}
	}
	return out
}

func (ev *Evaluator) evalHasAttr(n *ast.HasAttr, env *values.Env) bool {
	cur := ev.Eval(n.E, env)
	for _, elem := range n.Path {
		v := ev.Force(cur)
		if v.Kind != values.KindAttrs {
			return false
		}
		name := ev.attrName(elem, env)
		val, ok := v.Attrs.Get(name)
		if !ok {
			return false
		}
		cur = val
	}
	return true
}

func (ev *Evaluator) curPosAttrs(pos postable.PosIdx) *values.Value {
	p := ev.Pos.Resolve(pos)
	entries := []values.Binding{
		{Name: ev.Syms.Intern("file"), Value: values.Str(p.File)},
		{Name: ev.Syms.Intern("line"), Value: values.Int(int64(p.Line))},
		{Name: ev.Syms.Intern("column"), Value: values.Int(int64(p.Column))},
	}
	return values.AttrsV(values.NewBindingsFromMap(entries))
}

func canonicalizePath(raw string) string {
	// Full canonicalization (symlink resolution, `~` expansion relative
	// to the evaluating file) needs a SourceResolver and the evaluating
	// file's directory; at this layer a path literal is only cleaned
	// syntactically. internal/source's resolver does the rest when the
	// path is actually opened.
	return cleanPathSyntax(raw)
}

func cleanPathSyntax(raw string) string {
	if raw == "" {
		return raw
	}
	prefix := ""
	rest := raw
	if strings.HasPrefix(rest, "~") {
		prefix = "~"
		rest = rest[1:]
	}
	absolute := strings.HasPrefix(rest, "/")

	segments := strings.Split(rest, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else if !absolute {
				out = append(out, seg)
			}
			// an absolute path's ".." past the root is dropped, per the
			// "no `..` in a canonicalized path" invariant.
		default:
			out = append(out, seg)
		}
	}

	joined := strings.Join(out, "/")
	if absolute {
		return prefix + "/" + joined
	}
	if joined == "" {
		return prefix + "."
	}
	return prefix + joined
}

func (ev *Evaluator) evalConcatStrings(n *ast.ConcatStrings, env *values.Env) *values.Value {
	var buf []byte
	ctx := values.StringContext{}
	for _, part := range n.Parts {
		s, c := ev.coerceToString(ev.Eval(part, env), part.Pos(), coerceInterpolation)
		buf = append(buf, s...)
		ctx = values.Union(ctx, c)
	}
	return values.StrCtx(string(buf), ctx)
}

func (ev *Evaluator) evalNeg(v *values.Value, pos postable.PosIdx) *values.Value {
	v = ev.Force(v)
	switch v.Kind {
	case values.KindInt:
		return values.Int(-v.I)
	case values.KindFloat:
		return values.Float(-v.F)
	}
	panic(ev.typeError(pos, "number", v))
}

func (ev *Evaluator) evalLet(n *ast.Let, env *values.Env) *values.Value {
	recEnv := ev.buildRecEnv(n.Attrs, env)
	return ev.Eval(n.Body, recEnv)
}

// buildRecEnv allocates and populates the env frame for a `rec`-scoped
// Attrs node (shared by `rec {}` literals and `let`, which the
// resolver treats identically). The frame is installed before its
// bindings are thunked so sibling/self references close over it.
func (ev *Evaluator) buildRecEnv(a *ast.Attrs, outer *values.Env) *values.Env {
	inner := values.NewEnv(outer, a.RecFrameSize)

	slotOf := make(map[symbol.Symbol]int, len(a.RecNames))
	for slot, name := range a.RecNames {
		slotOf[name] = slot
	}
	for _, b := range a.Attrs {
		if len(b.Path) == 1 && b.Path[0].Expr == nil {
			slot := slotOf[b.Path[0].Name]
			inner.Slots[slot] = ev.thunk(b.Value, inner)
		}
	}
	for _, ih := range a.Inherits {
		if ih.From != nil {
			continue
		}
		for i, name := range ih.Names {
			inner.Slots[slotOf[name]] = ev.thunk(ih.ResolvedVars[i], outer)
		}
	}
	for _, ih := range a.Inherits {
		if ih.From == nil {
			continue
		}
		inner.Slots[ih.FromSlot] = ev.thunk(ih.From, outer)
		for _, name := range ih.Names {
			inner.Slots[slotOf[name]] = values.NewThunk(inner, &ast.InheritFromVar{
				Base:  ast.NewBase(ih.Pos),
				Displ: ih.FromSlot,
				Name:  name,
			})
		}
	}
	return inner
}

func (ev *Evaluator) evalAttrs(a *ast.Attrs, env *values.Env) *values.Value {
	if ev.Metrics != nil {
		ev.Metrics.AttrsetAllocated()
	}
	if !a.Recursive {
		return ev.evalPlainAttrs(a, env)
	}
	inner := ev.buildRecEnv(a, env)
	result := ev.finishRecAttrs(a, inner)
	return ev.applyDynamicAttrs(a, inner, result)
}

func (ev *Evaluator) evalPlainAttrs(a *ast.Attrs, env *values.Env) *values.Value {
	var entries []values.Binding
	for _, b := range a.Attrs {
		if len(b.Path) != 1 || b.Path[0].Expr != nil {
			continue
		}
		entries = append(entries, values.Binding{Name: b.Path[0].Name, Value: ev.thunk(b.Value, env), Pos: b.Pos})
	}
	var fromCache []*values.Value
	if a.InheritFromSlots > 0 {
		fromCache = make([]*values.Value, a.InheritFromSlots)
	}
	for _, ih := range a.Inherits {
		if ih.From != nil {
			fromCache[ih.FromSlot] = ev.thunk(ih.From, env)
			continue
		}
		for i, name := range ih.Names {
			entries = append(entries, values.Binding{Name: name, Value: ev.thunk(ih.ResolvedVars[i], env), Pos: ih.Pos})
		}
	}
	for _, ih := range a.Inherits {
		if ih.From == nil {
			continue
		}
		src := fromCache[ih.FromSlot]
		for _, name := range ih.Names {
			entries = append(entries, values.Binding{Name: name, Value: ev.inheritFromThunk(src, name, ih.Pos), Pos: ih.Pos})
		}
	}
	result := values.AttrsV(values.NewBindingsFromMap(entries))
	return ev.applyDynamicAttrs(a, env, result)
}

// inheritFromThunk builds a lazy lookup of name within src (the cached
// `inherit (e) ...` source value), without re-forcing src per name.
func (ev *Evaluator) inheritFromThunk(src *values.Value, name symbol.Symbol, pos postable.PosIdx) *values.Value {
	return values.NewThunk(&values.Env{Slots: []*values.Value{src}}, &ast.InheritFromVar{
		Base:  ast.NewBase(pos),
		Displ: 0,
		Name:  name,
	})
}

// finishRecAttrs reads back the rec frame's named-binding slots
// (skipping the trailing inherit-from cache slots) into a sorted
// Bindings, then applies `__overrides` if present.
func (ev *Evaluator) finishRecAttrs(a *ast.Attrs, inner *values.Env) *values.Value {
	entries := make([]values.Binding, len(a.RecNames))
	for i, n := range a.RecNames {
		entries[i] = values.Binding{Name: n, Value: inner.Slots[i], Pos: a.Pos()}
	}
	bindings := values.NewBindingsFromMap(entries)

	overridesSym := ev.Syms.Intern("__overrides")
	if overridesVal, ok := bindings.Get(overridesSym); ok {
		overrides := ev.ForceAttrs(overridesVal, a.Pos())
		merged := append([]values.Binding(nil), bindings.All()...)
		for i := 0; i < overrides.Len(); i++ {
			ob := overrides.At(i)
			replaced := false
			for j := range merged {
				if merged[j].Name == ob.Name {
					merged[j].Value = ob.Value
					replaced = true
					break
				}
			}
			if !replaced {
				merged = append(merged, ob)
			}
		}
		// updating env slots lets sibling bindings that reference the
		// overridden name by slot (not by re-selecting the result
		// attrset) see the override too.
		for _, m := range merged {
			if slot, ok := findSlot(a, m.Name); ok {
				inner.Slots[slot] = m.Value
			}
		}
		return values.AttrsV(values.NewBindingsFromMap(merged))
	}
	return values.AttrsV(bindings)
}

func findSlot(a *ast.Attrs, name symbol.Symbol) (int, bool) {
	for slot, n := range a.RecNames {
		if n == name {
			return slot, true
		}
	}
	return 0, false
}

// applyDynamicAttrs evaluates `${expr} = value;` bindings, which run
// strictly after rec/overrides per the documented ordering. A `rec`
// set's dynamic bindings see the same rec frame as its plain bindings
// (env is already that frame in that case); self-reference back
// through the attrset being built here is caught by the ordinary
// thunk black-hole protocol on whichever cell wraps this expression,
// so no extra guard is needed at this layer.
func (ev *Evaluator) applyDynamicAttrs(a *ast.Attrs, env *values.Env, base *values.Value) *values.Value {
	var dyn []ast.AttrBinding
	for _, b := range a.Attrs {
		if len(b.Path) >= 1 && b.Path[0].Expr != nil {
			dyn = append(dyn, b)
		}
	}
	if len(dyn) == 0 {
		return base
	}
	merged := append([]values.Binding(nil), base.Attrs.All()...)
	for _, b := range dyn {
		if len(b.Path) > 1 {
			panic(errs.New(errs.EvalError, b.Pos, "nested dynamic attribute paths are not supported"))
		}
		nameVal := ev.Force(ev.Eval(b.Path[0].Expr, env))
		if nameVal.Kind == values.KindNull {
			continue
		}
		s, _ := ev.ForceString(nameVal, b.Path[0].Expr.Pos())
		name := ev.Syms.Intern(s)
		for _, m := range merged {
			if m.Name == name {
				panic(errs.New(errs.EvalError, b.Pos, "dynamic attribute '%s' already defined", ev.Syms.String(name)))
			}
		}
		merged = append(merged, values.Binding{Name: name, Value: ev.thunk(b.Value, env), Pos: b.Pos})
	}
	return values.AttrsV(values.NewBindingsFromMap(merged))
}
