// Package resolver implements the StaticResolver: a single post-parse
// pass that assigns (level, displ) coordinates to every Var node,
// detects undefined variables, validates lambda formals and `let`
// bindings, and sorts/merges attribute-set literal paths. Its
// scope-chain walk follows the block/free-variable model used by
// statically scoped embedded languages (see DESIGN.md), adapted to this
// language's level/displacement contract instead of that reference's
// cell-promotion scheme, since this evaluator's Env is a slot array,
// not a set of boxed cells.
package resolver

import (
	"sort"

	"github.com/purelang/evalcore/internal/ast"
	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/symbol"
)

// scope is one static frame: either an ordinary binder frame (let, rec
// attrs, lambda, inherit-from) with a name->displ map, or a `with`
// frame, which has no names of its own but marks a dynamic-lookup
// boundary.
type scope struct {
	parent  *scope
	isWith  bool
	names   map[symbol.Symbol]int // name -> displ, nil for with-frames
	size    int                   // number of slots this frame reserves
}

// Resolver walks an ast.Expr tree mutating Var nodes in place.
type Resolver struct {
	syms *symbol.Table
}

// New creates a Resolver. names is interned via syms, the same table
// the parser used, so Symbol values line up.
func New(syms *symbol.Table) *Resolver {
	return &Resolver{syms: syms}
}

// Resolve resolves root in place. rootNames lists the symbols bound in
// the base environment (builtins), in slot order, used to build the
// initial root scope.
func (r *Resolver) Resolve(root ast.Expr, rootNames []symbol.Symbol) {
	base := &scope{names: map[symbol.Symbol]int{}}
	for i, n := range rootNames {
		base.names[n] = i
	}
	base.size = len(rootNames)
	r.resolveExpr(root, base)
}

func (r *Resolver) resolveExpr(e ast.Expr, s *scope) {
	switch n := e.(type) {
	case *ast.Int, *ast.Float, *ast.Str, *ast.CurPos, *ast.BlackHole:
		// leaves, nothing to resolve
	case *ast.Path:
		// path literals carry no sub-expressions in this grammar;
		// `${...}` segments inside paths are not supported.
	case *ast.Var:
		r.resolveVar(n, s)
	case *ast.Select:
		r.resolveExpr(n.E, s)
		r.resolveAttrPath(n.Path, s)
		if n.Default != nil {
			r.resolveExpr(n.Default, s)
		}
	case *ast.HasAttr:
		r.resolveExpr(n.E, s)
		r.resolveAttrPath(n.Path, s)
	case *ast.Attrs:
		r.resolveAttrs(n, s)
	case *ast.List:
		for _, el := range n.Elems {
			r.resolveExpr(el, s)
		}
	case *ast.Lambda:
		r.resolveLambda(n, s)
	case *ast.Call:
		r.resolveExpr(n.Fn, s)
		r.resolveExpr(n.Arg, s)
	case *ast.Let:
		r.resolveLet(n, s)
	case *ast.With:
		r.resolveExpr(n.Scope, s)
		withScope := &scope{parent: s, isWith: true}
		r.resolveExpr(n.Body, withScope)
	case *ast.If:
		r.resolveExpr(n.Cond, s)
		r.resolveExpr(n.Then, s)
		r.resolveExpr(n.Else, s)
	case *ast.Assert:
		r.resolveExpr(n.Cond, s)
		r.resolveExpr(n.Body, s)
	case *ast.BinOp:
		r.resolveExpr(n.Left, s)
		r.resolveExpr(n.Right, s)
	case *ast.UnaryNot:
		r.resolveExpr(n.E, s)
	case *ast.UnaryNeg:
		r.resolveExpr(n.E, s)
	case *ast.ConcatStrings:
		for _, part := range n.Parts {
			r.resolveExpr(part, s)
		}
	case *ast.InheritFromVar:
		// already resolved by construction (resolveAttrs assigns Displ)
	case *ast.NativeThunk:
		// evaluator-only node wrapping a Go closure; never holds a Var
		// to resolve (scopedImport's injected `with` scope uses this).
	default:
		errs.Throw(errs.EvalError, e.Pos(), "resolver: unhandled node type %T", e)
	}
}

func (r *Resolver) resolveVar(v *ast.Var, s *scope) {
	level := 0
	for f := s; f != nil; f = f.parent {
		if f.isWith {
			level++
			continue
		}
		if displ, ok := f.names[v.Name]; ok {
			v.Level = level
			v.Displ = displ
			v.FromWith = false
			return
		}
		level++
	}
	// not found in any static frame: if there is an enclosing `with`,
	// resolve dynamically through the nearest one.
	innermostWithLevel := -1
	level = 0
	for f := s; f != nil; f = f.parent {
		if f.isWith && innermostWithLevel == -1 {
			innermostWithLevel = level
		}
		level++
	}
	if innermostWithLevel >= 0 {
		v.Level = innermostWithLevel
		v.FromWith = true
		return
	}
	err := errs.New(errs.UndefinedVarError, v.Pos(), "undefined variable '%s'", r.syms.String(v.Name))
	err.WithSuggestions(r.suggest(v.Name, s))
	panic(err)
}

// suggest collects in-scope names for a did-you-mean hint.
func (r *Resolver) suggest(want symbol.Symbol, s *scope) []string {
	wantStr := r.syms.String(want)
	var candidates []string
	for f := s; f != nil; f = f.parent {
		for n := range f.names {
			candidates = append(candidates, r.syms.String(n))
		}
	}
	sort.Strings(candidates)
	var out []string
	for _, c := range candidates {
		if closeEnough(wantStr, c) {
			out = append(out, c)
		}
		if len(out) >= 3 {
			break
		}
	}
	return out
}

func closeEnough(a, b string) bool {
	if a == b {
		return false
	}
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return a[0] == b[0]
}

func (r *Resolver) resolveAttrPath(path []ast.AttrPathElem, s *scope) {
	for _, elem := range path {
		if elem.Expr != nil {
			r.resolveExpr(elem.Expr, s)
		}
	}
}

func (r *Resolver) resolveLambda(lam *ast.Lambda, s *scope) {
	inner := &scope{parent: s, names: map[symbol.Symbol]int{}}
	displ := 0
	if lam.Pattern.Simple != symbol.None {
		inner.names[lam.Pattern.Simple] = displ
		displ++
	} else if lam.Pattern.IsAttrs {
		formals := append([]ast.Formal(nil), lam.Pattern.Formals...)
		sort.Slice(formals, func(i, j int) bool { return formals[i].Name < formals[j].Name })
		for i := 1; i < len(formals); i++ {
			if formals[i].Name == formals[i-1].Name {
				errs.Throw(errs.EvalError, lam.Pos(), "duplicate formal argument '%s'", r.syms.String(formals[i].Name))
			}
		}
		lam.Pattern.Formals = formals
		for _, f := range formals {
			inner.names[f.Name] = displ
			displ++
		}
		if lam.Pattern.At != symbol.None {
			inner.names[lam.Pattern.At] = displ
			displ++
		}
	}
	inner.size = displ
	// default-value expressions for attrs formals see sibling formals
	// (but not the function body) and are resolved in `inner` too.
	if lam.Pattern.IsAttrs {
		for i := range lam.Pattern.Formals {
			if lam.Pattern.Formals[i].Default != nil {
				r.resolveExpr(lam.Pattern.Formals[i].Default, inner)
			}
		}
	}
	r.resolveExpr(lam.Body, inner)
}

// resolveAttrs handles both plain and `rec` attribute-set literals,
// including nested-path merge, `${}` dynamic names, and `inherit (e)
// ...` hidden-frame sizing. It returns the rec scope it built (nil for
// non-recursive attrs), so callers like resolveLet that need the same
// frame for a trailing body don't have to reconstruct it.
func (r *Resolver) resolveAttrs(a *ast.Attrs, s *scope) *scope {
	r.mergeNestedAttrPaths(a)

	if !a.Recursive {
		nextSlot := 0
		for i := range a.Inherits {
			if a.Inherits[i].From != nil {
				r.resolveExpr(a.Inherits[i].From, s)
				a.Inherits[i].FromSlot = nextSlot
				nextSlot++
			} else {
				a.Inherits[i].ResolvedVars = r.resolveInheritNames(a.Inherits[i], s)
			}
		}
		a.InheritFromSlots = nextSlot
		for _, b := range a.Attrs {
			r.resolveAttrPath(b.Path, s)
			r.resolveExpr(b.Value, s)
		}
		return nil
	}

	inner := r.buildRecScope(a, s)
	for i := range a.Inherits {
		if a.Inherits[i].From != nil {
			r.resolveExpr(a.Inherits[i].From, s)
		} else {
			a.Inherits[i].ResolvedVars = r.resolveInheritNames(a.Inherits[i], s)
		}
	}
	for _, b := range a.Attrs {
		r.resolveAttrPath(b.Path, inner)
		r.resolveExpr(b.Value, inner)
	}
	return inner
}

// resolveInheritNames builds a resolved Var per name of a plain
// `inherit x y;` clause (From == nil), looked up in the scope
// enclosing the attrs/let rather than the new rec frame.
func (r *Resolver) resolveInheritNames(ih ast.InheritBinding, s *scope) []*ast.Var {
	vars := make([]*ast.Var, len(ih.Names))
	for i, name := range ih.Names {
		v := &ast.Var{Base: ast.NewBase(ih.Pos), Name: name}
		r.resolveVar(v, s)
		vars[i] = v
	}
	return vars
}

// buildRecScope allocates the frame a `rec` attrs (or `let`, which
// shares the same scoping rule) introduces: one slot per distinct
// top-level plain attribute name, per inherited name, and a trailing
// slot per distinct `inherit (e) ...` source expression used to cache
// e's forced value so repeated names evaluate it only once.
func (r *Resolver) buildRecScope(a *ast.Attrs, s *scope) *scope {
	inner := &scope{parent: s, names: map[symbol.Symbol]int{}}
	displ := 0
	var names []symbol.Symbol
	for _, b := range a.Attrs {
		if len(b.Path) == 1 && b.Path[0].Expr == nil {
			if _, exists := inner.names[b.Path[0].Name]; !exists {
				inner.names[b.Path[0].Name] = displ
				names = append(names, b.Path[0].Name)
				displ++
			}
		}
	}
	for _, ih := range a.Inherits {
		for _, name := range ih.Names {
			if _, exists := inner.names[name]; !exists {
				inner.names[name] = displ
				names = append(names, name)
				displ++
			}
		}
	}
	a.RecNames = names
	for i := range a.Inherits {
		if a.Inherits[i].From != nil {
			a.Inherits[i].FromSlot = displ
			displ++
		}
	}
	inner.size = displ
	a.RecFrameSize = displ
	return inner
}

// mergeNestedAttrPaths expands `a.b.c = 1;` sugar and merges duplicate
// nested-attrset-literal paths (`a.b.c = 1; a.b.d = 2;` -> a nested
// Attrs for `a.b`), per the resolver's documented duplicate-path rule.
func (r *Resolver) mergeNestedAttrPaths(a *ast.Attrs) {
	top := map[symbol.Symbol]*ast.Attrs{}
	seen := map[symbol.Symbol]bool{}
	var order []symbol.Symbol
	var direct []ast.AttrBinding // bindings whose first path elem is dynamic (${...}), left untouched
	for _, b := range a.Attrs {
		if len(b.Path) == 0 {
			continue
		}
		if b.Path[0].Expr != nil {
			direct = append(direct, b)
			continue
		}
		name := b.Path[0].Name
		if len(b.Path) == 1 {
			if seen[name] {
				errs.Throw(errs.EvalError, b.Pos, "duplicate attribute '%s'", r.syms.String(name))
			}
			seen[name] = true
			order = append(order, name)
			direct = append(direct, b)
			continue
		}
		na, ok := top[name]
		if !ok {
			if seen[name] {
				errs.Throw(errs.EvalError, b.Pos, "attribute '%s' already defined", r.syms.String(name))
			}
			na = &ast.Attrs{Base: ast.NewBase(b.Pos), Recursive: false}
			top[name] = na
			order = append(order, name)
		}
		na.Attrs = append(na.Attrs, ast.AttrBinding{Path: b.Path[1:], Value: b.Value, Pos: b.Pos})
	}
	rebuilt := direct
	for _, name := range order {
		if na, ok := top[name]; ok {
			r.mergeNestedAttrPaths(na)
			rebuilt = append(rebuilt, ast.AttrBinding{Path: []ast.AttrPathElem{{Name: name}}, Value: na, Pos: na.Pos()})
		}
	}
	a.Attrs = rebuilt
}

// resolveLet resolves `let attrs; in body`, rejecting dynamic attrs
// (`${expr} = ...;`) at the top level of the let's bindings.
func (r *Resolver) resolveLet(l *ast.Let, s *scope) {
	for _, b := range l.Attrs.Attrs {
		if len(b.Path) > 0 && b.Path[0].Expr != nil {
			errs.Throw(errs.EvalError, b.Pos, "dynamic attributes not allowed in let")
		}
	}
	l.Attrs.Recursive = true
	inner := r.resolveAttrs(l.Attrs, s)
	r.resolveExpr(l.Body, inner)
}
