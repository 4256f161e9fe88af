package eval

import (
	"github.com/purelang/evalcore/internal/ast"
	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/symbol"
	"github.com/purelang/evalcore/internal/values"
)

// CallFunction applies fn to args (one at a time — multi-argument
// application reaches here as nested single-arg calls, matching how
// the parser builds left-associative Call chains). It forces fn and
// dispatches on every callable shape: Lambda, PrimOp/PrimOpApp, and
// attrsets carrying __functor.
func (ev *Evaluator) CallFunction(fn *values.Value, args []*values.Value, pos postable.PosIdx) *values.Value {
	for _, arg := range args {
		fn = ev.callOne(fn, arg, pos)
	}
	return fn
}

func (ev *Evaluator) callOne(fn *values.Value, arg *values.Value, pos postable.PosIdx) *values.Value {
	ev.depth++
	if ev.MaxCallDepth > 0 && ev.depth > ev.MaxCallDepth {
		ev.depth--
		panic(errs.New(errs.EvalError, pos, "stack overflow"))
	}
	if ev.Metrics != nil {
		ev.Metrics.ObserveCallDepth(ev.depth)
	}
	defer func() { ev.depth-- }()

	fn = ev.Force(fn)
	switch fn.Kind {
	case values.KindLambda:
		return ev.applyLambda(fn, arg, pos)
	case values.KindPrimOp:
		return ev.applyPrimOp(fn.Prim, fn, nil, arg, pos)
	case values.KindPrimOpApp:
		root, collected := ev.unrollPrimOpApp(fn)
		return ev.applyPrimOp(root, fn, collected, arg, pos)
	case values.KindAttrs:
		functor := ev.Syms.Intern("__functor")
		if fnAttr, ok := fn.Attrs.Get(functor); ok {
			self := ev.CallFunction(ev.Force(fnAttr), []*values.Value{fn}, pos)
			return ev.CallFunction(self, []*values.Value{arg}, pos)
		}
	}
	panic(errs.New(errs.TypeError, pos, "attempt to call a %s value", fn.Kind.String()))
}

// unrollPrimOpApp walks a PrimOpApp chain back to its root PrimOp,
// collecting previously applied arguments in call order.
func (ev *Evaluator) unrollPrimOpApp(v *values.Value) (*values.PrimOp, []*values.Value) {
	var collected []*values.Value
	for v.Kind == values.KindPrimOpApp {
		collected = append([]*values.Value{v.AppArg}, collected...)
		v = v.AppLeft
	}
	return v.Prim, collected
}

// applyPrimOp accumulates one more argument onto a (possibly partial)
// primop application. chainSoFar is the already-built Value (a bare
// PrimOp the first time, a PrimOpApp thereafter) reused as-is when the
// result is still partial, so no chain reconstruction is needed.
func (ev *Evaluator) applyPrimOp(prim *values.PrimOp, chainSoFar *values.Value, collected []*values.Value, newArg *values.Value, pos postable.PosIdx) *values.Value {
	all := append(append([]*values.Value(nil), collected...), newArg)
	if len(all) < prim.Arity {
		return &values.Value{Kind: values.KindPrimOpApp, AppLeft: chainSoFar, AppArg: newArg}
	}
	ev.Trace.pushPrimOp(prim.Name, pos)
	defer ev.Trace.pop()
	return prim.Fn(all, pos)
}

// applyLambda destructures arg against fn's pattern and evaluates the
// body in the resulting frame.
func (ev *Evaluator) applyLambda(fn *values.Value, arg *values.Value, pos postable.PosIdx) *values.Value {
	lam := fn.Lam
	pat := lam.Pattern
	ev.Trace.pushLambda(lam.Pos())
	defer ev.Trace.pop()

	if !pat.IsAttrs {
		inner := values.NewEnv(fn.Env, 1)
		inner.Slots[0] = arg
		return ev.Eval(lam.Body, inner)
	}

	size := len(pat.Formals)
	if pat.At != symbol.None {
		size++
	}
	inner := values.NewEnv(fn.Env, size)
	argAttrs := ev.ForceAttrs(arg, pos)

	if !pat.Ellipsis {
		for i := 0; i < argAttrs.Len(); i++ {
			name := argAttrs.At(i).Name
			if !formalsContain(pat.Formals, name) {
				panic(errs.New(errs.MissingArgumentError, pos, "called with unexpected argument '%s'", ev.Syms.String(name)))
			}
		}
	}
	for i, f := range pat.Formals {
		val, ok := argAttrs.Get(f.Name)
		if !ok {
			if f.Default == nil {
				panic(errs.New(errs.MissingArgumentError, pos, "called without required argument '%s'", ev.Syms.String(f.Name)))
			}
			val = values.NewThunk(inner, f.Default)
		}
		inner.Slots[i] = val
	}
	if pat.At != symbol.None {
		inner.Slots[len(pat.Formals)] = arg
	}
	return ev.Eval(lam.Body, inner)
}

func formalsContain(formals []ast.Formal, name symbol.Symbol) bool {
	for _, f := range formals {
		if f.Name == name {
			return true
		}
	}
	return false
}
