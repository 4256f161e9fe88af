package eval

import (
	"math"
	"strconv"

	"github.com/purelang/evalcore/internal/ast"
	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/values"
)

func (ev *Evaluator) evalBinOp(n *ast.BinOp, env *values.Env) *values.Value {
	switch n.Op {
	case ast.OpAnd:
		if !ev.ForceBool(ev.Eval(n.Left, env), n.Pos()) {
			return values.Bool(false)
		}
		return values.Bool(ev.ForceBool(ev.Eval(n.Right, env), n.Pos()))
	case ast.OpOr:
		if ev.ForceBool(ev.Eval(n.Left, env), n.Pos()) {
			return values.Bool(true)
		}
		return values.Bool(ev.ForceBool(ev.Eval(n.Right, env), n.Pos()))
	case ast.OpImpl:
		if !ev.ForceBool(ev.Eval(n.Left, env), n.Pos()) {
			return values.Bool(true)
		}
		return values.Bool(ev.ForceBool(ev.Eval(n.Right, env), n.Pos()))
	case ast.OpEq:
		return values.Bool(ev.valuesEqual(ev.Eval(n.Left, env), ev.Eval(n.Right, env), n.Pos()))
	case ast.OpNEq:
		return values.Bool(!ev.valuesEqual(ev.Eval(n.Left, env), ev.Eval(n.Right, env), n.Pos()))
	case ast.OpUpdate:
		return ev.mergeAttrs(ev.Eval(n.Left, env), ev.Eval(n.Right, env), n.Pos())
	case ast.OpConcatLists:
		return ev.concatLists(ev.Eval(n.Left, env), ev.Eval(n.Right, env), n.Pos())
	case ast.OpLt, ast.OpGt, ast.OpLeq, ast.OpGeq:
		return values.Bool(ev.compareOrdered(n.Op, ev.Eval(n.Left, env), ev.Eval(n.Right, env), n.Pos()))
	case ast.OpAdd:
		return ev.evalAdd(ev.Eval(n.Left, env), ev.Eval(n.Right, env), n.Pos())
	case ast.OpSub:
		return ev.evalArith(n.Op, ev.Eval(n.Left, env), ev.Eval(n.Right, env), n.Pos())
	case ast.OpMul:
		return ev.evalArith(n.Op, ev.Eval(n.Left, env), ev.Eval(n.Right, env), n.Pos())
	case ast.OpDiv:
		return ev.evalArith(n.Op, ev.Eval(n.Left, env), ev.Eval(n.Right, env), n.Pos())
	default:
		panic(errs.New(errs.EvalError, n.Pos(), "unknown binary operator"))
	}
}

// mergeAttrs implements `//`: right wins on key collision, result is
// sorted by symbol id per the Bindings invariant.
func (ev *Evaluator) mergeAttrs(l, r *values.Value, pos postable.PosIdx) *values.Value {
	left := ev.ForceAttrs(l, pos)
	right := ev.ForceAttrs(r, pos)
	if left.Len() == 0 {
		return values.AttrsV(right)
	}
	if right.Len() == 0 {
		return values.AttrsV(left)
	}
	merged := append([]values.Binding(nil), left.All()...)
	for i := 0; i < right.Len(); i++ {
		rb := right.At(i)
		replaced := false
		for j := range merged {
			if merged[j].Name == rb.Name {
				merged[j] = rb
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, rb)
		}
	}
	return values.AttrsV(values.NewBindingsFromMap(merged))
}

// concatLists implements `++`, preserving EmptyList identity.
func (ev *Evaluator) concatLists(l, r *values.Value, pos postable.PosIdx) *values.Value {
	left := ev.ForceList(l, pos)
	right := ev.ForceList(r, pos)
	if len(left) == 0 {
		return values.ListV(right)
	}
	if len(right) == 0 {
		return values.ListV(left)
	}
	out := make([]*values.Value, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return values.ListV(out)
}

func (ev *Evaluator) evalAdd(l, r *values.Value, pos postable.PosIdx) *values.Value {
	lv, rv := ev.Force(l), ev.Force(r)
	if lv.Kind == values.KindString || rv.Kind == values.KindString {
		ls, lc := ev.coerceToString(lv, pos, coerceStrict)
		rs, rc := ev.coerceToString(rv, pos, coerceStrict)
		return values.StrCtx(ls+rs, values.Union(lc, rc))
	}
	if lv.Kind == values.KindPath {
		rs, rc := ev.coerceToString(rv, pos, coerceStrict)
		if !rc.Empty() {
			panic(errs.New(errs.EvalError, pos, "a string that refers to a store path cannot be appended to a path"))
		}
		return values.PathV(cleanPathSyntax(lv.P + rs))
	}
	return ev.evalArith(ast.OpAdd, lv, rv, pos)
}

// evalArith implements +/-/* /, numeric-only (string/path `+` is
// handled in evalAdd above before reaching here), with overflow
// checking on the int path.
func (ev *Evaluator) evalArith(op ast.BinOpKind, l, r *values.Value, pos postable.PosIdx) *values.Value {
	lv, rv := ev.Force(l), ev.Force(r)
	if lv.Kind == values.KindInt && rv.Kind == values.KindInt {
		return values.Int(intArith(op, lv.I, rv.I, pos))
	}
	lf, _ := ev.ForceNumber(lv, pos)
	rf, _ := ev.ForceNumber(rv, pos)
	switch op {
	case ast.OpAdd:
		return values.Float(lf + rf)
	case ast.OpSub:
		return values.Float(lf - rf)
	case ast.OpMul:
		return values.Float(lf * rf)
	case ast.OpDiv:
		if rf == 0 {
			panic(errs.New(errs.EvalError, pos, "division by zero"))
		}
		return values.Float(lf / rf)
	}
	panic(errs.New(errs.EvalError, pos, "unknown arithmetic operator"))
}

func intArith(op ast.BinOpKind, a, b int64, pos postable.PosIdx) int64 {
	switch op {
	case ast.OpAdd:
		sum := a + b
		if (b > 0 && sum < a) || (b < 0 && sum > a) {
			panic(errs.New(errs.EvalError, pos, "integer overflow in add"))
		}
		return sum
	case ast.OpSub:
		diff := a - b
		if (b < 0 && diff < a) || (b > 0 && diff > a) {
			panic(errs.New(errs.EvalError, pos, "integer overflow in subtract"))
		}
		return diff
	case ast.OpMul:
		if a == 0 || b == 0 {
			return 0
		}
		prod := a * b
		if prod/b != a {
			panic(errs.New(errs.EvalError, pos, "integer overflow in multiply"))
		}
		return prod
	case ast.OpDiv:
		if b == 0 {
			panic(errs.New(errs.EvalError, pos, "division by zero"))
		}
		if a == math.MinInt64 && b == -1 {
			panic(errs.New(errs.EvalError, pos, "integer overflow in divide"))
		}
		return a / b
	}
	panic(errs.New(errs.EvalError, pos, "unknown arithmetic operator"))
}

// compareOrdered implements </>/<=/>= over numbers and lists; spec
// ties the four into one family since Nix orders lists lexicographically
// using the same underlying comparator.
func (ev *Evaluator) compareOrdered(op ast.BinOpKind, l, r *values.Value, pos postable.PosIdx) bool {
	c := ev.compare(l, r, pos)
	switch op {
	case ast.OpLt:
		return c < 0
	case ast.OpGt:
		return c > 0
	case ast.OpLeq:
		return c <= 0
	case ast.OpGeq:
		return c >= 0
	}
	return false
}

func (ev *Evaluator) compare(l, r *values.Value, pos postable.PosIdx) int {
	lv, rv := ev.Force(l), ev.Force(r)
	if lv.Kind == values.KindInt && rv.Kind == values.KindInt {
		switch {
		case lv.I < rv.I:
			return -1
		case lv.I > rv.I:
			return 1
		}
		return 0
	}
	if (lv.Kind == values.KindInt || lv.Kind == values.KindFloat) && (rv.Kind == values.KindInt || rv.Kind == values.KindFloat) {
		lf, _ := ev.ForceNumber(lv, pos)
		rf, _ := ev.ForceNumber(rv, pos)
		switch {
		case lf < rf:
			return -1
		case lf > rf:
			return 1
		}
		return 0
	}
	if lv.Kind == values.KindString && rv.Kind == values.KindString {
		switch {
		case lv.S < rv.S:
			return -1
		case lv.S > rv.S:
			return 1
		}
		return 0
	}
	if lv.Kind == values.KindList && rv.Kind == values.KindList {
		for i := 0; i < len(lv.List) && i < len(rv.List); i++ {
			c := ev.compare(lv.List[i], rv.List[i], pos)
			if c != 0 {
				return c
			}
		}
		return len(lv.List) - len(rv.List)
	}
	panic(errs.New(errs.TypeError, pos, "cannot compare %s with %s", lv.Kind.String(), rv.Kind.String()))
}

// valuesEqual implements structural `==`/`!=` per the documented rules:
// int/float cross-comparable, lists/attrsets element-wise, functions
// always unequal, strings compare bytes only (context ignored),
// derivation-tagged attrsets short-circuit to outPath equality.
func (ev *Evaluator) valuesEqual(l, r *values.Value, pos postable.PosIdx) bool {
	lv, rv := ev.Force(l), ev.Force(r)
	switch {
	case lv.Kind == values.KindLambda || lv.Kind == values.KindPrimOp || lv.Kind == values.KindPrimOpApp:
		return false
	case rv.Kind == values.KindLambda || rv.Kind == values.KindPrimOp || rv.Kind == values.KindPrimOpApp:
		return false
	}
	isNum := func(k values.Kind) bool { return k == values.KindInt || k == values.KindFloat }
	if isNum(lv.Kind) && isNum(rv.Kind) {
		lf, _ := ev.ForceNumber(lv, pos)
		rf, _ := ev.ForceNumber(rv, pos)
		return lf == rf
	}
	if lv.Kind != rv.Kind {
		return false
	}
	switch lv.Kind {
	case values.KindBool:
		return lv.B == rv.B
	case values.KindNull:
		return true
	case values.KindString:
		return lv.S == rv.S
	case values.KindPath:
		return lv.P == rv.P
	case values.KindList:
		if len(lv.List) != len(rv.List) {
			return false
		}
		for i := range lv.List {
			if !ev.valuesEqual(lv.List[i], rv.List[i], pos) {
				return false
			}
		}
		return true
	case values.KindAttrs:
		return ev.attrsEqual(lv, rv, pos)
	case values.KindExternal:
		return lv.External == rv.External
	}
	return false
}

// ValuesEqual exposes structural equality to other packages (builtins'
// elem/== family) without duplicating the rules documented on
// valuesEqual above.
func (ev *Evaluator) ValuesEqual(l, r *values.Value, pos postable.PosIdx) bool {
	return ev.valuesEqual(l, r, pos)
}

// CompareValues exposes the ordering comparator (-1/0/1) used by `<`
// and friends, for builtins like sort/compareVersions' callers that
// need raw ordering rather than a single operator's boolean result.
func (ev *Evaluator) CompareValues(l, r *values.Value, pos postable.PosIdx) int {
	return ev.compare(l, r, pos)
}

// ToStringBuiltin exposes the toString coercion mode (bools/null/float/
// list rendering, beyond what strict/interpolation coercion accepts) to
// the builtins package's own `toString`-flavored primops.
func (ev *Evaluator) ToStringBuiltin(v *values.Value, pos postable.PosIdx) (string, values.StringContext) {
	return ev.coerceToString(v, pos, coerceToStringMode)
}

func (ev *Evaluator) attrsEqual(lv, rv *values.Value, pos postable.PosIdx) bool {
	outPath := ev.Syms.Intern("outPath")
	if lOut, ok := lv.Attrs.Get(outPath); ok {
		if rOut, ok := rv.Attrs.Get(outPath); ok {
			return ev.valuesEqual(lOut, rOut, pos)
		}
	}
	if lv.Attrs.Len() != rv.Attrs.Len() {
		return false
	}
	for i := 0; i < lv.Attrs.Len(); i++ {
		lb := lv.Attrs.At(i)
		rb := rv.Attrs.At(i)
		if lb.Name != rb.Name {
			return false
		}
		if !ev.valuesEqual(lb.Value, rb.Value, pos) {
			return false
		}
	}
	return true
}

// coerceMode selects which values string-coercion accepts, per the
// three documented modes.
type coerceMode int

const (
	coerceStrict coerceMode = iota
	coerceInterpolation
	coerceToStringMode
)

// coerceToString implements the three-mode string coercion contract.
// It returns the coerced bytes and any string context those bytes pin.
func (ev *Evaluator) coerceToString(v *values.Value, pos postable.PosIdx, mode coerceMode) (string, values.StringContext) {
	v = ev.Force(v)
	switch v.Kind {
	case values.KindString:
		return v.S, v.Ctx
	case values.KindPath:
		return v.P, values.StringContext{}
	case values.KindAttrs:
		toString := ev.Syms.Intern("__toString")
		if fn, ok := v.Attrs.Get(toString); ok {
			result := ev.CallFunction(ev.Force(fn), []*values.Value{v}, pos)
			return ev.coerceToString(result, pos, mode)
		}
		outPath := ev.Syms.Intern("outPath")
		if out, ok := v.Attrs.Get(outPath); ok {
			return ev.coerceToString(out, pos, mode)
		}
	}
	if mode == coerceStrict {
		panic(ev.typeError(pos, "string-coercible value", v))
	}
	if mode == coerceInterpolation {
		if v.Kind == values.KindInt && ev.AllowIntInterpolation {
			return fmtInt(v.I), values.StringContext{}
		}
		panic(ev.typeError(pos, "string-coercible value", v))
	}
	// coerceToStringMode: builtins.toString's wider rules.
	switch v.Kind {
	case values.KindBool:
		if v.B {
			return "1", values.StringContext{}
		}
		return "", values.StringContext{}
	case values.KindNull:
		return "", values.StringContext{}
	case values.KindInt:
		return fmtInt(v.I), values.StringContext{}
	case values.KindFloat:
		return fmtFloat(v.F), values.StringContext{}
	case values.KindList:
		var buf []byte
		ctx := values.StringContext{}
		for i, el := range v.List {
			if i > 0 {
				buf = append(buf, ' ')
			}
			s, c := ev.coerceToString(el, pos, coerceToStringMode)
			buf = append(buf, s...)
			ctx = values.Union(ctx, c)
		}
		return string(buf), ctx
	}
	panic(ev.typeError(pos, "string-coercible value", v))
}

func fmtInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// fmtFloat mirrors the dot-guaranteed float rendering Nix uses for
// toString: always a decimal point so `1.0` never prints as bare `1`.
func fmtFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return s
		}
	}
	return s + ".0"
}
