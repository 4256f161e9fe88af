package builtins

import (
	"math"

	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/values"
)

func (b *env) registerNumbers(reg registerFunc) {
	numOp := func(name string, intOp func(a, b int64) (int64, bool), floatOp func(a, b float64) float64) values.PrimOpFn {
		return func(args []*values.Value, pos postable.PosIdx) *values.Value {
			lv := b.force(args[0])
			rv := b.force(args[1])
			if lv.Kind == values.KindInt && rv.Kind == values.KindInt {
				r, ok := intOp(lv.I, rv.I)
				if !ok {
					panic(errs.New(errs.EvalError, pos, "%s: integer overflow", name))
				}
				return values.Int(r)
			}
			lf, _ := b.ev.ForceNumber(lv, pos)
			rf, _ := b.ev.ForceNumber(rv, pos)
			return values.Float(floatOp(lf, rf))
		}
	}
	reg("add", 2, numOp("add",
		func(a, b int64) (int64, bool) {
			s := a + b
			if (b > 0 && s < a) || (b < 0 && s > a) {
				return 0, false
			}
			return s, true
		},
		func(a, b float64) float64 { return a + b }))
	reg("sub", 2, numOp("sub",
		func(a, b int64) (int64, bool) {
			d := a - b
			if (b < 0 && d < a) || (b > 0 && d > a) {
				return 0, false
			}
			return d, true
		},
		func(a, b float64) float64 { return a - b }))
	reg("mul", 2, numOp("mul",
		func(a, b int64) (int64, bool) {
			if a == 0 || b == 0 {
				return 0, true
			}
			p := a * b
			if p/b != a {
				return 0, false
			}
			return p, true
		},
		func(a, b float64) float64 { return a * b }))
	reg("div", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		lv := b.force(args[0])
		rv := b.force(args[1])
		if lv.Kind == values.KindInt && rv.Kind == values.KindInt {
			if rv.I == 0 {
				panic(errs.New(errs.EvalError, pos, "division by zero"))
			}
			return values.Int(lv.I / rv.I)
		}
		lf, _ := b.ev.ForceNumber(lv, pos)
		rf, _ := b.ev.ForceNumber(rv, pos)
		if rf == 0 {
			panic(errs.New(errs.EvalError, pos, "division by zero"))
		}
		return values.Float(lf / rf)
	})

	bitOp := func(fn func(a, b int64) int64) values.PrimOpFn {
		return func(args []*values.Value, pos postable.PosIdx) *values.Value {
			return values.Int(fn(b.ev.ForceInt(args[0], pos), b.ev.ForceInt(args[1], pos)))
		}
	}
	reg("bitAnd", 2, bitOp(func(a, b int64) int64 { return a & b }))
	reg("bitOr", 2, bitOp(func(a, b int64) int64 { return a | b }))
	reg("bitXor", 2, bitOp(func(a, b int64) int64 { return a ^ b }))

	reg("lessThan", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		return values.Bool(b.ev.CompareValues(args[0], args[1], pos) < 0)
	})

	reg("ceil", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		f, isInt := b.ev.ForceNumber(args[0], pos)
		if isInt {
			return values.Int(int64(f))
		}
		return values.Int(int64(math.Ceil(f)))
	})

	reg("floor", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		f, isInt := b.ev.ForceNumber(args[0], pos)
		if isInt {
			return values.Int(int64(f))
		}
		return values.Int(int64(math.Floor(f)))
	})
}
