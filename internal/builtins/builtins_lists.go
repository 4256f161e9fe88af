package builtins

import (
	"sort"

	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/symbol"
	"github.com/purelang/evalcore/internal/values"
)

func (b *env) registerLists(reg registerFunc) {
	reg("head", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		l := b.ev.ForceList(args[0], pos)
		if len(l) == 0 {
			panic(errs.New(errs.EvalError, pos, "head: empty list"))
		}
		return b.force(l[0])
	})

	reg("tail", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		l := b.ev.ForceList(args[0], pos)
		if len(l) == 0 {
			panic(errs.New(errs.EvalError, pos, "tail: empty list"))
		}
		return values.ListV(append([]*values.Value(nil), l[1:]...))
	})

	reg("elemAt", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		l := b.ev.ForceList(args[0], pos)
		i := b.ev.ForceInt(args[1], pos)
		if i < 0 || int(i) >= len(l) {
			panic(errs.New(errs.EvalError, pos, "elemAt: index %d out of bounds (length %d)", i, len(l)))
		}
		return b.force(l[i])
	})

	reg("length", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		return values.Int(int64(len(b.ev.ForceList(args[0], pos))))
	})

	reg("map", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		l := b.ev.ForceList(args[1], pos)
		out := make([]*values.Value, len(l))
		for i, el := range l {
			out[i] = b.ev.CallFunction(fn, []*values.Value{el}, pos)
		}
		return values.ListV(out)
	})

	reg("filter", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		l := b.ev.ForceList(args[1], pos)
		var out []*values.Value
		for _, el := range l {
			if b.ev.ForceBool(b.ev.CallFunction(fn, []*values.Value{el}, pos), pos) {
				out = append(out, el)
			}
		}
		return values.ListV(out)
	})

	reg("elem", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		needle := args[0]
		l := b.ev.ForceList(args[1], pos)
		for _, el := range l {
			if b.ev.ValuesEqual(needle, el, pos) {
				return values.Bool(true)
			}
		}
		return values.Bool(false)
	})

	reg("concatLists", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		lists := b.ev.ForceList(args[0], pos)
		var out []*values.Value
		for _, inner := range lists {
			out = append(out, b.ev.ForceList(inner, pos)...)
		}
		return values.ListV(out)
	})

	reg("concatMap", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		l := b.ev.ForceList(args[1], pos)
		var out []*values.Value
		for _, el := range l {
			out = append(out, b.ev.ForceList(b.ev.CallFunction(fn, []*values.Value{el}, pos), pos)...)
		}
		return values.ListV(out)
	})

	reg("foldl'", 3, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		acc := args[1]
		l := b.ev.ForceList(args[2], pos)
		for _, el := range l {
			acc = b.ev.Force(b.ev.CallFunction(fn, []*values.Value{acc, el}, pos))
		}
		return b.force(acc)
	})

	reg("any", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		l := b.ev.ForceList(args[1], pos)
		for _, el := range l {
			if b.ev.ForceBool(b.ev.CallFunction(fn, []*values.Value{el}, pos), pos) {
				return values.Bool(true)
			}
		}
		return values.Bool(false)
	})

	reg("all", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		l := b.ev.ForceList(args[1], pos)
		for _, el := range l {
			if !b.ev.ForceBool(b.ev.CallFunction(fn, []*values.Value{el}, pos), pos) {
				return values.Bool(false)
			}
		}
		return values.Bool(true)
	})

	reg("genList", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		n := b.ev.ForceInt(args[1], pos)
		if n < 0 {
			panic(errs.New(errs.EvalError, pos, "genList: negative length %d", n))
		}
		out := make([]*values.Value, n)
		for i := int64(0); i < n; i++ {
			out[i] = b.ev.CallFunction(fn, []*values.Value{values.Int(i)}, pos)
		}
		return values.ListV(out)
	})

	reg("sort", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		l := append([]*values.Value(nil), b.ev.ForceList(args[1], pos)...)
		sort.SliceStable(l, func(i, j int) bool {
			return b.ev.ForceBool(b.ev.CallFunction(fn, []*values.Value{l[i], l[j]}, pos), pos)
		})
		return values.ListV(l)
	})

	reg("partition", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		l := b.ev.ForceList(args[1], pos)
		var right, wrong []*values.Value
		for _, el := range l {
			if b.ev.ForceBool(b.ev.CallFunction(fn, []*values.Value{el}, pos), pos) {
				right = append(right, el)
			} else {
				wrong = append(wrong, el)
			}
		}
		entries := []values.Binding{
			{Name: b.ev.Syms.Intern("right"), Value: values.ListV(right)},
			{Name: b.ev.Syms.Intern("wrong"), Value: values.ListV(wrong)},
		}
		return values.AttrsV(values.NewBindingsFromMap(entries))
	})

	reg("groupBy", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		l := b.ev.ForceList(args[1], pos)
		groups := map[symbol.Symbol][]*values.Value{}
		var order []symbol.Symbol
		for _, el := range l {
			key, _ := b.ev.ForceString(b.ev.CallFunction(fn, []*values.Value{el}, pos), pos)
			sym := b.ev.Syms.Intern(key)
			if _, ok := groups[sym]; !ok {
				order = append(order, sym)
			}
			groups[sym] = append(groups[sym], el)
		}
		var out []values.Binding
		for _, sym := range order {
			out = append(out, values.Binding{Name: sym, Value: values.ListV(groups[sym])})
		}
		return values.AttrsV(values.NewBindingsFromMap(out))
	})
}
