package builtins

import (
	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/symbol"
	"github.com/purelang/evalcore/internal/values"
)

func (b *env) registerAttrs(reg registerFunc) {
	reg("attrNames", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		a := b.ev.ForceAttrs(args[0], pos)
		out := make([]*values.Value, a.Len())
		for i := 0; i < a.Len(); i++ {
			out[i] = values.Str(b.ev.Syms.String(a.At(i).Name))
		}
		return values.ListV(out)
	})

	reg("attrValues", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		a := b.ev.ForceAttrs(args[0], pos)
		out := make([]*values.Value, a.Len())
		for i := 0; i < a.Len(); i++ {
			out[i] = a.At(i).Value
		}
		return values.ListV(out)
	})

	reg("getAttr", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		name, _ := b.ev.ForceString(args[0], pos)
		a := b.ev.ForceAttrs(args[1], pos)
		sym := b.ev.Syms.Intern(name)
		v, ok := a.Get(sym)
		if !ok {
			panic(errs.New(errs.EvalError, pos, "attribute '%s' missing", name))
		}
		return b.force(v)
	})

	reg("hasAttr", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		name, _ := b.ev.ForceString(args[0], pos)
		a := b.ev.ForceAttrs(args[1], pos)
		_, ok := a.Get(b.ev.Syms.Intern(name))
		return values.Bool(ok)
	})

	reg("removeAttrs", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		a := b.ev.ForceAttrs(args[0], pos)
		toRemove := b.ev.ForceList(args[1], pos)
		drop := map[symbol.Symbol]bool{}
		for _, r := range toRemove {
			s, _ := b.ev.ForceString(r, pos)
			drop[b.ev.Syms.Intern(s)] = true
		}
		var out []values.Binding
		for i := 0; i < a.Len(); i++ {
			e := a.At(i)
			if !drop[e.Name] {
				out = append(out, e)
			}
		}
		return values.AttrsV(values.NewBindingsSorted(out))
	})

	reg("listToAttrs", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		list := b.ev.ForceList(args[0], pos)
		nameSym := b.ev.Syms.Intern("name")
		valueSym := b.ev.Syms.Intern("value")
		var out []values.Binding
		seen := map[symbol.Symbol]bool{}
		for _, elem := range list {
			entry := b.ev.ForceAttrs(elem, pos)
			nameVal, ok := entry.Get(nameSym)
			if !ok {
				panic(errs.New(errs.EvalError, pos, "listToAttrs: entry missing 'name'"))
			}
			nameStr, _ := b.ev.ForceString(nameVal, pos)
			sym := b.ev.Syms.Intern(nameStr)
			val, ok := entry.Get(valueSym)
			if !ok {
				panic(errs.New(errs.EvalError, pos, "listToAttrs: entry missing 'value'"))
			}
			if seen[sym] {
				continue // first occurrence wins, matching the reference evaluator
			}
			seen[sym] = true
			out = append(out, values.Binding{Name: sym, Value: val})
		}
		return values.AttrsV(values.NewBindingsFromMap(out))
	})

	reg("intersectAttrs", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		e1 := b.ev.ForceAttrs(args[0], pos)
		e2 := b.ev.ForceAttrs(args[1], pos)
		var out []values.Binding
		for i := 0; i < e2.Len(); i++ {
			entry := e2.At(i)
			if _, ok := e1.Get(entry.Name); ok {
				out = append(out, entry)
			}
		}
		return values.AttrsV(values.NewBindingsSorted(out))
	})

	reg("catAttrs", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		name, _ := b.ev.ForceString(args[0], pos)
		sym := b.ev.Syms.Intern(name)
		list := b.ev.ForceList(args[1], pos)
		var out []*values.Value
		for _, elem := range list {
			a := b.ev.ForceAttrs(elem, pos)
			if v, ok := a.Get(sym); ok {
				out = append(out, v)
			}
		}
		return values.ListV(out)
	})

	reg("functionArgs", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.Force(args[0])
		if fn.Kind != values.KindLambda || !fn.Lam.Pattern.IsAttrs {
			return values.AttrsV(values.NewBindingsSorted(nil))
		}
		var out []values.Binding
		for _, f := range fn.Lam.Pattern.Formals {
			out = append(out, values.Binding{Name: f.Name, Value: values.Bool(f.Default != nil)})
		}
		return values.AttrsV(values.NewBindingsFromMap(out))
	})

	reg("mapAttrs", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		a := b.ev.ForceAttrs(args[1], pos)
		out := make([]values.Binding, a.Len())
		for i := 0; i < a.Len(); i++ {
			e := a.At(i)
			out[i] = values.Binding{Name: e.Name, Value: b.ev.NativeThunk(func() *values.Value {
				return b.ev.CallFunction(fn, []*values.Value{values.Str(b.ev.Syms.String(e.Name)), e.Value}, pos)
			})}
		}
		return values.AttrsV(values.NewBindingsSorted(out))
	})

	reg("zipAttrsWith", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		list := b.ev.ForceList(args[1], pos)
		byName := map[symbol.Symbol][]*values.Value{}
		var order []symbol.Symbol
		for _, elem := range list {
			a := b.ev.ForceAttrs(elem, pos)
			for i := 0; i < a.Len(); i++ {
				e := a.At(i)
				if _, ok := byName[e.Name]; !ok {
					order = append(order, e.Name)
				}
				byName[e.Name] = append(byName[e.Name], e.Value)
			}
		}
		var out []values.Binding
		for _, name := range order {
			name, vals := name, byName[name]
			out = append(out, values.Binding{Name: name, Value: b.ev.NativeThunk(func() *values.Value {
				return b.ev.CallFunction(fn, []*values.Value{values.Str(b.ev.Syms.String(name)), values.ListV(vals)}, pos)
			})})
		}
		return values.AttrsV(values.NewBindingsFromMap(out))
	})
}
