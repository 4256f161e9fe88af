package builtins

import (
	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/values"
)

// registerClosure implements genericClosure's iterate-to-fixed-point
// contract: starting from startSet, repeatedly apply operator to every
// element not yet visited (by its `key` attr), accumulating newly
// produced elements, until a round produces nothing new.
func (b *env) registerClosure(reg registerFunc) {
	reg("genericClosure", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		argAttrs := b.ev.ForceAttrs(args[0], pos)
		startSym := b.ev.Syms.Intern("startSet")
		opSym := b.ev.Syms.Intern("operator")
		keySym := b.ev.Syms.Intern("key")

		startVal, ok := argAttrs.Get(startSym)
		if !ok {
			panic(errs.New(errs.EvalError, pos, "genericClosure: required attribute 'startSet' missing"))
		}
		opVal, ok := argAttrs.Get(opSym)
		if !ok {
			panic(errs.New(errs.EvalError, pos, "genericClosure: required attribute 'operator' missing"))
		}
		op := b.ev.ForceFunction(opVal, pos)

		visited := values.NewKeySet()
		var result []*values.Value
		pending := b.ev.ForceList(startVal, pos)

		for len(pending) > 0 {
			var next []*values.Value
			for _, elem := range pending {
				e := b.ev.ForceAttrs(elem, pos)
				keyVal, ok := e.Get(keySym)
				if !ok {
					panic(errs.New(errs.EvalError, pos, "genericClosure: element missing 'key' attribute"))
				}
				keyStr, _ := b.ev.ToStringBuiltin(b.force(keyVal), pos)
				if !visited.Add(keyStr) {
					continue
				}
				result = append(result, elem)
				produced := b.ev.ForceList(b.ev.CallFunction(op, []*values.Value{elem}, pos), pos)
				next = append(next, produced...)
			}
			pending = next
		}
		return values.ListV(result)
	})
}
