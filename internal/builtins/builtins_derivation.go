package builtins

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/values"
)

// placeholderNamespace fixes the UUIDv5 namespace used to derive
// `builtins.placeholder` ids deterministically from an output name, so
// the same name always yields the same placeholder string within and
// across runs.
var placeholderNamespace = uuid.MustParse("5f4d0e34-0e70-4f8e-9f2d-8f1a9f6d8c11")

func (b *env) registerDerivation(reg registerFunc) {
	reg("derivationStrict", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		attrs := b.ev.ForceAttrs(args[0], pos)
		store := b.requireStore(pos)

		nameSym := b.ev.Syms.Intern("name")
		nameVal, ok := attrs.Get(nameSym)
		if !ok {
			panic(errs.New(errs.EvalError, pos, "derivation: required attribute 'name' missing"))
		}
		name, _ := b.ev.ForceString(nameVal, pos)

		var refs []string
		var buf strings.Builder
		for i := 0; i < attrs.Len(); i++ {
			e := attrs.At(i)
			s, ctx := b.ev.ToStringBuiltin(b.force(e.Value), pos)
			buf.WriteString(b.ev.Syms.String(e.Name))
			buf.WriteByte('=')
			buf.WriteString(s)
			buf.WriteByte('\n')
			for _, c := range ctx.Elems() {
				if c.StorePath != "" {
					refs = append(refs, c.StorePath)
				}
			}
		}
		sort.Strings(refs)

		drvPath, err := store.AddTextToStore(name+".drv", buf.String(), refs)
		if err != nil {
			panic(errs.New(errs.EvalError, pos, "derivationStrict: %s", err))
		}
		outPath, err := store.AddTextToStore(name, buf.String(), refs)
		if err != nil {
			panic(errs.New(errs.EvalError, pos, "derivationStrict: %s", err))
		}

		entries := []values.Binding{
			{Name: b.ev.Syms.Intern("drvPath"), Value: values.StrCtx(drvPath, values.NewStringContext(values.ContextElem{Kind: values.CtxDrvDeep, StorePath: drvPath}))},
			{Name: b.ev.Syms.Intern("outPath"), Value: values.StrCtx(outPath, values.NewStringContext(values.ContextElem{Kind: values.CtxBuilt, DrvPath: drvPath, OutputName: "out"}))},
			{Name: b.ev.Syms.Intern("out"), Value: values.Str(outPath)},
		}
		return values.AttrsV(values.NewBindingsFromMap(entries))
	})

	reg("placeholder", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		output, _ := b.ev.ForceString(args[0], pos)
		id := uuid.NewSHA1(placeholderNamespace, []byte(output))
		return values.Str("/" + strings.ReplaceAll(id.String(), "-", ""))
	})
}
