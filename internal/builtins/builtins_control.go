package builtins

import (
	"fmt"
	"io"
	"os"

	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/values"
)

// TraceOut is where builtins.trace writes its message; defaults to
// stderr, matching the reference evaluator's debug-output channel.
var TraceOut io.Writer = os.Stderr

func (b *env) registerControl(reg registerFunc) {
	reg("tryEval", 1, func(args []*values.Value, pos postable.PosIdx) (result *values.Value) {
		successSym := b.ev.Syms.Intern("success")
		valueSym := b.ev.Syms.Intern("value")
		defer func() {
			if r := recover(); r != nil {
				e := errs.AsEvalError(r)
				if e.Kind != errs.AssertionError && e.Kind != errs.ThrownError {
					panic(r)
				}
				result = values.AttrsV(values.NewBindingsFromMap([]values.Binding{
					{Name: successSym, Value: values.Bool(false)},
					{Name: valueSym, Value: values.Bool(false)},
				}))
			}
		}()
		v := b.ev.ForceDeep(args[0])
		return values.AttrsV(values.NewBindingsFromMap([]values.Binding{
			{Name: successSym, Value: values.Bool(true)},
			{Name: valueSym, Value: v},
		}))
	})

	reg("throw", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		msg, _ := b.ev.ForceString(args[0], pos)
		panic(errs.New(errs.ThrownError, pos, "%s", msg))
	})

	reg("abort", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		msg, _ := b.ev.ForceString(args[0], pos)
		panic(errs.New(errs.Abort, pos, "evaluation aborted with the following error message: '%s'", msg))
	})

	reg("addErrorContext", 2, func(args []*values.Value, pos postable.PosIdx) (result *values.Value) {
		context, _ := b.ev.ForceString(args[0], pos)
		defer func() {
			if r := recover(); r != nil {
				e := errs.AsEvalError(r)
				panic(e.PushTrace(pos, context))
			}
		}()
		return b.force(args[1])
	})

	reg("seq", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		b.force(args[0])
		return b.force(args[1])
	})

	reg("deepSeq", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		b.ev.ForceDeep(args[0])
		return b.force(args[1])
	})

	reg("trace", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		v := b.force(args[0])
		s, _ := b.ev.ToStringBuiltin(v, pos)
		fmt.Fprintln(TraceOut, "trace:", s)
		return b.force(args[1])
	})

	reg("break", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		if top, hint, ok := b.ev.Trace.Top(); ok {
			if b.ev.Trace.OnError != nil {
				b.ev.Trace.OnError(top, hint)
			}
		}
		return b.force(args[0])
	})
}
