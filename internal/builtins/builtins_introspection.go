package builtins

import (
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/values"
)

func (b *env) registerIntrospection(reg registerFunc) {
	reg("typeOf", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		return values.Str(typeName(b.force(args[0])))
	})
	is := func(kind values.Kind) values.PrimOpFn {
		return func(args []*values.Value, pos postable.PosIdx) *values.Value {
			return values.Bool(b.force(args[0]).Kind == kind)
		}
	}
	reg("isNull", 1, is(values.KindNull))
	reg("isBool", 1, is(values.KindBool))
	reg("isInt", 1, is(values.KindInt))
	reg("isFloat", 1, is(values.KindFloat))
	reg("isString", 1, is(values.KindString))
	reg("isPath", 1, is(values.KindPath))
	reg("isAttrs", 1, is(values.KindAttrs))
	reg("isList", 1, is(values.KindList))
	reg("isFunction", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		v := b.force(args[0])
		switch v.Kind {
		case values.KindLambda, values.KindPrimOp, values.KindPrimOpApp:
			return values.Bool(true)
		default:
			return values.Bool(false)
		}
	})
}

// typeName reports the language-level type name, distinct from
// Kind.String()'s error-message-oriented grouping (which folds every
// callable into "lambda" and every thunk state into "thunk").
func typeName(v *values.Value) string {
	switch v.Kind {
	case values.KindInt:
		return "int"
	case values.KindFloat:
		return "float"
	case values.KindBool:
		return "bool"
	case values.KindString:
		return "string"
	case values.KindPath:
		return "path"
	case values.KindNull:
		return "null"
	case values.KindAttrs:
		return "set"
	case values.KindList:
		return "list"
	case values.KindLambda, values.KindPrimOp, values.KindPrimOpApp:
		return "lambda"
	default:
		return "unknown"
	}
}
