package builtins

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/values"
)

func (b *env) registerStructured(reg registerFunc) {
	reg("toJSON", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		jv := b.toJSONValue(b.ev.ForceDeep(args[0]), pos)
		out, err := json.Marshal(jv)
		if err != nil {
			panic(errs.New(errs.EvalError, pos, "toJSON: %s", err))
		}
		return values.Str(string(out))
	})

	reg("fromJSON", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		s, _ := b.ev.ForceString(args[0], pos)
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			panic(errs.New(errs.EvalError, pos, "fromJSON: %s", err))
		}
		return b.fromJSONValue(decoded)
	})

	reg("toXML", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		var buf strings.Builder
		buf.WriteString("<?xml version='1.0' encoding='utf-8'?>\n")
		b.writeXML(&buf, b.ev.ForceDeep(args[0]), pos)
		return values.Str(buf.String())
	})

	reg("toTOML", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		s, _ := b.ev.ForceString(args[0], pos)
		v, err := parseTOML(s)
		if err != nil {
			panic(errs.New(errs.EvalError, pos, "while parsing TOML: %s", err))
		}
		return b.fromJSONValue(v)
	})
}

func (b *env) toJSONValue(v *values.Value, pos postable.PosIdx) interface{} {
	v = b.force(v)
	switch v.Kind {
	case values.KindNull:
		return nil
	case values.KindBool:
		return v.B
	case values.KindInt:
		return v.I
	case values.KindFloat:
		return v.F
	case values.KindString:
		return v.S
	case values.KindPath:
		return v.P
	case values.KindList:
		out := make([]interface{}, len(v.List))
		for i, el := range v.List {
			out[i] = b.toJSONValue(el, pos)
		}
		return out
	case values.KindAttrs:
		toStringSym := b.ev.Syms.Intern("__toString")
		if _, ok := v.Attrs.Get(toStringSym); ok {
			s, _ := b.ev.ToStringBuiltin(v, pos)
			return s
		}
		out := map[string]interface{}{}
		for i := 0; i < v.Attrs.Len(); i++ {
			e := v.Attrs.At(i)
			out[b.ev.Syms.String(e.Name)] = b.toJSONValue(e.Value, pos)
		}
		return out
	default:
		panic(errs.New(errs.TypeError, pos, "toJSON: cannot convert a %s value", v.Kind.String()))
	}
}

func (b *env) fromJSONValue(v interface{}) *values.Value {
	switch t := v.(type) {
	case nil:
		return values.Null
	case bool:
		return values.Bool(t)
	case int64:
		return values.Int(t)
	case float64:
		if t == float64(int64(t)) {
			return values.Int(int64(t))
		}
		return values.Float(t)
	case string:
		return values.Str(t)
	case []interface{}:
		out := make([]*values.Value, len(t))
		for i, el := range t {
			out[i] = b.fromJSONValue(el)
		}
		return values.ListV(out)
	case map[string]interface{}:
		var out []values.Binding
		for k, val := range t {
			out = append(out, values.Binding{Name: b.ev.Syms.Intern(k), Value: b.fromJSONValue(val)})
		}
		return values.AttrsV(values.NewBindingsFromMap(out))
	default:
		return values.Null
	}
}

func (b *env) writeXML(buf *strings.Builder, v *values.Value, pos postable.PosIdx) {
	v = b.force(v)
	switch v.Kind {
	case values.KindNull:
		buf.WriteString("<null />")
	case values.KindBool:
		fmt.Fprintf(buf, "<bool value=\"%t\" />", v.B)
	case values.KindInt:
		fmt.Fprintf(buf, "<int value=\"%d\" />", v.I)
	case values.KindFloat:
		fmt.Fprintf(buf, "<float value=\"%s\" />", strconv.FormatFloat(v.F, 'g', -1, 64))
	case values.KindString:
		fmt.Fprintf(buf, "<string value=%q />", v.S)
	case values.KindPath:
		fmt.Fprintf(buf, "<path>%s</path>", v.P)
	case values.KindList:
		buf.WriteString("<list>")
		for _, el := range v.List {
			b.writeXML(buf, el, pos)
		}
		buf.WriteString("</list>")
	case values.KindAttrs:
		buf.WriteString("<attrs>")
		for i := 0; i < v.Attrs.Len(); i++ {
			e := v.Attrs.At(i)
			fmt.Fprintf(buf, "<attr name=%q>", b.ev.Syms.String(e.Name))
			b.writeXML(buf, e.Value, pos)
			buf.WriteString("</attr>")
		}
		buf.WriteString("</attrs>")
	default:
		panic(errs.New(errs.TypeError, pos, "toXML: cannot convert a %s value", v.Kind.String()))
	}
}

