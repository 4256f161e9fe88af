package builtins

import (
	"regexp"
	"strings"

	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"

	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/values"
)

func (b *env) registerStrings(reg registerFunc) {
	reg("stringLength", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		s, _ := b.ev.ForceString(args[0], pos)
		return values.Int(int64(len(s)))
	})

	reg("substring", 3, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		start := b.ev.ForceInt(args[0], pos)
		length := b.ev.ForceInt(args[1], pos)
		s, ctx := b.ev.ForceString(args[2], pos)
		if start < 0 {
			panic(errs.New(errs.EvalError, pos, "substring: negative start index %d", start))
		}
		if int(start) >= len(s) {
			return values.StrCtx("", ctx)
		}
		end := len(s)
		if length >= 0 && int(start)+int(length) < end {
			end = int(start) + int(length)
		}
		return values.StrCtx(s[start:end], ctx)
	})

	reg("concatStringsSep", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		sep, sepCtx := b.ev.ForceString(args[0], pos)
		list := b.ev.ForceList(args[1], pos)
		var parts []string
		ctx := sepCtx
		for _, el := range list {
			s, c := b.ev.ForceString(el, pos)
			parts = append(parts, s)
			ctx = values.Union(ctx, c)
		}
		return values.StrCtx(strings.Join(parts, sep), ctx)
	})

	reg("replaceStrings", 3, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fromList := b.ev.ForceList(args[0], pos)
		toList := b.ev.ForceList(args[1], pos)
		s, ctx := b.ev.ForceString(args[2], pos)
		if len(fromList) != len(toList) {
			panic(errs.New(errs.EvalError, pos, "replaceStrings: 'from' and 'to' lists must have the same length"))
		}
		from := make([]string, len(fromList))
		to := make([]string, len(toList))
		for i := range fromList {
			from[i], _ = b.ev.ForceString(fromList[i], pos)
			to[i], _ = b.ev.ForceString(toList[i], pos)
		}
		var out strings.Builder
		for i := 0; i < len(s); {
			matched := false
			for j, f := range from {
				if f != "" && strings.HasPrefix(s[i:], f) {
					out.WriteString(to[j])
					i += len(f)
					matched = true
					break
				}
			}
			if !matched {
				out.WriteByte(s[i])
				i++
			}
		}
		return values.StrCtx(out.String(), ctx)
	})

	reg("split", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		pattern, _ := b.ev.ForceString(args[0], pos)
		s, _ := b.ev.ForceString(args[1], pos)
		re, err := regexp.Compile(pattern)
		if err != nil {
			panic(errs.New(errs.EvalError, pos, "split: invalid regex: %s", err))
		}
		idxs := re.FindAllStringSubmatchIndex(s, -1)
		var out []*values.Value
		last := 0
		for _, m := range idxs {
			out = append(out, values.Str(s[last:m[0]]))
			groups := make([]*values.Value, len(m)/2-1)
			for g := 1; g < len(m)/2; g++ {
				if m[2*g] < 0 {
					groups[g-1] = values.Null
				} else {
					groups[g-1] = values.Str(s[m[2*g]:m[2*g+1]])
				}
			}
			out = append(out, values.ListV(groups))
			last = m[1]
		}
		out = append(out, values.Str(s[last:]))
		return values.ListV(out)
	})

	reg("match", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		pattern, _ := b.ev.ForceString(args[0], pos)
		s, _ := b.ev.ForceString(args[1], pos)
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			panic(errs.New(errs.EvalError, pos, "match: invalid regex: %s", err))
		}
		m := re.FindStringSubmatch(s)
		if m == nil {
			return values.Null
		}
		groups := make([]*values.Value, len(m)-1)
		for i := 1; i < len(m); i++ {
			groups[i-1] = values.Str(m[i])
		}
		return values.ListV(groups)
	})

	reg("hashString", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		algo, _ := b.ev.ForceString(args[0], pos)
		s, _ := b.ev.ForceString(args[1], pos)
		sum, err := hashBytes(algo, []byte(s))
		if err != nil {
			panic(errs.New(errs.EvalError, pos, "hashString: %s", err))
		}
		return values.Str(hex.EncodeToString(sum))
	})
}

func hashBytes(algo string, data []byte) ([]byte, error) {
	switch algo {
	case "md5":
		sum := md5.Sum(data)
		return sum[:], nil
	case "sha1":
		sum := sha1.Sum(data)
		return sum[:], nil
	case "sha256":
		sum := sha256.Sum256(data)
		return sum[:], nil
	case "sha512":
		sum := sha512.Sum512(data)
		return sum[:], nil
	default:
		return nil, errs.New(errs.EvalError, postable.NoPos, "unsupported hash algorithm '%s'", algo)
	}
}
