package builtins

import (
	"strconv"
	"strings"

	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/values"
)

func (b *env) registerCompare(reg registerFunc) {
	reg("compareVersions", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		v1, _ := b.ev.ForceString(args[0], pos)
		v2, _ := b.ev.ForceString(args[1], pos)
		return values.Int(int64(compareVersions(v1, v2)))
	})

	reg("splitVersion", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		v, _ := b.ev.ForceString(args[0], pos)
		parts := splitVersion(v)
		out := make([]*values.Value, len(parts))
		for i, p := range parts {
			out[i] = values.Str(p)
		}
		return values.ListV(out)
	})

	reg("parseDrvName", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		s, _ := b.ev.ForceString(args[0], pos)
		name, version := parseDrvName(s)
		entries := []values.Binding{
			{Name: b.ev.Syms.Intern("name"), Value: values.Str(name)},
			{Name: b.ev.Syms.Intern("version"), Value: values.Str(version)},
		}
		return values.AttrsV(values.NewBindingsFromMap(entries))
	})
}

// splitVersion splits a version string into its dot/dash-separated
// components, matching the reference evaluator's tokenization: runs of
// digits and runs of letters each become their own component, and `.`
// and `-` are component separators that are dropped, not kept.
func splitVersion(v string) []string {
	var out []string
	var cur strings.Builder
	var curKind int // 0 = none, 1 = digit, 2 = letter
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range v {
		switch {
		case r == '.' || r == '-':
			flush()
			curKind = 0
		case r >= '0' && r <= '9':
			if curKind != 1 {
				flush()
			}
			curKind = 1
			cur.WriteRune(r)
		default:
			if curKind != 2 {
				flush()
			}
			curKind = 2
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// compareVersions implements Nix's component-wise version ordering:
// numeric components compare numerically, textual components
// lexicographically, a "pre" component sorts below every other
// component including a missing one (so "1.0pre1" sorts below "1.0"),
// and otherwise a missing component sorts below any real value.
func compareVersions(a, b string) int {
	pa, pb := splitVersion(a), splitVersion(b)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var ca, cb string
		if i < len(pa) {
			ca = pa[i]
		}
		if i < len(pb) {
			cb = pb[i]
		}
		if ca == cb {
			continue
		}
		na, errA := strconv.ParseInt(ca, 10, 64)
		nb, errB := strconv.ParseInt(cb, 10, 64)
		if errA == nil && errB == nil {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			continue
		}
		if ca == "pre" {
			return -1
		}
		if cb == "pre" {
			return 1
		}
		if ca == "" {
			return -1
		}
		if cb == "" {
			return 1
		}
		if ca < cb {
			return -1
		}
		if ca > cb {
			return 1
		}
	}
	return 0
}

// parseDrvName splits "<name>-<version>" on the last hyphen that is
// immediately followed by a digit, matching the reference evaluator's
// heuristic for separating a package name from its version suffix.
func parseDrvName(s string) (name, version string) {
	for i := len(s) - 1; i > 0; i-- {
		if s[i-1] == '-' && i < len(s) && s[i] >= '0' && s[i] <= '9' {
			return s[:i-1], s[i:]
		}
	}
	return s, ""
}
