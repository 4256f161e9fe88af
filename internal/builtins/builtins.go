// Package builtins implements the fixed primop catalog bound into the
// base environment: introspection, attrsets, lists, strings, numbers,
// control flow, I/O delegation, derivation instantiation, structured
// data codecs, closure computation and version comparison. Each family
// lives in its own builtins_*.go file, mirroring how funxy splits its
// builtin catalog one file per concern.
package builtins

import (
	"github.com/purelang/evalcore/internal/eval"
	"github.com/purelang/evalcore/internal/values"
)

// Store is the wider store contract derivationStrict and placeholder
// need, beyond the narrow eval.ContentStore surface the evaluator
// itself uses for path/string coercion.
type Store interface {
	eval.ContentStore
	IsValidPath(storePath string) bool
	ComputeStorePath(name, content string, refs []string) (string, error)
}

// DirEntry is one entry returned by SourceResolver.ReadDir.
type DirEntry struct {
	Name string
	Type string // "regular", "directory", "symlink", "unknown"
}

// SourceResolver is the sandboxed filesystem collaborator backing the
// I/O builtins. Paths passed in are already the evaluator's
// syntactically-cleaned path strings; the resolver is responsible for
// the allow-list check, symlink budget and final canonicalization.
type SourceResolver interface {
	CheckSourcePath(path string) (string, error)
	ReadFile(path string) (string, error)
	ReadDir(path string) ([]DirEntry, error)
	FileType(path string) (string, error)
	FindFile(searchPath []string, name string) (string, error)
}

// Config carries the settings-derived knobs a handful of builtins
// consult directly (most settings gate behavior upstream of the
// evaluator instead).
type Config struct {
	PureEval                  bool
	AllowImportFromDerivation bool
	SearchPath                []string
}

// registerFunc binds one primop's descriptor into the base env map
// under construction.
type registerFunc func(name string, arity int, fn values.PrimOpFn)

type env struct {
	ev       *eval.Evaluator
	store    Store
	resolver SourceResolver
	cfg      Config
}

// New builds the base-environment primop table. store and resolver may
// be nil if the caller never exercises the derivation/I/O builtins
// (e.g. pure expression-only evaluation in tests); those primops panic
// with EvalError if called without a collaborator configured.
func New(ev *eval.Evaluator, store Store, resolver SourceResolver, cfg Config) map[string]*values.Value {
	b := &env{ev: ev, store: store, resolver: resolver, cfg: cfg}
	out := map[string]*values.Value{}
	reg := func(name string, arity int, fn values.PrimOpFn) {
		out[name] = &values.Value{Kind: values.KindPrimOp, Prim: &values.PrimOp{Name: name, Arity: arity, Fn: fn}}
	}
	b.registerIntrospection(reg)
	b.registerAttrs(reg)
	b.registerLists(reg)
	b.registerStrings(reg)
	b.registerNumbers(reg)
	b.registerControl(reg)
	b.registerIO(reg)
	b.registerDerivation(reg)
	b.registerStructured(reg)
	b.registerClosure(reg)
	b.registerCompare(reg)
	b.registerConstants(out)
	return out
}

func (b *env) force(v *values.Value) *values.Value { return b.ev.Force(v) }
