// Package langcore is the public facade wiring the parser, resolver,
// evaluator and base environment into a single entry point: give it
// source text and the collaborators (store, filesystem, settings), get
// back a value or a raised *errs.Error.
package langcore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/purelang/evalcore/internal/ast"
	"github.com/purelang/evalcore/internal/builtins"
	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/eval"
	"github.com/purelang/evalcore/internal/lexer"
	"github.com/purelang/evalcore/internal/parser"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/resolver"
	"github.com/purelang/evalcore/internal/settings"
	"github.com/purelang/evalcore/internal/source"
	"github.com/purelang/evalcore/internal/symbol"
	"github.com/purelang/evalcore/internal/values"
)

// sourceResolverAdapter adapts *source.Resolver (which has no
// dependency on internal/builtins) to builtins.SourceResolver's
// DirEntry-returning shape.
type sourceResolverAdapter struct {
	*source.Resolver
}

func (a sourceResolverAdapter) ReadDir(path string) ([]builtins.DirEntry, error) {
	entries, err := a.Resolver.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]builtins.DirEntry, len(entries))
	for i, e := range entries {
		out[i] = builtins.DirEntry{Name: e.Name, Type: e.Type}
	}
	return out, nil
}

// Engine bundles one program's interned tables and evaluator, so
// repeated Eval calls against the same base environment (a REPL, or a
// batch of files sharing one set of builtins) reuse interning.
type Engine struct {
	Syms *symbol.Table
	Pos  *postable.Table
	Ev   *eval.Evaluator

	baseNames  []symbol.Symbol
	baseEnv    *values.Env
	parseFlags parser.Flags

	resolver    builtins.SourceResolver
	importCache map[string]*values.Value
}

// Options configures New. Store and Resolver may be left nil for a
// pure-expression engine that never calls a derivation/I/O primop.
type Options struct {
	Settings settings.Settings
	Store    builtins.Store
	Resolver builtins.SourceResolver
	Metrics  eval.MetricsSink
}

// New builds an Engine: the evaluator, the base environment's builtins
// table, and the parser flags implied by Settings' experimental flags.
func New(opts Options) *Engine {
	syms := symbol.NewTable()
	pos := postable.NewTable()

	var store eval.ContentStore
	if opts.Store != nil {
		store = opts.Store
	}
	ev := eval.New(syms, pos, store)
	ev.MaxCallDepth = int(opts.Settings.MaxCallDepth)
	ev.AllowIntInterpolation = opts.Settings.ExperimentalCoerceIntegers
	ev.Metrics = opts.Metrics

	cfg := builtins.Config{
		PureEval:                  opts.Settings.PureEval,
		AllowImportFromDerivation: opts.Settings.AllowImportFromDerivation,
		SearchPath:                opts.Settings.SearchPath,
	}
	base := builtins.New(ev, opts.Store, opts.Resolver, cfg)

	baseNameStrings := make([]string, 0, len(base))
	for name := range base {
		baseNameStrings = append(baseNameStrings, name)
	}
	sort.Strings(baseNameStrings)

	// Every primop is bound directly by name AND reachable through the
	// `builtins` attrset, per the base-environment contract.
	bindingsEntries := make([]values.Binding, len(baseNameStrings))
	for i, name := range baseNameStrings {
		bindingsEntries[i] = values.Binding{Name: syms.Intern(name), Value: base[name]}
	}
	builtinsAttrs := values.AttrsV(values.NewBindingsSorted(bindingsEntries))

	names := make([]symbol.Symbol, len(baseNameStrings)+1)
	env := values.NewEnv(nil, len(baseNameStrings)+1)
	for i, name := range baseNameStrings {
		sym := syms.Intern(name)
		names[i] = sym
		env.Slots[i] = base[name]
	}
	builtinsSym := syms.Intern("builtins")
	names[len(baseNameStrings)] = builtinsSym
	env.Slots[len(baseNameStrings)] = builtinsAttrs

	e := &Engine{
		Syms:      syms,
		Pos:       pos,
		Ev:        ev,
		baseNames: names,
		baseEnv:   env,
		parseFlags: parser.Flags{
			URLLiterals: opts.Settings.ExperimentalURLLiterals,
		},
		resolver:    opts.Resolver,
		importCache: map[string]*values.Value{},
	}
	ev.ImportHook = e.importFile
	return e
}

// NewSourceResolver wraps a filesystem resolver rooted at roots into
// the builtins.SourceResolver shape New's Options.Resolver expects.
func NewSourceResolver(roots ...string) builtins.SourceResolver {
	return sourceResolverAdapter{source.New(roots...)}
}

// parseRaw parses src into an unresolved AST — the step shared by Parse
// and importFile, which need to insert a `with` frame in between
// parsing and resolving for scopedImport.
func (e *Engine) parseRaw(name, src string) ast.Expr {
	originIdx := e.Pos.AddOrigin(postable.Origin{Kind: postable.OriginFile, Name: name, Text: src})
	lex := lexer.New(src, originIdx, e.Pos)
	p := parser.New(lex, e.Syms, e.Pos, e.parseFlags)
	return p.Parse()
}

// Parse parses src (named name, for error messages and `__curPos`) into
// a resolved AST ready for Eval. Panics with *errs.Error on failure, per
// the evaluator's raise/recover error-handling convention — callers at
// a process boundary should recover and report via errs.AsEvalError.
func (e *Engine) Parse(name, src string) ast.Expr {
	root := e.parseRaw(name, src)
	res := resolver.New(e.Syms)
	res.Resolve(root, e.baseNames)
	return root
}

// importFile implements import (scope == nil) and scopedImport (scope
// is the extra attrset merged in as a dynamic `with` scope), backing
// eval.Evaluator.ImportHook. Plain imports are cached by their
// resolver-checked path, per the file-evaluation-cache requirement;
// scopedImport is never cached since the same path can be imported
// under different scopes.
func (e *Engine) importFile(path string, scope *values.Value, pos postable.PosIdx) *values.Value {
	if e.resolver == nil {
		panic(errs.New(errs.EvalError, pos, "import: this evaluation has no filesystem collaborator configured"))
	}
	checked, err := e.resolver.CheckSourcePath(path)
	if err != nil {
		panic(errs.New(errs.RestrictedPathError, pos, "import: %s", err))
	}
	if scope == nil {
		if cached, ok := e.importCache[checked]; ok {
			return cached
		}
	}
	content, err := e.resolver.ReadFile(checked)
	if err != nil {
		panic(errs.New(errs.InvalidPathError, pos, "import: %s", err))
	}

	root := e.parseRaw(checked, content)
	if scope != nil {
		root = &ast.With{
			Base:  ast.NewBase(root.Pos()),
			Scope: &ast.NativeThunk{Base: ast.NewBase(root.Pos()), Fn: func() ast.Value { return scope }},
			Body:  root,
		}
	}
	res := resolver.New(e.Syms)
	res.Resolve(root, e.baseNames)

	result := e.Ev.Eval(root, e.baseEnv)
	if e.Ev.Logger != nil {
		e.Ev.Logger.Infof("imported %s", checked)
	}
	if scope == nil {
		e.importCache[checked] = result
	}
	return result
}

// Eval parses and evaluates src to weak head normal form, returning the
// WHNF value. Use Ev.ForceDeep for a fully-forced result.
func (e *Engine) Eval(name, src string) (result *values.Value, err *errs.Error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.AsEvalError(r)
		}
	}()
	root := e.Parse(name, src)
	return e.Ev.Eval(root, e.baseEnv), nil
}

// EvalDeep is Eval followed by a full deep force, the shape a CLI front
// end wants before printing (so nested laziness doesn't leak into the
// printed representation).
func (e *Engine) EvalDeep(name, src string) (result *values.Value, err *errs.Error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.AsEvalError(r)
		}
	}()
	root := e.Parse(name, src)
	v := e.Ev.Eval(root, e.baseEnv)
	return e.Ev.ForceDeep(v), nil
}

// Render prints a deep-forced value as source-like syntax, the way a
// CLI front end displays an evaluation result: strings quoted, lists
// and attrsets printed structurally rather than coerced to strings (the
// ToString coercion mode collapses structure; a result printer must
// not). v must already be fully forced (see Engine.EvalDeep).
func (e *Engine) Render(v *values.Value) string {
	var b strings.Builder
	renderValue(e, v, &b)
	return b.String()
}

func renderValue(e *Engine, v *values.Value, b *strings.Builder) {
	switch v.Kind {
	case values.KindInt:
		fmt.Fprintf(b, "%d", v.I)
	case values.KindFloat:
		fmt.Fprintf(b, "%g", v.F)
	case values.KindBool:
		if v.B {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case values.KindNull:
		b.WriteString("null")
	case values.KindString:
		fmt.Fprintf(b, "%q", v.S)
	case values.KindPath:
		b.WriteString(v.P)
	case values.KindList:
		b.WriteString("[ ")
		for _, el := range v.List {
			renderValue(e, e.Ev.Force(el), b)
			b.WriteString(" ")
		}
		b.WriteString("]")
	case values.KindAttrs:
		b.WriteString("{ ")
		for i := 0; i < v.Attrs.Len(); i++ {
			entry := v.Attrs.At(i)
			fmt.Fprintf(b, "%s = ", e.Syms.String(entry.Name))
			renderValue(e, e.Ev.Force(entry.Value), b)
			b.WriteString("; ")
		}
		b.WriteString("}")
	case values.KindLambda, values.KindPrimOp, values.KindPrimOpApp:
		b.WriteString("<function>")
	default:
		b.WriteString("<" + v.Kind.String() + ">")
	}
}

// FormatError renders err with up to maxTraceFrames trace lines, the
// shape a "show-trace" setting controls per spec.md section 7.
func FormatError(err *errs.Error, maxTraceFrames int) string {
	msg := err.Error()
	if maxTraceFrames <= 0 || len(err.Trace) == 0 {
		return msg
	}
	frames := err.Trace
	if len(frames) > maxTraceFrames {
		frames = frames[:maxTraceFrames]
	}
	for _, f := range frames {
		msg += fmt.Sprintf("\n  at %s", f.Hint)
	}
	return msg
}
