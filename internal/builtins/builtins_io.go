package builtins

import (
	"encoding/hex"

	"github.com/purelang/evalcore/internal/errs"
	"github.com/purelang/evalcore/internal/postable"
	"github.com/purelang/evalcore/internal/values"
)

func (b *env) requireResolver(pos postable.PosIdx) SourceResolver {
	if b.resolver == nil {
		panic(errs.New(errs.EvalError, pos, "this evaluation has no filesystem collaborator configured"))
	}
	return b.resolver
}

func (b *env) requireStore(pos postable.PosIdx) Store {
	if b.store == nil {
		panic(errs.New(errs.EvalError, pos, "this evaluation has no store collaborator configured"))
	}
	return b.store
}

func (b *env) registerIO(reg registerFunc) {
	reg("readFile", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		p := b.pathArg(args[0], pos)
		checked, err := b.requireResolver(pos).CheckSourcePath(p)
		if err != nil {
			panic(errs.New(errs.RestrictedPathError, pos, "readFile: %s", err))
		}
		content, err := b.resolver.ReadFile(checked)
		if err != nil {
			panic(errs.New(errs.InvalidPathError, pos, "readFile: %s", err))
		}
		return values.Str(content)
	})

	reg("readDir", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		p := b.pathArg(args[0], pos)
		checked, err := b.requireResolver(pos).CheckSourcePath(p)
		if err != nil {
			panic(errs.New(errs.RestrictedPathError, pos, "readDir: %s", err))
		}
		entries, err := b.resolver.ReadDir(checked)
		if err != nil {
			panic(errs.New(errs.InvalidPathError, pos, "readDir: %s", err))
		}
		out := make([]values.Binding, len(entries))
		for i, e := range entries {
			out[i] = values.Binding{Name: b.ev.Syms.Intern(e.Name), Value: values.Str(e.Type)}
		}
		return values.AttrsV(values.NewBindingsFromMap(out))
	})

	reg("pathExists", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		p := b.pathArg(args[0], pos)
		checked, err := b.requireResolver(pos).CheckSourcePath(p)
		if err != nil {
			return values.Bool(false)
		}
		_, err = b.resolver.FileType(checked)
		return values.Bool(err == nil)
	})

	reg("readFileType", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		p := b.pathArg(args[0], pos)
		checked, err := b.requireResolver(pos).CheckSourcePath(p)
		if err != nil {
			panic(errs.New(errs.RestrictedPathError, pos, "readFileType: %s", err))
		}
		ft, err := b.resolver.FileType(checked)
		if err != nil {
			panic(errs.New(errs.InvalidPathError, pos, "readFileType: %s", err))
		}
		return values.Str(ft)
	})

	reg("findFile", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		searchPathList := b.ev.ForceList(args[0], pos)
		name, _ := b.ev.ForceString(args[1], pos)
		var prefixes []string
		for _, el := range searchPathList {
			a := b.ev.ForceAttrs(el, pos)
			if pathV, ok := a.Get(b.ev.Syms.Intern("path")); ok {
				s, _ := b.ev.ForceString(pathV, pos)
				prefixes = append(prefixes, s)
			}
		}
		found, err := b.requireResolver(pos).FindFile(prefixes, name)
		if err != nil {
			panic(errs.New(errs.InvalidPathError, pos, "findFile: %s", err))
		}
		return values.PathV(found)
	})

	reg("hashFile", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		algo, _ := b.ev.ForceString(args[0], pos)
		p := b.pathArg(args[1], pos)
		checked, err := b.requireResolver(pos).CheckSourcePath(p)
		if err != nil {
			panic(errs.New(errs.RestrictedPathError, pos, "hashFile: %s", err))
		}
		content, err := b.resolver.ReadFile(checked)
		if err != nil {
			panic(errs.New(errs.InvalidPathError, pos, "hashFile: %s", err))
		}
		sum, err := hashBytes(algo, []byte(content))
		if err != nil {
			panic(errs.New(errs.EvalError, pos, "hashFile: %s", err))
		}
		return values.Str(hex.EncodeToString(sum))
	})

	reg("toFile", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		name, _ := b.ev.ForceString(args[0], pos)
		content, ctx := b.ev.ForceString(args[1], pos)
		if !ctx.Empty() && !b.cfg.AllowImportFromDerivation {
			panic(errs.New(errs.EvalError, pos, "toFile: content depends on an unrealised store path"))
		}
		storePath, err := b.requireStore(pos).AddTextToStore(name, content, nil)
		if err != nil {
			panic(errs.New(errs.EvalError, pos, "toFile: %s", err))
		}
		return values.StrCtx(storePath, values.NewStringContext(values.ContextElem{Kind: values.CtxOpaque, StorePath: storePath}))
	})

	reg("filterSource", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		fn := b.ev.ForceFunction(args[0], pos)
		p := b.pathArg(args[1], pos)
		checked, err := b.requireResolver(pos).CheckSourcePath(p)
		if err != nil {
			panic(errs.New(errs.RestrictedPathError, pos, "filterSource: %s", err))
		}
		entries, err := b.resolver.ReadDir(checked)
		if err != nil {
			panic(errs.New(errs.InvalidPathError, pos, "filterSource: %s", err))
		}
		for _, e := range entries {
			keep := b.ev.ForceBool(b.ev.CallFunction(fn, []*values.Value{values.PathV(p + "/" + e.Name), values.Str(e.Type)}, pos), pos)
			_ = keep // the predicate runs for every entry but its result is unused: the source path is returned unfiltered and nothing is copied into the store
		}
		return values.PathV(p)
	})

	reg("import", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		p := b.pathArg(args[0], pos)
		if b.ev.ImportHook == nil {
			panic(errs.New(errs.EvalError, pos, "import: this evaluation has no import hook configured"))
		}
		return b.ev.ImportHook(p, nil, pos)
	})

	reg("scopedImport", 2, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		scope := b.force(args[0])
		p := b.pathArg(args[1], pos)
		if b.ev.ImportHook == nil {
			panic(errs.New(errs.EvalError, pos, "scopedImport: this evaluation has no import hook configured"))
		}
		return b.ev.ImportHook(p, scope, pos)
	})

	reg("path", 1, func(args []*values.Value, pos postable.PosIdx) *values.Value {
		a := b.ev.ForceAttrs(args[0], pos)
		pathSym := b.ev.Syms.Intern("path")
		pv, ok := a.Get(pathSym)
		if !ok {
			panic(errs.New(errs.EvalError, pos, "path: missing required attribute 'path'"))
		}
		p := b.pathArg(pv, pos)
		if _, err := b.requireResolver(pos).CheckSourcePath(p); err != nil {
			panic(errs.New(errs.RestrictedPathError, pos, "path: %s", err))
		}
		return values.PathV(p)
	})
}

func (b *env) pathArg(v *values.Value, pos postable.PosIdx) string {
	fv := b.force(v)
	if fv.Kind == values.KindPath {
		return fv.P
	}
	s, ctx := b.ev.ForceString(fv, pos)
	if !ctx.Empty() {
		panic(errs.New(errs.EvalError, pos, "string with context cannot be used as a path"))
	}
	return s
}
