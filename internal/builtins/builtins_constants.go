package builtins

import (
	"runtime"
	"time"

	"github.com/purelang/evalcore/internal/values"
)

// nixSystemDouble reports the "arch-os" double Nix's builtins.currentSystem
// uses, the same shape eval.cc derives from the build platform.
func nixSystemDouble() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	}
	os := runtime.GOOS
	if os == "darwin" {
		os = "darwin"
	}
	return arch + "-" + os
}

// registerConstants binds the non-primop base-environment values: the
// version string (always bound), platform and time info (withheld under
// pure_eval, since both are properties of the evaluating machine rather
// than the expression), and the search-path machinery `<nixpath>`
// literals desugar into.
func (b *env) registerConstants(out map[string]*values.Value) {
	out["nixVersion"] = values.Str("2.90.0-purelang")

	if !b.cfg.PureEval {
		out["currentSystem"] = values.Str(nixSystemDouble())
		out["currentTime"] = values.Int(time.Now().Unix())
	}

	pathSym := b.ev.Syms.Intern("path")
	elems := make([]*values.Value, len(b.cfg.SearchPath))
	for i, p := range b.cfg.SearchPath {
		elems[i] = values.AttrsV(values.NewBindingsSorted([]values.Binding{
			{Name: pathSym, Value: values.PathV(p)},
		}))
	}
	out["__nixPath"] = values.ListV(elems)

	// <nixpath> literals desugar to `__findFile __nixPath "name"`; findFile
	// itself is registered under its builtins.findFile name, so alias it
	// bare under the double-underscore name the parser emits.
	if ff, ok := out["findFile"]; ok {
		out["__findFile"] = ff
	}
}
