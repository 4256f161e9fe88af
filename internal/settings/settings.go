// Package settings renders the flat list of evaluator-wide knobs the
// external interfaces name (pure_eval, restrict_eval, max_call_depth,
// experimental-feature flags) as a Go struct loadable three ways:
// programmatically, from a YAML file, or from environment/CLI flags.
package settings

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the evaluator-wide configuration spec.md section 6 names.
type Settings struct {
	PureEval                  bool `yaml:"pure_eval" mapstructure:"pure_eval"`
	RestrictEval              bool `yaml:"restrict_eval" mapstructure:"restrict_eval"`
	AllowImportFromDerivation bool `yaml:"allow_import_from_derivation" mapstructure:"allow_import_from_derivation"`
	MaxCallDepth              uint `yaml:"max_call_depth" mapstructure:"max_call_depth"`
	EnableNativeCode          bool `yaml:"enable_native_code" mapstructure:"enable_native_code"`

	// SearchPath backs `<nixpath>` literal resolution (__findFile).
	SearchPath []string `yaml:"search_path" mapstructure:"search_path"`

	// AllowedPaths is the restrict_eval filesystem allow-list handed to
	// internal/source.Resolver when RestrictEval is set.
	AllowedPaths []string `yaml:"allowed_paths" mapstructure:"allowed_paths"`

	// Experimental/deprecation flags, named individually per spec.md
	// rather than as a generic string set so a typo'd flag name fails
	// to compile instead of silently doing nothing.
	ExperimentalURLLiterals         bool `yaml:"experimental_url_literals" mapstructure:"experimental_url_literals"`
	ExperimentalShadowInternalSyms  bool `yaml:"experimental_shadow_internal_symbols" mapstructure:"experimental_shadow_internal_symbols"`
	ExperimentalCoerceIntegers      bool `yaml:"experimental_coerce_integers" mapstructure:"experimental_coerce_integers"`
	ExperimentalCADerivations       bool `yaml:"experimental_ca_derivations" mapstructure:"experimental_ca_derivations"`
	ExperimentalDynamicDerivations  bool `yaml:"experimental_dynamic_derivations" mapstructure:"experimental_dynamic_derivations"`
	ExperimentalImpureDerivations   bool `yaml:"experimental_impure_derivations" mapstructure:"experimental_impure_derivations"`
	ExperimentalFlakes              bool `yaml:"experimental_flakes" mapstructure:"experimental_flakes"`
}

// Default returns the settings a fresh evaluator uses when nothing is
// configured: permissive, bounded call depth, no experimental flags.
func Default() Settings {
	return Settings{
		MaxCallDepth: 10000,
	}
}

// LoadYAML reads Settings from a YAML file, starting from Default() so
// fields the file omits keep their defaults.
func LoadYAML(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("settings: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	return s, nil
}

// LoadViper reads Settings from v, which the caller has already bound
// to environment variables and/or cobra flags (cmd/langeval's root
// command does this with an "EVALCORE_" env prefix). Unset keys fall
// back to Default()'s values via v's own defaults, set by BindDefaults.
func LoadViper(v *viper.Viper) (Settings, error) {
	s := Default()
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("settings: unmarshal viper config: %w", err)
	}
	return s, nil
}

// BindDefaults registers Default()'s values on v so that Get calls made
// before a config file or flag overrides them still return something
// sane, and so LoadViper's Unmarshal never silently zeroes a field no
// source set.
func BindDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("pure_eval", d.PureEval)
	v.SetDefault("restrict_eval", d.RestrictEval)
	v.SetDefault("allow_import_from_derivation", d.AllowImportFromDerivation)
	v.SetDefault("max_call_depth", d.MaxCallDepth)
	v.SetDefault("enable_native_code", d.EnableNativeCode)
	v.SetDefault("search_path", d.SearchPath)
	v.SetDefault("allowed_paths", d.AllowedPaths)
}
