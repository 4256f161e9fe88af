package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultSettings(t *testing.T) {
	s := Default()
	if s.PureEval || s.RestrictEval || s.AllowImportFromDerivation {
		t.Fatalf("Default() should be permissive: %+v", s)
	}
	if s.MaxCallDepth != 10000 {
		t.Fatalf("MaxCallDepth = %d, want 10000", s.MaxCallDepth)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	yaml := "pure_eval: true\nmax_call_depth: 500\nsearch_path:\n  - /srv/nixpkgs\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if !s.PureEval {
		t.Fatalf("PureEval should be overridden to true")
	}
	if s.MaxCallDepth != 500 {
		t.Fatalf("MaxCallDepth = %d, want 500", s.MaxCallDepth)
	}
	if len(s.SearchPath) != 1 || s.SearchPath[0] != "/srv/nixpkgs" {
		t.Fatalf("SearchPath = %v, want [/srv/nixpkgs]", s.SearchPath)
	}
	// A field the file never mentions should keep Default()'s value.
	if s.AllowImportFromDerivation {
		t.Fatalf("AllowImportFromDerivation should default to false when the file omits it")
	}
}

func TestLoadViperBindsDefaultsAndEnv(t *testing.T) {
	v := viper.New()
	BindDefaults(v)

	s, err := LoadViper(v)
	if err != nil {
		t.Fatalf("LoadViper: %v", err)
	}
	if s.MaxCallDepth != 10000 {
		t.Fatalf("MaxCallDepth = %d, want the bound default 10000", s.MaxCallDepth)
	}

	v.Set("restrict_eval", true)
	s2, err := LoadViper(v)
	if err != nil {
		t.Fatalf("LoadViper: %v", err)
	}
	if !s2.RestrictEval {
		t.Fatalf("explicitly set restrict_eval should override the default")
	}
}
