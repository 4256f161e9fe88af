package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/purelang/evalcore/internal/settings"
)

var (
	// Version is set at build time via -ldflags "-X ...cmd.Version=...".
	Version = "0.1.0-dev"

	cfgFile  string
	verbose  bool
	viperCfg = viper.New()
)

var rootCmd = &cobra.Command{
	Use:     "langeval",
	Short:   "Evaluate configuration-language expressions",
	Version: Version,
	Long: `langeval is a thin command-line front-end over the lazy, purely
functional configuration-language evaluator core: parse a file or inline
expression, evaluate it, print the result.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings YAML file (default: none, built-in defaults apply)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostic output")

	rootCmd.PersistentFlags().Bool("pure-eval", false, "disable getEnv/currentSystem/impure fetchers")
	rootCmd.PersistentFlags().Bool("restrict-eval", false, "require an explicit filesystem/URL allow-list")
	rootCmd.PersistentFlags().Bool("allow-import-from-derivation", false, "allow import to realise a derivation output")
	rootCmd.PersistentFlags().Uint("max-call-depth", 10000, "function-call recursion limit")
	rootCmd.PersistentFlags().StringSlice("allowed-paths", nil, "restrict-eval filesystem allow-list roots")

	_ = viperCfg.BindPFlag("pure_eval", rootCmd.PersistentFlags().Lookup("pure-eval"))
	_ = viperCfg.BindPFlag("restrict_eval", rootCmd.PersistentFlags().Lookup("restrict-eval"))
	_ = viperCfg.BindPFlag("allow_import_from_derivation", rootCmd.PersistentFlags().Lookup("allow-import-from-derivation"))
	_ = viperCfg.BindPFlag("max_call_depth", rootCmd.PersistentFlags().Lookup("max-call-depth"))
	_ = viperCfg.BindPFlag("allowed_paths", rootCmd.PersistentFlags().Lookup("allowed-paths"))
	viperCfg.SetEnvPrefix("EVALCORE")
	viperCfg.AutomaticEnv()

	settings.BindDefaults(viperCfg)
}

func initConfig() {
	if cfgFile != "" {
		viperCfg.SetConfigFile(cfgFile)
		viperCfg.SetConfigType("yaml")
		if err := viperCfg.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "langeval: reading config %s: %v\n", cfgFile, err)
		}
	}
}

// loadSettings renders the bound flags/env/config-file state into a
// settings.Settings, the same three-way composition SPEC_FULL.md names.
func loadSettings() (settings.Settings, error) {
	return settings.LoadViper(viperCfg)
}
