package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/purelang/evalcore/internal/metrics"
	"github.com/purelang/evalcore/internal/store"
	"github.com/purelang/evalcore/pkg/langcore"
)

var (
	evalExpr     string
	showTrace    int
	showStats    bool
	storeDir     string
)

var evalCmd = &cobra.Command{
	Use:   "eval [file]",
	Short: "Evaluate a file or inline expression and print the result",
	Long: `Evaluate a program from a file or an inline expression.

Examples:
  langeval eval script.nix
  langeval eval -e '1 + 2'
  langeval eval --pure-eval --restrict-eval --allowed-paths /srv/config script.nix`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from a file")
	evalCmd.Flags().IntVar(&showTrace, "show-trace", 10, "number of trace frames to print on error (0 disables)")
	evalCmd.Flags().BoolVar(&showStats, "stats", false, "print evaluator statistics to stderr after running")
	evalCmd.Flags().StringVar(&storeDir, "store", "", "directory backing the reference SQLite store (default: a temp dir)")
}

func runEval(_ *cobra.Command, args []string) error {
	var src, name string
	switch {
	case evalExpr != "":
		src, name = evalExpr, "<inline>"
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		src, name = string(data), args[0]
	default:
		return fmt.Errorf("either provide a file path or use -e for inline code")
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	dir := storeDir
	if dir == "" {
		dir, err = os.MkdirTemp("", "langeval-store-*")
		if err != nil {
			return fmt.Errorf("creating temp store dir: %w", err)
		}
		defer os.RemoveAll(dir)
	}
	st, err := store.Open(dir, 4)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var resolver = langcore.NewSourceResolver(cfg.AllowedPaths...)
	if !cfg.RestrictEval {
		resolver = langcore.NewSourceResolver()
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	engine := langcore.New(langcore.Options{
		Settings: cfg,
		Store:    st,
		Resolver: resolver,
		Metrics:  m,
	})
	engine.Ev.Logger = newCLILogger(verbose)

	result, evalErr := engine.EvalDeep(name, src)
	if evalErr != nil {
		useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		msg := langcore.FormatError(evalErr, showTrace)
		if useColor {
			fmt.Fprintf(os.Stderr, "\x1b[31m%s\x1b[0m\n", msg)
		} else {
			fmt.Fprintln(os.Stderr, msg)
		}
		if showStats {
			fmt.Fprint(os.Stderr, m.Dump())
		}
		return fmt.Errorf("evaluation failed")
	}

	fmt.Println(engine.Render(result))

	if showStats {
		fmt.Fprint(os.Stderr, m.Dump())
	}
	return nil
}
