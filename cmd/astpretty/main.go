package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skrider/astpretty/pkg/config"
	"github.com/skrider/astpretty/pkg/lang"
)

const long = `astpretty prints the syntax tree of source files as indented text.

Paths may be files or directories. Directories are searched recursively,
respecting gitignore rules and skipping hidden, vendored and binary files;
only files of a known language are printed. With no path, or "-", source is
read from a pipe on stdin.

Languages: python (.py, .pyi), go (.go), python-cst, go-cst and
javascript-cst (.js, .mjs, .cjs).`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "astpretty [flags] [path...]",
		Short:         "Pretty print abstract syntax trees",
		Long:          long,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE:          runFormat,
	}

	flags := cmd.PersistentFlags()
	flags.Bool("show-offsets", true, "show source position attributes")
	flags.Bool("no-show-offsets", false, "hide source position attributes")
	flags.String("indent", "    ", "indentation unit")
	flags.Int("indent-level", 0, "nesting depth of the outermost node")
	flags.String("namespace-prefix", "", "prefix for every node type name")
	flags.Bool("colorize", false, "highlight output when writing to a terminal")
	flags.String("lang", "", "force a language instead of detecting it by extension")
	flags.String("config", "", "TOML or YAML config file (default .astpretty.{toml,yaml,yml} if present)")
	flags.IntP("jobs", "j", 0, "files formatted in parallel (0 = GOMAXPROCS)")
	flags.BoolP("verbose", "v", false, "log debug details to stderr")

	cmd.AddCommand(newViewCmd())
	return cmd
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "astpretty:", err)
		os.Exit(1)
	}
}

// settings merges the config file, when there is one, with the flags the
// user set explicitly.
func settings(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	cfg := config.NewConfig()

	path, _ := flags.GetString("config")
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.Discover(wd)
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if flags.Changed("show-offsets") {
		cfg.ShowOffsets, _ = flags.GetBool("show-offsets")
	}
	if hide, _ := flags.GetBool("no-show-offsets"); hide {
		cfg.ShowOffsets = false
	}
	if flags.Changed("indent") {
		cfg.Indent, _ = flags.GetString("indent")
	}
	if flags.Changed("indent-level") {
		cfg.IndentLevel, _ = flags.GetInt("indent-level")
	}
	if flags.Changed("namespace-prefix") {
		cfg.NamespacePrefix, _ = flags.GetString("namespace-prefix")
	}
	if flags.Changed("colorize") {
		cfg.Colorize, _ = flags.GetBool("colorize")
	}
	if flags.Changed("lang") {
		cfg.Lang, _ = flags.GetString("lang")
	}
	if flags.Changed("jobs") {
		cfg.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}

	if cfg.Lang != "" {
		if _, err := lang.Lookup(cfg.Lang); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// colorEnabled reports whether colored output can reach a terminal.
func colorEnabled(w io.Writer) bool {
	if _, off := os.LookupEnv("NO_COLOR"); off {
		return false
	}
	return isTerminal(w)
}
