package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skrider/astpretty/pkg/colorize"
	"github.com/skrider/astpretty/pkg/config"
	"github.com/skrider/astpretty/pkg/lang"
	"github.com/skrider/astpretty/pkg/pretty"
	"github.com/skrider/astpretty/pkg/tree"
	"github.com/skrider/astpretty/pkg/walker"
)

const stdinName = "-"

var errNoInput = errors.New("no input: pass a path or pipe source on stdin")

// CorpusEntry is one input to format.
type CorpusEntry struct {
	// Name is the file path, or "-" for stdin.
	Name string
}

type result struct {
	out string
	err error
}

func runFormat(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	entries, err := collectEntries(cmd.InOrStdin(), args, log)
	if err != nil {
		return err
	}
	log.Debug("collected inputs", "count", len(entries))

	color := cfg.Colorize && colorEnabled(cmd.OutOrStdout())
	if cfg.Colorize && !color {
		log.Debug("colorize disabled", "reason", "output is not a terminal or NO_COLOR is set")
	}

	results := formatAll(cmd.Context(), cfg, entries, cmd.InOrStdin(), color, log)
	return report(cmd.OutOrStdout(), cmd.ErrOrStderr(), entries, results)
}

// collectEntries expands args into the list of inputs. Directories are
// walked; stdin is used once, and only when it is not a terminal.
func collectEntries(stdin io.Reader, args []string, log *slog.Logger) ([]CorpusEntry, error) {
	if len(args) == 0 {
		args = []string{stdinName}
	}
	var entries []CorpusEntry
	useStdin := false
	w := walker.NewWalker(func(path string) error {
		entries = append(entries, CorpusEntry{Name: path})
		return nil
	}, lang.Known, log)

	for _, path := range args {
		if path != stdinName {
			if err := w.Walk(path); err != nil {
				return nil, err
			}
			continue
		}
		if useStdin {
			continue
		}
		if isTerminal(stdin) {
			return nil, errNoInput
		}
		useStdin = true
		entries = append(entries, CorpusEntry{Name: stdinName})
	}
	return entries, nil
}

// formatAll formats every entry on a bounded pool of workers. Results keep
// the order of entries; one failing file does not stop the others.
func formatAll(ctx context.Context, cfg config.Config, entries []CorpusEntry, stdin io.Reader, color bool, log *slog.Logger) []result {
	if ctx == nil {
		ctx = context.Background()
	}
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]result, len(entries))
	f := pretty.New(pretty.WithConfig(cfg.Pretty()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(entries))))
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = result{err: err}
				return nil
			}
			out, err := formatEntry(gctx, f, cfg.Lang, entry, stdin, color)
			if err != nil {
				log.Debug("format failed", "path", entry.Name, "err", err)
			} else {
				log.Debug("formatted", "path", entry.Name)
			}
			results[i] = result{out: out, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func formatEntry(ctx context.Context, f *pretty.Formatter, forced string, entry CorpusEntry, stdin io.Reader, color bool) (string, error) {
	var (
		src []byte
		err error
	)
	if entry.Name == stdinName {
		src, err = io.ReadAll(stdin)
	} else {
		src, err = os.ReadFile(entry.Name)
	}
	if err != nil {
		return "", err
	}

	name := forced
	if name == "" {
		if entry.Name == stdinName {
			name = lang.Default
		} else if name, err = lang.ForPath(entry.Name); err != nil {
			return "", err
		}
	}
	parser, err := lang.Lookup(name)
	if err != nil {
		return "", err
	}

	filename := entry.Name
	if filename == stdinName {
		filename = "<stdin>"
	}
	root, err := parser.Parse(ctx, filename, src)
	if err != nil {
		return "", err
	}
	out := f.FormatNode(root)
	if color {
		out = colorize.New(tree.TypeNames(root)).Colorize(out)
	}
	return out, nil
}

// report writes results in input order. With several inputs each one gets
// a header line.
func report(stdout, stderr io.Writer, entries []CorpusEntry, results []result) error {
	failed := 0
	var b strings.Builder
	for i, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintln(stderr, "astpretty:", r.err)
			continue
		}
		if len(entries) > 1 {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "== %s ==\n", entries[i].Name)
		}
		b.WriteString(r.out)
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(stdout, b.String()); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(entries))
	}
	return nil
}
