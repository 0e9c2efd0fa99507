package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/patrickward/vesper"
	"github.com/patrickward/vesper/internal/search"
	"github.com/patrickward/vesper/internal/workers"
)

type searchOptions struct {
	workers       int
	respectIgnore bool
	json          bool
	color         string
}

// palette colors search output; every color is forced on or off up front
type palette struct {
	path  *color.Color
	line  *color.Color
	match *color.Color
	info  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:  color.New(color.FgMagenta),
		line:  color.New(color.FgGreen),
		match: color.New(color.FgRed, color.Bold),
		info:  color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.path, p.line, p.match, p.info} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// useColor decides whether output to w is colored: "always", "never", or "auto" for
// terminals only
func useColor(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		f, ok := w.(*os.File)
		return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid --color %q: want auto, always or never", mode)
	}
}

func newSearchCommand(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <dir> <keyword>",
		Short: "Search a directory tree for a keyword, ignoring case",
		Long: `Search prints every line below <dir> that contains <keyword>, ignoring case,
as path:line: text. Binary files are skipped. Press Ctrl-C to stop early and
print the matches found so far.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("workers") {
				opts.workers = cfg.Search.Workers
			}
			if !flags.Changed("respect-ignore") {
				opts.respectIgnore = cfg.Search.RespectIgnore
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runSearch(ctx, cmd.OutOrStdout(), args[0], args[1], opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.workers, "workers", 0, "Files scanned concurrently (0 = number of CPUs).")
	flags.BoolVar(&opts.respectIgnore, "respect-ignore", false, "Skip entries matched by the directory's .gitignore.")
	flags.BoolVar(&opts.json, "json", false, "Print matches as JSON.")
	flags.StringVar(&opts.color, "color", "auto", "Highlight matches: auto, always or never.")

	return cmd
}

func runSearch(ctx context.Context, out io.Writer, dir, keyword string, opts *searchOptions) error {
	colored, err := useColor(opts.color, out)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid directory %s: %w", dir, err)
	}

	worker := workers.NewBackgroundWorker(context.Background())
	defer worker.Shutdown()

	searches := vesper.NewSearchService(worker, search.Options{
		Workers:       opts.workers,
		RespectIgnore: opts.respectIgnore,
	}, 0)

	matches, err := searches.Search(ctx, root, keyword)
	if err != nil {
		return err
	}
	cancelled := ctx.Err() != nil

	if opts.json {
		if matches == nil {
			matches = []search.SearchMatch{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	p := newPalette(colored)
	files := make(map[string]struct{})
	for _, m := range matches {
		files[m.File] = struct{}{}
		printMatch(out, p, root, m)
	}

	summary := fmt.Sprintf("%d matches in %d files", len(matches), len(files))
	if cancelled {
		summary += " (search cancelled)"
	}
	_, _ = fmt.Fprintln(out, p.info.Sprint(summary))
	return nil
}

// printMatch writes one match as path:line: text with every matched range highlighted
func printMatch(out io.Writer, p palette, root string, m search.SearchMatch) {
	name := m.File
	if rel, err := filepath.Rel(root, m.File); err == nil {
		name = filepath.ToSlash(rel)
	}

	_, _ = fmt.Fprintf(out, "%s:%s: ", p.path.Sprint(name), p.line.Sprint(m.LineNumber))

	pos := 0
	for _, r := range m.MatchIndices {
		if r.Start < pos || r.End > len(m.Line) {
			continue
		}
		_, _ = io.WriteString(out, m.Line[pos:r.Start])
		_, _ = io.WriteString(out, p.match.Sprint(m.Line[r.Start:r.End]))
		pos = r.End
	}
	_, _ = fmt.Fprintln(out, m.Line[pos:])
}
