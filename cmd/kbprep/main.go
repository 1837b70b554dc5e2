package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"kbprep/internal/config"
	"kbprep/internal/markdown"
	"kbprep/internal/pipeline"
	"kbprep/internal/preprocess"
)

// cliOptions carries the parsed command line.
type cliOptions struct {
	In         string
	Out        string
	Preprocess preprocess.Options
	SeedTitles bool
	Annotate   bool
	Workers    int
	Force      bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	in := flag.String("in", "", "input markdown file, directory, or - for stdin")
	out := flag.String("out", "", "output file, directory, or - for stdout (directory input requires a directory)")
	maxChunkLength := flag.Int("max-chunk-length", cfg.MaxChunkLength, "maximum chunk length in characters")
	splitMaxLevel := flag.Int("split-max-level", cfg.SplitMaxLevel, "deepest heading level that starts a new chunk (1-6)")
	tables := flag.Bool("tables", cfg.NormalizeTables, "rewrite markdown tables as JSON code blocks before splitting")
	source := flag.String("source", "", "root segment prepended to every chunk path")
	seedTitles := flag.Bool("seed-titles", false, "derive each document's root segment from its title")
	annotate := flag.Bool("annotate", false, "annotate headings with their paths instead of splitting")
	workers := flag.Int("workers", cfg.PipelineWorkers, "concurrent workers for directory input")
	force := flag.Bool("force", false, "preprocess files even when unchanged since the last run")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "Error: -in is required")
		os.Exit(1)
	}

	// Logs go to stderr so stdout stays clean for document output
	handlerOpts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))

	cli := cliOptions{
		In:  *in,
		Out: *out,
		Preprocess: preprocess.Options{
			MaxChunkLength:  *maxChunkLength,
			SplitMaxLevel:   *splitMaxLevel,
			NormalizeTables: *tables,
			SourceName:      *source,
		},
		SeedTitles: *seedTitles,
		Annotate:   *annotate,
		Workers:    *workers,
		Force:      *force,
	}

	if err := run(context.Background(), cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cli cliOptions) error {
	if cli.In != "-" {
		info, err := os.Stat(cli.In)
		if err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
		if info.IsDir() {
			return runDirectory(ctx, cli)
		}
	}
	return runSingle(ctx, cli)
}

// runDirectory preprocesses every markdown file under cli.In into cli.Out.
func runDirectory(ctx context.Context, cli cliOptions) error {
	if cli.Annotate {
		return errors.New("-annotate works on a single file or stdin, not a directory")
	}
	if cli.Out == "" || cli.Out == "-" {
		return errors.New("directory input requires a directory -out")
	}

	runner := pipeline.NewRunner(preprocess.NewService(cli.Preprocess))
	stats, err := runner.Run(ctx, pipeline.Config{
		InDir:      cli.In,
		OutDir:     cli.Out,
		Workers:    cli.Workers,
		Options:    cli.Preprocess,
		SeedTitles: cli.SeedTitles,
		Force:      cli.Force,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d files (%d skipped, %d failed), %d chunks in %dms\n",
		stats.FilesProcessed, stats.FilesSkipped, stats.FilesFailed, stats.Chunks, stats.DurationMs)
	for _, msg := range stats.Errors {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
	return nil
}

// runSingle preprocesses or annotates one document from a file or stdin.
func runSingle(ctx context.Context, cli cliOptions) error {
	content, name, err := readInput(cli.In)
	if err != nil {
		return err
	}

	if cli.Annotate {
		return writeOutput(cli.Out, name, markdown.AnnotateHeadingsString(string(content)))
	}

	opts := cli.Preprocess
	if cli.SeedTitles {
		opts.SourceName = markdown.DocumentTitle(content, name)
	}

	svc := preprocess.NewService(opts)
	result, err := svc.Preprocess(ctx, preprocess.Document{Name: name, Content: string(content)}, opts)
	if err != nil {
		return err
	}
	return writeOutput(cli.Out, result.OutputName, result.Output)
}

// readInput reads the single input document. "-" reads stdin.
func readInput(in string) ([]byte, string, error) {
	if in == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return content, "stdin.md", nil
	}
	content, err := os.ReadFile(in)
	if err != nil {
		return nil, "", fmt.Errorf("read input: %w", err)
	}
	return content, filepath.Base(in), nil
}

// writeOutput writes text to out. Empty or "-" writes to stdout; an existing
// directory receives a file named name inside it.
func writeOutput(out, name, text string) error {
	if out == "" || out == "-" {
		if _, err := io.WriteString(os.Stdout, text); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		return nil
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, name)
	}
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
