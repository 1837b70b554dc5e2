package preprocess

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_preprocessor.go -package=mocks kbprep/internal/preprocess Preprocessor

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"kbprep/internal/contextutil"
	"kbprep/internal/markdown"
	"kbprep/internal/splitter"
)

// Document is one markdown document to preprocess.
type Document struct {
	// Name is the document's file name or path. It names the output file
	// and, when seeding is requested, the breadcrumb root.
	Name string
	// Content is the raw markdown.
	Content string
}

// Options control one preprocessing run. Zero fields fall back to the
// service defaults.
type Options struct {
	// MaxChunkLength is the per-chunk character budget.
	MaxChunkLength int
	// SplitMaxLevel is the deepest heading level that starts a new chunk.
	SplitMaxLevel int
	// NormalizeTables rewrites GFM tables to fenced json blocks before
	// splitting.
	NormalizeTables bool
	// SourceName, when set, becomes the first breadcrumb segment of every
	// chunk.
	SourceName string
}

// Result is the outcome of preprocessing one document.
type Result struct {
	// Output is the chunked document.
	Output string
	// OutputName is the suggested file name for the output.
	OutputName string
	// Chunks is the number of chunks emitted.
	Chunks int
	// Delimiters is the number of delimiter lines emitted, one less than
	// Chunks whenever output was produced.
	Delimiters int
}

// Preprocessor turns markdown documents into chunked upload payloads.
// The interface is defined from the consumer's perspective so handlers and
// the pipeline can be tested against a mock.
type Preprocessor interface {
	Preprocess(ctx context.Context, doc Document, opts Options) (*Result, error)
}

// Service implements Preprocessor with configured defaults.
type Service struct {
	defaults Options
	logger   *slog.Logger
}

var _ Preprocessor = (*Service)(nil)

// NewService creates a preprocessing service. The given options fill the
// zero fields of per-call options; out-of-range defaults are replaced with
// the built-in ones.
func NewService(defaults Options) *Service {
	if defaults.MaxChunkLength <= 0 {
		defaults.MaxChunkLength = splitter.DefaultMaxChunkLength
	}
	if defaults.SplitMaxLevel <= 0 {
		defaults.SplitMaxLevel = splitter.DefaultSplitMaxLevel
	}
	return &Service{
		defaults: defaults,
		logger:   slog.Default(),
	}
}

// Preprocess chunks one document: optional table normalization, then the
// breadcrumb-annotated split.
func (s *Service) Preprocess(ctx context.Context, doc Document, opts Options) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	opts = s.fill(opts)
	if err := validate(opts); err != nil {
		logger.WarnContext(ctx, "invalid preprocessing options", "error", err)
		return nil, err
	}

	input := doc.Content
	if opts.NormalizeTables {
		input = markdown.NormalizeTablesString(input)
	}

	var root []string
	if opts.SourceName != "" {
		root = []string{opts.SourceName}
	}

	output := splitter.SplitString(input, splitter.Options{
		MaxChunkLength: opts.MaxChunkLength,
		SplitMaxLevel:  opts.SplitMaxLevel,
		RootSegments:   root,
	})

	chunks, delimiters := countChunks(output)
	logger.InfoContext(ctx, "document preprocessed",
		"name", doc.Name,
		"chunks", chunks,
		"input_length", len(doc.Content),
		"output_length", len(output))

	return &Result{
		Output:     output,
		OutputName: OutputName(doc.Name),
		Chunks:     chunks,
		Delimiters: delimiters,
	}, nil
}

// fill merges the service defaults into the zero fields of opts. Negative
// values are kept so validation can reject them.
func (s *Service) fill(opts Options) Options {
	if opts.MaxChunkLength == 0 {
		opts.MaxChunkLength = s.defaults.MaxChunkLength
	}
	if opts.SplitMaxLevel == 0 {
		opts.SplitMaxLevel = s.defaults.SplitMaxLevel
	}
	if !opts.NormalizeTables {
		opts.NormalizeTables = s.defaults.NormalizeTables
	}
	return opts
}

func validate(opts Options) error {
	if opts.MaxChunkLength < 1 {
		return &ValidationError{
			Field:   "max_chunk_length",
			Message: "must be positive",
		}
	}
	if opts.SplitMaxLevel < 1 || opts.SplitMaxLevel > 6 {
		return &ValidationError{
			Field:   "split_max_level",
			Message: "must be between 1 and 6",
		}
	}
	return nil
}

// OutputName returns the output file name for an input document name: the
// base name with its extension replaced by ".txt".
func OutputName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
}

func countChunks(output string) (chunks, delimiters int) {
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "{ data-path ="):
			chunks++
		case line == splitter.Delimiter:
			delimiters++
		}
	}
	return chunks, delimiters
}
