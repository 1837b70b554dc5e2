package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kbprep/internal/contextutil"
	"kbprep/internal/markdown"
	"kbprep/internal/preprocess"
	"kbprep/internal/splitter"
)

const (
	// DefaultWorkers is the number of files preprocessed concurrently.
	DefaultWorkers = 4
	// maxReportedErrors bounds the error list carried in RunStats.
	maxReportedErrors = 5
)

// Config controls a pipeline run.
type Config struct {
	// InDir is the directory scanned for markdown files.
	InDir string
	// OutDir receives one chunked .txt per input file plus the manifest.
	OutDir string
	// Workers is the number of concurrent workers. Zero or negative falls
	// back to DefaultWorkers.
	Workers int
	// Options are the preprocessing options applied to every document.
	Options preprocess.Options
	// SeedTitles derives each document's SourceName from its title, so
	// every chunk's breadcrumb starts with the document it came from.
	SeedTitles bool
	// Force preprocesses every file even when its hash is unchanged.
	Force bool
}

// RunStats summarizes a pipeline run.
type RunStats struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`
	// FilesProcessed is the number of files preprocessed and written.
	FilesProcessed int `json:"files_processed"`
	// FilesSkipped is the number of files skipped as unchanged.
	FilesSkipped int `json:"files_skipped"`
	// FilesFailed is the number of files that failed.
	FilesFailed int `json:"files_failed"`
	// Chunks is the total number of chunks written.
	Chunks int `json:"chunks"`
	// ChunkLengths summarizes the lengths of the written chunks.
	ChunkLengths ChunkLengthStats `json:"chunk_lengths"`
	// DurationMs is the wall-clock duration of the run in milliseconds.
	DurationMs int64 `json:"duration_ms"`
	// Errors holds the first few per-file error messages.
	Errors []string `json:"errors,omitempty"`
}

// Runner preprocesses a directory tree of markdown files concurrently and
// writes one chunked .txt per input, tracking content hashes in a manifest
// so unchanged files are skipped on later runs.
type Runner struct {
	pre preprocess.Preprocessor
}

// NewRunner creates a Runner backed by the given preprocessor.
func NewRunner(pre preprocess.Preprocessor) *Runner {
	return &Runner{pre: pre}
}

// Run scans cfg.InDir and preprocesses every markdown file into
// cfg.OutDir. Per-file failures are logged and counted; the run itself
// fails only when the scan fails, the context is canceled, or every file
// failed.
func (r *Runner) Run(ctx context.Context, cfg Config) (*RunStats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	files, err := Scan(ctx, cfg.InDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manifest := loadManifest(cfg.OutDir)
	runID := uuid.New().String()

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	logger.InfoContext(ctx, "pipeline run started",
		"run_id", runID,
		"files", len(files),
		"workers", workers,
		"force", cfg.Force)

	var (
		processed int32
		skipped   int32
		failed    int32
		chunks    int32
	)
	var mu sync.Mutex
	var errMsgs []string
	var lengths []int
	newHashes := make(map[string]string, len(files))

	semaphore := make(chan struct{}, workers)
	g, gctx := errgroup.WithContext(ctx)

	for _, f := range files {
		f := f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			res, err := r.processFile(gctx, cfg, manifest, f)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				logger.ErrorContext(gctx, "file preprocessing failed", "rel_path", f.RelPath, "error", err)
				mu.Lock()
				errMsgs = append(errMsgs, err.Error())
				mu.Unlock()
				return nil
			}
			if res.skipped {
				atomic.AddInt32(&skipped, 1)
				logger.DebugContext(gctx, "skipping unchanged file", "rel_path", f.RelPath, "hash", res.hash)
				mu.Lock()
				newHashes[f.RelPath] = res.hash
				mu.Unlock()
				return nil
			}

			atomic.AddInt32(&processed, 1)
			atomic.AddInt32(&chunks, int32(res.chunks))
			mu.Lock()
			newHashes[f.RelPath] = res.hash
			lengths = append(lengths, res.lengths...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(errMsgs) > maxReportedErrors {
		rest := len(errMsgs) - maxReportedErrors
		errMsgs = append(errMsgs[:maxReportedErrors], fmt.Sprintf("(%d more)", rest))
	}

	if len(files) > 0 && int(failed) == len(files) {
		return nil, fmt.Errorf("all %d files failed: %s", len(files), strings.Join(errMsgs, "; "))
	}

	newManifest := Manifest{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Files:       newHashes,
	}
	if err := newManifest.save(cfg.OutDir); err != nil {
		return nil, err
	}

	stats := &RunStats{
		RunID:          runID,
		FilesProcessed: int(processed),
		FilesSkipped:   int(skipped),
		FilesFailed:    int(failed),
		Chunks:         int(chunks),
		ChunkLengths:   computeLengthStats(lengths),
		DurationMs:     time.Since(start).Milliseconds(),
		Errors:         errMsgs,
	}

	logger.InfoContext(ctx, "pipeline run complete",
		"run_id", runID,
		"processed", stats.FilesProcessed,
		"skipped", stats.FilesSkipped,
		"failed", stats.FilesFailed,
		"chunks", stats.Chunks,
		"duration_ms", stats.DurationMs)

	return stats, nil
}

type fileResult struct {
	hash    string
	skipped bool
	chunks  int
	lengths []int
}

func (r *Runner) processFile(ctx context.Context, cfg Config, manifest Manifest, f ScannedFile) (*fileResult, error) {
	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.AbsPath, err)
	}

	sum := sha256.Sum256(content)
	hash := fmt.Sprintf("%x", sum)
	if !cfg.Force && manifest.Files[f.RelPath] == hash {
		return &fileResult{hash: hash, skipped: true}, nil
	}

	opts := cfg.Options
	if cfg.SeedTitles {
		opts.SourceName = markdown.DocumentTitle(content, f.RelPath)
	}

	doc := preprocess.Document{Name: f.RelPath, Content: string(content)}
	res, err := r.pre.Preprocess(ctx, doc, opts)
	if err != nil {
		return nil, preprocess.WrapError(err, fmt.Sprintf("failed to preprocess %s", f.RelPath))
	}

	outPath := filepath.Join(cfg.OutDir, outputRelPath(f.RelPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory for %s: %w", f.RelPath, err)
	}
	if err := os.WriteFile(outPath, []byte(res.Output), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	return &fileResult{
		hash:    hash,
		chunks:  res.Chunks,
		lengths: chunkLengths(res.Output),
	}, nil
}

// outputRelPath mirrors the input's directory layout under the output
// directory, replacing the extension with .txt.
func outputRelPath(relPath string) string {
	name := preprocess.OutputName(relPath)
	if dir := filepath.Dir(relPath); dir != "." {
		return filepath.Join(dir, name)
	}
	return name
}

// chunkLengths measures each chunk of a split output in runes, marker line
// included.
func chunkLengths(output string) []int {
	if output == "" {
		return nil
	}
	pieces := strings.Split(output, splitter.Delimiter+"\n")
	lengths := make([]int, len(pieces))
	for i, piece := range pieces {
		lengths[i] = utf8.RuneCountInString(piece)
	}
	return lengths
}
