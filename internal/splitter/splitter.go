package splitter

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxChunkLength is the character budget per chunk, marker line
	// included.
	DefaultMaxChunkLength = 8000
	// DefaultSplitMaxLevel is the deepest heading level that forces a
	// chunk boundary.
	DefaultSplitMaxLevel = 3
	// Delimiter is the sentinel separating adjacent chunks. It is emitted
	// on its own line after every chunk except the last.
	Delimiter = "---DIFY-CHUNK---"
)

// Options configure a Splitter.
type Options struct {
	// MaxChunkLength is the character budget per chunk, counting the
	// marker line, its newline, and every content line. Zero or negative
	// falls back to DefaultMaxChunkLength.
	MaxChunkLength int
	// SplitMaxLevel is the deepest heading level that closes the current
	// chunk. Deeper headings still update the breadcrumb stack. Zero or
	// negative falls back to DefaultSplitMaxLevel.
	SplitMaxLevel int
	// RootSegments are fixed leading breadcrumb segments, typically the
	// source document's name. Heading updates never remove them.
	RootSegments []string
}

// Splitter converts a stream of markdown lines into bounded-length chunks.
// Each chunk is emitted as a breadcrumb marker line followed by its content
// lines verbatim, and chunks are separated by a Delimiter line. Feed lines
// one at a time, keeping their trailing newlines, and collect the returned
// output lines; call Flush after the last line. A Splitter serves a single
// document and is not safe for concurrent use.
type Splitter struct {
	maxLen   int
	maxLevel int
	tracker  *PathTracker

	marker string
	lines  []string
	length int

	lastBlank      int
	lastHeading    int
	lastUnindented int

	delimPending bool
}

// New creates a Splitter for one document.
func New(opts Options) *Splitter {
	if opts.MaxChunkLength <= 0 {
		opts.MaxChunkLength = DefaultMaxChunkLength
	}
	if opts.SplitMaxLevel <= 0 {
		opts.SplitMaxLevel = DefaultSplitMaxLevel
	}
	s := &Splitter{
		maxLen:   opts.MaxChunkLength,
		maxLevel: opts.SplitMaxLevel,
		tracker:  NewPathTracker(opts.RootSegments...),
	}
	s.clearCutPoints()
	return s
}

// Feed accepts the next input line and returns whatever output lines
// became available. Output only appears when a chunk closes, so most calls
// return nil.
func (s *Splitter) Feed(line string) []string {
	var out []string

	// A boundary-level heading closes the open chunk and starts the next
	// one itself.
	if level, _, ok := parseHeading(line); ok && level <= s.maxLevel && len(s.lines) > 0 {
		out = s.cut(len(s.lines), out)
	}

	if len(s.lines) == 0 {
		s.marker = s.tracker.Marker(line)
		s.length = utf8.RuneCountInString(s.marker) + 1
	}
	s.tracker.Ingest(line)
	s.push(line)

	// An over-budget chunk is cut repeatedly; each round rescans the
	// retained tail, so even a pathologically long chunk settles.
	for s.length >= s.maxLen {
		n := s.cutPoint()
		if n == 0 {
			// No usable cut point: the whole chunk goes out, over budget.
			// A single very long line is never subdivided.
			n = len(s.lines)
		}
		out = s.cut(n, out)
	}
	return out
}

// Flush ends the input and returns the final chunk's output lines. The
// final chunk carries no trailing delimiter; a splitter with nothing
// buffered returns nil.
func (s *Splitter) Flush() []string {
	if len(s.lines) == 0 {
		return nil
	}
	out := s.emit(nil, len(s.lines))
	s.lines = nil
	s.length = 0
	return out
}

// emit appends the pending delimiter, the marker line, and the first n
// buffered lines to out. The delimiter belongs to the previously closed
// chunk and is written only here, once a next chunk materializes, which
// keeps the delimiter count at one below the chunk count.
func (s *Splitter) emit(out []string, n int) []string {
	if s.delimPending {
		out = append(out, Delimiter+"\n")
	}
	out = append(out, s.marker+"\n")
	out = append(out, s.lines[:n]...)
	s.delimPending = true
	return out
}

// cut closes the first n buffered lines as a finished chunk and keeps the
// rest as the start of the next one. The remainder's marker and cut-point
// bookkeeping are recomputed by rescanning the retained lines.
func (s *Splitter) cut(n int, out []string) []string {
	out = s.emit(out, n)
	s.lines = s.lines[n:]
	s.clearCutPoints()
	if len(s.lines) == 0 {
		s.marker = ""
		s.length = 0
		return out
	}
	s.marker = s.tracker.Marker(s.lines[0])
	s.length = utf8.RuneCountInString(s.marker) + 1
	for i, line := range s.lines {
		s.length += utf8.RuneCountInString(line)
		s.observe(i, line)
	}
	return out
}

// cutPoint picks where an over-budget chunk is cut: before the most recent
// boundary-level heading, else just after the most recent blank line, else
// before the most recent unindented line. Zero means no cut point exists.
func (s *Splitter) cutPoint() int {
	switch {
	case s.lastHeading > 0:
		return s.lastHeading
	case s.lastBlank >= 0:
		return s.lastBlank + 1
	case s.lastUnindented > 0:
		return s.lastUnindented
	}
	return 0
}

// push appends a content line and records it in the cut-point bookkeeping.
func (s *Splitter) push(line string) {
	s.observe(len(s.lines), line)
	s.lines = append(s.lines, line)
	s.length += utf8.RuneCountInString(line)
}

// observe updates the cut-point indices for the line at position i. The
// first line is excluded from the heading and unindented candidates:
// cutting before it would leave an empty chunk behind.
func (s *Splitter) observe(i int, line string) {
	if isBlank(line) {
		s.lastBlank = i
		return
	}
	if i == 0 {
		return
	}
	if level, _, ok := parseHeading(line); ok && level <= s.maxLevel {
		s.lastHeading = i
	}
	if startsUnindented(line) {
		s.lastUnindented = i
	}
}

func (s *Splitter) clearCutPoints() {
	s.lastBlank = -1
	s.lastHeading = -1
	s.lastUnindented = -1
}

// Split streams markdown from r through a Splitter and writes the chunked
// output to w. Lines keep their trailing newlines, so the concatenated
// content lines of the output reproduce the input exactly.
func Split(r io.Reader, w io.Writer, opts Options) error {
	s := New(opts)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if werr := writeLines(w, s.Feed(line)); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}
	return writeLines(w, s.Flush())
}

// SplitString splits an in-memory document and returns the chunked output.
func SplitString(input string, opts Options) string {
	var b strings.Builder
	_ = Split(strings.NewReader(input), &b, opts)
	return b.String()
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
