package splitter

import "strings"

// PathTracker maintains the stack of active heading titles for one
// document. Root segments are fixed leading path components (typically the
// source document's name) that heading updates never remove.
type PathTracker struct {
	root     []string
	segments []string
}

// NewPathTracker creates a tracker whose breadcrumbs begin with the given
// root segments.
func NewPathTracker(root ...string) *PathTracker {
	return &PathTracker{root: root}
}

// Ingest updates the heading stack when line is a markdown heading. A
// level L heading discards level L and everything deeper before taking its
// slot, so the stack always reads root-to-leaf. Skipped levels are not
// filled in: an H3 directly under an H1 yields a two-segment path.
// Non-heading lines are no-ops.
func (t *PathTracker) Ingest(line string) {
	level, title, ok := parseHeading(line)
	if !ok {
		return
	}
	keep := min(level-1, len(t.segments))
	t.segments = append(t.segments[:keep], title)
}

// Marker renders the breadcrumb marker for a chunk whose first line is
// first. When first is itself a heading, its title terminates the rendered
// path so the chunk is filed under its own heading. The tracker state is
// left untouched; repeat calls return identical strings.
func (t *PathTracker) Marker(first string) string {
	segments := t.segments
	if level, title, ok := parseHeading(first); ok {
		keep := min(level-1, len(t.segments))
		segments = make([]string, 0, keep+1)
		segments = append(segments, t.segments[:keep]...)
		segments = append(segments, title)
	}

	quoted := make([]string, 0, len(t.root)+len(segments))
	for _, seg := range t.root {
		quoted = append(quoted, quoteSegment(seg))
	}
	for _, seg := range segments {
		quoted = append(quoted, quoteSegment(seg))
	}
	// An empty path renders with an empty right-hand side.
	return "{ data-path = " + strings.Join(quoted, " > ") + " }"
}

// quoteSegment escapes backslashes and double quotes, trims surrounding
// whitespace, and wraps the segment in double quotes.
func quoteSegment(seg string) string {
	seg = strings.ReplaceAll(seg, `\`, `\\`)
	seg = strings.ReplaceAll(seg, `"`, `\"`)
	return `"` + strings.TrimSpace(seg) + `"`
}
