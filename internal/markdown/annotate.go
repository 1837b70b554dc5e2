package markdown

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// annotateRe matches a heading line at any depth. Unlike chunk splitting,
// annotation does not cap the heading level.
var annotateRe = regexp.MustCompile(`^(#+)\s+(.*)`)

// AnnotateHeadings rewrites every heading line of a markdown stream with a
// data-path attribute recording the heading trail from the document root,
// so "## Install" under "# Guide" becomes
//
//	## Install {data-path="Guide > Install"}
//
// Non-heading lines pass through unchanged. The attribute value joins the
// trail segments with " > " and is not escaped.
func AnnotateHeadings(r io.Reader, w io.Writer) error {
	var stack []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if _, werr := io.WriteString(w, annotateLine(line, &stack)); werr != nil {
				return fmt.Errorf("write output: %w", werr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}
}

// AnnotateHeadingsString annotates an in-memory document.
func AnnotateHeadingsString(input string) string {
	var b strings.Builder
	_ = AnnotateHeadings(strings.NewReader(input), &b)
	return b.String()
}

func annotateLine(line string, stack *[]string) string {
	m := annotateRe.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	level := len(m[1])
	title := strings.TrimSpace(m[2])

	keep := min(level-1, len(*stack))
	*stack = append((*stack)[:keep], title)

	return fmt.Sprintf("%s %s {data-path=\"%s\"}\n", m[1], title, strings.Join(*stack, " > "))
}
