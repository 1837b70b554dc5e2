package markdown

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// alignmentCellRe matches one cell of a table's alignment row after the
// surrounding whitespace is trimmed.
var alignmentCellRe = regexp.MustCompile(`^:?-+:?$`)

// NormalizeTables rewrites every GFM pipe table in a markdown stream as a
// fenced json block holding one object per data row, keyed by the header
// cells in column order:
//
//	| Name | Qty |          ```json
//	| ---- | --- |    ->    {"Name": "bolt", "Qty": "4"}
//	| bolt | 4   |          ```
//
// Cell values stay strings. Rows shorter than the header fill missing
// values with "", extra cells are dropped, and escaped pipes inside cells
// do not split. Everything that is not a table, including table-shaped
// lines inside fenced code blocks, passes through unchanged.
func NormalizeTables(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	lines := splitLines(string(data))
	var b strings.Builder
	inFence := false

	for i := 0; i < len(lines); {
		line := lines[i]
		if isFenceLine(line) {
			inFence = !inFence
			b.WriteString(line)
			i++
			continue
		}
		if inFence || !startsTable(lines, i) {
			b.WriteString(line)
			i++
			continue
		}

		header := splitRow(line)
		j := i + 2
		for j < len(lines) && !isFenceLine(lines[j]) && containsUnescapedPipe(lines[j]) {
			j++
		}
		writeRowObjects(&b, header, lines[i+2:j])
		i = j
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// NormalizeTablesString normalizes an in-memory document.
func NormalizeTablesString(input string) string {
	var b strings.Builder
	_ = NormalizeTables(strings.NewReader(input), &b)
	return b.String()
}

// startsTable reports whether the line at i opens a table: a row with at
// least one cell separator whose following line is an alignment row. A
// header without an alignment row underneath is ordinary text.
func startsTable(lines []string, i int) bool {
	if !containsUnescapedPipe(lines[i]) || i+1 >= len(lines) {
		return false
	}
	next := lines[i+1]
	if isFenceLine(next) || !containsUnescapedPipe(next) {
		return false
	}
	cells := splitRow(next)
	if len(cells) == 0 {
		return false
	}
	for _, cell := range cells {
		if !alignmentCellRe.MatchString(cell) {
			return false
		}
	}
	return true
}

func writeRowObjects(b *strings.Builder, header []string, rows []string) {
	b.WriteString("```json\n")
	for _, row := range rows {
		cells := splitRow(row)
		b.WriteString("{")
		for i, key := range header {
			if i > 0 {
				b.WriteString(", ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			writeJSONString(b, key)
			b.WriteString(": ")
			writeJSONString(b, val)
		}
		b.WriteString("}\n")
	}
	b.WriteString("```\n")
}

func writeJSONString(b *strings.Builder, s string) {
	enc, _ := json.Marshal(s)
	b.Write(enc)
}

// splitRow splits a table row into trimmed cells. A backslash escapes the
// following pipe, keeping it inside the cell; one empty edge cell from a
// leading or trailing pipe is discarded.
func splitRow(line string) []string {
	s := strings.TrimSpace(line)
	var cells []string
	var cur strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			if r != '|' {
				cur.WriteRune('\\')
			}
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteRune('\\')
	}
	cells = append(cells, strings.TrimSpace(cur.String()))

	if len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

func containsUnescapedPipe(line string) bool {
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			return true
		}
	}
	return false
}

func isFenceLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
