package mython

import (
	"fmt"
	"strconv"
	"strings"
)

// formatCodeFrame renders the offending source line with a caret under the
// reported column. Returns "" when the position does not land in the source.
func formatCodeFrame(source string, pos Position) string {
	if source == "" || pos.Line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if pos.Line > len(lines) {
		return ""
	}

	lineText := lines[pos.Line-1]
	column := pos.Column
	if column <= 0 {
		column = 1
	}
	if width := len([]rune(lineText)); column > width+1 {
		column = width + 1
	}

	label := strconv.Itoa(pos.Line)
	return fmt.Sprintf(
		"  --> line %d, column %d\n %s | %s\n %s | %s^",
		pos.Line,
		column,
		label,
		lineText,
		strings.Repeat(" ", len(label)),
		strings.Repeat(" ", column-1),
	)
}
