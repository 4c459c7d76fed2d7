package diff

import (
	"fmt"
	"strings"
)

// contextLines is the number of unchanged lines shown around each change
// in formatted output.
const contextLines = 3

// Format renders a FileDiff in a unified-style text form with a
// two-line header and +/- prefixed change lines. Unchanged runs longer
// than twice the context window are elided with a separator.
func Format(fd *FileDiff) string {
	if fd == nil || !fd.Changed() {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n", fd.Path)
	fmt.Fprintf(&b, "+++ b/%s\n", fd.Path)

	keep := keepMask(fd.Lines)
	elided := false
	for i, l := range fd.Lines {
		if !keep[i] {
			if !elided {
				b.WriteString("@@\n")
				elided = true
			}
			continue
		}
		elided = false

		switch l.Op {
		case OpDelete:
			b.WriteString("-")
		case OpInsert:
			b.WriteString("+")
		default:
			b.WriteString(" ")
		}
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// keepMask marks changed lines and their surrounding context.
func keepMask(lines []Line) []bool {
	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.Op == OpEqual {
			continue
		}
		lo := i - contextLines
		if lo < 0 {
			lo = 0
		}
		hi := i + contextLines
		if hi > len(lines)-1 {
			hi = len(lines) - 1
		}
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}
	return keep
}
