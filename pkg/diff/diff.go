// Package diff computes line-level diffs between two blob revisions.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineOp classifies one line of a diff.
type LineOp int

const (
	OpEqual  LineOp = iota // line present in both revisions
	OpDelete               // line only in the before revision
	OpInsert               // line only in the after revision
)

// Line is a single diffed line, without its trailing newline.
type Line struct {
	Op   LineOp
	Text string
}

// FileDiff holds the line-level diff for a single file.
type FileDiff struct {
	Path  string
	Lines []Line
}

// Changed reports whether the diff contains any insertion or deletion.
func (fd *FileDiff) Changed() bool {
	for _, l := range fd.Lines {
		if l.Op != OpEqual {
			return true
		}
	}
	return false
}

// Lines computes a line-level diff between before and after. The inputs
// are mapped to per-line runes first so the underlying character diff
// never splits inside a line.
func Lines(path string, before, after []byte) *FileDiff {
	dmp := diffmatchpatch.New()
	beforeRunes, afterRunes, lineArray := dmp.DiffLinesToRunes(string(before), string(after))
	diffs := dmp.DiffMainRunes(beforeRunes, afterRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	fd := &FileDiff{Path: path}
	for _, d := range diffs {
		var op LineOp
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		default:
			op = OpEqual
		}
		for _, text := range splitLines(d.Text) {
			fd.Lines = append(fd.Lines, Line{Op: op, Text: text})
		}
	}
	return fd
}

func splitLines(chunk string) []string {
	chunk = strings.TrimSuffix(chunk, "\n")
	if chunk == "" {
		return nil
	}
	return strings.Split(chunk, "\n")
}
