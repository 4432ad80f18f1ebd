// Package diff computes line-level differences between two revisions of a text.
package diff

import (
	"strings"
	"unicode/utf8"

	"github.com/naka-gawa/wiki-edit-report/internal/domain"
	"github.com/pmezard/go-difflib/difflib"
)

// Op classifies a line of a diff.
type Op int

const (
	OpInsert Op = iota
	OpDelete
)

// Line is one inserted or deleted line. Unchanged lines are never emitted.
type Line struct {
	Op   Op
	Text string
}

// String returns the line prefixed with its sign.
func (l Line) String() string {
	if l.Op == OpInsert {
		return "+" + l.Text
	}
	return "-" + l.Text
}

// Lines aligns the lines of oldText and newText and returns the inserted and
// deleted lines in emission order. Within a replaced block the most similar
// pair of lines is emitted side by side and the lines around it are aligned
// recursively; with no similar pair the shorter side comes first.
func Lines(oldText, newText string) []Line {
	a, b := SplitLines(oldText), SplitLines(newText)
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	d := &differ{chars: difflib.NewMatcher(nil, nil)}
	m := difflib.NewMatcher(a, b)
	for _, c := range m.GetOpCodes() {
		switch c.Tag {
		case 'd':
			d.dump(OpDelete, a[c.I1:c.I2])
		case 'i':
			d.dump(OpInsert, b[c.J1:c.J2])
		case 'r':
			d.fancyReplace(a, c.I1, c.I2, b, c.J1, c.J2)
		}
	}
	return d.out
}

// Lines scoring above similarCutoff are paired inside a replaced block.
const (
	similarFloor  = 0.74
	similarCutoff = 0.75
)

type differ struct {
	out []Line
	// chars compares two lines character by character.
	chars *difflib.SequenceMatcher
}

func (d *differ) dump(op Op, lines []string) {
	for _, l := range lines {
		d.out = append(d.out, Line{Op: op, Text: l})
	}
}

func (d *differ) plainReplace(a []string, alo, ahi int, b []string, blo, bhi int) {
	if bhi-blo < ahi-alo {
		d.dump(OpInsert, b[blo:bhi])
		d.dump(OpDelete, a[alo:ahi])
		return
	}
	d.dump(OpDelete, a[alo:ahi])
	d.dump(OpInsert, b[blo:bhi])
}

// fancyReplace synchronizes a replaced block on its most similar line pair.
// An identical pair is only used when no similar pair exists and is treated
// as unchanged.
func (d *differ) fancyReplace(a []string, alo, ahi int, b []string, blo, bhi int) {
	aChars := make([][]string, ahi-alo)
	for i := alo; i < ahi; i++ {
		aChars[i-alo] = strings.Split(a[i], "")
	}

	bestRatio, bestI, bestJ := similarFloor, -1, -1
	eqI, eqJ := -1, -1
	for j := blo; j < bhi; j++ {
		d.chars.SetSeq2(strings.Split(b[j], ""))
		for i := alo; i < ahi; i++ {
			if a[i] == b[j] {
				if eqI < 0 {
					eqI, eqJ = i, j
				}
				continue
			}
			d.chars.SetSeq1(aChars[i-alo])
			if d.chars.RealQuickRatio() <= bestRatio || d.chars.QuickRatio() <= bestRatio {
				continue
			}
			if r := d.chars.Ratio(); r > bestRatio {
				bestRatio, bestI, bestJ = r, i, j
			}
		}
	}

	identical := false
	if bestRatio < similarCutoff {
		if eqI < 0 {
			d.plainReplace(a, alo, ahi, b, blo, bhi)
			return
		}
		bestI, bestJ, identical = eqI, eqJ, true
	}

	d.fancyHelper(a, alo, bestI, b, blo, bestJ)
	if !identical {
		d.out = append(d.out, Line{Op: OpDelete, Text: a[bestI]}, Line{Op: OpInsert, Text: b[bestJ]})
	}
	d.fancyHelper(a, bestI+1, ahi, b, bestJ+1, bhi)
}

func (d *differ) fancyHelper(a []string, alo, ahi int, b []string, blo, bhi int) {
	switch {
	case alo < ahi && blo < bhi:
		d.fancyReplace(a, alo, ahi, b, blo, bhi)
	case alo < ahi:
		d.dump(OpDelete, a[alo:ahi])
	case blo < bhi:
		d.dump(OpInsert, b[blo:bhi])
	}
}

// Compute returns the character deltas and signed diff text from oldText to newText.
// Counts are in characters (runes) and exclude the sign prefix.
func Compute(oldText, newText string) domain.Changes {
	var c domain.Changes
	lines := Lines(oldText, newText)
	rendered := make([]string, 0, len(lines))
	for _, l := range lines {
		n := utf8.RuneCountInString(l.Text)
		if l.Op == OpInsert {
			c.Added += n
		} else {
			c.Removed += n
		}
		rendered = append(rendered, l.String())
	}
	c.Diff = strings.Join(rendered, "\n")
	return c
}

// SplitLines splits s on line boundaries (\n, \r\n or \r) without keeping
// the terminators. A trailing terminator does not produce an empty final line,
// and the empty string has no lines.
func SplitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			i++
		}
		s = s[i+1:]
	}
	return lines
}
