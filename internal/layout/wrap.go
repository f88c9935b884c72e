// Package layout implements client-side text layout for printers whose
// protocol has no word wrap of its own.
package layout

import (
	"strings"

	"github.com/Softbalance/equipment/internal/model"
)

// LineSeparator is used when Wrap is given an empty separator.
const LineSeparator = "\n"

// Wrap breaks s into lines of at most width characters, breaking on single
// spaces. Leading spaces of a new line are dropped. A word longer than width
// stays intact unless wrapLongWords is set, in which case it is split hard at
// the width boundary. Width counts runes, not bytes.
func Wrap(s string, width int, newLine string, wrapLongWords bool) string {
	if s == "" {
		return ""
	}
	if newLine == "" {
		newLine = LineSeparator
	}
	if width < 1 {
		width = 1
	}

	text := []rune(s)
	length := len(text)
	offset := 0
	var sb strings.Builder
	sb.Grow(len(s) + len(s)/width*len(newLine))

	for length-offset > width {
		if text[offset] == ' ' {
			offset++
			continue
		}

		wrapAt := lastSpace(text, offset+width)
		if wrapAt >= offset {
			sb.WriteString(string(text[offset:wrapAt]))
			sb.WriteString(newLine)
			offset = wrapAt + 1
			continue
		}

		if wrapLongWords {
			sb.WriteString(string(text[offset : offset+width]))
			sb.WriteString(newLine)
			offset += width
			continue
		}

		wrapAt = nextSpace(text, offset+width)
		if wrapAt >= 0 {
			sb.WriteString(string(text[offset:wrapAt]))
			sb.WriteString(newLine)
			offset = wrapAt + 1
		} else {
			sb.WriteString(string(text[offset:]))
			offset = length
		}
	}

	sb.WriteString(string(text[offset:]))
	return sb.String()
}

// Lines wraps s when wrap is set and splits the result into printable lines.
// Trailing empty lines are dropped.
func Lines(s string, width int, wrap bool) []string {
	if wrap {
		s = Wrap(s, width, LineSeparator, false)
	}
	lines := strings.Split(s, LineSeparator)
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Align pads text on the left so it appears centered or right aligned in a
// line of width characters. Text that does not fit is returned unchanged.
func Align(text string, alignment model.Alignment, width int) string {
	n := len([]rune(text))
	if n > width {
		return text
	}
	switch alignment {
	case model.AlignCenter:
		return padStart(text, n, n+(width-n)/2)
	case model.AlignRight:
		return padStart(text, n, width)
	default:
		return text
	}
}

func padStart(text string, n, size int) string {
	if size <= n {
		return text
	}
	return strings.Repeat(" ", size-n) + text
}

// lastSpace returns the index of the last space at or before from, or -1.
func lastSpace(text []rune, from int) int {
	if from >= len(text) {
		from = len(text) - 1
	}
	for i := from; i >= 0; i-- {
		if text[i] == ' ' {
			return i
		}
	}
	return -1
}

// nextSpace returns the index of the first space at or after from, or -1.
func nextSpace(text []rune, from int) int {
	for i := from; i < len(text); i++ {
		if text[i] == ' ' {
			return i
		}
	}
	return -1
}
