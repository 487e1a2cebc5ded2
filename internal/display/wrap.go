package display

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// Width is the terminal width all output is wrapped to.
const Width = 80

// Wrap word-wraps text to Width, preserving ANSI escape sequences.
func Wrap(text string) string {
	return wordwrap.String(text, Width)
}

// List joins items with commas and wraps the result.
func List(items []string) string {
	return Wrap(strings.Join(items, ", "))
}

// Hanging wraps text after label so continuation lines line up under the
// first word of text.
func Hanging(label, text string) string {
	pad := utf8.RuneCountInString(label)
	if pad >= Width/2 {
		return Wrap(label + text)
	}

	wrapped := wordwrap.String(text, Width-pad)
	first, rest, found := strings.Cut(wrapped, "\n")
	if !found {
		return label + first
	}
	return label + first + "\n" + indent.String(rest, uint(pad))
}

// Capitalize returns s with its first letter uppercased.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
