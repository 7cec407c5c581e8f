// Package scanner provides quote-aware, parenthesis-aware scanning primitives
// shared by the DDL parser and the SQL field formatter.
package scanner

import (
	"regexp"
	"strings"
)

// Span is a half-open byte range [Start, End) into the scanned text.
type Span struct {
	Start int
	End   int
}

// Text returns the substring of s covered by the span.
func (sp Span) Text(s string) string {
	return s[sp.Start:sp.End]
}

// Len returns the span length in bytes.
func (sp Span) Len() int {
	return sp.End - sp.Start
}

// State is the scan state at a byte offset.
type State struct {
	Depth int  // parenthesis depth before the byte is applied
	Quote byte // open quote character, 0 when not quoted
}

// Quoted reports whether the position lies inside a quoted span.
func (s State) Quoted() bool {
	return s.Quote != 0
}

// TopLevel reports whether the position is outside quotes and parentheses.
func (s State) TopLevel() bool {
	return s.Quote == 0 && s.Depth == 0
}

// Walk visits every byte of text with the state in effect before that byte is
// applied. A quote toggles only on an unescaped quote character matching the
// open quote; parentheses inside quotes are ignored. Returning false from
// visit stops the walk.
func Walk(text string, visit func(i int, ch byte, st State) bool) {
	var st State
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if !visit(i, ch, st) {
			return
		}
		switch {
		case st.Quote != 0:
			if ch == st.Quote && !escaped(text, i) {
				st.Quote = 0
			}
		case ch == '\'' || ch == '"':
			st.Quote = ch
		case ch == '(':
			st.Depth++
		case ch == ')':
			st.Depth--
		}
	}
}

// escaped reports whether text[i] is preceded by an odd run of backslashes.
func escaped(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// TopLevelSpans splits text on delim at depth 0 outside quotes and returns the
// raw segment spans. The summed span lengths plus the number of delimiters
// always equals len(text).
func TopLevelSpans(text string, delim byte) []Span {
	var spans []Span
	start := 0
	Walk(text, func(i int, ch byte, st State) bool {
		if ch == delim && st.TopLevel() {
			spans = append(spans, Span{Start: start, End: i})
			start = i + 1
		}
		return true
	})
	return append(spans, Span{Start: start, End: len(text)})
}

// TopLevelSplit splits text on delim at depth 0 outside quotes. Segments are
// trimmed and empty segments are dropped.
func TopLevelSplit(text string, delim byte) []string {
	var parts []string
	for _, sp := range TopLevelSpans(text, delim) {
		if part := strings.TrimSpace(sp.Text(text)); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// HasUnbalancedParens reports whether the final parenthesis depth of text is
// non-zero.
func HasUnbalancedParens(text string) bool {
	depth := 0
	Walk(text, func(i int, ch byte, st State) bool {
		if st.Quoted() {
			return true
		}
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		}
		return true
	})
	return depth != 0
}

var reLeadingSelect = regexp.MustCompile(`(?i)^\s*SELECT\b`)

// HasNestedSelect reports whether an unquoted "(" is followed, after optional
// whitespace, by the keyword SELECT.
func HasNestedSelect(text string) bool {
	found := false
	Walk(text, func(i int, ch byte, st State) bool {
		if ch == '(' && !st.Quoted() && reLeadingSelect.MatchString(text[i+1:]) {
			found = true
			return false
		}
		return true
	})
	return found
}

// MatchingParen returns the index of the ")" closing the "(" at open, or -1
// when text[open] is not "(" or the parenthesis is never closed.
func MatchingParen(text string, open int) int {
	if open < 0 || open >= len(text) || text[open] != '(' {
		return -1
	}
	sub := text[open:]
	closeAt := -1
	Walk(sub, func(i int, ch byte, st State) bool {
		if ch == ')' && !st.Quoted() && st.Depth == 1 {
			closeAt = open + i
			return false
		}
		return true
	})
	return closeAt
}

// IndexTopLevel returns the index of the first delim at depth 0 outside
// quotes, or -1.
func IndexTopLevel(text string, delim byte) int {
	at := -1
	Walk(text, func(i int, ch byte, st State) bool {
		if ch == delim && st.TopLevel() {
			at = i
			return false
		}
		return true
	})
	return at
}

// StripComments removes "--" line comments and "/* */" block comments that
// appear outside quotes. Line breaks ending a line comment are kept and a
// block comment is replaced by a single space.
func StripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	var quote byte
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			if ch == quote && !escaped(text, i) {
				quote = 0
			}
			b.WriteByte(ch)
			continue
		}
		switch {
		case ch == '\'' || ch == '"':
			quote = ch
		case strings.HasPrefix(text[i:], "--"):
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				return b.String()
			}
			i += end - 1
			continue
		case strings.HasPrefix(text[i:], "/*"):
			end := strings.Index(text[i+2:], "*/")
			b.WriteByte(' ')
			if end < 0 {
				return b.String()
			}
			i += 2 + end + 1
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
