// Package formatter lays out SQL field lists under a character budget and
// splits long lines into spreadsheet-sized chunks.
package formatter

import (
	"bufio"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// ReadableWidth is the line budget for display output.
	ReadableWidth = 20000
	// SpreadsheetCellLimit is the maximum number of characters in one cell.
	SpreadsheetCellLimit = 32767
	// DefaultIndent prefixes packed field lines.
	DefaultIndent = "  "
)

var reChunkToken = regexp.MustCompile(`[^\s,]+|,\s*|\s+`)

// width counts characters, not bytes.
func width(s string) int {
	return utf8.RuneCountInString(s)
}

// Pack lays fields out greedily, left to right, joined by ", ". Every field
// but the last carries a trailing comma. A line is flushed when the next field
// would push it past budget (indent included); a field that is too wide on its
// own gets a line to itself and is never truncated. Each line starts with
// indent and lines are separated by "\n".
func Pack(fields []string, budget int, indent string) string {
	if len(fields) == 0 {
		return ""
	}
	limit := budget - width(indent)

	var lines []string
	var buf strings.Builder
	bufWidth := 0
	for i, f := range fields {
		item := f
		if i < len(fields)-1 {
			item += ","
		}
		itemWidth := width(item)

		if bufWidth > 0 && bufWidth+1+itemWidth > limit {
			lines = append(lines, indent+buf.String())
			buf.Reset()
			bufWidth = 0
		}
		if bufWidth > 0 {
			buf.WriteByte(' ')
			bufWidth++
		}
		buf.WriteString(item)
		bufWidth += itemWidth
	}
	lines = append(lines, indent+buf.String())
	return strings.Join(lines, "\n")
}

// SplitOversizedLine cuts line into chunks of at most budget characters. The
// line is tokenised into words, comma runs and whitespace runs, and chunks
// break only between tokens, so a single token longer than budget becomes its
// own oversized chunk. Joining the chunks gives back line exactly.
func SplitOversizedLine(line string, budget int) []string {
	if line == "" {
		return nil
	}
	if budget < 1 || width(line) <= budget {
		return []string{line}
	}

	var chunks []string
	var buf strings.Builder
	bufWidth := 0
	for _, tok := range reChunkToken.FindAllString(line, -1) {
		tw := width(tok)
		if bufWidth > 0 && bufWidth+tw > budget {
			chunks = append(chunks, buf.String())
			buf.Reset()
			bufWidth = 0
		}
		buf.WriteString(tok)
		bufWidth += tw
	}
	if bufWidth > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

// ChunkRows splits text into lines and each line into cell-sized chunks.
// Empty lines produce empty rows.
func ChunkRows(text string, budget int) ([][]string, error) {
	var rows [][]string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		rows = append(rows, SplitOversizedLine(sc.Text(), budget))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
