package formatter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/AntTheLimey/layercheck/internal/scanner"
)

var (
	reSelectKw   = regexp.MustCompile(`(?i)\bSELECT\b`)
	reSelectHead = regexp.MustCompile(`(?i)^SELECT(?:\s+(?:DISTINCT|ALL)\b)?`)
	reFieldsEnd  = regexp.MustCompile(`(?i)^(?:FROM|UNION|MINUS|EXCEPT|INTERSECT|WHERE|GROUP|ORDER|HAVING|LIMIT)\b`)
)

// Thresholds decide whether a field list is worth reformatting.
type Thresholds struct {
	MinFields    int `mapstructure:"min_fields" yaml:"min_fields"`
	WideChars    int `mapstructure:"wide_chars" yaml:"wide_chars"`
	ShortChars   int `mapstructure:"short_chars" yaml:"short_chars"`
	TwoLineChars int `mapstructure:"two_line_chars" yaml:"two_line_chars"`
}

// DefaultThresholds returns the stock reformat thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{MinFields: 4, WideChars: 300, ShortChars: 200, TwoLineChars: 500}
}

// Reformat reports whether a field list of n fields with the given raw text
// should be repacked. Lists of at most MinFields fields shorter than
// ShortChars, and lists already on two lines shorter than TwoLineChars, are
// left alone; otherwise more than MinFields fields or more than WideChars
// characters triggers a repack.
func (th Thresholds) Reformat(n int, raw string) bool {
	raw = strings.TrimSpace(raw)
	w := width(raw)
	if n <= th.MinFields && w < th.ShortChars {
		return false
	}
	if strings.Count(raw, "\n") == 1 && w < th.TwoLineChars {
		return false
	}
	return n > th.MinFields || w > th.WideChars
}

// Options configures FormatSkeleton.
type Options struct {
	Width      int
	Indent     string
	Thresholds Thresholds
}

// DefaultOptions uses the readable width, two-space indent and the stock
// thresholds.
func DefaultOptions() Options {
	return Options{Width: ReadableWidth, Indent: DefaultIndent, Thresholds: DefaultThresholds()}
}

// Block is one SELECT field list located in a query.
type Block struct {
	Start    int          // first byte replaced: the SELECT keyword, or "(" for a subquery
	Header   scanner.Span // SELECT plus an optional DISTINCT or ALL
	Fields   scanner.Span // raw field-list text, up to the terminator
	Subquery bool         // SELECT directly follows an unquoted "("
	Keyword  bool         // the list is terminated by a clause keyword
}

// FindBlocks locates every SELECT field list outside quotes, in order of
// Start. A list ends at the first FROM, UNION, MINUS, EXCEPT, INTERSECT,
// WHERE, GROUP, ORDER, HAVING or LIMIT at the SELECT's own depth, at a ")"
// closing the enclosing parenthesis, at ";" or at the end of the text.
func FindBlocks(sql string) []Block {
	depth := make([]int, len(sql))
	quoted := make([]bool, len(sql))
	scanner.Walk(sql, func(i int, _ byte, st scanner.State) bool {
		depth[i] = st.Depth
		quoted[i] = st.Quoted()
		return true
	})
	nested := scanner.HasNestedSelect(sql)

	var blocks []Block
	for _, loc := range reSelectKw.FindAllStringIndex(sql, -1) {
		at := loc[0]
		if quoted[at] {
			continue
		}
		head := reSelectHead.FindStringIndex(sql[at:])
		b := Block{
			Start:  at,
			Header: scanner.Span{Start: at, End: at + head[1]},
		}
		if nested {
			if open := precedingParen(sql, at, quoted); open >= 0 {
				b.Start = open
				b.Subquery = true
			}
		}

		end, keyword := fieldsEnd(sql, b.Header.End, depth[at], depth, quoted)
		b.Fields = scanner.Span{Start: b.Header.End, End: end}
		b.Keyword = keyword
		if strings.TrimSpace(b.Fields.Text(sql)) == "" {
			continue
		}
		blocks = append(blocks, b)
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
	return blocks
}

// precedingParen returns the index of an unquoted "(" that precedes at with
// only whitespace between, or -1.
func precedingParen(sql string, at int, quoted []bool) int {
	i := at - 1
	for i >= 0 && isSpace(sql[i]) {
		i--
	}
	if i >= 0 && sql[i] == '(' && !quoted[i] {
		return i
	}
	return -1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// fieldsEnd scans from start for the end of a field list opened at depth d.
func fieldsEnd(sql string, start, d int, depth []int, quoted []bool) (int, bool) {
	for i := start; i < len(sql); i++ {
		if quoted[i] || depth[i] != d {
			continue
		}
		switch sql[i] {
		case ')', ';':
			return i, false
		}
		if (i == 0 || !isWordByte(sql[i-1])) && !afterDot(sql, i) && reFieldsEnd.MatchString(sql[i:]) {
			return i, true
		}
	}
	return len(sql), false
}

// afterDot reports whether the last non-space byte before i is ".", as in a
// qualified name like t.order.
func afterDot(sql string, i int) bool {
	j := i - 1
	for j >= 0 && isSpace(sql[j]) {
		j--
	}
	return j >= 0 && sql[j] == '.'
}

// FormatSkeleton repacks the field lists of sql that pass the reformat
// thresholds and leaves every other byte untouched. Replacements are made by
// byte span, so textually identical blocks are handled independently. When a
// block is repacked, SELECT blocks nested inside its field list are left as
// they are.
func FormatSkeleton(sql string, opts Options) string {
	if opts.Indent == "" {
		opts.Indent = DefaultIndent
	}
	if opts.Width <= 0 {
		opts.Width = ReadableWidth
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}

	var b strings.Builder
	pos := 0
	for _, blk := range FindBlocks(sql) {
		if blk.Start < pos {
			continue
		}
		raw := blk.Fields.Text(sql)
		fields := scanner.TopLevelSplit(raw, ',')
		if !opts.Thresholds.Reformat(len(fields), raw) {
			continue
		}

		b.WriteString(sql[pos:blk.Start])
		b.WriteString(renderBlock(sql, blk, fields, opts))
		pos = blk.Fields.End
	}
	if pos == 0 {
		return sql
	}
	b.WriteString(sql[pos:])
	return b.String()
}

func renderBlock(sql string, blk Block, fields []string, opts Options) string {
	header := strings.Join(strings.Fields(blk.Header.Text(sql)), " ")

	var b strings.Builder
	if blk.Subquery {
		b.WriteString("(\n")
		b.WriteString(opts.Indent)
		b.WriteString(header)
		b.WriteByte('\n')
		b.WriteString(Pack(fields, opts.Width, opts.Indent+opts.Indent))
		if blk.Keyword {
			b.WriteByte('\n')
			b.WriteString(opts.Indent)
		}
		return b.String()
	}

	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(Pack(fields, opts.Width, opts.Indent))
	if blk.Keyword {
		b.WriteByte('\n')
	}
	return b.String()
}
