package formatter

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"unicode"

	"github.com/AntTheLimey/layercheck/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Pack ---------------------------------------------------------------------

func TestPack(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		budget int
		indent string
		want   string
	}{
		{name: "empty", fields: nil, budget: 10, indent: "  ", want: ""},
		{name: "single", fields: []string{"a"}, budget: 10, indent: "  ", want: "  a"},
		{name: "one_line", fields: []string{"a", "b", "c"}, budget: 100, indent: "  ", want: "  a, b, c"},
		{
			name:   "wraps",
			fields: []string{"aaaa", "bbbb", "cccc"},
			budget: 12,
			indent: "  ",
			want:   "  aaaa,\n  bbbb, cccc",
		},
		{
			name:   "oversized_field_alone",
			fields: []string{"x", strings.Repeat("y", 30), "z"},
			budget: 10,
			indent: "",
			want:   "x,\n" + strings.Repeat("y", 30) + ",\nz",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pack(tt.fields, tt.budget, tt.indent))
		})
	}
}

func randomFields(r *rand.Rand, n int) []string {
	shapes := []string{
		"col_%d",
		"SUM(amount_%d) AS total_%d",
		"COALESCE(a_%d, 'x,y') AS c",
		"CASE WHEN k = %d THEN 'a, b' ELSE NULL END",
		"CAST(v_%d AS DECIMAL(10,2))",
	}
	fields := make([]string, n)
	for i := range fields {
		shape := shapes[r.Intn(len(shapes))]
		k := r.Intn(1000)
		fields[i] = fmt.Sprintf(strings.ReplaceAll(shape, "%d", "%[1]d"), k)
	}
	return fields
}

func TestPackRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, budget := range []int{100000, 80, 40} {
		for n := 1; n <= 40; n += 3 {
			fields := randomFields(r, n)
			packed := Pack(fields, budget, "    ")
			got := scanner.TopLevelSplit(strings.ReplaceAll(packed, "\n", " "), ',')
			assert.Equal(t, fields, got, "budget=%d n=%d", budget, n)
		}
	}
}

func TestPackLineWidth(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for _, budget := range []int{20, 40, 80} {
		for trial := 0; trial < 20; trial++ {
			fields := make([]string, 1+r.Intn(30))
			for i := range fields {
				fields[i] = strings.Repeat("f", 1+r.Intn(30))
			}
			for _, line := range strings.Split(Pack(fields, budget, "  "), "\n") {
				if width(line) > budget {
					assert.Len(t, scanner.TopLevelSplit(line, ','), 1,
						"over-budget line must hold one field: %q", line)
				}
			}
		}
	}
}

// -- SplitOversizedLine -------------------------------------------------------

func TestSplitOversizedLine(t *testing.T) {
	assert.Nil(t, SplitOversizedLine("", 10))
	assert.Equal(t, []string{"short"}, SplitOversizedLine("short", 10))
	assert.Equal(t, []string{"any"}, SplitOversizedLine("any", 0))

	assert.Equal(t,
		[]string{"alpha, ", "beta, ", "gamma ", "delta"},
		SplitOversizedLine("alpha, beta, gamma delta", 10))

	long := strings.Repeat("x", 20)
	assert.Equal(t, []string{"a ", long, " b"}, SplitOversizedLine("a "+long+" b", 5))
}

func TestSplitOversizedLineProperties(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for trial := 0; trial < 50; trial++ {
		line := strings.Join(randomFields(r, 1+r.Intn(60)), ", ")
		budget := 10 + r.Intn(80)
		chunks := SplitOversizedLine(line, budget)
		require.Equal(t, line, strings.Join(chunks, ""))
		for _, c := range chunks {
			if width(c) > budget {
				assert.Len(t, reChunkToken.FindAllString(c, -1), 1, "oversized chunk must be one token: %q", c)
			}
		}
	}
}

func TestSplitOversizedLineCountsCharacters(t *testing.T) {
	line := strings.Repeat("é", 6)
	assert.Equal(t, []string{line}, SplitOversizedLine(line, 6))
}

func TestChunkRows(t *testing.T) {
	rows, err := ChunkRows("a, b, c\n\nlast", 4)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a, b", ", c"}, rows[0])
	assert.Empty(t, rows[1])
	assert.Equal(t, []string{"last"}, rows[2])
}

// -- Thresholds ---------------------------------------------------------------

func TestThresholdsReformat(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name string
		n    int
		raw  string
		want bool
	}{
		{name: "few_short", n: 2, raw: "a, b", want: false},
		{name: "many_short", n: 5, raw: "a, b, c, d, e", want: true},
		{name: "few_wide", n: 2, raw: strings.Repeat("w", 301) + ", b", want: true},
		{name: "few_medium", n: 3, raw: strings.Repeat("m", 250), want: false},
		{name: "two_lines", n: 6, raw: "a, b, c,\n d, e, f", want: false},
		{name: "two_lines_long", n: 6, raw: strings.Repeat("z", 500) + ",\n d, e, f, g, h", want: true},
		{name: "three_lines", n: 6, raw: "a, b,\n c, d,\n e, f", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, th.Reformat(tt.n, tt.raw))
		})
	}
}

// -- FormatSkeleton -----------------------------------------------------------

func fieldNames(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

func TestFormatSkeletonShortUnchanged(t *testing.T) {
	sql := "SELECT a, b FROM t WHERE x=1"
	assert.Equal(t, sql, FormatSkeleton(sql, DefaultOptions()))
}

func TestFormatSkeletonManyFields(t *testing.T) {
	fields := fieldNames("f", 20)
	sql := "SELECT " + strings.Join(fields, ", ") + " FROM t WHERE x=1"

	got := FormatSkeleton(sql, DefaultOptions())
	assert.Equal(t, "SELECT\n  "+strings.Join(fields, ", ")+"\nFROM t WHERE x=1", got)
	assert.True(t, strings.HasSuffix(got, "FROM t WHERE x=1"))

	opts := DefaultOptions()
	opts.Width = 30
	got = FormatSkeleton(sql, opts)
	lines := strings.Split(got, "\n")
	assert.Greater(t, len(lines), 3)
	assert.Equal(t, "SELECT", lines[0])
	assert.Equal(t, "FROM t WHERE x=1", lines[len(lines)-1])
	for _, line := range lines[1 : len(lines)-1] {
		assert.LessOrEqual(t, len(line), 30)
		assert.True(t, strings.HasPrefix(line, "  "))
	}
}

func TestFormatSkeletonSubquery(t *testing.T) {
	cols := strings.Join(fieldNames("c", 6), ", ")
	sql := "SELECT " + cols + " FROM (SELECT " + cols + " FROM t) s"
	want := "SELECT\n  " + cols + "\nFROM (\n  SELECT\n    " + cols + "\n  FROM t) s"
	assert.Equal(t, want, FormatSkeleton(sql, DefaultOptions()))
}

func TestFormatSkeletonSubqueryClosedByParen(t *testing.T) {
	sql := "SELECT * FROM (SELECT a, b, c, d, e) s"
	assert.Equal(t, "SELECT * FROM (\n  SELECT\n    a, b, c, d, e) s", FormatSkeleton(sql, DefaultOptions()))
}

func TestFormatSkeletonIdenticalBlocks(t *testing.T) {
	cols := "c1, c2, c3, c4, c5"
	sql := "SELECT " + cols + " FROM a UNION ALL SELECT " + cols + " FROM b"
	want := "SELECT\n  " + cols + "\nFROM a UNION ALL SELECT\n  " + cols + "\nFROM b"
	assert.Equal(t, want, FormatSkeleton(sql, DefaultOptions()))
}

func TestFormatSkeletonNestedInFieldList(t *testing.T) {
	sql := "SELECT a, b, c, d, (SELECT MAX(x) FROM u) AS m FROM t"
	want := "SELECT\n  a, b, c, d, (SELECT MAX(x) FROM u) AS m\nFROM t"
	assert.Equal(t, want, FormatSkeleton(sql, DefaultOptions()))
}

func TestFormatSkeletonQualifiedKeywordName(t *testing.T) {
	sql := "SELECT a1, a2, a3, a4, a5, a6, t.order, s . limit, b1 FROM t WHERE x=1"
	want := "SELECT\n  a1, a2, a3, a4, a5, a6, t.order, s . limit, b1\nFROM t WHERE x=1"
	assert.Equal(t, want, FormatSkeleton(sql, DefaultOptions()))

	blocks := FindBlocks(sql)
	require.Len(t, blocks, 1)
	assert.Equal(t, " a1, a2, a3, a4, a5, a6, t.order, s . limit, b1 ", blocks[0].Fields.Text(sql))
}

func TestFormatSkeletonEdges(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{name: "quoted_select", sql: "SELECT 'SELECT a, b, c, d, e FROM x' FROM t", want: "SELECT 'SELECT a, b, c, d, e FROM x' FROM t"},
		{name: "distinct", sql: "select  distinct a, b, c, d, e from t", want: "select distinct\n  a, b, c, d, e\nfrom t"},
		{name: "end_of_string", sql: "SELECT a, b, c, d, e", want: "SELECT\n  a, b, c, d, e"},
		{name: "semicolon", sql: "SELECT a, b, c, d, e;", want: "SELECT\n  a, b, c, d, e;"},
		{name: "two_lines", sql: "SELECT a, b, c,\n d, e, f FROM t", want: "SELECT a, b, c,\n d, e, f FROM t"},
		{name: "identifier_with_keyword", sql: "SELECT from_date, a, b, c, d FROM t", want: "SELECT\n  from_date, a, b, c, d\nFROM t"},
		{name: "function_from", sql: "SELECT EXTRACT(YEAR FROM d), a, b, c, e FROM t", want: "SELECT\n  EXTRACT(YEAR FROM d), a, b, c, e\nFROM t"},
		{name: "no_select", sql: "UPDATE t SET a = 1", want: "UPDATE t SET a = 1"},
		{name: "empty", sql: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSkeleton(tt.sql, DefaultOptions()))
		})
	}
}

func TestFormatSkeletonPreservesNonSpace(t *testing.T) {
	sql := `WITH x AS (SELECT id, SUM(amt) AS s, COUNT(*) AS n, MAX(ts) AS m, MIN(ts) AS f FROM o GROUP BY id)
SELECT x.id, x.s, x.n, x.m, x.f, 'a, (b' AS lit FROM x WHERE x.s > 0 ORDER BY x.id`
	strip := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
	}
	got := FormatSkeleton(sql, DefaultOptions())
	assert.NotEqual(t, sql, got)
	assert.Equal(t, strip(sql), strip(got))
	assert.True(t, strings.HasSuffix(got, "FROM x WHERE x.s > 0 ORDER BY x.id"))
}

func TestFindBlocks(t *testing.T) {
	sql := "SELECT a FROM (SELECT b FROM t) s"
	blocks := FindBlocks(sql)
	require.Len(t, blocks, 2)

	assert.False(t, blocks[0].Subquery)
	assert.Equal(t, "SELECT", blocks[0].Header.Text(sql))
	assert.Equal(t, " a ", blocks[0].Fields.Text(sql))
	assert.True(t, blocks[0].Keyword)

	assert.True(t, blocks[1].Subquery)
	assert.Equal(t, strings.Index(sql, "("), blocks[1].Start)
	assert.Equal(t, " b ", blocks[1].Fields.Text(sql))
}
