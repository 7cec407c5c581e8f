package reporter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AntTheLimey/layercheck/internal/models"
)

// -- Test helpers -------------------------------------------------------------

func baseReport() *models.ImportReport {
	return &models.ImportReport{
		Source:    "sales.sql",
		Timestamp: time.Date(2026, 1, 27, 12, 0, 0, 0, time.UTC),
	}
}

func sampleReport() *models.ImportReport {
	r := baseReport()
	r.Statements = 3
	r.Tables = []models.ParsedTable{
		{
			Schema: "ddv_sales", Name: "orders", Layer: models.LayerDDV,
			Columns: models.TableStructure{
				{Name: "id", DeclaredType: "INT", AggregateRole: models.RoleCount, TargetName: "id"},
				{Name: "amt", DeclaredType: "DECIMAL(10,2)", AggregateRole: models.RoleSum, TargetName: "amount", Nullable: true},
			},
		},
		{
			Schema: "edv_sales", Name: "orders", Layer: models.LayerEDV,
			Columns: models.TableStructure{
				{Name: "id", DeclaredType: "INT", AggregateRole: models.RoleCount, TargetName: "id"},
			},
			Skipped: []models.SkippedDefinition{{Text: "oops", Reason: "fewer than two tokens"}},
		},
	}
	r.Failures = []models.StatementFailure{
		{Source: "sales.sql", Index: 2, Table: "ddv_sales.broken", Error: "statement 3 (ddv_sales.broken): no column definition body found"},
	}

	// CRITICAL finding
	r.Results = append(r.Results, models.CheckResult{
		CheckName:   "target_collisions",
		Category:    "renames",
		Description: "Columns sharing a target name after renames",
		Findings: []models.Finding{{
			Severity:    models.SeverityCritical,
			CheckName:   "target_collisions",
			Category:    "renames",
			Title:       "Columns a, b of 'ddv_sales.orders' all map to 'b'",
			Detail:      "After renames, 2 columns share the target name 'b'.",
			ObjectName:  "ddv_sales.orders.b",
			Remediation: "Give each column a distinct target name in the rename map.",
		}},
	})

	// WARNING finding
	r.Results = append(r.Results, models.CheckResult{
		CheckName:   "duplicate_columns",
		Category:    "columns",
		Description: "Columns declared more than once",
		Findings: []models.Finding{{
			Severity:    models.SeverityWarning,
			CheckName:   "duplicate_columns",
			Category:    "columns",
			Title:       "Column 'id' declared more than once in 'ddv_sales.orders'",
			Detail:      "Both definitions are kept.",
			ObjectName:  "ddv_sales.orders.id",
			Remediation: "Remove the repeated definition.",
		}},
	})

	// CONSIDER finding
	r.Results = append(r.Results, models.CheckResult{
		CheckName:   "no_measure_columns",
		Category:    "columns",
		Description: "Tables without measure columns",
		Findings: []models.Finding{{
			Severity:    models.SeverityConsider,
			CheckName:   "no_measure_columns",
			Category:    "columns",
			Title:       "Table 'edv_sales.orders' has no measure columns",
			Detail:      "Every column is compared by COUNT only.",
			ObjectName:  "edv_sales.orders",
			Remediation: "Add types to parser.measure_types.",
		}},
	})

	// INFO finding (no remediation)
	r.Results = append(r.Results, models.CheckResult{
		CheckName:   "skipped_definitions",
		Category:    "columns",
		Description: "Column definitions that could not be read",
		Findings: []models.Finding{{
			Severity:   models.SeverityInfo,
			CheckName:  "skipped_definitions",
			Category:   "columns",
			Title:      "Definition in 'edv_sales.orders' skipped: fewer than two tokens",
			Detail:     `The definition "oops" could not be read as a column.`,
			ObjectName: "edv_sales.orders",
		}},
	})

	// Passing check (no findings)
	r.Results = append(r.Results, models.CheckResult{
		CheckName:   "unknown_schema",
		Category:    "layers",
		Description: "Tables without a schema qualifier",
	})

	// Errored check
	r.Results = append(r.Results, models.CheckResult{
		CheckName:   "unclassified_layer",
		Category:    "layers",
		Description: "Schemas matching neither DDV nor EDV",
		Error:       "panic: runtime error: index out of range",
	})

	// Skipped check
	r.Results = append(r.Results, models.CheckResult{
		CheckName:   "unmatched_renames",
		Category:    "renames",
		Description: "Rename entries matching no column",
		Skipped:     true,
		SkipReason:  "No rename map supplied",
	})

	return r
}

func makeReportWithSeverities(severities ...models.Severity) *models.ImportReport {
	r := baseReport()
	r.Statements = 1
	r.Tables = []models.ParsedTable{{Schema: "ddv", Name: "t", Columns: models.TableStructure{{Name: "a", TargetName: "a"}}}}
	for i, sev := range severities {
		r.Results = append(r.Results, models.CheckResult{
			CheckName:   fmt.Sprintf("check_%d", i),
			Category:    "columns",
			Description: fmt.Sprintf("Check %d", i),
			Findings: []models.Finding{{
				Severity:    sev,
				CheckName:   fmt.Sprintf("check_%d", i),
				Category:    "columns",
				Title:       "Test finding",
				Detail:      "Test detail",
				Remediation: "Fix it.",
			}},
		})
	}
	return r
}

var reANSI = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// -- Render -------------------------------------------------------------------

func TestRenderDispatch(t *testing.T) {
	for _, format := range Formats {
		out, err := Render(sampleReport(), format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, out, format)
	}
	_, err := Render(sampleReport(), "pdf")
	assert.EqualError(t, err, "unknown format: pdf")
}

// -- JSON Reporter ------------------------------------------------------------

func decodeJSON(t *testing.T, r *models.ImportReport) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(RenderJSON(r)), &data))
	return data
}

func TestJSONHasRequiredKeys(t *testing.T) {
	data := decodeJSON(t, sampleReport())
	for _, key := range []string{"meta", "summary", "tables", "failures", "results"} {
		assert.Contains(t, data, key)
	}
}

func TestJSONSummaryCounts(t *testing.T) {
	s := decodeJSON(t, sampleReport())["summary"].(map[string]any)
	want := map[string]float64{
		"statements":    3,
		"tables":        2,
		"columns":       3,
		"failures":      1,
		"critical":      1,
		"warnings":      1,
		"consider":      1,
		"info":          1,
		"total_checks":  7,
		"checks_passed": 1,
	}
	for k, v := range want {
		assert.Equal(t, v, s[k], k)
	}
}

func TestJSONResults(t *testing.T) {
	results := decodeJSON(t, sampleReport())["results"].([]any)
	require.Len(t, results, 7)

	first := results[0].(map[string]any)
	assert.Equal(t, "target_collisions", first["check_name"])
	assert.Equal(t, false, first["passed"])
	f := first["findings"].([]any)[0].(map[string]any)
	assert.Equal(t, "CRITICAL", f["severity"])
	assert.Equal(t, "ddv_sales.orders.b", f["object_name"])
	assert.Equal(t, map[string]any{}, f["metadata"])

	passing := results[4].(map[string]any)
	assert.Equal(t, true, passing["passed"])
	assert.Nil(t, passing["error"])

	errored := results[5].(map[string]any)
	assert.Contains(t, errored["error"], "index out of range")

	skipped := results[6].(map[string]any)
	assert.Equal(t, true, skipped["skipped"])
	assert.Equal(t, false, skipped["passed"])
	assert.Equal(t, "No rename map supplied", skipped["skip_reason"])
}

func TestJSONTables(t *testing.T) {
	tables := decodeJSON(t, sampleReport())["tables"].([]any)
	require.Len(t, tables, 2)
	ddv := tables[0].(map[string]any)
	assert.Equal(t, "ddv_sales", ddv["schema"])
	assert.Equal(t, "ddv", ddv["layer"])
	cols := ddv["columns"].([]any)
	amt := cols[1].(map[string]any)
	assert.Equal(t, "sum", amt["aggregate_role"])
	assert.Equal(t, "amount", amt["target_name"])
}

func TestJSONEmptyReport(t *testing.T) {
	data := decodeJSON(t, baseReport())
	assert.Equal(t, []any{}, data["tables"])
	assert.Equal(t, []any{}, data["failures"])
	assert.Equal(t, []any{}, data["results"])
}

func TestJSONMetaFields(t *testing.T) {
	meta := decodeJSON(t, sampleReport())["meta"].(map[string]any)
	assert.Equal(t, "layercheck", meta["tool"])
	assert.Equal(t, "sales.sql", meta["source"])
	assert.Equal(t, "2026-01-27T12:00:00+00:00", meta["timestamp"])
}

// -- YAML Reporter ------------------------------------------------------------

func TestYAMLMatchesJSON(t *testing.T) {
	out, err := RenderYAML(sampleReport())
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &data))
	summary := data["summary"].(map[string]any)
	assert.Equal(t, 2, summary["tables"])
	assert.Equal(t, 1, summary["critical"])

	tables := data["tables"].([]any)
	assert.Equal(t, "edv", tables[1].(map[string]any)["layer"])
	assert.NotContains(t, out, "statement:")
}

// -- Markdown Reporter --------------------------------------------------------

func TestMarkdownContent(t *testing.T) {
	md := RenderMarkdown(sampleReport())
	assert.True(t, strings.HasPrefix(md, "# Layercheck Import Report"))
	assert.Contains(t, md, "sales.sql")
	for _, want := range []string{"## CRITICAL", "## WARNING", "## CONSIDER", "## INFO"} {
		assert.Contains(t, md, want)
	}
	assert.Contains(t, md, "| `ddv_sales.orders` | ddv | 2 | 1 | 1 | 0 |")
	assert.Contains(t, md, "## Failed Statements")
	assert.Contains(t, md, "#3: statement 3 (ddv_sales.broken)")
	assert.Contains(t, md, "## Errors")
	assert.Contains(t, md, "## Skipped Checks")
	assert.Contains(t, md, "Columns a, b of 'ddv_sales.orders' all map to 'b'")
}

func TestMarkdownEscapesPipes(t *testing.T) {
	r := makeReportWithSeverities(models.SeverityWarning)
	r.Failures = []models.StatementFailure{{Source: "a|b.sql", Error: "x\ny"}}
	md := RenderMarkdown(r)
	assert.Contains(t, md, "`a\\|b.sql` #1: x y")
}

// -- HTML Reporter ------------------------------------------------------------

func TestHTMLValidStructure(t *testing.T) {
	out := RenderHTML(sampleReport())
	assert.Contains(t, strings.ToLower(out), "<!doctype html>")
	assert.True(t, strings.HasSuffix(out, "</body></html>"))
}

func TestHTMLContainsSeverityBadges(t *testing.T) {
	out := RenderHTML(sampleReport())
	for _, badge := range []string{"badge-critical", "badge-warning", "badge-consider", "badge-info"} {
		assert.Contains(t, out, badge)
	}
}

func TestHTMLContent(t *testing.T) {
	out := RenderHTML(sampleReport())
	assert.Contains(t, out, "Columns a, b of &#39;ddv_sales.orders&#39; all map to &#39;b&#39;")
	assert.Contains(t, out, `<td class="layer-ddv">ddv</td>`)
	assert.Contains(t, out, `id="failures"`)
	assert.Contains(t, out, `id="errors"`)
	assert.Contains(t, out, "To Do List")
	assert.Contains(t, out, "3 items to address")
}

func TestHTMLEscapesSource(t *testing.T) {
	r := baseReport()
	r.Source = "<script>x</script>"
	out := RenderHTML(r)
	assert.NotContains(t, out, "<title>Layercheck Report: <script>")
	assert.Contains(t, out, "&lt;script&gt;x&lt;/script&gt;")
}

// -- Text Reporter ------------------------------------------------------------

func TestTextContent(t *testing.T) {
	out := reANSI.ReplaceAllString(RenderText(sampleReport()), "")
	assert.Contains(t, out, "3 statements, 2 tables, 3 columns")
	assert.Contains(t, out, "NOT READY")
	assert.Contains(t, out, "ddv_sales.orders  ddv")
	assert.Contains(t, out, "FAILED STATEMENTS")
	assert.Contains(t, out, "CRITICAL Columns a, b")
	assert.Contains(t, out, "unclassified_layer")
	assert.Contains(t, out, "1/7 checks passed: 1 critical, 1 warnings, 1 consider, 1 info")
}

func TestTextSingular(t *testing.T) {
	r := makeReportWithSeverities()
	out := reANSI.ReplaceAllString(RenderText(r), "")
	assert.Contains(t, out, "1 statement, 1 table, 1 column\n")
}

// -- Verdict Logic ------------------------------------------------------------

func TestVerdict(t *testing.T) {
	tests := []struct {
		name   string
		report *models.ImportReport
		want   string
	}{
		{name: "no_statements", report: baseReport(), want: "NO TABLES"},
		{name: "clean", report: makeReportWithSeverities(), want: "READY"},
		{name: "consider_info", report: makeReportWithSeverities(models.SeverityConsider, models.SeverityInfo), want: "READY"},
		{name: "warning", report: makeReportWithSeverities(models.SeverityWarning), want: "REVIEW"},
		{name: "critical", report: makeReportWithSeverities(models.SeverityCritical, models.SeverityWarning), want: "NOT READY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, _ := verdict(tt.report)
			assert.Equal(t, tt.want, label)
			assert.Contains(t, RenderMarkdown(tt.report), "> **"+tt.want+"**")
			assert.Contains(t, RenderHTML(tt.report), "<strong>"+tt.want+"</strong>")
		})
	}
}

func TestVerdictFailuresNeedReview(t *testing.T) {
	r := makeReportWithSeverities()
	r.Failures = []models.StatementFailure{{Source: "x", Error: "boom"}}
	label, _ := verdict(r)
	assert.Equal(t, "REVIEW", label)
}

func TestVerdictNotInJSON(t *testing.T) {
	summary := decodeJSON(t, makeReportWithSeverities(models.SeverityCritical))["summary"].(map[string]any)
	assert.NotContains(t, summary, "verdict")
}
