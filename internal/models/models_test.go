package models

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// -- Test helpers -------------------------------------------------------------

func makeFinding() Finding {
	return Finding{
		Severity:  SeverityWarning,
		CheckName: "test",
		Category:  "columns",
		Title:     "title",
		Detail:    "detail",
		Metadata:  map[string]any{},
	}
}

func emptyReport() *ImportReport {
	return &ImportReport{Source: "empty.sql", Timestamp: time.Now().UTC()}
}

func sampleReport() *ImportReport {
	r := &ImportReport{
		Source:     "sample.sql",
		Timestamp:  time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Statements: 2,
		Tables: []ParsedTable{
			{Schema: "ddv_sales", Name: "orders", Columns: TableStructure{{Name: "id"}, {Name: "amt"}}},
			{Schema: "edv_sales", Name: "orders", Columns: TableStructure{{Name: "id"}}},
		},
	}
	add := func(check string, sev Severity) {
		r.Results = append(r.Results, CheckResult{
			CheckName: check,
			Category:  "columns",
			Findings:  []Finding{{Severity: sev, CheckName: check, Category: "columns"}},
		})
	}
	add("target_collisions", SeverityCritical)
	add("duplicate_columns", SeverityWarning)
	add("no_measure_columns", SeverityConsider)
	add("skipped_definitions", SeverityInfo)
	r.Results = append(r.Results,
		CheckResult{CheckName: "unmatched_renames", Category: "renames"},
		CheckResult{CheckName: "unknown_schema", Category: "layers", Error: "boom"},
		CheckResult{CheckName: "unclassified_layer", Category: "layers", Skipped: true},
	)
	return r
}

// -- Severity ordering --------------------------------------------------------

func TestSeveritySortedOrder(t *testing.T) {
	severities := []Severity{SeverityInfo, SeverityCritical, SeverityConsider, SeverityWarning}
	sort.Slice(severities, func(i, j int) bool { return severities[i] < severities[j] })
	expected := []Severity{SeverityCritical, SeverityWarning, SeverityConsider, SeverityInfo}
	assert.Equal(t, expected, severities)
}

func TestSeverityJSON(t *testing.T) {
	data, err := json.Marshal(SeverityConsider)
	require.NoError(t, err)
	assert.Equal(t, `"CONSIDER"`, string(data))

	var s Severity
	require.NoError(t, json.Unmarshal([]byte(`"WARNING"`), &s))
	assert.Equal(t, SeverityWarning, s)

	assert.Error(t, json.Unmarshal([]byte(`"LOUD"`), &s))
}

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity("INFO")
	require.NoError(t, err)
	assert.Equal(t, SeverityInfo, sev)

	_, err = ParseSeverity("info")
	assert.Error(t, err)
	assert.Equal(t, "Severity(9)", Severity(9).String())
}

// -- Finding defaults ---------------------------------------------------------

func TestMetadataIndependent(t *testing.T) {
	f1 := makeFinding()
	f2 := makeFinding()
	f1.Metadata["key"] = "value"
	_, exists := f2.Metadata["key"]
	assert.False(t, exists, "f2.Metadata should be independent from f1.Metadata")
}

// -- ImportReport properties --------------------------------------------------

func TestEmptyReportCounts(t *testing.T) {
	r := emptyReport()
	assert.Zero(t, r.CriticalCount())
	assert.Zero(t, r.WarningCount())
	assert.Zero(t, r.ConsiderCount())
	assert.Zero(t, r.InfoCount())
	assert.Zero(t, r.ChecksTotal())
	assert.Zero(t, r.ChecksPassed())
	assert.Empty(t, r.Findings())
	assert.True(t, r.NoStatementFound())
	assert.False(t, r.Ambiguous())
}

func TestSampleReportCounts(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 1, r.CriticalCount())
	assert.Equal(t, 1, r.WarningCount())
	assert.Equal(t, 1, r.ConsiderCount())
	assert.Equal(t, 1, r.InfoCount())
	assert.Equal(t, 7, r.ChecksTotal())
	assert.Equal(t, 1, r.ChecksPassed(), "only unmatched_renames passes")
	assert.Len(t, r.Findings(), 4)
	assert.Equal(t, 3, r.ColumnCount())
	assert.True(t, r.Ambiguous())
	assert.False(t, r.NoStatementFound())
}

func TestNewImportReport(t *testing.T) {
	r := NewImportReport("stdin")
	assert.Equal(t, "stdin", r.Source)
	assert.False(t, r.Timestamp.IsZero())
	assert.Equal(t, time.UTC, r.Timestamp.Location())
}

// -- Aggregate roles and layers -----------------------------------------------

func TestAggregateRoleNames(t *testing.T) {
	assert.Equal(t, "sum", RoleSum.String())
	assert.Equal(t, "count", RoleCount.String())
	assert.Equal(t, "SUM", RoleSum.Function())
	assert.Equal(t, "COUNT", RoleCount.Function())

	role, err := ParseAggregateRole(" SUM ")
	require.NoError(t, err)
	assert.Equal(t, RoleSum, role)
	_, err = ParseAggregateRole("avg")
	assert.Error(t, err)
}

func TestColumnDefinitionJSON(t *testing.T) {
	col := ColumnDefinition{
		Name:          "amt",
		DeclaredType:  "DECIMAL(10,2)",
		AggregateRole: RoleSum,
		TargetName:    "amount",
		Nullable:      true,
	}
	data, err := json.Marshal(col)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"amt","declared_type":"DECIMAL(10,2)","aggregate_role":"sum",
		"target_name":"amount","nullable":true,"has_default":false}`, string(data))

	var back ColumnDefinition
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, col, back)
}

func TestParsedTableYAML(t *testing.T) {
	tbl := ParsedTable{
		Schema:    "edv_core",
		Name:      "orders",
		Layer:     LayerEDV,
		Columns:   TableStructure{{Name: "id", DeclaredType: "INT", TargetName: "id"}},
		Statement: "CREATE TABLE edv_core.orders (id INT)",
	}
	data, err := yaml.Marshal(tbl)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "layer: edv")
	assert.Contains(t, out, "aggregate_role: count")
	assert.NotContains(t, out, "CREATE TABLE")
}

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "s.t", ParsedTable{Schema: "s", Name: "t"}.QualifiedName())
	assert.Equal(t, "t", ParsedTable{Schema: UnknownSchema, Name: "t"}.QualifiedName())
	assert.Equal(t, "t", ParsedTable{Name: "t"}.QualifiedName())
}

// -- TableStructure helpers ---------------------------------------------------

func sampleColumns() TableStructure {
	return TableStructure{
		{Name: "id", AggregateRole: RoleCount, TargetName: "id"},
		{Name: "amt", AggregateRole: RoleSum, TargetName: "amt"},
		{Name: "name", AggregateRole: RoleCount, TargetName: "name"},
		{Name: "amt", AggregateRole: RoleSum, TargetName: "amt"},
	}
}

func TestTableStructureNames(t *testing.T) {
	ts := sampleColumns()
	assert.Equal(t, []string{"id", "amt", "name", "amt"}, ts.Names())
	assert.Equal(t, []string{"amt", "amt"}, ts.ByRole(RoleSum).Names())
	assert.Equal(t, []string{"amt"}, ts.Duplicates())

	col, ok := ts.Lookup("name")
	assert.True(t, ok)
	assert.Equal(t, "name", col.Name)
	_, ok = ts.Lookup("missing")
	assert.False(t, ok)
}

func TestWithRenamesCopies(t *testing.T) {
	ts := sampleColumns()
	renamed := ts.WithRenames(map[string]string{"amt": "amount", "ID": "ignored"})

	assert.Equal(t, []string{"id", "amount", "name", "amount"}, renamed.TargetNames())
	assert.True(t, renamed[1].Renamed())
	assert.False(t, renamed[0].Renamed())
	assert.Equal(t, "amt", ts[1].TargetName, "original must be untouched")
}
