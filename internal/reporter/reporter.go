// Package reporter renders an ImportReport into various output formats.
package reporter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AntTheLimey/layercheck/internal/models"
)

const (
	toolName    = "layercheck"
	toolVersion = "0.1.0"
)

// Formats lists the accepted format names.
var Formats = []string{"text", "json", "yaml", "markdown", "html"}

// Render dispatches to the appropriate renderer based on format.
func Render(report *models.ImportReport, format string) (string, error) {
	switch format {
	case "text":
		return RenderText(report), nil
	case "json":
		return RenderJSON(report), nil
	case "yaml":
		return RenderYAML(report)
	case "markdown":
		return RenderMarkdown(report), nil
	case "html":
		return RenderHTML(report), nil
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}

// verdict summarises whether the imported tables are ready for query
// generation.
func verdict(report *models.ImportReport) (label, detail string) {
	switch {
	case report.NoStatementFound():
		return "NO TABLES", "No CREATE TABLE statement was found."
	case report.CriticalCount() > 0:
		return "NOT READY", fmt.Sprintf("%d critical issue(s) must be resolved before generating queries.", report.CriticalCount())
	case report.WarningCount() > 0 || len(report.Failures) > 0:
		return "REVIEW", "No critical issues, but warnings or failed statements should be reviewed."
	default:
		return "READY", "No critical or warning issues found."
	}
}

// tableRow is the per-table summary line shared by the text, markdown and
// HTML renderers.
type tableRow struct {
	name     string
	layer    string
	columns  int
	measures int
	renamed  int
	skipped  int
}

func tableRows(report *models.ImportReport) []tableRow {
	rows := make([]tableRow, 0, len(report.Tables))
	for _, t := range report.Tables {
		row := tableRow{
			name:     t.QualifiedName(),
			layer:    t.Layer.String(),
			columns:  len(t.Columns),
			measures: len(t.Columns.ByRole(models.RoleSum)),
			skipped:  len(t.Skipped),
		}
		for _, c := range t.Columns {
			if c.Renamed() {
				row.renamed++
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// findingGroup is one severity level with its findings split by category.
type findingGroup struct {
	severity   models.Severity
	categories []categoryGroup
}

type categoryGroup struct {
	category string
	findings []models.Finding
}

// groupFindings orders findings by severity, then category name, keeping
// check order inside a category.
func groupFindings(findings []models.Finding) []findingGroup {
	sorted := slices.Clone(findings)
	slices.SortStableFunc(sorted, func(a, b models.Finding) int {
		if a.Severity != b.Severity {
			return cmp.Compare(a.Severity, b.Severity)
		}
		return strings.Compare(a.Category, b.Category)
	})

	var groups []findingGroup
	for _, f := range sorted {
		if n := len(groups); n == 0 || groups[n-1].severity != f.Severity {
			groups = append(groups, findingGroup{severity: f.Severity})
		}
		g := &groups[len(groups)-1]
		if n := len(g.categories); n == 0 || g.categories[n-1].category != f.Category {
			g.categories = append(g.categories, categoryGroup{category: f.Category})
		}
		c := &g.categories[len(g.categories)-1]
		c.findings = append(c.findings, f)
	}
	return groups
}
