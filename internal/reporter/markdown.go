package reporter

import (
	"fmt"
	"strings"

	"github.com/AntTheLimey/layercheck/internal/models"
)

// RenderMarkdown renders the report as a Markdown document.
func RenderMarkdown(report *models.ImportReport) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# Layercheck Import Report")
	line("")
	line("- **Source:** %s", mdEscape(report.Source))
	line("- **Import Time:** %s", report.Timestamp.Format("2006-01-02 15:04:05 UTC"))
	line("- **Statements:** %d", report.Statements)
	line("- **Tables:** %d (%d columns)", len(report.Tables), report.ColumnCount())
	line("")

	label, detail := verdict(report)
	line("> **%s**: %s", label, detail)
	line("")

	line("| Checks Run | Passed | Critical | Warnings | Consider | Info |")
	line("|---|---|---|---|---|---|")
	line("| %d | %d | %d | %d | %d | %d |",
		report.ChecksTotal(), report.ChecksPassed(),
		report.CriticalCount(), report.WarningCount(), report.ConsiderCount(), report.InfoCount())
	line("")

	if rows := tableRows(report); len(rows) > 0 {
		line("## Tables")
		line("")
		line("| Table | Layer | Columns | Measures | Renamed | Skipped |")
		line("|---|---|---|---|---|---|")
		for _, r := range rows {
			line("| `%s` | %s | %d | %d | %d | %d |", r.name, r.layer, r.columns, r.measures, r.renamed, r.skipped)
		}
		line("")
	}

	if len(report.Failures) > 0 {
		line("## Failed Statements")
		line("")
		for _, f := range report.Failures {
			line("- `%s` #%d: %s", mdEscape(f.Source), f.Index+1, mdEscape(f.Error))
		}
		line("")
	}

	for _, entry := range groupFindings(report.Findings()) {
		line("## %s", entry.severity)
		line("")
		for _, cf := range entry.categories {
			line("### %s (%d)", cf.category, len(cf.findings))
			line("")
			for _, f := range cf.findings {
				line("#### %s", mdEscape(f.Title))
				line("")
				if f.ObjectName != "" {
					line("**Object:** `%s`", f.ObjectName)
					line("")
				}
				line("%s", f.Detail)
				line("")
				if f.Remediation != "" {
					line("**Remediation:** %s", f.Remediation)
					line("")
				}
			}
		}
	}

	var errored, skipped []models.CheckResult
	for _, r := range report.Results {
		switch {
		case r.Error != "":
			errored = append(errored, r)
		case r.Skipped:
			skipped = append(skipped, r)
		}
	}
	if len(errored) > 0 {
		line("## Errors")
		line("")
		for _, r := range errored {
			line("- **%s/%s**: %s", r.Category, r.CheckName, mdEscape(r.Error))
		}
		line("")
	}
	if len(skipped) > 0 {
		line("## Skipped Checks")
		line("")
		for _, r := range skipped {
			line("- **%s/%s**: %s", r.Category, r.CheckName, r.SkipReason)
		}
		line("")
	}

	line("---")
	line("*Generated by %s v%s*", toolName, toolVersion)
	return b.String()
}

var mdReplacer = strings.NewReplacer("|", `\|`, "\n", " ")

// mdEscape keeps s on one line and out of table-cell syntax.
func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
