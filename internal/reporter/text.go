package reporter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AntTheLimey/layercheck/internal/models"
)

var (
	textTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#569CD6"))
	textMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	textHeader = lipgloss.NewStyle().Bold(true).Underline(true)

	sevStyles = map[models.Severity]lipgloss.Style{
		models.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F44747")),
		models.SeverityWarning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D7BA7D")),
		models.SeverityConsider: lipgloss.NewStyle().Foreground(lipgloss.Color("#4EC9B0")),
		models.SeverityInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("#9CDCFE")),
	}

	verdictStyles = map[string]lipgloss.Style{
		"READY":     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6A9955")),
		"REVIEW":    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D7BA7D")),
		"NOT READY": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F44747")),
		"NO TABLES": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#808080")),
	}
)

// RenderText renders a terminal summary. Styling is dropped automatically
// when output is not a terminal.
func RenderText(report *models.ImportReport) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s %s", textTitle.Render("layercheck"), textMuted.Render(report.Source))
	line("%d statement%s, %d table%s, %d column%s",
		report.Statements, pluralS(report.Statements),
		len(report.Tables), pluralS(len(report.Tables)),
		report.ColumnCount(), pluralS(report.ColumnCount()))

	label, detail := verdict(report)
	line("%s  %s", verdictStyles[label].Render(label), detail)

	if rows := tableRows(report); len(rows) > 0 {
		nameWidth := len("TABLE")
		for _, r := range rows {
			nameWidth = max(nameWidth, len(r.name))
		}
		line("")
		line("%s", textHeader.Render(fmt.Sprintf("%-*s  %-7s  %7s  %8s  %7s  %7s",
			nameWidth, "TABLE", "LAYER", "COLUMNS", "MEASURES", "RENAMED", "SKIPPED")))
		for _, r := range rows {
			line("%-*s  %-7s  %7d  %8d  %7d  %7d", nameWidth, r.name, r.layer, r.columns, r.measures, r.renamed, r.skipped)
		}
	}

	if len(report.Failures) > 0 {
		line("")
		line("%s", textHeader.Render("FAILED STATEMENTS"))
		for _, f := range report.Failures {
			line("  %s #%d: %s", f.Source, f.Index+1, f.Error)
		}
	}

	findings := report.Findings()
	if len(findings) > 0 {
		line("")
		line("%s", textHeader.Render("FINDINGS"))
		for _, entry := range groupFindings(findings) {
			style := sevStyles[entry.severity]
			for _, cf := range entry.categories {
				for _, f := range cf.findings {
					line("  %s %s", style.Render(fmt.Sprintf("%-8s", f.Severity)), f.Title)
					if f.Remediation != "" {
						line("           %s", textMuted.Render(f.Remediation))
					}
				}
			}
		}
	}

	for _, r := range report.Results {
		if r.Error != "" {
			line("  %s %s/%s: %s", sevStyles[models.SeverityCritical].Render("ERROR   "), r.Category, r.CheckName, r.Error)
		}
	}

	line("")
	line("%d/%d checks passed: %d critical, %d warnings, %d consider, %d info",
		report.ChecksPassed(), report.ChecksTotal(),
		report.CriticalCount(), report.WarningCount(), report.ConsiderCount(), report.InfoCount())
	return b.String()
}
