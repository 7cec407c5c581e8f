package reporter

import (
	"fmt"
	"html"
	"strings"

	"github.com/AntTheLimey/layercheck/internal/models"
)

const htmlCSS = `
*, *::before, *::after { box-sizing: border-box; }
body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    margin: 0 auto; padding: 32px 40px; max-width: 1100px;
    color: #333; line-height: 1.6; background: #f9fafb;
}
h1 { border-bottom: 3px solid #2563eb; padding-bottom: 10px; margin-top: 0; }
h2 { color: #1e40af; margin-top: 2.2em; }
h3 { color: #374151; margin-top: 1.4em; }
h4 { color: #4b5563; margin: 0 0 4px; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; background: white; }
th, td { border: 1px solid #d1d5db; padding: 6px 10px; text-align: left; }
th { background: #f3f4f6; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
code { background: #f3f4f6; padding: 2px 6px; border-radius: 3px; font-size: 0.9em; }
blockquote { border-left: 4px solid #2563eb; margin: 1em 0; padding: 8px 16px; background: #eff6ff; }
blockquote.ready { border-left-color: #16a34a; background: #f0fdf4; }
blockquote.review { border-left-color: #d97706; background: #fffbeb; }
blockquote.blocked { border-left-color: #dc2626; background: #fef2f2; }
.badge { display: inline-block; padding: 2px 10px; border-radius: 4px;
         font-size: 0.8em; font-weight: bold; color: white; }
.badge-critical { background: #dc2626; }
.badge-warning { background: #d97706; }
.badge-consider { background: #0891b2; }
.badge-info { background: #2563eb; }
.layer-ddv { color: #7c3aed; font-weight: 600; }
.layer-edv { color: #059669; font-weight: 600; }
.layer-unknown { color: #6b7280; }
.summary-box { display: flex; gap: 16px; flex-wrap: wrap; margin: 1em 0; }
.summary-card { border: 1px solid #d1d5db; border-radius: 8px; padding: 12px 20px;
                text-align: center; min-width: 100px; background: white; }
.summary-card .number { font-size: 1.8em; font-weight: bold; }
.summary-card.critical .number { color: #dc2626; }
.summary-card.warning .number { color: #d97706; }
.summary-card.consider .number { color: #0891b2; }
.summary-card.info .number { color: #2563eb; }
.summary-card.passed .number { color: #16a34a; }
.finding-card { margin-bottom: 1em; padding: 12px 16px; border: 1px solid #e5e7eb;
                border-radius: 8px; background: white; }
.finding-card p { margin: 6px 0; }
.todo-item { display: flex; gap: 12px; padding: 8px 12px; border: 1px solid #e5e7eb;
             border-radius: 6px; margin-bottom: 6px; background: white; }
.todo-item.checked { opacity: 0.55; text-decoration: line-through; }
.todo-title { font-weight: 600; font-size: 0.92em; }
.todo-remediation { font-size: 0.85em; color: #374151; }
@media print { .todo-item.checked { opacity: 0.4; } .finding-card { break-inside: avoid; } }
`

const htmlJS = `
document.querySelectorAll('.todo-item input[type="checkbox"]').forEach(function(cb) {
    cb.addEventListener('change', function() {
        this.closest('.todo-item').classList.toggle('checked', this.checked);
        var total = document.querySelectorAll('.todo-item').length;
        var done = document.querySelectorAll('.todo-item.checked').length;
        document.getElementById('todo-counter').textContent = done + ' of ' + total + ' completed';
    });
});
`

// esc HTML-escapes a string.
func esc(text string) string {
	return html.EscapeString(text)
}

// slug converts a label to a URL-safe anchor fragment.
func slug(text string) string {
	s := strings.ToLower(text)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}

// pluralS returns "s" if n != 1, otherwise "".
func pluralS(n int) string {
	if n != 1 {
		return "s"
	}
	return ""
}

func sevBadgeClass(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return "badge-critical"
	case models.SeverityWarning:
		return "badge-warning"
	case models.SeverityConsider:
		return "badge-consider"
	default:
		return "badge-info"
	}
}

// RenderHTML renders the report as a standalone HTML page with a To Do list.
func RenderHTML(report *models.ImportReport) string {
	allFindings := report.Findings()

	var out []string
	add := func(format string, args ...any) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	add(`<!DOCTYPE html>`)
	add(`<html lang="en">`)
	add(`<head>`)
	add(`<meta charset="UTF-8">`)
	add(`<meta name="viewport" content="width=device-width, initial-scale=1.0">`)
	add(`<title>Layercheck Report: %s</title>`, esc(report.Source))
	add(`<style>%s</style>`, htmlCSS)
	add(`</head>`)
	add(`<body>`)

	add(`<h1>Layercheck: DDV/EDV Import Report</h1>`)
	add(`<p><strong>Source:</strong> %s<br>`, esc(report.Source))
	add(`<strong>Import Time:</strong> %s<br>`, report.Timestamp.Format("2006-01-02 15:04:05 UTC"))
	add(`<strong>Statements:</strong> %d, <strong>Tables:</strong> %d, <strong>Columns:</strong> %d</p>`,
		report.Statements, len(report.Tables), report.ColumnCount())

	add(`<div class="summary-box">`)
	add(`<div class="summary-card"><div class="number">%d</div>Checks Run</div>`, report.ChecksTotal())
	add(`<div class="summary-card passed"><div class="number">%d</div>Passed</div>`, report.ChecksPassed())
	add(`<div class="summary-card critical"><div class="number">%d</div>Critical</div>`, report.CriticalCount())
	add(`<div class="summary-card warning"><div class="number">%d</div>Warnings</div>`, report.WarningCount())
	add(`<div class="summary-card consider"><div class="number">%d</div>Consider</div>`, report.ConsiderCount())
	add(`<div class="summary-card info"><div class="number">%d</div>Info</div>`, report.InfoCount())
	add(`</div>`)

	label, detail := verdict(report)
	cls := map[string]string{"READY": "ready", "REVIEW": "review", "NOT READY": "blocked"}[label]
	add(`<blockquote class="%s"><strong>%s</strong>: %s</blockquote>`, cls, label, esc(detail))

	if rows := tableRows(report); len(rows) > 0 {
		add(`<h2 id="tables">Tables</h2>`)
		add(`<table><tr><th>Table</th><th>Layer</th><th>Columns</th><th>Measures</th><th>Renamed</th><th>Skipped</th></tr>`)
		for _, r := range rows {
			add(`<tr><td><code>%s</code></td><td class="layer-%s">%s</td><td class="num">%d</td><td class="num">%d</td><td class="num">%d</td><td class="num">%d</td></tr>`,
				esc(r.name), r.layer, r.layer, r.columns, r.measures, r.renamed, r.skipped)
		}
		add(`</table>`)
	}

	if len(report.Failures) > 0 {
		add(`<h2 id="failures">Failed Statements</h2>`)
		add(`<ul>`)
		for _, f := range report.Failures {
			add(`<li><code>%s</code> #%d: %s</li>`, esc(f.Source), f.Index+1, esc(f.Error))
		}
		add(`</ul>`)
	}

	for _, entry := range groupFindings(allFindings) {
		sevLabel := entry.severity.String()
		sevCount := 0
		for _, cf := range entry.categories {
			sevCount += len(cf.findings)
		}
		add(`<h2 id="sev-%s"><span class="badge %s">%s</span> (%d)</h2>`,
			slug(sevLabel), sevBadgeClass(entry.severity), sevLabel, sevCount)

		for _, cf := range entry.categories {
			add(`<h3 id="sev-%s-%s">%s (%d)</h3>`, slug(sevLabel), slug(cf.category), esc(cf.category), len(cf.findings))
			for _, f := range cf.findings {
				add(`<div class="finding-card">`)
				add(`<h4>%s</h4>`, esc(f.Title))
				if f.ObjectName != "" {
					add(`<p><strong>Object:</strong> <code>%s</code></p>`, esc(f.ObjectName))
				}
				add(`<p>%s</p>`, esc(f.Detail))
				if f.Remediation != "" {
					add(`<p><strong>Remediation:</strong> %s</p>`, esc(f.Remediation))
				}
				add(`</div>`)
			}
		}
	}

	var errored []models.CheckResult
	for _, r := range report.Results {
		if r.Error != "" {
			errored = append(errored, r)
		}
	}
	if len(errored) > 0 {
		add(`<h2 id="errors">Errors</h2>`)
		add(`<ul>`)
		for _, r := range errored {
			add(`<li><strong>%s/%s</strong>: %s</li>`, esc(r.Category), esc(r.CheckName), esc(r.Error))
		}
		add(`</ul>`)
	}

	// To Do list: CRITICAL, WARNING and CONSIDER findings with a remediation.
	var todo []models.Finding
	for _, sev := range []models.Severity{models.SeverityCritical, models.SeverityWarning, models.SeverityConsider} {
		for _, f := range allFindings {
			if f.Severity == sev && f.Remediation != "" {
				todo = append(todo, f)
			}
		}
	}
	if len(todo) > 0 {
		add(`<h2 id="todo">To Do List</h2>`)
		add(`<p>%d item%s to address &mdash; <span id="todo-counter">0 of %d completed</span></p>`,
			len(todo), pluralS(len(todo)), len(todo))
		for _, f := range todo {
			add(`<div class="todo-item"><input type="checkbox"><div>`+
				`<span class="badge %s">%s</span> <span class="todo-title">%s</span>`+
				`<div class="todo-remediation">%s</div></div></div>`,
				sevBadgeClass(f.Severity), f.Severity, esc(f.Title), esc(f.Remediation))
		}
	}

	add(`<hr>`)
	add(`<p><em>Generated by %s v%s</em></p>`, toolName, toolVersion)
	add(`<script>%s</script>`, htmlJS)
	add(`</body></html>`)
	return strings.Join(out, "\n")
}
