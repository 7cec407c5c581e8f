package reporter

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AntTheLimey/layercheck/internal/models"
)

// document is the machine-readable report shared by JSON and YAML output.
type document struct {
	Meta     docMeta                   `json:"meta" yaml:"meta"`
	Summary  docSummary                `json:"summary" yaml:"summary"`
	Tables   []models.ParsedTable      `json:"tables" yaml:"tables"`
	Failures []models.StatementFailure `json:"failures" yaml:"failures"`
	Results  []docResult               `json:"results" yaml:"results"`
}

type docMeta struct {
	Tool      string `json:"tool" yaml:"tool"`
	Version   string `json:"version" yaml:"version"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Source    string `json:"source" yaml:"source"`
}

type docSummary struct {
	Statements   int `json:"statements" yaml:"statements"`
	Tables       int `json:"tables" yaml:"tables"`
	Columns      int `json:"columns" yaml:"columns"`
	Failures     int `json:"failures" yaml:"failures"`
	TotalChecks  int `json:"total_checks" yaml:"total_checks"`
	ChecksPassed int `json:"checks_passed" yaml:"checks_passed"`
	Critical     int `json:"critical" yaml:"critical"`
	Warnings     int `json:"warnings" yaml:"warnings"`
	Consider     int `json:"consider" yaml:"consider"`
	Info         int `json:"info" yaml:"info"`
}

type docResult struct {
	CheckName   string       `json:"check_name" yaml:"check_name"`
	Category    string       `json:"category" yaml:"category"`
	Description string       `json:"description" yaml:"description"`
	Passed      bool         `json:"passed" yaml:"passed"`
	Skipped     bool         `json:"skipped" yaml:"skipped"`
	Error       *string      `json:"error" yaml:"error"`
	SkipReason  string       `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	Findings    []docFinding `json:"findings" yaml:"findings"`
}

type docFinding struct {
	Severity    string         `json:"severity" yaml:"severity"`
	Title       string         `json:"title" yaml:"title"`
	Detail      string         `json:"detail" yaml:"detail"`
	ObjectName  string         `json:"object_name" yaml:"object_name"`
	Remediation string         `json:"remediation" yaml:"remediation"`
	Metadata    map[string]any `json:"metadata" yaml:"metadata"`
}

func buildDocument(report *models.ImportReport) document {
	doc := document{
		Meta: docMeta{
			Tool:      toolName,
			Version:   toolVersion,
			Timestamp: report.Timestamp.Format("2006-01-02T15:04:05-07:00"),
			Source:    report.Source,
		},
		Summary: docSummary{
			Statements:   report.Statements,
			Tables:       len(report.Tables),
			Columns:      report.ColumnCount(),
			Failures:     len(report.Failures),
			TotalChecks:  report.ChecksTotal(),
			ChecksPassed: report.ChecksPassed(),
			Critical:     report.CriticalCount(),
			Warnings:     report.WarningCount(),
			Consider:     report.ConsiderCount(),
			Info:         report.InfoCount(),
		},
		Tables:   report.Tables,
		Failures: report.Failures,
		Results:  make([]docResult, 0, len(report.Results)),
	}
	if doc.Tables == nil {
		doc.Tables = []models.ParsedTable{}
	}
	if doc.Failures == nil {
		doc.Failures = []models.StatementFailure{}
	}

	for _, r := range report.Results {
		entry := docResult{
			CheckName:   r.CheckName,
			Category:    r.Category,
			Description: r.Description,
			Passed:      len(r.Findings) == 0 && r.Error == "" && !r.Skipped,
			Skipped:     r.Skipped,
			Findings:    make([]docFinding, 0, len(r.Findings)),
		}
		if r.Error != "" {
			errStr := r.Error
			entry.Error = &errStr
		}
		if r.Skipped {
			entry.SkipReason = r.SkipReason
		}

		for _, f := range r.Findings {
			meta := f.Metadata
			if meta == nil {
				meta = make(map[string]any)
			}
			entry.Findings = append(entry.Findings, docFinding{
				Severity:    f.Severity.String(),
				Title:       f.Title,
				Detail:      f.Detail,
				ObjectName:  f.ObjectName,
				Remediation: f.Remediation,
				Metadata:    meta,
			})
		}
		doc.Results = append(doc.Results, entry)
	}
	return doc
}

// RenderJSON renders the report as a JSON string.
func RenderJSON(report *models.ImportReport) string {
	out, _ := json.MarshalIndent(buildDocument(report), "", "  ")
	return string(out)
}

// RenderYAML renders the report as a YAML document.
func RenderYAML(report *models.ImportReport) (string, error) {
	out, err := yaml.Marshal(buildDocument(report))
	if err != nil {
		return "", fmt.Errorf("marshal yaml: %w", err)
	}
	return string(out), nil
}
