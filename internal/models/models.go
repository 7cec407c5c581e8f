// Package models defines parsed table structures, findings, check results,
// and import reports.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Severity represents the impact level of a finding.
// The ordering is CRITICAL < WARNING < CONSIDER < INFO (by numeric value).
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityWarning
	SeverityConsider
	SeverityInfo
)

var severityNames = map[Severity]string{
	SeverityCritical: "CRITICAL",
	SeverityWarning:  "WARNING",
	SeverityConsider: "CONSIDER",
	SeverityInfo:     "INFO",
}

var severityFromName = map[string]Severity{
	"CRITICAL": SeverityCritical,
	"WARNING":  SeverityWarning,
	"CONSIDER": SeverityConsider,
	"INFO":     SeverityInfo,
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	sev, ok := severityFromName[name]
	if !ok {
		return fmt.Errorf("unknown severity: %s", name)
	}
	*s = sev
	return nil
}

// MarshalYAML renders the severity by name.
func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}

// ParseSeverity converts a string to a Severity value.
func ParseSeverity(s string) (Severity, error) {
	sev, ok := severityFromName[s]
	if !ok {
		return 0, fmt.Errorf("unknown severity: %s", s)
	}
	return sev, nil
}

// Finding represents a single issue discovered by a check. ObjectName names
// the table, or table.column, it concerns.
type Finding struct {
	Severity    Severity       `json:"severity" yaml:"severity"`
	CheckName   string         `json:"check_name" yaml:"check_name"`
	Category    string         `json:"category" yaml:"category"`
	Title       string         `json:"title" yaml:"title"`
	Detail      string         `json:"detail" yaml:"detail"`
	ObjectName  string         `json:"object_name,omitempty" yaml:"object_name,omitempty"`
	Remediation string         `json:"remediation,omitempty" yaml:"remediation,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// CheckResult holds the outcome of running a single check over every table
// of an import.
type CheckResult struct {
	CheckName   string    `json:"check_name" yaml:"check_name"`
	Category    string    `json:"category" yaml:"category"`
	Description string    `json:"description" yaml:"description"`
	Findings    []Finding `json:"findings" yaml:"findings"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	Skipped     bool      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	SkipReason  string    `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
}

// StatementFailure records a statement that could not be turned into a table.
type StatementFailure struct {
	Source string `json:"source" yaml:"source"`
	Index  int    `json:"index" yaml:"index"`
	Table  string `json:"table,omitempty" yaml:"table,omitempty"`
	Error  string `json:"error" yaml:"error"`
}

// ImportReport is the top-level result of importing DDL text.
type ImportReport struct {
	Source     string             `json:"source" yaml:"source"`
	Timestamp  time.Time          `json:"timestamp" yaml:"timestamp"`
	Statements int                `json:"statements" yaml:"statements"`
	Tables     []ParsedTable      `json:"tables" yaml:"tables"`
	Failures   []StatementFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Results    []CheckResult      `json:"results" yaml:"results"`
}

// NewImportReport creates an ImportReport for the given source label.
func NewImportReport(source string) *ImportReport {
	return &ImportReport{
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

// NoStatementFound reports whether the source contained no CREATE TABLE
// statement at all.
func (r *ImportReport) NoStatementFound() bool {
	return r.Statements == 0
}

// Ambiguous reports whether more than one table was found, in which case a
// caller needing a single table has to choose.
func (r *ImportReport) Ambiguous() bool {
	return len(r.Tables) > 1
}

// Findings returns all findings from all check results, flattened.
func (r *ImportReport) Findings() []Finding {
	var all []Finding
	for _, cr := range r.Results {
		all = append(all, cr.Findings...)
	}
	return all
}

// ColumnCount returns the number of columns across all parsed tables.
func (r *ImportReport) ColumnCount() int {
	n := 0
	for _, t := range r.Tables {
		n += len(t.Columns)
	}
	return n
}

// CriticalCount returns the number of CRITICAL findings.
func (r *ImportReport) CriticalCount() int {
	return r.countBySeverity(SeverityCritical)
}

// WarningCount returns the number of WARNING findings.
func (r *ImportReport) WarningCount() int {
	return r.countBySeverity(SeverityWarning)
}

// ConsiderCount returns the number of CONSIDER findings.
func (r *ImportReport) ConsiderCount() int {
	return r.countBySeverity(SeverityConsider)
}

// InfoCount returns the number of INFO findings.
func (r *ImportReport) InfoCount() int {
	return r.countBySeverity(SeverityInfo)
}

// ChecksPassed returns the number of checks with no findings, no error, and not skipped.
func (r *ImportReport) ChecksPassed() int {
	count := 0
	for _, cr := range r.Results {
		if len(cr.Findings) == 0 && cr.Error == "" && !cr.Skipped {
			count++
		}
	}
	return count
}

// ChecksTotal returns the total number of check results.
func (r *ImportReport) ChecksTotal() int {
	return len(r.Results)
}

func (r *ImportReport) countBySeverity(sev Severity) int {
	count := 0
	for _, f := range r.Findings() {
		if f.Severity == sev {
			count++
		}
	}
	return count
}
