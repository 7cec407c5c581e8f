package analyzer

import (
	"fmt"
	"strings"

	"github.com/AntTheLimey/layercheck/internal/models"
	"github.com/AntTheLimey/layercheck/internal/renames"
)

// Env is the import-wide context every check can consult.
type Env struct {
	Renames renames.Map
}

// CheckFunc is the signature for an advisory check function. It sees every
// table of the import and names the table in each finding's ObjectName.
type CheckFunc func(tables []models.ParsedTable, env Env, checkName, category string) []models.Finding

// checkDuplicateColumns flags source names declared more than once in a table.
func checkDuplicateColumns(tables []models.ParsedTable, _ Env, checkName, category string) []models.Finding {
	var findings []models.Finding
	for _, tbl := range tables {
		fqn := tbl.QualifiedName()
		for _, name := range tbl.Columns.Duplicates() {
			findings = append(findings, models.Finding{
				Severity:  models.SeverityWarning,
				CheckName: checkName,
				Category:  category,
				Title:     fmt.Sprintf("Column '%s' declared more than once in '%s'", name, fqn),
				Detail: fmt.Sprintf("Table '%s' declares '%s' more than once. Both definitions "+
					"are kept in order, so generated queries aggregate the column twice.", fqn, name),
				ObjectName:  fqn + "." + name,
				Remediation: "Remove the repeated definition from the DDL before generating queries.",
			})
		}
	}
	return findings
}

// checkUnmatchedRenames flags rename entries whose key matches no column of
// any imported table.
func checkUnmatchedRenames(tables []models.ParsedTable, env Env, checkName, category string) []models.Finding {
	var names []string
	for _, tbl := range tables {
		names = append(names, tbl.Columns.Names()...)
	}

	var findings []models.Finding
	for _, key := range env.Renames.Unmatched(names) {
		findings = append(findings, models.Finding{
			Severity:  models.SeverityWarning,
			CheckName: checkName,
			Category:  category,
			Title:     fmt.Sprintf("Rename '%s' -> '%s' matches no column", key, env.Renames[key]),
			Detail: fmt.Sprintf("The rename map has an entry for '%s' but no imported table "+
				"declares a column with that exact name. Matching is case-sensitive.", key),
			ObjectName:  key,
			Remediation: "Check the spelling and case of the entry, or drop it from the rename map.",
			Metadata:    map[string]any{"target": env.Renames[key]},
		})
	}
	return findings
}

// checkTargetCollisions flags tables where two columns end up with the same
// target name after renames are applied.
func checkTargetCollisions(tables []models.ParsedTable, _ Env, checkName, category string) []models.Finding {
	var findings []models.Finding
	for _, tbl := range tables {
		fqn := tbl.QualifiedName()
		sources := make(map[string][]string)
		var order []string
		for _, c := range tbl.Columns {
			if _, ok := sources[c.TargetName]; !ok {
				order = append(order, c.TargetName)
			}
			sources[c.TargetName] = append(sources[c.TargetName], c.Name)
		}
		for _, target := range order {
			srcs := sources[target]
			if len(srcs) < 2 || !hasRename(tbl.Columns, srcs) {
				continue
			}
			findings = append(findings, models.Finding{
				Severity:  models.SeverityCritical,
				CheckName: checkName,
				Category:  category,
				Title:     fmt.Sprintf("Columns %s of '%s' all map to '%s'", strings.Join(srcs, ", "), fqn, target),
				Detail: fmt.Sprintf("After renames, %d columns of '%s' share the target name '%s'. "+
					"The EDV side of generated comparisons cannot tell them apart.", len(srcs), fqn, target),
				ObjectName:  fqn + "." + target,
				Remediation: "Give each column a distinct target name in the rename map.",
				Metadata:    map[string]any{"sources": srcs},
			})
		}
	}
	return findings
}

// hasRename reports whether any of the named columns was renamed. Plain
// duplicates are left to checkDuplicateColumns.
func hasRename(cols models.TableStructure, names []string) bool {
	for _, c := range cols {
		for _, n := range names {
			if c.Name == n && c.Renamed() {
				return true
			}
		}
	}
	return false
}

// checkNoMeasureColumns flags tables whose profile can only compare counts.
func checkNoMeasureColumns(tables []models.ParsedTable, _ Env, checkName, category string) []models.Finding {
	var findings []models.Finding
	for _, tbl := range tables {
		if len(tbl.Columns) == 0 || len(tbl.Columns.ByRole(models.RoleSum)) > 0 {
			continue
		}
		fqn := tbl.QualifiedName()
		findings = append(findings, models.Finding{
			Severity:  models.SeverityConsider,
			CheckName: checkName,
			Category:  category,
			Title:     fmt.Sprintf("Table '%s' has no measure columns", fqn),
			Detail: fmt.Sprintf("None of the %d columns of '%s' has a floating-point or "+
				"fixed-point type, so every column is compared by COUNT only.", len(tbl.Columns), fqn),
			ObjectName: fqn,
			Remediation: "If some columns hold amounts stored as text or integers, add their " +
				"types to parser.measure_types so they are summed.",
		})
	}
	return findings
}

// checkUnknownSchema flags statements with an unqualified table name.
func checkUnknownSchema(tables []models.ParsedTable, _ Env, checkName, category string) []models.Finding {
	var findings []models.Finding
	for _, tbl := range tables {
		if tbl.Schema != models.UnknownSchema {
			continue
		}
		findings = append(findings, models.Finding{
			Severity:  models.SeverityConsider,
			CheckName: checkName,
			Category:  category,
			Title:     fmt.Sprintf("Table '%s' has no schema qualifier", tbl.Name),
			Detail: fmt.Sprintf("The statement for '%s' names the table without a schema, so "+
				"its layer cannot be derived and generated queries use the bare name.", tbl.Name),
			ObjectName:  tbl.Name,
			Remediation: "Qualify the table name in the DDL, or pass --ddv-schema when generating queries.",
		})
	}
	return findings
}

// checkUnclassifiedLayer flags qualified schemas that match neither layer.
func checkUnclassifiedLayer(tables []models.ParsedTable, _ Env, checkName, category string) []models.Finding {
	var findings []models.Finding
	for _, tbl := range tables {
		if tbl.Layer != models.LayerUnknown || tbl.Schema == models.UnknownSchema {
			continue
		}
		fqn := tbl.QualifiedName()
		findings = append(findings, models.Finding{
			Severity:    models.SeverityInfo,
			CheckName:   checkName,
			Category:    category,
			Title:       fmt.Sprintf("Schema '%s' is neither DDV nor EDV", tbl.Schema),
			Detail:      fmt.Sprintf("The schema of '%s' matches no layer marker, or matches both.", fqn),
			ObjectName:  fqn,
			Remediation: "Adjust layers.ddv and layers.edv in the config if this schema belongs to a layer.",
		})
	}
	return findings
}

// checkSkippedDefinitions reports column-list elements that produced no column.
func checkSkippedDefinitions(tables []models.ParsedTable, _ Env, checkName, category string) []models.Finding {
	var findings []models.Finding
	for _, tbl := range tables {
		fqn := tbl.QualifiedName()
		for _, sd := range tbl.Skipped {
			findings = append(findings, models.Finding{
				Severity:  models.SeverityInfo,
				CheckName: checkName,
				Category:  category,
				Title:     fmt.Sprintf("Definition in '%s' skipped: %s", fqn, sd.Reason),
				Detail: fmt.Sprintf("The definition %q could not be read as a column and was "+
					"left out of the table structure.", sd.Text),
				ObjectName: fqn,
				Metadata:   map[string]any{"text": sd.Text, "reason": sd.Reason},
			})
		}
	}
	return findings
}

// checkNullableMeasures lists measure columns that may hold NULL.
func checkNullableMeasures(tables []models.ParsedTable, _ Env, checkName, category string) []models.Finding {
	var findings []models.Finding
	for _, tbl := range tables {
		fqn := tbl.QualifiedName()
		var cols []string
		for _, c := range tbl.Columns.ByRole(models.RoleSum) {
			if c.Nullable {
				cols = append(cols, c.Name)
			}
		}
		if len(cols) == 0 {
			continue
		}
		findings = append(findings, models.Finding{
			Severity:  models.SeverityInfo,
			CheckName: checkName,
			Category:  category,
			Title:     fmt.Sprintf("Table '%s' has %d nullable measure column(s)", fqn, len(cols)),
			Detail: fmt.Sprintf("SUM ignores NULL values. Columns: %s. A NULL on one side and "+
				"a zero on the other compare equal.", strings.Join(cols, ", ")),
			ObjectName:  fqn,
			Remediation: "Compare COUNT of the column as well, or declare it NOT NULL upstream.",
			Metadata:    map[string]any{"columns": cols},
		})
	}
	return findings
}
