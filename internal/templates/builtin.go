package templates

import (
	"fmt"
	"strings"

	"github.com/AntTheLimey/layercheck/internal/models"
)

func init() {
	Register(selectTemplate{})
	Register(profileTemplate{})
	Register(compareTemplate{})
	Register(minusTemplate{})
}

// selectTemplate lists the DDV columns, aliased to their target names.
type selectTemplate struct{}

func (selectTemplate) Name() string        { return "select" }
func (selectTemplate) TwoSided() bool      { return false }
func (selectTemplate) Description() string { return "Select every DDV column, aliased to its target name" }

func (selectTemplate) Render(in Input) (string, error) {
	cols := in.Table.Columns
	if len(cols) == 0 {
		return "", ErrNoColumns
	}
	fields := make([]string, len(cols))
	for i, c := range cols {
		fields[i] = Ident(in.Quote, c.Name)
		if c.Renamed() {
			fields[i] += " AS " + Ident(in.Quote, c.TargetName)
		}
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(fields, ", "), in.DDVName()), nil
}

// profileTemplate aggregates the DDV table: SUM for measures, COUNT otherwise.
type profileTemplate struct{}

func (profileTemplate) Name() string   { return "profile" }
func (profileTemplate) TwoSided() bool { return false }
func (profileTemplate) Description() string {
	return "Row count plus SUM of measure columns and COUNT of the rest"
}

func (profileTemplate) Render(in Input) (string, error) {
	if len(in.Table.Columns) == 0 {
		return "", ErrNoColumns
	}
	fields := profileFields(in.Table.Columns, in.Quote, false)
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(fields, ", "), in.DDVName()), nil
}

// compareTemplate stacks the DDV and EDV profiles with a layer label.
type compareTemplate struct{}

func (compareTemplate) Name() string   { return "compare" }
func (compareTemplate) TwoSided() bool { return true }
func (compareTemplate) Description() string {
	return "DDV and EDV profiles side by side via UNION ALL"
}

func (compareTemplate) Render(in Input) (string, error) {
	if len(in.Table.Columns) == 0 {
		return "", ErrNoColumns
	}
	if in.EDVSchema == "" {
		return "", ErrNoEDVSchema
	}
	ddv := append([]string{"'ddv' AS layer"}, profileFields(in.Table.Columns, in.Quote, false)...)
	edv := append([]string{"'edv' AS layer"}, profileFields(in.Table.Columns, in.Quote, true)...)
	return fmt.Sprintf("SELECT %s FROM %s\nUNION ALL\nSELECT %s FROM %s",
		strings.Join(ddv, ", "), in.DDVName(),
		strings.Join(edv, ", "), in.EDVName()), nil
}

// minusTemplate returns DDV rows missing from the EDV table.
type minusTemplate struct{}

func (minusTemplate) Name() string        { return "minus" }
func (minusTemplate) TwoSided() bool      { return true }
func (minusTemplate) Description() string { return "DDV rows with no identical EDV row (EXCEPT)" }

func (minusTemplate) Render(in Input) (string, error) {
	cols := in.Table.Columns
	if len(cols) == 0 {
		return "", ErrNoColumns
	}
	if in.EDVSchema == "" {
		return "", ErrNoEDVSchema
	}
	ddv := make([]string, len(cols))
	edv := make([]string, len(cols))
	for i, c := range cols {
		ddv[i] = Ident(in.Quote, c.Name)
		edv[i] = Ident(in.Quote, c.TargetName)
	}
	return fmt.Sprintf("SELECT %s FROM %s\nEXCEPT\nSELECT %s FROM %s",
		strings.Join(ddv, ", "), in.DDVName(),
		strings.Join(edv, ", "), in.EDVName()), nil
}

// profileFields renders COUNT(*) followed by one aggregate per column. The
// EDV side reads target names; aliases always use target names so both sides
// line up.
func profileFields(cols models.TableStructure, quote, edv bool) []string {
	fields := []string{"COUNT(*) AS row_count"}
	for _, c := range cols {
		src := c.Name
		if edv {
			src = c.TargetName
		}
		prefix := "cnt_"
		if c.AggregateRole == models.RoleSum {
			prefix = "sum_"
		}
		fields = append(fields, fmt.Sprintf("%s(%s) AS %s",
			c.AggregateRole.Function(), Ident(quote, src), Ident(quote, prefix+c.TargetName)))
	}
	return fields
}
