package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UnknownSchema is reported when a table name carries no schema qualifier.
const UnknownSchema = "unknown_schema"

// AggregateRole selects the aggregate used when comparing a column across
// layers.
type AggregateRole int

const (
	RoleCount AggregateRole = iota
	RoleSum
)

var roleNames = map[AggregateRole]string{
	RoleCount: "count",
	RoleSum:   "sum",
}

func (r AggregateRole) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("AggregateRole(%d)", int(r))
}

// Function returns the SQL aggregate function name for the role.
func (r AggregateRole) Function() string {
	return strings.ToUpper(r.String())
}

func (r AggregateRole) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *AggregateRole) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	role, err := ParseAggregateRole(name)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// MarshalYAML renders the role by name.
func (r AggregateRole) MarshalYAML() (any, error) {
	return r.String(), nil
}

// ParseAggregateRole converts "sum" or "count" to an AggregateRole.
func ParseAggregateRole(s string) (AggregateRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return RoleSum, nil
	case "count":
		return RoleCount, nil
	}
	return 0, fmt.Errorf("unknown aggregate role: %s", s)
}

// Layer is the comparison side a schema belongs to.
type Layer int

const (
	LayerUnknown Layer = iota
	LayerDDV
	LayerEDV
)

var layerNames = map[Layer]string{
	LayerUnknown: "unknown",
	LayerDDV:     "ddv",
	LayerEDV:     "edv",
}

func (l Layer) String() string {
	if name, ok := layerNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Layer(%d)", int(l))
}

func (l Layer) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// MarshalYAML renders the layer by name.
func (l Layer) MarshalYAML() (any, error) {
	return l.String(), nil
}

// ColumnDefinition is one physical column of an analyzed table.
type ColumnDefinition struct {
	Name          string        `json:"name" yaml:"name"`
	DeclaredType  string        `json:"declared_type" yaml:"declared_type"`
	AggregateRole AggregateRole `json:"aggregate_role" yaml:"aggregate_role"`
	TargetName    string        `json:"target_name" yaml:"target_name"`
	Nullable      bool          `json:"nullable" yaml:"nullable"`
	HasDefault    bool          `json:"has_default" yaml:"has_default"`
}

// Renamed reports whether the target name differs from the source name.
func (c ColumnDefinition) Renamed() bool {
	return c.TargetName != c.Name
}

// TableStructure is the ordered column list of one table, in declaration order.
type TableStructure []ColumnDefinition

// Names returns the source column names in order.
func (ts TableStructure) Names() []string {
	names := make([]string, len(ts))
	for i, c := range ts {
		names[i] = c.Name
	}
	return names
}

// TargetNames returns the target column names in order.
func (ts TableStructure) TargetNames() []string {
	names := make([]string, len(ts))
	for i, c := range ts {
		names[i] = c.TargetName
	}
	return names
}

// ByRole returns the columns with the given aggregate role, order preserved.
func (ts TableStructure) ByRole(role AggregateRole) TableStructure {
	var out TableStructure
	for _, c := range ts {
		if c.AggregateRole == role {
			out = append(out, c)
		}
	}
	return out
}

// Lookup returns the first column with the given source name.
func (ts TableStructure) Lookup(name string) (ColumnDefinition, bool) {
	for _, c := range ts {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// Duplicates returns source names that appear more than once, in order of
// their second appearance.
func (ts TableStructure) Duplicates() []string {
	seen := make(map[string]int, len(ts))
	var dups []string
	for _, c := range ts {
		seen[c.Name]++
		if seen[c.Name] == 2 {
			dups = append(dups, c.Name)
		}
	}
	return dups
}

// WithRenames returns a copy whose target names are taken from renames where
// a key matches a source name exactly; other columns target their own name.
func (ts TableStructure) WithRenames(renames map[string]string) TableStructure {
	out := make(TableStructure, len(ts))
	for i, c := range ts {
		c.TargetName = c.Name
		if target, ok := renames[c.Name]; ok {
			c.TargetName = target
		}
		out[i] = c
	}
	return out
}

// SkippedDefinition is a column-list element that produced no column.
type SkippedDefinition struct {
	Text   string `json:"text" yaml:"text"`
	Reason string `json:"reason" yaml:"reason"`
}

// ParsedTable bundles the name, layer and columns derived from one statement.
type ParsedTable struct {
	Schema    string              `json:"schema" yaml:"schema"`
	Name      string              `json:"name" yaml:"name"`
	Layer     Layer               `json:"layer" yaml:"layer"`
	Columns   TableStructure      `json:"columns" yaml:"columns"`
	Skipped   []SkippedDefinition `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Statement string              `json:"-" yaml:"-"`
}

// QualifiedName returns schema.name, or the bare name when the schema is unknown.
func (t ParsedTable) QualifiedName() string {
	if t.Schema == "" || t.Schema == UnknownSchema {
		return t.Name
	}
	return t.Schema + "." + t.Name
}
