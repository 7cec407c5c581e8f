// Package templates defines the query templates that turn a parsed table into
// comparison SQL, and the global registry they are kept in.
package templates

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/AntTheLimey/layercheck/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/sahilm/fuzzy"
)

var (
	// ErrNoColumns is returned when the table has no columns to select.
	ErrNoColumns = errors.New("table has no columns")
	// ErrNoEDVSchema is returned by two-sided templates without an EDV schema.
	ErrNoEDVSchema = errors.New("EDV schema is required")
)

// Template renders SQL for one parsed table.
type Template interface {
	// Name returns the unique identifier for this template.
	Name() string
	// Description returns a human-readable summary of the query produced.
	Description() string
	// TwoSided reports whether the template reads both the DDV and EDV tables.
	TwoSided() bool
	// Render builds the query. Field lists are rendered on one line.
	Render(in Input) (string, error)
}

// Input is what a template renders from. The DDV side reads source column
// names and the EDV side reads target names.
type Input struct {
	Table     models.ParsedTable
	DDVSchema string // defaults to Table.Schema
	EDVSchema string
	EDVTable  string // defaults to Table.Name
	Quote     bool   // quote every identifier
}

// DDVName returns the qualified DDV table identifier.
func (in Input) DDVName() string {
	schema := in.DDVSchema
	if schema == "" {
		schema = in.Table.Schema
	}
	return Ident(in.Quote, append(strings.Split(schema, "."), in.Table.Name)...)
}

// EDVName returns the qualified EDV table identifier.
func (in Input) EDVName() string {
	table := in.EDVTable
	if table == "" {
		table = in.Table.Name
	}
	return Ident(in.Quote, append(strings.Split(in.EDVSchema, "."), table)...)
}

var rePlainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Ident joins name parts with dots, skipping empty parts and the unknown
// schema sentinel. Parts are quoted when quote is set or when any part is not
// a plain identifier.
func Ident(quote bool, parts ...string) string {
	var id pgx.Identifier
	for _, p := range parts {
		if p == "" || p == models.UnknownSchema {
			continue
		}
		id = append(id, p)
	}
	if !quote {
		plain := true
		for _, seg := range id {
			if !rePlainIdent.MatchString(seg) {
				plain = false
				break
			}
		}
		if plain {
			return strings.Join(id, ".")
		}
	}
	return id.Sanitize()
}

var registry []Template

// Register adds a template to the global registry. Called from init().
func Register(t Template) {
	registry = append(registry, t)
}

// ResetRegistry clears the global registry. Used only in tests.
func ResetRegistry() {
	registry = nil
}

// All returns the registered templates sorted by name.
func All() []Template {
	out := make([]Template, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names returns the sorted template names.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name()
	}
	return names
}

// Get looks a template up by name. An unknown name reports the closest
// registered names.
func Get(name string) (Template, error) {
	for _, t := range registry {
		if t.Name() == name {
			return t, nil
		}
	}
	names := Names()
	var near []string
	for _, m := range fuzzy.Find(name, names) {
		near = append(near, m.Str)
	}
	if len(near) > 0 {
		return nil, fmt.Errorf("unknown template %q (did you mean %s?)", name, strings.Join(near, ", "))
	}
	return nil, fmt.Errorf("unknown template %q (available: %s)", name, strings.Join(names, ", "))
}
