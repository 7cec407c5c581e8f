package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AntTheLimey/layercheck/internal/models"
)

// ExtractTableName returns the unqualified table name of a CREATE TABLE
// statement. Three-part, two-part and bare names followed by "(" are tried in
// that order; failing those, the token after CREATE TABLE is used and only its
// last dot-separated segment is kept. ok is false only when no identifier
// follows CREATE TABLE.
func ExtractTableName(stmt string) (string, bool) {
	if m := reThreePartName.FindStringSubmatch(stmt); m != nil {
		return unquote(m[3]), true
	}
	if m := reTwoPartName.FindStringSubmatch(stmt); m != nil {
		return unquote(m[2]), true
	}
	if m := reBareName.FindStringSubmatch(stmt); m != nil {
		return unquote(m[1]), true
	}
	if m := reFallbackName.FindStringSubmatch(stmt); m != nil {
		_, name := splitQualified(m[1])
		if name != "" {
			return name, true
		}
	}
	return "", false
}

// ExtractSchemaName returns everything before the last name segment, with
// quoting removed, or models.UnknownSchema when the name is not qualified.
func ExtractSchemaName(stmt string) string {
	if m := reThreePartName.FindStringSubmatch(stmt); m != nil {
		return unquote(m[1]) + "." + unquote(m[2])
	}
	if m := reTwoPartName.FindStringSubmatch(stmt); m != nil {
		return unquote(m[1])
	}
	if reBareName.MatchString(stmt) {
		return models.UnknownSchema
	}
	if m := reFallbackName.FindStringSubmatch(stmt); m != nil {
		if schema, _ := splitQualified(m[1]); schema != "" {
			return schema
		}
	}
	return models.UnknownSchema
}

// unquote strips backtick, double-quote or bracket wrappers from an identifier.
func unquote(name string) string {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return name
	}
	switch first, last := name[0], name[len(name)-1]; {
	case first == '"' && last == '"',
		first == '`' && last == '`',
		first == '[' && last == ']':
		return name[1 : len(name)-1]
	}
	return name
}

// splitQualified splits a dotted name at its last dot and strips every quote
// character from both parts. schema is empty for an unqualified name.
func splitQualified(name string) (schema, table string) {
	strip := func(s string) string {
		return strings.Trim(strings.NewReplacer("`", "", `"`, "", "[", "", "]", "").Replace(s), ". ")
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return strip(name[:idx]), strip(name[idx+1:])
	}
	return "", strip(name)
}

// SchemaClassifier assigns a schema to a comparison layer. It is advisory and
// used to pre-fill the DDV and EDV sides of generated queries.
type SchemaClassifier interface {
	ClassifySchema(schema string) models.Layer
}

// ClassifierFunc adapts a plain function to SchemaClassifier.
type ClassifierFunc func(schema string) models.Layer

// ClassifySchema calls f(schema).
func (f ClassifierFunc) ClassifySchema(schema string) models.Layer {
	return f(schema)
}

// MarkerClassifier matches case-insensitive patterns against the schema name.
// A schema matching only DDV markers is DDV, only EDV markers is EDV, and
// anything else is unknown.
type MarkerClassifier struct {
	DDV []*regexp.Regexp
	EDV []*regexp.Regexp
}

// DefaultDDVMarkers and DefaultEDVMarkers are used when no markers are configured.
var (
	DefaultDDVMarkers = []string{"ddv"}
	DefaultEDVMarkers = []string{"edv"}
)

// NewMarkerClassifier compiles the given marker patterns.
func NewMarkerClassifier(ddv, edv []string) (*MarkerClassifier, error) {
	d, err := compileMarkers(ddv)
	if err != nil {
		return nil, fmt.Errorf("ddv markers: %w", err)
	}
	e, err := compileMarkers(edv)
	if err != nil {
		return nil, fmt.Errorf("edv markers: %w", err)
	}
	return &MarkerClassifier{DDV: d, EDV: e}, nil
}

// DefaultClassifier returns a MarkerClassifier using the default markers.
func DefaultClassifier() *MarkerClassifier {
	c, err := NewMarkerClassifier(DefaultDDVMarkers, DefaultEDVMarkers)
	if err != nil {
		panic(err)
	}
	return c
}

func compileMarkers(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// ClassifySchema implements SchemaClassifier.
func (c *MarkerClassifier) ClassifySchema(schema string) models.Layer {
	if schema == "" || schema == models.UnknownSchema {
		return models.LayerUnknown
	}
	ddv := anyMatch(c.DDV, schema)
	edv := anyMatch(c.EDV, schema)
	switch {
	case ddv && !edv:
		return models.LayerDDV
	case edv && !ddv:
		return models.LayerEDV
	}
	return models.LayerUnknown
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
