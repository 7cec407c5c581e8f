package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AntTheLimey/layercheck/internal/models"
)

var (
	reMeasureType = regexp.MustCompile(`^(?:` +
		`(?:DOUBLE(?: PRECISION)?|FLOAT|REAL|NUMERIC|DECIMAL)(?:\(\d+(?:,\d+)?\))?|` +
		`NUMBER\(\d+,\d+\))$`)
	reSpaceRun   = regexp.MustCompile(`\s+`)
	reParenSpace = regexp.MustCompile(`\s*([(),])\s*`)
)

// TypeClassifier maps a declared column type to an aggregate role. The
// built-in measure types are always recognised; Extra adds more.
type TypeClassifier struct {
	Extra []*regexp.Regexp
}

// NewTypeClassifier compiles extra measure-type patterns. Each pattern must
// match the whole normalised type (uppercase, no spaces around parentheses or
// commas).
func NewTypeClassifier(extra []string) (*TypeClassifier, error) {
	tc := &TypeClassifier{}
	for _, p := range extra {
		re, err := regexp.Compile(`(?i)^(?:` + p + `)$`)
		if err != nil {
			return nil, fmt.Errorf("measure type %q: %w", p, err)
		}
		tc.Extra = append(tc.Extra, re)
	}
	return tc, nil
}

// Classify returns RoleSum for numeric measure types and RoleCount otherwise.
// A nil classifier uses the built-in types only.
func (tc *TypeClassifier) Classify(declaredType string) models.AggregateRole {
	norm := NormalizeType(declaredType)
	if reMeasureType.MatchString(norm) {
		return models.RoleSum
	}
	if tc != nil {
		for _, re := range tc.Extra {
			if re.MatchString(norm) {
				return models.RoleSum
			}
		}
	}
	return models.RoleCount
}

// ClassifyType classifies with the built-in measure types.
func ClassifyType(declaredType string) models.AggregateRole {
	var tc *TypeClassifier
	return tc.Classify(declaredType)
}

// NormalizeType uppercases a type, collapses whitespace runs and removes
// whitespace around parentheses and commas: "decimal ( 10, 2 )" becomes
// "DECIMAL(10,2)".
func NormalizeType(declaredType string) string {
	t := strings.ToUpper(strings.TrimSpace(declaredType))
	t = reSpaceRun.ReplaceAllString(t, " ")
	return reParenSpace.ReplaceAllString(t, "$1")
}
