package parser

import (
	"strings"
	"unicode"

	"github.com/AntTheLimey/layercheck/internal/models"
	"github.com/AntTheLimey/layercheck/internal/scanner"
)

// ExtractColumnsBody returns the text between the "(" that follows the table
// name and its matching ")". When the parentheses never balance, the body ends
// before a ") USING|PARTITIONED|LOCATION|TBLPROPERTIES" clause, or else at the
// last ")". ErrNoColumnBody is returned when neither bound exists.
func ExtractColumnsBody(stmt string) (string, error) {
	from := 0
	if loc := reCreateTable.FindStringIndex(stmt); loc != nil {
		from = loc[1]
	}
	open := bodyOpenParen(stmt, from)
	if open < 0 {
		return "", ErrNoColumnBody
	}
	if closeAt := scanner.MatchingParen(stmt, open); closeAt >= 0 {
		return stmt[open+1 : closeAt], nil
	}

	rest := stmt[open+1:]
	if loc := reBodyTerminator.FindStringIndex(rest); loc != nil {
		return rest[:loc[0]], nil
	}
	if last := strings.LastIndexByte(rest, ')'); last >= 0 {
		return rest[:last], nil
	}
	return "", ErrNoColumnBody
}

// ParseColumns parses a column body with the built-in type classifier.
// Constraints and malformed definitions are left out.
func ParseColumns(body string, renames map[string]string) models.TableStructure {
	cols, _ := ParseColumnsDetailed(body, renames, Options{})
	return cols
}

// ParseColumnsDetailed parses a column body and also returns the definitions
// that could not be read as columns. Table-level constraints are dropped
// without being reported.
func ParseColumnsDetailed(body string, renames map[string]string, opts Options) (models.TableStructure, []models.SkippedDefinition) {
	log := opts.logger()

	var cols models.TableStructure
	var skipped []models.SkippedDefinition
	for _, def := range definitions(body) {
		if isTableConstraint(def) {
			log.Debug("skipping table constraint", "definition", def)
			continue
		}

		col, reason := parseColumn(def, opts.Types)
		if col == nil {
			log.Debug("skipping malformed column definition", "definition", def, "reason", reason)
			skipped = append(skipped, models.SkippedDefinition{Text: def, Reason: reason})
			continue
		}

		col.TargetName = col.Name
		if target, ok := renames[col.Name]; ok {
			col.TargetName = target
		}
		cols = append(cols, *col)
	}
	return cols, skipped
}

// isTableConstraint reports whether def is a table-level constraint or
// index rather than a column. An index definition must have its column list
// as the last element, followed only by index options, and a named one must
// not read as a type with a numeric qualifier: "key VARCHAR(100)" and
// "index DECIMAL(10,2)" are columns.
func isTableConstraint(def string) bool {
	if reTableConstraintKw.MatchString(def) {
		return true
	}
	m := reIndexConstraint.FindStringSubmatchIndex(def)
	if m == nil {
		return false
	}
	open := m[1] - 1
	closeAt := scanner.MatchingParen(def, open)
	if closeAt < 0 {
		return m[2] < 0
	}
	if !reIndexOptions.MatchString(def[closeAt+1:]) {
		return false
	}
	named := m[2] >= 0
	return !named || !reTypeQualifier.MatchString(def[open+1:closeAt])
}

// definitions splits a column body on top-level commas, keeping together the
// commas inside angle-bracket type parameters such as MAP<STRING, INT>.
func definitions(body string) []string {
	var defs []string
	start, depth := -1, 0
	for _, sp := range scanner.TopLevelSpans(body, ',') {
		if start < 0 {
			start = sp.Start
		}
		depth = angleDepth(sp.Text(body), depth)
		if depth > 0 {
			continue
		}
		if def := strings.TrimSpace(body[start:sp.End]); def != "" {
			defs = append(defs, def)
		}
		start = -1
	}
	if start >= 0 {
		if def := strings.TrimSpace(body[start:]); def != "" {
			defs = append(defs, def)
		}
	}
	return defs
}

// angleDepth continues an angle-bracket depth count over text. Only "<"
// directly after an identifier character opens a level.
func angleDepth(text string, depth int) int {
	scanner.Walk(text, func(i int, ch byte, st scanner.State) bool {
		if !st.TopLevel() {
			return true
		}
		switch {
		case ch == '<' && i > 0 && isIdentByte(text[i-1]):
			depth++
		case ch == '>' && depth > 0:
			depth--
		}
		return true
	})
	return depth
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// parseColumn reads one column definition. It returns nil and a reason when
// the definition does not hold a name and a type.
func parseColumn(def string, types *TypeClassifier) (*models.ColumnDefinition, string) {
	name, rest, ok := splitColumnName(def)
	if !ok {
		return nil, "unterminated quoted name"
	}
	rest = strings.TrimSpace(rest)
	if name == "" || rest == "" {
		return nil, "fewer than two tokens"
	}

	declared, tail := splitDeclaredType(rest)
	if declared == "" {
		return nil, "missing type"
	}

	return &models.ColumnDefinition{
		Name:          name,
		DeclaredType:  declared,
		AggregateRole: types.Classify(declared),
		Nullable:      !reNotNull.MatchString(tail),
		HasDefault:    reDefault.MatchString(tail),
	}, ""
}

// splitColumnName separates the leading, possibly quoted, column name from the
// rest of the definition. Quoted names may contain spaces.
func splitColumnName(def string) (name, rest string, ok bool) {
	var closer byte
	switch def[0] {
	case '"', '`':
		closer = def[0]
	case '[':
		closer = ']'
	default:
		idx := strings.IndexFunc(def, unicode.IsSpace)
		if idx < 0 {
			return def, "", true
		}
		return def[:idx], def[idx:], true
	}

	end := strings.IndexByte(def[1:], closer)
	if end < 0 {
		return "", "", false
	}
	return def[1 : 1+end], def[2+end:], true
}

// splitDeclaredType reads the type at the start of rest and returns it with
// the remaining text. A parenthesised qualifier right after the type word is
// absorbed up to its matching ")" with spacing around punctuation removed, so
// "DECIMAL (10, 2)" reads as "DECIMAL(10,2)". Multi-word types such as
// DOUBLE PRECISION and angle-bracket parameters are kept whole.
func splitDeclaredType(rest string) (declared, tail string) {
	word := reTypeWord.FindString(rest)
	if word == "" {
		return "", rest
	}

	var b strings.Builder
	b.WriteString(word)
	pos := len(word)
	absorbedParen := false
	for {
		after := rest[pos:]
		trimmed := strings.TrimLeftFunc(after, unicode.IsSpace)

		if strings.HasPrefix(after, "<") {
			closeAt := matchingAngle(rest, pos)
			if closeAt < 0 {
				break
			}
			b.WriteString(rest[pos : closeAt+1])
			pos = closeAt + 1
			continue
		}

		if !absorbedParen && strings.HasPrefix(trimmed, "(") {
			open := pos + len(after) - len(trimmed)
			closeAt := scanner.MatchingParen(rest, open)
			if closeAt < 0 {
				break
			}
			b.WriteString(reParenSpace.ReplaceAllString(rest[open:closeAt+1], "$1"))
			pos = closeAt + 1
			absorbedParen = true
			continue
		}

		if loc := reTypeTail.FindStringIndex(after); loc != nil {
			b.WriteByte(' ')
			b.WriteString(reSpaceRun.ReplaceAllString(strings.TrimSpace(after[:loc[1]]), " "))
			pos += loc[1]
			continue
		}
		break
	}
	return b.String(), rest[pos:]
}

// matchingAngle returns the index of the ">" closing the "<" at open, or -1.
func matchingAngle(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
