package parser

import (
	"fmt"
	"regexp"

	"github.com/AntTheLimey/layercheck/internal/models"
)

// createTableHeader matches the statement head up to the table name.
const createTableHeader = `(?i)\bCREATE\s+(?:OR\s+REPLACE\s+)?(?:(?:GLOBAL|LOCAL)\s+)?` +
	`(?:(?:TEMPORARY|TEMP|EXTERNAL|UNLOGGED|TRANSIENT)\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?`

// identSegment matches one name segment, optionally quoted.
const identSegment = "(`[^`]+`|\"[^\"]+\"|\\[[^\\]]+\\]|[\\w$]+)"

// Compiled regex patterns
var (
	reCreateTable = regexp.MustCompile(createTableHeader)

	reThreePartName = regexp.MustCompile(createTableHeader +
		identSegment + `\s*\.\s*` + identSegment + `\s*\.\s*` + identSegment + `\s*\(`)
	reTwoPartName  = regexp.MustCompile(createTableHeader + identSegment + `\s*\.\s*` + identSegment + `\s*\(`)
	reBareName     = regexp.MustCompile(createTableHeader + identSegment + `\s*\(`)
	reFallbackName = regexp.MustCompile(createTableHeader + `([^\s(]+)`)

	// Statement boundaries
	reTblProperties = regexp.MustCompile(`(?i)\bTBLPROPERTIES\s*\(`)
	reTrailingSemi  = regexp.MustCompile(`^\s*;`)
	reTrailingClause = regexp.MustCompile(`(?i)^\s*(?:` +
		`PARTITIONED\s+BY\s*\(|PARTITION\s+BY\s+\w+\s*\(|CLUSTER(?:ED)?\s+BY\s*\(|` +
		`OPTIONS\s*\(|WITH\s*\(|` +
		`USING\s+\w+|LOCATION\s+'[^']*'|COMMENT\s+'[^']*'|STORED\s+AS\s+\w+|` +
		`ROW\s+FORMAT\s+SERDE\s+'[^']*'|ROW\s+FORMAT\s+DELIMITED(?:\s+\w+\s+TERMINATED\s+BY\s+'[^']*')*)`)
	reBodyTerminator = regexp.MustCompile(`(?i)\)\s*(?:USING|PARTITIONED|LOCATION|TBLPROPERTIES)\b`)

	// Column parsing patterns
	reNotNull  = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	reDefault  = regexp.MustCompile(`(?i)\bDEFAULT\b`)
	reTypeWord = regexp.MustCompile(`^[^\s(<,]+`)
	reTypeTail = regexp.MustCompile(`(?i)^\s+(?:PRECISION|VARYING|UNSIGNED|WITH(?:OUT)?\s+(?:LOCAL\s+)?TIME\s+ZONE)\b`)

	// Table constraint keywords, matched at the start of a definition only
	reTableConstraintKw = regexp.MustCompile(`(?i)^(?:` +
		`PRIMARY\s+KEY|FOREIGN\s+KEY|CONSTRAINT\s|CHECK\s*\(|EXCLUDE\b|PERIOD\s+FOR\b|LIKE\s)`)

	// Index definitions share their leading word with columns named key,
	// index or unique, so the optional name and "(" are checked further.
	reIndexConstraint = regexp.MustCompile("(?i)^(?:(?:UNIQUE|FULLTEXT|SPATIAL)\\b(?:\\s+(?:INDEX|KEY))?|INDEX\\b|KEY\\b)" +
		"(?:\\s+([\\w`\"]+))?\\s*\\(")
	reIndexOptions = regexp.MustCompile(`(?i)^(?:\s+(?:USING\s+\w+|COMMENT\s+'[^']*'|KEY_BLOCK_SIZE\s*=?\s*\w+|` +
		`WITH\s+PARSER\s+\w+|VISIBLE|INVISIBLE|NOT\s+ENFORCED|ENFORCED))*\s*$`)
	reTypeQualifier = regexp.MustCompile(`(?i)^\s*(?:\d+\s*(?:,\s*\d+\s*)?|MAX\s*)$`)

	// A line inside a semicolon candidate that starts another statement
	reStatementStart = regexp.MustCompile(`(?im)^\s*(?:INSERT|UPDATE|DELETE|SELECT|ALTER|DROP|MERGE|GRANT|REVOKE|` +
		`TRUNCATE|COPY|LOAD|USE|CALL|EXEC(?:UTE)?)\b`)
)

// ParseTable derives the schema, table name, layer and columns of one
// statement. Column target names come from renames. The only error is
// ErrNoColumnBody, wrapped with the table name.
func ParseTable(stmt string, renames map[string]string, opts Options) (models.ParsedTable, error) {
	name, _ := ExtractTableName(stmt)
	schema := ExtractSchemaName(stmt)

	tbl := models.ParsedTable{
		Schema:    schema,
		Name:      name,
		Layer:     opts.schemas().ClassifySchema(schema),
		Statement: stmt,
	}

	body, err := ExtractColumnsBody(stmt)
	if err != nil {
		opts.logger().Warn("statement has no column body", "table", tbl.QualifiedName())
		return tbl, fmt.Errorf("parse %s: %w", tbl.QualifiedName(), err)
	}

	tbl.Columns, tbl.Skipped = ParseColumnsDetailed(body, renames, opts)
	opts.logger().Debug("parsed table",
		"table", tbl.QualifiedName(),
		"layer", tbl.Layer.String(),
		"columns", len(tbl.Columns),
		"skipped", len(tbl.Skipped))
	return tbl, nil
}
