package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AntTheLimey/layercheck/internal/models"
)

var (
	parseRenames string
	parseTable   string
	parseAll     bool
	parseOut     outputFlags
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Show the column structure of a CREATE TABLE statement",
	Long: "Parse one CREATE TABLE statement into its schema, layer and ordered column " +
		"list. Each column is classified as a SUM (floating or fixed point) or a COUNT " +
		"candidate, and renamed through the optional rename map.",
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseRenames, "renames", "", "Rename map file (text pairs or YAML)")
	parseCmd.Flags().StringVarP(&parseTable, "table", "t", "", "Table to show when the input holds several (fuzzy)")
	parseCmd.Flags().BoolVar(&parseAll, "all", false, "Show every table found")
	addOutputFlags(parseCmd, &parseOut)
}

func runParse(cmd *cobra.Command, args []string) error {
	text, source, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	m, err := loadRenames(parseRenames)
	if err != nil {
		return err
	}
	report, err := importText(cmd.Context(), text, source, m)
	if err != nil {
		return err
	}

	tables := report.Tables
	if !parseAll {
		tbl, err := selectTable(report.Tables, parseTable)
		if err != nil {
			return err
		}
		tables = []models.ParsedTable{tbl}
	}

	output, err := renderTables(tables, cfg.Output.Format)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), output, parseOut, cfg.Output.Format, source)
}

// renderTables prints table structures. Report-only formats fall back to
// the column listing.
func renderTables(tables []models.ParsedTable, format string) (string, error) {
	switch format {
	case "json":
		out, err := json.MarshalIndent(tables, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal json: %w", err)
		}
		return string(out), nil
	case "yaml":
		out, err := yaml.Marshal(tables)
		if err != nil {
			return "", fmt.Errorf("marshal yaml: %w", err)
		}
		return string(out), nil
	case "text", "markdown", "html":
		parts := make([]string, len(tables))
		for i, t := range tables {
			parts[i] = columnListing(t)
		}
		return strings.Join(parts, "\n\n"), nil
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func columnListing(t models.ParsedTable) string {
	rows := make([][]string, len(t.Columns))
	for i, c := range t.Columns {
		target := ""
		if c.Renamed() {
			target = c.TargetName
		}
		rows[i] = []string{strconv.Itoa(i + 1), c.Name, c.DeclaredType, c.AggregateRole.String(), target, strconv.FormatBool(c.Nullable)}
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "COLUMN", "TYPE", "ROLE", "TARGET", "NULLABLE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %d columns)\n", t.QualifiedName(), t.Layer, len(t.Columns))
	b.WriteString(tbl.String())
	for _, s := range t.Skipped {
		fmt.Fprintf(&b, "\nskipped %q: %s", s.Text, s.Reason)
	}
	return b.String()
}
