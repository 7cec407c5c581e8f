package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AntTheLimey/layercheck/internal/formatter"
	"github.com/AntTheLimey/layercheck/internal/highlight"
	"github.com/AntTheLimey/layercheck/internal/templates"
)

var (
	genRenames   string
	genTable     string
	genDDVSchema string
	genEDVSchema string
	genEDVTable  string
	genColor     bool
	genOut       outputFlags
)

var generateCmd = &cobra.Command{
	Use:   "generate <template> [file]",
	Short: "Generate comparison SQL for a table",
	Long: "Render a query template for one parsed table and lay its field lists out " +
		"with the readable width. Run list-templates to see the available templates.",
	Args: cobra.RangeArgs(1, 2),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genRenames, "renames", "", "Rename map file (text pairs or YAML)")
	generateCmd.Flags().StringVarP(&genTable, "table", "t", "", "Table to use when the input holds several (fuzzy)")
	generateCmd.Flags().StringVar(&genDDVSchema, "ddv-schema", "", "DDV schema (default: the statement's schema)")
	generateCmd.Flags().StringVar(&genEDVSchema, "edv-schema", "", "EDV schema, required by two-sided templates")
	generateCmd.Flags().StringVar(&genEDVTable, "edv-table", "", "EDV table name (default: the DDV table name)")
	generateCmd.Flags().Int("width", formatter.ReadableWidth, "Line width for field lists")
	generateCmd.Flags().Bool("quote", false, "Quote every identifier")
	generateCmd.Flags().BoolVar(&genColor, "color", false, "Highlight the SQL for a terminal")
	generateCmd.Flags().StringVarP(&genOut.Output, "output", "o", "", "Output file path (default: stdout)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	tpl, err := templates.Get(args[0])
	if err != nil {
		return err
	}
	text, source, err := readInput(cmd, args[1:])
	if err != nil {
		return err
	}
	m, err := loadRenames(genRenames)
	if err != nil {
		return err
	}
	report, err := importText(cmd.Context(), text, source, m)
	if err != nil {
		return err
	}
	tbl, err := selectTable(report.Tables, genTable)
	if err != nil {
		return err
	}

	sql, err := tpl.Render(templates.Input{
		Table:     tbl,
		DDVSchema: genDDVSchema,
		EDVSchema: genEDVSchema,
		EDVTable:  genEDVTable,
		Quote:     cfg.Parser.QuoteIdentifiers,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", tpl.Name(), err)
	}
	sql = formatter.FormatSkeleton(sql, cfg.FormatOptions())

	if genColor && genOut.Output == "" {
		sql = highlight.New(highlight.DefaultTheme()).Highlight(sql)
	}
	return writeOutput(cmd.OutOrStdout(), sql, genOut, "sql", tbl.Name)
}
