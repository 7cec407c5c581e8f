package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AntTheLimey/layercheck/internal/parser"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "List the CREATE TABLE statements found in a file",
	Long: "Scan loosely formatted text (log excerpts, notebooks, migration files) for " +
		"CREATE TABLE statements and print each one with the rule that delimited it.",
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, source, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	found := parser.FindStatements(text)
	if len(found) == 0 {
		return fmt.Errorf("%s: %w", source, parser.ErrNoStatementFound)
	}

	out := cmd.OutOrStdout()
	for i, c := range found {
		name, _ := parser.ExtractTableName(c.Text)
		fmt.Fprintf(out, "-- [%d/%d] %s (%s, offset %d)\n", i+1, len(found), name, c.Strategy, c.Offset)
		fmt.Fprintln(out, ensureNewline(c.Text))
	}
	return nil
}
