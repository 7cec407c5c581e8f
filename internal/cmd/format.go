package cmd

import (
	"github.com/spf13/cobra"

	"github.com/AntTheLimey/layercheck/internal/formatter"
	"github.com/AntTheLimey/layercheck/internal/highlight"
)

var (
	formatColor bool
	formatOut   outputFlags
)

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Repack the SELECT field lists of a query",
	Long: "Repack long SELECT field lists onto lines no wider than the readable " +
		"width. Everything outside the field lists is left byte for byte.",
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().Int("width", formatter.ReadableWidth, "Line width for field lists")
	formatCmd.Flags().BoolVar(&formatColor, "color", false, "Highlight the SQL for a terminal")
	formatCmd.Flags().StringVarP(&formatOut.Output, "output", "o", "", "Output file path (default: stdout)")
}

func runFormat(cmd *cobra.Command, args []string) error {
	text, source, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	sql := formatter.FormatSkeleton(text, cfg.FormatOptions())
	if formatColor && formatOut.Output == "" {
		sql = highlight.New(highlight.DefaultTheme()).Highlight(sql)
	}
	return writeOutput(cmd.OutOrStdout(), sql, formatOut, "sql", source)
}
