package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AntTheLimey/layercheck/internal/formatter"
)

var chunkOutput string

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Split long lines into spreadsheet-sized CSV cells",
	Long: "Write one CSV row per input line. Lines longer than the cell limit are cut " +
		"at token boundaries into consecutive cells, so each cell fits a spreadsheet.",
	Args: cobra.MaximumNArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().Int("limit", formatter.SpreadsheetCellLimit, "Maximum characters per cell")
	chunkCmd.Flags().StringVarP(&chunkOutput, "output", "o", "", "CSV file path (default: stdout)")
}

func runChunk(cmd *cobra.Command, args []string) error {
	text, _, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	rows, err := formatter.ChunkRows(text, cfg.Format.CellLimit)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if chunkOutput != "" {
		f, err := os.Create(chunkOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", chunkOutput, err)
		}
		defer f.Close()
		w = f
	}
	if err := writeCSV(w, rows); err != nil {
		return err
	}
	if chunkOutput != "" {
		fmt.Fprintf(os.Stderr, "%d rows written to %s\n", len(rows), chunkOutput)
	}
	return nil
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	for _, row := range rows {
		if row == nil {
			row = []string{""}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
