package cmd

import (
	"fmt"
	"os"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"

	"github.com/AntTheLimey/layercheck/internal/analyzer"
	"github.com/AntTheLimey/layercheck/internal/reporter"
)

var (
	importRenames    string
	importNoProgress bool
	importOut        outputFlags
)

var importCmd = &cobra.Command{
	Use:   "import <file|dir>...",
	Short: "Import DDL in bulk and report on every table",
	Long: "Extract and parse every CREATE TABLE statement in the given files and " +
		"directories, run the advisory checks and render a report.",
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importRenames, "renames", "", "Rename map file (text pairs or YAML)")
	importCmd.Flags().Int("workers", 4, "Statements parsed in parallel")
	importCmd.Flags().BoolVar(&importNoProgress, "no-progress", false, "Hide the progress bar")
	addOutputFlags(importCmd, &importOut)
}

// barProgress drives a uiprogress bar on stderr.
type barProgress struct {
	p   *uiprogress.Progress
	bar *uiprogress.Bar
}

func (b *barProgress) Start(total int) {
	b.p = uiprogress.New()
	b.p.SetOut(os.Stderr)
	b.p.Start()
	b.bar = b.p.AddBar(max(total, 1)).AppendCompleted().PrependElapsed()
	b.bar.PrependFunc(func(*uiprogress.Bar) string {
		return "Parsing: "
	})
}

func (b *barProgress) Step() {
	b.bar.Incr()
}

func (b *barProgress) Stop() {
	if b.p != nil {
		b.p.Stop()
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	sources, err := collectSources(args)
	if err != nil {
		return err
	}
	m, err := loadRenames(importRenames)
	if err != nil {
		return err
	}

	var progress *barProgress
	if !importNoProgress && !verbose {
		progress = &barProgress{}
	}
	var p analyzer.Progress
	if progress != nil {
		p = progress
	}
	opts, err := importOptions(m, p)
	if err != nil {
		return err
	}

	label := args[0]
	if len(sources) != 1 {
		label = fmt.Sprintf("%d files", len(sources))
	}
	report, err := analyzer.RunImport(cmd.Context(), sources, label, opts)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	format := cfg.Output.Format
	output, err := reporter.Render(report, format)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), output, importOut, format, label)
}
