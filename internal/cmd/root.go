// Package cmd implements the CLI commands for layercheck.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AntTheLimey/layercheck/internal/config"
)

const version = "0.1.0"

var (
	cfgFile string
	verbose bool

	// Populated by the root PersistentPreRunE before any command runs.
	cfg    *config.Config
	logger *slog.Logger
	v      = viper.New()
)

// flagKeys binds command flags to config keys so that an explicit flag beats
// the file and the environment.
var flagKeys = map[string]string{
	"format":  "output.format",
	"width":   "format.readable_width",
	"limit":   "format.cell_limit",
	"workers": "import.workers",
	"quote":   "parser.quote_identifiers",
}

var rootCmd = &cobra.Command{
	Use:   "layercheck",
	Short: "Parse DDV/EDV table DDL and generate comparison queries",
	Long: "layercheck extracts CREATE TABLE statements from loosely formatted text, " +
		"classifies each column as a COUNT or SUM candidate and lays out the " +
		"comparison SQL that checks a DDV table against its EDV counterpart.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug detail to stderr")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(listTemplatesCmd)
	rootCmd.AddCommand(listChecksCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command. Called from main().
func Execute() error {
	// Default to import when the first argument is an existing path
	if len(os.Args) > 1 {
		first := os.Args[1]
		if !strings.HasPrefix(first, "-") && !isSubcommand(first) {
			if _, err := os.Stat(first); err == nil {
				os.Args = append([]string{os.Args[0], "import"}, os.Args[1:]...)
			}
		}
	}
	return rootCmd.Execute()
}

func isSubcommand(name string) bool {
	if name == "help" || name == "completion" {
		return true
	}
	for _, c := range rootCmd.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

func setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = newLogger(os.Stderr, level)

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}

	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded
	logger.Debug("config loaded", "file", v.ConfigFileUsed())
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Output flags shared by the report commands.
type outputFlags struct {
	Format string
	Output string
}

func addOutputFlags(cmd *cobra.Command, f *outputFlags) {
	cmd.Flags().StringVarP(&f.Format, "format", "f", "text", "Report format (text, json, yaml, markdown, html)")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "Output file path (default: stdout, or ./reports/<source>_<timestamp>.html for html)")
}
