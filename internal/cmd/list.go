package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AntTheLimey/layercheck/internal/analyzer"
	"github.com/AntTheLimey/layercheck/internal/templates"
)

var listChecksCategory string

var listTemplatesCmd = &cobra.Command{
	Use:   "list-templates",
	Short: "List the query templates",
	Run:   runListTemplates,
}

var listChecksCmd = &cobra.Command{
	Use:   "list-checks",
	Short: "List the advisory checks run after each import",
	Run:   runListChecks,
}

func init() {
	listChecksCmd.Flags().StringVar(&listChecksCategory, "category", "", "Only list checks in this category")
}

func runListTemplates(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	for _, t := range templates.All() {
		sides := "ddv"
		if t.TwoSided() {
			sides = "ddv+edv"
		}
		fmt.Fprintf(out, "  %-12s %-8s %s\n", t.Name(), sides, t.Description())
	}
}

func runListChecks(cmd *cobra.Command, _ []string) {
	checks := make([]analyzer.CheckDef, 0, len(analyzer.StaticChecks))
	for _, c := range analyzer.StaticChecks {
		if listChecksCategory == "" || c.Category == listChecksCategory {
			checks = append(checks, c)
		}
	}
	out := cmd.OutOrStdout()
	if len(checks) == 0 {
		fmt.Fprintln(out, "No checks found.")
		return
	}
	sort.SliceStable(checks, func(i, j int) bool { return checks[i].Category < checks[j].Category })

	currentCat := ""
	for _, c := range checks {
		if c.Category != currentCat {
			currentCat = c.Category
			fmt.Fprintf(out, "\n[%s]\n", currentCat)
		}
		fmt.Fprintf(out, "  %-22s %s\n", c.Name, c.Description)
	}
}
