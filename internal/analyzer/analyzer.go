// Package analyzer imports CREATE TABLE statements in bulk and runs the
// advisory checks over the parsed tables.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/AntTheLimey/layercheck/internal/models"
	"github.com/AntTheLimey/layercheck/internal/parser"
	"github.com/AntTheLimey/layercheck/internal/renames"
)

// CheckDef defines an advisory check.
type CheckDef struct {
	Name        string
	Category    string
	Description string
	Fn          CheckFunc
}

// StaticChecks is the list of advisory checks run after every import.
var StaticChecks = []CheckDef{
	{"duplicate_columns", "columns", "Columns declared more than once", checkDuplicateColumns},
	{"unmatched_renames", "renames", "Rename entries matching no column", checkUnmatchedRenames},
	{"target_collisions", "renames", "Columns sharing a target name after renames", checkTargetCollisions},
	{"no_measure_columns", "columns", "Tables without measure columns", checkNoMeasureColumns},
	{"unknown_schema", "layers", "Tables without a schema qualifier", checkUnknownSchema},
	{"unclassified_layer", "layers", "Schemas matching neither DDV nor EDV", checkUnclassifiedLayer},
	{"skipped_definitions", "columns", "Column definitions that could not be read", checkSkippedDefinitions},
	{"nullable_measures", "columns", "Measure columns that may hold NULL", checkNullableMeasures},
}

// Source is one named piece of DDL text.
type Source struct {
	Name string
	Text string
}

// Progress receives statement-level progress. Step may be called from
// several goroutines at once.
type Progress interface {
	Start(total int)
	Step()
}

// Options configures RunImport.
type Options struct {
	Logger   *slog.Logger
	Renames  renames.Map
	Parser   parser.Options
	Workers  int // parse concurrency, defaults to GOMAXPROCS
	Progress Progress
}

type job struct {
	source string
	index  int
	stmt   string
}

type outcome struct {
	table models.ParsedTable
	err   error
}

// RunImport extracts every statement from the sources, parses them in
// parallel and runs the advisory checks. A statement without a column body is
// recorded as a failure and the batch continues. The returned error is
// non-nil only when ctx is cancelled.
func RunImport(ctx context.Context, sources []Source, label string, opts Options) (*models.ImportReport, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	popts := opts.Parser
	if popts.Logger == nil {
		popts.Logger = log
	}

	var jobs []job
	for _, src := range sources {
		stmts := parser.ExtractStatements(src.Text)
		log.Debug("extracted statements", "source", src.Name, "count", len(stmts))
		for i, stmt := range stmts {
			jobs = append(jobs, job{source: src.Name, index: i, stmt: stmt})
		}
	}

	report := models.NewImportReport(label)
	report.Statements = len(jobs)

	outcomes, err := parseAll(ctx, jobs, opts, popts)
	if err != nil {
		return nil, err
	}
	for i, out := range outcomes {
		if out.err != nil {
			serr := &parser.StatementError{Index: jobs[i].index, Table: out.table.QualifiedName(), Err: out.err}
			report.Failures = append(report.Failures, models.StatementFailure{
				Source: jobs[i].source,
				Index:  jobs[i].index,
				Table:  serr.Table,
				Error:  serr.Error(),
			})
			continue
		}
		report.Tables = append(report.Tables, out.table)
	}

	report.Results = RunChecks(report.Tables, Env{Renames: opts.Renames}, log)

	log.Info("import finished",
		"statements", report.Statements,
		"tables", len(report.Tables),
		"failures", len(report.Failures),
		"critical", report.CriticalCount(),
		"warnings", report.WarningCount(),
		"consider", report.ConsiderCount(),
		"info", report.InfoCount())
	return report, nil
}

// parseAll parses jobs with at most opts.Workers goroutines. Outcomes keep
// the order of jobs.
func parseAll(ctx context.Context, jobs []job, opts Options, popts parser.Options) ([]outcome, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if opts.Progress != nil {
		opts.Progress.Start(len(jobs))
	}

	outcomes := make([]outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tbl, err := parser.ParseTable(j.stmt, opts.Renames, popts)
			if err != nil && !errors.Is(err, parser.ErrNoColumnBody) {
				return fmt.Errorf("%s: statement %d: %w", j.source, j.index+1, err)
			}
			outcomes[i] = outcome{table: tbl, err: err}
			if opts.Progress != nil {
				opts.Progress.Step()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// RunChecks runs every check in StaticChecks over tables. A panicking check
// is reported as an errored result. unmatched_renames is skipped when no
// rename map was supplied.
func RunChecks(tables []models.ParsedTable, env Env, log *slog.Logger) []models.CheckResult {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	results := make([]models.CheckResult, 0, len(StaticChecks))
	for i, check := range StaticChecks {
		log.Debug("running check",
			"n", fmt.Sprintf("%d/%d", i+1, len(StaticChecks)),
			"check", check.Category+"/"+check.Name)

		result := models.CheckResult{
			CheckName:   check.Name,
			Category:    check.Category,
			Description: check.Description,
		}
		if check.Name == "unmatched_renames" && len(env.Renames) == 0 {
			result.Skipped = true
			result.SkipReason = "No rename map supplied"
			results = append(results, result)
			continue
		}

		// Run the check function with panic recovery
		func() {
			defer func() {
				if r := recover(); r != nil {
					result.Error = fmt.Sprintf("panic: %v", r)
					log.Error("check failed", "check", check.Name, "error", result.Error)
				}
			}()
			result.Findings = check.Fn(tables, env, check.Name, check.Category)
		}()

		results = append(results, result)
	}
	return results
}
