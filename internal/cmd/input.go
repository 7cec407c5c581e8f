package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/AntTheLimey/layercheck/internal/analyzer"
	"github.com/AntTheLimey/layercheck/internal/models"
	"github.com/AntTheLimey/layercheck/internal/parser"
	"github.com/AntTheLimey/layercheck/internal/renames"
)

// ErrAmbiguousStatements is returned when a command needs one table but the
// input holds several and --table does not single one out.
var ErrAmbiguousStatements = errors.New("input holds more than one CREATE TABLE statement")

// ddlExtensions are the file extensions picked up when walking a directory.
var ddlExtensions = map[string]bool{".sql": true, ".ddl": true, ".hql": true, ".txt": true}

// readInput returns the text of the single file argument, or stdin when
// there is none or it is "-".
func readInput(cmd *cobra.Command, args []string) (text, source string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("read input: %w", err)
	}
	return string(data), args[0], nil
}

// collectSources reads every file argument, walking directories for DDL
// files in lexical order.
func collectSources(paths []string) ([]analyzer.Source, error) {
	var sources []analyzer.Source
	add := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		sources = append(sources, analyzer.Source{Name: path, Text: string(data)})
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("file not found: %s", p)
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !ddlExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	return sources, nil
}

// loadRenames reads the rename map, or returns nil when no path is given.
func loadRenames(path string) (renames.Map, error) {
	if path == "" {
		return nil, nil
	}
	m, err := renames.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load renames: %w", err)
	}
	logger.Debug("renames loaded", "path", path, "entries", len(m))
	return m, nil
}

// importOptions assembles analyzer options from the loaded config.
func importOptions(m renames.Map, progress analyzer.Progress) (analyzer.Options, error) {
	popts, err := cfg.ParserOptions(logger)
	if err != nil {
		return analyzer.Options{}, err
	}
	return analyzer.Options{
		Logger:   logger,
		Renames:  m,
		Parser:   popts,
		Workers:  cfg.Import.Workers,
		Progress: progress,
	}, nil
}

// importText runs a one-source import and fails when nothing was found.
func importText(ctx context.Context, text, source string, m renames.Map) (*models.ImportReport, error) {
	opts, err := importOptions(m, nil)
	if err != nil {
		return nil, err
	}
	report, err := analyzer.RunImport(ctx, []analyzer.Source{{Name: source, Text: text}}, source, opts)
	if err != nil {
		return nil, err
	}
	if report.NoStatementFound() {
		return nil, fmt.Errorf("%s: %w", source, parser.ErrNoStatementFound)
	}
	for _, f := range report.Failures {
		logger.Warn("statement skipped", "source", f.Source, "error", f.Error)
	}
	return report, nil
}

// selectTable picks one table. An empty name is only accepted when there is
// exactly one table. Otherwise the name matches a qualified or bare table
// name exactly (case-insensitive), or else the single best fuzzy match.
func selectTable(tables []models.ParsedTable, name string) (models.ParsedTable, error) {
	if len(tables) == 0 {
		return models.ParsedTable{}, parser.ErrNoStatementFound
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.QualifiedName()
	}
	if name == "" {
		if len(tables) == 1 {
			return tables[0], nil
		}
		return models.ParsedTable{}, fmt.Errorf("%w: %s (choose one with --table)",
			ErrAmbiguousStatements, strings.Join(names, ", "))
	}

	var bare []int
	for i, t := range tables {
		if strings.EqualFold(t.QualifiedName(), name) {
			return t, nil
		}
		if strings.EqualFold(t.Name, name) {
			bare = append(bare, i)
		}
	}
	switch len(bare) {
	case 0:
	case 1:
		return tables[bare[0]], nil
	default:
		var same []string
		for _, i := range bare {
			same = append(same, names[i])
		}
		return models.ParsedTable{}, fmt.Errorf("%w: %q matches %s", ErrAmbiguousStatements, name, strings.Join(same, ", "))
	}

	matches := fuzzy.Find(name, names)
	switch {
	case len(matches) == 0:
		return models.ParsedTable{}, fmt.Errorf("no table matches %q (tables: %s)", name, strings.Join(names, ", "))
	case len(matches) == 1 || matches[0].Score > matches[1].Score:
		logger.Debug("table chosen by fuzzy match", "query", name, "table", matches[0].Str)
		return tables[matches[0].Index], nil
	}

	var tied []string
	for _, m := range matches {
		if m.Score == matches[0].Score {
			tied = append(tied, m.Str)
		}
	}
	sort.Strings(tied)
	return models.ParsedTable{}, fmt.Errorf("%w: %q matches %s", ErrAmbiguousStatements, name, strings.Join(tied, ", "))
}
