package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// formatExt maps output format names to file extensions.
var formatExt = map[string]string{
	"text":     ".txt",
	"json":     ".json",
	"yaml":     ".yaml",
	"markdown": ".md",
	"html":     ".html",
	"csv":      ".csv",
	"sql":      ".sql",
}

// reportName derives a file-name stem from a source label.
func reportName(source string) string {
	name := filepath.Base(source)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "" || name == "." || name == string(filepath.Separator) || name == "-" {
		return "layercheck"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// MakeDefaultOutputPath generates a default output path: ./reports/<name>_<timestamp>.<ext>.
func MakeDefaultOutputPath(format, name string) string {
	ts := time.Now().Format("20060102_150405")
	return filepath.Join("reports", reportName(name)+"_"+ts+formatExt[format])
}

// MakeOutputPath inserts a timestamp into a user-provided output path.
// If the user provides "report.html", the result is "report_20260127_131504.html".
// If they provide a directory, the file is placed there with an auto-generated name.
func MakeOutputPath(userPath, format, name string) string {
	ts := time.Now().Format("20060102_150405")
	ext := formatExt[format]

	info, err := os.Stat(userPath)
	if err == nil && info.IsDir() {
		return filepath.Join(userPath, reportName(name)+"_"+ts+ext)
	}

	base := userPath
	existingExt := filepath.Ext(userPath)
	if existingExt != "" {
		base = strings.TrimSuffix(userPath, existingExt)
	} else {
		existingExt = ext
	}
	return base + "_" + ts + existingExt
}

// writeOutput sends rendered output to stdout, or to a timestamped file when
// a path is given. HTML always goes to a file.
func writeOutput(stdout io.Writer, output string, of outputFlags, format, source string) error {
	var path string
	switch {
	case of.Output != "":
		path = MakeOutputPath(of.Output, format, source)
	case format == "html":
		path = MakeDefaultOutputPath(format, source)
	default:
		_, err := io.WriteString(stdout, ensureNewline(output))
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
	return nil
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
