// Package renames reads the column rename map that maps source column names
// to target column names.
package renames

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Map maps an original column name to its target name. Keys match exactly.
type Map map[string]string

// Accepted pair separators, tried in order: "->", "=", ",", tab, whitespace.
var rePair = regexp.MustCompile(`^\s*(\S+?)\s*(?:->|=|,|\t|\s)\s*(\S+)\s*$`)

// Parse reads one "old new" pair per line. Pairs may also be written as
// old=new, old->new, old,new or tab-separated. Blank lines and lines starting
// with "#" are ignored. A repeated key is an error.
func Parse(text string) (Map, error) {
	m := make(Map)
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		match := rePair.FindStringSubmatch(line)
		if match == nil {
			return nil, fmt.Errorf("line %d: expected \"old new\", got %q", lineNo, line)
		}
		if err := m.add(match[1], match[2]); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read renames: %w", err)
	}
	return m, nil
}

// Load reads a rename map from path. Files ending in .yml or .yaml hold a
// mapping of old name to new name; anything else uses the Parse format.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read renames: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return parseYAML(data)
	}
	m, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// parseYAML decodes a mapping node so duplicate keys are reported instead of
// silently overwritten.
func parseYAML(data []byte) (Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse renames yaml: %w", err)
	}
	m := make(Map)
	if len(doc.Content) == 0 {
		return m, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse renames yaml: line %d: expected a mapping", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("parse renames yaml: line %d: expected scalar pair", k.Line)
		}
		if err := m.add(k.Value, v.Value); err != nil {
			return nil, fmt.Errorf("parse renames yaml: line %d: %w", k.Line, err)
		}
	}
	return m, nil
}

func (m Map) add(from, to string) error {
	if from == "" || to == "" {
		return errors.New("empty column name")
	}
	if prev, ok := m[from]; ok {
		return fmt.Errorf("duplicate rename for %q (already %q)", from, prev)
	}
	m[from] = to
	return nil
}

// Keys returns the original names in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Unmatched returns the sorted keys that are not in names.
func (m Map) Unmatched(names []string) []string {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	var out []string
	for _, k := range m.Keys() {
		if !present[k] {
			out = append(out, k)
		}
	}
	return out
}
