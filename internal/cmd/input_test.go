package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntTheLimey/layercheck/internal/config"
	"github.com/AntTheLimey/layercheck/internal/models"
)

func TestMain(m *testing.M) {
	logger = newLogger(io.Discard, slog.LevelDebug)
	cfg = config.DefaultConfig()
	os.Exit(m.Run())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// -- readInput ----------------------------------------------------------------

func TestReadInputStdin(t *testing.T) {
	c := &cobra.Command{}
	c.SetIn(strings.NewReader("CREATE TABLE t (a INT)"))

	for _, args := range [][]string{nil, {"-"}} {
		text, source, err := readInput(c, args)
		require.NoError(t, err)
		assert.Equal(t, "stdin", source)
		if args == nil {
			assert.Equal(t, "CREATE TABLE t (a INT)", text)
		}
	}
}

func TestReadInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.sql")
	writeFile(t, path, "x")

	text, source, err := readInput(&cobra.Command{}, []string{path})
	require.NoError(t, err)
	assert.Equal(t, "x", text)
	assert.Equal(t, path, source)

	_, _, err = readInput(&cobra.Command{}, []string{path + ".missing"})
	assert.ErrorContains(t, err, "read input")
}

// -- collectSources -----------------------------------------------------------

func TestCollectSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.sql"), "A")
	writeFile(t, filepath.Join(dir, "b.ddl"), "B")
	writeFile(t, filepath.Join(dir, "notes.md"), "skip me")
	writeFile(t, filepath.Join(dir, "sub", "c.SQL"), "C")
	single := filepath.Join(t.TempDir(), "one.txt")
	writeFile(t, single, "D")

	sources, err := collectSources([]string{dir, single})
	require.NoError(t, err)

	var names, texts []string
	for _, s := range sources {
		names = append(names, s.Name)
		texts = append(texts, s.Text)
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "a.sql"),
		filepath.Join(dir, "b.ddl"),
		filepath.Join(dir, "sub", "c.SQL"),
		single,
	}, names)
	assert.Equal(t, []string{"A", "B", "C", "D"}, texts)
}

func TestCollectSourcesMissing(t *testing.T) {
	_, err := collectSources([]string{filepath.Join(t.TempDir(), "nope.sql")})
	assert.ErrorContains(t, err, "file not found")
}

// -- loadRenames --------------------------------------------------------------

func TestLoadRenames(t *testing.T) {
	m, err := loadRenames("")
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = loadRenames(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "load renames")
}

// -- selectTable --------------------------------------------------------------

func sampleTables() []models.ParsedTable {
	return []models.ParsedTable{
		{Schema: "ddv", Name: "orders", Layer: models.LayerDDV},
		{Schema: "edv", Name: "orders", Layer: models.LayerEDV},
		{Schema: "ddv", Name: "customers", Layer: models.LayerDDV},
		{Schema: models.UnknownSchema, Name: "events"},
	}
}

func TestSelectTable(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"qualified", "ddv.orders", "ddv.orders"},
		{"case insensitive", "EDV.Orders", "edv.orders"},
		{"bare unique", "customers", "ddv.customers"},
		{"unknown schema", "events", "events"},
		{"fuzzy", "cust", "ddv.customers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectTable(sampleTables(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.QualifiedName())
		})
	}
}

func TestSelectTableErrors(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		ambiguous bool
		contains  string
	}{
		{"no name", "", true, "ddv.orders, edv.orders"},
		{"bare duplicate", "orders", true, `"orders" matches ddv.orders, edv.orders`},
		{"fuzzy tie", "ordrs", true, "ddv.orders, edv.orders"},
		{"no match", "zzz", false, `no table matches "zzz"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := selectTable(sampleTables(), tt.query)
			require.Error(t, err)
			if tt.ambiguous {
				assert.ErrorIs(t, err, ErrAmbiguousStatements)
			} else {
				assert.NotErrorIs(t, err, ErrAmbiguousStatements)
			}
			assert.ErrorContains(t, err, tt.contains)
		})
	}
}

func TestSelectTableSingle(t *testing.T) {
	got, err := selectTable(sampleTables()[2:3], "")
	require.NoError(t, err)
	assert.Equal(t, "customers", got.Name)

	_, err = selectTable(nil, "")
	assert.Error(t, err)
}
