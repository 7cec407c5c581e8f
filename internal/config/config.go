// Package config loads layercheck settings from defaults, an optional YAML
// file, LAYERCHECK_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/AntTheLimey/layercheck/internal/formatter"
	"github.com/AntTheLimey/layercheck/internal/parser"
)

// DefaultFile is the config file name searched for in the working directory.
const DefaultFile = "layercheck.yaml"

// EnvPrefix prefixes environment overrides, e.g. LAYERCHECK_IMPORT_WORKERS.
const EnvPrefix = "LAYERCHECK"

// Config holds all application configuration.
type Config struct {
	Format FormatConfig `mapstructure:"format" yaml:"format"`
	Layers LayersConfig `mapstructure:"layers" yaml:"layers"`
	Parser ParserConfig `mapstructure:"parser" yaml:"parser"`
	Import ImportConfig `mapstructure:"import" yaml:"import"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// FormatConfig holds query layout settings.
type FormatConfig struct {
	ReadableWidth int                  `mapstructure:"readable_width" yaml:"readable_width"`
	CellLimit     int                  `mapstructure:"cell_limit" yaml:"cell_limit"`
	Indent        string               `mapstructure:"indent" yaml:"indent"`
	Thresholds    formatter.Thresholds `mapstructure:"thresholds" yaml:"thresholds"`
}

// LayersConfig holds the case-insensitive schema markers of each layer.
type LayersConfig struct {
	DDV []string `mapstructure:"ddv" yaml:"ddv"`
	EDV []string `mapstructure:"edv" yaml:"edv"`
}

// ParserConfig holds column parsing settings.
type ParserConfig struct {
	MeasureTypes     []string `mapstructure:"measure_types" yaml:"measure_types"`
	QuoteIdentifiers bool     `mapstructure:"quote_identifiers" yaml:"quote_identifiers"`
}

// ImportConfig holds batch import settings.
type ImportConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// OutputConfig holds report output settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config populated with the stock settings.
func DefaultConfig() *Config {
	return &Config{
		Format: FormatConfig{
			ReadableWidth: formatter.ReadableWidth,
			CellLimit:     formatter.SpreadsheetCellLimit,
			Indent:        formatter.DefaultIndent,
			Thresholds:    formatter.DefaultThresholds(),
		},
		Layers: LayersConfig{
			DDV: append([]string(nil), parser.DefaultDDVMarkers...),
			EDV: append([]string(nil), parser.DefaultEDVMarkers...),
		},
		Parser: ParserConfig{MeasureTypes: []string{}},
		Import: ImportConfig{Workers: 4},
		Output: OutputConfig{Format: "text"},
	}
}

// setDefaults registers every key so that environment variables can
// override keys absent from the file.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("format.readable_width", d.Format.ReadableWidth)
	v.SetDefault("format.cell_limit", d.Format.CellLimit)
	v.SetDefault("format.indent", d.Format.Indent)
	v.SetDefault("format.thresholds.min_fields", d.Format.Thresholds.MinFields)
	v.SetDefault("format.thresholds.wide_chars", d.Format.Thresholds.WideChars)
	v.SetDefault("format.thresholds.short_chars", d.Format.Thresholds.ShortChars)
	v.SetDefault("format.thresholds.two_line_chars", d.Format.Thresholds.TwoLineChars)
	v.SetDefault("layers.ddv", d.Layers.DDV)
	v.SetDefault("layers.edv", d.Layers.EDV)
	v.SetDefault("parser.measure_types", d.Parser.MeasureTypes)
	v.SetDefault("parser.quote_identifiers", d.Parser.QuoteIdentifiers)
	v.SetDefault("import.workers", d.Import.Workers)
	v.SetDefault("output.format", d.Output.Format)
}

// Load reads configuration into a Config. When path is empty, DefaultFile is
// looked up in the working directory. A missing file yields the defaults
// without error. v may carry flag bindings; nil means a fresh instance.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultFile, filepath.Ext(DefaultFile)))
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and compiles every pattern once.
func (c *Config) Validate() error {
	if c.Format.ReadableWidth < 1 {
		return fmt.Errorf("format.readable_width must be positive, got %d", c.Format.ReadableWidth)
	}
	if c.Format.CellLimit < 1 {
		return fmt.Errorf("format.cell_limit must be positive, got %d", c.Format.CellLimit)
	}
	if c.Import.Workers < 0 {
		return fmt.Errorf("import.workers must not be negative, got %d", c.Import.Workers)
	}
	if _, err := parser.NewMarkerClassifier(c.Layers.DDV, c.Layers.EDV); err != nil {
		return fmt.Errorf("layers: %w", err)
	}
	if _, err := parser.NewTypeClassifier(c.Parser.MeasureTypes); err != nil {
		return fmt.Errorf("parser.measure_types: %w", err)
	}
	return nil
}

// ParserOptions builds parser options from the layer markers and measure
// types.
func (c *Config) ParserOptions(log *slog.Logger) (parser.Options, error) {
	schemas, err := parser.NewMarkerClassifier(c.Layers.DDV, c.Layers.EDV)
	if err != nil {
		return parser.Options{}, fmt.Errorf("layers: %w", err)
	}
	types, err := parser.NewTypeClassifier(c.Parser.MeasureTypes)
	if err != nil {
		return parser.Options{}, fmt.Errorf("parser.measure_types: %w", err)
	}
	return parser.Options{Logger: log, Types: types, Schemas: schemas}, nil
}

// FormatOptions returns skeleton formatter options for the readable width.
func (c *Config) FormatOptions() formatter.Options {
	return formatter.Options{
		Width:      c.Format.ReadableWidth,
		Indent:     c.Format.Indent,
		Thresholds: c.Format.Thresholds,
	}
}

// Save writes the Config to the YAML file at path, creating any necessary
// parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
