package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"example.com/flightlog/internal/common"
	"example.com/flightlog/internal/flight"
)

type Config struct {
	Position PositionConfig `yaml:"position"`
	Mode     ModeConfig     `yaml:"mode"`
	Export   ExportConfig   `yaml:"export"`
	Report   ReportConfig   `yaml:"report"`
	Logs     LogConfig      `yaml:"logs"`
}

type PositionConfig struct {
	Type       string `yaml:"type"`
	EastField  string `yaml:"eastField"`
	NorthField string `yaml:"northField"`
	TimeField  string `yaml:"timeField"`
}

type ModeConfig struct {
	Type      string           `yaml:"type"`
	Field     string           `yaml:"field"`
	TimeField string           `yaml:"timeField"`
	Modes     flight.ModeTable `yaml:"modes"`
}

type ExportConfig struct {
	Directory  string `yaml:"directory"`
	Format     string `yaml:"format"`
	SQLitePath string `yaml:"sqlitePath"`
	Manifest   bool   `yaml:"manifest"`
}

// SetDirectory moves the export directory. A SQLite path still derived from
// the old directory moves with it; one configured elsewhere is kept.
func (e *ExportConfig) SetDirectory(dir string) {
	if e.SQLitePath == "" || e.SQLitePath == filepath.Join(e.Directory, sqliteFileName) {
		e.SQLitePath = filepath.Join(dir, sqliteFileName)
	}
	e.Directory = dir
}

type ReportConfig struct {
	Lang string `yaml:"lang"`
}

type LogConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
	Verbose    bool   `yaml:"verbose"`
}

const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"

	sqliteFileName = "flightlog.db"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML configuration file. Relative paths inside the file are
// resolved against the file's directory.
func Load(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	baseDir := filepath.Dir(path)
	cfg.Export.Directory = resolvePath(baseDir, cfg.Export.Directory)
	cfg.Export.SQLitePath = resolvePath(baseDir, cfg.Export.SQLitePath)
	cfg.Logs.Directory = resolvePath(baseDir, cfg.Logs.Directory)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func resolvePath(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}

func (c *Config) applyDefaults() {
	def := flight.DefaultOptions()
	if c.Position.Type == "" {
		c.Position.Type = def.PositionType
	}
	if c.Position.EastField == "" {
		c.Position.EastField = def.EastField
	}
	if c.Position.NorthField == "" {
		c.Position.NorthField = def.NorthField
	}
	if c.Position.TimeField == "" {
		c.Position.TimeField = def.TimeField
	}
	if c.Mode.Type == "" {
		c.Mode.Type = def.ModeType
	}
	if c.Mode.Field == "" {
		c.Mode.Field = def.ModeField
	}
	if c.Mode.TimeField == "" {
		c.Mode.TimeField = def.ModeTimeField
	}
	if len(c.Mode.Modes) == 0 {
		c.Mode.Modes = def.Modes
	}
	if c.Export.Directory == "" {
		c.Export.Directory = "output_csv"
	}
	if c.Export.Format == "" {
		c.Export.Format = FormatCSV
	}
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	if c.Export.SQLitePath == "" {
		c.Export.SQLitePath = filepath.Join(c.Export.Directory, sqliteFileName)
	}
	if c.Report.Lang == "" {
		c.Report.Lang = "en"
	}
	if c.Logs.MaxSizeMB <= 0 {
		c.Logs.MaxSizeMB = 25
	}
	if c.Logs.MaxAgeDays <= 0 {
		c.Logs.MaxAgeDays = 7
	}
	if c.Logs.MaxBackups <= 0 {
		c.Logs.MaxBackups = 5
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Position.EastField == c.Position.NorthField {
		errs = append(errs, fmt.Errorf("position.eastField and position.northField must differ (both %q)", c.Position.EastField))
	}
	codes := make(map[string]bool, len(c.Mode.Modes))
	for i, m := range c.Mode.Modes {
		if strings.TrimSpace(m.Code) == "" {
			errs = append(errs, fmt.Errorf("mode.modes[%d]: code is required", i))
		}
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Errorf("mode.modes[%d]: name is required", i))
		}
		if codes[m.Code] {
			errs = append(errs, fmt.Errorf("mode.modes[%d]: duplicate code %q", i, m.Code))
		}
		codes[m.Code] = true
	}
	switch c.Export.Format {
	case FormatCSV, FormatSQLite:
	default:
		errs = append(errs, fmt.Errorf("export.format must be %q or %q, got %q", FormatCSV, FormatSQLite, c.Export.Format))
	}
	return errors.Join(errs...)
}

// FlightOptions converts the configuration into aggregator options.
func (c Config) FlightOptions() flight.Options {
	return flight.Options{
		PositionType:  c.Position.Type,
		EastField:     c.Position.EastField,
		NorthField:    c.Position.NorthField,
		TimeField:     c.Position.TimeField,
		ModeType:      c.Mode.Type,
		ModeField:     c.Mode.Field,
		ModeTimeField: c.Mode.TimeField,
		Modes:         append(flight.ModeTable(nil), c.Mode.Modes...),
	}
}

// LogOptions converts the logs section for common.SetupLogging.
func (c Config) LogOptions() common.LogOptions {
	return common.LogOptions{
		Directory:  c.Logs.Directory,
		MaxSizeMB:  c.Logs.MaxSizeMB,
		MaxAgeDays: c.Logs.MaxAgeDays,
		MaxBackups: c.Logs.MaxBackups,
		Compress:   c.Logs.Compress,
		Verbose:    c.Logs.Verbose,
	}
}
