// Package config loads run configuration from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"curing-worklist/internal/dates"
	"curing-worklist/internal/schema"
	"curing-worklist/internal/tabular"
)

// SourceConfig selects where a role's data sits inside its file.
type SourceConfig struct {
	Sheet     string `yaml:"sheet"`
	HeaderRow *int   `yaml:"header_row"`
}

type fileConfig struct {
	Password   string                  `yaml:"password"`
	DateFormat string                  `yaml:"date_format"`
	Database   string                  `yaml:"database_url"`
	Sources    map[string]SourceConfig `yaml:"sources"`
	Aliases    map[string][]string     `yaml:"aliases"`
}

// Config is the resolved configuration of one invocation.
type Config struct {
	Password    string
	DatabaseURL string
	LogLevel    string
	// DateFormat is the layout used by the alignment tool for DATE REFERRED.
	DateFormat string
	Sources    map[string]tabular.Options
	Aliases    schema.Aliases
}

// Defaults returns the built-in source layout: the transaction export's
// header sits on its fourth row and the endorsement data on a named sheet.
func Defaults() Config {
	return Config{
		LogLevel:   "info",
		DateFormat: dates.AlignmentLayout,
		Sources: map[string]tabular.Options{
			"tad":         {Sheet: "0", HeaderRow: 3},
			"endorsement": {Sheet: "M1 AUTO SPM"},
			"masterlist":  {Sheet: "0"},
			"active":      {Sheet: "0"},
		},
		Aliases: schema.DefaultAliases,
	}
}

// Load resolves configuration. A missing .env is ignored; a missing YAML
// file named explicitly is an error. Values from the YAML file override the
// environment.
func Load(path string) (Config, error) {
	_ = godotenv.Load()
	cfg := Defaults()
	cfg.Password = firstEnv("CURING_WORKLIST_PASSWORD", "DEFAULT_PASSWORD")
	cfg.DatabaseURL = firstEnv("CURING_WORKLIST_DB_URL", "DATABASE_URL")
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.apply(data); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) apply(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}
	if fc.Password != "" {
		c.Password = fc.Password
	}
	if fc.DateFormat != "" {
		c.DateFormat = fc.DateFormat
	}
	if fc.Database != "" {
		c.DatabaseURL = fc.Database
	}
	for role, src := range fc.Sources {
		role = strings.ToLower(strings.TrimSpace(role))
		opts := c.Sources[role]
		if src.Sheet != "" {
			opts.Sheet = src.Sheet
		}
		if src.HeaderRow != nil {
			if *src.HeaderRow < 0 {
				return fmt.Errorf("sources.%s.header_row must not be negative", role)
			}
			opts.HeaderRow = *src.HeaderRow
		}
		c.Sources[role] = opts
	}
	if len(fc.Aliases) > 0 {
		c.Aliases = c.Aliases.Merge(fc.Aliases)
	}
	return nil
}

// Options returns the read options for role with the password applied.
func (c Config) Options(role string) tabular.Options {
	opts := c.Sources[role]
	opts.Password = c.Password
	return opts
}

// Override replaces the sheet and header row of role when set. A negative
// header row leaves the configured value.
func (c *Config) Override(role, sheet string, headerRow int) {
	opts := c.Sources[role]
	if sheet != "" {
		opts.Sheet = sheet
	}
	if headerRow >= 0 {
		opts.HeaderRow = headerRow
	}
	c.Sources[role] = opts
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// SetupLogging configures the global logger. Verbose forces debug level.
func SetupLogging(level string, verbose bool) error {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(log.DebugLevel)
		return nil
	}
	if level == "" {
		level = "info"
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	log.SetLevel(parsed)
	return nil
}
