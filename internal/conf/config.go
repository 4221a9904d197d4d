// Package conf loads the registry engine settings. A single Settings value is
// built once at process start and passed by parameter to every component;
// nothing below cmd/ reads configuration on its own.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
)

// Database drivers accepted by the legacy and store sections.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Candidate policies for the identity linker.
const (
	PolicyFirstMatch          = "first_match"
	PolicyMostRecentPublished = "most_recent_published"
)

// envPrefix is prepended to every environment override, e.g. REGISTRY_STORE_DSN.
const envPrefix = "REGISTRY"

// Settings contains all configuration options for the registry engine.
type Settings struct {
	Debug bool `yaml:"debug" mapstructure:"debug"` // true to enable debug logging everywhere

	Logging   logger.LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Legacy    LegacySettings       `yaml:"legacy" mapstructure:"legacy"`
	Store     StoreSettings        `yaml:"store" mapstructure:"store"`
	Migration MigrationSettings    `yaml:"migration" mapstructure:"migration"`
	Linker    LinkerSettings       `yaml:"linker" mapstructure:"linker"`
	Dashboard DashboardSettings    `yaml:"dashboard" mapstructure:"dashboard"`
	Telemetry TelemetrySettings    `yaml:"telemetry" mapstructure:"telemetry"`
}

// LegacySettings describes the inherited CMS database (posts + postmeta tables).
type LegacySettings struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`             // sqlite or mysql
	DSN         string           `yaml:"dsn" mapstructure:"dsn"`                   // connection string or SQLite file path
	TablePrefix string           `yaml:"table_prefix" mapstructure:"table_prefix"` // e.g. "wp_"
	ChunkSize   int              `yaml:"chunk_size" mapstructure:"chunk_size"`     // ids per IN (...) clause when reading attributes
	PostTypes   PostTypeSettings `yaml:"post_types" mapstructure:"post_types"`
}

// PostTypeSettings maps the CMS post_type strings to the engine's entity types.
type PostTypeSettings struct {
	Shelter         string `yaml:"shelter" mapstructure:"shelter"`
	Volunteer       string `yaml:"volunteer" mapstructure:"volunteer"`
	Vacancy         string `yaml:"vacancy" mapstructure:"vacancy"`
	PopulationEvent string `yaml:"population_event" mapstructure:"population_event"`
}

// StoreSettings describes the normalized relational store.
type StoreSettings struct {
	Driver             string        `yaml:"driver" mapstructure:"driver"` // sqlite, mysql or postgres
	DSN                string        `yaml:"dsn" mapstructure:"dsn"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"` // 0 disables slow query warnings
	MaxOpenConns       int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
}

// MigrationSettings holds operator defaults for the migrate command.
type MigrationSettings struct {
	BatchSize     int  `yaml:"batch_size" mapstructure:"batch_size"`         // records read per page from the legacy source
	IncludeDrafts bool `yaml:"include_drafts" mapstructure:"include_drafts"` // migrate non-published legacy entities too
}

// LinkerSettings selects how the identity linker resolves author ambiguity.
type LinkerSettings struct {
	Policy string `yaml:"policy" mapstructure:"policy"` // first_match or most_recent_published
}

// DashboardSettings configures the statistics HTTP API.
type DashboardSettings struct {
	Listen   string        `yaml:"listen" mapstructure:"listen"`
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"` // 0 rebuilds the dataset on every request
}

// TelemetrySettings configures metrics and error reporting.
type TelemetrySettings struct {
	MetricsEnabled bool   `yaml:"metrics_enabled" mapstructure:"metrics_enabled"`
	SentryDSN      string `yaml:"sentry_dsn" mapstructure:"sentry_dsn"` // empty disables Sentry
	Environment    string `yaml:"environment" mapstructure:"environment"`
}

// Load builds Settings from defaults, the optional YAML file at configPath and
// REGISTRY_* environment variables, in increasing order of precedence. With an
// empty configPath, config.yaml is searched in the working directory and the
// user config directory; a missing file is not an error in that case.
func Load(configPath string) (*Settings, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range defaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if settings.Debug {
		settings.EnableDebug()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// EnableDebug turns on debug logging for every output.
func (s *Settings) EnableDebug() {
	s.Debug = true
	s.Logging.DefaultLevel = string(logger.LogLevelDebug)
	if s.Logging.Console != nil {
		s.Logging.Console.Level = string(logger.LogLevelDebug)
	}
	if s.Logging.FileOutput != nil {
		s.Logging.FileOutput.Level = string(logger.LogLevelDebug)
	}
}

// Defaults returns the settings used when no file or environment override is present.
func Defaults() *Settings {
	settings := &Settings{}
	// Unmarshal of pure defaults cannot fail; the decode is covered by tests.
	_ = newViper().Unmarshal(settings)
	return settings
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaultConfig(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// defaultConfigPaths returns the directories searched for config.yaml
func defaultConfigPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "shelter-registry"))
	}
	return paths
}

// SaveYAMLConfig writes settings to configPath atomically.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	dir := filepath.Dir(configPath)
	const dirPermissions = 0o750
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
