// Package config loads depscope settings from .depscope/config.json, a repository .env file and
// DEPSCOPE_* environment variables.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"depscope/internal/analyzer"
	"depscope/internal/architecture"
	deperrors "depscope/internal/errors"
	"depscope/internal/paths"
	"depscope/internal/slogutil"
)

// CurrentVersion is the config schema version.
const CurrentVersion = 1

// Config represents the complete depscope configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Scan         ScanConfig         `json:"scan" mapstructure:"scan"`
	DeadCode     DeadCodeConfig     `json:"deadCode" mapstructure:"deadCode"`
	Architecture ArchitectureConfig `json:"architecture" mapstructure:"architecture"`
	Report       ReportConfig       `json:"report" mapstructure:"report"`
	Baseline     BaselineConfig     `json:"baseline" mapstructure:"baseline"`
	History      HistoryConfig      `json:"history" mapstructure:"history"`
	Logging      LoggingConfig      `json:"logging" mapstructure:"logging"`
}

// ScanConfig controls which files enter the module graph and how specifiers resolve.
type ScanConfig struct {
	Exclude          []string          `json:"exclude" mapstructure:"exclude"`
	Aliases          map[string]string `json:"aliases" mapstructure:"aliases"`
	UseTSConfig      bool              `json:"useTsconfig" mapstructure:"useTsconfig"`
	MaxFileSizeBytes int64             `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	Concurrency      int               `json:"concurrency" mapstructure:"concurrency"`
}

// DeadCodeConfig contains unused export detection settings
type DeadCodeConfig struct {
	Exclude          []string `json:"exclude" mapstructure:"exclude"`
	IncludeGenerated bool     `json:"includeGenerated" mapstructure:"includeGenerated"`
	IncludeTests     bool     `json:"includeTests" mapstructure:"includeTests"`
}

// ArchitectureConfig points at the layer declaration file.
type ArchitectureConfig struct {
	LayersFile string `json:"layersFile" mapstructure:"layersFile"`
}

// ReportConfig contains output settings
type ReportConfig struct {
	Format            string `json:"format" mapstructure:"format"`
	MostImportedLimit int    `json:"mostImportedLimit" mapstructure:"mostImportedLimit"`
	KeyFiles          bool   `json:"keyFiles" mapstructure:"keyFiles"`
	KeyFilesTopK      int    `json:"keyFilesTopK" mapstructure:"keyFilesTopK"`
}

// BaselineConfig controls whether accepted findings are filtered out.
type BaselineConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// HistoryConfig controls run recording.
type HistoryConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	Keep    int  `json:"keep" mapstructure:"keep"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Scan: ScanConfig{
			Exclude:          []string{},
			Aliases:          map[string]string{},
			UseTSConfig:      true,
			MaxFileSizeBytes: 1 << 20,
		},
		DeadCode: DeadCodeConfig{
			Exclude: []string{},
		},
		Architecture: ArchitectureConfig{
			LayersFile: architecture.LayersDeclarationFile,
		},
		Report: ReportConfig{
			Format:            "human",
			MostImportedLimit: 10,
			KeyFiles:          true,
			KeyFilesTopK:      20,
		},
		Baseline: BaselineConfig{
			Enabled: true,
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    50,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
	}
}

// envBindings maps supported environment variables to config keys.
var envBindings = map[string]string{
	"DEPSCOPE_LOG_LEVEL":              "logging.level",
	"DEPSCOPE_LOG_FORMAT":             "logging.format",
	"DEPSCOPE_LOG_FILE":               "logging.file",
	"DEPSCOPE_SCAN_EXCLUDE":           "scan.exclude",
	"DEPSCOPE_SCAN_USE_TSCONFIG":      "scan.useTsconfig",
	"DEPSCOPE_SCAN_MAX_FILE_SIZE":     "scan.maxFileSizeBytes",
	"DEPSCOPE_SCAN_CONCURRENCY":       "scan.concurrency",
	"DEPSCOPE_DEADCODE_EXCLUDE":       "deadCode.exclude",
	"DEPSCOPE_DEADCODE_INCLUDE_TESTS": "deadCode.includeTests",
	"DEPSCOPE_LAYERS_FILE":            "architecture.layersFile",
	"DEPSCOPE_REPORT_FORMAT":          "report.format",
	"DEPSCOPE_KEY_FILES":              "report.keyFiles",
	"DEPSCOPE_BASELINE_ENABLED":       "baseline.enabled",
	"DEPSCOPE_HISTORY_ENABLED":        "history.enabled",
	"DEPSCOPE_HISTORY_KEEP":           "history.keep",
}

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "DEPSCOPE_CONFIG_PATH"

// GetSupportedEnvVars returns the environment variables LoadConfig honors, sorted.
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envBindings)+1)
	for name := range envBindings {
		vars = append(vars, name)
	}
	vars = append(vars, ConfigPathEnv)
	sort.Strings(vars)
	return vars
}

// LoadResult describes where a configuration came from.
type LoadResult struct {
	Config *Config

	// ConfigPath is the file that was read; empty when only defaults applied.
	ConfigPath   string
	UsedDefaults bool

	// EnvOverrides lists the environment variables that were applied, sorted.
	EnvOverrides []string
}

// LoadConfig loads configuration for the repository at repoRoot.
func LoadConfig(repoRoot string) (*Config, error) {
	result, err := LoadConfigWithDetails(repoRoot)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration in increasing precedence: defaults, the config file
// (DEPSCOPE_CONFIG_PATH or .depscope/config.json), then environment variables. A .env file in
// the repository root feeds the environment without overriding variables already set.
func LoadConfigWithDetails(repoRoot string) (*LoadResult, error) {
	envFile := filepath.Join(repoRoot, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, deperrors.New(deperrors.ConfigInvalid, "failed to read "+envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigType("json")

	defaults, err := json.Marshal(DefaultConfig())
	if err != nil {
		return nil, deperrors.New(deperrors.InternalError, "failed to encode defaults", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, deperrors.New(deperrors.InternalError, "failed to load defaults", err)
	}

	result := &LoadResult{UsedDefaults: true}

	configPath, explicit := os.LookupEnv(ConfigPathEnv)
	if !explicit || configPath == "" {
		configPath = paths.ConfigPath(repoRoot)
		explicit = false
	}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, deperrors.New(deperrors.ConfigInvalid, "failed to parse "+configPath, err)
		}
		result.ConfigPath = configPath
		result.UsedDefaults = false
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, deperrors.New(deperrors.ConfigInvalid, "failed to read "+configPath, err)
	}

	for name, key := range envBindings {
		if err := v.BindEnv(key, name); err != nil {
			return nil, deperrors.New(deperrors.InternalError, "failed to bind "+name, err)
		}
		if val, ok := os.LookupEnv(name); ok && val != "" {
			result.EnvOverrides = append(result.EnvOverrides, name)
		}
	}
	sort.Strings(result.EnvOverrides)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, deperrors.New(deperrors.ConfigInvalid, "invalid configuration", err)
	}

	// viper lowercases map keys; aliases are case-sensitive specifier prefixes.
	if result.ConfigPath != "" {
		var raw struct {
			Scan struct {
				Aliases map[string]string `json:"aliases"`
			} `json:"scan"`
		}
		if err := json.Unmarshal(data, &raw); err == nil && raw.Scan.Aliases != nil {
			cfg.Scan.Aliases = raw.Scan.Aliases
		}
	}

	result.Config = &cfg
	return result, nil
}

// Save writes the configuration to .depscope/config.json and returns the file path.
func (c *Config) Save(repoRoot string) (string, error) {
	if _, err := paths.EnsureDataDir(repoRoot); err != nil {
		return "", err
	}
	configPath := paths.ConfigPath(repoRoot)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return configPath, os.WriteFile(configPath, append(data, '\n'), 0644)
}

var (
	validLogFormats    = []string{"human", "json"}
	validLogLevels     = []string{"debug", "info", "warn", "warning", "error"}
	validReportFormats = []string{"json", "human", "markdown", "md", "yaml", "yml"}
)

func oneOf(s string, valid []string) bool {
	for _, v := range valid {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	for _, p := range c.Scan.Exclude {
		if _, err := glob.Compile(p, '/'); err != nil {
			return &ConfigError{Field: "scan.exclude", Message: "invalid pattern " + p + ": " + err.Error()}
		}
	}
	for _, p := range c.DeadCode.Exclude {
		if _, err := glob.Compile(p, '/'); err != nil {
			return &ConfigError{Field: "deadCode.exclude", Message: "invalid pattern " + p + ": " + err.Error()}
		}
	}
	if c.Scan.MaxFileSizeBytes <= 0 {
		return &ConfigError{Field: "scan.maxFileSizeBytes", Message: "must be positive"}
	}
	if c.Scan.Concurrency < 0 {
		return &ConfigError{Field: "scan.concurrency", Message: "must not be negative"}
	}
	if c.Report.MostImportedLimit < 0 {
		return &ConfigError{Field: "report.mostImportedLimit", Message: "must not be negative"}
	}
	if !oneOf(c.Report.Format, validReportFormats) {
		return &ConfigError{Field: "report.format", Message: "unsupported format " + c.Report.Format}
	}
	if c.History.Keep < 0 {
		return &ConfigError{Field: "history.keep", Message: "must not be negative"}
	}
	if !oneOf(c.Logging.Format, validLogFormats) {
		return &ConfigError{Field: "logging.format", Message: "unsupported format " + c.Logging.Format}
	}
	if !oneOf(c.Logging.Level, validLogLevels) {
		return &ConfigError{Field: "logging.level", Message: "unsupported level " + c.Logging.Level}
	}
	return nil
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	return slogutil.LevelFromString(c.Logging.Level)
}

// LogFormat returns the configured handler format.
func (c *Config) LogFormat() slogutil.Format {
	if strings.EqualFold(c.Logging.Format, "json") {
		return slogutil.FormatJSON
	}
	return slogutil.FormatText
}

// AnalyzerOptions converts the configuration into analyzer options. Layers are read from the
// declaration file; a missing file yields the default layers.
func (c *Config) AnalyzerOptions(repoRoot string) (analyzer.Options, error) {
	opts := analyzer.DefaultOptions()

	opts.Scan.Exclude = c.Scan.Exclude
	opts.Scan.UseTSConfig = c.Scan.UseTSConfig
	opts.Scan.MaxFileSize = c.Scan.MaxFileSizeBytes
	if c.Scan.Concurrency > 0 {
		opts.Scan.Concurrency = c.Scan.Concurrency
	}
	for k, v := range c.Scan.Aliases {
		opts.Scan.Aliases[k] = v
	}

	opts.DeadCode.ExcludePatterns = c.DeadCode.Exclude
	opts.DeadCode.IncludeGenerated = c.DeadCode.IncludeGenerated
	opts.DeadCode.IncludeTests = c.DeadCode.IncludeTests

	opts.MostImportedLimit = c.Report.MostImportedLimit
	opts.KeyFiles = c.Report.KeyFiles
	if c.Report.KeyFilesTopK > 0 {
		opts.Rank.TopK = c.Report.KeyFilesTopK
	}

	layers, err := architecture.LoadLayers(repoRoot, c.Architecture.LayersFile)
	if err != nil {
		return opts, err
	}
	if err := architecture.ValidateLayers(layers); err != nil {
		return opts, err
	}
	opts.Layers = layers
	return opts, nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
