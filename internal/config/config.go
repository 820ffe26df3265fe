package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/statutefinder/internal/citation"
	"github.com/dgallion1/statutefinder/internal/parser"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. STATUTEFINDER_PORT.
const EnvPrefix = "STATUTEFINDER"

// PatternConfig is a user-defined citation family appended after the built-ins.
type PatternConfig struct {
	Family  string `mapstructure:"family" yaml:"family"`
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
}

type Config struct {
	Port string `mapstructure:"port" yaml:"port"`

	// Auth
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// Worker pool
	WorkerCount  int `mapstructure:"worker_count" yaml:"worker_count"`
	MaxQueueSize int `mapstructure:"max_queue_size" yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `mapstructure:"job_ttl" yaml:"job_ttl"`

	// Per-client request rate; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`

	// Loader
	PDFFallbackPdftotext bool     `mapstructure:"pdf_fallback_pdftotext" yaml:"pdf_fallback_pdftotext"`
	PDFValidate          bool     `mapstructure:"pdf_validate" yaml:"pdf_validate"`
	DisabledFormats      []string `mapstructure:"disabled_formats" yaml:"disabled_formats"`

	// SQLite archive of past analyses; empty disables it.
	ArchivePath string `mapstructure:"archive_path" yaml:"archive_path"`

	NoColor bool `mapstructure:"no_color" yaml:"no_color"`

	// Analysis
	ContextRadius int             `mapstructure:"context_radius" yaml:"context_radius"`
	Patterns      []PatternConfig `mapstructure:"patterns" yaml:"patterns"`
}

const (
	defaultPort           = "8090"
	defaultWorkerCount    = 4
	defaultMaxQueueSize   = 100
	defaultMaxUploadBytes = 52428800 // 50MB
	defaultJobTTL         = 1 * time.Hour
	defaultRateBurst      = 10
)

// SetDefaults registers every key so environment variables and Unmarshal see it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("api_key", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("worker_count", defaultWorkerCount)
	v.SetDefault("max_queue_size", defaultMaxQueueSize)
	v.SetDefault("max_upload_bytes", defaultMaxUploadBytes)
	v.SetDefault("job_ttl", defaultJobTTL)
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("rate_burst", defaultRateBurst)
	v.SetDefault("pdf_fallback_pdftotext", true)
	v.SetDefault("pdf_validate", false)
	v.SetDefault("disabled_formats", []string{})
	v.SetDefault("archive_path", "")
	v.SetDefault("no_color", false)
	v.SetDefault("context_radius", citation.DefaultContextRadius)
	v.SetDefault("patterns", []PatternConfig{})
}

// NewViper builds a viper instance with defaults and STATUTEFINDER_* env
// binding. When cfgFile is empty it looks for config.yaml under
// $HOME/.statutefinder and the working directory; a missing file is not an error.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return v, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".statutefinder"))
	}
	v.AddConfigPath(".")
	v.SetConfigType("yaml")
	v.SetConfigName("statutefinder")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config, fills zero values with defaults and validates.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaultMaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = defaultJobTTL
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.ContextRadius <= 0 {
		cfg.ContextRadius = citation.DefaultContextRadius
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	for _, f := range c.DisabledFormats {
		if !knownFormat(f) {
			return fmt.Errorf("disabled_formats: unknown format %q", f)
		}
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	return nil
}

// Registry returns the built-in families followed by the configured patterns.
func (c Config) Registry() (*citation.Registry, error) {
	if len(c.Patterns) == 0 {
		return citation.DefaultRegistry(), nil
	}

	extra := make([]citation.PatternSpec, 0, len(c.Patterns))
	for i, p := range c.Patterns {
		spec, err := citation.Compile(citation.Family(p.Family), p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("patterns[%d]: %w", i, err)
		}
		extra = append(extra, spec)
	}
	reg, err := citation.DefaultRegistry().With(extra...)
	if err != nil {
		return nil, fmt.Errorf("patterns: %w", err)
	}
	return reg, nil
}

// LoaderOptions maps loader settings onto parser options.
func (c Config) LoaderOptions() parser.Options {
	opts := parser.Options{
		FallbackPdftotext: c.PDFFallbackPdftotext,
		ValidatePDF:       c.PDFValidate,
	}
	for _, f := range c.DisabledFormats {
		opts.Disabled = append(opts.Disabled, parser.Format(strings.ToLower(f)))
	}
	return opts
}

// SlogLevel converts LogLevel for slog handlers.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func knownFormat(name string) bool {
	switch parser.Format(strings.ToLower(name)) {
	case parser.FormatText, parser.FormatPDF, parser.FormatDOCX, parser.FormatMarkdown, parser.FormatHTML:
		return true
	}
	return false
}
