package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ytget/ytgrab/internal/model"
	"github.com/ytget/ytgrab/internal/platform"
)

// AppName is used for the config directory and env prefix
const AppName = "ytgrab"

// Default values
const (
	DefaultMaxParallel   = 2
	MinMaxParallel       = 1
	MaxMaxParallel       = 10
	DefaultRetries       = 2
	MaxRetries           = 10
	DefaultRetryDelay    = 2 * time.Second
	DefaultMetricsPort   = 9091
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultFallbackDir   = "downloads"
	DefaultConfigFile    = "config.yaml"
	DefaultHistoryFile   = "history.db"
	DefaultMetricsListen = "127.0.0.1"
	DefaultLanguage      = "en"
)

// Config holds all application configuration
type Config struct {
	Download DownloadConfig `mapstructure:"download"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	History  HistoryConfig  `mapstructure:"history"`
	UI       UIConfig       `mapstructure:"ui"`
}

// DownloadConfig holds download defaults
type DownloadConfig struct {
	Directory      string        `mapstructure:"directory"`
	Quality        string        `mapstructure:"quality"`
	OutputTemplate string        `mapstructure:"output_template"`
	MergeFormat    string        `mapstructure:"merge_format"`
	MaxParallel    int           `mapstructure:"max_parallel"`
	Retries        int           `mapstructure:"retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	AutoReveal     bool          `mapstructure:"auto_reveal"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
	Path   string `mapstructure:"path"`   // rotating log file, empty for none
}

// MetricsConfig holds the metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

// HistoryConfig holds the history store location
type HistoryConfig struct {
	Path string `mapstructure:"path"` // empty keeps history in memory only
}

// UIConfig holds desktop interface preferences
type UIConfig struct {
	Language string `mapstructure:"language"` // en, ru or system
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Download: DownloadConfig{
			Directory:      defaultDownloadDir(),
			Quality:        DefaultQuality,
			OutputTemplate: model.DefaultOutputTemplate,
			MergeFormat:    model.DefaultMergeFormat,
			MaxParallel:    DefaultMaxParallel,
			Retries:        DefaultRetries,
			RetryDelay:     DefaultRetryDelay,
			AutoReveal:     false,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: DefaultMetricsListen,
			Port:    DefaultMetricsPort,
		},
		History: HistoryConfig{
			Path: filepath.Join(DefaultConfigDir(), DefaultHistoryFile),
		},
		UI: UIConfig{
			Language: DefaultLanguage,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultConfigDir())
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes the configuration as YAML to path
func Save(cfg *Config, path string) error {
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), DefaultConfigFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, cfg)
	v.SetConfigType("yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setDefaults registers every key with the values of cfg
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("download.directory", cfg.Download.Directory)
	v.SetDefault("download.quality", cfg.Download.Quality)
	v.SetDefault("download.output_template", cfg.Download.OutputTemplate)
	v.SetDefault("download.merge_format", cfg.Download.MergeFormat)
	v.SetDefault("download.max_parallel", cfg.Download.MaxParallel)
	v.SetDefault("download.retries", cfg.Download.Retries)
	v.SetDefault("download.retry_delay", cfg.Download.RetryDelay.String())
	v.SetDefault("download.auto_reveal", cfg.Download.AutoReveal)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.path", cfg.Logging.Path)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.address", cfg.Metrics.Address)
	v.SetDefault("metrics.port", cfg.Metrics.Port)

	v.SetDefault("history.path", cfg.History.Path)

	v.SetDefault("ui.language", cfg.UI.Language)
}

// Normalize clamps numeric settings and fills empty values
func (c *Config) Normalize() {
	d := &c.Download
	d.MaxParallel = ClampParallel(d.MaxParallel)
	if d.Retries < 0 {
		d.Retries = 0
	}
	if d.Retries > MaxRetries {
		d.Retries = MaxRetries
	}
	if d.RetryDelay <= 0 {
		d.RetryDelay = DefaultRetryDelay
	}
	if _, ok := Qualities().Lookup(d.Quality); !ok {
		d.Quality = DefaultQuality
	}
	if d.OutputTemplate == "" {
		d.OutputTemplate = model.DefaultOutputTemplate
	}
	if d.MergeFormat == "" {
		d.MergeFormat = model.DefaultMergeFormat
	}
	if d.Directory == "" {
		d.Directory = defaultDownloadDir()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.UI.Language == "" {
		c.UI.Language = DefaultLanguage
	}
	if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
		c.Metrics.Port = DefaultMetricsPort
	}
}

// ClampParallel keeps the number of parallel downloads within 1..10
func ClampParallel(n int) int {
	if n < MinMaxParallel {
		return MinMaxParallel
	}
	if n > MaxMaxParallel {
		return MaxMaxParallel
	}
	return n
}

// MetricsAddress returns the listen address of the metrics server
func (m MetricsConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", m.Address, m.Port)
}

// DefaultConfigDir returns the per-user configuration directory
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(dir, AppName)
}

func defaultDownloadDir() string {
	dir, err := platform.GetHomeDownloadsDir()
	if err != nil || dir == "" {
		return DefaultFallbackDir
	}
	return dir
}
