package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "testdesk"
	fileName   = "testdesk.yml"
	envPrefix  = "TESTDESK"
	dotEnvFile = ".env"
)

// Config holds the resolved client configuration.
type Config struct {
	ServerURL   string `mapstructure:"server_url" yaml:"server_url"`
	UserID      string `mapstructure:"user_id" yaml:"user_id"`
	HTTPTimeout int    `mapstructure:"http_timeout" yaml:"http_timeout"` // seconds
	RateLimit   int    `mapstructure:"rate_limit" yaml:"rate_limit"`     // requests per second, 0 disables
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir"`
	Journal     bool   `mapstructure:"journal" yaml:"journal"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	Editor      string `mapstructure:"editor" yaml:"editor"`
}

// Keys lists every configuration key in display order.
var Keys = []string{
	"server_url",
	"user_id",
	"http_timeout",
	"rate_limit",
	"data_dir",
	"journal",
	"log_level",
	"log_file",
	"metrics_addr",
	"editor",
}

// Timeout returns HTTPTimeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.HTTPTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HTTPTimeout) * time.Second
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_url", "http://127.0.0.1:8080/api")
	v.SetDefault("user_id", "")
	v.SetDefault("http_timeout", 10)
	v.SetDefault("rate_limit", 5)
	v.SetDefault("data_dir", ".testdesk")
	v.SetDefault("journal", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("editor", "")
}

// Load resolves configuration with precedence
// env (TESTDESK_*) > ./testdesk.yml > global testdesk.yml > defaults.
// A .env file in the working directory feeds the env layer.
func Load() (*Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", dotEnvFile, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	for _, path := range []string{GlobalPath(), ProjectPath()} {
		if !fileExists(path) {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ServerURL = strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	cfg.UserID = strings.TrimSpace(cfg.UserID)
	return &cfg, nil
}

// GlobalPath returns $XDG_CONFIG_HOME/testdesk/testdesk.yml
// (falling back to ~/.config).
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName, fileName)
}

// ProjectPath returns the config path in the working directory.
func ProjectPath() string {
	return fileName
}

// Exists reports whether a global or project config file is present.
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// WriteGlobal writes cfg to the global config path.
func WriteGlobal(cfg *Config) error {
	return write(GlobalPath(), cfg)
}

// WriteProject writes cfg to the project config path.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
