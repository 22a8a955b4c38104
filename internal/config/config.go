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
)

// Config aggregates runtime configuration.
type Config struct {
	DataPath  string          `mapstructure:"data_path"`
	ExportDir string          `mapstructure:"export_dir"`
	Log       LoggerConfig    `mapstructure:"log"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Splash    SplashConfig    `mapstructure:"splash"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// AssistantConfig holds the generative model settings.
type AssistantConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SplashConfig struct {
	Duration time.Duration `mapstructure:"duration"`
}

// Dir returns ~/.config/eod.
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "eod"), nil
}

// Load reads configuration from (in rising priority) defaults, an optional
// config file, a .env file and the environment. An empty configFile means
// config.yaml in Dir().
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}

	v := viper.New()
	v.SetDefault("data_path", filepath.Join(dir, "eod.db"))
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("export_dir", home)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "eod.log"))
	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.model", "gemini-2.5-flash")
	v.SetDefault("assistant.timeout", 60*time.Second)
	v.SetDefault("splash.duration", 3*time.Second)

	v.SetEnvPrefix("EOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// The bare names are what the hosted app used.
	if cfg.Assistant.APIKey == "" {
		cfg.Assistant.APIKey = firstEnv("API_KEY", "GEMINI_API_KEY")
	}
	return &cfg, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
