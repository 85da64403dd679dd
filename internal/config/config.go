// Package config loads client settings from ~/.medguide/config.yaml,
// MEDGUIDE_* environment variables, and command-line flags, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultGlamourStyle = "dark"

type Config struct {
	Assistant AssistantConfig `mapstructure:"assistant"`
	Guard     GuardConfig     `mapstructure:"guard"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Export    ExportConfig    `mapstructure:"export"`
}

type AssistantConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type GuardConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StorageConfig names the sqlite file and the key layout inside it. The
// key strings must stay stable across upgrades or saved sessions become
// unreachable.
type StorageConfig struct {
	Path             string `mapstructure:"path"`
	HistoryKey       string `mapstructure:"history_key"`
	TranscriptPrefix string `mapstructure:"transcript_prefix"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

func (a AssistantConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func (g GuardConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	configDir := filepath.Join(home, ".medguide")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(configDir, "config.yaml"))
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MEDGUIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("assistant.url", "http://localhost:886")
	v.SetDefault("assistant.timeout_seconds", 60)
	v.SetDefault("guard.url", "http://localhost:8000")
	v.SetDefault("guard.timeout_seconds", 15)
	v.SetDefault("storage.path", filepath.Join(home, ".local", "share", "medguide", "medguide.sqlite"))
	v.SetDefault("storage.history_key", "chat:history")
	v.SetDefault("storage.transcript_prefix", "chat:session:")
	v.SetDefault("export.dir", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return Config{}, fmt.Errorf("create storage dir: %w", err)
	}
	return cfg, nil
}
