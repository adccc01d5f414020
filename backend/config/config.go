package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath points at the YAML config file when --config is not given.
const EnvConfigPath = "DRAWLOTS_CONFIG"

// Config 应用配置（YAML 文件 + 环境变量覆盖）
type Config struct {
	Addr  string `yaml:"addr" env:"DRAWLOTS_ADDR"`
	Dev   bool   `yaml:"dev" env:"DRAWLOTS_DEV"`
	AppID string `yaml:"app_id" env:"DRAWLOTS_APP_ID"`

	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig 数据目录配置
type StorageConfig struct {
	// DataDir is tried before any probed location.
	DataDir string `yaml:"data_dir" env:"DRAWLOTS_DATA_DIR"`
	// FallbackDir replaces the system local data dir used as last resort.
	FallbackDir string `yaml:"fallback_dir" env:"DRAWLOTS_FALLBACK_DIR"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level" env:"DRAWLOTS_LOG_LEVEL"`
	File  string `yaml:"file" env:"DRAWLOTS_LOG_FILE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:  "127.0.0.1:19090",
		AppID: "drawlots",
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path (a missing file is not an error) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the app cannot work with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config: addr is required")
	}
	if strings.TrimSpace(c.AppID) == "" {
		return errors.New("config: app_id is required")
	}
	if strings.ContainsAny(c.AppID, `/\`) {
		return fmt.Errorf("config: app_id %q must not contain path separators", c.AppID)
	}
	return nil
}
