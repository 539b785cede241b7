// Package config 載入服務配置：YAML 檔 → 環境變數覆蓋。
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config 整個應用的配置
type Config struct {
	Server struct {
		Port           int           `yaml:"port" env:"PORT"`
		ReadTimeout    time.Duration `yaml:"read_timeout" env:"MAO_READ_TIMEOUT"`
		WriteTimeout   time.Duration `yaml:"write_timeout" env:"MAO_WRITE_TIMEOUT"`
		IdleTimeout    time.Duration `yaml:"idle_timeout" env:"MAO_IDLE_TIMEOUT"`
		AllowedOrigins []string      `yaml:"allowed_origins" env:"MAO_ALLOWED_ORIGINS" envSeparator:","`
	} `yaml:"server"`

	Rooms struct {
		MaxAge        time.Duration `yaml:"max_age" env:"MAO_ROOM_MAX_AGE"`
		SweepInterval time.Duration `yaml:"sweep_interval" env:"MAO_SWEEP_INTERVAL"`
	} `yaml:"rooms"`

	Events struct {
		NATSURL       string `yaml:"nats_url" env:"NATS_URL"`
		SubjectPrefix string `yaml:"subject_prefix" env:"MAO_SUBJECT_PREFIX"`
	} `yaml:"events"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"log"`
}

// Default 預設配置
func Default() *Config {
	c := &Config{}
	c.Server.Port = 3001
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 15 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.AllowedOrigins = []string{
		"https://amrik-majumdar.github.io",
		"http://localhost:3000",
		"http://127.0.0.1:5500",
		"https://mao-hois.onrender.com",
	}
	c.Rooms.MaxAge = 24 * time.Hour
	c.Rooms.SweepInterval = time.Hour
	c.Events.SubjectPrefix = "mao"
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// Load 依序套用：預設值 → YAML 檔（path 為空時略過）→ 環境變數
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 檢查配置
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Rooms.MaxAge <= 0 {
		errs = append(errs, errors.New("rooms.max_age must be positive"))
	}
	if c.Rooms.SweepInterval <= 0 {
		errs = append(errs, errors.New("rooms.sweep_interval must be positive"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Addr HTTP 監聽位址
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
