package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port           int
	DBPath         string
	LogLevel       slog.Level
	AllowedOrigins []string

	// SeedScenario loads a demo scenario at startup when set.
	SeedScenario string
}

// configFile mirrors payroll.yaml.
type configFile struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Demo struct {
		Scenario string `yaml:"scenario"`
	} `yaml:"demo"`
}

func defaultConfig() Config {
	return Config{
		Port:     8080,
		DBPath:   "payroll.db",
		LogLevel: slog.LevelInfo,
	}
}

// LoadConfig resolves configuration in priority order:
// defaults -> YAML file -> .env / environment. A missing file is not an error.
// Command-line flags are applied by the caller on top.
func LoadConfig(path, envFile string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.applyFile(raw); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	// .env only fills variables that are not already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}
	if f.Server.Port > 0 {
		c.Port = f.Server.Port
	}
	if len(f.Server.AllowedOrigins) > 0 {
		c.AllowedOrigins = f.Server.AllowedOrigins
	}
	if f.Database.Path != "" {
		c.DBPath = f.Database.Path
	}
	if f.Log.Level != "" {
		level, err := parseLevel(f.Log.Level)
		if err != nil {
			return err
		}
		c.LogLevel = level
	}
	if f.Demo.Scenario != "" {
		c.SeedScenario = f.Demo.Scenario
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PAYROLL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return fmt.Errorf("PAYROLL_PORT: invalid port %q", v)
		}
		c.Port = port
	}
	if v := getenv("PAYROLL_DB"); v != "" {
		c.DBPath = v
	}
	if v := getenv("PAYROLL_LOG_LEVEL"); v != "" {
		level, err := parseLevel(v)
		if err != nil {
			return fmt.Errorf("PAYROLL_LOG_LEVEL: %w", err)
		}
		c.LogLevel = level
	}
	if v := getenv("PAYROLL_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := getenv("PAYROLL_SEED_DEMO"); v != "" {
		c.SeedScenario = v
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
