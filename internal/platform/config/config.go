package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const FileName = "config.yaml"

type Config struct {
	DataDir  string         `yaml:"-"`
	DBPath   string         `yaml:"-"`
	Log      LogConfig      `yaml:"log"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Stats    StatsConfig    `yaml:"stats"`
	Auth     AuthConfig     `yaml:"auth"`
	Player   PlayerConfig   `yaml:"player"`
	Practice PracticeConfig `yaml:"practice"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// CatalogConfig selects the configuration/clip catalog. BaseURL wins over File.
type CatalogConfig struct {
	BaseURL string        `yaml:"base_url"`
	File    string        `yaml:"file"`
	Timeout time.Duration `yaml:"timeout"`
}

type StatsConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenEnv        string `yaml:"token_env"`
}

type PlayerConfig struct {
	Binary  string `yaml:"binary"`
	SHA256  string `yaml:"sha256"`
	Command string `yaml:"command"`
}

type PracticeConfig struct {
	ActivityType    string        `yaml:"activity_type"`
	CategoryID      string        `yaml:"category_id"`
	Emotion         string        `yaml:"emotion"`
	DurationMinutes int           `yaml:"duration_minutes"`
	QuietPeriod     time.Duration `yaml:"quiet_period"`
	TickInterval    time.Duration `yaml:"tick_interval"`
}

// New resolves configuration from defaults, <dataDir>/config.yaml, and
// STILLPOINT_* environment variables, in that order.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := defaults(dataDir)
	if err := cfg.loadFile(filepath.Join(dataDir, FileName)); err != nil {
		return Config{}, err
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func defaults(dataDir string) Config {
	return Config{
		DataDir: dataDir,
		DBPath:  filepath.Join(dataDir, ".stillpoint", "stillpoint.db"),
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dataDir, ".stillpoint", "logs", "stillpoint.log"),
		},
		Catalog: CatalogConfig{
			File:    filepath.Join(dataDir, "catalog.yaml"),
			Timeout: 10 * time.Second,
		},
		Stats: StatsConfig{Timeout: 10 * time.Second},
		Auth: AuthConfig{
			CredentialsFile: filepath.Join(dataDir, ".stillpoint", "credentials.yaml"),
			TokenEnv:        "STILLPOINT_TOKEN",
		},
		Practice: PracticeConfig{
			ActivityType:    "silence",
			Emotion:         "calm",
			DurationMinutes: 5,
			QuietPeriod:     300 * time.Millisecond,
			TickInterval:    time.Second,
		},
	}
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Log.Level = envOrDefault("STILLPOINT_LOG_LEVEL", c.Log.Level)
	c.Log.File = envOrDefault("STILLPOINT_LOG_FILE", c.Log.File)
	c.Catalog.BaseURL = envOrDefault("STILLPOINT_CATALOG_URL", c.Catalog.BaseURL)
	c.Catalog.File = envOrDefault("STILLPOINT_CATALOG_FILE", c.Catalog.File)
	c.Stats.BaseURL = envOrDefault("STILLPOINT_STATS_URL", c.Stats.BaseURL)
	c.Player.Binary = envOrDefault("STILLPOINT_PLAYER_BINARY", c.Player.Binary)
	c.Player.SHA256 = envOrDefault("STILLPOINT_PLAYER_SHA256", c.Player.SHA256)
	c.Player.Command = envOrDefault("STILLPOINT_PLAYER_COMMAND", c.Player.Command)
	c.Practice.ActivityType = envOrDefault("STILLPOINT_ACTIVITY", c.Practice.ActivityType)
	c.Practice.CategoryID = envOrDefault("STILLPOINT_CATEGORY_ID", c.Practice.CategoryID)
	c.Practice.QuietPeriod = time.Duration(envOrDefaultInt("STILLPOINT_QUIET_PERIOD_MS", int(c.Practice.QuietPeriod/time.Millisecond))) * time.Millisecond
}

func (c *Config) normalize() {
	if c.Catalog.Timeout <= 0 {
		c.Catalog.Timeout = 10 * time.Second
	}
	if c.Stats.Timeout <= 0 {
		c.Stats.Timeout = 10 * time.Second
	}
	if c.Practice.QuietPeriod <= 0 {
		c.Practice.QuietPeriod = 300 * time.Millisecond
	}
	if c.Practice.TickInterval <= 0 {
		c.Practice.TickInterval = time.Second
	}
	if c.Practice.DurationMinutes < 1 || c.Practice.DurationMinutes > 10 {
		c.Practice.DurationMinutes = 5
	}
	c.Catalog.File = c.resolve(c.Catalog.File)
	c.Auth.CredentialsFile = c.resolve(c.Auth.CredentialsFile)
	c.Log.File = c.resolve(c.Log.File)
	c.Player.Binary = c.resolve(c.Player.Binary)
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(c.DataDir, path))
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
