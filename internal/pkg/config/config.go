package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIKeys    APIKeysConfig     `yaml:"api_keys"`
	Leagues    map[string]League `yaml:"leagues"`
	Monitoring MonitoringConfig  `yaml:"monitoring"`
	Thresholds ThresholdsConfig  `yaml:"thresholds"`
	Database   DatabaseConfig    `yaml:"database"`
	Telegram   TelegramConfig    `yaml:"telegram"`
	Dashboard  DashboardConfig   `yaml:"dashboard"`
	Model      ModelConfig       `yaml:"model"`
	Logging    LoggingConfig     `yaml:"logging"`
}

type APIKeysConfig struct {
	FootballDataOrg string `yaml:"football_data_org"`
}

// League maps a config code (e.g. "PL") to a football-data.org competition.
type League struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type MonitoringConfig struct {
	ScanInterval   time.Duration `yaml:"scan_interval"`
	LookAheadDays  int           `yaml:"look_ahead_days"`
	RateLimitDelay time.Duration `yaml:"rate_limit_delay"`
	HistoryLimit   int           `yaml:"history_limit"`
}

type ThresholdsConfig struct {
	Over25MinProbability float64 `yaml:"over25_min_probability"`
	BTTSMinProbability   float64 `yaml:"btts_min_probability"`
	AlertMinProbability  float64 `yaml:"alert_min_probability"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `yaml:"driver"`
	// Path is the SQLite file path (sqlite driver only).
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string (postgres driver only).
	DSN string `yaml:"dsn"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type DashboardConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	RefreshSeconds int           `yaml:"refresh_seconds"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
}

type ModelConfig struct {
	// Dir holds the trained model and scaler JSON files.
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File is an optional log file path written in addition to stdout.
	File string `yaml:"file"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnvOverrides()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Monitoring.ScanInterval <= 0 {
		c.Monitoring.ScanInterval = 30 * time.Minute
	}
	if c.Monitoring.LookAheadDays <= 0 {
		c.Monitoring.LookAheadDays = 3
	}
	if c.Monitoring.RateLimitDelay <= 0 {
		// football-data.org free tier allows 10 requests/min
		c.Monitoring.RateLimitDelay = 6 * time.Second
	}
	if c.Monitoring.HistoryLimit <= 0 {
		c.Monitoring.HistoryLimit = 15
	}
	if c.Thresholds.Over25MinProbability <= 0 {
		c.Thresholds.Over25MinProbability = 0.65
	}
	if c.Thresholds.BTTSMinProbability <= 0 {
		c.Thresholds.BTTSMinProbability = 0.60
	}
	if c.Thresholds.AlertMinProbability <= 0 {
		c.Thresholds.AlertMinProbability = 0.70
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/predictions.db"
	}
	if c.Dashboard.ListenAddr == "" {
		c.Dashboard.ListenAddr = ":8501"
	}
	if c.Dashboard.RefreshSeconds <= 0 {
		c.Dashboard.RefreshSeconds = 30
	}
	if c.Dashboard.QueryTimeout <= 0 {
		c.Dashboard.QueryTimeout = 10 * time.Second
	}
	if c.Model.Dir == "" {
		c.Model.Dir = "pretrained"
	}
}

// applyEnvOverrides lets secrets come from the environment instead of the config file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("FOOTBALL_DATA_API_KEY"); key != "" {
		c.APIKeys.FootballDataOrg = key
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.BotToken = token
	}
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			c.Telegram.ChatID = chatID
		}
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
}
