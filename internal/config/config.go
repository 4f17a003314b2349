package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config" yaml:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases" yaml:"databases"`
	Redis       RedisConfig               `json:"redis" yaml:"redis"`
	Chatbot     ChatbotConfig             `json:"chatbot" yaml:"chatbot"`
}

type BasicConfig struct {
	ServerAddress     string `json:"server_address" yaml:"server_address"`
	LogLevel          string `json:"log_level" yaml:"log_level"`
	Development       bool   `json:"development" yaml:"development"`
	TokenTTLHours     int    `json:"token_ttl_hours" yaml:"token_ttl_hours"`
	WorkerIdleTimeout int    `json:"worker_idle_timeout" yaml:"worker_idle_timeout"` // minutes
	QueueSize         int    `json:"queue_size" yaml:"queue_size"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn" yaml:"dsn"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"db_name" yaml:"db_name"`
	Params   string `json:"params" yaml:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// ChatbotConfig tunes the rule engine and its collaborators.
type ChatbotConfig struct {
	FallbackThreshold    int              `json:"fallback_threshold" yaml:"fallback_threshold"`
	KeywordDistance      int              `json:"keyword_distance" yaml:"keyword_distance"`
	LocationDistance     int              `json:"location_distance" yaml:"location_distance"`
	Locations            []LocationConfig `json:"locations" yaml:"locations"`
	TransliterationHints bool             `json:"transliteration_hints" yaml:"transliteration_hints"`
	StateTTLMinutes      int              `json:"state_ttl_minutes" yaml:"state_ttl_minutes"`
	CacheSize            int              `json:"cache_size" yaml:"cache_size"`
	CacheTTLSeconds      int              `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	SeedFile             string           `json:"seed_file" yaml:"seed_file"`
}

// LocationConfig names a campus location and the alternative spellings users type for it.
type LocationConfig struct {
	Name    string   `json:"name" yaml:"name"`
	Aliases []string `json:"aliases" yaml:"aliases"`
}

// Load reads configuration from the provided path (defaults to config.json).
// Files with a .yaml or .yml extension are decoded as YAML.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	if len(cfg.Databases) == 0 {
		return nil, fmt.Errorf("at least one database must be configured")
	}

	baseDir := filepath.Dir(absPath)
	if sqliteCfg, ok := cfg.Databases["sqlite3"]; ok {
		if sqliteCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite3 dsn must be configured")
		}
		if !isMemoryDSN(sqliteCfg.DSN) && !filepath.IsAbs(sqliteCfg.DSN) && !strings.HasPrefix(sqliteCfg.DSN, "file:") {
			sqliteCfg.DSN = filepath.Join(baseDir, sqliteCfg.DSN)
			cfg.Databases["sqlite3"] = sqliteCfg
		}
	}
	if cfg.Chatbot.SeedFile != "" && !filepath.IsAbs(cfg.Chatbot.SeedFile) {
		cfg.Chatbot.SeedFile = filepath.Join(baseDir, cfg.Chatbot.SeedFile)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":8090"
	}
	if c.BasicConfig.LogLevel == "" {
		c.BasicConfig.LogLevel = "info"
	}
	if c.BasicConfig.TokenTTLHours <= 0 {
		c.BasicConfig.TokenTTLHours = 24
	}
	if c.BasicConfig.WorkerIdleTimeout <= 0 {
		c.BasicConfig.WorkerIdleTimeout = 30
	}
	if c.BasicConfig.QueueSize <= 0 {
		c.BasicConfig.QueueSize = 16
	}
	if c.Chatbot.FallbackThreshold <= 0 {
		c.Chatbot.FallbackThreshold = 2
	}
	if c.Chatbot.KeywordDistance <= 0 {
		c.Chatbot.KeywordDistance = 1
	}
	if c.Chatbot.LocationDistance <= 0 {
		c.Chatbot.LocationDistance = 2
	}
	if c.Chatbot.StateTTLMinutes <= 0 {
		c.Chatbot.StateTTLMinutes = 30
	}
	if c.Chatbot.CacheSize <= 0 {
		c.Chatbot.CacheSize = 256
	}
	if c.Chatbot.CacheTTLSeconds <= 0 {
		c.Chatbot.CacheTTLSeconds = 60
	}
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
