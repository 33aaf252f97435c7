package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Log         LogConfig                 `json:"log"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Generation  GenerationConfig          `json:"generation"`
	Providers   map[string]ProviderConfig `json:"providers" validate:"dive"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	// DemoMode serves the built-in demo inventory instead of database rows.
	DemoMode bool `json:"demo_mode"`
	// TokenTTLMinutes bounds login token lifetime.
	TokenTTLMinutes int `json:"token_ttl_minutes" validate:"gte=0"`
}

type LogConfig struct {
	Level       string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format      string `json:"format" validate:"omitempty,oneof=json console"`
	Development bool   `json:"development"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port" validate:"gte=0,lte=65535"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db" validate:"gte=0"`
}

// GenerationConfig selects the language model used for recipes and chat.
type GenerationConfig struct {
	Provider string `json:"provider" validate:"omitempty,oneof=gemini openai claude"`
	// TimeoutSeconds of 0 leaves generation calls unbounded.
	TimeoutSeconds int `json:"timeout_seconds" validate:"gte=0"`
	// RatePerMinute caps generation requests per user; 0 disables the limit.
	RatePerMinute int `json:"rate_per_minute" validate:"gte=0"`
	// Workers bounds concurrent upstream calls across all users.
	MinWorkers  int `json:"min_workers" validate:"gte=0"`
	MaxWorkers  int `json:"max_workers" validate:"gte=0"`
	QueueSize   int `json:"queue_size" validate:"gte=0"`
	IdleSeconds int `json:"idle_seconds" validate:"gte=0"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url" validate:"omitempty,url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

const (
	DefaultProvider = "gemini"
	DefaultModel    = "gemini-2.0-flash"
)

// providerKeyEnv maps provider names to the environment variable that carries the API key.
var providerKeyEnv = map[string]string{
	"gemini": "GEMINI_API_KEY",
	"openai": "OPENAI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
}

var validate = validator.New()

// Load reads configuration from the provided path (defaults to config.json).
// API keys are taken from the environment (optionally a .env file next to the
// config) so they never need to live in the JSON file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	envPath := filepath.Join(filepath.Dir(absPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envPath, err)
		}
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for name, db := range cfg.Databases {
		if db.DSN == "" || db.DSN == ":memory:" || !isSQLite(name) {
			continue
		}
		if !filepath.IsAbs(db.DSN) {
			db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
			cfg.Databases[name] = db
		}
	}

	return &cfg, nil
}

// Validate checks struct constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Databases) == 0 {
		return fmt.Errorf("at least one database must be configured")
	}
	return nil
}

// Provider returns the active generation provider settings.
func (c *Config) Provider() (string, ProviderConfig) {
	name := c.Generation.Provider
	if name == "" {
		name = DefaultProvider
	}
	return name, c.Providers[name]
}

func (c *Config) applyEnv() {
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	for name, env := range providerKeyEnv {
		key := strings.TrimSpace(os.Getenv(env))
		if key == "" {
			continue
		}
		p := c.Providers[name]
		p.APIKey = key
		c.Providers[name] = p
	}
	if v := os.Getenv("FRIDGEFRIEND_DEMO_MODE"); v != "" {
		if demo, err := strconv.ParseBool(v); err == nil {
			c.BasicConfig.DemoMode = demo
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Generation.Provider == "" {
		c.Generation.Provider = DefaultProvider
	}
	if p, ok := c.Providers[DefaultProvider]; !ok || p.Model == "" {
		p.Model = DefaultModel
		c.Providers[DefaultProvider] = p
	}
	if c.Generation.MaxWorkers == 0 {
		c.Generation.MaxWorkers = 4
	}
	if c.Generation.QueueSize == 0 {
		c.Generation.QueueSize = 64
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func isSQLite(name string) bool {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return true
	}
	return false
}
