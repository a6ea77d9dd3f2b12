// Package config loads the cartwise API configuration from per-environment
// YAML files with ${VAR:-default} expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the cartwise API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	LLM       LLMConfig       `yaml:"llm"`
	Assistant AssistantConfig `yaml:"assistant"`
	Layout    []LayoutEntry   `yaml:"store_layout"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogConfig holds product catalog source settings.
type CatalogConfig struct {
	Driver           string   `yaml:"driver"` // file, redis (default: file)
	Path             string   `yaml:"path"`   // file driver: JSON product array
	Addrs            []string `yaml:"addrs"`  // redis driver
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LLMConfig holds the external classifier/generator provider settings.
type LLMConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	TimeoutSec      int    `yaml:"timeout_sec"`
	TranscribeModel string `yaml:"transcription_model"`
}

// AssistantConfig holds pipeline tuning: budget thresholds per category,
// category aliases, and the interaction log location.
type AssistantConfig struct {
	BudgetThresholds map[string]float64  `yaml:"budget_thresholds"`
	CategoryAliases  map[string][]string `yaml:"category_aliases"`
	InteractionLog   string              `yaml:"interaction_log"`
	MaxRetries       int                 `yaml:"max_retries"`
}

// LayoutEntry describes one store zone for "where is" lookups.
type LayoutEntry struct {
	Zone    string `yaml:"zone"`
	Aisle   string `yaml:"aisle"`
	Section string `yaml:"section"`
	Shelf   string `yaml:"shelf"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// DefaultBudgetThresholds is the per-category price ceiling applied when a
// query asks for "budget"/"cheap" items and config does not override it.
func DefaultBudgetThresholds() map[string]float64 {
	return map[string]float64{
		"snacks":      30,
		"smartphone":  15000,
		"laptop":      40000,
		"electronics": 20000,
		"shampoo":     100,
		"milk":        60,
		"apparel":     2000,
	}
}

// DefaultCategoryAliases maps broad classifier categories onto catalog categories.
func DefaultCategoryAliases() map[string][]string {
	return map[string][]string{
		"grocery":           {"milk", "snacks", "beverage", "coffee"},
		"food_and_beverage": {"milk", "snacks", "beverage"},
		"beverage":          {"juice", "tea", "coffee", "milk"},
		"dairy":             {"milk", "cheese", "curd"},
		"electronics":       {"laptop", "smartphone"},
		"food":              {"snacks"},
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = "file"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "catalog.json"
	}
	if c.Catalog.KeyPrefix == "" {
		c.Catalog.KeyPrefix = "cartwise:"
	}
	if c.Catalog.ReadinessTimeout <= 0 {
		c.Catalog.ReadinessTimeout = 10
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 20
	}
	if c.LLM.TranscribeModel == "" {
		c.LLM.TranscribeModel = "whisper-1"
	}
	if c.Assistant.BudgetThresholds == nil {
		c.Assistant.BudgetThresholds = DefaultBudgetThresholds()
	}
	if c.Assistant.CategoryAliases == nil {
		c.Assistant.CategoryAliases = DefaultCategoryAliases()
	}
	if c.Assistant.InteractionLog == "" {
		c.Assistant.InteractionLog = "logs/interactions.jsonl"
	}
	if c.Assistant.MaxRetries <= 0 {
		c.Assistant.MaxRetries = 2
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Catalog.Driver {
	case "file":
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the file driver")
		}
	case "redis":
		if len(c.Catalog.Addrs) == 0 {
			return fmt.Errorf("catalog.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("catalog.driver must be \"file\" or \"redis\", got %q", c.Catalog.Driver)
	}
	for cat, limit := range c.Assistant.BudgetThresholds {
		if limit <= 0 {
			return fmt.Errorf("assistant.budget_thresholds.%s must be positive, got %v", cat, limit)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
