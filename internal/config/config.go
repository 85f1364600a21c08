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

// Config holds the cvmatch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Match     MatchConfig     `yaml:"match"`
	Documents DocumentsConfig `yaml:"documents"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Storage drivers.
const (
	DriverValkey   = "valkey"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

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

// DatabaseConfig holds document store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, postgres, bolt (default: valkey)
	Addrs            []string `yaml:"addrs"`  // valkey, redis
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	URL              string   `yaml:"url"`  // postgres
	Path             string   `yaml:"path"` // bolt
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// MatchConfig holds match engine limits.
type MatchConfig struct {
	DefaultTopAlternatives int `yaml:"default_top_alternatives"`
	MaxTopAlternatives     int `yaml:"max_top_alternatives"`
	MaxCandidates          int `yaml:"max_candidates"`
	Workers                int `yaml:"workers"` // 0 = GOMAXPROCS
}

// DocumentsConfig holds the per-document embedding slot budget.
type DocumentsConfig struct {
	MaxSkills           int `yaml:"max_skills"`
	MaxResponsibilities int `yaml:"max_responsibilities"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers   map[string]ProviderConfig   `yaml:"providers"`
	Vectorizers map[string]VectorizerConfig `yaml:"vectorizers"`
	Default     string                      `yaml:"default"` // vectorizer name used for documents
	Cache       bool                        `yaml:"cache"`
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider            string `yaml:"provider"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	MaxBatchSize        int    `yaml:"max_batch_size"`
}

// DefaultVectorizer returns the configured document vectorizer.
// With a single vectorizer and no explicit default, that one is used.
func (e *EmbeddingConfig) DefaultVectorizer() (string, VectorizerConfig, bool) {
	if e.Default != "" {
		v, ok := e.Vectorizers[e.Default]
		return e.Default, v, ok
	}
	if len(e.Vectorizers) == 1 {
		for name, v := range e.Vectorizers {
			return name, v, true
		}
	}
	return "", VectorizerConfig{}, false
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML file path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Match.DefaultTopAlternatives <= 0 {
		c.Match.DefaultTopAlternatives = 3
	}
	if c.Match.MaxTopAlternatives <= 0 {
		c.Match.MaxTopAlternatives = 20
	}
	if c.Match.MaxCandidates <= 0 {
		c.Match.MaxCandidates = 500
	}
	if c.Documents.MaxSkills <= 0 {
		c.Documents.MaxSkills = 20
	}
	if c.Documents.MaxResponsibilities <= 0 {
		c.Documents.MaxResponsibilities = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "cvmatch:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for driver %q", c.Database.Driver)
		}
	case DriverBolt:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, postgres, bolt, got %q", c.Database.Driver)
	}
	if c.Match.DefaultTopAlternatives > c.Match.MaxTopAlternatives {
		return fmt.Errorf("match.default_top_alternatives (%d) exceeds match.max_top_alternatives (%d)",
			c.Match.DefaultTopAlternatives, c.Match.MaxTopAlternatives)
	}
	if c.Match.Workers < 0 {
		return fmt.Errorf("match.workers must not be negative, got %d", c.Match.Workers)
	}
	for name, v := range c.Embedding.Vectorizers {
		if _, ok := c.Embedding.Providers[v.Provider]; !ok {
			return fmt.Errorf("embedding.vectorizers.%s: unknown provider %q", name, v.Provider)
		}
		if v.Model == "" {
			return fmt.Errorf("embedding.vectorizers.%s.model is required", name)
		}
	}
	if c.Embedding.Default != "" {
		if _, ok := c.Embedding.Vectorizers[c.Embedding.Default]; !ok {
			return fmt.Errorf("embedding.default: unknown vectorizer %q", c.Embedding.Default)
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
