package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"teammatch/internal/domain"
)

// EnvPrefix marks environment variables that override file settings, e.g.
// TEAMMATCH_EMBEDDING_PROVIDER=ollama.
const EnvPrefix = "TEAMMATCH_"

// DataDirName is the per-workspace directory holding all tenant data.
const DataDirName = ".teammatch"

// DefaultTenant is used when no tenant is given.
const DefaultTenant = "default"

// Config holds all configuration for the matcher.
type Config struct {
	Store     StoreConfig     `yaml:"store" koanf:"store"`
	Index     IndexConfig     `yaml:"index" koanf:"index"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	Matching  MatchingConfig  `yaml:"matching" koanf:"matching"`
	Logging   LoggingConfig   `yaml:"logging" koanf:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" koanf:"metrics"`
}

// StoreConfig selects the entity and score store.
type StoreConfig struct {
	Driver string `yaml:"driver" koanf:"driver"` // "bolt", "sqlite", "postgres"
	DSN    string `yaml:"dsn" koanf:"dsn"`       // required for postgres; sqlite defaults to the data dir
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Dimension int `yaml:"dimension" koanf:"dimension"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider" koanf:"provider"`       // "hashing", "openai", "ollama", "gemini"
	Model             string        `yaml:"model" koanf:"model"`             // empty picks the provider default
	APIKeyEnv         string        `yaml:"api_key_env" koanf:"api_key_env"` // empty picks OPENAI_API_KEY or GEMINI_API_KEY
	BaseURL           string        `yaml:"base_url" koanf:"base_url"`
	RequestsPerSecond float64       `yaml:"requests_per_second" koanf:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout" koanf:"timeout"`
	Concurrency       int           `yaml:"concurrency" koanf:"concurrency"`
	CacheSize         int           `yaml:"cache_size" koanf:"cache_size"`
	CacheTTL          time.Duration `yaml:"cache_ttl" koanf:"cache_ttl"`
}

// MatchingConfig holds ranking settings. The score weights are fixed and not
// configurable.
type MatchingConfig struct {
	TopK int `yaml:"top_k" koanf:"top_k"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" koanf:"level"`
	JSON  bool   `yaml:"json" koanf:"json"`
}

// MetricsConfig holds metrics output configuration.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" koanf:"namespace"`
	File      string `yaml:"file" koanf:"file"` // textfile collector output, empty disables
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: "bolt",
		},
		Index: IndexConfig{
			Dimension: domain.Dimension,
		},
		Embedding: EmbeddingConfig{
			Provider:          "hashing",
			RequestsPerSecond: 5,
			Timeout:           30 * time.Second,
			Concurrency:       4,
			CacheSize:         1024,
			CacheTTL:          30 * time.Minute,
		},
		Matching: MatchingConfig{
			TopK: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Namespace: "teammatch",
		},
	}
}

// Load layers defaults, the YAML file at path (a missing file is not an
// error) and TEAMMATCH_ environment variables, in that order.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// TEAMMATCH_EMBEDDING_API_KEY_ENV -> embedding.api_key_env
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(s, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory: teammatch.yaml first,
// then .teammatch/config.yaml. Environment overrides apply either way.
func LoadFromDir(dir string) (*Config, error) {
	candidates := []string{
		filepath.Join(dir, "teammatch.yaml"),
		filepath.Join(dir, DataDirName, "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Load("")
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Index.Dimension <= 0 {
		return fmt.Errorf("%w: index.dimension must be positive, got %d", domain.ErrInvalidInput, c.Index.Dimension)
	}
	switch c.Store.Driver {
	case "bolt", "sqlite":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for postgres", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown store.driver %q", domain.ErrInvalidInput, c.Store.Driver)
	}
	switch c.Embedding.Provider {
	case "hashing", "openai", "ollama", "gemini":
	default:
		return fmt.Errorf("%w: unknown embedding.provider %q", domain.ErrInvalidInput, c.Embedding.Provider)
	}
	if c.Matching.TopK <= 0 {
		return fmt.Errorf("%w: matching.top_k must be positive, got %d", domain.ErrInvalidInput, c.Matching.TopK)
	}
	return nil
}

// ValidateTenant rejects tenant names that are not a single path element, so
// a tenant can never reach outside the data directory.
func ValidateTenant(tenant string) error {
	if tenant == "" {
		return nil
	}
	if tenant == "." || tenant == ".." || strings.ContainsAny(tenant, `/\`) || strings.Contains(tenant, "..") {
		return fmt.Errorf("%w: tenant %q must be a plain name", domain.ErrInvalidInput, tenant)
	}
	return nil
}

// DataDir returns the directory holding one tenant's indexes and store.
func DataDir(dir, tenant string) string {
	if tenant == "" {
		tenant = DefaultTenant
	}
	return filepath.Join(dir, DataDirName, tenant)
}

// IndexPath returns the vector index file for an entity class.
func IndexPath(dir, tenant string, class domain.EntityClass) string {
	return filepath.Join(DataDir(dir, tenant), string(class)+".idx")
}

// EntityDBPath returns the bolt or sqlite entity store file.
func EntityDBPath(dir, tenant, driver string) string {
	name := "entities.db"
	if driver == "sqlite" {
		name = "entities.sqlite"
	}
	return filepath.Join(DataDir(dir, tenant), name)
}

// EnsureDataDir ensures the tenant data directory exists.
func EnsureDataDir(dir, tenant string) error {
	return os.MkdirAll(DataDir(dir, tenant), 0o755)
}
