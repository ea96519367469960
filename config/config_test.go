package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"teammatch/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Index.Dimension != 384 {
		t.Errorf("expected Dimension=384, got %d", cfg.Index.Dimension)
	}
	if cfg.Store.Driver != "bolt" {
		t.Errorf("expected Driver=bolt, got %s", cfg.Store.Driver)
	}
	if cfg.Embedding.Provider != "hashing" {
		t.Errorf("expected Provider=hashing, got %s", cfg.Embedding.Provider)
	}
	if cfg.Matching.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Matching.TopK)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Matching.TopK != 5 {
		t.Errorf("expected default TopK=5, got %d", cfg.Matching.TopK)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "teammatch.yaml")

	content := `
embedding:
  provider: ollama
  model: all-minilm
  cache_ttl: 5m
matching:
  top_k: 10
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Embedding.Provider != "ollama" {
		t.Errorf("expected Provider=ollama, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.CacheTTL != 5*time.Minute {
		t.Errorf("expected CacheTTL=5m, got %s", cfg.Embedding.CacheTTL)
	}
	if cfg.Matching.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Matching.TopK)
	}
	// untouched sections keep their defaults
	if cfg.Index.Dimension != 384 {
		t.Errorf("expected Dimension=384, got %d", cfg.Index.Dimension)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "teammatch.yaml")
	if err := os.WriteFile(configPath, []byte("matching:\n  top_k: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TEAMMATCH_MATCHING_TOP_K", "3")
	t.Setenv("TEAMMATCH_EMBEDDING_API_KEY_ENV", "MY_KEY")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Matching.TopK != 3 {
		t.Errorf("expected TopK=3 from env, got %d", cfg.Matching.TopK)
	}
	if cfg.Embedding.APIKeyEnv != "MY_KEY" {
		t.Errorf("expected APIKeyEnv=MY_KEY, got %s", cfg.Embedding.APIKeyEnv)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, DataDirName), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, DataDirName, "config.yaml")

	content := `
store:
  driver: sqlite
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Driver != "sqlite" {
		t.Errorf("expected Driver=sqlite, got %s", cfg.Store.Driver)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "teammatch.yaml")
	cfg := DefaultConfig()
	cfg.Embedding.Provider = "gemini"
	cfg.Embedding.CacheTTL = 90 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Embedding.Provider != "gemini" {
		t.Errorf("expected Provider=gemini, got %s", loaded.Embedding.Provider)
	}
	if loaded.Embedding.CacheTTL != 90*time.Second {
		t.Errorf("expected CacheTTL=90s, got %s", loaded.Embedding.CacheTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dimension", func(c *Config) { c.Index.Dimension = 0 }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "word2vec" }},
		{"zero top k", func(c *Config) { c.Matching.TopK = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	base := "/home/user/work"

	if got, want := DataDir(base, ""), filepath.Join(base, ".teammatch", "default"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got, want := IndexPath(base, "acme", domain.ClassEmployee), filepath.Join(base, ".teammatch", "acme", "employee.idx"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got, want := EntityDBPath(base, "acme", "sqlite"), filepath.Join(base, ".teammatch", "acme", "entities.sqlite"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if IndexPath(base, "a", domain.ClassProject) == IndexPath(base, "b", domain.ClassProject) {
		t.Error("tenants must not share index files")
	}
}

func TestValidateTenant(t *testing.T) {
	for _, tenant := range []string{"", "default", "acme-corp", "team_7"} {
		if err := ValidateTenant(tenant); err != nil {
			t.Errorf("expected %q to be accepted, got %v", tenant, err)
		}
	}
	for _, tenant := range []string{"..", ".", "../../x", "a/b", `a\b`, "x..y"} {
		if err := ValidateTenant(tenant); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected %q to be rejected with ErrInvalidInput, got %v", tenant, err)
		}
	}
}
