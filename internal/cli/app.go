package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"teammatch/config"
	"teammatch/internal/adapter/cache"
	"teammatch/internal/adapter/embedding"
	"teammatch/internal/adapter/scoring"
	"teammatch/internal/adapter/sqlstore"
	"teammatch/internal/adapter/store"
	"teammatch/internal/adapter/vectorizer"
	"teammatch/internal/domain"
	"teammatch/internal/port"
	"teammatch/internal/usecase"
)

// app bundles everything a command needs for one tenant.
type app struct {
	store     port.Store
	employees port.VectorIndex
	projects  port.VectorIndex

	embed *usecase.EmbedUseCase
	rank  *usecase.RankUseCase
	teams *usecase.TeamUseCase
}

// openApp opens the tenant's store and both vector indexes. An index that
// cannot be opened degrades to a null index; a dimension mismatch in a stored
// index is fatal.
func openApp(ctx context.Context) (*app, error) {
	if err := config.EnsureDataDir(rootDir, tenant); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{store: st}
	a.employees, err = openIndex(domain.ClassEmployee)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.projects, err = openIndex(domain.ClassProject)
	if err != nil {
		a.Close()
		return nil, err
	}

	model := embeddingModel(cfg.Embedding)
	embCache := cache.NewEmbeddingCache(cfg.Embedding.CacheSize, cfg.Embedding.CacheTTL)
	vec := vectorizer.New(embedderFactory(cfg.Embedding, cfg.Index.Dimension), model, cfg.Index.Dimension, embCache)

	a.embed = usecase.NewEmbedUseCase(st, vec, a.employees, a.projects, metricM, log, cfg.Embedding.Concurrency)
	a.rank = usecase.NewRankUseCase(st, scoring.NewScorer(a.employees, a.projects), metricM, log)
	a.teams = usecase.NewTeamUseCase(st)

	log.Debug("workspace opened",
		zap.String("dir", config.DataDir(rootDir, tenant)),
		zap.String("store", cfg.Store.Driver),
		zap.String("embedding_model", model),
	)
	return a, nil
}

func (a *app) Close() {
	for _, ix := range []port.VectorIndex{a.employees, a.projects} {
		if ix == nil {
			continue
		}
		if err := ix.Close(); err != nil {
			log.Warn("closing index", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		log.Warn("closing store", zap.Error(err))
	}
}

// publishIndexState records the current row counts, for the metrics file.
func (a *app) publishIndexState() {
	for class, ix := range map[domain.EntityClass]port.VectorIndex{
		domain.ClassEmployee: a.employees,
		domain.ClassProject:  a.projects,
	} {
		metricM.SetIndexState(class, ix.Len(), port.IsDegraded(ix))
	}
}

func openIndex(class domain.EntityClass) (port.VectorIndex, error) {
	ix, degraded, err := store.OpenVectorIndex(config.IndexPath(rootDir, tenant, class), class, cfg.Index.Dimension, log)
	if err != nil {
		return nil, err
	}
	metricM.SetIndexState(class, ix.Len(), degraded)
	return ix, nil
}

func openStore(ctx context.Context, cfg *config.Config) (port.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.DSN
		if path == "" {
			path = config.EntityDBPath(rootDir, tenant, "sqlite")
		}
		return sqlstore.NewSQLiteStore(ctx, path)
	case "postgres":
		return sqlstore.NewPostgresStore(ctx, cfg.Store.DSN)
	default:
		return store.NewBoltStore(config.EntityDBPath(rootDir, tenant, "bolt"))
	}
}

// embeddingModel names the model that produced stored vectors. It is part
// of every text digest, so changing it marks all records pending.
func embeddingModel(c config.EmbeddingConfig) string {
	switch c.Provider {
	case "openai":
		if c.Model == "" {
			return "openai/text-embedding-3-small"
		}
		return "openai/" + c.Model
	case "ollama":
		if c.Model == "" {
			return "ollama/all-minilm"
		}
		return "ollama/" + c.Model
	case "gemini":
		if c.Model == "" {
			return "gemini/gemini-embedding-001"
		}
		return "gemini/" + c.Model
	default:
		return "hashing"
	}
}

func embedderFactory(c config.EmbeddingConfig, dimension int) vectorizer.Factory {
	opts := embedding.HTTPOptions{
		BaseURL:           c.BaseURL,
		Dimension:         dimension,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           c.Timeout,
	}

	return func(ctx context.Context) (port.Embedder, error) {
		switch c.Provider {
		case "openai":
			model := c.Model
			if model == "" {
				model = "text-embedding-3-small"
			}
			keyEnv := c.APIKeyEnv
			if keyEnv == "" {
				keyEnv = "OPENAI_API_KEY"
			}
			e, err := embedding.NewOpenAIEmbedder(keyEnv, model, opts)
			if err != nil {
				return nil, err
			}
			return e, nil
		case "ollama":
			return embedding.NewOllamaEmbedder(c.Model, opts), nil
		case "gemini":
			keyEnv := c.APIKeyEnv
			if keyEnv == "" {
				keyEnv = "GEMINI_API_KEY"
			}
			e, err := embedding.NewGeminiEmbedder(ctx, keyEnv, c.Model, dimension)
			if err != nil {
				return nil, err
			}
			return e, nil
		default:
			return embedding.NewHashingEmbedder(dimension), nil
		}
	}
}
