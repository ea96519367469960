// Package vectorizer turns employee and project records into unit-length
// embedding vectors.
package vectorizer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"teammatch/internal/adapter/cache"
	"teammatch/internal/domain"
	"teammatch/internal/port"
	"teammatch/internal/vector"
)

// Factory builds the embedding model. It is called on first use and again
// on later calls only while it keeps failing; once it succeeds the model is
// kept for the life of the Vectorizer.
type Factory func(ctx context.Context) (port.Embedder, error)

// Vectorizer lazily initializes a shared embedder and normalizes everything it
// returns. The embedder is read-only after initialization and safe to share.
type Vectorizer struct {
	factory   Factory
	model     string
	dimension int
	cache     *cache.EmbeddingCache

	mu       sync.Mutex
	embedder port.Embedder
}

// New creates a Vectorizer. model identifies the embedding model and is mixed
// into every digest, so switching models marks all records as stale. cache
// may be nil.
func New(factory Factory, model string, dimension int, c *cache.EmbeddingCache) *Vectorizer {
	return &Vectorizer{
		factory:   factory,
		model:     model,
		dimension: dimension,
		cache:     c,
	}
}

// load builds the embedder on first use. A failed build is not remembered,
// so a transient error (network, missing key set later) is retried on the
// next call.
func (v *Vectorizer) load(ctx context.Context) (port.Embedder, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.embedder != nil {
		return v.embedder, nil
	}
	embedder, err := v.factory(ctx)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedding model factory returned no embedder")
	}
	v.embedder = embedder
	return embedder, nil
}

// Embed returns the unit-length embedding of text.
func (v *Vectorizer) Embed(ctx context.Context, text string) ([]float32, error) {
	digest := v.Digest(text)
	if v.cache != nil {
		if vec, ok := v.cache.Get(digest); ok {
			return vec, nil
		}
	}

	embedder, err := v.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding model: %w", err)
	}

	embeddings, err := embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embedding failed: expected 1 vector, got %d", len(embeddings))
	}
	if len(embeddings[0]) != v.dimension {
		return nil, &domain.DimensionMismatchError{Expected: v.dimension, Actual: len(embeddings[0])}
	}

	unit := vector.Normalize(embeddings[0])
	if v.cache != nil {
		v.cache.Put(digest, unit)
	}
	return unit, nil
}

// EmbedEmployee returns the employee's vector and the digest of its text.
func (v *Vectorizer) EmbedEmployee(ctx context.Context, e domain.Employee) ([]float32, uint64, error) {
	text := EmployeeText(e)
	vec, err := v.Embed(ctx, text)
	return vec, v.Digest(text), err
}

// EmbedProject returns the project's vector and the digest of its text.
func (v *Vectorizer) EmbedProject(ctx context.Context, p domain.Project) ([]float32, uint64, error) {
	text := ProjectText(p)
	vec, err := v.Embed(ctx, text)
	return vec, v.Digest(text), err
}

// Digest fingerprints text together with the model name.
func (v *Vectorizer) Digest(text string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(v.model)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(text)
	return d.Sum64()
}

// EmployeeStale reports whether the employee has no vector or its vector was
// computed from different text.
func (v *Vectorizer) EmployeeStale(e domain.Employee) bool {
	return e.EmbeddingRef == nil || e.EmbeddingDigest != v.Digest(EmployeeText(e))
}

func (v *Vectorizer) ProjectStale(p domain.Project) bool {
	return p.EmbeddingRef == nil || p.EmbeddingDigest != v.Digest(ProjectText(p))
}

func (v *Vectorizer) ModelName() string {
	return v.model
}

func (v *Vectorizer) Dimension() int {
	return v.dimension
}

// EmployeeText renders an employee in a fixed template order.
func EmployeeText(e domain.Employee) string {
	return fmt.Sprintf("Employee: %s. Skills: %s. Experience: %s years. Certifications: %s. Past projects: %s.",
		e.Name,
		strings.Join(e.Skills, ", "),
		formatYears(e.Experience),
		strings.Join(e.Certifications, ", "),
		strings.Join(e.Projects, ", "),
	)
}

// ProjectText renders a project in a fixed template order.
func ProjectText(p domain.Project) string {
	return fmt.Sprintf("Project: %s. Description: %s. Required skills: %s. Required experience: %s years.",
		p.Title,
		p.Description,
		strings.Join(p.RequiredSkills, ", "),
		formatYears(p.RequiredExperience),
	)
}

func formatYears(years float64) string {
	return strconv.FormatFloat(years, 'f', 1, 64)
}
