package vectorizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teammatch/internal/adapter/cache"
	"teammatch/internal/domain"
	"teammatch/internal/port"
	"teammatch/internal/vector"
)

type fakeEmbedder struct {
	dimension int
	calls     atomic.Int32
	out       []float32
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = append([]float32(nil), f.out...)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int    { return f.dimension }
func (f *fakeEmbedder) ModelName() string { return "fake" }

func factoryFor(e port.Embedder, built *atomic.Int32) Factory {
	return func(context.Context) (port.Embedder, error) {
		built.Add(1)
		return e, nil
	}
}

func TestEmbed_NormalizesOutput(t *testing.T) {
	var built atomic.Int32
	fe := &fakeEmbedder{dimension: 3, out: []float32{3, 0, 4}}
	v := New(factoryFor(fe, &built), "fake", 3, nil)

	vec, err := v.Embed(context.Background(), "anything")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vector.Norm(vec), 1e-6)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
}

func TestEmbed_ZeroVectorUsesEpsilon(t *testing.T) {
	var built atomic.Int32
	fe := &fakeEmbedder{dimension: 3, out: []float32{0, 0, 0}}
	v := New(factoryFor(fe, &built), "fake", 3, nil)

	vec, err := v.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, vec)
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	var built atomic.Int32
	fe := &fakeEmbedder{dimension: 2, out: []float32{1, 2}}
	v := New(factoryFor(fe, &built), "fake", 3, nil)

	_, err := v.Embed(context.Background(), "text")
	var dm *domain.DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
}

func TestEmbed_ModelBuiltOnceUnderConcurrency(t *testing.T) {
	var built atomic.Int32
	fe := &fakeEmbedder{dimension: 2, out: []float32{1, 1}}
	v := New(factoryFor(fe, &built), "fake", 2, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Embed(context.Background(), "text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), built.Load())
}

func TestEmbed_FactoryErrorSurfaces(t *testing.T) {
	v := New(func(context.Context) (port.Embedder, error) {
		return nil, errors.New("no model")
	}, "fake", 2, nil)

	_, err := v.Embed(context.Background(), "text")
	assert.ErrorContains(t, err, "no model")
}

func TestEmbed_FactoryRetriedAfterFailure(t *testing.T) {
	var attempts atomic.Int32
	fe := &fakeEmbedder{dimension: 2, out: []float32{3, 4}}
	v := New(func(context.Context) (port.Embedder, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return fe, nil
	}, "fake", 2, nil)

	_, err := v.Embed(context.Background(), "text")
	require.ErrorContains(t, err, "connection refused")

	vec, err := v.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vector.Norm(vec), 1e-6)

	_, err = v.Embed(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load(), "a built model is kept")
}

func TestEmbed_CacheSkipsModel(t *testing.T) {
	var built atomic.Int32
	fe := &fakeEmbedder{dimension: 2, out: []float32{1, 1}}
	v := New(factoryFor(fe, &built), "fake", 2, cache.NewEmbeddingCache(8, time.Minute))

	_, err := v.Embed(context.Background(), "same")
	require.NoError(t, err)
	_, err = v.Embed(context.Background(), "same")
	require.NoError(t, err)

	assert.Equal(t, int32(1), fe.calls.Load())
}

func TestEmployeeText_FixedTemplate(t *testing.T) {
	e := domain.Employee{
		Name:           "Ada",
		Skills:         []string{"Go", "SQL"},
		Experience:     4,
		Certifications: []string{"CKA"},
		Projects:       []string{"Billing"},
	}
	assert.Equal(t,
		"Employee: Ada. Skills: Go, SQL. Experience: 4.0 years. Certifications: CKA. Past projects: Billing.",
		EmployeeText(e))
}

func TestProjectText_FixedTemplate(t *testing.T) {
	p := domain.Project{
		Title:              "Search",
		Description:        "Full text search",
		RequiredSkills:     []string{"Go"},
		RequiredExperience: 2.5,
	}
	assert.Equal(t,
		"Project: Search. Description: Full text search. Required skills: Go. Required experience: 2.5 years.",
		ProjectText(p))
}

func TestStaleness(t *testing.T) {
	v := New(nil, "fake", 2, nil)
	e := domain.Employee{ID: 1, Name: "Ada", Skills: []string{"Go"}}
	assert.True(t, v.EmployeeStale(e))

	row := 0
	e.EmbeddingRef = &row
	e.EmbeddingDigest = v.Digest(EmployeeText(e))
	assert.False(t, v.EmployeeStale(e))

	e.Skills = append(e.Skills, "Rust")
	assert.True(t, v.EmployeeStale(e))

	other := New(nil, "other-model", 2, nil)
	e.Skills = []string{"Go"}
	assert.True(t, other.EmployeeStale(e))
}
