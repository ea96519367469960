package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"teammatch/internal/adapter/embedding"
	"teammatch/internal/adapter/memstore"
	"teammatch/internal/adapter/scoring"
	"teammatch/internal/adapter/store"
	"teammatch/internal/adapter/vectorizer"
	"teammatch/internal/domain"
	"teammatch/internal/port"
)

type fixture struct {
	store     *memstore.MemoryStore
	employees port.VectorIndex
	projects  port.VectorIndex
	embed     *EmbedUseCase
	rank      *RankUseCase
}

func hashingFactory(dim int) vectorizer.Factory {
	return func(context.Context) (port.Embedder, error) {
		return embedding.NewHashingEmbedder(dim), nil
	}
}

func failingFactory(context.Context) (port.Embedder, error) {
	return nil, errors.New("model download failed")
}

func newFixture(t *testing.T, factory vectorizer.Factory) *fixture {
	t.Helper()
	dir := t.TempDir()

	employees, err := store.NewBoltVectorIndex(filepath.Join(dir, "employee.idx"), domain.ClassEmployee, domain.Dimension)
	if err != nil {
		t.Fatal(err)
	}
	projects, err := store.NewBoltVectorIndex(filepath.Join(dir, "project.idx"), domain.ClassProject, domain.Dimension)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		employees.Close()
		projects.Close()
	})

	st := memstore.NewMemoryStore()
	vec := vectorizer.New(factory, "hashing", domain.Dimension, nil)
	log := zap.NewNop()

	return &fixture{
		store:     st,
		employees: employees,
		projects:  projects,
		embed:     NewEmbedUseCase(st, vec, employees, projects, nil, log, 2),
		rank:      NewRankUseCase(st, scoring.NewScorer(employees, projects), nil, log),
	}
}

func ptr64(v int64) *int64 { return &v }

// seed stores four employees, a two-person team led by employee 1, a solo
// team, a team with a dangling member and two projects.
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}

	must(f.store.PutEmployee(ctx, domain.Employee{ID: 1, Name: "Ada", Skills: []string{"python"}, Experience: 2}))
	must(f.store.PutEmployee(ctx, domain.Employee{ID: 2, Name: "Brook", Skills: []string{"java"}, Experience: 4}))
	must(f.store.PutEmployee(ctx, domain.Employee{ID: 3, Name: "Cy", Skills: []string{"Python", "React"}, Experience: 6}))
	must(f.store.PutEmployee(ctx, domain.Employee{ID: 4, Name: "Dee", Skills: []string{"Figma"}, Experience: 1}))

	must(f.store.PutTeam(ctx, domain.Team{ID: 10, Name: "Platform", LeadID: ptr64(1), MemberIDs: []int64{1, 2}}))
	must(f.store.PutTeam(ctx, domain.Team{ID: 11, Name: "Solo", MemberIDs: []int64{3}}))
	must(f.store.PutTeam(ctx, domain.Team{ID: 12, Name: "Ghost", MemberIDs: []int64{4, 404}}))

	must(f.store.PutProject(ctx, domain.Project{ID: 100, Title: "Storefront", RequiredSkills: []string{"Python", "React"}, RequiredExperience: 4}))
	must(f.store.PutProject(ctx, domain.Project{ID: 101, Title: "Brand refresh", RequiredSkills: []string{"Figma"}, RequiredExperience: 1}))
}

type countingProgress struct {
	max  int
	done int
}

func (p *countingProgress) ChangeMax(max int) { p.max = max }

func (p *countingProgress) Add(n int) error {
	p.done += n
	return nil
}
