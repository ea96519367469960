package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"teammatch/internal/adapter/cache"
	"teammatch/internal/adapter/embedding"
	"teammatch/internal/adapter/memstore"
	"teammatch/internal/adapter/scoring"
	"teammatch/internal/adapter/store"
	"teammatch/internal/adapter/vectorizer"
	"teammatch/internal/domain"
	"teammatch/internal/metrics"
	"teammatch/internal/port"
	"teammatch/internal/usecase"
)

var skillPool = []string{
	"Go", "Python", "Java", "TypeScript", "React", "Kubernetes", "Terraform",
	"PostgreSQL", "Kafka", "gRPC", "AWS", "GCP", "Machine Learning", "Rust",
	"Docker", "GraphQL", "Redis", "Spark", "Security", "iOS",
}

func main() {
	numEmployees := flag.Int("employees", 1000, "Synthetic employees")
	numTeams := flag.Int("teams", 100, "Synthetic teams")
	numProjects := flag.Int("projects", 20, "Synthetic projects")
	teamSize := flag.Int("team-size", 6, "Members per team")
	topK := flag.Int("k", scoring.DefaultTopK, "Teams kept per project")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	if *numEmployees < *teamSize || *teamSize < 1 || *numProjects < 1 {
		fmt.Println("Usage: go run cmd/benchmark/main.go -employees 1000 -teams 100 -projects 20")
		fmt.Println("\nMeasures:")
		fmt.Println("  1. Bulk embedding throughput (hashing embedder, bolt index)")
		fmt.Println("  2. Team ranking latency per project")
		fmt.Println("  3. Score distribution of the top teams")
		os.Exit(1)
	}

	dir, err := os.MkdirTemp("", "teammatch-bench-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	if err := run(context.Background(), dir, *numEmployees, *numTeams, *numProjects, *teamSize, *topK, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "Benchmark failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dir string, numEmployees, numTeams, numProjects, teamSize, topK int, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	st := memstore.NewMemoryStore()
	if err := seedStore(ctx, st, rng, numEmployees, numTeams, numProjects, teamSize); err != nil {
		return err
	}

	employees, err := store.NewBoltVectorIndex(filepath.Join(dir, "employee.idx"), domain.ClassEmployee, domain.Dimension)
	if err != nil {
		return err
	}
	defer employees.Close()
	projects, err := store.NewBoltVectorIndex(filepath.Join(dir, "project.idx"), domain.ClassProject, domain.Dimension)
	if err != nil {
		return err
	}
	defer projects.Close()

	factory := func(context.Context) (port.Embedder, error) {
		return embedding.NewHashingEmbedder(domain.Dimension), nil
	}
	vec := vectorizer.New(factory, "hashing", domain.Dimension, cache.NewEmbeddingCache(4096, time.Hour))
	m := metrics.NewManager()
	log := zap.NewNop()

	embedUC := usecase.NewEmbedUseCase(st, vec, employees, projects, m, log, usecase.DefaultConcurrency)
	rankUC := usecase.NewRankUseCase(st, scoring.NewScorer(employees, projects), m, log)

	fmt.Println("TEAM RANKING BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Employees: %d  Teams: %d (size %d)  Projects: %d\n\n", numEmployees, numTeams, teamSize, numProjects)

	start := time.Now()
	result, err := embedUC.EmbedPending(ctx, nil)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	embedElapsed := time.Since(start)
	embedded := result.EmployeesEmbedded + result.ProjectsEmbedded
	fmt.Printf("Embedded %d records in %s (%.0f/s)\n", embedded, embedElapsed.Round(time.Millisecond),
		float64(embedded)/embedElapsed.Seconds())

	var (
		rankTotal time.Duration
		slowest   time.Duration
		top1Sum   float64
		topKSum   float64
		topKCount int
	)
	for pid := int64(1); pid <= int64(numProjects); pid++ {
		start := time.Now()
		records, err := rankUC.TopTeams(ctx, pid, topK)
		if err != nil {
			return fmt.Errorf("rank project %d: %w", pid, err)
		}
		elapsed := time.Since(start)
		rankTotal += elapsed
		slowest = max(slowest, elapsed)

		if len(records) == 0 {
			continue
		}
		top1Sum += records[0].FinalScore
		for _, r := range records {
			topKSum += r.FinalScore
			topKCount++
		}
	}

	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Ranking latency:\n")
	fmt.Printf("  Average per project: %s\n", (rankTotal / time.Duration(numProjects)).Round(time.Microsecond))
	fmt.Printf("  Slowest project:     %s\n", slowest.Round(time.Microsecond))
	fmt.Printf("  Teams per second:    %.0f\n", float64(numTeams*numProjects)/rankTotal.Seconds())

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("SCORE DISTRIBUTION:\n")
	fmt.Printf("  Average top-1 final score:   %.4f\n", top1Sum/float64(numProjects))
	if topKCount > 0 {
		fmt.Printf("  Average top-%d final score:   %.4f\n", topK, topKSum/float64(topKCount))
	}
	return nil
}

func seedStore(ctx context.Context, st *memstore.MemoryStore, rng *rand.Rand, numEmployees, numTeams, numProjects, teamSize int) error {
	for id := int64(1); id <= int64(numEmployees); id++ {
		e := domain.Employee{
			ID:         id,
			Name:       fmt.Sprintf("Employee %d", id),
			Skills:     pickSkills(rng, 2+rng.IntN(5)),
			Experience: float64(rng.IntN(150)) / 10,
		}
		if err := st.PutEmployee(ctx, e); err != nil {
			return err
		}
	}
	for id := int64(1); id <= int64(numProjects); id++ {
		skills := pickSkills(rng, 3+rng.IntN(4))
		p := domain.Project{
			ID:                 id,
			Title:              fmt.Sprintf("Project %d", id),
			Description:        "Build a platform using " + strings.Join(skills, " and "),
			RequiredSkills:     skills,
			RequiredExperience: float64(1 + rng.IntN(8)),
		}
		if err := st.PutProject(ctx, p); err != nil {
			return err
		}
	}
	for id := int64(1); id <= int64(numTeams); id++ {
		members := make([]int64, 0, teamSize)
		for _, idx := range rng.Perm(numEmployees)[:teamSize] {
			members = append(members, int64(idx+1))
		}
		lead := members[0]
		t := domain.Team{ID: id, Name: fmt.Sprintf("Team %d", id), LeadID: &lead, MemberIDs: members}
		if err := st.PutTeam(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func pickSkills(rng *rand.Rand, n int) []string {
	skills := make([]string, 0, n)
	for _, idx := range rng.Perm(len(skillPool))[:n] {
		skills = append(skills, skillPool[idx])
	}
	return skills
}
