package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"teammatch/internal/domain"
)

type scoreKey struct {
	projectID int64
	teamID    int64
}

// MemoryStore is a process-local store. Listings come back in id order, the
// same order the persistent stores use.
type MemoryStore struct {
	mu        sync.RWMutex
	employees map[int64]domain.Employee
	projects  map[int64]domain.Project
	teams     map[int64]domain.Team
	scores    map[scoreKey]domain.ScoreRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employees: make(map[int64]domain.Employee),
		projects:  make(map[int64]domain.Project),
		teams:     make(map[int64]domain.Team),
		scores:    make(map[scoreKey]domain.ScoreRecord),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetEmployee(_ context.Context, id int64) (domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return domain.Employee{}, domain.NotFound("employee", id)
	}
	return e, nil
}

func (s *MemoryStore) GetProject(_ context.Context, id int64) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, domain.NotFound("project", id)
	}
	return p, nil
}

func (s *MemoryStore) GetTeam(_ context.Context, id int64) (domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return domain.Team{}, domain.NotFound("team", id)
	}
	t.Members = make([]domain.Employee, 0, len(t.MemberIDs))
	for _, memberID := range t.MemberIDs {
		e, ok := s.employees[memberID]
		if !ok {
			return domain.Team{}, fmt.Errorf("team %d member: %w", id, domain.NotFound("employee", memberID))
		}
		t.Members = append(t.Members, e)
	}
	return t, nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (s *MemoryStore) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Employee, 0, len(s.employees))
	for _, id := range sortedKeys(s.employees) {
		out = append(out, s.employees[id])
	}
	return out, nil
}

func (s *MemoryStore) ListProjects(_ context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, 0, len(s.projects))
	for _, id := range sortedKeys(s.projects) {
		out = append(out, s.projects[id])
	}
	return out, nil
}

func (s *MemoryStore) ListTeamIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.teams), nil
}

func (s *MemoryStore) SetEmployeeEmbedding(_ context.Context, id int64, row int, digest uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return domain.NotFound("employee", id)
	}
	e.EmbeddingRef = &row
	e.EmbeddingDigest = digest
	s.employees[id] = e
	return nil
}

func (s *MemoryStore) SetProjectEmbedding(_ context.Context, id int64, row int, digest uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return domain.NotFound("project", id)
	}
	p.EmbeddingRef = &row
	p.EmbeddingDigest = digest
	s.projects[id] = p
	return nil
}

func (s *MemoryStore) PutEmployee(_ context.Context, e domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.employees[e.ID]; ok {
		e.EmbeddingRef = existing.EmbeddingRef
		e.EmbeddingDigest = existing.EmbeddingDigest
	}
	s.employees[e.ID] = e
	return nil
}

func (s *MemoryStore) PutProject(_ context.Context, p domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.projects[p.ID]; ok {
		p.EmbeddingRef = existing.EmbeddingRef
		p.EmbeddingDigest = existing.EmbeddingDigest
	}
	s.projects[p.ID] = p
	return nil
}

func (s *MemoryStore) PutTeam(_ context.Context, t domain.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Members = nil
	t.MemberIDs = slices.Clone(t.MemberIDs)
	s.teams[t.ID] = t
	return nil
}

func (s *MemoryStore) UpsertScore(_ context.Context, rec domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[scoreKey{projectID: rec.ProjectID, teamID: rec.TeamID}] = rec
	return nil
}

func (s *MemoryStore) ListScores(_ context.Context, projectID int64) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	var records []domain.ScoreRecord
	for k, rec := range s.scores {
		if k.projectID == projectID {
			records = append(records, rec)
		}
	}
	s.mu.RUnlock()

	// map order is random; fix the tie order on team id first
	sort.Slice(records, func(i, j int) bool { return records[i].TeamID < records[j].TeamID })
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FinalScore > records[j].FinalScore
	})
	return records, nil
}
