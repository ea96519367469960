// Package storetest holds behaviour checks shared by every port.Store
// implementation.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teammatch/internal/domain"
	"teammatch/internal/port"
)

// Run exercises a store built fresh by newStore for each case.
func Run(t *testing.T, newStore func(t *testing.T) port.Store) {
	t.Run("EmployeeRoundTrip", func(t *testing.T) { employeeRoundTrip(t, newStore(t)) })
	t.Run("PutKeepsEmbeddingReference", func(t *testing.T) { putKeepsReference(t, newStore(t)) })
	t.Run("SetEmbeddingOnMissingEntity", func(t *testing.T) { setOnMissing(t, newStore(t)) })
	t.Run("TeamResolvesMembers", func(t *testing.T) { teamResolvesMembers(t, newStore(t)) })
	t.Run("ListingsInIDOrder", func(t *testing.T) { listingsInIDOrder(t, newStore(t)) })
	t.Run("UpsertScoreIsIdempotent", func(t *testing.T) { upsertScore(t, newStore(t)) })
}

func employeeRoundTrip(t *testing.T, s port.Store) {
	ctx := context.Background()
	teamID := int64(3)
	in := domain.Employee{
		ID: 7, Name: "Ada", Skills: []string{"Go", "SQL"}, Experience: 4.5,
		Certifications: []string{"CKA"}, Projects: []string{"Billing"}, TeamID: &teamID,
	}
	require.NoError(t, s.PutEmployee(ctx, in))

	e, err := s.GetEmployee(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Ada", e.Name)
	assert.Equal(t, []string{"Go", "SQL"}, e.Skills)
	assert.Equal(t, 4.5, e.Experience)
	assert.Equal(t, []string{"CKA"}, e.Certifications)
	require.NotNil(t, e.TeamID)
	assert.Equal(t, int64(3), *e.TeamID)
	assert.Nil(t, e.EmbeddingRef)

	_, err = s.GetEmployee(ctx, 8)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetProject(ctx, 8)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetTeam(ctx, 8)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func putKeepsReference(t *testing.T, s port.Store) {
	ctx := context.Background()
	require.NoError(t, s.PutProject(ctx, domain.Project{ID: 1, Title: "Search", RequiredSkills: []string{"Go"}, RequiredExperience: 2}))
	require.NoError(t, s.SetProjectEmbedding(ctx, 1, 3, 42))
	require.NoError(t, s.PutProject(ctx, domain.Project{ID: 1, Title: "Search v2", RequiredExperience: 2}))

	p, err := s.GetProject(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Search v2", p.Title)
	require.NotNil(t, p.EmbeddingRef)
	assert.Equal(t, 3, *p.EmbeddingRef)
	assert.Equal(t, uint64(42), p.EmbeddingDigest)

	require.NoError(t, s.PutEmployee(ctx, domain.Employee{ID: 5, Name: "Bo"}))
	require.NoError(t, s.SetEmployeeEmbedding(ctx, 5, 0, 9))
	e, err := s.GetEmployee(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, e.EmbeddingRef)
	assert.Equal(t, 0, *e.EmbeddingRef)
	assert.Equal(t, uint64(9), e.EmbeddingDigest)
}

func setOnMissing(t *testing.T, s port.Store) {
	ctx := context.Background()
	assert.ErrorIs(t, s.SetEmployeeEmbedding(ctx, 99, 0, 1), domain.ErrNotFound)
	assert.ErrorIs(t, s.SetProjectEmbedding(ctx, 99, 0, 1), domain.ErrNotFound)
}

func teamResolvesMembers(t *testing.T, s port.Store) {
	ctx := context.Background()
	lead := int64(1)
	require.NoError(t, s.PutEmployee(ctx, domain.Employee{ID: 1, Name: "Lead"}))
	require.NoError(t, s.PutEmployee(ctx, domain.Employee{ID: 2, Name: "Member"}))
	require.NoError(t, s.PutTeam(ctx, domain.Team{ID: 10, Name: "Core", LeadID: &lead, MemberIDs: []int64{1, 2}}))
	require.NoError(t, s.PutTeam(ctx, domain.Team{ID: 11, Name: "Broken", MemberIDs: []int64{1, 404}}))

	team, err := s.GetTeam(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Core", team.Name)
	require.Len(t, team.Members, 2)
	assert.Equal(t, "Lead", team.Members[0].Name)
	assert.True(t, team.IsLead(1))
	assert.False(t, team.IsLead(2))

	_, err = s.GetTeam(ctx, 11)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ids, err := s.ListTeamIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, ids)
}

func listingsInIDOrder(t *testing.T, s port.Store) {
	ctx := context.Background()
	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, s.PutEmployee(ctx, domain.Employee{ID: id, Name: "e"}))
		require.NoError(t, s.PutProject(ctx, domain.Project{ID: id * 10, Title: "p"}))
	}

	employees, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{employees[0].ID, employees[1].ID, employees[2].ID})

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, []int64{10, 20, 30}, []int64{projects[0].ID, projects[1].ID, projects[2].ID})
}

func upsertScore(t *testing.T, s port.Store) {
	ctx := context.Background()
	require.NoError(t, s.UpsertScore(ctx, domain.ScoreRecord{TeamID: 1, ProjectID: 5, FinalScore: 0.4, EvaluationID: "a"}))
	require.NoError(t, s.UpsertScore(ctx, domain.ScoreRecord{TeamID: 2, ProjectID: 5, FinalScore: 0.7, EvaluationID: "a"}))
	require.NoError(t, s.UpsertScore(ctx, domain.ScoreRecord{TeamID: 1, ProjectID: 6, FinalScore: 0.9, EvaluationID: "a"}))
	require.NoError(t, s.UpsertScore(ctx, domain.ScoreRecord{TeamID: 1, ProjectID: 5, FinalScore: 0.8, EvaluationID: "b"}))

	records, err := s.ListScores(ctx, 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].TeamID)
	assert.Equal(t, 0.8, records[0].FinalScore)
	assert.Equal(t, "b", records[0].EvaluationID)
	assert.Equal(t, int64(2), records[1].TeamID)

	none, err := s.ListScores(ctx, 404)
	require.NoError(t, err)
	assert.Empty(t, none)
}
