package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teammatch/internal/domain"
)

func TestWeightsArePinned(t *testing.T) {
	assert.Equal(t, 0.4, WeightEmbedding)
	assert.Equal(t, 0.3, WeightSkill)
	assert.Equal(t, 0.2, WeightExperience)
	assert.Equal(t, 0.1, WeightBalance)

	assert.InDelta(t, 0.4, Composite(1, 0, 0, 0), 1e-12)
	assert.InDelta(t, 0.3, Composite(0, 1, 0, 0), 1e-12)
	assert.InDelta(t, 0.2, Composite(0, 0, 1, 0), 1e-12)
	assert.InDelta(t, 0.1, Composite(0, 0, 0, 1), 1e-12)
}

func TestComposite_AllOnesIsOne(t *testing.T) {
	assert.Equal(t, 1.0, Round4(Composite(1, 1, 1, 1)))
}

func TestSkillCoverage(t *testing.T) {
	assert.Equal(t, 1.0, SkillCoverage(nil, []string{"Go"}))
	assert.Equal(t, 1.0, SkillCoverage([]string{}, nil))
	assert.Equal(t, 1.0, SkillCoverage([]string{"Python"}, []string{"python"}))
	assert.Equal(t, 0.5, SkillCoverage([]string{"Python", "React"}, []string{"python", "java"}))
	assert.Equal(t, 0.0, SkillCoverage([]string{"Rust"}, nil))
}

func TestExperienceMatch(t *testing.T) {
	for _, avg := range []float64{0, 1, 10} {
		assert.Equal(t, 1.0, ExperienceMatch(avg, 0))
	}
	assert.Equal(t, 1.0, ExperienceMatch(3, -1))
	assert.Equal(t, 0.5, ExperienceMatch(2.0, 4.0))
	assert.Equal(t, 1.0, ExperienceMatch(10.0, 4.0))
	assert.Equal(t, 0.0, ExperienceMatch(-8, 2), "negative experience never leaves [0,1]")
}

func TestSkillGap_PreservesProjectOrderAndCasing(t *testing.T) {
	gap := SkillGap([]string{"Python", "React", "Docker"}, []string{"python"})
	assert.Equal(t, []string{"React", "Docker"}, gap)

	assert.Equal(t, []string{}, SkillGap(nil, []string{"Go"}))
	assert.Equal(t, []string{"Python"}, CoveredSkills([]string{"Python", "React"}, []string{"PYTHON"}))
}

func TestScore_TwoMemberScenario(t *testing.T) {
	ix := &memIndex{}
	scorer := NewScorer(ix, &memIndex{})

	team := domain.Team{ID: 3, Name: "Platform", Members: []domain.Employee{
		employee(1, 2, "python"),
		employee(2, 4, "java"),
	}}
	project := domain.Project{ID: 9, RequiredSkills: []string{"Python", "React"}, RequiredExperience: 4}

	rec := scorer.Score(team, project)

	assert.Equal(t, int64(3), rec.TeamID)
	assert.Equal(t, int64(9), rec.ProjectID)
	assert.Equal(t, "Platform", rec.TeamName)
	assert.Equal(t, 0.0, rec.EmbeddingSimilarity)
	assert.Equal(t, 0.5, rec.SkillCoverage)
	assert.Equal(t, 0.75, rec.ExperienceMatch)
	assert.Equal(t, 1.0, rec.TeamBalance)
	// 0.3*0.5 + 0.2*0.75 + 0.1*1.0
	assert.Equal(t, 0.4, rec.FinalScore)
	assert.Equal(t, 40.0, rec.MatchPercentage)

	assert.Equal(t, []string{"React"}, SkillGap(project.RequiredSkills, team.Members[0].Skills))
}

func TestScore_ProjectWithoutEmbeddingHasZeroSimilarity(t *testing.T) {
	employees := &memIndex{}
	member := employee(1, 5, "Go")
	member.EmbeddingRef = employees.ref(1, 0)
	scorer := NewScorer(employees, &memIndex{})

	team := domain.Team{Members: []domain.Employee{member}}
	rec := scorer.Score(team, domain.Project{RequiredExperience: 1})
	assert.Equal(t, 0.0, rec.EmbeddingSimilarity)

	stale := 7
	rec = scorer.Score(team, domain.Project{RequiredExperience: 1, EmbeddingRef: &stale})
	assert.Equal(t, 0.0, rec.EmbeddingSimilarity)
}

func TestScore_PerfectMatchIsOne(t *testing.T) {
	employees, projects := &memIndex{}, &memIndex{}
	member := employee(1, 5, "Go")
	member.EmbeddingRef = employees.ref(0, 2, 0)
	project := domain.Project{RequiredSkills: []string{"go"}, RequiredExperience: 3, EmbeddingRef: projects.ref(0, 5, 0)}

	rec := NewScorer(employees, projects).Score(domain.Team{Members: []domain.Employee{member}}, project)

	assert.Equal(t, 1.0, rec.EmbeddingSimilarity)
	assert.Equal(t, 1.0, rec.FinalScore)
}

func TestScore_EmptyTeam(t *testing.T) {
	rec := NewScorer(&memIndex{}, &memIndex{}).Score(domain.Team{ID: 1}, domain.Project{RequiredSkills: []string{"Go"}, RequiredExperience: 2})

	assert.Equal(t, 0.0, rec.SkillCoverage)
	assert.Equal(t, 0.0, rec.ExperienceMatch)
	assert.Equal(t, 0.5, rec.TeamBalance)
	assert.Equal(t, 0.05, rec.FinalScore)
}

func TestEmployeeProjectScore(t *testing.T) {
	employees, projects := &memIndex{}, &memIndex{}
	e := employee(1, 3, "python")
	p := domain.Project{RequiredSkills: []string{"Python", "React"}, EmbeddingRef: projects.ref(1, 0)}

	_, _, ok := NewScorer(employees, projects).EmployeeProjectScore(e, p)
	assert.False(t, ok)

	e.EmbeddingRef = employees.ref(1, 0)
	sim, gap, ok := NewScorer(employees, projects).EmployeeProjectScore(e, p)
	require.True(t, ok)
	assert.InDelta(t, 1.0, sim, 1e-6)
	assert.Equal(t, []string{"React"}, gap)
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 0.3333, Round4(1.0/3.0))
	assert.Equal(t, 0.6667, Round4(2.0/3.0))
}
