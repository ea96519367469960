package scoring

import (
	"math"
	"strings"

	"teammatch/internal/domain"
	"teammatch/internal/port"
	"teammatch/internal/vector"
)

// Composite weights. Historical scores are only reproducible while these stay
// fixed, so they are not configurable.
const (
	WeightEmbedding  = 0.4
	WeightSkill      = 0.3
	WeightExperience = 0.2
	WeightBalance    = 0.1
)

// SkillCoverage is the fraction of required skills present in skills,
// compared case-insensitively. Nothing required counts as full coverage.
func SkillCoverage(required, skills []string) float64 {
	req := lowerSet(required)
	if len(req) == 0 {
		return 1.0
	}
	have := lowerSet(skills)

	covered := 0
	for s := range req {
		if _, ok := have[s]; ok {
			covered++
		}
	}
	return float64(covered) / float64(len(req))
}

// ExperienceMatch is avg/required capped at 1; 1 when nothing is required.
func ExperienceMatch(avgExperience, required float64) float64 {
	if required <= 0 {
		return 1.0
	}
	return max(min(avgExperience/required, 1.0), 0)
}

// Composite combines the four components with the fixed weights.
func Composite(embedding, skill, experience, balance float64) float64 {
	return WeightEmbedding*embedding +
		WeightSkill*skill +
		WeightExperience*experience +
		WeightBalance*balance
}

// Round4 rounds to four decimal places.
func Round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

// MatchPercentage renders a score in [0,1] as a percentage with two decimals.
func MatchPercentage(score float64) float64 {
	return math.Round(score*1e4) / 100
}

// SkillGap lists the required skills missing from skills, in the project's
// order and spelling.
func SkillGap(required, skills []string) []string {
	have := lowerSet(skills)
	gap := []string{}
	for _, s := range required {
		if _, ok := have[strings.ToLower(s)]; !ok {
			gap = append(gap, s)
		}
	}
	return gap
}

// CoveredSkills lists the required skills present in skills, in the
// project's order and spelling.
func CoveredSkills(required, skills []string) []string {
	have := lowerSet(skills)
	covered := []string{}
	for _, s := range required {
		if _, ok := have[strings.ToLower(s)]; ok {
			covered = append(covered, s)
		}
	}
	return covered
}

func lowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[strings.ToLower(s)] = struct{}{}
	}
	return set
}

// Scorer computes hybrid team/project scores from the two vector indexes and
// the records' relational attributes.
type Scorer struct {
	employees port.VectorIndex
	projects  port.VectorIndex
}

func NewScorer(employees, projects port.VectorIndex) *Scorer {
	return &Scorer{employees: employees, projects: projects}
}

// EmbeddingSimilarity is the dot product of the team and project vectors, 0
// when either is unavailable.
func (s *Scorer) EmbeddingSimilarity(team domain.Team, project domain.Project) float64 {
	projVec, ok := LookupRef(s.projects, project.EmbeddingRef)
	if !ok {
		return 0
	}
	teamVec, ok := TeamVector(team, s.employees)
	if !ok {
		return 0
	}
	return vector.Dot(teamVec, projVec)
}

// Score evaluates one team against one project. Components are computed at
// full precision and rounded only in the returned record.
func (s *Scorer) Score(team domain.Team, project domain.Project) domain.ScoreRecord {
	embSim := s.EmbeddingSimilarity(team, project)
	skillCov := SkillCoverage(project.RequiredSkills, TeamSkills(team.Members))
	expMatch := ExperienceMatch(AverageExperience(team.Members), project.RequiredExperience)
	balance := SkillDiversity(team.Members)

	final := Round4(Composite(embSim, skillCov, expMatch, balance))

	return domain.ScoreRecord{
		TeamID:              team.ID,
		ProjectID:           project.ID,
		TeamName:            team.Name,
		EmbeddingSimilarity: Round4(embSim),
		SkillCoverage:       Round4(skillCov),
		ExperienceMatch:     Round4(expMatch),
		TeamBalance:         Round4(balance),
		FinalScore:          final,
		MatchPercentage:     MatchPercentage(final),
	}
}

// EmployeeProjectScore is the individual view: similarity between the
// employee and project vectors plus the employee's skill gap. ok is false
// when either vector is unavailable.
func (s *Scorer) EmployeeProjectScore(employee domain.Employee, project domain.Project) (similarity float64, gap []string, ok bool) {
	empVec, found := LookupRef(s.employees, employee.EmbeddingRef)
	if !found {
		return 0, nil, false
	}
	return s.employeeProjectScore(empVec, employee, project)
}

func (s *Scorer) employeeProjectScore(empVec []float32, employee domain.Employee, project domain.Project) (float64, []string, bool) {
	projVec, found := LookupRef(s.projects, project.EmbeddingRef)
	if !found {
		return 0, nil, false
	}
	return vector.Dot(empVec, projVec), SkillGap(project.RequiredSkills, employee.Skills), true
}
