package scoring

import (
	"sort"

	"teammatch/internal/domain"
)

// DefaultTopK is how many results the top-k views return when no k is given.
const DefaultTopK = 5

// RankTeams scores every team against the project, best first. Equal scores
// keep their input order.
func (s *Scorer) RankTeams(project domain.Project, teams []domain.Team) []domain.ScoreRecord {
	records := make([]domain.ScoreRecord, 0, len(teams))
	for _, team := range teams {
		records = append(records, s.Score(team, project))
	}
	SortRecords(records)
	return records
}

// TopK is RankTeams truncated to the first k; k <= 0 means DefaultTopK.
func (s *Scorer) TopK(project domain.Project, teams []domain.Team, k int) []domain.ScoreRecord {
	return Truncate(s.RankTeams(project, teams), k)
}

// RankProjectsForEmployee scores every project for the employee by vector
// similarity, best first, truncated to k. Projects without a vector are
// skipped; an employee without a vector gets no matches.
func (s *Scorer) RankProjectsForEmployee(employee domain.Employee, projects []domain.Project, k int) []domain.ProjectMatch {
	empVec, ok := LookupRef(s.employees, employee.EmbeddingRef)
	if !ok {
		return []domain.ProjectMatch{}
	}

	matches := make([]domain.ProjectMatch, 0, len(projects))
	for _, p := range projects {
		sim, gap, ok := s.employeeProjectScore(empVec, employee, p)
		if !ok {
			continue
		}
		score := Round4(sim)
		matches = append(matches, domain.ProjectMatch{
			ProjectID:       p.ID,
			Title:           p.Title,
			Description:     p.Description,
			RequiredSkills:  p.RequiredSkills,
			Score:           score,
			MatchPercentage: MatchPercentage(score),
			SkillGap:        gap,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return Truncate(matches, k)
}

// SortRecords orders records by final score, descending, keeping the order of
// equal scores.
func SortRecords(records []domain.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FinalScore > records[j].FinalScore
	})
}

// Truncate returns at most k leading items; k <= 0 means DefaultTopK.
func Truncate[T any](items []T, k int) []T {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(items) > k {
		return items[:k]
	}
	return items
}
