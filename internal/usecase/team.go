package usecase

import (
	"context"
	"math"
	"sort"
	"strings"

	"teammatch/internal/adapter/scoring"
	"teammatch/internal/domain"
	"teammatch/internal/port"
)

// TeamUseCase builds the skill views over teams and individuals.
type TeamUseCase struct {
	store port.EntityStore
}

func NewTeamUseCase(store port.EntityStore) *TeamUseCase {
	return &TeamUseCase{store: store}
}

// Heatmap lists each member's skills and the sorted lowercase union of all
// of them.
func (u *TeamUseCase) Heatmap(ctx context.Context, teamID int64) (domain.SkillHeatmap, error) {
	team, err := u.store.GetTeam(ctx, teamID)
	if err != nil {
		return domain.SkillHeatmap{}, err
	}

	union := make(map[string]struct{})
	heatmap := domain.SkillHeatmap{Employees: make([]domain.HeatmapRow, 0, len(team.Members))}
	for _, m := range team.Members {
		skills := m.Skills
		if skills == nil {
			skills = []string{}
		}
		heatmap.Employees = append(heatmap.Employees, domain.HeatmapRow{EmployeeName: m.Name, Skills: skills})
		for _, s := range m.Skills {
			union[strings.ToLower(s)] = struct{}{}
		}
	}

	heatmap.AllSkills = make([]string, 0, len(union))
	for s := range union {
		heatmap.AllSkills = append(heatmap.AllSkills, s)
	}
	sort.Strings(heatmap.AllSkills)
	return heatmap, nil
}

// SkillGap compares one employee's skills with a project's requirements.
// Coverage is 100 when the project requires nothing.
func (u *TeamUseCase) SkillGap(ctx context.Context, employeeID, projectID int64) (domain.SkillGapReport, error) {
	employee, err := u.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return domain.SkillGapReport{}, err
	}
	project, err := u.store.GetProject(ctx, projectID)
	if err != nil {
		return domain.SkillGapReport{}, err
	}

	covered := scoring.CoveredSkills(project.RequiredSkills, employee.Skills)
	coverage := 100.0
	if n := len(project.RequiredSkills); n > 0 {
		coverage = math.Round(float64(len(covered))/float64(n)*100*100) / 100
	}

	return domain.SkillGapReport{
		EmployeeID:         employee.ID,
		EmployeeName:       employee.Name,
		ProjectTitle:       project.Title,
		CoveredSkills:      covered,
		MissingSkills:      scoring.SkillGap(project.RequiredSkills, employee.Skills),
		CoveragePercentage: coverage,
	}, nil
}
