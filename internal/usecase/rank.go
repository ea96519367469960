package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"teammatch/internal/adapter/scoring"
	"teammatch/internal/domain"
	"teammatch/internal/metrics"
	"teammatch/internal/port"
)

// RankStore is the storage a RankUseCase reads entities from and writes
// score records to.
type RankStore interface {
	port.EntityStore
	port.ScoreStore
}

// RankUseCase scores and ranks teams for projects and projects for
// employees.
type RankUseCase struct {
	store   RankStore
	scorer  *scoring.Scorer
	metrics *metrics.Manager
	log     *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewRankUseCase creates a new rank use case. m may be nil.
func NewRankUseCase(store RankStore, scorer *scoring.Scorer, m *metrics.Manager, log *zap.Logger) *RankUseCase {
	return &RankUseCase{
		store:   store,
		scorer:  scorer,
		metrics: m,
		log:     log,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// ScoreTeam scores one team against one project. Unknown ids are returned as
// NotFound errors.
func (u *RankUseCase) ScoreTeam(ctx context.Context, teamID, projectID int64) (domain.ScoreRecord, error) {
	project, err := u.store.GetProject(ctx, projectID)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	team, err := u.store.GetTeam(ctx, teamID)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	u.metrics.TeamScored()
	return u.scorer.Score(team, project), nil
}

// RankTeams scores the given teams (all teams when teamIDs is empty) against
// the project, best first. A team that fails to load is logged and left out;
// only an unknown project fails the call.
func (u *RankUseCase) RankTeams(ctx context.Context, projectID int64, teamIDs ...int64) ([]domain.ScoreRecord, error) {
	start := time.Now()
	defer func() { u.metrics.ObserveRanking(time.Since(start)) }()

	project, err := u.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if len(teamIDs) == 0 {
		teamIDs, err = u.store.ListTeamIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list teams: %w", err)
		}
	}

	records := make([]domain.ScoreRecord, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		team, err := u.store.GetTeam(ctx, teamID)
		if err != nil {
			u.metrics.TeamSkipped()
			u.log.Warn("team skipped in ranking",
				zap.Int64("team_id", teamID),
				zap.Int64("project_id", projectID),
				zap.Error(err),
			)
			continue
		}
		u.metrics.TeamScored()
		records = append(records, u.scorer.Score(team, project))
	}

	scoring.SortRecords(records)
	return records, nil
}

// TopTeams is RankTeams over all teams truncated to k; k <= 0 means the
// default of 5.
func (u *RankUseCase) TopTeams(ctx context.Context, projectID int64, k int) ([]domain.ScoreRecord, error) {
	records, err := u.RankTeams(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return scoring.Truncate(records, k), nil
}

// RankProjectsForEmployee ranks all projects for one employee by vector
// similarity, truncated to k.
func (u *RankUseCase) RankProjectsForEmployee(ctx context.Context, employeeID int64, k int) ([]domain.ProjectMatch, error) {
	employee, err := u.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	projects, err := u.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return u.scorer.RankProjectsForEmployee(employee, projects, k), nil
}

// SaveScores ranks the teams for the project and upserts one record per
// (team, project) pair, all stamped with a fresh evaluation id. Saving again
// overwrites the earlier records.
func (u *RankUseCase) SaveScores(ctx context.Context, projectID int64, teamIDs ...int64) ([]domain.ScoreRecord, error) {
	records, err := u.RankTeams(ctx, projectID, teamIDs...)
	if err != nil {
		return nil, err
	}

	evaluationID := u.newID()
	updatedAt := u.now().UTC()
	for i := range records {
		records[i].EvaluationID = evaluationID
		records[i].UpdatedAt = updatedAt
		if err := u.store.UpsertScore(ctx, records[i]); err != nil {
			return nil, fmt.Errorf("save score for team %d: %w", records[i].TeamID, err)
		}
	}

	u.log.Info("scores saved",
		zap.Int64("project_id", projectID),
		zap.Int("teams", len(records)),
		zap.String("evaluation_id", evaluationID),
	)
	return records, nil
}

// ListScores returns the persisted records for a project, best first.
func (u *RankUseCase) ListScores(ctx context.Context, projectID int64) ([]domain.ScoreRecord, error) {
	if _, err := u.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return u.store.ListScores(ctx, projectID)
}
