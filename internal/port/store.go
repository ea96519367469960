package port

import (
	"context"

	"teammatch/internal/domain"
)

// EntityStore gives read access to the relational aggregates the engine scores
// and write access to the two embedding reference fields.
type EntityStore interface {
	GetEmployee(ctx context.Context, id int64) (domain.Employee, error)

	GetProject(ctx context.Context, id int64) (domain.Project, error)

	// GetTeam returns the team with Members resolved. A member id that does
	// not resolve is an error.
	GetTeam(ctx context.Context, id int64) (domain.Team, error)

	ListEmployees(ctx context.Context) ([]domain.Employee, error)

	ListProjects(ctx context.Context) ([]domain.Project, error)

	ListTeamIDs(ctx context.Context) ([]int64, error)

	SetEmployeeEmbedding(ctx context.Context, id int64, row int, digest uint64) error

	SetProjectEmbedding(ctx context.Context, id int64, row int, digest uint64) error
}

// EntityWriter creates or replaces entity records. Replacing a record keeps
// its embedding reference and digest.
type EntityWriter interface {
	PutEmployee(ctx context.Context, e domain.Employee) error

	PutProject(ctx context.Context, p domain.Project) error

	PutTeam(ctx context.Context, t domain.Team) error
}

// ScoreStore persists score records, at most one per (team, project) pair.
type ScoreStore interface {
	// UpsertScore overwrites the record for the pair or inserts a new one.
	UpsertScore(ctx context.Context, rec domain.ScoreRecord) error

	// ListScores returns stored records for a project, best first.
	ListScores(ctx context.Context, projectID int64) ([]domain.ScoreRecord, error)
}

// Store is everything a storage backend provides.
type Store interface {
	EntityStore
	EntityWriter
	ScoreStore
	Close() error
}
