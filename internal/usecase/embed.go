package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"teammatch/internal/adapter/vectorizer"
	"teammatch/internal/domain"
	"teammatch/internal/logger"
	"teammatch/internal/metrics"
	"teammatch/internal/port"
)

// DefaultConcurrency bounds concurrent embedding calls in EmbedPending.
const DefaultConcurrency = 4

// Progress receives bulk embedding progress. *progressbar.ProgressBar
// satisfies it.
type Progress interface {
	ChangeMax(max int)
	Add(num int) error
}

// EmbedUseCase computes embeddings, appends them to the class index and
// stores the row reference on the owning record.
type EmbedUseCase struct {
	store       port.EntityStore
	vectorizer  *vectorizer.Vectorizer
	employees   port.VectorIndex
	projects    port.VectorIndex
	metrics     *metrics.Manager
	log         *zap.Logger
	concurrency int
}

// NewEmbedUseCase creates a new embed use case. m may be nil.
func NewEmbedUseCase(
	store port.EntityStore,
	v *vectorizer.Vectorizer,
	employees, projects port.VectorIndex,
	m *metrics.Manager,
	log *zap.Logger,
	concurrency int,
) *EmbedUseCase {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &EmbedUseCase{
		store:       store,
		vectorizer:  v,
		employees:   employees,
		projects:    projects,
		metrics:     m,
		log:         log,
		concurrency: concurrency,
	}
}

// EmbedEmployee embeds one employee and returns its new row id. Errors are
// returned to the caller; the index is only appended to after the vector has
// been computed. A degraded index fails with ErrBackendUnavailable and leaves
// the record pending.
func (u *EmbedUseCase) EmbedEmployee(ctx context.Context, id int64) (int, error) {
	e, err := u.store.GetEmployee(ctx, id)
	if err != nil {
		return 0, err
	}
	return u.embedEmployee(ctx, e)
}

func (u *EmbedUseCase) embedEmployee(ctx context.Context, e domain.Employee) (int, error) {
	if port.IsDegraded(u.employees) {
		u.metrics.EmbeddingFailed(domain.ClassEmployee)
		return 0, fmt.Errorf("store employee %d vector: %w", e.ID, domain.ErrBackendUnavailable)
	}
	vec, digest, err := u.vectorizer.EmbedEmployee(ctx, e)
	if err != nil {
		u.metrics.EmbeddingFailed(domain.ClassEmployee)
		return 0, fmt.Errorf("embed employee %d: %w", e.ID, err)
	}
	row, err := u.employees.Add(vec)
	if err != nil {
		u.metrics.EmbeddingFailed(domain.ClassEmployee)
		return 0, fmt.Errorf("store employee %d vector: %w", e.ID, err)
	}
	if err := u.store.SetEmployeeEmbedding(ctx, e.ID, row, digest); err != nil {
		u.metrics.EmbeddingFailed(domain.ClassEmployee)
		return 0, fmt.Errorf("link employee %d to row %d: %w", e.ID, row, err)
	}

	u.metrics.EmbeddingStored(domain.ClassEmployee)
	u.log.Debug("employee embedded", zap.Int64("employee_id", e.ID), zap.Int("row", row))
	return row, nil
}

// EmbedProject embeds one project and returns its new row id.
func (u *EmbedUseCase) EmbedProject(ctx context.Context, id int64) (int, error) {
	p, err := u.store.GetProject(ctx, id)
	if err != nil {
		return 0, err
	}
	return u.embedProject(ctx, p)
}

func (u *EmbedUseCase) embedProject(ctx context.Context, p domain.Project) (int, error) {
	if port.IsDegraded(u.projects) {
		u.metrics.EmbeddingFailed(domain.ClassProject)
		return 0, fmt.Errorf("store project %d vector: %w", p.ID, domain.ErrBackendUnavailable)
	}
	vec, digest, err := u.vectorizer.EmbedProject(ctx, p)
	if err != nil {
		u.metrics.EmbeddingFailed(domain.ClassProject)
		return 0, fmt.Errorf("embed project %d: %w", p.ID, err)
	}
	row, err := u.projects.Add(vec)
	if err != nil {
		u.metrics.EmbeddingFailed(domain.ClassProject)
		return 0, fmt.Errorf("store project %d vector: %w", p.ID, err)
	}
	if err := u.store.SetProjectEmbedding(ctx, p.ID, row, digest); err != nil {
		u.metrics.EmbeddingFailed(domain.ClassProject)
		return 0, fmt.Errorf("link project %d to row %d: %w", p.ID, row, err)
	}

	u.metrics.EmbeddingStored(domain.ClassProject)
	u.log.Debug("project embedded", zap.Int64("project_id", p.ID), zap.Int("row", row))
	return row, nil
}

// EmbedFailure records one entity EmbedPending could not embed.
type EmbedFailure struct {
	Class domain.EntityClass
	ID    int64
	Err   error
}

func (f EmbedFailure) Error() string {
	return fmt.Sprintf("%s %d: %v", f.Class, f.ID, f.Err)
}

// EmbedResult summarizes an EmbedPending run.
type EmbedResult struct {
	EmployeesEmbedded int
	ProjectsEmbedded  int
	UpToDate          int
	Failures          []EmbedFailure
}

// Pending returns the employees and projects whose stored vector is missing
// or was computed from different text or a different model.
func (u *EmbedUseCase) Pending(ctx context.Context) ([]domain.Employee, []domain.Project, int, error) {
	employees, err := u.store.ListEmployees(ctx)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("list employees: %w", err)
	}
	projects, err := u.store.ListProjects(ctx)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("list projects: %w", err)
	}

	var staleEmployees []domain.Employee
	var staleProjects []domain.Project
	fresh := 0
	for _, e := range employees {
		if u.vectorizer.EmployeeStale(e) {
			staleEmployees = append(staleEmployees, e)
		} else {
			fresh++
		}
	}
	for _, p := range projects {
		if u.vectorizer.ProjectStale(p) {
			staleProjects = append(staleProjects, p)
		} else {
			fresh++
		}
	}
	return staleEmployees, staleProjects, fresh, nil
}

// EmbedPending embeds every pending record, best effort. Individual failures
// are collected in the result rather than aborting the run, except a
// dimension mismatch, which stops everything. Running it again with nothing
// changed embeds nothing. progress may be nil.
func (u *EmbedUseCase) EmbedPending(ctx context.Context, progress Progress) (*EmbedResult, error) {
	employees, projects, fresh, err := u.Pending(ctx)
	if err != nil {
		return nil, err
	}

	result := &EmbedResult{UpToDate: fresh}
	if progress != nil {
		progress.ChangeMax(len(employees) + len(projects))
	}

	type outcome struct {
		class domain.EntityClass
		id    int64
		err   error
	}
	outcomes := make(chan outcome, len(employees)+len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	run := func(class domain.EntityClass, id int64, embed func(context.Context) (int, error)) {
		g.Go(func() error {
			_, err := embed(gctx)
			var mismatch *domain.DimensionMismatchError
			if errors.As(err, &mismatch) {
				return err
			}
			outcomes <- outcome{class: class, id: id, err: err}
			if progress != nil {
				_ = progress.Add(1)
			}
			return nil
		})
	}

	for _, e := range employees {
		run(domain.ClassEmployee, e.ID, func(ctx context.Context) (int, error) { return u.embedEmployee(ctx, e) })
	}
	for _, p := range projects {
		run(domain.ClassProject, p.ID, func(ctx context.Context) (int, error) { return u.embedProject(ctx, p) })
	}

	waitErr := g.Wait()
	close(outcomes)

	for o := range outcomes {
		if o.err != nil {
			u.log.Warn("embedding failed", logger.Class(o.class), zap.Int64("id", o.id), zap.Error(o.err))
			result.Failures = append(result.Failures, EmbedFailure{Class: o.class, ID: o.id, Err: o.err})
			continue
		}
		if o.class == domain.ClassEmployee {
			result.EmployeesEmbedded++
		} else {
			result.ProjectsEmbedded++
		}
	}

	sort.Slice(result.Failures, func(i, j int) bool {
		a, b := result.Failures[i], result.Failures[j]
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		return a.ID < b.ID
	})

	if waitErr != nil {
		return result, waitErr
	}
	return result, nil
}
