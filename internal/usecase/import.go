package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"teammatch/internal/adapter/fs"
	"teammatch/internal/domain"
	"teammatch/internal/port"
)

// ImportUseCase loads YAML datasets into the store and embeds whatever the
// import made pending.
type ImportUseCase struct {
	store  port.EntityWriter
	walker *fs.Walker
	embed  *EmbedUseCase
	log    *zap.Logger
}

// NewImportUseCase creates a new import use case. embed may be nil to skip
// embedding.
func NewImportUseCase(store port.EntityWriter, walker *fs.Walker, embed *EmbedUseCase, log *zap.Logger) *ImportUseCase {
	return &ImportUseCase{
		store:  store,
		walker: walker,
		embed:  embed,
		log:    log,
	}
}

// ImportResult contains the results of an import.
type ImportResult struct {
	Files     int
	Employees int
	Projects  int
	Teams     int
	Errors    []string
	Embedding *EmbedResult
}

// Import reads every dataset file under root. A file that fails to parse or
// a record that fails to store is reported in Errors and the import carries
// on. Teams are written after all employees so membership can resolve.
func (u *ImportUseCase) Import(ctx context.Context, root string, progress Progress) (*ImportResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	result := &ImportResult{}
	var all domain.Dataset
	for _, path := range files {
		ds, err := fs.ReadDataset(path)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Files++
		all.Employees = append(all.Employees, ds.Employees...)
		all.Projects = append(all.Projects, ds.Projects...)
		all.Teams = append(all.Teams, ds.Teams...)
	}

	for _, e := range all.Employees {
		if e.Experience < 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("employee %d: %v: experience %g is negative", e.ID, domain.ErrInvalidInput, e.Experience))
			continue
		}
		if err := u.store.PutEmployee(ctx, e); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("employee %d: %v", e.ID, err))
			continue
		}
		result.Employees++
	}
	for _, p := range all.Projects {
		if p.RequiredExperience < 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("project %d: %v: required_experience %g is negative", p.ID, domain.ErrInvalidInput, p.RequiredExperience))
			continue
		}
		if err := u.store.PutProject(ctx, p); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("project %d: %v", p.ID, err))
			continue
		}
		result.Projects++
	}
	for _, t := range all.Teams {
		if err := validateTeam(t); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if err := u.store.PutTeam(ctx, t); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("team %d: %v", t.ID, err))
			continue
		}
		result.Teams++
	}

	u.log.Info("dataset imported",
		zap.Int("files", result.Files),
		zap.Int("employees", result.Employees),
		zap.Int("projects", result.Projects),
		zap.Int("teams", result.Teams),
		zap.Int("errors", len(result.Errors)),
	)

	if u.embed == nil {
		return result, nil
	}
	result.Embedding, err = u.embed.EmbedPending(ctx, progress)
	if err != nil {
		return result, err
	}
	return result, nil
}

// validateTeam rejects a lead who is not a member.
func validateTeam(t domain.Team) error {
	if t.LeadID == nil {
		return nil
	}
	for _, id := range t.MemberIDs {
		if id == *t.LeadID {
			return nil
		}
	}
	return fmt.Errorf("team %d: %w: lead %d is not a member", t.ID, domain.ErrInvalidInput, *t.LeadID)
}
