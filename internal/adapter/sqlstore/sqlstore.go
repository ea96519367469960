package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"teammatch/internal/domain"
)

// dialect captures the differences between the SQL backends: the driver
// name, the placeholder style and the migration set.
type dialect struct {
	name      string
	driver    string
	numbered  bool // $1, $2 placeholders instead of ?
	migration func() ([]byte, error)
}

// SQLStore keeps entities and score records in a relational database. The
// queries are written once with ? placeholders and rebound per dialect.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Dialect names the backend, "sqlite" or "postgres".
func (s *SQLStore) Dialect() string {
	return s.dialect.name
}

func (s *SQLStore) migrate(ctx context.Context) error {
	data, err := s.dialect.migration()
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

func (s *SQLStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	return string(data), err
}

func decodeList(raw string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return items, nil
}

func nullableRef(ref sql.NullInt64) *int {
	if !ref.Valid {
		return nil
	}
	row := int(ref.Int64)
	return &row
}

func nullableID(id sql.NullInt64) *int64 {
	if !id.Valid {
		return nil
	}
	v := id.Int64
	return &v
}

func idArg(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// Digests are uint64; the drivers only take signed integers, so the bits are
// stored as int64 and reinterpreted on the way out.
func digestArg(d uint64) int64 { return int64(d) }

type scanner interface {
	Scan(dest ...any) error
}

const employeeColumns = `id, name, skills, experience, certifications, projects, team_id, embedding_ref, embedding_digest`

func scanEmployee(row scanner) (domain.Employee, error) {
	var (
		e                       domain.Employee
		skills, certs, projects string
		teamID, embeddingRef    sql.NullInt64
		digest                  int64
	)
	if err := row.Scan(&e.ID, &e.Name, &skills, &e.Experience, &certs, &projects, &teamID, &embeddingRef, &digest); err != nil {
		return e, err
	}
	var err error
	if e.Skills, err = decodeList(skills); err != nil {
		return e, err
	}
	if e.Certifications, err = decodeList(certs); err != nil {
		return e, err
	}
	if e.Projects, err = decodeList(projects); err != nil {
		return e, err
	}
	e.TeamID = nullableID(teamID)
	e.EmbeddingRef = nullableRef(embeddingRef)
	e.EmbeddingDigest = uint64(digest)
	return e, nil
}

const projectColumns = `id, title, description, required_skills, required_experience, embedding_ref, embedding_digest`

func scanProject(row scanner) (domain.Project, error) {
	var (
		p            domain.Project
		skills       string
		embeddingRef sql.NullInt64
		digest       int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &skills, &p.RequiredExperience, &embeddingRef, &digest); err != nil {
		return p, err
	}
	var err error
	if p.RequiredSkills, err = decodeList(skills); err != nil {
		return p, err
	}
	p.EmbeddingRef = nullableRef(embeddingRef)
	p.EmbeddingDigest = uint64(digest)
	return p, nil
}

func (s *SQLStore) GetEmployee(ctx context.Context, id int64) (domain.Employee, error) {
	e, err := scanEmployee(s.queryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return e, domain.NotFound("employee", id)
	}
	if err != nil {
		return e, fmt.Errorf("query employee: %w", err)
	}
	return e, nil
}

func (s *SQLStore) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	p, err := scanProject(s.queryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.NotFound("project", id)
	}
	if err != nil {
		return p, fmt.Errorf("query project: %w", err)
	}
	return p, nil
}

func (s *SQLStore) GetTeam(ctx context.Context, id int64) (domain.Team, error) {
	var (
		t       domain.Team
		leadID  sql.NullInt64
		members string
	)
	err := s.queryRow(ctx, `SELECT id, name, lead_id, member_ids FROM teams WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &leadID, &members)
	if errors.Is(err, sql.ErrNoRows) {
		return t, domain.NotFound("team", id)
	}
	if err != nil {
		return t, fmt.Errorf("query team: %w", err)
	}
	t.LeadID = nullableID(leadID)
	if err := json.Unmarshal([]byte(members), &t.MemberIDs); err != nil {
		return t, fmt.Errorf("decode team %d members: %w", id, err)
	}

	t.Members = make([]domain.Employee, 0, len(t.MemberIDs))
	for _, memberID := range t.MemberIDs {
		e, err := s.GetEmployee(ctx, memberID)
		if err != nil {
			return domain.Team{}, fmt.Errorf("team %d member: %w", id, err)
		}
		t.Members = append(t.Members, e)
	}
	return t, nil
}

func (s *SQLStore) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var employees []domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *SQLStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLStore) ListTeamIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.query(ctx, `SELECT id FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) setEmbedding(ctx context.Context, table, kind string, id int64, row int, digest uint64) error {
	res, err := s.exec(ctx, `UPDATE `+table+` SET embedding_ref = ?, embedding_digest = ? WHERE id = ?`,
		int64(row), digestArg(digest), id)
	if err != nil {
		return fmt.Errorf("update %s embedding: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s embedding: %w", kind, err)
	}
	if n == 0 {
		return domain.NotFound(kind, id)
	}
	return nil
}

func (s *SQLStore) SetEmployeeEmbedding(ctx context.Context, id int64, row int, digest uint64) error {
	return s.setEmbedding(ctx, "employees", "employee", id, row, digest)
}

func (s *SQLStore) SetProjectEmbedding(ctx context.Context, id int64, row int, digest uint64) error {
	return s.setEmbedding(ctx, "projects", "project", id, row, digest)
}

// The upserts below leave embedding_ref and embedding_digest alone on
// conflict so re-importing a record keeps its vector until it is re-embedded.

func (s *SQLStore) PutEmployee(ctx context.Context, e domain.Employee) error {
	skills, err := encodeList(e.Skills)
	if err != nil {
		return err
	}
	certs, err := encodeList(e.Certifications)
	if err != nil {
		return err
	}
	projects, err := encodeList(e.Projects)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, `
		INSERT INTO employees (id, name, skills, experience, certifications, projects, team_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			skills = excluded.skills,
			experience = excluded.experience,
			certifications = excluded.certifications,
			projects = excluded.projects,
			team_id = excluded.team_id`,
		e.ID, e.Name, skills, e.Experience, certs, projects, idArg(e.TeamID),
	)
	if err != nil {
		return fmt.Errorf("upsert employee: %w", err)
	}
	return nil
}

func (s *SQLStore) PutProject(ctx context.Context, p domain.Project) error {
	skills, err := encodeList(p.RequiredSkills)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, `
		INSERT INTO projects (id, title, description, required_skills, required_experience)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			required_skills = excluded.required_skills,
			required_experience = excluded.required_experience`,
		p.ID, p.Title, p.Description, skills, p.RequiredExperience,
	)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

func (s *SQLStore) PutTeam(ctx context.Context, t domain.Team) error {
	memberIDs := t.MemberIDs
	if memberIDs == nil {
		memberIDs = []int64{}
	}
	members, err := json.Marshal(memberIDs)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, `
		INSERT INTO teams (id, name, lead_id, member_ids)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			lead_id = excluded.lead_id,
			member_ids = excluded.member_ids`,
		t.ID, t.Name, idArg(t.LeadID), string(members),
	)
	if err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// UpsertScore relies on the (project_id, team_id) primary key: a second
// write for the pair replaces the first.
func (s *SQLStore) UpsertScore(ctx context.Context, rec domain.ScoreRecord) error {
	_, err := s.exec(ctx, `
		INSERT INTO team_project_scores (
			project_id, team_id, team_name, embedding_similarity, skill_coverage,
			experience_match, team_balance, final_score, match_percentage,
			evaluation_id, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, team_id) DO UPDATE SET
			team_name = excluded.team_name,
			embedding_similarity = excluded.embedding_similarity,
			skill_coverage = excluded.skill_coverage,
			experience_match = excluded.experience_match,
			team_balance = excluded.team_balance,
			final_score = excluded.final_score,
			match_percentage = excluded.match_percentage,
			evaluation_id = excluded.evaluation_id,
			updated_at = excluded.updated_at`,
		rec.ProjectID, rec.TeamID, rec.TeamName, rec.EmbeddingSimilarity, rec.SkillCoverage,
		rec.ExperienceMatch, rec.TeamBalance, rec.FinalScore, rec.MatchPercentage,
		rec.EvaluationID, formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

func (s *SQLStore) ListScores(ctx context.Context, projectID int64) ([]domain.ScoreRecord, error) {
	rows, err := s.query(ctx, `
		SELECT project_id, team_id, team_name, embedding_similarity, skill_coverage,
			   experience_match, team_balance, final_score, match_percentage,
			   evaluation_id, updated_at
		FROM team_project_scores
		WHERE project_id = ?
		ORDER BY final_score DESC, team_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var (
			rec       domain.ScoreRecord
			updatedAt string
		)
		if err := rows.Scan(
			&rec.ProjectID, &rec.TeamID, &rec.TeamName, &rec.EmbeddingSimilarity, &rec.SkillCoverage,
			&rec.ExperienceMatch, &rec.TeamBalance, &rec.FinalScore, &rec.MatchPercentage,
			&rec.EvaluationID, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse score time: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
