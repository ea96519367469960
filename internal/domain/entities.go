package domain

import "time"

// EntityClass names a family of embedded entities. Each class owns its own
// vector index and row-id space.
type EntityClass string

const (
	ClassEmployee EntityClass = "employee"
	ClassProject  EntityClass = "project"
)

func (c EntityClass) String() string { return string(c) }

// Dimension is the length of every stored embedding vector.
const Dimension = 384

// DefaultRequiredExperience is applied to projects that do not state one.
const DefaultRequiredExperience = 1.0

type Employee struct {
	ID             int64    `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Skills         []string `json:"skills" yaml:"skills"`
	Experience     float64  `json:"experience" yaml:"experience"`
	Certifications []string `json:"certifications" yaml:"certifications"`
	Projects       []string `json:"projects" yaml:"projects"`
	TeamID         *int64   `json:"team_id,omitempty" yaml:"team_id,omitempty"`

	// EmbeddingRef is the row id in the employee index, nil until embedded.
	EmbeddingRef    *int   `json:"embedding_ref,omitempty" yaml:"-"`
	EmbeddingDigest uint64 `json:"embedding_digest,omitempty" yaml:"-"`
}

type Project struct {
	ID                 int64    `json:"id" yaml:"id"`
	Title              string   `json:"title" yaml:"title"`
	Description        string   `json:"description" yaml:"description"`
	RequiredSkills     []string `json:"required_skills" yaml:"required_skills"`
	RequiredExperience float64  `json:"required_experience" yaml:"required_experience"`

	EmbeddingRef    *int   `json:"embedding_ref,omitempty" yaml:"-"`
	EmbeddingDigest uint64 `json:"embedding_digest,omitempty" yaml:"-"`
}

// Team is read with its members resolved. MemberIDs is the stored form.
type Team struct {
	ID        int64      `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	LeadID    *int64     `json:"lead_id,omitempty" yaml:"lead_id,omitempty"`
	MemberIDs []int64    `json:"member_ids" yaml:"member_ids"`
	Members   []Employee `json:"-" yaml:"-"`
}

// IsLead reports whether the employee is the team's designated lead.
func (t Team) IsLead(employeeID int64) bool {
	return t.LeadID != nil && *t.LeadID == employeeID
}

// ScoreRecord is the outcome of scoring one (team, project) pair. All score
// fields are in [0,1] and rounded to four decimals.
type ScoreRecord struct {
	TeamID              int64     `json:"team_id"`
	ProjectID           int64     `json:"project_id"`
	TeamName            string    `json:"team_name,omitempty"`
	EmbeddingSimilarity float64   `json:"embedding_similarity"`
	SkillCoverage       float64   `json:"skill_coverage"`
	ExperienceMatch     float64   `json:"experience_match"`
	TeamBalance         float64   `json:"team_balance"`
	FinalScore          float64   `json:"final_score"`
	MatchPercentage     float64   `json:"match_percentage"`
	EvaluationID        string    `json:"evaluation_id,omitempty"`
	UpdatedAt           time.Time `json:"updated_at,omitempty"`
}

// ProjectMatch is one row of the employee-facing project ranking.
type ProjectMatch struct {
	ProjectID       int64    `json:"project_id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	RequiredSkills  []string `json:"required_skills"`
	Score           float64  `json:"score"`
	MatchPercentage float64  `json:"match_percentage"`
	SkillGap        []string `json:"skill_gap"`
}

type SkillGapReport struct {
	EmployeeID         int64    `json:"employee_id"`
	EmployeeName       string   `json:"employee_name"`
	ProjectTitle       string   `json:"project_title"`
	CoveredSkills      []string `json:"covered_skills"`
	MissingSkills      []string `json:"missing_skills"`
	CoveragePercentage float64  `json:"coverage_percentage"`
}

type HeatmapRow struct {
	EmployeeName string   `json:"employee_name"`
	Skills       []string `json:"skills"`
}

type SkillHeatmap struct {
	Employees []HeatmapRow `json:"employees"`
	AllSkills []string     `json:"all_skills"`
}

// Dataset is the on-disk import format.
type Dataset struct {
	Employees []Employee `yaml:"employees"`
	Projects  []Project  `yaml:"projects"`
	Teams     []Team     `yaml:"teams"`
}
