package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"teammatch/internal/domain"
)

// projectDoc distinguishes an absent required_experience, which gets the
// default, from an explicit 0.
type projectDoc struct {
	ID                 int64    `yaml:"id"`
	Title              string   `yaml:"title"`
	Description        string   `yaml:"description"`
	RequiredSkills     []string `yaml:"required_skills"`
	RequiredExperience *float64 `yaml:"required_experience"`
}

type datasetDoc struct {
	Employees []domain.Employee `yaml:"employees"`
	Projects  []projectDoc      `yaml:"projects"`
	Teams     []domain.Team     `yaml:"teams"`
}

// ReadDataset decodes a YAML dataset file. Unknown keys are rejected so typos
// in field names surface instead of importing empty values. A file may hold
// several documents separated by ---; their sections are concatenated.
func ReadDataset(path string) (domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Dataset{}, err
	}

	var out domain.Dataset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for {
		var doc datasetDoc
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("%s: %w", path, err)
		}
		out.Employees = append(out.Employees, doc.Employees...)
		out.Teams = append(out.Teams, doc.Teams...)
		for _, p := range doc.Projects {
			required := domain.DefaultRequiredExperience
			if p.RequiredExperience != nil {
				required = *p.RequiredExperience
			}
			out.Projects = append(out.Projects, domain.Project{
				ID:                 p.ID,
				Title:              p.Title,
				Description:        p.Description,
				RequiredSkills:     p.RequiredSkills,
				RequiredExperience: required,
			})
		}
	}
	return out, nil
}
