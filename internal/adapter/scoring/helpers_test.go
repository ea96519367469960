package scoring

import (
	"teammatch/internal/domain"
	"teammatch/internal/vector"
)

type memIndex struct {
	rows [][]float32
}

func (m *memIndex) Add(v []float32) (int, error) {
	m.rows = append(m.rows, vector.Normalize(v))
	return len(m.rows) - 1, nil
}

func (m *memIndex) Get(row int) ([]float32, bool) {
	if row < 0 || row >= len(m.rows) {
		return nil, false
	}
	return m.rows[row], true
}

func (m *memIndex) Len() int     { return len(m.rows) }
func (m *memIndex) Close() error { return nil }

func (m *memIndex) ref(v ...float32) *int {
	row, _ := m.Add(v)
	return &row
}

func ptr64(v int64) *int64 { return &v }

func employee(id int64, exp float64, skills ...string) domain.Employee {
	return domain.Employee{ID: id, Name: "emp", Experience: exp, Skills: skills}
}
