package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"teammatch/internal/domain"
)

var (
	bucketEmployees = []byte("employees")
	bucketProjects  = []byte("projects")
	bucketTeams     = []byte("teams")
	bucketScores    = []byte("scores")
	bucketMeta      = []byte("meta")
)

// BoltStore keeps entities and score records in a single BoltDB file.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketEmployees, bucketProjects, bucketTeams, bucketScores, bucketMeta}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	if err := s.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func idKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func scoreKey(projectID, teamID int64) []byte {
	k := make([]byte, 16)
	binary.BigEndian.PutUint64(k, uint64(projectID))
	binary.BigEndian.PutUint64(k[8:], uint64(teamID))
	return k
}

func getJSON(tx *bbolt.Tx, bucket []byte, id int64, kind string, v any) error {
	data := tx.Bucket(bucket).Get(idKey(id))
	if data == nil {
		return domain.NotFound(kind, id)
	}
	return json.Unmarshal(data, v)
}

func putJSON(tx *bbolt.Tx, bucket []byte, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put(key, data)
}

func (s *BoltStore) GetEmployee(_ context.Context, id int64) (domain.Employee, error) {
	var e domain.Employee
	err := s.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx, bucketEmployees, id, "employee", &e)
	})
	return e, err
}

func (s *BoltStore) GetProject(_ context.Context, id int64) (domain.Project, error) {
	var p domain.Project
	err := s.db.View(func(tx *bbolt.Tx) error {
		return getJSON(tx, bucketProjects, id, "project", &p)
	})
	return p, err
}

func (s *BoltStore) GetTeam(_ context.Context, id int64) (domain.Team, error) {
	var t domain.Team
	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := getJSON(tx, bucketTeams, id, "team", &t); err != nil {
			return err
		}
		t.Members = make([]domain.Employee, 0, len(t.MemberIDs))
		for _, memberID := range t.MemberIDs {
			var e domain.Employee
			if err := getJSON(tx, bucketEmployees, memberID, "employee", &e); err != nil {
				return fmt.Errorf("team %d member: %w", id, err)
			}
			t.Members = append(t.Members, e)
		}
		return nil
	})
	return t, err
}

func (s *BoltStore) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	var employees []domain.Employee
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmployees).ForEach(func(k, v []byte) error {
			var e domain.Employee
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			employees = append(employees, e)
			return nil
		})
	})
	return employees, err
}

func (s *BoltStore) ListProjects(_ context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProjects).ForEach(func(k, v []byte) error {
			var p domain.Project
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			projects = append(projects, p)
			return nil
		})
	})
	return projects, err
}

func (s *BoltStore) ListTeamIDs(_ context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTeams).ForEach(func(k, v []byte) error {
			ids = append(ids, int64(binary.BigEndian.Uint64(k)))
			return nil
		})
	})
	return ids, err
}

func (s *BoltStore) SetEmployeeEmbedding(_ context.Context, id int64, row int, digest uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		var e domain.Employee
		if err := getJSON(tx, bucketEmployees, id, "employee", &e); err != nil {
			return err
		}
		e.EmbeddingRef = &row
		e.EmbeddingDigest = digest
		return putJSON(tx, bucketEmployees, idKey(id), e)
	})
}

func (s *BoltStore) SetProjectEmbedding(_ context.Context, id int64, row int, digest uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		var p domain.Project
		if err := getJSON(tx, bucketProjects, id, "project", &p); err != nil {
			return err
		}
		p.EmbeddingRef = &row
		p.EmbeddingDigest = digest
		return putJSON(tx, bucketProjects, idKey(id), p)
	})
}

func (s *BoltStore) PutEmployee(_ context.Context, e domain.Employee) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		var existing domain.Employee
		if data := tx.Bucket(bucketEmployees).Get(idKey(e.ID)); data != nil {
			if err := json.Unmarshal(data, &existing); err != nil {
				return err
			}
			e.EmbeddingRef = existing.EmbeddingRef
			e.EmbeddingDigest = existing.EmbeddingDigest
		}
		return putJSON(tx, bucketEmployees, idKey(e.ID), e)
	})
}

func (s *BoltStore) PutProject(_ context.Context, p domain.Project) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		var existing domain.Project
		if data := tx.Bucket(bucketProjects).Get(idKey(p.ID)); data != nil {
			if err := json.Unmarshal(data, &existing); err != nil {
				return err
			}
			p.EmbeddingRef = existing.EmbeddingRef
			p.EmbeddingDigest = existing.EmbeddingDigest
		}
		return putJSON(tx, bucketProjects, idKey(p.ID), p)
	})
}

func (s *BoltStore) PutTeam(_ context.Context, t domain.Team) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		t.Members = nil
		return putJSON(tx, bucketTeams, idKey(t.ID), t)
	})
}

// UpsertScore keys the record by (project, team), so a second write for the
// same pair replaces the first.
func (s *BoltStore) UpsertScore(_ context.Context, rec domain.ScoreRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx, bucketScores, scoreKey(rec.ProjectID, rec.TeamID), rec)
	})
}

func (s *BoltStore) ListScores(_ context.Context, projectID int64) ([]domain.ScoreRecord, error) {
	var records []domain.ScoreRecord
	prefix := idKey(projectID)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketScores).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec domain.ScoreRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FinalScore > records[j].FinalScore
	})
	return records, nil
}
