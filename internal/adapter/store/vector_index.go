package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"teammatch/internal/domain"
	"teammatch/internal/port"
	"teammatch/internal/vector"
)

var bucketRows = []byte("rows")

// BoltVectorIndex is an append-only vector index persisted in its own BoltDB
// file. Rows are keyed by their big-endian row id so iteration order is row
// order. All rows are mirrored in memory for lookups.
type BoltVectorIndex struct {
	db        *bbolt.DB
	class     domain.EntityClass
	dimension int

	mu   sync.RWMutex
	rows [][]float32
}

// NewBoltVectorIndex opens (or creates) the index file at path.
func NewBoltVectorIndex(path string, class domain.EntityClass, dimension int) (*BoltVectorIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s index: %w", class, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRows)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create rows bucket: %w", err)
	}

	ix := &BoltVectorIndex{db: db, class: class, dimension: dimension}
	if err := ix.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load %s index: %w", class, err)
	}
	return ix, nil
}

func (ix *BoltVectorIndex) load() error {
	return ix.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRows).ForEach(func(k, v []byte) error {
			row := int(binary.BigEndian.Uint64(k))
			if row != len(ix.rows) {
				return fmt.Errorf("row %d out of sequence, expected %d", row, len(ix.rows))
			}
			vec, err := decodeVector(v)
			if err != nil {
				return fmt.Errorf("row %d: %w", row, err)
			}
			if len(vec) != ix.dimension {
				return &domain.DimensionMismatchError{Expected: ix.dimension, Actual: len(vec)}
			}
			ix.rows = append(ix.rows, vec)
			return nil
		})
	})
}

// Add normalizes and appends the vector. The row is committed to disk before
// its id is returned.
func (ix *BoltVectorIndex) Add(vec []float32) (int, error) {
	if len(vec) != ix.dimension {
		return 0, &domain.DimensionMismatchError{Expected: ix.dimension, Actual: len(vec)}
	}
	unit := vector.Normalize(vec)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	row := len(ix.rows)
	err := ix.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRows).Put(rowKey(row), encodeVector(unit))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append %s row: %w", ix.class, err)
	}

	ix.rows = append(ix.rows, unit)
	return row, nil
}

// Get returns a copy of the vector at row.
func (ix *BoltVectorIndex) Get(row int) ([]float32, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if row < 0 || row >= len(ix.rows) {
		return nil, false
	}
	out := make([]float32, len(ix.rows[row]))
	copy(out, ix.rows[row])
	return out, true
}

func (ix *BoltVectorIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.rows)
}

func (ix *BoltVectorIndex) Close() error {
	return ix.db.Close()
}

// NullVectorIndex stands in for an index whose backend could not be opened.
// It hands out sequential row ids and answers rows it issued in this process
// with a zero vector, so similarity degrades to 0. Its row ids are not
// durable; callers check Degraded before linking one to a record.
type NullVectorIndex struct {
	dimension int

	mu   sync.Mutex
	size int
}

func NewNullVectorIndex(dimension int) *NullVectorIndex {
	return &NullVectorIndex{dimension: dimension}
}

func (ix *NullVectorIndex) Add(vec []float32) (int, error) {
	if len(vec) != ix.dimension {
		return 0, &domain.DimensionMismatchError{Expected: ix.dimension, Actual: len(vec)}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	row := ix.size
	ix.size++
	return row, nil
}

func (ix *NullVectorIndex) Get(row int) ([]float32, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if row < 0 || row >= ix.size {
		return nil, false
	}
	return make([]float32, ix.dimension), true
}

func (ix *NullVectorIndex) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.size
}

func (ix *NullVectorIndex) Close() error { return nil }

func (ix *NullVectorIndex) Degraded() bool { return true }

// OpenVectorIndex opens the index at path, falling back to a NullVectorIndex
// when the backend is unavailable. A dimension mismatch in existing data is
// not a backend failure and is returned. The fallback is logged once here.
func OpenVectorIndex(path string, class domain.EntityClass, dimension int, log *zap.Logger) (port.VectorIndex, bool, error) {
	ix, err := NewBoltVectorIndex(path, class, dimension)
	if err == nil {
		return ix, false, nil
	}

	var dm *domain.DimensionMismatchError
	if errors.As(err, &dm) || errors.Is(err, domain.ErrInvalidInput) {
		return nil, false, err
	}

	log.Warn("vector index unavailable, similarity degrades to zero",
		zap.String("class", string(class)),
		zap.String("path", path),
		zap.Error(fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)),
	)
	return NewNullVectorIndex(dimension), true, nil
}

func rowKey(row int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(row))
	return k
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector of %d bytes", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
