package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex is an append-only store of unit vectors addressed by row id.
type VectorIndex interface {
	// Add appends the vector and returns its 0-based row id.
	Add(vector []float32) (int, error)

	// Get returns the vector stored at row, or false when the row does not exist.
	Get(row int) ([]float32, bool)

	// Len returns the number of rows in the index.
	Len() int

	Close() error
}

// Degradable is implemented by indexes that can stand in for an unavailable
// backend.
type Degradable interface {
	Degraded() bool
}

// IsDegraded reports whether ix accepts vectors without persisting them.
// Row ids from such an index must never be stored on a record.
func IsDegraded(ix VectorIndex) bool {
	d, ok := ix.(Degradable)
	return ok && d.Degraded()
}
