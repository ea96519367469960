package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"teammatch/internal/domain"
)

// Manager owns the matcher's metrics. A nil *Manager is valid and records
// nothing, so components can run without metrics wired.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	embeddingsStored *prometheus.CounterVec
	embeddingErrors  *prometheus.CounterVec
	teamsScored      prometheus.Counter
	teamsSkipped     prometheus.Counter
	rankingDuration  prometheus.Histogram
	indexRows        *prometheus.GaugeVec
	indexDegraded    *prometheus.GaugeVec
}

// NewManager creates a metrics manager on a private registry unless one is
// given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "teammatch",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.embeddingsStored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "embeddings_stored_total",
		Help:      "Vectors appended to an index and attached to their entity.",
	}, []string{"class"})

	m.embeddingErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "embedding_errors_total",
		Help:      "Entities whose embedding could not be computed or stored.",
	}, []string{"class"})

	m.teamsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "teams_scored_total",
		Help:      "Team/project pairs scored.",
	})

	m.teamsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "teams_skipped_total",
		Help:      "Teams left out of a ranking because they failed to load.",
	})

	m.rankingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "ranking_duration_seconds",
		Help:      "Time to rank all teams for one project.",
		Buckets:   m.histogramBuckets,
	})

	m.indexRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "index_rows",
		Help:      "Rows held by each vector index.",
	}, []string{"class"})

	m.indexDegraded = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "index_degraded",
		Help:      "1 when the vector index runs without durable storage.",
	}, []string{"class"})
}

func (m *Manager) EmbeddingStored(class domain.EntityClass) {
	if m == nil {
		return
	}
	m.embeddingsStored.WithLabelValues(string(class)).Inc()
}

func (m *Manager) EmbeddingFailed(class domain.EntityClass) {
	if m == nil {
		return
	}
	m.embeddingErrors.WithLabelValues(string(class)).Inc()
}

func (m *Manager) TeamScored() {
	if m == nil {
		return
	}
	m.teamsScored.Inc()
}

func (m *Manager) TeamSkipped() {
	if m == nil {
		return
	}
	m.teamsSkipped.Inc()
}

// ObserveRanking records how long a ranking took.
func (m *Manager) ObserveRanking(d time.Duration) {
	if m == nil {
		return
	}
	m.rankingDuration.Observe(d.Seconds())
}

// SetIndexState publishes an index's row count and whether it is degraded.
func (m *Manager) SetIndexState(class domain.EntityClass, rows int, degraded bool) {
	if m == nil {
		return
	}
	m.indexRows.WithLabelValues(string(class)).Set(float64(rows))
	flag := 0.0
	if degraded {
		flag = 1
	}
	m.indexDegraded.WithLabelValues(string(class)).Set(flag)
}

// Registry exposes the underlying registry for gathering.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the node_exporter textfile
// collector format. An empty path is a no-op.
func (m *Manager) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
