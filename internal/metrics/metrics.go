package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blockgame"

// Queue names used as the "queue" label.
const (
	QueueInstantiate = "instantiate"
	QueueDestroy     = "destroy"
	QueueRender      = "render"
	QueueUpdate      = "update"
	QueueSave        = "save"
)

// Metrics holds the world pipeline's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	columnsGenerated prometheus.Counter
	columnsLoaded    prometheus.Counter
	columnsSaved     prometheus.Counter
	columnsEvicted   prometheus.Counter
	chunksMeshed     prometheus.Counter
	lightUpdates     prometheus.Counter
	blockTicks       prometheus.Counter
	storageErrors    *prometheus.CounterVec
	loadedColumns    prometheus.Gauge
	queueDepth       *prometheus.GaugeVec
	meshBuild        prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		columnsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "columns_generated_total",
			Help:      "Columns produced by the terrain generator.",
		}),
		columnsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "columns_loaded_total",
			Help:      "Columns restored from storage.",
		}),
		columnsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "columns_saved_total",
			Help:      "Columns written to storage.",
		}),
		columnsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "columns_evicted_total",
			Help:      "Columns dropped from memory.",
		}),
		chunksMeshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_meshed_total",
			Help:      "Chunk meshes built.",
		}),
		lightUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "light_updates_total",
			Help:      "Block changes that re-propagated light.",
		}),
		blockTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_ticks_total",
			Help:      "Random block ticks dispatched to a tick hook.",
		}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Persistence failures by operation.",
		}, []string{"op"}),
		loadedColumns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loaded_columns",
			Help:      "Columns currently held in memory.",
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Pending tasks per queue.",
		}, []string{"queue"}),
		meshBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mesh_build_seconds",
			Help:      "Time spent building one chunk mesh.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}

	reg.MustRegister(
		m.columnsGenerated, m.columnsLoaded, m.columnsSaved, m.columnsEvicted,
		m.chunksMeshed, m.lightUpdates, m.blockTicks, m.storageErrors,
		m.loadedColumns, m.queueDepth, m.meshBuild,
	)
	return m
}

func (m *Metrics) ColumnGenerated() {
	if m != nil {
		m.columnsGenerated.Inc()
	}
}

func (m *Metrics) ColumnLoaded() {
	if m != nil {
		m.columnsLoaded.Inc()
	}
}

func (m *Metrics) ColumnSaved() {
	if m != nil {
		m.columnsSaved.Inc()
	}
}

func (m *Metrics) ColumnsEvicted(n int) {
	if m != nil {
		m.columnsEvicted.Add(float64(n))
	}
}

func (m *Metrics) LightUpdate() {
	if m != nil {
		m.lightUpdates.Inc()
	}
}

func (m *Metrics) BlockTicks(n int) {
	if m != nil {
		m.blockTicks.Add(float64(n))
	}
}

func (m *Metrics) StorageError(op string) {
	if m != nil {
		m.storageErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) SetLoadedColumns(n int) {
	if m != nil {
		m.loadedColumns.Set(float64(n))
	}
}

func (m *Metrics) SetQueueDepth(queue string, n int) {
	if m != nil {
		m.queueDepth.WithLabelValues(queue).Set(float64(n))
	}
}

// ChunkMeshed records one finished mesh build.
func (m *Metrics) ChunkMeshed(d time.Duration) {
	if m != nil {
		m.chunksMeshed.Inc()
		m.meshBuild.Observe(d.Seconds())
	}
}

// Handler serves the collectors of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
