package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ColumnGenerated()
	m.ColumnGenerated()
	m.ColumnsEvicted(3)
	m.StorageError("load")
	m.SetQueueDepth(QueueRender, 7)
	m.ChunkMeshed(2 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.columnsGenerated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.columnsEvicted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageErrors.WithLabelValues("load")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.queueDepth.WithLabelValues(QueueRender)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chunksMeshed))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ColumnGenerated()
	m.SetQueueDepth(QueueSave, 1)
	m.ChunkMeshed(time.Second)
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SetLoadedColumns(5)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blockgame_loaded_columns 5")
}
