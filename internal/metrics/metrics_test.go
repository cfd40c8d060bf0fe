package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.ObserveReply("model")
	c.ObserveReply("fallback")
	c.ObserveReply("fallback")
	c.ObserveTurn("user", "sad")
	c.ObserveExport("csv")
	c.ObservePatchFailure()
	c.ObserveModelLatency(120 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Replies.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Turns.WithLabelValues("user", "sad")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Exports.WithLabelValues("csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BackupPatchFailures))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveReply("model")
		c.ObserveTurn("user", "happy")
		c.ObserveExport("json")
		c.ObservePatchFailure()
		c.ObserveModelLatency(time.Second)
	})
}

func TestHandlerExposesAnchorMetrics(t *testing.T) {
	c := New()
	c.ObserveReply("model")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `anchor_replies_total{source="model"} 1`)
}
