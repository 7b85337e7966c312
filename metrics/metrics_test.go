package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCounters(t *testing.T) {
	r := NewRegistry()

	r.IncIngest("ppomppu", OutcomeNew)
	r.IncIngest("ppomppu", OutcomeNew)
	r.IncIngest("ppomppu", OutcomeError)
	r.IncDateFallback("clien")
	r.AddSweepExpired(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.IngestDeals.WithLabelValues("ppomppu", OutcomeNew)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.IngestDeals.WithLabelValues("ppomppu", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DateParseFallback.WithLabelValues("clien")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.SweepExpired))
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.IncIngest("ppomppu", OutcomeNew)
		r.ObserveCrawl("ppomppu", 1.5, 2)
		r.IncDateFallback("ppomppu")
		r.AddSweepExpired(1)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.ObserveCrawl("ruliweb", 2, 3)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `hiko_crawl_pages_total{source="ruliweb"} 3`))
}
