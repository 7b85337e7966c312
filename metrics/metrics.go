package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest outcome label values.
const (
	OutcomeNew      = "new"
	OutcomeUpdated  = "updated"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
	OutcomeFiltered = "filtered"
)

// Registry holds the crawler's collectors on a private prometheus registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg               *prometheus.Registry
	IngestDeals       *prometheus.CounterVec
	CrawlDurationSec  *prometheus.HistogramVec
	CrawlPages        *prometheus.CounterVec
	DateParseFallback *prometheus.CounterVec
	SweepExpired      prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ingest := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hiko_ingest_deals_total",
		Help: "Hotdeal ingest outcomes per source.",
	}, []string{"source", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hiko_crawl_duration_seconds",
		Help:    "Wall time of one source crawl.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"source"})
	pages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hiko_crawl_pages_total",
		Help: "Listing pages fetched per source.",
	}, []string{"source"})
	fallback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hiko_date_parse_fallback_total",
		Help: "Date strings that matched no known format and defaulted to now.",
	}, []string{"source"})
	swept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hiko_sweep_expired_total",
		Help: "Deals flipped from active to expired by the sweeper.",
	})

	r.MustRegister(ingest, duration, pages, fallback, swept)
	return &Registry{
		reg:               r,
		IngestDeals:       ingest,
		CrawlDurationSec:  duration,
		CrawlPages:        pages,
		DateParseFallback: fallback,
		SweepExpired:      swept,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) IncIngest(source, outcome string) {
	if r == nil {
		return
	}
	r.IngestDeals.WithLabelValues(source, outcome).Inc()
}

func (r *Registry) ObserveCrawl(source string, seconds float64, pages int) {
	if r == nil {
		return
	}
	r.CrawlDurationSec.WithLabelValues(source).Observe(seconds)
	r.CrawlPages.WithLabelValues(source).Add(float64(pages))
}

func (r *Registry) IncDateFallback(source string) {
	if r == nil {
		return
	}
	r.DateParseFallback.WithLabelValues(source).Inc()
}

func (r *Registry) AddSweepExpired(n int) {
	if r == nil {
		return
	}
	r.SweepExpired.Add(float64(n))
}
