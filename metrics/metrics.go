// Package metrics records operational metrics for inserts and searches.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/vecdb/vecerr"
)

// Collector receives operation outcomes. Implementations must be safe for
// concurrent use.
type Collector interface {
	// RecordInsert is called after each single or batch insert; n is the
	// number of items attempted.
	RecordInsert(n int, duration time.Duration, err error)

	// RecordSearch is called after each search; method is "native" or
	// "fallback" and results the number of returned matches.
	RecordSearch(method string, results int, duration time.Duration, err error)

	// SetRows reports the current number of stored records.
	SetRows(n int64)
}

// Noop discards all metrics.
type Noop struct{}

func (Noop) RecordInsert(int, time.Duration, error)         {}
func (Noop) RecordSearch(string, int, time.Duration, error) {}
func (Noop) SetRows(int64)                                  {}

// Basic keeps in-memory counters.
type Basic struct {
	Inserts      atomic.Int64
	InsertItems  atomic.Int64
	InsertErrors atomic.Int64
	Searches     atomic.Int64
	SearchErrors atomic.Int64
	Rows         atomic.Int64
}

// RecordInsert implements Collector.
func (b *Basic) RecordInsert(n int, _ time.Duration, err error) {
	b.Inserts.Add(1)
	if err != nil {
		b.InsertErrors.Add(1)
		return
	}
	b.InsertItems.Add(int64(n))
}

// RecordSearch implements Collector.
func (b *Basic) RecordSearch(_ string, _ int, _ time.Duration, err error) {
	b.Searches.Add(1)
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// SetRows implements Collector.
func (b *Basic) SetRows(n int64) { b.Rows.Store(n) }

// Prometheus exports metrics through client_golang.
type Prometheus struct {
	opLatency *prometheus.HistogramVec
	items     prometheus.Counter
	results   *prometheus.HistogramVec
	errors    *prometheus.CounterVec
	rows      prometheus.Gauge
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vecdb_operation_latency_seconds",
			Help:    "Latency of store operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "method", "status"}),
		items: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vecdb_inserted_items_total",
			Help: "Total items committed by inserts",
		}),
		results: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vecdb_search_results",
			Help:    "Number of matches returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdb_errors_total",
			Help: "Failed operations by error kind",
		}, []string{"op", "kind"}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vecdb_rows",
			Help: "Number of stored embeddings",
		}),
	}
	for _, c := range []prometheus.Collector{p.opLatency, p.items, p.results, p.errors, p.rows} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (p *Prometheus) recordError(op string, err error) {
	kind := string(vecerr.KindOf(err))
	if kind == "" {
		kind = "unknown"
	}
	p.errors.WithLabelValues(op, kind).Inc()
}

// RecordInsert implements Collector.
func (p *Prometheus) RecordInsert(n int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("insert", "", status(err)).Observe(d.Seconds())
	if err != nil {
		p.recordError("insert", err)
		return
	}
	p.items.Add(float64(n))
}

// RecordSearch implements Collector.
func (p *Prometheus) RecordSearch(method string, results int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("search", method, status(err)).Observe(d.Seconds())
	if err != nil {
		p.recordError("search", err)
		return
	}
	p.results.WithLabelValues(method).Observe(float64(results))
}

// SetRows implements Collector.
func (p *Prometheus) SetRows(n int64) { p.rows.Set(float64(n)) }
