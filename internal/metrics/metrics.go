// Package metrics exports cache and replication counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"distcache/internal/engine"
	"distcache/internal/replication"
)

// Adapter implements engine.Metrics and replication.Metrics backed by
// Prometheus collectors. All Prometheus metric types are goroutine-safe.
type Adapter struct {
	registry *prometheus.Registry

	hits        prometheus.Counter
	misses      prometheus.Counter
	evictions   prometheus.Counter
	sizeEntries prometheus.Gauge

	replicaAcks     prometheus.Counter
	replicaFailures prometheus.Counter
}

// New constructs an adapter with its own registry. nodeID is attached
// as a constant label so multi-node test processes don't collide.
func New(nodeID string) *Adapter {
	labels := prometheus.Labels{"node": nodeID}
	a := &Adapter{
		registry: prometheus.NewRegistry(),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "distcache", Subsystem: "cache",
			Name: "hits_total", Help: "Cache hits",
			ConstLabels: labels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "distcache", Subsystem: "cache",
			Name: "misses_total", Help: "Cache misses",
			ConstLabels: labels,
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "distcache", Subsystem: "cache",
			Name: "evictions_total", Help: "Cache evictions",
			ConstLabels: labels,
		}),
		sizeEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "distcache", Subsystem: "cache",
			Name: "size_entries", Help: "Number of resident entries",
			ConstLabels: labels,
		}),
		replicaAcks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "distcache", Subsystem: "replication",
			Name: "acks_total", Help: "Replica acknowledgments",
			ConstLabels: labels,
		}),
		replicaFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "distcache", Subsystem: "replication",
			Name: "failures_total", Help: "Replica errors and timeouts",
			ConstLabels: labels,
		}),
	}
	a.registry.MustRegister(
		a.hits, a.misses, a.evictions, a.sizeEntries,
		a.replicaAcks, a.replicaFailures,
	)
	return a
}

// Hit increments the cache hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the cache miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter.
func (a *Adapter) Evict() { a.evictions.Inc() }

// Size updates the resident-entry gauge.
func (a *Adapter) Size(entries int) { a.sizeEntries.Set(float64(entries)) }

// ReplicaAck increments the replication acknowledgment counter.
func (a *Adapter) ReplicaAck() { a.replicaAcks.Inc() }

// ReplicaFailure increments the replication failure counter.
func (a *Adapter) ReplicaFailure() { a.replicaFailures.Inc() }

// Handler serves this adapter's registry in Prometheus exposition format.
func (a *Adapter) Handler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

var (
	_ engine.Metrics      = (*Adapter)(nil)
	_ replication.Metrics = (*Adapter)(nil)
)
