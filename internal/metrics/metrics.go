package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "focorders"

// Recorder keeps per-run submission counters on its own registry. A nil
// Recorder discards everything.
type Recorder struct {
	registry       *prometheus.Registry
	groups         *prometheus.CounterVec
	tokenFetches   prometheus.Counter
	persistFailure prometheus.Counter
	requestLatency *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		groups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_total",
			Help:      "Order groups submitted, by outcome status.",
		}, []string{"status"}),
		tokenFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_fetches_total",
			Help:      "CSRF token fetches against the ERP service root.",
		}),
		persistFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Created orders whose warehouse rows could not be written.",
		}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "erp_request_seconds",
			Help:      "Latency of ERP calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"op"}),
	}
	r.registry.MustRegister(r.groups, r.tokenFetches, r.persistFailure, r.requestLatency)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Group(status string) {
	if r == nil {
		return
	}
	r.groups.WithLabelValues(status).Inc()
}

func (r *Recorder) TokenFetch() {
	if r == nil {
		return
	}
	r.tokenFetches.Inc()
}

func (r *Recorder) PersistFailure() {
	if r == nil {
		return
	}
	r.persistFailure.Inc()
}

func (r *Recorder) ObserveRequest(op string, d time.Duration) {
	if r == nil {
		return
	}
	r.requestLatency.WithLabelValues(op).Observe(d.Seconds())
}

// WriteTextfile dumps the registry in the node_exporter textfile format. Empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
