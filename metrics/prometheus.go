// Package metrics exports cache events to Prometheus.
package metrics

import (
	"time"

	"github.com/mindmate/respcache/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ types.Metrics = (*Prometheus)(nil)

// Prometheus implements types.Metrics with client_golang collectors.
type Prometheus struct {
	Hits        prometheus.Counter
	Misses      prometheus.Counter
	Evictions   prometheus.Counter
	Expirations prometheus.Counter
	Refreshes   prometheus.Counter
	SweptTotal  prometheus.Counter
	Sweeps      prometheus.Counter

	Loads       *prometheus.CounterVec
	LoadLatency prometheus.Histogram
}

// NewPrometheus registers the cache collectors on reg under namespace.
// Registering twice on the same registry panics, as with promauto.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	f := promauto.With(reg)

	return &Prometheus{
		Hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Reads that found a live entry",
		}),
		Misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Reads that found nothing or an expired entry",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Live entries dropped to respect max_entries",
		}),
		Expirations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "expirations_total",
			Help:      "Expired entries removed outside a sweep",
		}),
		Refreshes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "refreshes_total",
			Help:      "Background revalidations and forced refreshes started",
		}),
		SweptTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "swept_entries_total",
			Help:      "Expired entries reclaimed by sweeps",
		}),
		Sweeps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "sweeps_total",
			Help:      "Sweeps run",
		}),
		Loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "loads_total",
			Help:      "Read-through loads by result",
		}, []string{"result"}),
		LoadLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "load_duration_seconds",
			Help:      "Read-through load latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

func (p *Prometheus) Hit()      { p.Hits.Inc() }
func (p *Prometheus) Miss()     { p.Misses.Inc() }
func (p *Prometheus) Eviction() { p.Evictions.Inc() }
func (p *Prometheus) Expire()   { p.Expirations.Inc() }
func (p *Prometheus) Refresh()  { p.Refreshes.Inc() }

func (p *Prometheus) Swept(n int) {
	p.Sweeps.Inc()
	p.SweptTotal.Add(float64(n))
}

// Loaded records one settled load.
func (p *Prometheus) Loaded(d time.Duration, err error) {
	p.LoadLatency.Observe(d.Seconds())
	if err != nil {
		p.Loads.WithLabelValues("error").Inc()
		return
	}
	p.Loads.WithLabelValues("ok").Inc()
}

// Sizer is anything that can report how many entries it holds.
type Sizer interface {
	Size() int
}

// RegisterSizeGauge exports s.Size() as a gauge read at scrape time.
func RegisterSizeGauge(reg prometheus.Registerer, namespace string, s Sizer) prometheus.GaugeFunc {
	return promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Entries physically stored, expired-but-unswept ones included",
	}, func() float64 {
		return float64(s.Size())
	})
}
