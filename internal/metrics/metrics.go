package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meetup_bot"

// Collector records aggregation, schedule and delivery metrics on its own
// registry.
type Collector struct {
	registry         *prometheus.Registry
	sourceFetches    *prometheus.CounterVec
	eventsAggregated prometheus.Gauge
	decisions        *prometheus.CounterVec
	deliveries       *prometheus.CounterVec
	runDuration      prometheus.Histogram
}

// NewCollector registers every metric on a fresh registry.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		sourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_total",
			Help:      "Source queries by outcome.",
		}, []string{"source", "result"}),
		eventsAggregated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_aggregated",
			Help:      "Events kept by the last aggregation.",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_decisions_total",
			Help:      "Schedule checks by weekday and decision.",
		}, []string{"day", "decision"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Digest deliveries by publisher and outcome.",
		}, []string{"publisher", "result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of check-and-publish runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, m := range []prometheus.Collector{
		c.sourceFetches,
		c.eventsAggregated,
		c.decisions,
		c.deliveries,
		c.runDuration,
	} {
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Collector) SourceFetched(source, result string) {
	c.sourceFetches.WithLabelValues(source, result).Inc()
}

func (c *Collector) EventsAggregated(n int) {
	c.eventsAggregated.Set(float64(n))
}

func (c *Collector) ScheduleDecision(day, decision string) {
	c.decisions.WithLabelValues(day, decision).Inc()
}

func (c *Collector) Delivered(publisher, result string) {
	c.deliveries.WithLabelValues(publisher, result).Inc()
}

func (c *Collector) RunCompleted(d time.Duration) {
	c.runDuration.Observe(d.Seconds())
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Mux serves /metrics and a /healthz liveness probe.
func (c *Collector) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
