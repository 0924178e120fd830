package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipebook"

// Collector owns the service's Prometheus registry and every metric exposed
// on it. It satisfies service.RecipeMetrics.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	recipesCreated     prometheus.Counter
	recipesDeleted     prometheus.Counter
	ingredientsWritten *prometheus.CounterVec
	draftsPruned       prometheus.Counter
	jobRuns            *prometheus.CounterVec
}

// NewCollector creates a collector with a fresh registry. Go runtime and
// process collectors are registered alongside the service metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		recipesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_created_total",
			Help:      "Total number of recipes created",
		}),
		recipesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_deleted_total",
			Help:      "Total number of recipes deleted, including pruned drafts",
		}),
		ingredientsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingredients_written_total",
				Help:      "Total number of ingredient rows written by recipe updates",
			},
			[]string{"op"},
		),
		draftsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_pruned_total",
			Help:      "Total number of abandoned draft recipes pruned",
		}),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Total number of background job runs by outcome",
			},
			[]string{"job", "status"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.requestsTotal,
		c.requestDuration,
		c.recipesCreated,
		c.recipesDeleted,
		c.ingredientsWritten,
		c.draftsPruned,
		c.jobRuns,
	)
	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// ObserveRequest records one finished HTTP request. route is the matched
// mux pattern so label cardinality stays bounded.
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecipeCreated counts a new recipe
func (c *Collector) RecipeCreated() {
	c.recipesCreated.Inc()
}

// RecipeDeleted counts a deleted recipe
func (c *Collector) RecipeDeleted() {
	c.recipesDeleted.Inc()
}

// IngredientsWritten counts ingredient rows written with op "create" or "update"
func (c *Collector) IngredientsWritten(op string, n int) {
	if n <= 0 {
		return
	}
	c.ingredientsWritten.WithLabelValues(op).Add(float64(n))
}

// DraftsPruned counts pruned drafts
func (c *Collector) DraftsPruned(n int) {
	if n <= 0 {
		return
	}
	c.draftsPruned.Add(float64(n))
}

// JobRun counts a background job run; status is "success" or "error"
func (c *Collector) JobRun(job, status string) {
	c.jobRuns.WithLabelValues(job, status).Inc()
}
