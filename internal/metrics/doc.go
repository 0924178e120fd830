// Package metrics exposes the service's Prometheus metrics.
//
// A Collector owns its own registry, so tests can create as many as they
// like without colliding on the global default registry:
//
//	collector := metrics.NewCollector()
//	mux.Handle("GET /metrics", collector.Handler())
//
// Metrics:
//   - recipebook_http_requests_total{method,route,status}
//   - recipebook_http_request_duration_seconds{method,route}
//   - recipebook_recipes_created_total
//   - recipebook_recipes_deleted_total
//   - recipebook_ingredients_written_total{op}
//   - recipebook_drafts_pruned_total
//   - recipebook_job_runs_total{job,status}
package metrics
