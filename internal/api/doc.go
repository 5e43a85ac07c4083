// Package api hosts the read-only HTTP interface over crawled projects.
// Notable routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/projects, /v1/projects/{project_id} and
//     /v1/projects/{project_id}/files for the navigation tree.
//   - GET /v1/projects/{project_id}/search?q=&k= for paragraph search.
//   - GET /v1/translations?resource_id=&language= for one enriched page.
package api
