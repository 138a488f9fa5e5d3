// Package http serves the read-only status API that runs beside a batch:
// liveness, Prometheus metrics, checkpoint state per work list and the
// attempt ledger. Handlers stay thin; state comes from the operations
// runner and the ledger through the interfaces in service_interface.go.
//
// Routes:
//
//	GET /healthz
//	GET /metrics
//	GET /api/v1/jobs
//	GET /api/v1/jobs/{name}/attempts?limit=N
package http
