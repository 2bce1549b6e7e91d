// Package services implements the business logic layer of shipdash. It sits
// between the HTTP handlers and the analytics package and owns the loaded
// price snapshot.
//
// # Services
//
//	- DashboardService: derives the entity list, trend lines, correlation
//	  heatmap, per-company prediction and the predictions overview, and
//	  writes CSV/XLSX exports of them
//	- HealthService: liveness, readiness (is the snapshot loaded) and version
//
// # Concurrency
//
// The snapshot is never mutated after construction, so every view is a pure
// function of it and requests run without locking. The predictions overview
// fans out one goroutine per company through an errgroup.
//
// # Errors
//
// Services return sentinel errors wrapped with context; handlers map them to
// RFC 7807 responses:
//
//	- ErrEntityNotFound for a company that is not in the snapshot
//	- analytics.ErrNoHistory for a company that only has predicted rows
//	- ErrInvalidAlignment, ErrUnknownView, ErrInvalidFormat and
//	  ErrInvalidInput for bad query values
//
// # Telemetry
//
// A DerivationTracer opens one span per derived view and records the
// dashboard_derivations_total and dashboard_derivation_duration_seconds
// metrics. A nil tracer disables instrumentation.
package services
