// Package backend provides the Loomline API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Session token codec and authentication service
// - internal/middleware: HTTP middleware (auth filter, rate limiting, metrics)
// - internal/feed: Viewer-personalized thread enrichment
// - internal/repository: Query-shape-sensitive storage access
// - internal/scheduler: Scheduled thread publication job
// - internal/database: Database connection and migrations
// - internal/cache: Redis client for rate limiting and counters
// - internal/metrics: Prometheus instrumentation
// - internal/telemetry: OpenTelemetry tracing setup
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package backend
