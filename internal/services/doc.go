// Package services implements the business logic layer of BenfordLens.
// It provides a clean separation between HTTP handlers and the analysis
// engine, ensuring that job orchestration rules are centralized and
// testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Context propagation for cancellation and tracing
//	2. Dependency injection for loose coupling
//	3. Domain-focused methods that encapsulate job lifecycle rules
//	4. Snapshot semantics: callers never see store-owned state
//
// # Service Layer Responsibilities
//
// The service layer is responsible for:
//
//	- Job lifecycle management and state transitions
//	- Workbook ingestion (uploads, local paths, Google Sheets)
//	- Driving the analyzer and fanning progress out to WebSocket clients
//	- Report rendering and CSV/JSON export coordination
//	- Cross-cutting concerns (logging, metrics)
//	- Error handling and transformation
//
// # Available Services
//
// The package provides these core services:
//
//	- AnalysisService: Owns the asynchronous analysis job store
//	- HealthService: Provides system health and readiness checks
//
// # Error Handling
//
// Services return sentinel errors that handlers transform into RFC 7807
// problem details:
//
//	- apierrors.ErrJobNotFound for missing jobs
//	- apierrors.ErrJobRunning for reports requested too early
//	- apierrors.ErrInvalidWorkbook for unreadable input
//	- ErrReportNotFound for formats a job never rendered
//
// # Testing
//
// Services are tested against real temporary directories and an
// in-process hub; only the Google Sheets transport is stubbed.
package services
