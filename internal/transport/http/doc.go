// Package http implements the HTTP request handlers for the BenfordLens
// web service. It provides a thin layer between HTTP transport and the
// analysis services, keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to HTTP responses
//	4. No business logic - job orchestration belongs in the service layer
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → AnalysisService
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Endpoints
//
// The handlers cover three route groups:
//
//	- /api/analysis: submit workbooks, poll jobs, download reports
//	- /api/health:   liveness, readiness, and version probes
//	- /api/stats:    runtime statistics as JSON
//
// # Error Handling
//
// All errors follow the RFC 7807 Problem Details specification:
//
//	{
//	    "type": "/errors/analysis/not-found",
//	    "title": "Analysis Not Found",
//	    "status": 404,
//	    "detail": "No analysis job exists with the given ID.",
//	    "instance": "/api/analysis#trace-..."
//	}
//
// # Testing
//
// Handlers are tested using httptest with a stub AnalysisService:
//
//	- Mock service dependencies via AnalysisServiceInterface
//	- Test upload and JSON submission paths
//	- Verify problem-details error responses
package http
