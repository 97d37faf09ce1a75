// Package config provides centralized configuration management for the
// BenfordLens system. It handles loading configuration from multiple
// sources, validation, and a type-safe API for accessing configuration
// values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of
// precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern BENFORD_* for
// namespacing:
//
//	BENFORD_SERVER_PORT=8080
//	BENFORD_LOGGING_LEVEL=info
//	BENFORD_ANALYSIS_TOP_N=10
//	BENFORD_ANALYSIS_MAX_CONCURRENCY=4
//	BENFORD_REPORTS_FORMATS=markdown,excel
//
// # Path Management
//
// The package provides centralized path management through the Paths
// type, which handles all file system paths relative to the executable
// location:
//
//	paths, err := config.GetPaths()
//	workbookPath := paths.GetWorkbookPath("je_samples.xlsx")
//	reportPath := paths.GetReportPath("benford_report.md")
//
// # Validation
//
// All configuration is validated at load time to ensure values are
// within acceptable ranges, report formats are known, and required
// directories can be created.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    slog.Error("failed to load config", "error", err)
//	    os.Exit(1)
//	}
package config
