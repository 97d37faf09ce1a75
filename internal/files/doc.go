// Package files provides file system operations and discovery utilities
// for workbook inputs and generated report artifacts.
//
// This package contains two main components:
//
// Discovery: Finds analyzable workbooks (xlsx, xlsm, csv) and generated
// report artifacts, and groups artifacts by the analysis run that
// produced them. It also includes utilities for filtering files by date
// range and finding the latest file.
//
// Manager: Provides basic file management operations such as copying,
// moving, deleting files, and ensuring directories exist. All operations
// are relative to the configured data directories to maintain
// portability.
//
// Example usage:
//
//	// Create a discovery instance
//	discovery := files.NewDiscovery("/path/to/base")
//
//	// Find all workbooks awaiting analysis
//	workbooks, err := discovery.FindWorkbookFiles("workbooks")
//
//	// Create a manager instance
//	manager := files.NewManager(paths)
//
//	// Check if a report exists
//	if manager.FileExists("reports/benford_report_q1_20250714_103000.md") {
//	    // Serve file
//	}
package files
