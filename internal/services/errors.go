package services

import "errors"

// Analysis service errors. Job lifecycle sentinels that the HTTP layer
// maps onto problem details (not found, still running, invalid workbook)
// live in internal/errors; the sentinels here cover conditions that stay
// inside the service layer.
var (
	// Report errors
	ErrReportNotFound = errors.New("no report rendered for requested format")

	// Job store errors
	ErrServiceClosed = errors.New("analysis service is shut down")

	// Source errors
	ErrNoSource = errors.New("no workbook source provided")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
