package config

import "time"

// Application constants for the BenfordLens analysis system
const (
	// Application Info
	AppName    = "BenfordLens"
	AppVersion = "1.0.0"

	// File Paths (relative to executable)
	DefaultDataDir      = "data"
	DefaultLogsDir      = "logs"
	DefaultWorkbooksDir = "data/workbooks"
	DefaultReportsDir   = "data/reports"

	// Analysis Defaults
	DefaultTopN            = 10
	DefaultMaxConcurrency  = 4
	DefaultAnalysisTimeout = 30 * time.Second
	DefaultJobTTL          = time.Hour

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	SheetsFetchTimeout  = 45 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// Upload Limits
	DefaultMaxUploadBytes = 50 << 20 // 50MB workbooks

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	MaxLogFileSize   = 100 * 1024 * 1024 // 100MB
	MaxLogFileAge    = 30                // days

	// Workbook Discovery
	WorkbookPattern = `(?i)\.(xlsx|xlsm|csv)$`

	// API Endpoints (internal)
	APIBasePath      = "/api"
	AnalysisEndpoint = "/api/analysis"
	HealthEndpoint   = "/api/health"
	MetricsEndpoint  = "/metrics"

	// WebSocket Endpoints
	WebSocketEndpoint = "/ws"
)

// Error Messages
const (
	ErrMsgUnsupportedInput = "Unsupported input format. Provide an .xlsx, .xlsm, or .csv workbook."
	ErrMsgNoInput          = "No input provided. Upload a workbook file or supply a sheets_id."
	ErrMsgJobNotFound      = "Analysis job not found or expired."
)
