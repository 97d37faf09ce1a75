package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for file paths in the application.
type Paths struct {
	ExecutableDir string
	DataDir       string
	WorkbooksDir  string
	ReportsDir    string
	LogsDir       string

	// Encrypted Google Sheets service-account credentials
	CredentialsFile string
}

// GetPaths returns the application paths relative to the executable
// location. Paths resolve against the executable directory, never the
// current working directory, so runs behave the same from any shell.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	exeDir := filepath.Dir(exe)

	// Directory structure:
	// <exe dir>/
	//   ├── credentials.enc     (encrypted Sheets credentials, optional)
	//   ├── data/
	//   │   ├── workbooks/      (input workbooks to analyze)
	//   │   └── reports/        (generated reports and exports)
	//   └── logs/               (application logs)

	dataDir := filepath.Join(exeDir, "data")

	paths := &Paths{
		ExecutableDir:   exeDir,
		DataDir:         dataDir,
		WorkbooksDir:    filepath.Join(dataDir, "workbooks"),
		ReportsDir:      filepath.Join(dataDir, "reports"),
		LogsDir:         filepath.Join(exeDir, "logs"),
		CredentialsFile: filepath.Join(exeDir, "credentials.enc"),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.WorkbooksDir,
		p.ReportsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetWorkbookPath returns the path for an input workbook file
func (p *Paths) GetWorkbookPath(filename string) string {
	return filepath.Join(p.WorkbooksDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCredentialsPath returns the path for the encrypted Google Sheets
// credentials file
func (p *Paths) GetCredentialsPath() string {
	path := p.CredentialsFile
	logger := slog.Default()
	if logger != nil {
		logger.Debug("Credentials path resolved",
			slog.String("path", path),
			slog.Bool("exists", FileExists(path)))
	}
	return path
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("workbooks", p.WorkbooksDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("config_files",
			slog.String("credentials", p.CredentialsFile),
		))
}
