package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPathsLayout(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "workbooks"), paths.WorkbooksDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "credentials.enc"), paths.CredentialsFile)
}

func TestPathHelpers(t *testing.T) {
	paths := &Paths{
		ExecutableDir: "/opt/benfordlens",
		DataDir:       "/opt/benfordlens/data",
		WorkbooksDir:  "/opt/benfordlens/data/workbooks",
		ReportsDir:    "/opt/benfordlens/data/reports",
		LogsDir:       "/opt/benfordlens/logs",
	}

	assert.Equal(t, "/opt/benfordlens/data/workbooks/je.xlsx", paths.GetWorkbookPath("je.xlsx"))
	assert.Equal(t, "/opt/benfordlens/data/reports/out.md", paths.GetReportPath("out.md"))
	assert.Equal(t, "/opt/benfordlens/logs/app.log", paths.GetLogPath("app.log"))
	assert.Equal(t, "/opt/benfordlens/web", paths.GetRelativePath("web"))
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := &Paths{
		ExecutableDir: base,
		DataDir:       filepath.Join(base, "data"),
		WorkbooksDir:  filepath.Join(base, "data", "workbooks"),
		ReportsDir:    filepath.Join(base, "data", "reports"),
		LogsDir:       filepath.Join(base, "logs"),
	}

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.WorkbooksDir, paths.ReportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, "directory %s", dir)
		assert.True(t, info.IsDir())
	}
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.txt")
	assert.False(t, FileExists(path))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.True(t, FileExists(path))
}
