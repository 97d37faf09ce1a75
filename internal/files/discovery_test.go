package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscovery(t *testing.T) {
	basePath := "/test/base"
	discovery := NewDiscovery(basePath)

	assert.NotNil(t, discovery)
	assert.Equal(t, basePath, discovery.basePath)
}

func TestFindWorkbookFiles(t *testing.T) {
	tests := []struct {
		name          string
		files         []string
		expectedCount int
		description   string
	}{
		{
			name:          "all workbook formats",
			files:         []string{"q1.xlsx", "macro.xlsm", "trial_balance.csv"},
			expectedCount: 3,
			description:   "Should find xlsx, xlsm and csv workbooks",
		},
		{
			name:          "case insensitive extensions",
			files:         []string{"Q1.XLSX", "Macro.XlsM", "Data.CSV"},
			expectedCount: 3,
			description:   "Should match extensions regardless of case",
		},
		{
			name:          "mixed file types",
			files:         []string{"ledger.xlsx", "notes.txt", "doc.pdf", "export.csv"},
			expectedCount: 2,
			description:   "Should skip non-workbook files",
		},
		{
			name:          "excel lock files skipped",
			files:         []string{"~$ledger.xlsx", "ledger.xlsx"},
			expectedCount: 1,
			description:   "Should skip Excel lock files",
		},
		{
			name:          "legacy xls not supported",
			files:         []string{"old.xls"},
			expectedCount: 0,
			description:   "Legacy xls workbooks are not analyzable",
		},
		{
			name:          "empty directory",
			files:         []string{},
			expectedCount: 0,
			description:   "Should handle empty directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			discovery := NewDiscovery(tmpDir)

			testDir := "workbooks"
			fullTestDir := filepath.Join(tmpDir, testDir)
			require.NoError(t, os.MkdirAll(fullTestDir, 0755))

			// Create test files with different modification times
			for i, filename := range tt.files {
				filePath := filepath.Join(fullTestDir, filename)
				require.NoError(t, os.WriteFile(filePath, []byte("test content"), 0644))

				modTime := time.Now().Add(time.Duration(i) * time.Minute)
				require.NoError(t, os.Chtimes(filePath, modTime, modTime))
			}

			found, err := discovery.FindWorkbookFiles(testDir)
			assert.NoError(t, err, tt.description)
			assert.Equal(t, tt.expectedCount, len(found), tt.description)

			// Verify files are sorted by modification time (oldest first)
			for i := 1; i < len(found); i++ {
				assert.True(t, !found[i].ModTime.Before(found[i-1].ModTime),
					"Files should be sorted by modification time")
			}

			for _, file := range found {
				assert.NotEmpty(t, file.Name)
				assert.NotEmpty(t, file.Path)
				assert.False(t, file.IsDir)
				assert.Greater(t, file.Size, int64(0))
			}
		})
	}
}

func TestFindWorkbookFilesMissingDirectory(t *testing.T) {
	discovery := NewDiscovery(t.TempDir())
	_, err := discovery.FindWorkbookFiles("does-not-exist")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read directory")
}

func TestFindWorkbookFilesAbsoluteDir(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "abs.xlsx"), []byte("x"), 0644))

	// Base path is irrelevant for absolute directories
	discovery := NewDiscovery("/unrelated/base")
	found, err := discovery.FindWorkbookFiles(tmpDir)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "abs.xlsx", found[0].Name)
}

func TestFindCSVFiles(t *testing.T) {
	tmpDir := t.TempDir()
	discovery := NewDiscovery(tmpDir)

	for _, name := range []string{"detail.csv", "summary.CSV", "book.xlsx", "readme.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte("a,b"), 0644))
	}

	found, err := discovery.FindCSVFiles(".")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestFindFilesByPattern(t *testing.T) {
	tmpDir := t.TempDir()
	discovery := NewDiscovery(tmpDir)

	for _, name := range []string{"benford_detail_q1.csv", "benford_summary_q1.csv", "other.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte("a,b"), 0644))
	}

	found, err := discovery.FindFilesByPattern(".", "benford_*.csv")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = discovery.FindFilesByPattern(".", "[invalid")
	assert.Error(t, err)
}

func TestFindReportRuns(t *testing.T) {
	tmpDir := t.TempDir()
	discovery := NewDiscovery(tmpDir)

	artifacts := []string{
		"benford_report_q1_20250714_103000.md",
		"benford_report_q1_20250714_103000.xlsx",
		"benford_detail_q1_20250714_103000.csv",
		"benford_result_q1_20250714_103000.json",
		"benford_report_q2_20250801_090000.md",
		"unrelated.txt",
		"benford_report_missing_stamp.md",
	}
	for _, name := range artifacts {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte("data"), 0644))
	}

	runs, err := discovery.FindReportRuns(".")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Len(t, runs["20250714_103000"], 4)
	assert.Len(t, runs["20250801_090000"], 1)
}

func TestListDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	discovery := NewDiscovery(tmpDir)

	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "workbooks"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "reports"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "stray.csv"), []byte("a"), 0644))

	dirs, err := discovery.ListDirectories(".")
	require.NoError(t, err)
	assert.Len(t, dirs, 2)
	for _, dir := range dirs {
		assert.True(t, dir.IsDir)
	}
}

func TestGetLatestFile(t *testing.T) {
	now := time.Now()
	files := []FileInfo{
		{Name: "old.xlsx", ModTime: now.Add(-2 * time.Hour)},
		{Name: "newest.xlsx", ModTime: now},
		{Name: "middle.xlsx", ModTime: now.Add(-time.Hour)},
	}

	latest, ok := GetLatestFile(files)
	require.True(t, ok)
	assert.Equal(t, "newest.xlsx", latest.Name)

	_, ok = GetLatestFile(nil)
	assert.False(t, ok)
}

func TestFilterFilesByDateRange(t *testing.T) {
	now := time.Now()
	files := []FileInfo{
		{Name: "too_old.csv", ModTime: now.Add(-48 * time.Hour)},
		{Name: "in_range.csv", ModTime: now.Add(-12 * time.Hour)},
		{Name: "too_new.csv", ModTime: now.Add(12 * time.Hour)},
	}

	filtered := FilterFilesByDateRange(files, now.Add(-24*time.Hour), now)
	require.Len(t, filtered, 1)
	assert.Equal(t, "in_range.csv", filtered[0].Name)
}
