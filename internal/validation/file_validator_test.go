package validation

import (
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "benfordlens/internal/errors"
)

func newTestValidator() *FileValidator {
	return NewFileValidator(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestNewFileValidatorNilLogger(t *testing.T) {
	v := NewFileValidator(nil)
	assert.NotNil(t, v)
	assert.NotNil(t, v.logger)
}

func TestValidateInputDirectory(t *testing.T) {
	v := newTestValidator()

	t.Run("existing directory with matches", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "q1.xlsx"), []byte("x"), 0644))

		assert.NoError(t, v.ValidateInputDirectory(dir, "*.xlsx"))
	})

	t.Run("existing directory without matches is not an error", func(t *testing.T) {
		dir := t.TempDir()
		assert.NoError(t, v.ValidateInputDirectory(dir, "*.xlsx"))
	})

	t.Run("missing directory", func(t *testing.T) {
		err := v.ValidateInputDirectory(filepath.Join(t.TempDir(), "nope"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("path is a file", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "file.csv")
		require.NoError(t, os.WriteFile(file, []byte("a"), 0644))

		err := v.ValidateInputDirectory(file, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not a directory")
	})
}

func TestValidateOutputDirectory(t *testing.T) {
	v := newTestValidator()

	// Creates missing directories
	dir := filepath.Join(t.TempDir(), "reports", "nested")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Write probe is cleaned up
	_, err = os.Stat(filepath.Join(dir, ".write_test"))
	assert.True(t, os.IsNotExist(err))
}

func TestValidateFile(t *testing.T) {
	v := newTestValidator()
	dir := t.TempDir()

	path := filepath.Join(dir, "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("amount\n123\n"), 0644))

	assert.NoError(t, v.ValidateFile(path))

	err := v.ValidateFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	err = v.ValidateFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestCountFiles(t *testing.T) {
	v := newTestValidator()
	dir := t.TempDir()

	for _, name := range []string{"a.csv", "b.csv", "c.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub.csv"), 0755))

	count, err := v.CountFiles(dir, "*.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "directories matching the pattern are not counted")
}

func TestValidateWorkbookFile(t *testing.T) {
	v := newTestValidator()
	dir := t.TempDir()

	writeFile := func(name string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
		return path
	}

	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{name: "xlsx workbook", filename: "q1.xlsx"},
		{name: "xlsm workbook", filename: "macro.xlsm"},
		{name: "csv workbook", filename: "export.csv"},
		{name: "uppercase extension", filename: "Q2.XLSX"},
		{name: "unsupported extension", filename: "report.pdf", wantErr: true},
		{name: "legacy xls", filename: "old.xls", wantErr: true},
		{name: "excel lock file", filename: "~$q1.xlsx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(tt.filename)
			err := v.ValidateWorkbookFile(path)
			if tt.wantErr {
				require.Error(t, err)
				var appErr *apperrors.AppError
				require.True(t, stderrors.As(err, &appErr))
				assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// Missing file fails before format checks
	err := v.ValidateWorkbookFile(filepath.Join(dir, "ghost.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
