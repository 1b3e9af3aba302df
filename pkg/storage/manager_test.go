package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystubdl/internal/testutil"
	errs "paystubdl/pkg/errors"
)

func TestNewManagerCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "statements", "nested")

	m, err := NewManager(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, m.OutputDir())
	assert.DirExists(t, dir)
}

func TestNewReaderCreatesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	m := NewReader(dir)
	assert.NoDirExists(t, dir)
	assert.False(t, m.Exists(m.StatementPath("2024", "2024-01-05")))

	files, err := m.StatementFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestEnsureYearDir(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	dir, err := m.EnsureYearDir("2024")
	require.NoError(t, err)
	assert.DirExists(t, dir)

	// second call is a no-op
	again, err := m.EnsureYearDir("2024")
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestStatementPath(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(m.OutputDir(), "2024", "2024-01-05.pdf"), m.StatementPath("2024", "2024-01-05"))
	assert.Equal(t, filepath.Join(m.OutputDir(), "2024", "2024-01-05-1.pdf"), m.StatementPath("2024", "2024-01-05-1"))
}

func TestExists(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	dir, err := m.EnsureYearDir("2024")
	require.NoError(t, err)

	file := filepath.Join(dir, "2024-01-05.pdf")
	assert.False(t, m.Exists(file))

	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.True(t, m.Exists(file))

	// a directory at the path is not a downloaded statement
	assert.False(t, m.Exists(dir))
}

func TestSave(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	dir, err := m.EnsureYearDir("2024")
	require.NoError(t, err)
	path := filepath.Join(dir, "2024-01-05.pdf")

	data := []byte("statement body")
	n, err := m.Save(bytes.NewReader(data), path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, content)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")
}

func TestSaveFailingReaderLeavesNoFile(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	dir, err := m.EnsureYearDir("2024")
	require.NoError(t, err)
	path := filepath.Join(dir, "2024-01-05.pdf")

	body := io.MultiReader(bytes.NewReader([]byte("%PDF-1.4 partial")), iotest.ErrReader(errors.New("connection reset")))
	_, err = m.Save(body, path)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork))

	assert.NoFileExists(t, path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// fullDisk accepts the temp file but fails every write like a full filesystem
type fullDisk struct {
	tempFile
}

func (fullDisk) Write(p []byte) (int, error) {
	return 0, syscall.ENOSPC
}

func TestSaveWriteFailureIsFilesystemError(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)
	m.createTemp = func(dir, pattern string) (tempFile, error) {
		f, err := createTempFile(dir, pattern)
		if err != nil {
			return nil, err
		}
		return fullDisk{f}, nil
	}

	dir, err := m.EnsureYearDir("2024")
	require.NoError(t, err)
	path := filepath.Join(dir, "2024-01-05.pdf")

	_, err = m.Save(bytes.NewReader(testutil.MinimalPDF(1)), path)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeFilesystem))
	assert.ErrorIs(t, err, syscall.ENOSPC)

	assert.NoFileExists(t, path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveValidatorRejects(t *testing.T) {
	m, err := NewManager(t.TempDir(), ValidatePDF)
	require.NoError(t, err)

	dir, err := m.EnsureYearDir("2024")
	require.NoError(t, err)
	path := filepath.Join(dir, "2024-01-05.pdf")

	_, err = m.Save(bytes.NewReader([]byte("<html>session expired</html>")), path)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))

	assert.NoFileExists(t, path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveValidatorAccepts(t *testing.T) {
	m, err := NewManager(t.TempDir(), ValidatePDF)
	require.NoError(t, err)

	dir, err := m.EnsureYearDir("2024")
	require.NoError(t, err)
	path := filepath.Join(dir, "2024-01-05.pdf")

	_, err = m.Save(bytes.NewReader(testutil.MinimalPDF(1)), path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestStatementFiles(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	for _, rel := range []string{
		"2024/2024-01-19.pdf",
		"2024/2024-01-05.pdf",
		"2023/2023-12-22.pdf",
		"2024/notes.txt",
		"misc/2024-01-05.pdf",
	} {
		full := filepath.Join(m.OutputDir(), rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0644))
	}

	files, err := m.StatementFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(m.OutputDir(), "2023", "2023-12-22.pdf"),
		filepath.Join(m.OutputDir(), "2024", "2024-01-05.pdf"),
		filepath.Join(m.OutputDir(), "2024", "2024-01-19.pdf"),
	}, files)
}

func TestVerify(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	dir, err := m.EnsureYearDir("2024")
	require.NoError(t, err)

	good := filepath.Join(dir, "2024-01-05.pdf")
	bad := filepath.Join(dir, "2024-01-19.pdf")
	require.NoError(t, os.WriteFile(good, testutil.MinimalPDF(2), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("<html>login</html>"), 0644))

	problems, total, err := m.Verify()
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, problems, 1)
	assert.Equal(t, bad, problems[0].Path)
	assert.Error(t, problems[0].Err)
}
