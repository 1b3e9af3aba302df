package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	errs "paystubdl/pkg/errors"
)

// Validator checks a fully written temp file before it is moved into place
type Validator func(path string) error

// Manager owns the on-disk statement layout: one directory per year under
// the output directory, one PDF per statement. File presence is the only
// record of what has been downloaded.
type Manager struct {
	outputDir  string
	validate   Validator
	createTemp func(dir, pattern string) (tempFile, error)
}

// tempFile is the part of *os.File that Save writes through
type tempFile interface {
	io.WriteCloser
	Name() string
}

func createTempFile(dir, pattern string) (tempFile, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// NewManager creates a new storage manager rooted at outputDir.
// validate may be nil to accept any body.
func NewManager(outputDir string, validate Validator) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create output directory")
	}

	return &Manager{
		outputDir:  outputDir,
		validate:   validate,
		createTemp: createTempFile,
	}, nil
}

// NewReader returns a Manager for inspecting an existing tree. Nothing is
// created on disk and Save accepts any body.
func NewReader(outputDir string) *Manager {
	return &Manager{outputDir: outputDir, createTemp: createTempFile}
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// EnsureYearDir creates the directory for year if needed and returns its path
func (m *Manager) EnsureYearDir(year string) (string, error) {
	dir := filepath.Join(m.outputDir, year)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errs.Wrap(errs.ErrorTypeFilesystem, err, fmt.Sprintf("failed to create year directory %s", dir))
	}
	return dir, nil
}

// StatementPath returns the destination of a statement file inside year
func (m *Manager) StatementPath(year, name string) string {
	return filepath.Join(m.outputDir, year, name+".pdf")
}

// Exists reports whether a regular file is present at path
func (m *Manager) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Save streams r into path. The body lands in a temp file in the same
// directory first and is renamed into place only once it is complete and
// has passed validation, so path never holds a partial statement.
func (m *Manager) Save(r io.Reader, path string) (int64, error) {
	dir := filepath.Dir(path)

	out, err := m.createTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create temporary file")
	}
	tempFile := out.Name()

	w := &fileWriter{f: out}
	n, err := io.Copy(w, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		if w.err != nil {
			return n, errs.Wrap(errs.ErrorTypeFilesystem, w.err, "failed to write statement data")
		}
		return n, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read statement data")
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.ErrorTypeFilesystem, closeErr, "failed to close file")
	}

	if m.validate != nil {
		if err := m.validate(tempFile); err != nil {
			os.Remove(tempFile)
			return n, err
		}
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to set file mode")
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to rename temporary file")
	}

	return n, nil
}

// fileWriter remembers write failures so Save can tell a failing disk
// from a failing download
type fileWriter struct {
	f   io.Writer
	err error
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil && w.err == nil {
		w.err = err
	}
	return n, err
}

// StatementFiles lists every <year>/*.pdf under the output directory, sorted
func (m *Manager) StatementFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(m.outputDir, "*", "*.pdf"))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to scan output directory")
	}

	var statements []string
	for _, f := range files {
		if isYearDir(filepath.Base(filepath.Dir(f))) && m.Exists(f) {
			statements = append(statements, f)
		}
	}
	sort.Strings(statements)

	return statements, nil
}

// VerifyResult is the outcome of checking one stored statement
type VerifyResult struct {
	Path string
	Err  error
}

// Verify runs ValidatePDF over every stored statement and returns the
// files that failed
func (m *Manager) Verify() ([]VerifyResult, int, error) {
	files, err := m.StatementFiles()
	if err != nil {
		return nil, 0, err
	}

	var bad []VerifyResult
	for _, f := range files {
		if err := ValidatePDF(f); err != nil {
			bad = append(bad, VerifyResult{Path: f, Err: err})
		}
	}

	return bad, len(files), nil
}

func isYearDir(name string) bool {
	if len(name) != 4 {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
