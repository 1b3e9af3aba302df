package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystubdl/internal/testutil"
	errs "paystubdl/pkg/errors"
)

func TestValidatePDF(t *testing.T) {
	valid := testutil.MinimalPDF(1)

	tests := []struct {
		name    string
		content []byte
		wantErr bool
	}{
		{name: "single page", content: valid},
		{name: "three pages", content: testutil.MinimalPDF(3)},
		{name: "html login page", content: []byte("<!DOCTYPE html><html><body>Sign in</body></html>"), wantErr: true},
		{name: "empty file", content: []byte{}, wantErr: true},
		{name: "truncated", content: valid[:len(valid)/2], wantErr: true},
		{name: "no pages", content: testutil.MinimalPDF(0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "statement.pdf")
			require.NoError(t, os.WriteFile(path, tt.content, 0644))

			err := ValidatePDF(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePDFMissingFile(t *testing.T) {
	err := ValidatePDF(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
