package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		limit    int
		expected string
	}{
		{
			name:     "default limit",
			base:     "https://my.adp.com",
			limit:    200,
			expected: "https://my.adp.com/v1_0/O/A/payStatements?adjustments=no&numberoflastpaydates=200",
		},
		{
			name:     "trailing slash on base",
			base:     "https://my.adp.com/",
			limit:    5,
			expected: "https://my.adp.com/v1_0/O/A/payStatements?adjustments=no&numberoflastpaydates=5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IndexURL(tt.base, tt.limit))
		})
	}
}

func TestDocumentURL(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{
			name:     "strips l2 prefix",
			href:     "/l2/documents/abc",
			expected: "https://my.adp.com/documents/abc",
		},
		{
			name:     "only first occurrence removed",
			href:     "/l2/v1_0/O/A/payStatement/l2/123",
			expected: "https://my.adp.com/v1_0/O/A/payStatement/l2/123",
		},
		{
			name:     "no prefix",
			href:     "/documents/abc",
			expected: "https://my.adp.com/documents/abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DocumentURL("https://my.adp.com", tt.href))
		})
	}
}
