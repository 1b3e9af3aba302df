package portal

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// StatementsEndpoint lists pay statements relative to the portal origin
	StatementsEndpoint = "/v1_0/O/A/payStatements"

	// legacyPrefix is the path segment the index adds to document links
	// which the document host does not serve
	legacyPrefix = "/l2"
)

// IndexURL constructs the URL listing the last limit pay statements
func IndexURL(base string, limit int) string {
	params := url.Values{}
	params.Set("adjustments", "no")
	params.Set("numberoflastpaydates", fmt.Sprintf("%d", limit))

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(base, "/"), StatementsEndpoint, params.Encode())
}

// DocumentURL builds the absolute download URL for a statement href.
// Only the first occurrence of /l2 is removed.
func DocumentURL(base, href string) string {
	return strings.TrimRight(base, "/") + strings.Replace(href, legacyPrefix, "", 1)
}
