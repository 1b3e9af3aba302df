package paystubs

import (
	"fmt"
	"iter"
	"strings"

	"paystubdl/pkg/config"
	errs "paystubdl/pkg/errors"
	"paystubdl/pkg/portal"
)

// Target is the download plan for one pay statement
type Target struct {
	// Index is the statement's position in the portal index
	Index   int
	PayDate string
	Year    string
	// Name is the file name without extension, including any duplicate suffix
	Name     string
	Path     string
	URL      string
	Filtered bool
}

// Targets lazily plans each statement in index order. Statements outside
// the selected year are yielded with Filtered set and do not take part in
// duplicate naming. A malformed record yields a parsing error.
func (r *Retriever) Targets(statements []portal.PayStatement) iter.Seq2[Target, error] {
	return func(yield func(Target, error) bool) {
		seen := make(map[string]int)

		for i, s := range statements {
			year, err := statementYear(s.PayDate)
			if err != nil {
				yield(Target{Index: i, PayDate: s.PayDate}, err)
				return
			}

			t := Target{
				Index:   i,
				PayDate: s.PayDate,
				Year:    year,
			}

			if !r.selected(year) {
				t.Filtered = true
				if !yield(t, nil) {
					return
				}
				continue
			}

			if s.StatementImageURI.Href == "" {
				yield(t, errs.New(errs.ErrorTypeParsing, fmt.Sprintf("statement %s has no document href", s.PayDate)))
				return
			}

			t.Name = uniqueName(seen, s.PayDate)
			t.Path = r.storage.StatementPath(year, t.Name)
			t.URL = r.client.DocumentURL(s.StatementImageURI.Href)

			if !yield(t, nil) {
				return
			}
		}
	}
}

// uniqueName returns payDate for its first occurrence and payDate-k for
// the k-th repeat
func uniqueName(seen map[string]int, payDate string) string {
	n := seen[payDate]
	seen[payDate] = n + 1
	if n == 0 {
		return payDate
	}
	return fmt.Sprintf("%s-%d", payDate, n)
}

func (r *Retriever) selected(year string) bool {
	return r.opts.OnlyYear == "" || strings.EqualFold(r.opts.OnlyYear, config.AllYears) || r.opts.OnlyYear == year
}

// statementYear takes the pay date prefix before the first dash. The
// prefix names a directory, so anything but four digits is rejected.
func statementYear(payDate string) (string, error) {
	year, _, _ := strings.Cut(payDate, "-")
	if len(year) != 4 || strings.ContainsAny(payDate, `/\`) || strings.Contains(payDate, "..") {
		return "", errs.New(errs.ErrorTypeParsing, fmt.Sprintf("invalid pay date %q", payDate))
	}
	for _, c := range year {
		if c < '0' || c > '9' {
			return "", errs.New(errs.ErrorTypeParsing, fmt.Sprintf("invalid pay date %q", payDate))
		}
	}
	return year, nil
}
