package storage

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	errs "paystubdl/pkg/errors"
)

// ValidatePDF checks that path parses as a PDF with at least one page.
// A truncated download fails here because the trailer is missing.
func ValidatePDF(path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.New(errs.ErrorTypeParsing, fmt.Sprintf("PDF library crashed on %s: %v", path, r))
		}
	}()

	f, r, openErr := pdf.Open(path)
	if openErr != nil {
		if f != nil {
			f.Close()
		}
		return errs.Wrap(errs.ErrorTypeParsing, openErr, "not a readable PDF")
	}
	defer f.Close()

	if r.NumPage() == 0 {
		return errs.New(errs.ErrorTypeParsing, "PDF has no pages")
	}

	return nil
}
