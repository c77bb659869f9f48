package statement

import (
	"regexp"
	"strings"
)

const validateScanLines = 10

var datePattern = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)

// ValidationResult reports whether raw text looks like a statement export.
type ValidationResult struct {
	Valid bool      `json:"valid"`
	Code  ErrorCode `json:"code,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Err returns the rejection as a *ValidationError, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Code: r.Code, Message: r.Error}
}

func invalid(code ErrorCode, msg string) ValidationResult {
	return ValidationResult{Code: code, Error: msg}
}

// Validate is a cheap pre-check run before Parse. It requires at least two
// lines and, within the first ten, both a header naming the date, description
// and amount columns and a line carrying an M/D/YYYY date.
func Validate(raw string) ValidationResult {
	if strings.TrimSpace(raw) == "" {
		return invalid(ErrEmptyFile, "File is empty")
	}

	lines := splitLines(raw)
	if len(lines) < 2 {
		return invalid(ErrTooFewLines, "File must contain a header and at least one transaction")
	}

	var hasHeader, hasDate bool
	for i := 0; i < len(lines) && i < validateScanLines; i++ {
		if isHeaderLine(lines[i]) {
			hasHeader = true
		}
		if datePattern.MatchString(lines[i]) {
			hasDate = true
		}
	}

	if !hasHeader || !hasDate {
		return invalid(ErrNoTransactionColumns, "Could not find date, description and amount columns in the first 10 lines")
	}

	return ValidationResult{Valid: true}
}
