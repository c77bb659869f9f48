package statement

import "fmt"

// ErrorCode identifies why a statement file was rejected as a whole.
type ErrorCode string

const (
	ErrEmptyFile            ErrorCode = "EMPTY_FILE"
	ErrTooFewLines          ErrorCode = "TOO_FEW_LINES"
	ErrNoTransactionColumns ErrorCode = "NO_TRANSACTION_COLUMNS"
)

// ValidationError is a file-level rejection. Row-level problems never
// produce one.
type ValidationError struct {
	Code    ErrorCode
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}
