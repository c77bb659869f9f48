package pipeline

// Default values for statement imports.
const (
	// DefaultFilename is used when an import has neither a filename nor a URI.
	DefaultFilename = "statement.csv"

	// MaxParseErrorsLogged caps how many row errors are echoed to the log per import.
	MaxParseErrorsLogged = 5
)
