package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// BillRow is one open bill joined with its vendor and property.
type BillRow struct {
	BillID           string              `bigquery:"bill_id"`
	Description      bigquery.NullString `bigquery:"description"`
	Amount           *big.Rat            `bigquery:"amount"` // NUMERIC, always positive
	DueDate          civil.Date          `bigquery:"due_date"`
	Status           string              `bigquery:"status"`
	PaymentMethod    bigquery.NullString `bigquery:"payment_method"`
	PaymentDate      bigquery.NullDate   `bigquery:"payment_date"`
	PaymentReference bigquery.NullString `bigquery:"payment_reference"`
	VendorID         bigquery.NullString `bigquery:"vendor_id"`
	PropertyID       bigquery.NullString `bigquery:"property_id"`
	VendorName       bigquery.NullString `bigquery:"vendor_name"`
	VendorCompany    bigquery.NullString `bigquery:"vendor_company"`
	PropertyName     bigquery.NullString `bigquery:"property_name"`
}

// StatementImportRow records one reconciliation run over a statement file.
type StatementImportRow struct {
	ImportID       string              `bigquery:"import_id"`
	SourceURI      bigquery.NullString `bigquery:"source_uri"`
	SourceFilename string              `bigquery:"source_filename"`
	AccountType    bigquery.NullString `bigquery:"account_type"`
	DateRangeStart bigquery.NullDate   `bigquery:"date_range_start"`
	DateRangeEnd   bigquery.NullDate   `bigquery:"date_range_end"`

	TransactionCount  int64 `bigquery:"transaction_count"`
	SkippedDuplicates int64 `bigquery:"skipped_duplicates"`
	ParseErrorCount   int64 `bigquery:"parse_error_count"`
	AutoConfirmed     int64 `bigquery:"auto_confirmed_count"`
	NeedsReview       int64 `bigquery:"needs_review_count"`
	NoMatch           int64 `bigquery:"no_match_count"`
	NotBills          int64 `bigquery:"not_bills_count"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// ImportedTransactionRow is one processed statement line, keyed by its
// fingerprint so later imports can skip it.
type ImportedTransactionRow struct {
	ImportID        string     `bigquery:"import_id"`
	TransactionHash string     `bigquery:"transaction_hash"`
	TransactionDate civil.Date `bigquery:"transaction_date"`
	Description     string     `bigquery:"description"`
	Amount          *big.Rat   `bigquery:"amount"`
	Category        string     `bigquery:"category"`
	Bucket          string     `bigquery:"bucket"`

	BestBillID      bigquery.NullString  `bigquery:"best_bill_id"`
	BestConfidence  bigquery.NullFloat64 `bigquery:"best_confidence"`
	BestMatchMethod bigquery.NullString  `bigquery:"best_match_method"`

	CreatedTS time.Time `bigquery:"created_ts"`
}
