package pipeline

import (
	"time"

	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/dvloznov/bill-reconciler/internal/nonbill"
	"github.com/dvloznov/bill-reconciler/internal/statement"
)

// ReconcileRequest describes one statement to reconcile. Either RawText or
// SourceURI must be set; RawText wins when both are.
type ReconcileRequest struct {
	ImportID  string
	SourceURI string
	Filename  string
	RawText   string
	DryRun    bool
}

// Summary counts the outcome of a reconciliation.
type Summary struct {
	Transactions      int `json:"transactions"`
	SkippedDuplicates int `json:"skipped_duplicates"`
	ParseErrors       int `json:"parse_errors"`
	BillsConsidered   int `json:"bills_considered"`
	AutoConfirmed     int `json:"auto_confirmed"`
	NeedsReview       int `json:"needs_review"`
	NoMatch           int `json:"no_match"`
	NotBills          int `json:"not_bills"`
}

// Report is everything a reviewer needs after reconciling one statement.
// Results and Hashes are index-aligned.
type Report struct {
	ImportID   string                    `json:"import_id"`
	Source     string                    `json:"source"`
	DryRun     bool                      `json:"dry_run"`
	Parse      statement.ParseResult     `json:"parse"`
	NonBill    nonbill.Split             `json:"non_bill"`
	Results    []domain.MatchResult      `json:"results"`
	Hashes     []string                  `json:"hashes"`
	Buckets    domain.CategorizedResults `json:"buckets"`
	Summary    Summary                   `json:"summary"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
}
