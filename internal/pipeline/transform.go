package pipeline

import (
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/bill-reconciler/internal/matcher"
	infra "github.com/dvloznov/bill-reconciler/internal/infra/bigquery"
)

// buildImportRows maps a finished reconciliation onto the ledger tables.
func buildImportRows(state *PipelineState, now time.Time) (*infra.StatementImportRow, []*infra.ImportedTransactionRow) {
	summary := summarize(state)

	row := &infra.StatementImportRow{
		ImportID:          state.Request.ImportID,
		SourceURI:         bigquery.NullString{StringVal: state.Request.SourceURI, Valid: state.Request.SourceURI != ""},
		SourceFilename:    sourceFilename(state.Request),
		TransactionCount:  int64(summary.Transactions),
		SkippedDuplicates: int64(summary.SkippedDuplicates),
		ParseErrorCount:   int64(summary.ParseErrors),
		AutoConfirmed:     int64(summary.AutoConfirmed),
		NeedsReview:       int64(summary.NeedsReview),
		NoMatch:           int64(summary.NoMatch),
		NotBills:          int64(summary.NotBills),
		CreatedTS:         now,
	}
	if at := state.Parsed.AccountType; at != nil {
		row.AccountType = bigquery.NullString{StringVal: string(*at), Valid: true}
	}
	if d := state.Parsed.DateRangeStart; d != nil {
		row.DateRangeStart = bigquery.NullDate{Date: *d, Valid: true}
	}
	if d := state.Parsed.DateRangeEnd; d != nil {
		row.DateRangeEnd = bigquery.NullDate{Date: *d, Valid: true}
	}

	txRows := make([]*infra.ImportedTransactionRow, 0, len(state.Results))
	for i, r := range state.Results {
		tx := r.Transaction
		txRow := &infra.ImportedTransactionRow{
			ImportID:        state.Request.ImportID,
			TransactionHash: state.Hashes[i],
			TransactionDate: tx.Date,
			Description:     tx.Description,
			Amount:          tx.Amount.Rat(),
			Category:        string(tx.Category),
			Bucket:          string(matcher.BucketOf(r)),
			CreatedTS:       now,
		}
		if best := r.BestMatch; best != nil {
			txRow.BestBillID = bigquery.NullString{StringVal: best.Bill.ID, Valid: true}
			txRow.BestConfidence = bigquery.NullFloat64{Float64: best.Confidence, Valid: true}
			txRow.BestMatchMethod = bigquery.NullString{StringVal: string(best.MatchMethod), Valid: true}
		}
		txRows = append(txRows, txRow)
	}

	return row, txRows
}

func summarize(state *PipelineState) Summary {
	return Summary{
		Transactions:      len(state.Parsed.Transactions),
		SkippedDuplicates: state.Skipped,
		ParseErrors:       len(state.Parsed.Errors),
		BillsConsidered:   len(state.Bills),
		AutoConfirmed:     len(state.Buckets.AutoConfirmed),
		NeedsReview:       len(state.Buckets.NeedsReview),
		NoMatch:           len(state.Buckets.NoMatch),
		NotBills:          len(state.Buckets.NotBills),
	}
}

func sourceFilename(req ReconcileRequest) string {
	if req.Filename != "" {
		return req.Filename
	}
	return DefaultFilename
}
