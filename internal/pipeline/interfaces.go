package pipeline

import (
	"context"

	"github.com/dvloznov/bill-reconciler/internal/domain"
	infra "github.com/dvloznov/bill-reconciler/internal/infra/bigquery"
)

// StorageService fetches raw statement files for asynchronous imports.
type StorageService interface {
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
	ExtractFilenameFromGCSURI(uri string) string
}

// BillSource supplies the open bills for a batch. It is called once per
// statement, never per transaction.
type BillSource interface {
	ListOpenBills(ctx context.Context) ([]domain.Bill, error)
}

// ImportLedger remembers which transactions earlier imports have processed.
type ImportLedger interface {
	// FindImportedHashes maps each already recorded hash to the import that
	// first recorded it. Unknown hashes are absent.
	FindImportedHashes(ctx context.Context, hashes []string) (map[string]string, error)

	// InsertStatementImport records an import summary and its transactions.
	InsertStatementImport(ctx context.Context, row *infra.StatementImportRow, txRows []*infra.ImportedTransactionRow) error
}

// StaticBills is a BillSource over a fixed list, for offline runs.
type StaticBills []domain.Bill

// ListOpenBills returns the eligible bills in their original order.
func (s StaticBills) ListOpenBills(ctx context.Context) ([]domain.Bill, error) {
	out := make([]domain.Bill, 0, len(s))
	for _, b := range s {
		if b.Eligible() {
			out = append(out, b)
		}
	}
	return out, nil
}
