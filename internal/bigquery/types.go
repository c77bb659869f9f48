// Package bigquery declares the household-store contract used by the
// binaries; internal/infra/bigquery implements it.
package bigquery

import (
	"context"

	"github.com/dvloznov/bill-reconciler/internal/domain"
	infra "github.com/dvloznov/bill-reconciler/internal/infra/bigquery"
)

// BillRepository provides the bill and import-ledger operations of the
// household store.
type BillRepository interface {
	// ListOpenBills returns every pending or sent bill, ordered by due date.
	ListOpenBills(ctx context.Context) ([]domain.Bill, error)

	// FindImportedHashes maps each already recorded hash to its import ID.
	FindImportedHashes(ctx context.Context, hashes []string) (map[string]string, error)

	// InsertStatementImport records an import summary and its transactions.
	InsertStatementImport(ctx context.Context, row *infra.StatementImportRow, txRows []*infra.ImportedTransactionRow) error

	// ListStatementImports returns the most recent imports first.
	ListStatementImports(ctx context.Context, limit int) ([]*infra.StatementImportRow, error)

	// DeleteImport forgets an import so its statement can be reconciled again.
	DeleteImport(ctx context.Context, importID string) error

	// Close releases the underlying client.
	Close() error
}

var _ BillRepository = (*infra.BigQueryBillRepository)(nil)

// NewBillRepository opens the BigQuery-backed store for projectID/dataset.
func NewBillRepository(ctx context.Context, projectID, dataset string) (BillRepository, error) {
	repo, err := infra.NewBigQueryBillRepository(ctx, projectID, dataset)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
