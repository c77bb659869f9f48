package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/bill-reconciler/internal/domain"
)

// BigQueryBillRepository reads open bills and records statement imports.
// It holds a shared BigQuery client to avoid creating a new connection for
// each operation.
type BigQueryBillRepository struct {
	client  *bigquery.Client
	dataset string
}

// NewBigQueryBillRepository creates a repository over project.dataset.
func NewBigQueryBillRepository(ctx context.Context, projectID, dataset string) (*BigQueryBillRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryBillRepository: creating client: %w", err)
	}
	return &BigQueryBillRepository{
		client:  client,
		dataset: dataset,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryBillRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListOpenBills returns the bills eligible for matching, in a stable order.
func (r *BigQueryBillRepository) ListOpenBills(ctx context.Context) ([]domain.Bill, error) {
	rows, err := ListOpenBillsWithClient(ctx, r.client, r.dataset)
	if err != nil {
		return nil, err
	}

	bills := make([]domain.Bill, 0, len(rows))
	for _, row := range rows {
		b, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, nil
}

// FindImportedHashes delegates to FindImportedHashesWithClient with the shared client.
func (r *BigQueryBillRepository) FindImportedHashes(ctx context.Context, hashes []string) (map[string]string, error) {
	return FindImportedHashesWithClient(ctx, r.client, r.dataset, hashes)
}

// InsertStatementImport delegates to InsertStatementImportWithClient with the shared client.
func (r *BigQueryBillRepository) InsertStatementImport(ctx context.Context, row *StatementImportRow, txRows []*ImportedTransactionRow) error {
	return InsertStatementImportWithClient(ctx, r.client, r.dataset, row, txRows)
}

// ListStatementImports delegates to ListStatementImportsWithClient with the shared client.
func (r *BigQueryBillRepository) ListStatementImports(ctx context.Context, limit int) ([]*StatementImportRow, error) {
	return ListStatementImportsWithClient(ctx, r.client, r.dataset, limit)
}

// DeleteImport delegates to DeleteImportWithClient with the shared client.
func (r *BigQueryBillRepository) DeleteImport(ctx context.Context, importID string) error {
	return DeleteImportWithClient(ctx, r.client, r.dataset, importID)
}
