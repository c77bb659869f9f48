package pipeline_test

import (
	"context"

	"github.com/dvloznov/bill-reconciler/internal/domain"
	infra "github.com/dvloznov/bill-reconciler/internal/infra/bigquery"
	"github.com/dvloznov/bill-reconciler/internal/pipeline"
)

// MockBillSource is a mock implementation of BillSource for testing.
type MockBillSource struct {
	ListOpenBillsFunc func(ctx context.Context) ([]domain.Bill, error)
	Calls             int
}

func (m *MockBillSource) ListOpenBills(ctx context.Context) ([]domain.Bill, error) {
	m.Calls++
	if m.ListOpenBillsFunc != nil {
		return m.ListOpenBillsFunc(ctx)
	}
	return nil, nil
}

// MockImportLedger is a mock implementation of ImportLedger for testing.
type MockImportLedger struct {
	FindImportedHashesFunc    func(ctx context.Context, hashes []string) (map[string]string, error)
	InsertStatementImportFunc func(ctx context.Context, row *infra.StatementImportRow, txRows []*infra.ImportedTransactionRow) error

	Inserted   *infra.StatementImportRow
	InsertedTx []*infra.ImportedTransactionRow
}

func (m *MockImportLedger) FindImportedHashes(ctx context.Context, hashes []string) (map[string]string, error) {
	if m.FindImportedHashesFunc != nil {
		return m.FindImportedHashesFunc(ctx, hashes)
	}
	return map[string]string{}, nil
}

func (m *MockImportLedger) InsertStatementImport(ctx context.Context, row *infra.StatementImportRow, txRows []*infra.ImportedTransactionRow) error {
	m.Inserted = row
	m.InsertedTx = txRows
	if m.InsertStatementImportFunc != nil {
		return m.InsertStatementImportFunc(ctx, row, txRows)
	}
	return nil
}

// MockStorageService is a mock implementation of StorageService for testing.
type MockStorageService struct {
	FetchFromGCSFunc func(ctx context.Context, gcsURI string) ([]byte, error)
}

func (m *MockStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	if m.FetchFromGCSFunc != nil {
		return m.FetchFromGCSFunc(ctx, gcsURI)
	}
	return nil, nil
}

func (m *MockStorageService) ExtractFilenameFromGCSURI(uri string) string {
	return "statement.csv"
}

var (
	_ pipeline.BillSource     = (*MockBillSource)(nil)
	_ pipeline.ImportLedger   = (*MockImportLedger)(nil)
	_ pipeline.StorageService = (*MockStorageService)(nil)
)
