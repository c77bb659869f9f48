package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	statementImportsTable     = "statement_imports"
	importedTransactionsTable = "imported_transactions"
)

// FindImportedHashesWithClient maps each hash already in the ledger to the
// import that recorded it first.
func FindImportedHashesWithClient(ctx context.Context, client *bigquery.Client, dataset string, hashes []string) (map[string]string, error) {
	found := make(map[string]string)
	if len(hashes) == 0 {
		return found, nil
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_hash,
			ARRAY_AGG(import_id ORDER BY created_ts LIMIT 1)[OFFSET(0)] AS import_id
		FROM `+"`%s.%s`"+`
		WHERE transaction_hash IN UNNEST(@hashes)
		GROUP BY transaction_hash
	`, dataset, importedTransactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "hashes", Value: hashes},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindImportedHashes: query read: %w", err)
	}

	for {
		var r struct {
			TransactionHash string `bigquery:"transaction_hash"`
			ImportID        string `bigquery:"import_id"`
		}
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FindImportedHashes: iter next: %w", err)
		}
		found[r.TransactionHash] = r.ImportID
	}

	return found, nil
}

// InsertStatementImportWithClient writes the import summary and its
// per-transaction rows. Rows carry insert IDs derived from the import and
// transaction hash, so a retried import is deduplicated by the streaming API.
func InsertStatementImportWithClient(ctx context.Context, client *bigquery.Client, dataset string, row *StatementImportRow, txRows []*ImportedTransactionRow) error {
	if err := client.Dataset(dataset).Table(statementImportsTable).Inserter().Put(ctx, importSaver(row)); err != nil {
		return fmt.Errorf("InsertStatementImport: inserting import %s: %w", row.ImportID, err)
	}

	if len(txRows) == 0 {
		return nil
	}

	if err := client.Dataset(dataset).Table(importedTransactionsTable).Inserter().Put(ctx, transactionSavers(txRows)); err != nil {
		return fmt.Errorf("InsertStatementImport: inserting %d transactions: %w", len(txRows), err)
	}

	return nil
}

func importSaver(row *StatementImportRow) *bigquery.StructSaver {
	return &bigquery.StructSaver{Struct: row, InsertID: row.ImportID}
}

func transactionSavers(rows []*ImportedTransactionRow) []*bigquery.StructSaver {
	out := make([]*bigquery.StructSaver, len(rows))
	for i, r := range rows {
		out[i] = &bigquery.StructSaver{Struct: r, InsertID: r.ImportID + ":" + r.TransactionHash}
	}
	return out
}

// ListStatementImportsWithClient returns the most recent imports first.
func ListStatementImportsWithClient(ctx context.Context, client *bigquery.Client, dataset string, limit int) ([]*StatementImportRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT *
		FROM `+"`%s.%s`"+`
		ORDER BY created_ts DESC
		LIMIT @limit
	`, dataset, statementImportsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListStatementImports: query read: %w", err)
	}

	var rows []*StatementImportRow
	for {
		var r StatementImportRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListStatementImports: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
