package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DeleteImportWithClient removes an import and its transaction rows so the
// statement can be reconciled again. Rows inserted in the last few minutes
// may still sit in the streaming buffer, where BigQuery refuses DML.
func DeleteImportWithClient(ctx context.Context, client *bigquery.Client, dataset, importID string) error {
	// Transactions first, so a failure never leaves rows without a summary.
	for _, table := range []string{importedTransactionsTable, statementImportsTable} {
		if err := deleteByImportID(ctx, client, dataset, table, importID); err != nil {
			return fmt.Errorf("DeleteImport: deleting from %s: %w", table, err)
		}
	}
	return nil
}

func deleteByImportID(ctx context.Context, client *bigquery.Client, dataset, table, importID string) error {
	q := client.Query(fmt.Sprintf(`
		DELETE FROM `+"`%s.%s`"+`
		WHERE import_id = @import_id
	`, dataset, table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "import_id", Value: importID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
