package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// ListOpenBillsWithClient reads every pending or sent bill with its vendor and
// property names. Rows are ordered by due date then bill ID so the matcher
// sees bills in a stable order across runs.
func ListOpenBillsWithClient(ctx context.Context, client *bigquery.Client, dataset string) ([]*BillRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			b.bill_id,
			b.description,
			b.amount,
			b.due_date,
			b.status,
			b.payment_method,
			b.payment_date,
			b.payment_reference,
			b.vendor_id,
			b.property_id,
			v.name AS vendor_name,
			v.company AS vendor_company,
			p.name AS property_name
		FROM `+"`%[1]s.bills`"+` b
		LEFT JOIN `+"`%[1]s.vendors`"+` v
		  ON b.vendor_id = v.vendor_id
		LEFT JOIN `+"`%[1]s.properties`"+` p
		  ON b.property_id = p.property_id
		WHERE b.status IN UNNEST(@statuses)
		ORDER BY b.due_date, b.bill_id
	`, dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statuses", Value: []string{"pending", "sent"}},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListOpenBills: query read: %w", err)
	}

	var rows []*BillRow
	for {
		var r BillRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListOpenBills: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
