package bigquery

import (
	"fmt"
	"math/big"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale is the number of fractional digits BigQuery NUMERIC keeps.
const numericScale = 9

// ToDomain converts the row into the engine's Bill.
func (r *BillRow) ToDomain() (domain.Bill, error) {
	amount, err := ratToDecimal(r.Amount)
	if err != nil {
		return domain.Bill{}, fmt.Errorf("ToDomain: bill %s amount: %w", r.BillID, err)
	}

	b := domain.Bill{
		ID:               r.BillID,
		Description:      r.Description.StringVal,
		Amount:           amount,
		DueDate:          r.DueDate,
		Status:           domain.BillStatus(r.Status),
		PaymentMethod:    r.PaymentMethod.StringVal,
		PaymentReference: r.PaymentReference.StringVal,
		VendorID:         r.VendorID.StringVal,
		PropertyID:       r.PropertyID.StringVal,
		VendorName:       r.VendorName.StringVal,
		VendorCompany:    r.VendorCompany.StringVal,
		PropertyName:     r.PropertyName.StringVal,
	}
	if r.PaymentDate.Valid {
		d := r.PaymentDate.Date
		b.PaymentDate = &d
	}
	return b, nil
}

func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Decimal{}, fmt.Errorf("NULL numeric")
	}
	return decimal.NewFromString(r.FloatString(numericScale))
}

func decimalToRat(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullDate(d *civil.Date) bigquery.NullDate {
	if d == nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: *d, Valid: true}
}
