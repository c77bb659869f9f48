package domain

import (
	"encoding/json"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Category is the coarse classification assigned to a statement line.
type Category string

const (
	CategoryCheck        Category = "check"
	CategoryBillPay      Category = "bill_pay"
	CategoryBillPayCheck Category = "bill_pay_check"
	CategoryACHAutopay   Category = "ach_autopay"
	CategoryWire         Category = "wire"
	CategoryTransfer     Category = "transfer"
	CategoryCreditCard   Category = "credit_card"
	CategoryNoise        Category = "noise"
	CategoryOther        Category = "other"
)

// Categories lists every category in classification order.
var Categories = []Category{
	CategoryCheck,
	CategoryBillPay,
	CategoryBillPayCheck,
	CategoryACHAutopay,
	CategoryWire,
	CategoryTransfer,
	CategoryCreditCard,
	CategoryNoise,
	CategoryOther,
}

// ParsedTransaction represents one row of a bank statement export.
// Amount is signed: negative values are money leaving the account.
type ParsedTransaction struct {
	Date                civil.Date       `json:"date"`
	Description         string           `json:"description"`
	Amount              decimal.Decimal  `json:"amount"`
	CheckNumber         *string          `json:"check_number,omitempty"`
	RunningBalance      *decimal.Decimal `json:"running_balance,omitempty"`
	Category            Category         `json:"category"`
	ExtractedVendorName *string          `json:"extracted_vendor_name,omitempty"`
}

// IsDebit reports whether the transaction is an outflow.
func (t ParsedTransaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// MarshalJSON adds the derived is_debit flag to the encoded transaction.
func (t ParsedTransaction) MarshalJSON() ([]byte, error) {
	type plain ParsedTransaction
	return json.Marshal(struct {
		plain
		IsDebit bool `json:"is_debit"`
	}{plain(t), t.IsDebit()})
}
