package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// BillStatus is the lifecycle state of a bill in the household store.
type BillStatus string

const (
	BillStatusPending BillStatus = "pending"
	BillStatusSent    BillStatus = "sent"
	BillStatusPaid    BillStatus = "paid"
)

// Bill is an outstanding payable as read from the household store.
// Amount is always positive.
type Bill struct {
	ID               string          `json:"id"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	DueDate          civil.Date      `json:"due_date"`
	Status           BillStatus      `json:"status"`
	PaymentMethod    string          `json:"payment_method,omitempty"`
	PaymentDate      *civil.Date     `json:"payment_date,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	VendorID         string          `json:"vendor_id,omitempty"`
	PropertyID       string          `json:"property_id,omitempty"`
	VendorName       string          `json:"vendor_name,omitempty"`
	VendorCompany    string          `json:"vendor_company,omitempty"`
	PropertyName     string          `json:"property_name,omitempty"`
}

// Eligible reports whether the bill may be matched against transactions.
func (b Bill) Eligible() bool {
	return b.Status == BillStatusPending || b.Status == BillStatusSent
}

// ReferenceDate is the payment date when recorded, otherwise the due date.
func (b Bill) ReferenceDate() civil.Date {
	if b.PaymentDate != nil {
		return *b.PaymentDate
	}
	return b.DueDate
}
