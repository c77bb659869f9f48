package nonbill

import (
	"regexp"
	"testing"

	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func tx(description, amount string) domain.ParsedTransaction {
	return domain.ParsedTransaction{Description: description, Amount: decimal.RequireFromString(amount)}
}

func TestFilter_IsNonBill(t *testing.T) {
	f := New(DefaultPatterns())

	tests := []struct {
		description string
		want        bool
	}{
		{"PAYROLL DEPOSIT", true},
		{"ACME CORP DES:DIRECT DEP", true},
		{"BKOFAMERICA ATM 12/01 WITHDRWL", true},
		{"Cash Withdrawal at branch", true},
		{"Online Banking Transfer from SAV 1", true},
		{"transfer to chk 9", true},
		{"VENMO CASHOUT", true},
		{"Zelle from JOHN DOE", true},
		{"Zelle received from JANE", true},
		{"Interest Payment", true},
		{"INTEREST CREDIT", true},
		{"VANGUARD DIVIDEND", true},
		{"NATIONAL GRID DES:UTIL. BILL", false},
		{"Check 1234", false},
		{"Green Valley Landscaping Bill Payment", false},
		{"Zelle payment to PLUMBER", false},
		{"PATMOS GRILL", false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsNonBill(tt.description))
		})
	}
}

func TestFilter_FilterNonBillTransactions(t *testing.T) {
	f := New(DefaultPatterns())
	input := []domain.ParsedTransaction{
		tx("Check 1234", "-450.00"),
		tx("PAYROLL DEPOSIT", "500.00"),
		tx("NATIONAL GRID DES:UTIL. BILL", "-185.32"),
		tx("ATM WITHDRAWAL", "-60.00"),
	}

	split := f.FilterNonBillTransactions(input)

	assert.Equal(t, []domain.ParsedTransaction{input[0], input[2]}, split.Potential)
	assert.Equal(t, []domain.ParsedTransaction{input[1], input[3]}, split.Filtered)
}

func TestFilter_Empty(t *testing.T) {
	split := New(DefaultPatterns()).FilterNonBillTransactions(nil)

	assert.NotNil(t, split.Potential)
	assert.NotNil(t, split.Filtered)
	assert.Empty(t, split.Potential)
	assert.Empty(t, split.Filtered)
}

func TestFilter_CustomPatterns(t *testing.T) {
	f := New([]*regexp.Regexp{regexp.MustCompile(`(?i)^internal`)})

	assert.True(t, f.IsNonBill("Internal sweep"))
	assert.False(t, f.IsNonBill("PAYROLL DEPOSIT"))
}
