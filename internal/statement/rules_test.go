package statement

import (
	"testing"

	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRules_Classify(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		description string
		want        domain.Category
	}{
		{"CHECK 1234", domain.CategoryCheck},
		{"Check 77", domain.CategoryCheck},
		{"CHECK #1234", domain.CategoryOther},
		{"Check #1234", domain.CategoryOther},
		{"Check 1234 memo", domain.CategoryOther},
		{"BILL PAY CHECK 5678: SMITH PLUMBING", domain.CategoryBillPayCheck},
		{"Green Valley Landscaping Bill Payment", domain.CategoryBillPay},
		{"WIRE TYPE:WIRE OUT DATE:251201 TIME:1010 ET", domain.CategoryWire},
		{"NATIONAL GRID DES:UTIL. BILL ID:0042", domain.CategoryACHAutopay},
		{"GREEN MTN POWER DES:GRMTNPWR ID:77", domain.CategoryACHAutopay},
		{"ONLINE PMT NATIONAL GRID", domain.CategoryACHAutopay},
		{"EDGE 1200 CONDO DES:HOA DUES", domain.CategoryACHAutopay},
		{"Online Banking transfer to SAV 9911", domain.CategoryTransfer},
		{"Online Transfer from CHK 1234", domain.CategoryTransfer},
		{"TRANSFER TO SAVINGS", domain.CategoryTransfer},
		{"APPLECARD GSBANK DES:PAYMENT", domain.CategoryCreditCard},
		{"AMERICAN EXPRESS DES:ACH PMT", domain.CategoryCreditCard},
		{"GS BANK USA DES:PAYMENT ID:1", domain.CategoryCreditCard},
		{"PAYPAL DES:INST XFER", domain.CategoryNoise},
		{"Interest Earned", domain.CategoryNoise},
		{"UBER TRIP HELP.UBER.COM", domain.CategoryNoise},
		{"PAYROLL DEPOSIT", domain.CategoryOther},
		{"", domain.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Classify(tt.description))
		})
	}
}

func TestRules_ClassifyFirstMatchWins(t *testing.T) {
	// Carries both a utility marker and a card issuer fragment.
	rules := DefaultRules()
	assert.Equal(t, domain.CategoryACHAutopay, rules.Classify("CHASE CREDIT DES:UTIL. BILL"))
}

func TestRules_CustomTable(t *testing.T) {
	rules := Rules{
		Categories: []CategoryRule{
			{Category: domain.CategoryWire, Patterns: contains("SWIFT")},
		},
	}

	assert.Equal(t, domain.CategoryWire, rules.Classify("swift out 1"))
	assert.Equal(t, domain.CategoryOther, rules.Classify("CHECK 1"))
	assert.Nil(t, rules.ExtractVendor("Foo Bill Payment", domain.CategoryBillPay))
	assert.Nil(t, rules.ExtractCheckNumber("Check 1"))
}

func TestRules_ExtractVendor(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name        string
		description string
		category    domain.Category
		want        string
	}{
		{"bill pay", "Green Valley Landscaping Bill Payment", domain.CategoryBillPay, "Green Valley Landscaping"},
		{"bill pay check", "Bill Pay Check 5678: Smith Plumbing", domain.CategoryBillPayCheck, "Smith Plumbing"},
		{"ach", "NATIONAL GRID DES:UTIL. BILL ID:1", domain.CategoryACHAutopay, "NATIONAL GRID"},
		{"hoa", "EDGE 1200 CONDO DES:HOA DUES", domain.CategoryACHAutopay, "Edge Condo Association"},
		{"ach without des", "ONLINE PMT NATIONAL GRID", domain.CategoryACHAutopay, ""},
		{"check has no vendor", "Check 1234", domain.CategoryCheck, ""},
		{"other ignores des", "SOMETHING DES:ELSE", domain.CategoryOther, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.ExtractVendor(tt.description, tt.category)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.want, *got)
			}
		})
	}
}

func TestRules_ExtractCheckNumber(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		description string
		want        string
	}{
		{"Check 1234", "1234"},
		{"Check #987", "987"},
		{"Chk 55", "55"},
		{"CHECK 42", "42"},
		{"Bill Pay Check 77: Smith", "77"},
		{"CHECKCARD 1231 AMAZON MKTPL", ""},
		{"Checking interest", ""},
		{"Payment", ""},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got := rules.ExtractCheckNumber(tt.description)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.want, *got)
			}
		})
	}
}
