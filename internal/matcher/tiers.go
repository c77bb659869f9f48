package matcher

import (
	"fmt"
	"strings"

	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

var (
	amountTolerance   = decimal.RequireFromString("0.01")
	fuzzyAmountFactor = decimal.RequireFromString("0.10")
)

const (
	windowDaysBefore = 7
	windowDaysAfter  = 21
)

// Tier is one matching heuristic. Evaluate reports whether the transaction
// satisfies it for the bill and, if so, with what confidence.
type Tier struct {
	Method   domain.MatchMethod
	Evaluate func(tx domain.ParsedTransaction, bill domain.Bill) (confidence float64, reason string, ok bool)
}

// DefaultTiers returns the five tiers from most to least certain.
func DefaultTiers() []Tier {
	return []Tier{
		{Method: domain.MatchMethodCheckNumber, Evaluate: checkNumberTier},
		{Method: domain.MatchMethodVendorName, Evaluate: vendorNameTier},
		{Method: domain.MatchMethodAmountDate, Evaluate: amountDateTier},
		{Method: domain.MatchMethodAmountVendor, Evaluate: amountVendorTier},
		{Method: domain.MatchMethodDescription, Evaluate: descriptionTier},
	}
}

func checkNumberTier(tx domain.ParsedTransaction, bill domain.Bill) (float64, string, bool) {
	ref := strings.TrimSpace(bill.PaymentReference)
	if tx.CheckNumber == nil || ref == "" || *tx.CheckNumber != ref {
		return 0, "", false
	}
	if amountsMatch(tx, bill) {
		return 0.98, fmt.Sprintf("Check #%s matches payment reference and amount", ref), true
	}
	return 0.95, fmt.Sprintf("Check #%s matches payment reference", ref), true
}

func vendorNameTier(tx domain.ParsedTransaction, bill domain.Bill) (float64, string, bool) {
	if tx.ExtractedVendorName == nil || !amountsMatch(tx, bill) {
		return 0, "", false
	}
	vendor := fold(*tx.ExtractedVendorName)
	if vendor == "" {
		return 0, "", false
	}
	for _, name := range billNames(bill) {
		n := fold(name)
		if strings.Contains(vendor, n) || strings.Contains(n, vendor) {
			return 0.90, fmt.Sprintf("Vendor %q matches %q, amount %s", *tx.ExtractedVendorName, name, bill.Amount.StringFixed(2)), true
		}
	}
	return 0, "", false
}

func amountDateTier(tx domain.ParsedTransaction, bill domain.Bill) (float64, string, bool) {
	if !amountsMatch(tx, bill) {
		return 0, "", false
	}
	ref := bill.ReferenceDate()
	days := tx.Date.DaysSince(ref)
	if days < -windowDaysBefore || days > windowDaysAfter {
		return 0, "", false
	}
	return 0.85, fmt.Sprintf("Amount %s matches, %d days from %s", bill.Amount.StringFixed(2), days, ref), true
}

func amountVendorTier(tx domain.ParsedTransaction, bill domain.Bill) (float64, string, bool) {
	if !amountsMatch(tx, bill) {
		return 0, "", false
	}
	if name, ok := vendorInDescription(tx, bill); ok {
		return 0.75, fmt.Sprintf("Amount %s matches, %q found in description", bill.Amount.StringFixed(2), name), true
	}
	return 0, "", false
}

func descriptionTier(tx domain.ParsedTransaction, bill domain.Bill) (float64, string, bool) {
	diff := tx.Amount.Abs().Sub(bill.Amount).Abs()
	if diff.GreaterThan(bill.Amount.Mul(fuzzyAmountFactor)) {
		return 0, "", false
	}
	if name, ok := vendorInDescription(tx, bill); ok {
		return 0.60, fmt.Sprintf("%q found in description, amount within 10%% of %s", name, bill.Amount.StringFixed(2)), true
	}
	return 0, "", false
}

func amountsMatch(tx domain.ParsedTransaction, bill domain.Bill) bool {
	return tx.Amount.Abs().Sub(bill.Amount).Abs().LessThanOrEqual(amountTolerance)
}

func vendorInDescription(tx domain.ParsedTransaction, bill domain.Bill) (string, bool) {
	desc := fold(tx.Description)
	for _, name := range billNames(bill) {
		if strings.Contains(desc, fold(name)) {
			return name, true
		}
	}
	return "", false
}

// billNames returns the non-empty vendor name and company of the bill.
func billNames(bill domain.Bill) []string {
	var names []string
	for _, n := range []string{bill.VendorName, bill.VendorCompany} {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
