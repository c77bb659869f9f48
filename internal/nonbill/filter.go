// Package nonbill separates obvious non-bill activity (payroll, ATM,
// transfers) from transactions worth matching against bills.
package nonbill

import (
	"regexp"

	"github.com/dvloznov/bill-reconciler/internal/domain"
)

// Split is the outcome of filtering. Both slices keep input order.
type Split struct {
	Potential []domain.ParsedTransaction `json:"potential"`
	Filtered  []domain.ParsedTransaction `json:"filtered"`
}

// Filter routes transactions whose description matches any pattern to Filtered.
type Filter struct {
	patterns []*regexp.Regexp
}

// DefaultPatterns returns the case-insensitive non-bill patterns.
func DefaultPatterns() []*regexp.Regexp {
	exprs := []string{
		`(?i)payroll`,
		`(?i)direct\s*dep(osit)?`,
		`(?i)\batm\b`,
		`(?i)withdrawal`,
		`(?i)transfer\s+(from|to)\b`,
		`(?i)venmo\s+cashout`,
		`(?i)zelle\s+(from|received)`,
		`(?i)interest\s+(payment|credit)`,
		`(?i)dividend`,
	}
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// New creates a filter over patterns.
func New(patterns []*regexp.Regexp) *Filter {
	return &Filter{patterns: patterns}
}

// IsNonBill reports whether the description matches a non-bill pattern.
func (f *Filter) IsNonBill(description string) bool {
	for _, p := range f.patterns {
		if p.MatchString(description) {
			return true
		}
	}
	return false
}

// FilterNonBillTransactions splits transactions into likely bill payments and
// known non-bill activity. It is advisory; callers may still match Filtered.
func (f *Filter) FilterNonBillTransactions(txs []domain.ParsedTransaction) Split {
	split := Split{
		Potential: []domain.ParsedTransaction{},
		Filtered:  []domain.ParsedTransaction{},
	}
	for _, tx := range txs {
		if f.IsNonBill(tx.Description) {
			split.Filtered = append(split.Filtered, tx)
		} else {
			split.Potential = append(split.Potential, tx)
		}
	}
	return split
}
