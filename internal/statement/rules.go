package statement

import (
	"regexp"
	"strings"

	"github.com/dvloznov/bill-reconciler/internal/domain"
)

// CategoryRule assigns Category when any of its patterns matches the
// uppercased description.
type CategoryRule struct {
	Category domain.Category
	Patterns []*regexp.Regexp
}

// VendorRule pulls a vendor name out of descriptions in Category.
// When Literal is set it is returned on match instead of the first capture group.
type VendorRule struct {
	Category domain.Category
	Pattern  *regexp.Regexp
	Literal  string
}

// Rules is the static configuration a Parser classifies and extracts with.
// Category rules are evaluated in order and the first match wins.
type Rules struct {
	Categories   []CategoryRule
	Vendors      []VendorRule
	CheckNumbers []*regexp.Regexp
}

func contains(fragments ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, regexp.MustCompile(regexp.QuoteMeta(f)))
	}
	return out
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// DefaultRules returns the rule set for US retail bank exports.
func DefaultRules() Rules {
	return Rules{
		Categories: []CategoryRule{
			{Category: domain.CategoryCheck, Patterns: patterns(`^CHECK\s+\d+$`)},
			{Category: domain.CategoryBillPayCheck, Patterns: patterns(`^BILL PAY CHECK \d+:`)},
			{Category: domain.CategoryBillPay, Patterns: patterns(`BILL PAYMENT$`)},
			{Category: domain.CategoryWire, Patterns: contains("WIRE TYPE:")},
			{
				Category: domain.CategoryACHAutopay,
				Patterns: append(
					contains(
						"DES:UTIL. BILL",
						"DES:GRMTNPWR",
						"NATIONAL GRID",
						"EVERSOURCE",
						"GREEN MOUNTAIN POWER",
						"VERMONT GAS",
						"CON ED",
						"PSE&G",
					),
					regexp.MustCompile(`EDGE \d+ CONDO`),
				),
			},
			{
				Category: domain.CategoryTransfer,
				Patterns: append(contains("ONLINE BANKING TRANSFER", "ONLINE TRANSFER"), regexp.MustCompile(`^TRANSFER `)),
			},
			{
				Category: domain.CategoryCreditCard,
				Patterns: append(
					contains("APPLECARD", "AMERICAN EXPRESS", "BARCLAYCARD", "CITI AUTOPAY", "CHASE CREDIT"),
					regexp.MustCompile(`GS BANK.*PAYMENT`),
				),
			},
			{
				Category: domain.CategoryNoise,
				Patterns: patterns(`PAYPAL`, `UBER`, `VENMO`, `INTEREST`, `DIVIDEND`, `\bFX\b`, `REWARDS`),
			},
		},
		Vendors: []VendorRule{
			{Category: domain.CategoryBillPay, Pattern: regexp.MustCompile(`(?i)^(.+?)\s+Bill Payment$`)},
			{Category: domain.CategoryBillPayCheck, Pattern: regexp.MustCompile(`(?i)^Bill Pay Check \d+:\s*(.+)$`)},
			{Category: domain.CategoryACHAutopay, Pattern: regexp.MustCompile(`(?i)\bEdge \d+ Condo`), Literal: "Edge Condo Association"},
			{Category: domain.CategoryACHAutopay, Pattern: regexp.MustCompile(`^(.+?)\s+DES:`)},
		},
		CheckNumbers: patterns(
			`Check\s*#?(\d+)`,
			`Chk\s*#?(\d+)`,
			`CHECK\s*#?(\d+)`,
			`Bill Pay Check (\d+):`,
		),
	}
}

// Classify returns the category of the first rule matching description,
// or CategoryOther.
func (r Rules) Classify(description string) domain.Category {
	upper := strings.ToUpper(strings.TrimSpace(description))
	for _, rule := range r.Categories {
		for _, p := range rule.Patterns {
			if p.MatchString(upper) {
				return rule.Category
			}
		}
	}
	return domain.CategoryOther
}

// ExtractVendor returns the vendor named in description, if the category
// carries one and a rule recognises the format.
func (r Rules) ExtractVendor(description string, category domain.Category) *string {
	description = strings.TrimSpace(description)
	for _, rule := range r.Vendors {
		if rule.Category != category {
			continue
		}
		m := rule.Pattern.FindStringSubmatch(description)
		if m == nil {
			continue
		}
		if rule.Literal != "" {
			name := rule.Literal
			return &name
		}
		if len(m) < 2 {
			continue
		}
		if name := strings.TrimSpace(m[1]); name != "" {
			return &name
		}
	}
	return nil
}

// ExtractCheckNumber returns the first check number found in description.
func (r Rules) ExtractCheckNumber(description string) *string {
	for _, p := range r.CheckNumbers {
		if m := p.FindStringSubmatch(description); len(m) > 1 {
			n := m[1]
			return &n
		}
	}
	return nil
}
