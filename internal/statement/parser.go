package statement

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	headerScanLines      = 15
	accountTypeScanLines = 10
	minFields            = 3
	dateLayout           = "1/2/2006"
)

// AccountType is the kind of account a statement export belongs to.
type AccountType string

const (
	AccountTypeChecking    AccountType = "checking"
	AccountTypeSavings     AccountType = "savings"
	AccountTypeCredit      AccountType = "credit"
	AccountTypeMoneyMarket AccountType = "money market"
)

// accountTypes is in detection order. The first name found anywhere in the
// header lines wins.
var accountTypes = []AccountType{
	AccountTypeMoneyMarket,
	AccountTypeChecking,
	AccountTypeSavings,
	AccountTypeCredit,
}

// Stats summarises the transactions of a parsed statement.
type Stats struct {
	Total      int                     `json:"total"`
	Debits     int                     `json:"debits"`
	Credits    int                     `json:"credits"`
	ByCategory map[domain.Category]int `json:"by_category"`
}

// ParseResult is the outcome of parsing one statement export.
// Transactions are ordered newest first.
type ParseResult struct {
	Transactions   []domain.ParsedTransaction `json:"transactions"`
	DateRangeStart *civil.Date                `json:"date_range_start"`
	DateRangeEnd   *civil.Date                `json:"date_range_end"`
	AccountType    *AccountType               `json:"account_type"`
	Errors         []string                   `json:"errors"`
	Stats          Stats                      `json:"stats"`
}

// Parser turns raw statement exports into transactions.
type Parser struct {
	rules Rules
}

// NewParser creates a parser that classifies with the given rules.
func NewParser(rules Rules) *Parser {
	return &Parser{rules: rules}
}

// Parse parses a delimited bank export. Only unparsable amounts are reported
// in Errors; lines without a leading date are treated as non-transaction rows.
func (p *Parser) Parse(raw string) ParseResult {
	result := ParseResult{
		Transactions: []domain.ParsedTransaction{},
		Errors:       []string{},
		Stats:        newStats(),
	}

	lines := splitLines(raw)
	if len(lines) == 0 {
		result.Errors = append(result.Errors, "Empty file")
		return result
	}

	start := findDataStart(lines)
	result.AccountType = detectAccountType(lines)

	for i := start; i < len(lines); i++ {
		tx, errMsg, ok := p.parseLine(i+1, lines[i])
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
		}
		if !ok {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
		result.Stats.add(tx)
	}

	sort.SliceStable(result.Transactions, func(a, b int) bool {
		return result.Transactions[a].Date.After(result.Transactions[b].Date)
	})

	if n := len(result.Transactions); n > 0 {
		newest := result.Transactions[0].Date
		oldest := result.Transactions[n-1].Date
		result.DateRangeStart = &oldest
		result.DateRangeEnd = &newest
	}

	return result
}

func (p *Parser) parseLine(rowNum int, line string) (domain.ParsedTransaction, string, bool) {
	fields := splitFields(line)
	if len(fields) < minFields {
		return domain.ParsedTransaction{}, "", false
	}

	t, err := time.Parse(dateLayout, strings.TrimSpace(fields[0]))
	if err != nil {
		return domain.ParsedTransaction{}, "", false
	}

	description := strings.TrimSpace(fields[1])
	if strings.Contains(strings.ToLower(description), "beginning balance") {
		return domain.ParsedTransaction{}, "", false
	}

	amount, err := parseAmount(fields[2])
	if err != nil {
		return domain.ParsedTransaction{}, fmt.Sprintf("Row %d: invalid amount %q: %s", rowNum, strings.TrimSpace(fields[2]), line), false
	}

	tx := domain.ParsedTransaction{
		Date:        civil.DateOf(t),
		Description: description,
		Amount:      amount,
		CheckNumber: p.rules.ExtractCheckNumber(description),
	}

	if len(fields) > minFields {
		if balance, err := parseAmount(fields[3]); err == nil {
			tx.RunningBalance = &balance
		}
	}

	tx.Category = p.rules.Classify(description)
	tx.ExtractedVendorName = p.rules.ExtractVendor(description, tx.Category)

	return tx, "", true
}

func splitLines(raw string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// findDataStart returns the index of the first data line. Exports without a
// recognisable header are read from the top.
func findDataStart(lines []string) int {
	for i := 0; i < len(lines) && i < headerScanLines; i++ {
		if isHeaderLine(lines[i]) {
			return i + 1
		}
	}
	return 0
}

// isHeaderLine reports whether line names the date, description and amount
// columns.
func isHeaderLine(line string) bool {
	l := strings.ToLower(line)
	return strings.Contains(l, "date") && strings.Contains(l, "description") && strings.Contains(l, "amount")
}

func detectAccountType(lines []string) *AccountType {
	head := strings.ToLower(strings.Join(lines[:min(len(lines), accountTypeScanLines)], "\n"))
	for _, at := range accountTypes {
		if strings.Contains(head, string(at)) {
			found := at
			return &found
		}
	}
	return nil
}

// splitFields splits one line on commas, honouring double-quoted fields and
// doubled quotes inside them.
func splitFields(line string) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	record, err := r.Read()
	if err != nil {
		return nil
	}
	return record
}

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := amountReplacer.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(cleaned)
}

func newStats() Stats {
	byCategory := make(map[domain.Category]int, len(domain.Categories))
	for _, c := range domain.Categories {
		byCategory[c] = 0
	}
	return Stats{ByCategory: byCategory}
}

func (s *Stats) add(tx domain.ParsedTransaction) {
	s.Total++
	if tx.IsDebit() {
		s.Debits++
	} else {
		s.Credits++
	}
	s.ByCategory[tx.Category]++
}
