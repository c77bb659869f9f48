// Package matcher scores debit transactions against open bills and buckets
// the results for review.
package matcher

import (
	"sort"

	"github.com/dvloznov/bill-reconciler/internal/domain"
)

// Matcher evaluates tiers top-down for each (transaction, bill) pair.
type Matcher struct {
	tiers []Tier
}

// New creates a matcher over an ordered tier list.
func New(tiers []Tier) *Matcher {
	return &Matcher{tiers: tiers}
}

// MatchTransactionsToBills returns one result per transaction, in input order.
func (m *Matcher) MatchTransactionsToBills(txs []domain.ParsedTransaction, bills []domain.Bill) []domain.MatchResult {
	results := make([]domain.MatchResult, 0, len(txs))
	for _, tx := range txs {
		results = append(results, m.MatchTransaction(tx, bills))
	}
	return results
}

// MatchTransaction scores one transaction. Credits are never matched. Each
// eligible bill contributes at most one candidate, from the first tier it
// satisfies; ties keep bill order.
func (m *Matcher) MatchTransaction(tx domain.ParsedTransaction, bills []domain.Bill) domain.MatchResult {
	result := domain.MatchResult{
		Transaction: tx,
		Matches:     []domain.MatchCandidate{},
	}
	if !tx.IsDebit() {
		return result
	}

	for _, bill := range bills {
		if !bill.Eligible() {
			continue
		}
		if c, ok := m.evaluate(tx, bill); ok {
			result.Matches = append(result.Matches, c)
		}
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Confidence > result.Matches[j].Confidence
	})

	if len(result.Matches) > 0 {
		best := result.Matches[0]
		result.BestMatch = &best
		result.AutoConfirm = best.Confidence >= domain.AutoConfirmThreshold
	}

	return result
}

func (m *Matcher) evaluate(tx domain.ParsedTransaction, bill domain.Bill) (domain.MatchCandidate, bool) {
	for _, tier := range m.tiers {
		confidence, reason, ok := tier.Evaluate(tx, bill)
		if !ok {
			continue
		}
		return domain.MatchCandidate{
			Bill:        bill,
			Confidence:  confidence,
			MatchMethod: tier.Method,
			MatchReason: reason,
		}, true
	}
	return domain.MatchCandidate{}, false
}
