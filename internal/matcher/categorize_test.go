package matcher

import (
	"testing"

	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(amount string, confidences ...float64) domain.MatchResult {
	r := domain.MatchResult{
		Transaction: domain.ParsedTransaction{Description: amount, Amount: decimal.RequireFromString(amount)},
		Matches:     []domain.MatchCandidate{},
	}
	for _, c := range confidences {
		r.Matches = append(r.Matches, domain.MatchCandidate{Confidence: c})
	}
	if len(r.Matches) > 0 {
		best := r.Matches[0]
		r.BestMatch = &best
		r.AutoConfirm = best.Confidence >= domain.AutoConfirmThreshold
	}
	return r
}

func TestBucketOf(t *testing.T) {
	tests := []struct {
		name   string
		result domain.MatchResult
		want   domain.Bucket
	}{
		{"credit", result("500.00"), domain.BucketNotBills},
		{"zero amount", result("0"), domain.BucketNotBills},
		{"auto confirmed", result("-450.00", 0.98), domain.BucketAutoConfirmed},
		{"at threshold", result("-450.00", 0.90), domain.BucketAutoConfirmed},
		{"review", result("-185.32", 0.85, 0.60), domain.BucketNeedsReview},
		{"review at floor", result("-1.00", 0.50), domain.BucketNeedsReview},
		{"weak match still reviewed", result("-1.00", 0.30), domain.BucketNeedsReview},
		{"no match", result("-60.00"), domain.BucketNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketOf(tt.result))
		})
	}
}

func TestCategorizeMatchResults(t *testing.T) {
	results := []domain.MatchResult{
		result("500.00"),
		result("-450.00", 0.98),
		result("-60.00"),
		result("-185.32", 0.85),
		result("-10.00", 0.60),
		result("12.00"),
	}

	got := CategorizeMatchResults(results)

	require.Len(t, got.NotBills, 2)
	require.Len(t, got.AutoConfirmed, 1)
	require.Len(t, got.NeedsReview, 2)
	require.Len(t, got.NoMatch, 1)

	assert.Equal(t, "500.00", got.NotBills[0].Transaction.Description)
	assert.Equal(t, "12.00", got.NotBills[1].Transaction.Description)
	assert.Equal(t, "-185.32", got.NeedsReview[0].Transaction.Description)
	assert.Equal(t, "-10.00", got.NeedsReview[1].Transaction.Description)
}

func TestCategorizeMatchResults_Empty(t *testing.T) {
	got := CategorizeMatchResults(nil)

	assert.NotNil(t, got.AutoConfirmed)
	assert.NotNil(t, got.NeedsReview)
	assert.NotNil(t, got.NoMatch)
	assert.NotNil(t, got.NotBills)
}
