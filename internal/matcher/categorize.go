package matcher

import "github.com/dvloznov/bill-reconciler/internal/domain"

// BucketOf returns the disposition of a single match result.
func BucketOf(r domain.MatchResult) domain.Bucket {
	switch {
	case !r.Transaction.IsDebit():
		return domain.BucketNotBills
	case r.AutoConfirm:
		return domain.BucketAutoConfirmed
	case r.BestMatch != nil && r.BestMatch.Confidence >= domain.ReviewThreshold:
		return domain.BucketNeedsReview
	case len(r.Matches) > 0:
		return domain.BucketNeedsReview
	default:
		return domain.BucketNoMatch
	}
}

// CategorizeMatchResults buckets results, keeping input order within each bucket.
func CategorizeMatchResults(results []domain.MatchResult) domain.CategorizedResults {
	out := domain.CategorizedResults{
		AutoConfirmed: []domain.MatchResult{},
		NeedsReview:   []domain.MatchResult{},
		NoMatch:       []domain.MatchResult{},
		NotBills:      []domain.MatchResult{},
	}
	for _, r := range results {
		switch BucketOf(r) {
		case domain.BucketNotBills:
			out.NotBills = append(out.NotBills, r)
		case domain.BucketAutoConfirmed:
			out.AutoConfirmed = append(out.AutoConfirmed, r)
		case domain.BucketNeedsReview:
			out.NeedsReview = append(out.NeedsReview, r)
		default:
			out.NoMatch = append(out.NoMatch, r)
		}
	}
	return out
}
