package domain

// MatchMethod names the matching tier that produced a candidate.
type MatchMethod string

const (
	MatchMethodCheckNumber  MatchMethod = "check_number"
	MatchMethodVendorName   MatchMethod = "vendor_name"
	MatchMethodAmountDate   MatchMethod = "amount_date"
	MatchMethodAmountVendor MatchMethod = "amount_vendor"
	MatchMethodDescription  MatchMethod = "description"
)

// AutoConfirmThreshold is the confidence at or above which a match needs no review.
const AutoConfirmThreshold = 0.90

// ReviewThreshold is the lowest best-match confidence still considered a real candidate.
const ReviewThreshold = 0.50

// MatchCandidate pairs a bill with the confidence that a transaction paid it.
type MatchCandidate struct {
	Bill        Bill        `json:"bill"`
	Confidence  float64     `json:"confidence"`
	MatchMethod MatchMethod `json:"match_method"`
	MatchReason string      `json:"match_reason"`
}

// MatchResult is the matcher output for a single transaction.
// Matches is ordered by confidence, highest first; BestMatch is Matches[0] or nil.
type MatchResult struct {
	Transaction ParsedTransaction `json:"transaction"`
	Matches     []MatchCandidate  `json:"matches"`
	BestMatch   *MatchCandidate   `json:"best_match"`
	AutoConfirm bool              `json:"auto_confirm"`
}

// CategorizedResults buckets match results by what the reviewer should do with them.
type CategorizedResults struct {
	AutoConfirmed []MatchResult `json:"auto_confirmed"`
	NeedsReview   []MatchResult `json:"needs_review"`
	NoMatch       []MatchResult `json:"no_match"`
	NotBills      []MatchResult `json:"not_bills"`
}

// Bucket names one of the CategorizedResults dispositions.
type Bucket string

const (
	BucketAutoConfirmed Bucket = "auto_confirmed"
	BucketNeedsReview   Bucket = "needs_review"
	BucketNoMatch       Bucket = "no_match"
	BucketNotBills      Bucket = "not_bills"
)
