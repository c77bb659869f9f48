// Package notionsync publishes reconciliation results that need a human
// decision to a Notion review database.
package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/bill-reconciler/internal/dedup"
	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/dvloznov/bill-reconciler/internal/logger"
	"github.com/dvloznov/bill-reconciler/internal/matcher"
	"github.com/dvloznov/bill-reconciler/internal/pipeline"
	"github.com/jomei/notionapi"
)

// PageSize is the number of pages requested per database query.
const PageSize = 100

// PublishStats counts the outcome of a review-queue publish.
type PublishStats struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Failed   int `json:"failed"`
}

// PublishReviewQueue creates one review page per needs-review result of the
// report. Results whose hash is already on a page are left alone, so
// publishing the same report twice creates nothing the second time.
func PublishReviewQueue(ctx context.Context, db ReviewDatabase, databaseID string, report *pipeline.Report, dryRun bool) (PublishStats, error) {
	log := logger.FromContext(ctx).With().
		Str("import_id", report.ImportID).
		Bool("dry_run", dryRun).
		Logger()

	var stats PublishStats

	hashes, err := resultHashes(report)
	if err != nil {
		return stats, fmt.Errorf("PublishReviewQueue: %w", err)
	}

	pages, err := queryReviewPages(ctx, db, databaseID)
	if err != nil {
		return stats, fmt.Errorf("PublishReviewQueue: %w", err)
	}

	existing := make(map[string]bool, len(pages))
	for _, page := range pages {
		if h := extractHash(page); h != "" {
			existing[h] = true
		}
	}

	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing review pages")

	for i, r := range report.Results {
		if matcher.BucketOf(r) != domain.BucketNeedsReview {
			continue
		}
		hash := hashes[i]
		if existing[hash] {
			stats.Existing++
			continue
		}

		if dryRun {
			log.Info().
				Str("hash", hash).
				Str("description", r.Transaction.Description).
				Msg("[DRY RUN] Would create review page")
			stats.Created++
			continue
		}

		page, err := db.CreateReviewPage(ctx, databaseID, ReviewToNotionProperties(report.ImportID, hash, r))
		if err != nil {
			log.Warn().
				Err(err).
				Str("hash", hash).
				Msg("Failed to create review page")
			stats.Failed++
			continue
		}

		existing[hash] = true
		stats.Created++
		log.Info().
			Str("hash", hash).
			Str("page_id", string(page.ID)).
			Msg("Created review page")
	}

	log.Info().
		Int("created", stats.Created).
		Int("existing", stats.Existing).
		Int("failed", stats.Failed).
		Msg("Review queue published")

	if stats.Failed > 0 {
		return stats, fmt.Errorf("PublishReviewQueue: %d of %d pages failed", stats.Failed, stats.Failed+stats.Created)
	}
	return stats, nil
}

// resultHashes returns the dedup hash of every result. Reports decoded from
// files written before hashes were recorded carry none, so they are
// recomputed from the transactions.
func resultHashes(report *pipeline.Report) ([]string, error) {
	switch len(report.Hashes) {
	case len(report.Results):
		return report.Hashes, nil
	case 0:
		hashes := make([]string, len(report.Results))
		for i, r := range report.Results {
			hashes[i] = dedup.Hash(r.Transaction)
		}
		return hashes, nil
	default:
		return nil, fmt.Errorf("report %s has %d hashes for %d results", report.ImportID, len(report.Hashes), len(report.Results))
	}
}

// queryReviewPages collects every hashed review page, following cursors.
func queryReviewPages(ctx context.Context, db ReviewDatabase, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		resp, err := db.QueryReviewPages(ctx, databaseID, cursor)
		if err != nil {
			return nil, fmt.Errorf("queryReviewPages: %w", err)
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
