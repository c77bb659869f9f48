package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// ReviewDatabase is the slice of the Notion API the review queue needs.
type ReviewDatabase interface {
	// CreateReviewPage adds one review item to the database.
	CreateReviewPage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryReviewPages returns one page of existing review items that carry a
	// transaction hash, starting at cursor (empty for the first page).
	QueryReviewPages(ctx context.Context, databaseID string, cursor notionapi.Cursor) (*notionapi.DatabaseQueryResponse, error)
}
