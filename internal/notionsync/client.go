package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// ReviewClient implements ReviewDatabase over the Notion SDK.
type ReviewClient struct {
	client *notionapi.Client
}

// NewReviewClient creates a ReviewClient authenticated with an integration token.
func NewReviewClient(token string) *ReviewClient {
	return &ReviewClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

func (c *ReviewClient) CreateReviewPage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := c.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateReviewPage: %w", err)
	}
	return page, nil
}

func (c *ReviewClient) QueryReviewPages(ctx context.Context, databaseID string, cursor notionapi.Cursor) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := c.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), hashQuery(cursor))
	if err != nil {
		return nil, fmt.Errorf("QueryReviewPages: %w", err)
	}
	return resp, nil
}

// hashQuery requests only pages with a non-empty Hash property; rows added by
// hand in the Notion UI are ignored.
func hashQuery(cursor notionapi.Cursor) *notionapi.DatabaseQueryRequest {
	return &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: PropHash,
			RichText: &notionapi.TextFilterCondition{IsNotEmpty: true},
		},
		StartCursor: cursor,
		PageSize:    PageSize,
	}
}

var _ ReviewDatabase = (*ReviewClient)(nil)
