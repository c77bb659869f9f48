package notionsync

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/bill-reconciler/internal/dedup"
	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/dvloznov/bill-reconciler/internal/pipeline"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNotion struct {
	pages   [][]notionapi.Page
	cursors []notionapi.Cursor
	created []notionapi.Properties
	failOn  string
}

func (m *mockNotion) CreateReviewPage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if m.failOn != "" {
		if p, ok := properties[PropHash].(notionapi.RichTextProperty); ok && p.RichText[0].Text.Content == m.failOn {
			return nil, errors.New("rate limited")
		}
	}
	m.created = append(m.created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID("page-new")}, nil
}

func (m *mockNotion) QueryReviewPages(ctx context.Context, databaseID string, cursor notionapi.Cursor) (*notionapi.DatabaseQueryResponse, error) {
	m.cursors = append(m.cursors, cursor)
	i := len(m.cursors) - 1
	if i >= len(m.pages) {
		return &notionapi.DatabaseQueryResponse{}, nil
	}
	resp := &notionapi.DatabaseQueryResponse{Results: m.pages[i]}
	if i < len(m.pages)-1 {
		resp.HasMore = true
		resp.NextCursor = notionapi.Cursor("cursor-" + string(rune('a'+i)))
	}
	return resp, nil
}

func hashPage(hash string) notionapi.Page {
	return notionapi.Page{
		Properties: notionapi.Properties{
			PropHash: &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: hash}},
			},
		},
	}
}

func reviewReport() *pipeline.Report {
	bill := domain.Bill{ID: "b-grid", Description: "Electric", VendorName: "National Grid"}
	candidate := domain.MatchCandidate{
		Bill:        bill,
		Confidence:  0.85,
		MatchMethod: domain.MatchMethodAmountDate,
		MatchReason: "Amount 185.32 matches",
	}
	review := func(desc string) domain.MatchResult {
		c := candidate
		return domain.MatchResult{
			Transaction: domain.ParsedTransaction{
				Date:        civil.Date{Year: 2025, Month: 12, Day: 10},
				Description: desc,
				Amount:      decimal.RequireFromString("-185.32"),
				Category:    domain.CategoryACHAutopay,
			},
			Matches:   []domain.MatchCandidate{c},
			BestMatch: &c,
		}
	}

	return &pipeline.Report{
		ImportID: "imp-1",
		Results: []domain.MatchResult{
			review("GRID ONE"),
			{Transaction: domain.ParsedTransaction{Description: "PAYROLL", Amount: decimal.RequireFromString("500")}},
			review("GRID TWO"),
		},
		Hashes: []string{"h1", "h2", "h3"},
	}
}

func TestPublishReviewQueue_CreatesMissingPages(t *testing.T) {
	m := &mockNotion{pages: [][]notionapi.Page{{hashPage("h1")}}}

	stats, err := PublishReviewQueue(context.Background(), m, "db", reviewReport(), false)
	require.NoError(t, err)

	assert.Equal(t, PublishStats{Created: 1, Existing: 1}, stats)
	require.Len(t, m.created, 1)
	props := m.created[0]
	assert.Equal(t, "GRID TWO", props[PropDescription].(notionapi.TitleProperty).Title[0].Text.Content)
	assert.Equal(t, "h3", props[PropHash].(notionapi.RichTextProperty).RichText[0].Text.Content)
	assert.Equal(t, -185.32, props[PropAmount].(notionapi.NumberProperty).Number)
	assert.Equal(t, 0.85, props[PropConfidence].(notionapi.NumberProperty).Number)
	assert.Equal(t, "amount_date", props[PropMethod].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "Electric (b-grid)", props[PropBestBill].(notionapi.RichTextProperty).RichText[0].Text.Content)
}

func TestPublishReviewQueue_Idempotent(t *testing.T) {
	m := &mockNotion{pages: [][]notionapi.Page{{hashPage("h1"), hashPage("h3")}}}

	stats, err := PublishReviewQueue(context.Background(), m, "db", reviewReport(), false)
	require.NoError(t, err)

	assert.Equal(t, PublishStats{Existing: 2}, stats)
	assert.Empty(t, m.created)
}

func TestPublishReviewQueue_DryRun(t *testing.T) {
	m := &mockNotion{}

	stats, err := PublishReviewQueue(context.Background(), m, "db", reviewReport(), true)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Created)
	assert.Empty(t, m.created)
}

func TestPublishReviewQueue_Paginates(t *testing.T) {
	m := &mockNotion{pages: [][]notionapi.Page{{hashPage("h1")}, {hashPage("h3")}}}

	stats, err := PublishReviewQueue(context.Background(), m, "db", reviewReport(), false)
	require.NoError(t, err)

	require.Len(t, m.cursors, 2)
	assert.Empty(t, m.cursors[0])
	assert.Equal(t, notionapi.Cursor("cursor-a"), m.cursors[1])
	assert.Equal(t, 2, stats.Existing)
}

func TestPublishReviewQueue_CreateFailure(t *testing.T) {
	m := &mockNotion{failOn: "h1"}

	stats, err := PublishReviewQueue(context.Background(), m, "db", reviewReport(), false)

	require.Error(t, err)
	assert.Equal(t, PublishStats{Created: 1, Failed: 1}, stats)
	assert.Len(t, m.created, 1)
}

func TestPublishReviewQueue_ReportWithoutHashes(t *testing.T) {
	report := reviewReport()
	report.Hashes = nil
	m := &mockNotion{}

	stats, err := PublishReviewQueue(context.Background(), m, "db", report, false)
	require.NoError(t, err)

	assert.Equal(t, PublishStats{Created: 2}, stats)
	require.Len(t, m.created, 2)
	want := dedup.Hash(report.Results[0].Transaction)
	assert.Equal(t, want, m.created[0][PropHash].(notionapi.RichTextProperty).RichText[0].Text.Content)
}

func TestPublishReviewQueue_MisalignedHashes(t *testing.T) {
	report := reviewReport()
	report.Hashes = report.Hashes[:1]
	m := &mockNotion{}

	_, err := PublishReviewQueue(context.Background(), m, "db", report, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 hashes for 3 results")
	assert.Empty(t, m.created)
	assert.Empty(t, m.cursors, "nothing is queried for a malformed report")
}

func TestHashQuery(t *testing.T) {
	req := hashQuery("next")

	assert.Equal(t, notionapi.Cursor("next"), req.StartCursor)
	assert.Equal(t, PageSize, req.PageSize)
	filter, ok := req.Filter.(*notionapi.PropertyFilter)
	require.True(t, ok)
	assert.Equal(t, PropHash, filter.Property)
	assert.True(t, filter.RichText.IsNotEmpty)
}

func TestExtractHash(t *testing.T) {
	assert.Equal(t, "abc", extractHash(hashPage("abc")))
	assert.Equal(t, "", extractHash(notionapi.Page{}))

	byValue := notionapi.Page{Properties: notionapi.Properties{
		PropHash: notionapi.RichTextProperty{RichText: richText("def")},
	}}
	assert.Equal(t, "def", extractHash(byValue))
}

func TestReviewToNotionProperties_NoBestMatch(t *testing.T) {
	props := ReviewToNotionProperties("imp", "h", domain.MatchResult{
		Transaction: domain.ParsedTransaction{Description: "X", Amount: decimal.RequireFromString("-1")},
	})

	assert.NotContains(t, props, PropBestBill)
	assert.NotContains(t, props, PropConfidence)
	assert.Equal(t, float64(0), props[PropCandidates].(notionapi.NumberProperty).Number)
}
