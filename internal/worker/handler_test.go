package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/dvloznov/bill-reconciler/internal/gcsuploader"
	infra "github.com/dvloznov/bill-reconciler/internal/infra/bigquery"
	"github.com/dvloznov/bill-reconciler/internal/jobs"
	"github.com/dvloznov/bill-reconciler/internal/pipeline"
	"github.com/dvloznov/bill-reconciler/internal/reports"
	"github.com/dvloznov/bill-reconciler/internal/statement"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReconciler struct {
	ReconcileFunc func(ctx context.Context, req pipeline.ReconcileRequest) (*pipeline.Report, error)
	got           pipeline.ReconcileRequest
}

func (m *mockReconciler) Reconcile(ctx context.Context, req pipeline.ReconcileRequest) (*pipeline.Report, error) {
	m.got = req
	return m.ReconcileFunc(ctx, req)
}

type mockNotion struct {
	queryErr    error
	failCreates int
	created     int
	pages       []notionapi.Page
}

func (m *mockNotion) CreateReviewPage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if m.failCreates > 0 {
		m.failCreates--
		return nil, errors.New("rate limited")
	}
	m.created++
	page := notionapi.Page{Properties: properties}
	m.pages = append(m.pages, page)
	return &page, nil
}

func (m *mockNotion) QueryReviewPages(ctx context.Context, databaseID string, cursor notionapi.Cursor) (*notionapi.DatabaseQueryResponse, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return &notionapi.DatabaseQueryResponse{Results: m.pages}, nil
}

func reviewReport(importID string) *pipeline.Report {
	best := domain.MatchCandidate{Bill: domain.Bill{ID: "b1"}, Confidence: 0.85, MatchMethod: domain.MatchMethodAmountDate}
	return &pipeline.Report{
		ImportID: importID,
		Results: []domain.MatchResult{{
			Transaction: domain.ParsedTransaction{Description: "ONLINE PMT", Amount: mustDecimal("-10")},
			Matches:     []domain.MatchCandidate{best},
			BestMatch:   &best,
		}},
		Hashes: []string{"h1"},
	}
}

func TestReconcileHandler_Success(t *testing.T) {
	rec := &mockReconciler{ReconcileFunc: func(ctx context.Context, req pipeline.ReconcileRequest) (*pipeline.Report, error) {
		return reviewReport(req.ImportID), nil
	}}
	store := reports.NewStore(time.Hour)
	notion := &mockNotion{}
	handler := NewReconcileHandler(Deps{Reconciler: rec, Reports: store, Notion: notion, ReviewDatabase: "db"})

	err := handler(context.Background(), &jobs.ReconcileStatementJob{
		JobID:    "j1",
		ImportID: "imp-1",
		GCSURI:   "gs://b/statements/december.csv",
		Filename: "december.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, pipeline.ReconcileRequest{ImportID: "imp-1", SourceURI: "gs://b/statements/december.csv", Filename: "december.csv"}, rec.got)
	_, err = store.Get("imp-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, notion.created)
}

func TestReconcileHandler_ValidationIsPermanent(t *testing.T) {
	rec := &mockReconciler{ReconcileFunc: func(ctx context.Context, req pipeline.ReconcileRequest) (*pipeline.Report, error) {
		return nil, &statement.ValidationError{Code: statement.ErrEmptyFile, Message: "File is empty"}
	}}

	err := NewReconcileHandler(Deps{Reconciler: rec})(context.Background(), &jobs.ReconcileStatementJob{})

	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))
}

func TestReconcileHandler_OversizedObjectIsPermanent(t *testing.T) {
	rec := &mockReconciler{ReconcileFunc: func(ctx context.Context, req pipeline.ReconcileRequest) (*pipeline.Report, error) {
		return nil, fmt.Errorf("pipeline step 1 (fetch_statement) failed: %w", gcsuploader.ErrObjectTooLarge)
	}}

	err := NewReconcileHandler(Deps{Reconciler: rec})(context.Background(), &jobs.ReconcileStatementJob{})

	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))
}

func TestReconcileHandler_TransientErrorRetried(t *testing.T) {
	rec := &mockReconciler{ReconcileFunc: func(ctx context.Context, req pipeline.ReconcileRequest) (*pipeline.Report, error) {
		return nil, errors.New("store unavailable")
	}}

	err := NewReconcileHandler(Deps{Reconciler: rec})(context.Background(), &jobs.ReconcileStatementJob{})

	require.Error(t, err)
	assert.False(t, jobs.IsPermanent(err))
}

func TestReconcileHandler_NotionFailure(t *testing.T) {
	rec := &mockReconciler{ReconcileFunc: func(ctx context.Context, req pipeline.ReconcileRequest) (*pipeline.Report, error) {
		return reviewReport("imp-1"), nil
	}}
	store := reports.NewStore(time.Hour)
	handler := NewReconcileHandler(Deps{Reconciler: rec, Reports: store, Notion: &mockNotion{queryErr: errors.New("unauthorized")}, ReviewDatabase: "db"})

	err := handler(context.Background(), &jobs.ReconcileStatementJob{ImportID: "imp-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish review queue")
	_, getErr := store.Get("imp-1")
	assert.NoError(t, getErr, "report is kept even when publishing fails")
}

const decemberExport = `Date,Description,Amount,Running Bal.
12/05/2025,"PAYROLL DEPOSIT",500.00,"10,500.00"
12/10/2025,"ONLINE PMT NATIONAL GRID",-185.32,"10,314.68"
12/20/2025,"COFFEE SHOP",-60.00,"10,254.68"
`

type staticStorage string

func (s staticStorage) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return []byte(s), nil
}

func (s staticStorage) ExtractFilenameFromGCSURI(uri string) string {
	return "december.csv"
}

// memoryLedger records which import wrote each transaction hash.
type memoryLedger struct {
	owners  map[string]string
	inserts int
}

func (l *memoryLedger) FindImportedHashes(ctx context.Context, hashes []string) (map[string]string, error) {
	found := make(map[string]string)
	for _, h := range hashes {
		if id, ok := l.owners[h]; ok {
			found[h] = id
		}
	}
	return found, nil
}

func (l *memoryLedger) InsertStatementImport(ctx context.Context, row *infra.StatementImportRow, txRows []*infra.ImportedTransactionRow) error {
	l.inserts++
	for _, tx := range txRows {
		l.owners[tx.TransactionHash] = row.ImportID
	}
	return nil
}

func gridBill() []domain.Bill {
	return []domain.Bill{{
		ID:         "b-grid",
		Amount:     mustDecimal("185.32"),
		DueDate:    civil.Date{Year: 2025, Month: 12, Day: 3},
		Status:     domain.BillStatusPending,
		VendorName: "National Grid",
	}}
}

func countingReconciler(deps pipeline.Deps, calls *int) *mockReconciler {
	inner := pipeline.NewReconciler(deps)
	return &mockReconciler{ReconcileFunc: func(ctx context.Context, req pipeline.ReconcileRequest) (*pipeline.Report, error) {
		*calls++
		return inner.Reconcile(ctx, req)
	}}
}

func TestReconcileHandler_RetryAfterPublishFailure(t *testing.T) {
	ledger := &memoryLedger{owners: map[string]string{}}
	var calls int
	rec := countingReconciler(pipeline.Deps{
		Bills:   pipeline.StaticBills(gridBill()),
		Ledger:  ledger,
		Storage: staticStorage(decemberExport),
	}, &calls)
	store := reports.NewStore(time.Hour)
	notion := &mockNotion{failCreates: 1}
	handler := NewReconcileHandler(Deps{Reconciler: rec, Reports: store, Notion: notion, ReviewDatabase: "db"})
	job := &jobs.ReconcileStatementJob{JobID: "j1", ImportID: "imp-1", GCSURI: "gs://b/december.csv", Filename: "december.csv"}

	err := handler(context.Background(), job)
	require.Error(t, err)
	assert.False(t, jobs.IsPermanent(err))
	assert.Equal(t, 0, notion.created)
	assert.Len(t, ledger.owners, 3)

	require.NoError(t, handler(context.Background(), job))

	assert.Equal(t, 1, calls, "the cached report is republished without reconciling again")
	assert.Equal(t, 1, ledger.inserts)
	assert.Equal(t, 1, notion.created)
	report, err := store.Get("imp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.NeedsReview)
}

func TestReconcileHandler_RetryWithoutCachedReport(t *testing.T) {
	ledger := &memoryLedger{owners: map[string]string{}}
	var calls int
	rec := countingReconciler(pipeline.Deps{
		Bills:   pipeline.StaticBills(gridBill()),
		Ledger:  ledger,
		Storage: staticStorage(decemberExport),
	}, &calls)
	notion := &mockNotion{failCreates: 1}
	handler := NewReconcileHandler(Deps{Reconciler: rec, Notion: notion, ReviewDatabase: "db"})
	job := &jobs.ReconcileStatementJob{JobID: "j1", ImportID: "imp-1", GCSURI: "gs://b/december.csv"}

	require.Error(t, handler(context.Background(), job))
	require.NoError(t, handler(context.Background(), job))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, ledger.inserts, "rows recorded by the first attempt are not written again")
	assert.Equal(t, 1, notion.created, "the review item survives the rerun")
}

type otherJob struct{}

func (otherJob) GetID() string             { return "x" }
func (otherJob) GetType() jobs.JobType     { return "other" }
func (otherJob) GetStatus() jobs.JobStatus { return jobs.JobStatusPending }

func TestReconcileHandler_UnexpectedJobType(t *testing.T) {
	err := NewReconcileHandler(Deps{Reconciler: &mockReconciler{}})(context.Background(), otherJob{})

	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
