package pipeline

import (
	"context"
	"regexp"
	"time"

	"github.com/dvloznov/bill-reconciler/internal/logger"
	"github.com/dvloznov/bill-reconciler/internal/matcher"
	"github.com/dvloznov/bill-reconciler/internal/nonbill"
	"github.com/dvloznov/bill-reconciler/internal/statement"
	"github.com/google/uuid"
)

// Deps are the collaborators a Reconciler needs. Ledger and Storage are
// optional; without a ledger nothing is deduplicated or recorded.
type Deps struct {
	Bills   BillSource
	Ledger  ImportLedger
	Storage StorageService

	// Rule tables; zero values select the defaults.
	Rules           *statement.Rules
	NonBillPatterns []*regexp.Regexp
	Tiers           []matcher.Tier
}

// Reconciler runs the reconciliation pipeline for one statement at a time.
// A single Reconciler may serve concurrent calls; each call has its own state.
type Reconciler struct {
	pipeline *Pipeline
	now      func() time.Time
}

// NewReconcilePipeline creates the standard 9-step reconciliation pipeline.
func NewReconcilePipeline(deps Deps, now func() time.Time) *Pipeline {
	rules := statement.DefaultRules()
	if deps.Rules != nil {
		rules = *deps.Rules
	}
	patterns := deps.NonBillPatterns
	if patterns == nil {
		patterns = nonbill.DefaultPatterns()
	}
	tiers := deps.Tiers
	if tiers == nil {
		tiers = matcher.DefaultTiers()
	}

	return NewPipeline(
		&FetchStatementStep{Storage: deps.Storage},
		&ValidateStep{},
		&ParseStep{Parser: statement.NewParser(rules)},
		&SkipImportedStep{Ledger: deps.Ledger},
		&FilterNonBillsStep{Filter: nonbill.New(patterns)},
		&LoadOpenBillsStep{Bills: deps.Bills},
		&MatchStep{Matcher: matcher.New(tiers)},
		&CategorizeStep{},
		&RecordImportStep{Ledger: deps.Ledger, Now: now},
	)
}

// NewReconciler wires the default pipeline over deps.
func NewReconciler(deps Deps) *Reconciler {
	return &Reconciler{
		pipeline: NewReconcilePipeline(deps, time.Now),
		now:      time.Now,
	}
}

// Reconcile parses, matches and categorizes one statement. A file-level
// rejection is returned as a wrapped *statement.ValidationError.
func (r *Reconciler) Reconcile(ctx context.Context, req ReconcileRequest) (*Report, error) {
	if req.ImportID == "" {
		req.ImportID = uuid.NewString()
	}

	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"import_id": req.ImportID,
		"dry_run":   req.DryRun,
	})
	ctx = logger.WithContext(ctx, log)

	started := r.now()
	state := &PipelineState{Request: req}

	log.Info().Str("source", req.SourceURI).Msg("Starting reconciliation")

	if err := r.pipeline.Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Reconciliation failed")
		return nil, err
	}

	report := buildReport(state, started, r.now())

	log.Info().
		Int("transactions", report.Summary.Transactions).
		Int("skipped_duplicates", report.Summary.SkippedDuplicates).
		Int("auto_confirmed", report.Summary.AutoConfirmed).
		Int("needs_review", report.Summary.NeedsReview).
		Int("no_match", report.Summary.NoMatch).
		Int("not_bills", report.Summary.NotBills).
		Msg("Reconciliation completed")

	return report, nil
}

func buildReport(state *PipelineState, started, finished time.Time) *Report {
	source := state.Request.SourceURI
	if source == "" {
		source = sourceFilename(state.Request)
	}
	return &Report{
		ImportID:   state.Request.ImportID,
		Source:     source,
		DryRun:     state.Request.DryRun,
		Parse:      state.Parsed,
		NonBill:    state.Split,
		Results:    state.Results,
		Hashes:     state.Hashes,
		Buckets:    state.Buckets,
		Summary:    summarize(state),
		StartedAt:  started,
		FinishedAt: finished,
	}
}
