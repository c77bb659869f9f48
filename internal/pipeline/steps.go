package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/bill-reconciler/internal/dedup"
	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/dvloznov/bill-reconciler/internal/logger"
	"github.com/dvloznov/bill-reconciler/internal/matcher"
	"github.com/dvloznov/bill-reconciler/internal/nonbill"
	"github.com/dvloznov/bill-reconciler/internal/statement"
)

// PipelineStep represents a single step in the reconciliation pipeline.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Request ReconcileRequest
	RawText string

	Parsed statement.ParseResult

	// Fresh are the parsed transactions not seen by an earlier import, in
	// parse order. Hashes is index-aligned with Fresh.
	Fresh   []domain.ParsedTransaction
	Hashes  []string
	Skipped int

	// RecordedHere holds fresh hashes an earlier attempt of this same import
	// already wrote to the ledger.
	RecordedHere map[string]bool

	Split   nonbill.Split
	Bills   []domain.Bill
	Results []domain.MatchResult
	Buckets domain.CategorizedResults
}

// Step 1: FetchStatementStep loads the raw export from storage when the
// request did not carry it inline.
type FetchStatementStep struct {
	Storage StorageService
}

func (s *FetchStatementStep) Name() string { return "fetch_statement" }

func (s *FetchStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Request.RawText != "" {
		state.RawText = state.Request.RawText
		return nil
	}
	if state.Request.SourceURI == "" {
		return fmt.Errorf("FetchStatement: request has neither raw text nor source URI")
	}
	if s.Storage == nil {
		return fmt.Errorf("FetchStatement: no storage configured for %s", state.Request.SourceURI)
	}

	data, err := s.Storage.FetchFromGCS(ctx, state.Request.SourceURI)
	if err != nil {
		return fmt.Errorf("FetchStatement: %w", err)
	}
	state.RawText = string(data)
	if state.Request.Filename == "" {
		state.Request.Filename = s.Storage.ExtractFilenameFromGCSURI(state.Request.SourceURI)
	}
	return nil
}

// Step 2: ValidateStep rejects files that do not look like a statement export.
type ValidateStep struct{}

func (s *ValidateStep) Name() string { return "validate" }

func (s *ValidateStep) Execute(ctx context.Context, state *PipelineState) error {
	return statement.Validate(state.RawText).Err()
}

// Step 3: ParseStep parses and classifies every row.
type ParseStep struct {
	Parser *statement.Parser
}

func (s *ParseStep) Name() string { return "parse" }

func (s *ParseStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Parsed = s.Parser.Parse(state.RawText)

	if n := len(state.Parsed.Errors); n > 0 {
		log := logger.FromContext(ctx)
		for i, msg := range state.Parsed.Errors {
			if i == MaxParseErrorsLogged {
				log.Warn().Int("remaining", n-i).Msg("More row errors omitted")
				break
			}
			log.Warn().Str("row_error", msg).Msg("Skipped statement row")
		}
	}
	return nil
}

// Step 4: SkipImportedStep drops transactions another import already recorded.
// Hashes recorded under the request's own import ID stay fresh, so a retried
// import reproduces its results. Without a ledger every transaction is fresh.
type SkipImportedStep struct {
	Ledger ImportLedger
}

func (s *SkipImportedStep) Name() string { return "skip_imported" }

func (s *SkipImportedStep) Execute(ctx context.Context, state *PipelineState) error {
	txs := state.Parsed.Transactions
	hashes := dedup.HashAll(txs)

	if s.Ledger == nil {
		state.Fresh = txs
		state.Hashes = hashes
		return nil
	}

	owners, err := s.Ledger.FindImportedHashes(ctx, hashes)
	if err != nil {
		return fmt.Errorf("SkipImported: %w", err)
	}

	state.Fresh = make([]domain.ParsedTransaction, 0, len(txs))
	state.Hashes = make([]string, 0, len(txs))
	state.RecordedHere = make(map[string]bool)
	for i, tx := range txs {
		if owner, ok := owners[hashes[i]]; ok {
			if owner != state.Request.ImportID {
				state.Skipped++
				continue
			}
			state.RecordedHere[hashes[i]] = true
		}
		state.Fresh = append(state.Fresh, tx)
		state.Hashes = append(state.Hashes, hashes[i])
	}
	return nil
}

// Step 5: FilterNonBillsStep splits off obvious non-bill activity for triage.
type FilterNonBillsStep struct {
	Filter *nonbill.Filter
}

func (s *FilterNonBillsStep) Name() string { return "filter_non_bills" }

func (s *FilterNonBillsStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Split = s.Filter.FilterNonBillTransactions(state.Fresh)
	return nil
}

// Step 6: LoadOpenBillsStep reads the open bills once for the whole batch.
type LoadOpenBillsStep struct {
	Bills BillSource
}

func (s *LoadOpenBillsStep) Name() string { return "load_open_bills" }

func (s *LoadOpenBillsStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Bills == nil {
		return fmt.Errorf("LoadOpenBills: no bill source configured")
	}
	bills, err := s.Bills.ListOpenBills(ctx)
	if err != nil {
		return fmt.Errorf("LoadOpenBills: %w", err)
	}
	state.Bills = bills
	return nil
}

// Step 7: MatchStep scores every fresh transaction against the open bills.
// Filtered transactions are matched too; the split is advisory.
type MatchStep struct {
	Matcher *matcher.Matcher
}

func (s *MatchStep) Name() string { return "match" }

func (s *MatchStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Results = s.Matcher.MatchTransactionsToBills(state.Fresh, state.Bills)
	return nil
}

// Step 8: CategorizeStep buckets the match results.
type CategorizeStep struct{}

func (s *CategorizeStep) Name() string { return "categorize" }

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Buckets = matcher.CategorizeMatchResults(state.Results)
	return nil
}

// Step 9: RecordImportStep writes the import to the ledger unless this is a dry
// run. Transactions an earlier attempt of the same import recorded are not
// written again; when all of them were, nothing is written.
type RecordImportStep struct {
	Ledger ImportLedger
	Now    func() time.Time
}

func (s *RecordImportStep) Name() string { return "record_import" }

func (s *RecordImportStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Ledger == nil || state.Request.DryRun {
		return nil
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	row, txRows := buildImportRows(state, now())
	if len(state.RecordedHere) > 0 {
		missing := txRows[:0:0]
		for _, r := range txRows {
			if !state.RecordedHere[r.TransactionHash] {
				missing = append(missing, r)
			}
		}
		if len(missing) == 0 {
			log := logger.FromContext(ctx)
			log.Info().Msg("Import already recorded, skipping ledger write")
			return nil
		}
		txRows = missing
	}

	if err := s.Ledger.InsertStatementImport(ctx, row, txRows); err != nil {
		return fmt.Errorf("RecordImport: %w", err)
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d (%s) not started: %w", i+1, step.Name(), err)
		}
		start := time.Now()
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
		log.Debug().Str("step", step.Name()).Dur("duration", time.Since(start)).Msg("Pipeline step completed")
	}
	return nil
}
