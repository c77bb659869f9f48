// Package worker turns queued reconcile jobs into pipeline runs.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/bill-reconciler/internal/gcsuploader"
	"github.com/dvloznov/bill-reconciler/internal/jobs"
	"github.com/dvloznov/bill-reconciler/internal/logger"
	"github.com/dvloznov/bill-reconciler/internal/notionsync"
	"github.com/dvloznov/bill-reconciler/internal/pipeline"
	"github.com/dvloznov/bill-reconciler/internal/reports"
	"github.com/dvloznov/bill-reconciler/internal/statement"
)

// Reconciler runs one statement through the pipeline.
type Reconciler interface {
	Reconcile(ctx context.Context, req pipeline.ReconcileRequest) (*pipeline.Report, error)
}

// Deps wires the handler. Reports and Notion are optional.
type Deps struct {
	Reconciler Reconciler
	Reports    *reports.Store

	Notion         notionsync.ReviewDatabase
	ReviewDatabase string
}

// NewReconcileHandler returns a JobHandler for ReconcileStatementJob. File
// rejections and oversized objects are marked permanent so the queue does not
// retry them. When a report for the job's import is already cached, the
// pipeline is not run again and only the review queue is published.
func NewReconcileHandler(deps Deps) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		reconcileJob, ok := job.(*jobs.ReconcileStatementJob)
		if !ok {
			return jobs.Permanent(fmt.Errorf("unexpected job type: %T", job))
		}

		log := logger.FromContext(ctx)
		log.Info().Str("gcs_uri", reconcileJob.GCSURI).Msg("Processing reconcile job")

		report, err := cachedReport(deps.Reports, reconcileJob.ImportID)
		if err != nil {
			return err
		}
		if report != nil {
			log.Info().Str("import_id", report.ImportID).Msg("Import already reconciled, republishing review queue")
		} else {
			report, err = deps.Reconciler.Reconcile(ctx, pipeline.ReconcileRequest{
				ImportID:  reconcileJob.ImportID,
				SourceURI: reconcileJob.GCSURI,
				Filename:  reconcileJob.Filename,
				DryRun:    reconcileJob.DryRun,
			})
			if err != nil {
				var vErr *statement.ValidationError
				if errors.As(err, &vErr) || errors.Is(err, gcsuploader.ErrObjectTooLarge) {
					return jobs.Permanent(err)
				}
				return err
			}

			if deps.Reports != nil {
				deps.Reports.Put(report)
			}
		}

		if deps.Notion != nil && deps.ReviewDatabase != "" {
			// Review pages are keyed by hash. A retry republishes the cached
			// report and only creates the missing pages.
			if _, err := notionsync.PublishReviewQueue(ctx, deps.Notion, deps.ReviewDatabase, report, reconcileJob.DryRun); err != nil {
				return fmt.Errorf("publish review queue: %w", err)
			}
		}

		return nil
	}
}

// cachedReport returns the report an earlier attempt of the same import
// stored, or nil when there is none.
func cachedReport(store *reports.Store, importID string) (*pipeline.Report, error) {
	if store == nil || importID == "" {
		return nil, nil
	}
	report, err := store.Get(importID)
	if errors.Is(err, reports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cached report: %w", err)
	}
	return report, nil
}
