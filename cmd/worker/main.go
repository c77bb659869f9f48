package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/bill-reconciler/internal/config"
	"github.com/dvloznov/bill-reconciler/internal/gcsuploader"
	bq "github.com/dvloznov/bill-reconciler/internal/bigquery"
	"github.com/dvloznov/bill-reconciler/internal/jobs"
	"github.com/dvloznov/bill-reconciler/internal/jobs/inmemory"
	"github.com/dvloznov/bill-reconciler/internal/logger"
	"github.com/dvloznov/bill-reconciler/internal/notionsync"
	"github.com/dvloznov/bill-reconciler/internal/pipeline"
	"github.com/dvloznov/bill-reconciler/internal/worker"
	"github.com/rs/zerolog"
)

// The worker reconciles the gs:// URIs given as arguments, or read from stdin
// one per line, with the same retrying queue the API uses, then exits.
func main() {
	bootLog := logger.New(zerolog.InfoLevel)
	cfg := config.Load(bootLog)

	dryRun := flag.Bool("dry-run", false, "Reconcile without recording imports")
	flag.Parse()

	log := logger.Configure(logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := cfg.RequireStore(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	repo, err := bq.NewBillRepository(ctx, cfg.GCPProject, cfg.BQDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bill repository")
	}
	defer repo.Close()

	storage, err := gcsuploader.NewClient(ctx, cfg.MaxStatementBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer storage.Close()

	deps := worker.Deps{
		Reconciler: pipeline.NewReconciler(pipeline.Deps{
			Bills:   repo,
			Ledger:  repo,
			Storage: storage,
		}),
	}
	if cfg.NotionEnabled() {
		deps.Notion = notionsync.NewReviewClient(cfg.NotionToken)
		deps.ReviewDatabase = cfg.NotionReviewDBID
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.JobQueueSize, jobStore, inmemory.QueueConfig{
		Workers:    cfg.JobWorkers,
		MaxRetries: cfg.JobMaxRetries,
	})

	if err := jobQueue.Start(ctx, worker.NewReconcileHandler(deps)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("Interrupted, cancelling jobs")
		cancel()
	}()

	uris, err := readURIs(flag.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read statement URIs")
	}

	var published []string
	for _, uri := range uris {
		job := &jobs.ReconcileStatementJob{
			GCSURI:   uri,
			Filename: gcsuploader.ExtractFilenameFromGCSURI(uri),
			DryRun:   *dryRun,
		}
		if err := jobQueue.PublishReconcileStatement(ctx, job); err != nil {
			log.Fatal().Err(err).Str("gcs_uri", uri).Msg("Failed to enqueue job")
		}
		published = append(published, job.JobID)
	}

	log.Info().Int("jobs", len(published)).Msg("Statements enqueued, waiting for completion")

	failed := waitForJobs(ctx, jobStore, published)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Int("jobs", len(published)).Int("failed", failed).Msg("Worker exited")
	if failed > 0 {
		os.Exit(1)
	}
}

// readURIs returns args when present, otherwise the non-blank, non-comment
// lines of stdin.
func readURIs(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var uris []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		uri := strings.TrimSpace(scanner.Text())
		if uri == "" || strings.HasPrefix(uri, "#") {
			continue
		}
		uris = append(uris, uri)
	}
	return uris, scanner.Err()
}

// waitForJobs polls the store until every job has reached a final state and
// returns the number that failed. On cancellation unfinished jobs count as
// failed.
func waitForJobs(ctx context.Context, store *inmemory.Store, ids []string) int {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		counts := store.StatusCounts(ids)
		failed := counts[jobs.JobStatusFailed]
		done := counts[jobs.JobStatusCompleted] + failed
		if done == len(ids) {
			return failed
		}

		select {
		case <-ctx.Done():
			return len(ids) - done + failed
		case <-ticker.C:
		}
	}
}
