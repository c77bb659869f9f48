package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/bill-reconciler/internal/api/handlers"
	"github.com/dvloznov/bill-reconciler/internal/api/middleware"
	"github.com/dvloznov/bill-reconciler/internal/config"
	"github.com/dvloznov/bill-reconciler/internal/gcs"
	"github.com/dvloznov/bill-reconciler/internal/gcsuploader"
	bq "github.com/dvloznov/bill-reconciler/internal/bigquery"
	"github.com/dvloznov/bill-reconciler/internal/jobs/inmemory"
	"github.com/dvloznov/bill-reconciler/internal/logger"
	"github.com/dvloznov/bill-reconciler/internal/notionsync"
	"github.com/dvloznov/bill-reconciler/internal/pipeline"
	"github.com/dvloznov/bill-reconciler/internal/reports"
	"github.com/dvloznov/bill-reconciler/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	bootLog := logger.New(zerolog.InfoLevel)
	cfg := config.Load(bootLog)

	var (
		port   = flag.String("port", cfg.Port, "HTTP server port")
		bucket = flag.String("bucket", cfg.GCSBucket, "GCS bucket for statement imports (or set GCS_BUCKET)")
	)
	flag.Parse()

	log := logger.Configure(logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := cfg.RequireStore(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	repo, err := bq.NewBillRepository(ctx, cfg.GCPProject, cfg.BQDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bill repository")
	}
	defer repo.Close()

	var storage gcs.StorageService
	if *bucket != "" {
		client, err := gcsuploader.NewClient(ctx, cfg.MaxStatementBytes)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer client.Close()
		storage = client
	} else {
		log.Warn().Msg("No GCS bucket configured - asynchronous imports will be disabled")
	}

	reconciler := pipeline.NewReconciler(pipeline.Deps{
		Bills:   repo,
		Ledger:  repo,
		Storage: storage,
	})
	reportStore := reports.NewStore(cfg.ReportTTL)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.JobQueueSize, jobStore, inmemory.QueueConfig{
		Workers:    cfg.JobWorkers,
		MaxRetries: cfg.JobMaxRetries,
	})

	workerDeps := worker.Deps{Reconciler: reconciler, Reports: reportStore}
	if cfg.NotionEnabled() {
		workerDeps.Notion = notionsync.NewReviewClient(cfg.NotionToken)
		workerDeps.ReviewDatabase = cfg.NotionReviewDBID
	}

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Int("workers", cfg.JobWorkers).Msg("Starting job workers")
	if err := jobQueue.Start(workerCtx, worker.NewReconcileHandler(workerDeps)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	statementsHandler := handlers.NewStatementsHandler(handlers.StatementsConfig{
		Reconciler: reconciler,
		Reports:    reportStore,
		Publisher:  jobQueue,
		Storage:    storage,
		Bucket:     *bucket,
		MaxBytes:   cfg.MaxStatementBytes,
	})

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux,
		statementsHandler,
		handlers.NewReportsHandler(reportStore),
		handlers.NewJobsHandler(jobStore),
	)

	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.CORS(cfg.AllowedOrigins),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight jobs finish before cancelling the workers.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
