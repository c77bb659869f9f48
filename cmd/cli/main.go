package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bq "github.com/dvloznov/bill-reconciler/internal/bigquery"
	"github.com/dvloznov/bill-reconciler/internal/config"
	"github.com/dvloznov/bill-reconciler/internal/domain"
	"github.com/dvloznov/bill-reconciler/internal/gcsuploader"
	"github.com/dvloznov/bill-reconciler/internal/logger"
	"github.com/dvloznov/bill-reconciler/internal/notionsync"
	"github.com/dvloznov/bill-reconciler/internal/pipeline"
	"github.com/dvloznov/bill-reconciler/internal/statement"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	bootLog := logger.New(zerolog.InfoLevel)
	cfg := config.Load(bootLog)
	log := logger.Configure(logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		runValidate(log)
	case "parse":
		runParse(log)
	case "reconcile":
		runReconcile(log, cfg)
	case "upload":
		runUpload(log, cfg)
	case "publish-review":
		runPublishReview(log, cfg)
	case "imports":
		runImports(log, cfg)
	case "forget":
		runForget(log, cfg)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Bill Reconciler CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  validate        Check that a file looks like a statement export")
	fmt.Println("  parse           Parse a statement export and print its transactions")
	fmt.Println("  reconcile       Match a statement against open bills")
	fmt.Println("  upload          Upload a statement export to GCS")
	fmt.Println("  publish-review  Publish the needs-review results of a saved report to Notion")
	fmt.Println("  imports         List recorded statement imports")
	fmt.Println("  forget          Delete a recorded import so it can be reconciled again")
	fmt.Println("  help            Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func readStatementFile(log zerolog.Logger, path string) string {
	if path == "" {
		log.Fatal().Msg("Error: -file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read file")
	}
	return string(data)
}

func printJSON(log zerolog.Logger, v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}
}

func openRepository(ctx context.Context, log zerolog.Logger, cfg *config.Config) bq.BillRepository {
	if err := cfg.RequireStore(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	repo, err := bq.NewBillRepository(ctx, cfg.GCPProject, cfg.BQDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bill repository")
	}
	return repo
}

func runValidate(log zerolog.Logger) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to the statement export")
	fs.Parse(os.Args[2:])

	result := statement.Validate(readStatementFile(log, *filePath))
	printJSON(log, result)
	if !result.Valid {
		os.Exit(1)
	}
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to the statement export")
	fs.Parse(os.Args[2:])

	raw := readStatementFile(log, *filePath)
	if err := statement.Validate(raw).Err(); err != nil {
		log.Fatal().Err(err).Msg("Statement rejected")
	}

	result := statement.NewParser(statement.DefaultRules()).Parse(raw)
	log.Info().
		Int("transactions", result.Stats.Total).
		Int("errors", len(result.Errors)).
		Msg("Statement parsed")
	printJSON(log, result)
}

func runReconcile(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to the statement export")
	billsPath := fs.String("bills", "", "JSON file of bills to match against instead of BigQuery")
	dryRun := fs.Bool("dry-run", false, "Do not record the import")
	outPath := fs.String("out", "", "Write the report to this file instead of stdout")
	fs.Parse(os.Args[2:])

	raw := readStatementFile(log, *filePath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var deps pipeline.Deps
	if *billsPath != "" {
		bills, err := loadBills(*billsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load bills")
		}
		deps.Bills = pipeline.StaticBills(bills)
		log.Info().Int("bills", len(bills)).Msg("Matching against bills file, import will not be recorded")
	} else {
		repo := openRepository(ctx, log, cfg)
		defer repo.Close()
		deps.Bills = repo
		deps.Ledger = repo
	}

	report, err := pipeline.NewReconciler(deps).Reconcile(ctx, pipeline.ReconcileRequest{
		Filename: filepath.Base(*filePath),
		RawText:  raw,
		DryRun:   *dryRun,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Reconciliation failed")
	}

	if *outPath == "" {
		printJSON(log, report)
		return
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Fatal().Err(err).Str("file", *outPath).Msg("Failed to write report")
	}

	s := report.Summary
	fmt.Printf("Import %s: %d transactions, %d auto-confirmed, %d need review, %d unmatched, %d not bills (report: %s)\n",
		report.ImportID, s.Transactions, s.AutoConfirmed, s.NeedsReview, s.NoMatch, s.NotBills, *outPath)
}

func loadBills(path string) ([]domain.Bill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loadBills: reading %s: %w", path, err)
	}
	var bills []domain.Bill
	if err := json.Unmarshal(data, &bills); err != nil {
		return nil, fmt.Errorf("loadBills: decoding %s: %w", path, err)
	}
	return bills, nil
}

func runUpload(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", cfg.GCSBucket, "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to statements/<yyyy-mm>/<import-id>/<filename>)")
	filePath := fs.String("file", "", "Path to the statement export")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}

	raw := readStatementFile(log, *filePath)
	if err := statement.Validate(raw).Err(); err != nil {
		log.Fatal().Err(err).Msg("Statement rejected")
	}

	if *objectName == "" {
		*objectName = gcsuploader.StatementObjectName(uuid.NewString(), filepath.Base(*filePath), time.Now())
	}

	ctx := logger.WithContext(context.Background(), log)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading statement to GCS")

	client, err := gcsuploader.NewClient(ctx, cfg.MaxStatementBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer client.Close()

	uri, err := client.UploadBytes(ctx, *bucketName, *objectName, []byte(raw))
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

func runPublishReview(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("publish-review", flag.ExitOnError)
	reportPath := fs.String("file", "", "Report JSON written by 'cli reconcile -out'")
	dryRun := fs.Bool("dry-run", false, "Log pages without creating them")
	fs.Parse(os.Args[2:])

	if *reportPath == "" {
		log.Fatal().Msg("Error: -file is required")
	}
	if !cfg.NotionEnabled() {
		log.Fatal().Msg("NOTION_TOKEN and NOTION_REVIEW_DB_ID must be set")
	}

	data, err := os.ReadFile(*reportPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *reportPath).Msg("Failed to read report")
	}
	var report pipeline.Report
	if err := json.Unmarshal(data, &report); err != nil {
		log.Fatal().Err(err).Msg("Failed to decode report")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	stats, err := notionsync.PublishReviewQueue(ctx, notionsync.NewReviewClient(cfg.NotionToken), cfg.NotionReviewDBID, &report, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Publishing review queue failed")
	}

	fmt.Printf("Review queue: %d created, %d already present, %d failed\n", stats.Created, stats.Existing, stats.Failed)
}

func runImports(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("imports", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum number of imports to list")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	repo := openRepository(ctx, log, cfg)
	defer repo.Close()

	rows, err := repo.ListStatementImports(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list imports")
	}

	fmt.Printf("\n=== Statement Imports (%d) ===\n", len(rows))
	for _, row := range rows {
		fmt.Printf("\n%s  %s\n", row.ImportID, row.SourceFilename)
		fmt.Printf("   Created:  %s\n", row.CreatedTS.Format(time.RFC3339))
		if row.DateRangeStart.Valid && row.DateRangeEnd.Valid {
			fmt.Printf("   Period:   %s to %s\n", row.DateRangeStart.Date, row.DateRangeEnd.Date)
		}
		fmt.Printf("   Counts:   %d transactions, %d duplicates skipped, %d parse errors\n",
			row.TransactionCount, row.SkippedDuplicates, row.ParseErrorCount)
		fmt.Printf("   Outcome:  %d auto-confirmed, %d need review, %d unmatched, %d not bills\n",
			row.AutoConfirmed, row.NeedsReview, row.NoMatch, row.NotBills)
	}
	fmt.Println()
}

func runForget(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("forget", flag.ExitOnError)
	importID := fs.String("import-id", "", "Import ID to delete")
	fs.Parse(os.Args[2:])

	if *importID == "" {
		log.Fatal().Msg("Error: -import-id is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	repo := openRepository(ctx, log, cfg)
	defer repo.Close()

	if err := repo.DeleteImport(ctx, *importID); err != nil {
		log.Fatal().Err(err).Msg("Failed to delete import")
	}

	fmt.Printf("Import %s forgotten; its transactions will be reconciled again on the next import.\n", *importID)
}
