package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dvloznov/bill-reconciler/internal/api/middleware"
	"github.com/dvloznov/bill-reconciler/internal/gcs"
	"github.com/dvloznov/bill-reconciler/internal/gcsuploader"
	"github.com/dvloznov/bill-reconciler/internal/jobs"
	"github.com/dvloznov/bill-reconciler/internal/logger"
	"github.com/dvloznov/bill-reconciler/internal/pipeline"
	"github.com/dvloznov/bill-reconciler/internal/reports"
	"github.com/dvloznov/bill-reconciler/internal/statement"
	"github.com/google/uuid"
)

// DefaultMaxStatementBytes caps uploads when no limit is configured.
const DefaultMaxStatementBytes int64 = 5 << 20

// StatementsHandler handles statement validation, parsing and reconciliation.
type StatementsHandler struct {
	reconciler *pipeline.Reconciler
	parser     *statement.Parser
	reports    *reports.Store
	publisher  jobs.Publisher
	storage    gcs.StorageService
	bucket     string
	maxBytes   int64
	now        func() time.Time
}

// StatementsConfig wires a StatementsHandler. Publisher, Storage and Bucket
// are only needed for asynchronous imports.
type StatementsConfig struct {
	Reconciler *pipeline.Reconciler
	Parser     *statement.Parser
	Reports    *reports.Store
	Publisher  jobs.Publisher
	Storage    gcs.StorageService
	Bucket     string
	MaxBytes   int64
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(cfg StatementsConfig) *StatementsHandler {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxStatementBytes
	}
	parser := cfg.Parser
	if parser == nil {
		parser = statement.NewParser(statement.DefaultRules())
	}
	return &StatementsHandler{
		reconciler: cfg.Reconciler,
		parser:     parser,
		reports:    cfg.Reports,
		publisher:  cfg.Publisher,
		storage:    cfg.Storage,
		bucket:     cfg.Bucket,
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

// Validate handles POST /api/statements/validate
func (h *StatementsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	raw, _, ok := h.readStatement(w, r)
	if !ok {
		return
	}

	result := statement.Validate(raw)
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnprocessableEntity
	}
	middleware.WriteJSON(w, status, result)
}

// Parse handles POST /api/statements/parse
func (h *StatementsHandler) Parse(w http.ResponseWriter, r *http.Request) {
	raw, _, ok := h.readStatement(w, r)
	if !ok {
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.parser.Parse(raw))
}

// Reconcile handles POST /api/statements/reconcile?dry_run=true|false
func (h *StatementsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	dryRun, err := parseBool(r.URL.Query().Get("dry_run"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid dry_run value")
		return
	}

	raw, filename, ok := h.readStatement(w, r)
	if !ok {
		return
	}

	report, err := h.reconciler.Reconcile(ctx, pipeline.ReconcileRequest{
		Filename: filename,
		RawText:  raw,
		DryRun:   dryRun,
	})
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		log.Error().Err(err).Msg("Failed to reconcile statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to reconcile statement")
		return
	}

	if h.reports != nil {
		h.reports.Put(report)
	}
	middleware.WriteJSON(w, http.StatusOK, report)
}

// Import handles POST /api/statements/import. The statement is validated,
// stored in GCS and reconciled by a background job.
func (h *StatementsHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if h.publisher == nil || h.storage == nil || h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Asynchronous import is not configured")
		return
	}

	dryRun, err := parseBool(r.URL.Query().Get("dry_run"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid dry_run value")
		return
	}

	raw, filename, ok := h.readStatement(w, r)
	if !ok {
		return
	}

	// Reject obvious garbage before it reaches storage.
	if err := statement.Validate(raw).Err(); err != nil {
		writeValidationError(w, err)
		return
	}

	importID := uuid.NewString()
	if filename == "" {
		filename = pipeline.DefaultFilename
	}
	objectName := gcsuploader.StatementObjectName(importID, filename, h.now())

	gcsURI, err := h.storage.UploadBytes(ctx, h.bucket, objectName, []byte(raw))
	if err != nil {
		log.Error().Err(err).Str("object", objectName).Msg("Failed to upload statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload statement")
		return
	}

	job := &jobs.ReconcileStatementJob{
		ImportID: importID,
		GCSURI:   gcsURI,
		Filename: filename,
		DryRun:   dryRun,
	}
	if err := h.publisher.PublishReconcileStatement(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue reconcile job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue reconcile job")
		return
	}

	log.Info().
		Str("job_id", job.JobID).
		Str("import_id", importID).
		Str("gcs_uri", gcsURI).
		Msg("Reconcile job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":    job.JobID,
		"import_id": importID,
		"gcs_uri":   gcsURI,
		"status":    string(job.Status),
	})
}

// readStatement returns the statement text from a raw body or a multipart
// "file" field. On failure it has already written the response.
func (h *StatementsHandler) readStatement(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	filename := filepath.Base(r.URL.Query().Get("filename"))
	if filename == "." {
		filename = ""
	}

	var src io.Reader = r.Body
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			if isTooLarge(err) {
				writeTooLarge(w, h.maxBytes)
				return "", "", false
			}
			middleware.WriteError(w, http.StatusBadRequest, "Missing file field")
			return "", "", false
		}
		defer file.Close()
		src = file
		if filename == "" {
			filename = filepath.Base(header.Filename)
		}
	}

	data, err := io.ReadAll(src)
	if err != nil {
		if isTooLarge(err) {
			writeTooLarge(w, h.maxBytes)
			return "", "", false
		}
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return "", "", false
	}
	return string(data), filename, true
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func writeTooLarge(w http.ResponseWriter, limit int64) {
	middleware.WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Statement exceeds %d bytes", limit))
}

// writeValidationError writes a 422 for file-level rejections and reports
// whether err was one.
func writeValidationError(w http.ResponseWriter, err error) bool {
	var vErr *statement.ValidationError
	if !errors.As(err, &vErr) {
		return false
	}
	middleware.WriteErrorCode(w, http.StatusUnprocessableEntity, string(vErr.Code), vErr.Message)
	return true
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// ReportsHandler serves reports of recent reconciliations.
type ReportsHandler struct {
	store *reports.Store
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(store *reports.Store) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// GetReport handles GET /api/reports/{importID}
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request, importID string) {
	report, err := h.store.Get(importID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Report not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, report)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore) *JobsHandler {
	return &JobsHandler{store: store}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		if !errors.Is(err, jobs.ErrJobNotFound) {
			log := logger.FromContext(ctx)
			log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		}
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		ImportID: query.Get("import_id"),
		Status:   jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

