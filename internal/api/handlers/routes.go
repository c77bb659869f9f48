package handlers

import (
	"net/http"
)

// RegisterRoutes mounts every API endpoint on mux.
func RegisterRoutes(mux *http.ServeMux, statements *StatementsHandler, reports *ReportsHandler, jobs *JobsHandler) {
	// Statements endpoints
	mux.HandleFunc("POST /api/statements/validate", statements.Validate)
	mux.HandleFunc("POST /api/statements/parse", statements.Parse)
	mux.HandleFunc("POST /api/statements/reconcile", statements.Reconcile)
	mux.HandleFunc("POST /api/statements/import", statements.Import)

	// Reports endpoints
	mux.HandleFunc("GET /api/reports/{importID}", func(w http.ResponseWriter, r *http.Request) {
		reports.GetReport(w, r, r.PathValue("importID"))
	})

	// Jobs endpoints
	mux.HandleFunc("GET /api/jobs", jobs.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		jobs.GetJob(w, r, r.PathValue("id"))
	})

	// Health check endpoint
	mux.HandleFunc("GET /health", Health)
}
