package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Analysis
	mux.HandleFunc("/api/analyze", s.app.AnalysisHandler.AnalyzeHandler)     // POST - run analysis for a date
	mux.HandleFunc("/api/results", s.app.AnalysisHandler.ListResultsHandler) // GET - recent result summaries
	mux.HandleFunc("/api/results/", s.app.AnalysisHandler.GetResultHandler)  // GET /{date} - full result
	mux.HandleFunc("/api/reports", s.app.AnalysisHandler.ListReportsHandler) // GET - rendered report files
	mux.HandleFunc("/api/reports/", s.app.AnalysisHandler.GetReportHandler)  // GET /{date} - report markdown

	// API routes - System
	mux.HandleFunc("/api/health", s.app.AnalysisHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
