package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/UnyieldingOrca/timberline-sub000/internal/analyzer"
	"github.com/UnyieldingOrca/timberline-sub000/internal/interfaces"
	"github.com/UnyieldingOrca/timberline-sub000/internal/models"
	"github.com/UnyieldingOrca/timberline-sub000/internal/services/scheduler"
)

const dateParamLayout = "2006-01-02"

// AnalysisTrigger runs one analysis pass, rejecting concurrent runs.
type AnalysisTrigger interface {
	TriggerNow(ctx context.Context, date time.Time) (*models.AnalysisResult, error)
}

// HealthReporter exposes per-component health.
type HealthReporter interface {
	HealthCheck(ctx context.Context) map[string]bool
}

// AnalysisHandler serves the analysis API: manual runs, stored results,
// rendered reports, and component health.
type AnalysisHandler struct {
	trigger       AnalysisTrigger
	health        HealthReporter
	resultStorage interfaces.ResultStorage
	reportSink    interfaces.ReportSink
	logger        arbor.ILogger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(
	trigger AnalysisTrigger,
	health HealthReporter,
	resultStorage interfaces.ResultStorage,
	reportSink interfaces.ReportSink,
	logger arbor.ILogger,
) *AnalysisHandler {
	return &AnalysisHandler{
		trigger:       trigger,
		health:        health,
		resultStorage: resultStorage,
		reportSink:    reportSink,
		logger:        logger,
	}
}

// AnalyzeHandler triggers an analysis run for the requested date.
// POST /api/analyze?date=YYYY-MM-DD (date defaults to yesterday)
func (h *AnalysisHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	date := time.Now().UTC().AddDate(0, 0, -1)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	result, err := h.trigger.TriggerNow(r.Context(), date)
	if err != nil {
		h.logger.Warn().Err(err).Str("date", date.Format(dateParamLayout)).Msg("Manual analysis failed")
		WriteError(w, statusForError(err), err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// ListResultsHandler returns recent result summaries.
// GET /api/results?limit=N
func (h *AnalysisHandler) ListResultsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	summaries, err := h.resultStorage.ListRecent(r.Context(), GetLimitParam(r, 20))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list analysis results")
		WriteError(w, http.StatusInternalServerError, "failed to list results")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": summaries,
		"count":   len(summaries),
	})
}

// GetResultHandler returns the full result for one date.
// GET /api/results/{date}
func (h *AnalysisHandler) GetResultHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	raw := r.URL.Path[len("/api/results/"):]
	date, err := time.Parse(dateParamLayout, raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	result, err := h.resultStorage.GetByDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, interfaces.ErrResultNotFound) {
			WriteError(w, http.StatusNotFound, "no result for date "+raw)
			return
		}
		h.logger.Error().Err(err).Str("date", raw).Msg("Failed to get analysis result")
		WriteError(w, http.StatusInternalServerError, "failed to get result")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// ListReportsHandler returns metadata for rendered report files.
// GET /api/reports?limit=N
func (h *AnalysisHandler) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	reports, err := h.reportSink.List(GetLimitParam(r, 20))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list reports")
		WriteError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReportHandler serves the rendered markdown report for one date.
// GET /api/reports/{date}
func (h *AnalysisHandler) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	raw := r.URL.Path[len("/api/reports/"):]
	date, err := time.Parse(dateParamLayout, raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	location, err := h.resultStorage.GetReportLocationByDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, interfaces.ErrResultNotFound) {
			WriteError(w, http.StatusNotFound, "no report for date "+raw)
			return
		}
		h.logger.Error().Err(err).Str("date", raw).Msg("Failed to get report location")
		WriteError(w, http.StatusInternalServerError, "failed to get report")
		return
	}

	content, err := h.reportSink.Read(location)
	if err != nil {
		h.logger.Error().Err(err).Str("location", location).Msg("Failed to read report file")
		WriteError(w, http.StatusInternalServerError, "failed to read report")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// HealthHandler returns per-component health and an overall flag.
// GET /api/health
func (h *AnalysisHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	components := h.health.HealthCheck(r.Context())

	status := http.StatusOK
	if !components["overall"] {
		status = http.StatusServiceUnavailable
	}

	WriteJSON(w, status, map[string]interface{}{
		"status":     statusWord(components["overall"]),
		"components": components,
	})
}

func statusWord(healthy bool) string {
	if healthy {
		return "ok"
	}
	return "degraded"
}

// statusForError maps pipeline error kinds to HTTP status codes.
func statusForError(err error) int {
	if errors.Is(err, scheduler.ErrRunInProgress) {
		return http.StatusConflict
	}
	switch analyzer.KindOf(err) {
	case analyzer.KindValidation:
		return http.StatusBadRequest
	case analyzer.KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	case analyzer.KindRetrieval:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
