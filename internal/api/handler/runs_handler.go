package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"consumption-pipeline/internal/model"
	"consumption-pipeline/internal/pipeline"
	"consumption-pipeline/internal/store"
	"consumption-pipeline/pkg/router"
	"consumption-pipeline/pkg/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// RunReader is the read side of the run history
type RunReader interface {
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)
	GetRun(ctx context.Context, runID string) (*model.RunSummary, error)
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// TablesResponse lists the target tables for a logical date
type TablesResponse struct {
	Date   string                  `json:"date"`
	Tables []model.TableDescriptor `json:"tables"`
}

type RunsHandler struct {
	runs   RunReader
	logger *zap.Logger
	now    func() time.Time
}

func NewRunsHandler(runs RunReader, logger *zap.Logger) *RunsHandler {
	return &RunsHandler{runs: runs, logger: logger, now: time.Now}
}

// ListRuns returns the most recent runs
// @Summary List runs
// @Description Most recent pipeline runs, newest first
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum number of runs" default(50)
// @Success 200 {array} model.RunSummary
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/runs [get]
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch runs")
		return
	}
	if runs == nil {
		runs = []model.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun returns one run with its stages, load and verification results
// @Summary Get run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.RunSummary
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/runs/{id} [get]
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.fetchRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetRunReport derives the duration report from recorded stage progress
// @Summary Get run report
// @Description Per-stage durations with the longest and shortest stage. Only completed stages before run_information count.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.RunReport
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/runs/{id}/report [get]
func (h *RunsHandler) GetRunReport(w http.ResponseWriter, r *http.Request) {
	run, ok := h.fetchRun(w, r)
	if !ok {
		return
	}
	if run.Status != model.RunSuccess {
		writeError(w, http.StatusConflict, "report is only available for successful runs")
		return
	}

	var (
		durations  []model.StageDuration
		start, end time.Time
	)
	byStage := make(map[string]model.StageProgress, len(run.Stages))
	for _, p := range run.Stages {
		byStage[p.Stage] = p
	}
	for _, stage := range model.Stages {
		p, ok := byStage[stage]
		if !ok || p.Status != model.StageCompleted {
			continue
		}
		if stage == model.StageRunInfo {
			end = p.StartTime
			continue
		}
		if start.IsZero() {
			start = p.StartTime
		}
		durations = append(durations, model.StageDuration{Stage: stage, Duration: p.Duration()})
	}
	if end.IsZero() {
		end = run.UpdatedAt
	}

	report := pipeline.BuildRunReport(start, end, durations)
	report.RunID = run.ID
	report.LogicalTime = run.LogicalTime
	writeJSON(w, http.StatusOK, report)
}

// ListTables returns the target table names for a logical date
// @Summary Target tables
// @Tags tables
// @Produce json
// @Param date query string false "Logical date (YYYY-MM-DD or YYYYMMDD), default today"
// @Success 200 {object} TablesResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/tables [get]
func (h *RunsHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	date, err := utils.ParseLogicalTime(r.URL.Query().Get("date"), h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, TablesResponse{
		Date:   date.Format("2006-01-02"),
		Tables: model.TablesFor(date),
	})
}

// Health reports liveness
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *RunsHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fetchRun loads the run named by the path segment after /api/v1/runs/
func (h *RunsHandler) fetchRun(w http.ResponseWriter, r *http.Request) (*model.RunSummary, bool) {
	runID := router.Segment(r, 3)
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run ID is required")
		return nil, false
	}

	run, err := h.runs.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to fetch run", zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch run")
		return nil, false
	}
	return run, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
