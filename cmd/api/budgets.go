package main

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/civistat/budget_pipeline/internal/response"
	"github.com/civistat/budget_pipeline/internal/store"
)

type GetDocumentResponse = response.APIResponse[json.RawMessage]
type ListEntitiesResponse = response.APIResponse[[]string]
type ListYearsResponse = response.APIResponse[[]string]
type GetValidationReportResponse = response.APIResponse[*store.ValidationReportRecord]
type GetPipelineRunsResponse = response.APIResponse[[]store.PipelineRun]

var fiscalYearParam = regexp.MustCompile(`^fy\d{4}$`)

func (app *application) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	fiscalYear := chi.URLParam(r, "fiscalYear")

	if !fiscalYearParam.MatchString(fiscalYear) {
		writeJSONError(w, http.StatusBadRequest, "invalid fiscal year, expected fyNNNN")
		return
	}

	ctx := r.Context()
	record, err := app.store.Documents.Get(ctx, entityID, fiscalYear)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get budget document: "+err.Error())
		return
	}
	if record == nil {
		writeJSONError(w, http.StatusNotFound, "no budget document for "+entityID+" "+fiscalYear)
		return
	}

	response := &GetDocumentResponse{
		Success: true,
		Data:    json.RawMessage(record.Document),
		Message: "Successfully retrieved budget document",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

func (app *application) handleListEntities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entities, err := app.store.Documents.ListEntities(ctx)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list entities: "+err.Error())
		return
	}

	response := &ListEntitiesResponse{
		Success: true,
		Data:    entities,
		Message: "Successfully listed entities with budget documents",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

func (app *application) handleListYears(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	ctx := r.Context()
	years, err := app.store.Documents.ListYears(ctx, entityID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list fiscal years: "+err.Error())
		return
	}

	response := &ListYearsResponse{
		Success: true,
		Data:    years,
		Message: "Successfully listed available fiscal years",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

func (app *application) handleGetValidationReport(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	fiscalYear := chi.URLParam(r, "fiscalYear")

	if !fiscalYearParam.MatchString(fiscalYear) {
		writeJSONError(w, http.StatusBadRequest, "invalid fiscal year, expected fyNNNN")
		return
	}

	ctx := r.Context()
	report, err := app.store.Reports.GetLatest(ctx, entityID, fiscalYear)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get validation report: "+err.Error())
		return
	}
	if report == nil {
		writeJSONError(w, http.StatusNotFound, "no validation report for "+entityID+" "+fiscalYear)
		return
	}

	response := &GetValidationReportResponse{
		Success: true,
		Data:    report,
		Message: "Successfully retrieved latest validation report",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

func (app *application) handleGetPipelineRuns(w http.ResponseWriter, r *http.Request) {
	limitParam := r.URL.Query().Get("limit")
	limit := 10
	if limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil {
			limit = l
		}
	}

	ctx := r.Context()
	runs, err := app.store.Runs.GetLatest(ctx, limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get pipeline runs: "+err.Error())
		return
	}

	response := &GetPipelineRunsResponse{
		Success: true,
		Data:    runs,
		Message: "Successfully retrieved latest pipeline runs",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
