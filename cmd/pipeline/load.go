package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	sqlxtypes "github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/civistat/budget_pipeline/internal/budget/config"
	"github.com/civistat/budget_pipeline/internal/budget/trend"
	"github.com/civistat/budget_pipeline/internal/budget/validate"
	"github.com/civistat/budget_pipeline/internal/db"
	"github.com/civistat/budget_pipeline/internal/logger"
	"github.com/civistat/budget_pipeline/internal/store"
)

// loadIntoStore pushes the enriched documents for one entity into Postgres,
// recording the run in pipeline_runs and a fresh validation report per year.
func loadIntoStore(ctx context.Context, entity config.Entity, entityDir string, opts options, appLogger *logger.Logger) error {
	addr, maxOpen, maxIdle, idleTime := dbAddrFromEnv()

	database, err := db.New(addr, maxOpen, maxIdle, idleTime)
	if err != nil {
		return err
	}
	defer database.Close()
	appLogger.Info(component, "Database connection established")

	storage := store.NewStorage(database)
	validator := validate.New()

	docs, err := trend.LoadEntityYears(entityDir)
	if err != nil {
		return err
	}

	run := &store.PipelineRun{
		ID:          uuid.New().String(),
		EntityID:    entity.ID,
		FiscalYears: opts.years,
		TriggerType: store.TriggerTypeManual,
		Status:      store.StatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	if err := storage.Runs.Insert(ctx, run); err != nil {
		return err
	}

	loaded, failed := 0, 0
	for year, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			appLogger.Error(component, "Failed to marshal document: fiscalYear=%s error=%v", year, err)
			failed++
			continue
		}

		now := time.Now().UTC()
		record := &store.BudgetDocumentRecord{
			EntityID:            entity.ID,
			FiscalYear:          year,
			SchemaVersion:       doc.SchemaVersion,
			TotalAppropriations: doc.Metadata.TotalAppropriations,
			TotalRevenue:        doc.Metadata.TotalRevenue,
			Document:            sqlxtypes.JSONText(raw),
			InsertedAt:          now,
			UpdatedAt:           now,
		}
		if err := storage.Documents.Upsert(ctx, record); err != nil {
			appLogger.Error(component, "Failed to upsert document: fiscalYear=%s error=%v", year, err)
			failed++
			continue
		}

		report := validator.Validate(doc, nil)
		reportRecord := &store.ValidationReportRecord{
			EntityID:   entity.ID,
			FiscalYear: year,
			Passed:     report.Valid(),
			Errors:     pq.StringArray(report.Errors),
			Warnings:   pq.StringArray(report.Warnings),
			CreatedAt:  now,
		}
		if err := storage.Reports.Insert(ctx, reportRecord); err != nil {
			appLogger.Error(component, "Failed to insert validation report: fiscalYear=%s error=%v", year, err)
		}

		appLogger.Info(component, "Document loaded: entity=%s fiscalYear=%s id=%d", entity.ID, year, record.ID)
		loaded++
	}

	status := store.StatusSuccess
	switch {
	case loaded == 0:
		status = store.StatusFailure
	case failed > 0:
		status = store.StatusPartial
	}
	if err := storage.Runs.UpdateStatus(ctx, run.ID, status); err != nil {
		return err
	}

	appLogger.Info(component, "Database load finished: entity=%s loaded=%d failed=%d status=%s", entity.ID, loaded, failed, status)
	return nil
}
