package store

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// BudgetDocumentRecord represents the 'budget_documents' table. The full
// document is stored as JSONB alongside the totals used for listing.
type BudgetDocumentRecord struct {
	ID                  int64          `db:"id"`
	EntityID            string         `db:"entity_id"`
	FiscalYear          string         `db:"fiscal_year"`
	SchemaVersion       string         `db:"schema_version"`
	TotalAppropriations int64          `db:"total_appropriations"`
	TotalRevenue        *int64         `db:"total_revenue"`
	Document            types.JSONText `db:"document"`
	InsertedAt          time.Time      `db:"inserted_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

// ValidationReportRecord represents the 'validation_reports' table.
type ValidationReportRecord struct {
	ID         int64          `db:"id"`
	EntityID   string         `db:"entity_id"`
	FiscalYear string         `db:"fiscal_year"`
	Passed     bool           `db:"passed"`
	Errors     pq.StringArray `db:"errors"`
	Warnings   pq.StringArray `db:"warnings"`
	CreatedAt  time.Time      `db:"created_at"`
}

// PipelineRun represents the 'pipeline_runs' table.
type PipelineRun struct {
	ID          string         `db:"id"`
	EntityID    string         `db:"entity_id"`
	FiscalYears pq.StringArray `db:"fiscal_years"`
	TriggerType string         `db:"trigger_type"`
	Status      string         `db:"status"`
	StartedAt   time.Time      `db:"started_at"`
	FinishedAt  *time.Time     `db:"finished_at"`
}

var (
	TriggerTypeManual    = "manual"
	TriggerTypeScheduled = "scheduled"
)

var (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusPartial = "partial"
)
