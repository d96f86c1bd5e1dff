// Package store persists budget documents, validation reports and pipeline
// run history in Postgres.
package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Storage struct {
	Documents interface {
		Upsert(ctx context.Context, record *BudgetDocumentRecord) error
		Get(ctx context.Context, entityID, fiscalYear string) (*BudgetDocumentRecord, error)
		ListEntities(ctx context.Context) ([]string, error)
		ListYears(ctx context.Context, entityID string) ([]string, error)
	}

	Reports interface {
		Insert(ctx context.Context, report *ValidationReportRecord) error
		GetLatest(ctx context.Context, entityID, fiscalYear string) (*ValidationReportRecord, error)
	}

	Runs interface {
		Insert(ctx context.Context, run *PipelineRun) error
		UpdateStatus(ctx context.Context, id string, status string) error
		GetLatest(ctx context.Context, limit int) ([]PipelineRun, error)
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		Documents: &DocumentStore{db: db},
		Reports:   &ReportStore{db: db},
		Runs:      &RunStore{db: db},
	}
}
