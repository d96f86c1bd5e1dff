package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type ReportStore struct {
	db *sqlx.DB
}

func (rs *ReportStore) Insert(ctx context.Context, report *ValidationReportRecord) error {
	query := `INSERT INTO validation_reports (
		entity_id,
		fiscal_year,
		passed,
		errors,
		warnings,
		created_at
	) VALUES (
		:entity_id,
		:fiscal_year,
		:passed,
		:errors,
		:warnings,
		:created_at
	) RETURNING id`

	rows, err := rs.db.NamedQueryContext(ctx, query, report)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&report.ID); err != nil {
			return err
		}
	}
	return nil
}

// GetLatest returns the most recent report for (entity, year), or nil when
// the pair has never been validated.
func (rs *ReportStore) GetLatest(ctx context.Context, entityID, fiscalYear string) (*ValidationReportRecord, error) {
	query := `SELECT id, entity_id, fiscal_year, passed, errors, warnings, created_at
	FROM validation_reports
	WHERE entity_id = $1 AND fiscal_year = $2
	ORDER BY created_at DESC
	LIMIT 1`

	var report ValidationReportRecord
	err := rs.db.GetContext(ctx, &report, query, entityID, fiscalYear)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
