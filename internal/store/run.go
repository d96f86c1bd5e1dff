package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type RunStore struct {
	db *sqlx.DB
}

func (rs *RunStore) Insert(ctx context.Context, run *PipelineRun) error {
	query := `INSERT INTO pipeline_runs (
		id,
		entity_id,
		fiscal_years,
		trigger_type,
		status,
		started_at,
		finished_at
	) VALUES (
		:id,
		:entity_id,
		:fiscal_years,
		:trigger_type,
		:status,
		:started_at,
		:finished_at
	)`

	_, err := rs.db.NamedExecContext(ctx, query, run)
	return err
}

func (rs *RunStore) UpdateStatus(ctx context.Context, id string, status string) error {
	query := `UPDATE pipeline_runs
	SET status = $1, finished_at = NOW()
	WHERE id = $2`

	_, err := rs.db.ExecContext(ctx, query, status, id)
	return err
}

func (rs *RunStore) GetLatest(ctx context.Context, limit int) ([]PipelineRun, error) {
	query := `SELECT id, entity_id, fiscal_years, trigger_type, status, started_at, finished_at
	FROM pipeline_runs
	ORDER BY started_at DESC
	LIMIT $1`

	var runs []PipelineRun
	if err := rs.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, err
	}
	return runs, nil
}
