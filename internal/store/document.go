package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type DocumentStore struct {
	db *sqlx.DB
}

// Upsert inserts or replaces the document for (entity, fiscal year). The
// pipeline recomputes whole-year snapshots, so replacement is the only write
// path.
func (ds *DocumentStore) Upsert(ctx context.Context, record *BudgetDocumentRecord) error {
	query := `INSERT INTO budget_documents (
		entity_id,
		fiscal_year,
		schema_version,
		total_appropriations,
		total_revenue,
		document,
		inserted_at,
		updated_at
	) VALUES (
		:entity_id,
		:fiscal_year,
		:schema_version,
		:total_appropriations,
		:total_revenue,
		:document,
		:inserted_at,
		:updated_at
	)
	ON CONFLICT (entity_id, fiscal_year) DO UPDATE SET
		schema_version = EXCLUDED.schema_version,
		total_appropriations = EXCLUDED.total_appropriations,
		total_revenue = EXCLUDED.total_revenue,
		document = EXCLUDED.document,
		updated_at = EXCLUDED.updated_at
	RETURNING id`

	rows, err := ds.db.NamedQueryContext(ctx, query, record)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&record.ID); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the stored document, or nil when the (entity, year) pair has
// never been loaded.
func (ds *DocumentStore) Get(ctx context.Context, entityID, fiscalYear string) (*BudgetDocumentRecord, error) {
	query := `SELECT id, entity_id, fiscal_year, schema_version,
		total_appropriations, total_revenue, document, inserted_at, updated_at
	FROM budget_documents
	WHERE entity_id = $1 AND fiscal_year = $2`

	var record BudgetDocumentRecord
	err := ds.db.GetContext(ctx, &record, query, entityID, fiscalYear)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListEntities returns every entity id with at least one stored document.
func (ds *DocumentStore) ListEntities(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT entity_id FROM budget_documents ORDER BY entity_id ASC`

	var entities []string
	if err := ds.db.SelectContext(ctx, &entities, query); err != nil {
		return nil, err
	}
	return entities, nil
}

// ListYears returns the fiscal years stored for an entity, ascending.
func (ds *DocumentStore) ListYears(ctx context.Context, entityID string) ([]string, error) {
	query := `SELECT fiscal_year FROM budget_documents
	WHERE entity_id = $1 ORDER BY fiscal_year ASC`

	var years []string
	if err := ds.db.SelectContext(ctx, &years, query, entityID); err != nil {
		return nil, err
	}
	return years, nil
}
