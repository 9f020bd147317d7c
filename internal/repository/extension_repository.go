package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-ledger-api/internal/models"
)

// ExtensionRepository stores typed extension fields and their schemas.
type ExtensionRepository struct {
	db *sqlx.DB
}

// NewExtensionRepository constructs the repository.
func NewExtensionRepository(db *sqlx.DB) *ExtensionRepository {
	return &ExtensionRepository{db: db}
}

// GetSchema returns the JSON Schema configured for an entity.
func (r *ExtensionRepository) GetSchema(ctx context.Context, entity string) (*models.ExtensionFieldSchema, error) {
	const query = `SELECT entity, schema, updated_at FROM extension_field_schemas WHERE entity = $1`
	var schema models.ExtensionFieldSchema
	if err := r.db.GetContext(ctx, &schema, query, entity); err != nil {
		return nil, err
	}
	return &schema, nil
}

// ListFields returns the extension fields owned by an entity instance.
func (r *ExtensionRepository) ListFields(ctx context.Context, entity, entityID string) ([]models.ExtensionField, error) {
	const query = `SELECT entity, entity_id, key, value, updated_at FROM extension_fields WHERE entity = $1 AND entity_id = $2 ORDER BY key ASC`
	var fields []models.ExtensionField
	if err := r.db.SelectContext(ctx, &fields, query, entity, entityID); err != nil {
		return nil, fmt.Errorf("list extension fields: %w", err)
	}
	return fields, nil
}

// ReplaceFields swaps the full field set of an entity instance in one transaction.
func (r *ExtensionRepository) ReplaceFields(ctx context.Context, entity, entityID string, fields []models.ExtensionField) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin extension fields tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM extension_fields WHERE entity = $1 AND entity_id = $2`, entity, entityID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear extension fields: %w", err)
	}
	now := time.Now().UTC()
	const insert = `INSERT INTO extension_fields (entity, entity_id, key, value, updated_at) VALUES ($1, $2, $3, $4, $5)`
	for i := range fields {
		fields[i].Entity = entity
		fields[i].EntityID = entityID
		fields[i].UpdatedAt = now
		if _, err := tx.ExecContext(ctx, insert, entity, entityID, fields[i].Key, []byte(fields[i].Value), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert extension field %s: %w", fields[i].Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit extension fields tx: %w", err)
	}
	return nil
}
