package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

func (s *PostgresStore) InsertChecklistTemplate(ctx context.Context, template ChecklistTemplate) error {
	categories, items, err := marshalTemplatePayload(template)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checklist_templates (id, organizer_id, name, description, categories, items)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb)
	`, template.ID, template.OrganizerID, template.Name, template.Description, categories, items)
	if err != nil {
		return fmt.Errorf("insert checklist template: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetChecklistTemplate(ctx context.Context, templateID string) (ChecklistTemplate, error) {
	var template ChecklistTemplate
	var categoriesRaw, itemsRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, organizer_id, name, description, categories, items, created_at, updated_at
		FROM checklist_templates WHERE id=$1
	`, templateID).Scan(
		&template.ID,
		&template.OrganizerID,
		&template.Name,
		&template.Description,
		&categoriesRaw,
		&itemsRaw,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return ChecklistTemplate{}, err
	}
	if err := json.Unmarshal(categoriesRaw, &template.Categories); err != nil {
		return ChecklistTemplate{}, fmt.Errorf("decode template categories: %w", err)
	}
	if err := json.Unmarshal(itemsRaw, &template.Items); err != nil {
		return ChecklistTemplate{}, fmt.Errorf("decode template items: %w", err)
	}
	return template, nil
}

func (s *PostgresStore) ListChecklistTemplates(ctx context.Context, organizerID string) ([]ChecklistTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organizer_id, name, description, categories, items, created_at, updated_at
		FROM checklist_templates WHERE organizer_id=$1
		ORDER BY name ASC
	`, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list checklist templates: %w", err)
	}
	defer rows.Close()

	items := make([]ChecklistTemplate, 0)
	for rows.Next() {
		var template ChecklistTemplate
		var categoriesRaw, itemsRaw []byte
		if err := rows.Scan(
			&template.ID,
			&template.OrganizerID,
			&template.Name,
			&template.Description,
			&categoriesRaw,
			&itemsRaw,
			&template.CreatedAt,
			&template.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan checklist template: %w", err)
		}
		if err := json.Unmarshal(categoriesRaw, &template.Categories); err != nil {
			return nil, fmt.Errorf("decode template categories: %w", err)
		}
		if err := json.Unmarshal(itemsRaw, &template.Items); err != nil {
			return nil, fmt.Errorf("decode template items: %w", err)
		}
		items = append(items, template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checklist templates: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateChecklistTemplate(ctx context.Context, template ChecklistTemplate) error {
	categories, items, err := marshalTemplatePayload(template)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE checklist_templates
		SET name=$2, description=$3, categories=$4::jsonb, items=$5::jsonb, updated_at=NOW()
		WHERE id=$1
	`, template.ID, template.Name, template.Description, categories, items)
	if err != nil {
		return fmt.Errorf("update checklist template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update checklist template rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteChecklistTemplate(ctx context.Context, templateID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM checklist_templates WHERE id=$1`, templateID)
	if err != nil {
		return fmt.Errorf("delete checklist template: %w", err)
	}
	return nil
}

func marshalTemplatePayload(template ChecklistTemplate) (categories string, items string, err error) {
	cats := template.Categories
	if cats == nil {
		cats = []string{}
	}
	encodedCats, err := json.Marshal(cats)
	if err != nil {
		return "", "", fmt.Errorf("marshal template categories: %w", err)
	}
	tplItems := template.Items
	if tplItems == nil {
		tplItems = []TemplateItem{}
	}
	encodedItems, err := json.Marshal(tplItems)
	if err != nil {
		return "", "", fmt.Errorf("marshal template items: %w", err)
	}
	return string(encodedCats), string(encodedItems), nil
}

// InsertChecklistInstance writes a new instance. The identity key is guarded
// by a unique index, so a concurrent create of the same key loses the race
// cleanly: the insert becomes a no-op and inserted reports false.
func (s *PostgresStore) InsertChecklistInstance(ctx context.Context, instance ChecklistInstance) (inserted bool, err error) {
	items := instance.Items
	if items == nil {
		items = []InstanceItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return false, fmt.Errorf("marshal instance items: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO checklist_instances (id, trip_id, template_id, name, boat_id, role, user_id, items)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
		ON CONFLICT (trip_id, template_id, (COALESCE(boat_id, '')), (COALESCE(role, '')), (COALESCE(user_id, ''))) DO NOTHING
	`, instance.ID, instance.TripID, instance.TemplateID, instance.Name, instance.BoatID, instance.Role, instance.UserID, string(encoded))
	if err != nil {
		return false, fmt.Errorf("insert checklist instance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert checklist instance rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) GetChecklistInstance(ctx context.Context, instanceID string) (ChecklistInstance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, trip_id, template_id, name, boat_id, role, user_id, items, created_at, updated_at
		FROM checklist_instances WHERE id=$1
	`, instanceID)
	return scanInstanceRow(row)
}

// QueryChecklistInstancesByKey runs the identity-keyed lookup. Deployments
// still on a pre-key schema surface ErrKeyedQueryUnsupported so the caller
// can fall back to ListChecklistInstancesByTrip plus in-memory filtering.
func (s *PostgresStore) QueryChecklistInstancesByKey(ctx context.Context, tripID, templateID string, boatID, role, userID *string) ([]ChecklistInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, template_id, name, boat_id, role, user_id, items, created_at, updated_at
		FROM checklist_instances
		WHERE trip_id=$1 AND template_id=$2
		  AND boat_id IS NOT DISTINCT FROM $3
		  AND role IS NOT DISTINCT FROM $4
		  AND user_id IS NOT DISTINCT FROM $5
		ORDER BY created_at ASC
	`, tripID, templateID, boatID, role, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "42703" || pgErr.Code == "42P01") {
			return nil, fmt.Errorf("%w: %s", ErrKeyedQueryUnsupported, pgErr.Code)
		}
		return nil, fmt.Errorf("query instances by key: %w", err)
	}
	defer rows.Close()
	return scanInstanceRows(rows)
}

func (s *PostgresStore) ListChecklistInstancesByTrip(ctx context.Context, tripID string) ([]ChecklistInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, template_id, name, boat_id, role, user_id, items, created_at, updated_at
		FROM checklist_instances WHERE trip_id=$1
		ORDER BY created_at ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list instances by trip: %w", err)
	}
	defer rows.Close()
	return scanInstanceRows(rows)
}

func (s *PostgresStore) ListChecklistInstancesByTemplate(ctx context.Context, templateID string) ([]ChecklistInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, template_id, name, boat_id, role, user_id, items, created_at, updated_at
		FROM checklist_instances WHERE template_id=$1
		ORDER BY created_at ASC
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list instances by template: %w", err)
	}
	defer rows.Close()
	return scanInstanceRows(rows)
}

func (s *PostgresStore) UpdateChecklistInstanceItems(ctx context.Context, instanceID string, items []InstanceItem) error {
	if items == nil {
		items = []InstanceItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal instance items: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE checklist_instances SET items=$2::jsonb, updated_at=NOW() WHERE id=$1
	`, instanceID, string(encoded))
	if err != nil {
		return fmt.Errorf("update instance items: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update instance items rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteChecklistInstances(ctx context.Context, instanceIDs []string) error {
	if len(instanceIDs) == 0 {
		return nil
	}
	for _, id := range instanceIDs {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM checklist_instances WHERE id=$1`, id); err != nil {
			return fmt.Errorf("delete checklist instance %s: %w", id, err)
		}
	}
	return nil
}

type instanceScanner interface {
	Scan(dest ...any) error
}

func scanInstanceRow(row instanceScanner) (ChecklistInstance, error) {
	var instance ChecklistInstance
	var itemsRaw []byte
	if err := row.Scan(
		&instance.ID,
		&instance.TripID,
		&instance.TemplateID,
		&instance.Name,
		&instance.BoatID,
		&instance.Role,
		&instance.UserID,
		&itemsRaw,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	); err != nil {
		return ChecklistInstance{}, err
	}
	if err := json.Unmarshal(itemsRaw, &instance.Items); err != nil {
		return ChecklistInstance{}, fmt.Errorf("decode instance items: %w", err)
	}
	return instance, nil
}

func scanInstanceRows(rows *sql.Rows) ([]ChecklistInstance, error) {
	items := make([]ChecklistInstance, 0)
	for rows.Next() {
		instance, err := scanInstanceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checklist instance: %w", err)
		}
		items = append(items, instance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checklist instances: %w", err)
	}
	return items, nil
}
