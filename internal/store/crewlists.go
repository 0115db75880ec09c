package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

func (s *PostgresStore) UpsertCrewlistTemplate(ctx context.Context, template CrewlistTemplate) error {
	fields := template.Fields
	if fields == nil {
		fields = []CrewlistField{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal crewlist fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crewlist_templates (id, trip_id, fields)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (trip_id) DO UPDATE SET fields=EXCLUDED.fields, updated_at=NOW()
	`, template.ID, template.TripID, string(encoded))
	if err != nil {
		return fmt.Errorf("upsert crewlist template: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCrewlistTemplate(ctx context.Context, tripID string) (CrewlistTemplate, error) {
	var template CrewlistTemplate
	var fieldsRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trip_id, fields, created_at, updated_at
		FROM crewlist_templates WHERE trip_id=$1
	`, tripID).Scan(&template.ID, &template.TripID, &fieldsRaw, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		return CrewlistTemplate{}, err
	}
	if err := json.Unmarshal(fieldsRaw, &template.Fields); err != nil {
		return CrewlistTemplate{}, fmt.Errorf("decode crewlist fields: %w", err)
	}
	return template, nil
}

func (s *PostgresStore) UpsertCrewlistEntry(ctx context.Context, entry CrewlistEntry) error {
	values := entry.Values
	if values == nil {
		values = map[string]string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal crewlist values: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crewlist_entries (id, trip_id, boat_id, user_id, field_values)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		ON CONFLICT (trip_id, boat_id, user_id) DO UPDATE SET field_values=EXCLUDED.field_values, updated_at=NOW()
	`, entry.ID, entry.TripID, entry.BoatID, entry.UserID, string(encoded))
	if err != nil {
		return fmt.Errorf("upsert crewlist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCrewlistEntries(ctx context.Context, tripID, boatID string) ([]CrewlistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, boat_id, user_id, field_values, created_at, updated_at
		FROM crewlist_entries
		WHERE trip_id=$1 AND boat_id=$2
		ORDER BY created_at ASC
	`, tripID, boatID)
	if err != nil {
		return nil, fmt.Errorf("list crewlist entries: %w", err)
	}
	defer rows.Close()

	items := make([]CrewlistEntry, 0)
	for rows.Next() {
		var entry CrewlistEntry
		var valuesRaw []byte
		if err := rows.Scan(&entry.ID, &entry.TripID, &entry.BoatID, &entry.UserID, &valuesRaw, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan crewlist entry: %w", err)
		}
		if err := json.Unmarshal(valuesRaw, &entry.Values); err != nil {
			return nil, fmt.Errorf("decode crewlist values: %w", err)
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crewlist entries: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListCrewlistEntriesByTrip(ctx context.Context, tripID string) ([]CrewlistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, boat_id, user_id, field_values, created_at, updated_at
		FROM crewlist_entries
		WHERE trip_id=$1
		ORDER BY boat_id ASC, created_at ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list crewlist entries by trip: %w", err)
	}
	defer rows.Close()

	items := make([]CrewlistEntry, 0)
	for rows.Next() {
		var entry CrewlistEntry
		var valuesRaw []byte
		if err := rows.Scan(&entry.ID, &entry.TripID, &entry.BoatID, &entry.UserID, &valuesRaw, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan crewlist entry: %w", err)
		}
		if err := json.Unmarshal(valuesRaw, &entry.Values); err != nil {
			return nil, fmt.Errorf("decode crewlist values: %w", err)
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crewlist entries: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) DeleteCrewlistEntry(ctx context.Context, entryID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM crewlist_entries WHERE id=$1`, entryID)
	if err != nil {
		return fmt.Errorf("delete crewlist entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete crewlist entry rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
