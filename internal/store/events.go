package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

func (s *PostgresStore) InsertTimelineEvent(ctx context.Context, event TimelineEvent) error {
	roles, completedBy, err := marshalEventPayload(event)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO timeline_events (id, trip_id, title, description, starts_at, roles, checkable, completed_by)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8::jsonb)
	`, event.ID, event.TripID, event.Title, event.Description, event.StartsAt, roles, event.Checkable, completedBy)
	if err != nil {
		return fmt.Errorf("insert timeline event: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTimelineEvent(ctx context.Context, eventID string) (TimelineEvent, error) {
	var event TimelineEvent
	var rolesRaw, completedRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trip_id, title, description, COALESCE(starts_at, '0001-01-01'), roles, checkable, completed_by, created_at, updated_at
		FROM timeline_events WHERE id=$1
	`, eventID).Scan(
		&event.ID,
		&event.TripID,
		&event.Title,
		&event.Description,
		&event.StartsAt,
		&rolesRaw,
		&event.Checkable,
		&completedRaw,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return TimelineEvent{}, err
	}
	if err := json.Unmarshal(rolesRaw, &event.Roles); err != nil {
		return TimelineEvent{}, fmt.Errorf("decode event roles: %w", err)
	}
	if err := json.Unmarshal(completedRaw, &event.CompletedBy); err != nil {
		return TimelineEvent{}, fmt.Errorf("decode event completions: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) ListTimelineEvents(ctx context.Context, tripID string) ([]TimelineEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, title, description, COALESCE(starts_at, '0001-01-01'), roles, checkable, completed_by, created_at, updated_at
		FROM timeline_events WHERE trip_id=$1
		ORDER BY starts_at ASC NULLS LAST, created_at ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	defer rows.Close()

	items := make([]TimelineEvent, 0)
	for rows.Next() {
		var event TimelineEvent
		var rolesRaw, completedRaw []byte
		if err := rows.Scan(
			&event.ID,
			&event.TripID,
			&event.Title,
			&event.Description,
			&event.StartsAt,
			&rolesRaw,
			&event.Checkable,
			&completedRaw,
			&event.CreatedAt,
			&event.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		if err := json.Unmarshal(rolesRaw, &event.Roles); err != nil {
			return nil, fmt.Errorf("decode event roles: %w", err)
		}
		if err := json.Unmarshal(completedRaw, &event.CompletedBy); err != nil {
			return nil, fmt.Errorf("decode event completions: %w", err)
		}
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline events: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateTimelineEvent(ctx context.Context, event TimelineEvent) error {
	roles, completedBy, err := marshalEventPayload(event)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE timeline_events
		SET title=$2, description=$3, starts_at=$4, roles=$5::jsonb, checkable=$6, completed_by=$7::jsonb, updated_at=NOW()
		WHERE id=$1
	`, event.ID, event.Title, event.Description, event.StartsAt, roles, event.Checkable, completedBy)
	if err != nil {
		return fmt.Errorf("update timeline event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timeline event rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteTimelineEvent(ctx context.Context, eventID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM timeline_events WHERE id=$1`, eventID)
	if err != nil {
		return fmt.Errorf("delete timeline event: %w", err)
	}
	return nil
}

func marshalEventPayload(event TimelineEvent) (roles string, completedBy string, err error) {
	roleList := event.Roles
	if roleList == nil {
		roleList = []string{}
	}
	encodedRoles, err := json.Marshal(roleList)
	if err != nil {
		return "", "", fmt.Errorf("marshal event roles: %w", err)
	}
	completions := event.CompletedBy
	if completions == nil {
		completions = []string{}
	}
	encodedCompletions, err := json.Marshal(completions)
	if err != nil {
		return "", "", fmt.Errorf("marshal event completions: %w", err)
	}
	return string(encodedRoles), string(encodedCompletions), nil
}
