package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *PostgresStore) InsertBoatLogEntry(ctx context.Context, entry BoatLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO boat_log_entries (id, trip_id, boat_id, author_id, entry_date, body, position, weather)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.TripID, entry.BoatID, entry.AuthorID, entry.EntryDate, entry.Body, entry.Position, entry.Weather)
	if err != nil {
		return fmt.Errorf("insert boat log entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBoatLogEntry(ctx context.Context, entryID string) (BoatLogEntry, error) {
	var entry BoatLogEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trip_id, boat_id, author_id, entry_date, body, position, weather, created_at, updated_at
		FROM boat_log_entries WHERE id=$1
	`, entryID).Scan(&entry.ID, &entry.TripID, &entry.BoatID, &entry.AuthorID, &entry.EntryDate, &entry.Body, &entry.Position, &entry.Weather, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return BoatLogEntry{}, err
	}
	return entry, nil
}

func (s *PostgresStore) ListBoatLogEntries(ctx context.Context, tripID, boatID string) ([]BoatLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, boat_id, author_id, entry_date, body, position, weather, created_at, updated_at
		FROM boat_log_entries
		WHERE trip_id=$1 AND boat_id=$2
		ORDER BY entry_date DESC, created_at DESC
	`, tripID, boatID)
	if err != nil {
		return nil, fmt.Errorf("list boat log entries: %w", err)
	}
	defer rows.Close()

	items := make([]BoatLogEntry, 0)
	for rows.Next() {
		var entry BoatLogEntry
		if err := rows.Scan(&entry.ID, &entry.TripID, &entry.BoatID, &entry.AuthorID, &entry.EntryDate, &entry.Body, &entry.Position, &entry.Weather, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan boat log entry: %w", err)
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boat log entries: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateBoatLogEntry(ctx context.Context, entry BoatLogEntry) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE boat_log_entries
		SET entry_date=$2, body=$3, position=$4, weather=$5, updated_at=NOW()
		WHERE id=$1
	`, entry.ID, entry.EntryDate, entry.Body, entry.Position, entry.Weather)
	if err != nil {
		return fmt.Errorf("update boat log entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update boat log entry rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteBoatLogEntry(ctx context.Context, entryID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM boat_log_entries WHERE id=$1`, entryID)
	if err != nil {
		return fmt.Errorf("delete boat log entry: %w", err)
	}
	return nil
}
