package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

func (s *PostgresStore) InsertTrip(ctx context.Context, trip Trip) error {
	assigned, err := marshalAssignments(trip.AssignedChecklists)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trips (id, organizer_id, name, description, location, start_date, end_date, join_password_hash, assigned_checklists)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
	`, trip.ID, trip.OrganizerID, trip.Name, trip.Description, trip.Location, trip.StartDate, trip.EndDate, trip.JoinPasswordHash, assigned)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTrip(ctx context.Context, tripID string) (Trip, error) {
	var trip Trip
	var assignedRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, organizer_id, name, description, location, COALESCE(start_date, '0001-01-01'), COALESCE(end_date, '0001-01-01'), join_password_hash, assigned_checklists, created_at, updated_at
		FROM trips WHERE id=$1
	`, tripID).Scan(
		&trip.ID,
		&trip.OrganizerID,
		&trip.Name,
		&trip.Description,
		&trip.Location,
		&trip.StartDate,
		&trip.EndDate,
		&trip.JoinPasswordHash,
		&assignedRaw,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return Trip{}, err
	}
	if err := json.Unmarshal(assignedRaw, &trip.AssignedChecklists); err != nil {
		return Trip{}, fmt.Errorf("decode assigned checklists: %w", err)
	}
	return trip, nil
}

func (s *PostgresStore) ListTripsForUser(ctx context.Context, userID string) ([]Trip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT t.id, t.organizer_id, t.name, t.description, t.location, COALESCE(t.start_date, '0001-01-01'), COALESCE(t.end_date, '0001-01-01'), t.join_password_hash, t.assigned_checklists, t.created_at, t.updated_at
		FROM trips t
		LEFT JOIN participants p ON p.trip_id = t.id
		WHERE t.organizer_id=$1 OR p.user_id=$1
		ORDER BY COALESCE(t.start_date, '0001-01-01') DESC, t.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	items := make([]Trip, 0)
	for rows.Next() {
		var trip Trip
		var assignedRaw []byte
		if err := rows.Scan(
			&trip.ID,
			&trip.OrganizerID,
			&trip.Name,
			&trip.Description,
			&trip.Location,
			&trip.StartDate,
			&trip.EndDate,
			&trip.JoinPasswordHash,
			&assignedRaw,
			&trip.CreatedAt,
			&trip.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		if err := json.Unmarshal(assignedRaw, &trip.AssignedChecklists); err != nil {
			return nil, fmt.Errorf("decode assigned checklists: %w", err)
		}
		items = append(items, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trips: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateTrip(ctx context.Context, trip Trip) error {
	assigned, err := marshalAssignments(trip.AssignedChecklists)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE trips
		SET name=$2, description=$3, location=$4, start_date=$5, end_date=$6, assigned_checklists=$7::jsonb, updated_at=NOW()
		WHERE id=$1
	`, trip.ID, trip.Name, trip.Description, trip.Location, trip.StartDate, trip.EndDate, assigned)
	if err != nil {
		return fmt.Errorf("update trip: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update trip rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteTrip(ctx context.Context, tripID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM trips WHERE id=$1`, tripID)
	if err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	return nil
}

func marshalAssignments(assigned []ChecklistAssignment) (string, error) {
	if assigned == nil {
		assigned = []ChecklistAssignment{}
	}
	encoded, err := json.Marshal(assigned)
	if err != nil {
		return "", fmt.Errorf("marshal assigned checklists: %w", err)
	}
	return string(encoded), nil
}

func (s *PostgresStore) InsertBoat(ctx context.Context, boat Boat) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO boats (id, trip_id, name, model, capacity)
		VALUES ($1, $2, $3, $4, $5)
	`, boat.ID, boat.TripID, boat.Name, boat.Model, boat.Capacity)
	if err != nil {
		return fmt.Errorf("insert boat: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBoat(ctx context.Context, boatID string) (Boat, error) {
	var boat Boat
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trip_id, name, model, capacity, created_at, updated_at
		FROM boats WHERE id=$1
	`, boatID).Scan(&boat.ID, &boat.TripID, &boat.Name, &boat.Model, &boat.Capacity, &boat.CreatedAt, &boat.UpdatedAt)
	if err != nil {
		return Boat{}, err
	}
	return boat, nil
}

func (s *PostgresStore) ListBoats(ctx context.Context, tripID string) ([]Boat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, name, model, capacity, created_at, updated_at
		FROM boats WHERE trip_id=$1
		ORDER BY name ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list boats: %w", err)
	}
	defer rows.Close()

	items := make([]Boat, 0)
	for rows.Next() {
		var boat Boat
		if err := rows.Scan(&boat.ID, &boat.TripID, &boat.Name, &boat.Model, &boat.Capacity, &boat.CreatedAt, &boat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan boat: %w", err)
		}
		items = append(items, boat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boats: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateBoat(ctx context.Context, boat Boat) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE boats SET name=$2, model=$3, capacity=$4, updated_at=NOW() WHERE id=$1
	`, boat.ID, boat.Name, boat.Model, boat.Capacity)
	if err != nil {
		return fmt.Errorf("update boat: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update boat rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteBoat(ctx context.Context, boatID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM boats WHERE id=$1`, boatID)
	if err != nil {
		return fmt.Errorf("delete boat: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertParticipant(ctx context.Context, participant Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, trip_id, user_id, display_name, role, boat_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, participant.ID, participant.TripID, participant.UserID, participant.DisplayName, participant.Role, participant.BoatID, participant.Status)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetParticipant(ctx context.Context, participantID string) (Participant, error) {
	var p Participant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trip_id, user_id, display_name, role, boat_id, status, created_at, updated_at
		FROM participants WHERE id=$1
	`, participantID).Scan(&p.ID, &p.TripID, &p.UserID, &p.DisplayName, &p.Role, &p.BoatID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Participant{}, err
	}
	return p, nil
}

func (s *PostgresStore) GetParticipantByUser(ctx context.Context, tripID, userID string) (*Participant, error) {
	var p Participant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trip_id, user_id, display_name, role, boat_id, status, created_at, updated_at
		FROM participants WHERE trip_id=$1 AND user_id=$2
	`, tripID, userID).Scan(&p.ID, &p.TripID, &p.UserID, &p.DisplayName, &p.Role, &p.BoatID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant by user: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListParticipants(ctx context.Context, tripID string) ([]Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, user_id, display_name, role, boat_id, status, created_at, updated_at
		FROM participants WHERE trip_id=$1
		ORDER BY created_at ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	items := make([]Participant, 0)
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.TripID, &p.UserID, &p.DisplayName, &p.Role, &p.BoatID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateParticipant(ctx context.Context, participant Participant) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE participants
		SET display_name=$2, role=$3, boat_id=$4, status=$5, updated_at=NOW()
		WHERE id=$1
	`, participant.ID, participant.DisplayName, participant.Role, participant.BoatID, participant.Status)
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update participant rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteParticipant(ctx context.Context, participantID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE id=$1`, participantID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	return nil
}
