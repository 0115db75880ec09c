package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) InsertTripDocument(ctx context.Context, doc TripDocument) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trip_documents (id, trip_id, name, object_key, content_type, size, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, doc.ID, doc.TripID, doc.Name, doc.ObjectKey, doc.ContentType, doc.Size, doc.UploadedBy)
	if err != nil {
		return fmt.Errorf("insert trip document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTripDocument(ctx context.Context, documentID string) (TripDocument, error) {
	var doc TripDocument
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trip_id, name, object_key, content_type, size, uploaded_by, created_at
		FROM trip_documents WHERE id=$1
	`, documentID).Scan(&doc.ID, &doc.TripID, &doc.Name, &doc.ObjectKey, &doc.ContentType, &doc.Size, &doc.UploadedBy, &doc.CreatedAt)
	if err != nil {
		return TripDocument{}, err
	}
	return doc, nil
}

func (s *PostgresStore) ListTripDocuments(ctx context.Context, tripID string) ([]TripDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, name, object_key, content_type, size, uploaded_by, created_at
		FROM trip_documents WHERE trip_id=$1
		ORDER BY created_at DESC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list trip documents: %w", err)
	}
	defer rows.Close()

	items := make([]TripDocument, 0)
	for rows.Next() {
		var doc TripDocument
		if err := rows.Scan(&doc.ID, &doc.TripID, &doc.Name, &doc.ObjectKey, &doc.ContentType, &doc.Size, &doc.UploadedBy, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trip document: %w", err)
		}
		items = append(items, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trip documents: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) DeleteTripDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM trip_documents WHERE id=$1`, documentID)
	if err != nil {
		return fmt.Errorf("delete trip document: %w", err)
	}
	return nil
}
