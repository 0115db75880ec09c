package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across trips, checklist_templates, and
// boat_log_entries using plainto_tsquery and ts_rank, with ts_headline for
// snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultTrip {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'trip'::text AS type, t.id, t.name AS title,
				ts_headline('english', coalesce(t.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				t.id AS trip_id, ''::text AS boat_id,
				ts_rank(t.fts, %s) AS rank
			FROM trips t
			WHERE t.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultTemplate {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'template'::text AS type, ct.id, ct.name AS title,
				ts_headline('english', coalesce(ct.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS trip_id, ''::text AS boat_id,
				ts_rank(ct.fts, %s) AS rank
			FROM checklist_templates ct
			WHERE ct.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultLogEntry {
		logWhere := "ble.fts @@ " + tsQuery
		if q.FilterTripID != "" {
			logWhere += fmt.Sprintf(" AND ble.trip_id = $%d", argN)
			args = append(args, q.FilterTripID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'logEntry'::text AS type, ble.id, ''::text AS title,
				ts_headline('english', coalesce(ble.body, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				ble.trip_id, ble.boat_id,
				ts_rank(ble.fts, %s) AS rank
			FROM boat_log_entries ble
			WHERE %s`, tsQuery, tsQuery, logWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, trip_id, boat_id
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.TripID, &r.BoatID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]TripRecord, []TemplateRecord, []LogEntryRecord, error) {
	tripRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, coalesce(description, ''), coalesce(location, ''), organizer_id
		FROM trips
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load trips: %w", err)
	}
	defer tripRows.Close()

	trips := make([]TripRecord, 0)
	for tripRows.Next() {
		var t TripRecord
		if err := tripRows.Scan(&t.ID, &t.Name, &t.Description, &t.Location, &t.OrganizerID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err := tripRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate trips: %w", err)
	}

	templateRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, coalesce(description, ''), organizer_id
		FROM checklist_templates
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load templates: %w", err)
	}
	defer templateRows.Close()

	templates := make([]TemplateRecord, 0)
	for templateRows.Next() {
		var t TemplateRecord
		if err := templateRows.Scan(&t.ID, &t.Name, &t.Description, &t.OrganizerID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := templateRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate templates: %w", err)
	}

	entryRows, err := p.db.QueryContext(ctx, `
		SELECT id, body, trip_id, boat_id
		FROM boat_log_entries
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load log entries: %w", err)
	}
	defer entryRows.Close()

	entries := make([]LogEntryRecord, 0)
	for entryRows.Next() {
		var e LogEntryRecord
		if err := entryRows.Scan(&e.ID, &e.Body, &e.TripID, &e.BoatID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := entryRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate log entries: %w", err)
	}

	return trips, templates, entries, nil
}
