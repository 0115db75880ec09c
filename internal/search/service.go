package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexTrip indexes a trip (fire-and-forget to Meilisearch).
func (s *Service) IndexTrip(t TripRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexTrip(t); err != nil {
			log.Printf("search: index trip %s: %v", t.ID, err)
		}
	}()
}

// IndexTemplate indexes a checklist template (fire-and-forget to Meilisearch).
func (s *Service) IndexTemplate(t TemplateRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexTemplate(t); err != nil {
			log.Printf("search: index template %s: %v", t.ID, err)
		}
	}()
}

// IndexLogEntry indexes a boat log entry (fire-and-forget to Meilisearch).
func (s *Service) IndexLogEntry(e LogEntryRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexLogEntry(e); err != nil {
			log.Printf("search: index log entry %s: %v", e.ID, err)
		}
	}()
}

// DeleteTrip removes a trip from the search index (fire-and-forget).
func (s *Service) DeleteTrip(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteTrip(id); err != nil {
			log.Printf("search: delete trip %s: %v", id, err)
		}
	}()
}

// DeleteTemplate removes a checklist template from the search index (fire-and-forget).
func (s *Service) DeleteTemplate(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteTemplate(id); err != nil {
			log.Printf("search: delete template %s: %v", id, err)
		}
	}()
}

// DeleteLogEntry removes a boat log entry from the search index (fire-and-forget).
func (s *Service) DeleteLogEntry(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteLogEntry(id); err != nil {
			log.Printf("search: delete log entry %s: %v", id, err)
		}
	}()
}

// ReindexAll pushes already-loaded records to Meilisearch.
func (s *Service) ReindexAll(trips []TripRecord, templates []TemplateRecord, entries []LogEntryRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}

	if len(trips) > 0 {
		if err := s.meili.IndexTrips(trips); err != nil {
			log.Printf("search: reindex trips: %v", err)
		}
	}
	if len(templates) > 0 {
		if err := s.meili.IndexTemplates(templates); err != nil {
			log.Printf("search: reindex templates: %v", err)
		}
	}
	if len(entries) > 0 {
		if err := s.meili.IndexLogEntries(entries); err != nil {
			log.Printf("search: reindex log entries: %v", err)
		}
	}
}

// ReindexAllFromPG reindexes all searchable entities from PostgreSQL into Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	trips, templates, entries, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	s.ReindexAll(trips, templates, entries)
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
