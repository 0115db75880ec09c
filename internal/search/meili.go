package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxTrips      = "sailplan_trips"
	idxTemplates  = "sailplan_checklist_templates"
	idxLogEntries = "sailplan_boat_log_entries"
)

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes.
// The caller should proceed without search if the instance stays unhealthy.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		primaryKey string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxTrips,
			primaryKey: "id",
			filterable: []string{"organizerId"},
			searchable: []string{"name", "description", "location"},
		},
		{
			uid:        idxTemplates,
			primaryKey: "id",
			filterable: []string{"organizerId"},
			searchable: []string{"name", "description"},
		},
		{
			uid:        idxLogEntries,
			primaryKey: "id",
			filterable: []string{"tripId", "boatId"},
			searchable: []string{"body"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: idx.primaryKey,
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		filterableInterface := make([]interface{}, len(idx.filterable))
		for i, v := range idx.filterable {
			filterableInterface[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterableInterface); err != nil {
			log.Printf("search: update filterable attrs for %s: %v", idx.uid, err)
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries all three indexes (or a filtered subset) and merges results.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	var queries []*meili.SearchRequest
	targetIndexes := []struct {
		uid  string
		rtyp ResultType
	}{
		{idxTrips, ResultTrip},
		{idxTemplates, ResultTemplate},
		{idxLogEntries, ResultLogEntry},
	}

	for _, ti := range targetIndexes {
		if q.FilterType != "" && q.FilterType != ti.rtyp {
			continue
		}
		sr := &meili.SearchRequest{
			IndexUID:              ti.uid,
			Limit:                 limit,
			Offset:                int64(q.Offset),
			AttributesToHighlight: []string{"*"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
			ShowRankingScore:      true,
		}

		if q.FilterTripID != "" && ti.rtyp == ResultLogEntry {
			sr.Filter = []string{fmt.Sprintf("tripId = %q", q.FilterTripID)}
		}
		queries = append(queries, sr)
	}

	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: queries,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}

	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxTrips:
		return ResultTrip
	case idxTemplates:
		return ResultTemplate
	case idxLogEntries:
		return ResultLogEntry
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp}
	r.ID = decodeString(hit, "id")
	r.TripID = decodeString(hit, "tripId")
	r.BoatID = decodeString(hit, "boatId")

	switch rtyp {
	case ResultTrip:
		r.Title = firstNonBlank(decodeFormattedString(hit, "name"), decodeString(hit, "name"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description"))
		r.TripID = r.ID
	case ResultTemplate:
		r.Title = firstNonBlank(decodeFormattedString(hit, "name"), decodeString(hit, "name"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description"))
	case ResultLogEntry:
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "body"), decodeString(hit, "body"))
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexTrip adds or updates a trip in the search index.
func (m *Meili) IndexTrip(t TripRecord) error {
	_, err := m.client.Index(idxTrips).AddDocuments([]TripRecord{t}, nil)
	return err
}

// IndexTemplate adds or updates a checklist template in the search index.
func (m *Meili) IndexTemplate(t TemplateRecord) error {
	_, err := m.client.Index(idxTemplates).AddDocuments([]TemplateRecord{t}, nil)
	return err
}

// IndexLogEntry adds or updates a boat log entry in the search index.
func (m *Meili) IndexLogEntry(e LogEntryRecord) error {
	_, err := m.client.Index(idxLogEntries).AddDocuments([]LogEntryRecord{e}, nil)
	return err
}

// DeleteTrip removes a trip from the search index.
func (m *Meili) DeleteTrip(id string) error {
	_, err := m.client.Index(idxTrips).DeleteDocument(id, nil)
	return err
}

// DeleteTemplate removes a checklist template from the search index.
func (m *Meili) DeleteTemplate(id string) error {
	_, err := m.client.Index(idxTemplates).DeleteDocument(id, nil)
	return err
}

// DeleteLogEntry removes a boat log entry from the search index.
func (m *Meili) DeleteLogEntry(id string) error {
	_, err := m.client.Index(idxLogEntries).DeleteDocument(id, nil)
	return err
}

// IndexTrips bulk-indexes trips.
func (m *Meili) IndexTrips(trips []TripRecord) error {
	if len(trips) == 0 {
		return nil
	}
	_, err := m.client.Index(idxTrips).AddDocuments(trips, nil)
	return err
}

// IndexTemplates bulk-indexes checklist templates.
func (m *Meili) IndexTemplates(templates []TemplateRecord) error {
	if len(templates) == 0 {
		return nil
	}
	_, err := m.client.Index(idxTemplates).AddDocuments(templates, nil)
	return err
}

// IndexLogEntries bulk-indexes boat log entries.
func (m *Meili) IndexLogEntries(entries []LogEntryRecord) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := m.client.Index(idxLogEntries).AddDocuments(entries, nil)
	return err
}
