package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultTrip     ResultType = "trip"
	ResultTemplate ResultType = "template"
	ResultLogEntry ResultType = "logEntry"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	TripID  string     `json:"tripId,omitempty"`
	BoatID  string     `json:"boatId,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text         string
	FilterType   ResultType // empty = all types
	FilterTripID string
	Limit        int
	Offset       int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexTrip(t TripRecord) error
	IndexTemplate(t TemplateRecord) error
	IndexLogEntry(e LogEntryRecord) error
	DeleteTrip(id string) error
	DeleteTemplate(id string) error
	DeleteLogEntry(id string) error
}

// TripRecord is the data we index for a trip.
type TripRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	OrganizerID string `json:"organizerId"`
}

// TemplateRecord is the data we index for a checklist template.
type TemplateRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OrganizerID string `json:"organizerId"`
}

// LogEntryRecord is the data we index for a boat log entry.
type LogEntryRecord struct {
	ID     string `json:"id"`
	Body   string `json:"body"`
	TripID string `json:"tripId"`
	BoatID string `json:"boatId"`
}
