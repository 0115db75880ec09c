// Package export renders printable trip paperwork (crew manifests and
// checklist reports) as PDF.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF Format = "pdf"
)

// Kind selects which report to render.
type Kind string

const (
	KindCrewManifest    Kind = "crew-manifest"
	KindChecklistReport Kind = "checklist-report"
)

// Request contains parameters for an export operation
type Request struct {
	TripID string
	BoatID string // optional, limits the manifest to one boat
	Kind   Kind
	Format Format
}

// ManifestRow is one crew member on the manifest.
type ManifestRow struct {
	DisplayName string
	Role        string
	BoatName    string
	Fields      map[string]string
}

// ChecklistRow is one checklist instance summarized on the report.
type ChecklistRow struct {
	Name      string
	Target    string
	Completed int
	Total     int
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrContentUnavailable indicates trip data could not be loaded for export.
	ErrContentUnavailable = errors.New("export content unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)

// now is swappable in tests.
var now = time.Now
