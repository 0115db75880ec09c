package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"sailplan/api/internal/store"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Baltic Cruise", "Baltic-Cruise"},
		{"Regatta v1.2", "Regatta-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "trip"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},       // Spaces encoded as %20, not +
		{"test+sign", "test%2Bsign"},           // + signs are encoded
		{"special<>", "special%3C%3E"},         // Special chars encoded
		{"normal-text.txt", "normal-text.txt"}, // Unreserved chars pass through
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderManifestHTML(t *testing.T) {
	data := TemplateData{
		TripName:    "Baltic Summer Cruise",
		Location:    "Stockholm Archipelago",
		StartDate:   time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC),
		FieldLabels: []string{"Passport no."},
		Rows: []ManifestRow{
			{DisplayName: "Maren", Role: "captain", BoatName: "Albatross", Fields: map[string]string{"Passport no.": "X123"}},
		},
		Checklists: []ChecklistRow{
			{Name: "Safety check", Target: "Boat Albatross", Completed: 3, Total: 5},
		},
	}

	html, err := RenderManifestHTML(data)
	if err != nil {
		t.Fatalf("RenderManifestHTML() error = %v", err)
	}

	for _, want := range []string{
		"Baltic Summer Cruise",
		"Stockholm Archipelago",
		"Maren",
		"Albatross",
		"Passport no.",
		"X123",
		"Safety check",
		"3/5",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

type fakeExportStore struct {
	trip         store.Trip
	boats        []store.Boat
	participants []store.Participant
	crewTemplate store.CrewlistTemplate
	crewEntries  []store.CrewlistEntry
	instances    []store.ChecklistInstance
}

func (f *fakeExportStore) GetTrip(context.Context, string) (store.Trip, error) { return f.trip, nil }
func (f *fakeExportStore) ListBoats(context.Context, string) ([]store.Boat, error) {
	return f.boats, nil
}
func (f *fakeExportStore) ListParticipants(context.Context, string) ([]store.Participant, error) {
	return f.participants, nil
}
func (f *fakeExportStore) GetCrewlistTemplate(context.Context, string) (store.CrewlistTemplate, error) {
	return f.crewTemplate, nil
}
func (f *fakeExportStore) ListCrewlistEntriesByTrip(context.Context, string) ([]store.CrewlistEntry, error) {
	return f.crewEntries, nil
}
func (f *fakeExportStore) ListChecklistInstancesByTrip(context.Context, string) ([]store.ChecklistInstance, error) {
	return f.instances, nil
}

func TestBuildManifestRows(t *testing.T) {
	boatID := "B1"
	svc := NewService(&fakeExportStore{
		trip:  store.Trip{ID: "trip1", Name: "Regatta"},
		boats: []store.Boat{{ID: "B1", Name: "Albatross"}},
		participants: []store.Participant{
			{UserID: "u1", DisplayName: "Maren", Role: "captain", BoatID: &boatID},
			{UserID: "u2", DisplayName: "Jonas", Role: "participant"},
		},
		crewTemplate: store.CrewlistTemplate{
			TripID: "trip1",
			Fields: []store.CrewlistField{{ID: "f1", Label: "Passport no."}},
		},
		crewEntries: []store.CrewlistEntry{
			{UserID: "u1", BoatID: "B1", Values: map[string]string{"f1": "X123"}},
		},
	})

	var data TemplateData
	boatNames := map[string]string{"B1": "Albatross"}
	if err := svc.buildManifest(context.Background(), Request{TripID: "trip1"}, boatNames, &data); err != nil {
		t.Fatalf("buildManifest: %v", err)
	}

	if len(data.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(data.Rows))
	}
	if len(data.FieldLabels) != 1 || data.FieldLabels[0] != "Passport no." {
		t.Fatalf("field labels = %v", data.FieldLabels)
	}
	// Unassigned participant sorts before the boat-assigned one.
	if data.Rows[0].DisplayName != "Jonas" || data.Rows[1].DisplayName != "Maren" {
		t.Fatalf("rows out of order: %+v", data.Rows)
	}
	if data.Rows[1].Fields["Passport no."] != "X123" {
		t.Fatalf("crewlist value not mapped: %+v", data.Rows[1].Fields)
	}

	// Boat filter drops the unassigned participant.
	data = TemplateData{}
	if err := svc.buildManifest(context.Background(), Request{TripID: "trip1", BoatID: "B1"}, boatNames, &data); err != nil {
		t.Fatalf("buildManifest with boat filter: %v", err)
	}
	if len(data.Rows) != 1 || data.Rows[0].DisplayName != "Maren" {
		t.Fatalf("filtered rows = %+v", data.Rows)
	}
}

func TestBuildChecklistReport(t *testing.T) {
	boatID := "B1"
	role := "organizer"
	svc := NewService(&fakeExportStore{
		trip: store.Trip{ID: "trip1", Name: "Regatta"},
		instances: []store.ChecklistInstance{
			{
				Name: "Safety check", BoatID: &boatID,
				Items: []store.InstanceItem{{ID: "a", Completed: true}, {ID: "b"}},
			},
			{
				Name: "Paperwork", Role: &role,
				Items: []store.InstanceItem{{ID: "x"}},
			},
		},
	})

	var data TemplateData
	boatNames := map[string]string{"B1": "Albatross"}
	if err := svc.buildChecklistReport(context.Background(), Request{TripID: "trip1"}, boatNames, &data); err != nil {
		t.Fatalf("buildChecklistReport: %v", err)
	}

	if len(data.Checklists) != 2 {
		t.Fatalf("checklists = %d, want 2", len(data.Checklists))
	}
	if data.Checklists[0].Name != "Paperwork" || data.Checklists[0].Target != "organizer" {
		t.Fatalf("first row wrong: %+v", data.Checklists[0])
	}
	if data.Checklists[1].Completed != 1 || data.Checklists[1].Total != 2 {
		t.Fatalf("progress wrong: %+v", data.Checklists[1])
	}
	if data.Checklists[1].Target != "Boat Albatross" {
		t.Fatalf("boat target wrong: %+v", data.Checklists[1])
	}
}
