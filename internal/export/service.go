package export

import (
	"context"
	"fmt"
	"sort"

	"sailplan/api/internal/store"
)

// DataStore defines the interface for data access
type DataStore interface {
	GetTrip(ctx context.Context, id string) (store.Trip, error)
	ListBoats(ctx context.Context, tripID string) ([]store.Boat, error)
	ListParticipants(ctx context.Context, tripID string) ([]store.Participant, error)
	GetCrewlistTemplate(ctx context.Context, tripID string) (store.CrewlistTemplate, error)
	ListCrewlistEntriesByTrip(ctx context.Context, tripID string) ([]store.CrewlistEntry, error)
	ListChecklistInstancesByTrip(ctx context.Context, tripID string) ([]store.ChecklistInstance, error)
}

// Service provides trip export functionality
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	trip, err := s.store.GetTrip(ctx, req.TripID)
	if err != nil {
		return nil, fmt.Errorf("%w: get trip: %v", ErrContentUnavailable, err)
	}

	boats, err := s.store.ListBoats(ctx, req.TripID)
	if err != nil {
		return nil, fmt.Errorf("list boats: %w", err)
	}
	boatNames := make(map[string]string, len(boats))
	for _, boat := range boats {
		boatNames[boat.ID] = boat.Name
	}

	data := TemplateData{
		TripName:    trip.Name,
		Location:    trip.Location,
		StartDate:   trip.StartDate,
		EndDate:     trip.EndDate,
		GeneratedAt: now(),
	}

	switch req.Kind {
	case KindCrewManifest:
		if err := s.buildManifest(ctx, req, boatNames, &data); err != nil {
			return nil, err
		}
	case KindChecklistReport:
		if err := s.buildChecklistReport(ctx, req, boatNames, &data); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported export kind: %s", req.Kind)
	}

	html, err := RenderManifestHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, trip.Name+" "+string(req.Kind))
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

func (s *Service) buildManifest(ctx context.Context, req Request, boatNames map[string]string, data *TemplateData) error {
	participants, err := s.store.ListParticipants(ctx, req.TripID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}

	// Crewlist fields become extra manifest columns when a template exists.
	fieldLabelByID := make(map[string]string)
	if tmpl, err := s.store.GetCrewlistTemplate(ctx, req.TripID); err == nil {
		for _, field := range tmpl.Fields {
			fieldLabelByID[field.ID] = field.Label
			data.FieldLabels = append(data.FieldLabels, field.Label)
		}
	}

	valuesByUser := make(map[string]map[string]string)
	if entries, err := s.store.ListCrewlistEntriesByTrip(ctx, req.TripID); err == nil {
		for _, entry := range entries {
			labeled := make(map[string]string, len(entry.Values))
			for fieldID, value := range entry.Values {
				if label, ok := fieldLabelByID[fieldID]; ok {
					labeled[label] = value
				}
			}
			valuesByUser[entry.UserID] = labeled
		}
	}

	for _, p := range participants {
		boatID := ""
		if p.BoatID != nil {
			boatID = *p.BoatID
		}
		if req.BoatID != "" && boatID != req.BoatID {
			continue
		}
		row := ManifestRow{
			DisplayName: p.DisplayName,
			Role:        p.Role,
			BoatName:    boatNames[boatID],
			Fields:      valuesByUser[p.UserID],
		}
		if row.Fields == nil {
			row.Fields = map[string]string{}
		}
		data.Rows = append(data.Rows, row)
	}

	sort.Slice(data.Rows, func(i, j int) bool {
		if data.Rows[i].BoatName != data.Rows[j].BoatName {
			return data.Rows[i].BoatName < data.Rows[j].BoatName
		}
		return data.Rows[i].DisplayName < data.Rows[j].DisplayName
	})
	return nil
}

func (s *Service) buildChecklistReport(ctx context.Context, req Request, boatNames map[string]string, data *TemplateData) error {
	instances, err := s.store.ListChecklistInstancesByTrip(ctx, req.TripID)
	if err != nil {
		return fmt.Errorf("list instances: %w", err)
	}

	for _, instance := range instances {
		if req.BoatID != "" && (instance.BoatID == nil || *instance.BoatID != req.BoatID) {
			continue
		}
		completed := 0
		for _, item := range instance.Items {
			if item.Completed {
				completed++
			}
		}
		data.Checklists = append(data.Checklists, ChecklistRow{
			Name:      instance.Name,
			Target:    describeTarget(instance, boatNames),
			Completed: completed,
			Total:     len(instance.Items),
		})
	}

	sort.Slice(data.Checklists, func(i, j int) bool {
		if data.Checklists[i].Name != data.Checklists[j].Name {
			return data.Checklists[i].Name < data.Checklists[j].Name
		}
		return data.Checklists[i].Target < data.Checklists[j].Target
	})
	return nil
}

func describeTarget(instance store.ChecklistInstance, boatNames map[string]string) string {
	switch {
	case instance.BoatID != nil:
		if name := boatNames[*instance.BoatID]; name != "" {
			return "Boat " + name
		}
		return "Boat"
	case instance.UserID != nil && instance.Role != nil:
		return *instance.Role + " " + *instance.UserID
	case instance.Role != nil:
		return *instance.Role
	default:
		return ""
	}
}
