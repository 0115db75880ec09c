package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"sailplan/api/internal/checklist"
	"sailplan/api/internal/export"
	"sailplan/api/internal/logbook"
	"sailplan/api/internal/roles"
	"sailplan/api/internal/search"
	"sailplan/api/internal/store"
	"sailplan/api/internal/util"
)

type TemplateInput struct {
	Name        string
	Description string
	Categories  []string
	Items       []store.TemplateItem
}

func (s *Service) CreateTemplate(ctx context.Context, session Session, input TemplateInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	items := input.Items
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = util.NewID("item")
		}
	}
	template := store.ChecklistTemplate{
		ID:          util.NewID("tpl"),
		OrganizerID: session.UserID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Categories:  input.Categories,
		Items:       items,
	}
	if err := s.store.InsertChecklistTemplate(ctx, template); err != nil {
		return nil, err
	}
	s.indexTemplate(template)
	return templatePayload(template), nil
}

func (s *Service) ListTemplates(ctx context.Context, session Session) ([]map[string]any, error) {
	templates, err := s.store.ListChecklistTemplates(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(templates))
	for _, template := range templates {
		items = append(items, templatePayload(template))
	}
	return items, nil
}

func (s *Service) GetTemplate(ctx context.Context, session Session, templateID string) (map[string]any, error) {
	template, err := s.store.GetChecklistTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template.OrganizerID != session.UserID {
		return nil, sql.ErrNoRows
	}
	return templatePayload(template), nil
}

// UpdateTemplate edits a template and pushes the item changes into every
// derived instance, preserving per-instance progress.
func (s *Service) UpdateTemplate(ctx context.Context, session Session, templateID string, input TemplateInput) (map[string]any, error) {
	template, err := s.store.GetChecklistTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template.OrganizerID != session.UserID {
		return nil, sql.ErrNoRows
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		template.Name = name
	}
	template.Description = strings.TrimSpace(input.Description)
	if input.Categories != nil {
		template.Categories = input.Categories
	}
	if input.Items != nil {
		for i := range input.Items {
			if input.Items[i].ID == "" {
				input.Items[i].ID = util.NewID("item")
			}
		}
		template.Items = input.Items
	}
	if err := s.store.UpdateChecklistTemplate(ctx, template); err != nil {
		return nil, err
	}

	synced, err := s.engine.SyncFromTemplate(ctx, templateID)
	if err != nil {
		// Instances that failed to sync keep their previous items; the
		// template edit itself has been saved.
		log.Printf("sync instances from template %s: %v", templateID, err)
	}
	s.indexTemplate(template)

	payload := templatePayload(template)
	payload["syncedInstances"] = synced
	return payload, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, session Session, templateID string) error {
	template, err := s.store.GetChecklistTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	if template.OrganizerID != session.UserID {
		return sql.ErrNoRows
	}
	instances, err := s.store.ListChecklistInstancesByTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	if len(instances) > 0 {
		return domainError(http.StatusConflict, "TEMPLATE_IN_USE", "Template still has checklist instances", map[string]any{
			"instanceCount": len(instances),
		})
	}
	if err := s.store.DeleteChecklistTemplate(ctx, templateID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteTemplate(templateID)
	}
	return nil
}

func (s *Service) indexTemplate(template store.ChecklistTemplate) {
	if s.search == nil {
		return
	}
	s.search.IndexTemplate(search.TemplateRecord{
		ID:          template.ID,
		Name:        template.Name,
		Description: template.Description,
		OrganizerID: template.OrganizerID,
	})
}

// ListTripChecklists returns the instances the caller is allowed to see:
// organizers see everything, everyone else sees their own, their boat's, and
// their role's checklists.
func (s *Service) ListTripChecklists(ctx context.Context, session Session, tripID string) ([]map[string]any, error) {
	trip, participant, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	instances, err := s.store.ListChecklistInstancesByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(instances))
	for _, instance := range instances {
		if !instanceVisibleTo(&trip, &instance, participant, session.UserID) {
			continue
		}
		items = append(items, instancePayload(instance))
	}
	return items, nil
}

type InstanceInput struct {
	TemplateID string
	BoatID     string
	Role       string
	UserID     string
}

func (s *Service) CreateChecklistInstance(ctx context.Context, session Session, tripID string, input InstanceInput) (map[string]any, error) {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanEditTrip(&trip, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can create checklists", nil)
	}

	var target checklist.Target
	switch {
	case input.BoatID != "":
		boat, err := s.store.GetBoat(ctx, input.BoatID)
		if err != nil {
			return nil, err
		}
		if boat.TripID != tripID {
			return nil, sql.ErrNoRows
		}
		target = checklist.BoatTarget(input.BoatID)
	case input.UserID != "":
		role := input.Role
		if role == "" {
			role = string(roles.Participant)
		}
		target = checklist.UserTarget(role, input.UserID)
	case input.Role == string(roles.Organizer):
		target = checklist.OrganizerTarget()
	default:
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "a boat, user, or organizer target is required", nil)
	}

	result, err := s.engine.CreateInstance(ctx, tripID, input.TemplateID, target)
	if err != nil {
		return nil, err
	}
	instance, err := s.store.GetChecklistInstance(ctx, result.InstanceID)
	if err != nil {
		return nil, err
	}
	payload := instancePayload(instance)
	payload["duplicate"] = result.Duplicate
	return payload, nil
}

func (s *Service) UpdateChecklistItem(ctx context.Context, session Session, instanceID, itemID string, patch checklist.ItemPatch) (map[string]any, error) {
	instance, err := s.store.GetChecklistInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	trip, participant, _, err := s.tripAccess(ctx, instance.TripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanEditChecklist(&trip, &instance, participant, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "You cannot edit this checklist", nil)
	}
	updated, err := s.engine.UpdateItem(ctx, instanceID, itemID, patch)
	if err != nil {
		return nil, err
	}
	return instancePayload(updated), nil
}

func (s *Service) ReconcileTripChecklists(ctx context.Context, session Session, tripID string) (map[string]any, error) {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanEditTrip(&trip, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can reconcile checklists", nil)
	}
	result, err := s.reconcileTrip(ctx, trip)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"createdIds": nonNilStrings(result.CreatedIDs),
		"deletedIds": nonNilStrings(result.DeletedIDs),
	}, nil
}

func instanceVisibleTo(trip *store.Trip, instance *store.ChecklistInstance, viewer *store.Participant, userID string) bool {
	if trip.OrganizerID == userID {
		return true
	}
	if instance.UserID != nil {
		return *instance.UserID == userID
	}
	if instance.BoatID != nil {
		return viewer != nil && viewer.BoatID != nil && *viewer.BoatID == *instance.BoatID
	}
	if instance.Role != nil {
		if *instance.Role == string(roles.Organizer) {
			return false
		}
		return viewer != nil && viewer.Role == *instance.Role
	}
	return false
}

func (s *Service) PutCrewlistTemplate(ctx context.Context, session Session, tripID string, fields []store.CrewlistField) (map[string]any, error) {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanEditTrip(&trip, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can edit the crewlist template", nil)
	}
	for i := range fields {
		if fields[i].ID == "" {
			fields[i].ID = util.NewID("fld")
		}
		if strings.TrimSpace(fields[i].Label) == "" {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "every field needs a label", nil)
		}
	}
	template := store.CrewlistTemplate{
		ID:     util.NewID("crew"),
		TripID: tripID,
		Fields: fields,
	}
	if err := s.store.UpsertCrewlistTemplate(ctx, template); err != nil {
		return nil, err
	}
	saved, err := s.store.GetCrewlistTemplate(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return crewlistTemplatePayload(saved), nil
}

// GetCrewlist returns the crewlist template plus the filled rows for one boat.
// Organizers see every boat, crew only their own.
func (s *Service) GetCrewlist(ctx context.Context, session Session, tripID, boatID string) (map[string]any, error) {
	trip, participant, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	boat, err := s.store.GetBoat(ctx, boatID)
	if err != nil {
		return nil, err
	}
	if boat.TripID != tripID {
		return nil, sql.ErrNoRows
	}
	if !roles.CanViewBoatLog(&trip, &boat, participant, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "You cannot view this boat's crewlist", nil)
	}

	payload := map[string]any{"boatId": boatID, "fields": []store.CrewlistField{}, "entries": []map[string]any{}}
	template, err := s.store.GetCrewlistTemplate(ctx, tripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payload, nil
		}
		return nil, err
	}
	payload["fields"] = template.Fields

	entries, err := s.store.ListCrewlistEntries(ctx, tripID, boatID)
	if err != nil {
		return nil, err
	}
	entryItems := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		entryItems = append(entryItems, map[string]any{
			"id":     entry.ID,
			"boatId": entry.BoatID,
			"userId": entry.UserID,
			"values": entry.Values,
		})
	}
	payload["entries"] = entryItems
	return payload, nil
}

func (s *Service) PutCrewlistEntry(ctx context.Context, session Session, tripID, boatID, targetUserID string, values map[string]string, view roles.ViewContext) (map[string]any, error) {
	trip, participant, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	boat, err := s.store.GetBoat(ctx, boatID)
	if err != nil {
		return nil, err
	}
	if boat.TripID != tripID {
		return nil, sql.ErrNoRows
	}
	if !roles.CanEditCrewlistRow(&trip, &boat, participant, session.UserID, targetUserID, view) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "You cannot edit this crewlist row", nil)
	}

	entry := store.CrewlistEntry{
		ID:     util.NewID("crow"),
		TripID: tripID,
		BoatID: boatID,
		UserID: targetUserID,
		Values: values,
	}
	if err := s.store.UpsertCrewlistEntry(ctx, entry); err != nil {
		return nil, err
	}
	return map[string]any{"boatId": boatID, "userId": targetUserID, "values": values}, nil
}

type EventInput struct {
	Title       string
	Description string
	StartsAt    time.Time
	Roles       []string
	Checkable   bool
}

func (s *Service) CreateTimelineEvent(ctx context.Context, session Session, tripID string, input EventInput) (map[string]any, error) {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanManageTimelineEvents(&trip, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can manage timeline events", nil)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	event := store.TimelineEvent{
		ID:          util.NewID("evt"),
		TripID:      tripID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		StartsAt:    input.StartsAt,
		Roles:       input.Roles,
		Checkable:   input.Checkable,
	}
	if err := s.store.InsertTimelineEvent(ctx, event); err != nil {
		return nil, err
	}
	return eventPayload(event), nil
}

func (s *Service) ListTimelineEvents(ctx context.Context, session Session, tripID string) ([]map[string]any, error) {
	_, _, role, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	events, err := s.store.ListTimelineEvents(ctx, tripID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(events))
	for _, event := range events {
		if !roles.EventVisibleTo(&event, role) {
			continue
		}
		items = append(items, eventPayload(event))
	}
	return items, nil
}

func (s *Service) UpdateTimelineEvent(ctx context.Context, session Session, tripID, eventID string, input EventInput) (map[string]any, error) {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanManageTimelineEvents(&trip, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can manage timeline events", nil)
	}
	event, err := s.store.GetTimelineEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.TripID != tripID {
		return nil, sql.ErrNoRows
	}
	if title := strings.TrimSpace(input.Title); title != "" {
		event.Title = title
	}
	event.Description = strings.TrimSpace(input.Description)
	if !input.StartsAt.IsZero() {
		event.StartsAt = input.StartsAt
	}
	if input.Roles != nil {
		event.Roles = input.Roles
	}
	event.Checkable = input.Checkable
	if err := s.store.UpdateTimelineEvent(ctx, event); err != nil {
		return nil, err
	}
	return eventPayload(event), nil
}

func (s *Service) DeleteTimelineEvent(ctx context.Context, session Session, tripID, eventID string) error {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return err
	}
	if !roles.CanManageTimelineEvents(&trip, session.UserID) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can manage timeline events", nil)
	}
	event, err := s.store.GetTimelineEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.TripID != tripID {
		return sql.ErrNoRows
	}
	return s.store.DeleteTimelineEvent(ctx, eventID)
}

// ToggleEventCompletion flips the caller's completion mark on a checkable
// event.
func (s *Service) ToggleEventCompletion(ctx context.Context, session Session, tripID, eventID string) (map[string]any, error) {
	_, _, role, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	event, err := s.store.GetTimelineEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.TripID != tripID {
		return nil, sql.ErrNoRows
	}
	if !roles.CanCompleteEvent(&event, role) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "You cannot complete this event", nil)
	}

	found := false
	next := make([]string, 0, len(event.CompletedBy))
	for _, userID := range event.CompletedBy {
		if userID == session.UserID {
			found = true
			continue
		}
		next = append(next, userID)
	}
	if !found {
		next = append(next, session.UserID)
	}
	event.CompletedBy = next
	if err := s.store.UpdateTimelineEvent(ctx, event); err != nil {
		return nil, err
	}
	return eventPayload(event), nil
}

func (s *Service) UploadTripDocument(ctx context.Context, session Session, tripID, name, contentType string, size int64, reader io.Reader) (map[string]any, error) {
	if s.objects == nil {
		return nil, domainError(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Object storage is not configured", nil)
	}
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanManageDocuments(&trip, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can manage documents", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	docID := util.NewID("tdoc")
	objectKey := fmt.Sprintf("%s/%s", tripID, docID)
	if err := s.objects.Put(ctx, objectKey, reader, size, contentType); err != nil {
		return nil, err
	}
	doc := store.TripDocument{
		ID:          docID,
		TripID:      tripID,
		Name:        name,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  session.UserID,
	}
	if err := s.store.InsertTripDocument(ctx, doc); err != nil {
		// Orphaned object; removal failure only leaves garbage behind.
		_ = s.objects.Remove(ctx, objectKey)
		return nil, err
	}
	return documentPayload(doc), nil
}

func (s *Service) ListTripDocuments(ctx context.Context, session Session, tripID string) ([]map[string]any, error) {
	if _, _, _, err := s.tripAccess(ctx, tripID, session.UserID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListTripDocuments(ctx, tripID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		items = append(items, documentPayload(doc))
	}
	return items, nil
}

func (s *Service) TripDocumentURL(ctx context.Context, session Session, tripID, documentID string) (string, error) {
	if s.objects == nil {
		return "", domainError(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Object storage is not configured", nil)
	}
	if _, _, _, err := s.tripAccess(ctx, tripID, session.UserID); err != nil {
		return "", err
	}
	doc, err := s.store.GetTripDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc.TripID != tripID {
		return "", sql.ErrNoRows
	}
	return s.objects.PresignedGetURL(ctx, doc.ObjectKey, 15*time.Minute)
}

func (s *Service) DeleteTripDocument(ctx context.Context, session Session, tripID, documentID string) error {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return err
	}
	if !roles.CanManageDocuments(&trip, session.UserID) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can manage documents", nil)
	}
	doc, err := s.store.GetTripDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.TripID != tripID {
		return sql.ErrNoRows
	}
	if err := s.store.DeleteTripDocument(ctx, documentID); err != nil {
		return err
	}
	if s.objects != nil {
		if err := s.objects.Remove(ctx, doc.ObjectKey); err != nil {
			log.Printf("remove object %s: %v", doc.ObjectKey, err)
		}
	}
	return nil
}

type BoatLogInput struct {
	EntryDate time.Time
	Body      string
	Position  string
	Weather   string
}

func (s *Service) CreateBoatLogEntry(ctx context.Context, session Session, tripID, boatID string, input BoatLogInput) (map[string]any, error) {
	trip, participant, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	boat, err := s.store.GetBoat(ctx, boatID)
	if err != nil {
		return nil, err
	}
	if boat.TripID != tripID {
		return nil, sql.ErrNoRows
	}
	if !roles.CanEditBoatLog(&trip, &boat, participant, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer or the boat's captain can write the log", nil)
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is required", nil)
	}
	entryDate := input.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	entry := store.BoatLogEntry{
		ID:        util.NewID("blog"),
		TripID:    tripID,
		BoatID:    boatID,
		AuthorID:  session.UserID,
		EntryDate: entryDate,
		Body:      body,
		Position:  strings.TrimSpace(input.Position),
		Weather:   strings.TrimSpace(input.Weather),
	}
	if err := s.store.InsertBoatLogEntry(ctx, entry); err != nil {
		return nil, err
	}
	s.journalLogEntry(entry, session.UserName)
	s.indexLogEntry(entry)
	return boatLogPayload(entry), nil
}

func (s *Service) ListBoatLogEntries(ctx context.Context, session Session, tripID, boatID string) ([]map[string]any, error) {
	trip, participant, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	boat, err := s.store.GetBoat(ctx, boatID)
	if err != nil {
		return nil, err
	}
	if boat.TripID != tripID {
		return nil, sql.ErrNoRows
	}
	if !roles.CanViewBoatLog(&trip, &boat, participant, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "You cannot view this boat's log", nil)
	}
	entries, err := s.store.ListBoatLogEntries(ctx, tripID, boatID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		items = append(items, boatLogPayload(entry))
	}
	return items, nil
}

func (s *Service) UpdateBoatLogEntry(ctx context.Context, session Session, tripID, boatID, entryID string, input BoatLogInput) (map[string]any, error) {
	trip, participant, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	boat, err := s.store.GetBoat(ctx, boatID)
	if err != nil {
		return nil, err
	}
	if boat.TripID != tripID {
		return nil, sql.ErrNoRows
	}
	if !roles.CanEditBoatLog(&trip, &boat, participant, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer or the boat's captain can write the log", nil)
	}
	entry, err := s.store.GetBoatLogEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.TripID != tripID || entry.BoatID != boatID {
		return nil, sql.ErrNoRows
	}

	if body := strings.TrimSpace(input.Body); body != "" {
		entry.Body = body
	}
	if !input.EntryDate.IsZero() {
		entry.EntryDate = input.EntryDate
	}
	entry.Position = strings.TrimSpace(input.Position)
	entry.Weather = strings.TrimSpace(input.Weather)
	if err := s.store.UpdateBoatLogEntry(ctx, entry); err != nil {
		return nil, err
	}
	s.journalLogEntry(entry, session.UserName)
	s.indexLogEntry(entry)
	return boatLogPayload(entry), nil
}

func (s *Service) DeleteBoatLogEntry(ctx context.Context, session Session, tripID, boatID, entryID string) error {
	trip, participant, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return err
	}
	boat, err := s.store.GetBoat(ctx, boatID)
	if err != nil {
		return err
	}
	if boat.TripID != tripID {
		return sql.ErrNoRows
	}
	if !roles.CanEditBoatLog(&trip, &boat, participant, session.UserID) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer or the boat's captain can write the log", nil)
	}
	entry, err := s.store.GetBoatLogEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.TripID != tripID || entry.BoatID != boatID {
		return sql.ErrNoRows
	}
	if err := s.store.DeleteBoatLogEntry(ctx, entryID); err != nil {
		return err
	}
	if s.journal != nil {
		if _, err := s.journal.RemoveEntry(tripID, entryID, session.UserName); err != nil {
			log.Printf("journal remove entry %s: %v", entryID, err)
		}
	}
	if s.search != nil {
		s.search.DeleteLogEntry(entryID)
	}
	return nil
}

// BoatLogHistory lists the journal commits behind a trip's boat logs, newest
// first.
func (s *Service) BoatLogHistory(ctx context.Context, session Session, tripID string, limit int) ([]logbook.CommitInfo, error) {
	if _, _, _, err := s.tripAccess(ctx, tripID, session.UserID); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return []logbook.CommitInfo{}, nil
	}
	history, err := s.journal.History(tripID, limit)
	if err != nil {
		return nil, fmt.Errorf("read journal history: %w", err)
	}
	return history, nil
}

func (s *Service) journalLogEntry(entry store.BoatLogEntry, author string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.EnsureTripJournal(entry.TripID, author); err != nil {
		log.Printf("ensure trip journal %s: %v", entry.TripID, err)
		return
	}
	if _, err := s.journal.RecordEntry(entry.TripID, logbook.Entry{
		ID:        entry.ID,
		BoatID:    entry.BoatID,
		AuthorID:  entry.AuthorID,
		EntryDate: entry.EntryDate,
		Body:      entry.Body,
		Position:  entry.Position,
		Weather:   entry.Weather,
	}, author); err != nil {
		log.Printf("journal log entry %s: %v", entry.ID, err)
	}
}

func (s *Service) indexLogEntry(entry store.BoatLogEntry) {
	if s.search == nil {
		return
	}
	s.search.IndexLogEntry(search.LogEntryRecord{
		ID:     entry.ID,
		Body:   entry.Body,
		TripID: entry.TripID,
		BoatID: entry.BoatID,
	})
}

// ExportTrip renders a PDF report for the trip. Crew manifests carry personal
// data, so exports are organizer-only.
func (s *Service) ExportTrip(ctx context.Context, session Session, tripID, boatID string, kind export.Kind) (*export.Result, error) {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanViewParticipantDetails(&trip, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can export trip reports", nil)
	}
	if s.export == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export is not configured", nil)
	}
	return s.export.Export(ctx, export.Request{
		TripID: tripID,
		BoatID: boatID,
		Kind:   kind,
		Format: export.FormatPDF,
	})
}

func templatePayload(template store.ChecklistTemplate) map[string]any {
	categories := template.Categories
	if categories == nil {
		categories = []string{}
	}
	items := template.Items
	if items == nil {
		items = []store.TemplateItem{}
	}
	return map[string]any{
		"id":          template.ID,
		"organizerId": template.OrganizerID,
		"name":        template.Name,
		"description": template.Description,
		"categories":  categories,
		"items":       items,
		"createdAt":   template.CreatedAt,
		"updatedAt":   template.UpdatedAt,
	}
}

func instancePayload(instance store.ChecklistInstance) map[string]any {
	items := instance.Items
	if items == nil {
		items = []store.InstanceItem{}
	}
	completed := 0
	for _, item := range items {
		if item.Completed {
			completed++
		}
	}
	return map[string]any{
		"id":         instance.ID,
		"tripId":     instance.TripID,
		"templateId": instance.TemplateID,
		"name":       instance.Name,
		"boatId":     instance.BoatID,
		"role":       instance.Role,
		"userId":     instance.UserID,
		"items":      items,
		"progress":   map[string]int{"completed": completed, "total": len(items)},
		"updatedAt":  instance.UpdatedAt,
	}
}

func crewlistTemplatePayload(template store.CrewlistTemplate) map[string]any {
	fields := template.Fields
	if fields == nil {
		fields = []store.CrewlistField{}
	}
	return map[string]any{
		"id":     template.ID,
		"tripId": template.TripID,
		"fields": fields,
	}
}

func eventPayload(event store.TimelineEvent) map[string]any {
	eventRoles := event.Roles
	if eventRoles == nil {
		eventRoles = []string{}
	}
	completedBy := event.CompletedBy
	if completedBy == nil {
		completedBy = []string{}
	}
	return map[string]any{
		"id":          event.ID,
		"tripId":      event.TripID,
		"title":       event.Title,
		"description": event.Description,
		"startsAt":    event.StartsAt,
		"roles":       eventRoles,
		"checkable":   event.Checkable,
		"completedBy": completedBy,
	}
}

func documentPayload(doc store.TripDocument) map[string]any {
	return map[string]any{
		"id":          doc.ID,
		"tripId":      doc.TripID,
		"name":        doc.Name,
		"contentType": doc.ContentType,
		"size":        doc.Size,
		"uploadedBy":  doc.UploadedBy,
		"createdAt":   doc.CreatedAt,
	}
}

func boatLogPayload(entry store.BoatLogEntry) map[string]any {
	return map[string]any{
		"id":        entry.ID,
		"tripId":    entry.TripID,
		"boatId":    entry.BoatID,
		"authorId":  entry.AuthorID,
		"entryDate": entry.EntryDate,
		"body":      entry.Body,
		"position":  entry.Position,
		"weather":   entry.Weather,
		"createdAt": entry.CreatedAt,
		"updatedAt": entry.UpdatedAt,
	}
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
