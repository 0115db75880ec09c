// Package checklist keeps checklist instances consistent with a trip's
// assignment spec and propagates template edits into live instances without
// destroying user-entered progress.
package checklist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"sailplan/api/internal/store"
	"sailplan/api/internal/util"
)

// Store is the persistence surface the engine needs. *store.PostgresStore
// satisfies it in production.
type Store interface {
	GetChecklistTemplate(ctx context.Context, templateID string) (store.ChecklistTemplate, error)
	QueryChecklistInstancesByKey(ctx context.Context, tripID, templateID string, boatID, role, userID *string) ([]store.ChecklistInstance, error)
	ListChecklistInstancesByTrip(ctx context.Context, tripID string) ([]store.ChecklistInstance, error)
	ListChecklistInstancesByTemplate(ctx context.Context, templateID string) ([]store.ChecklistInstance, error)
	InsertChecklistInstance(ctx context.Context, instance store.ChecklistInstance) (bool, error)
	GetChecklistInstance(ctx context.Context, instanceID string) (store.ChecklistInstance, error)
	UpdateChecklistInstanceItems(ctx context.Context, instanceID string, items []store.InstanceItem) error
	DeleteChecklistInstances(ctx context.Context, instanceIDs []string) error
}

type Engine struct {
	store Store
}

func NewEngine(s Store) *Engine {
	return &Engine{store: s}
}

type CreateResult struct {
	InstanceID string
	// Duplicate reports that an instance with the same identity key already
	// existed and no write was performed.
	Duplicate bool
}

// CreateInstance creates the instance for (trip, template, target) unless one
// already exists. Repeated calls with the same arguments are a no-op after
// the first, which is what keeps reconciliation safe to retry.
func (e *Engine) CreateInstance(ctx context.Context, tripID, templateID string, target Target) (CreateResult, error) {
	if target.IsZero() {
		return CreateResult{}, ErrInvalidTarget
	}

	existing, err := e.findByKey(ctx, tripID, templateID, target)
	if err != nil {
		return CreateResult{}, err
	}
	if len(existing) > 0 {
		return CreateResult{InstanceID: existing[0].ID, Duplicate: true}, nil
	}

	template, err := e.store.GetChecklistTemplate(ctx, templateID)
	if errors.Is(err, sql.ErrNoRows) {
		return CreateResult{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}
	if err != nil {
		return CreateResult{}, fmt.Errorf("load template: %w", err)
	}

	items := make([]store.InstanceItem, 0, len(template.Items))
	for _, item := range template.Items {
		items = append(items, store.InstanceItem{
			ID:        item.ID,
			Text:      item.Text,
			Category:  item.Category,
			InputType: item.InputType,
			AllowNote: item.AllowNote,
			Required:  item.Required,
			Completed: false,
			Note:      "",
		})
	}

	instance := store.ChecklistInstance{
		ID:         util.NewID("chk"),
		TripID:     tripID,
		TemplateID: templateID,
		Name:       template.Name,
		BoatID:     target.BoatID(),
		Role:       target.Role(),
		UserID:     target.UserID(),
		Items:      items,
	}

	inserted, err := e.store.InsertChecklistInstance(ctx, instance)
	if err != nil {
		return CreateResult{}, fmt.Errorf("insert instance: %w", err)
	}
	if !inserted {
		// A concurrent writer won the identity-key race. Re-read for its id.
		again, err := e.findByKey(ctx, tripID, templateID, target)
		if err == nil && len(again) > 0 {
			return CreateResult{InstanceID: again[0].ID, Duplicate: true}, nil
		}
		return CreateResult{Duplicate: true}, nil
	}
	return CreateResult{InstanceID: instance.ID}, nil
}

// findByKey prefers the identity-keyed query and falls back to a trip-wide
// scan with in-memory filtering when the store cannot serve the keyed shape.
func (e *Engine) findByKey(ctx context.Context, tripID, templateID string, target Target) ([]store.ChecklistInstance, error) {
	instances, err := e.store.QueryChecklistInstancesByKey(ctx, tripID, templateID, target.BoatID(), target.Role(), target.UserID())
	if err == nil {
		return instances, nil
	}
	if !errors.Is(err, store.ErrKeyedQueryUnsupported) {
		return nil, fmt.Errorf("query instances: %w", err)
	}

	all, err := e.store.ListChecklistInstancesByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("scan instances: %w", err)
	}
	matched := make([]store.ChecklistInstance, 0, 1)
	for _, instance := range all {
		if target.matches(instance, templateID) {
			matched = append(matched, instance)
		}
	}
	return matched, nil
}

type ReconcileResult struct {
	CreatedIDs []string
	DeletedIDs []string
}

type expectedEntry struct {
	templateID string
	target     Target
}

// Reconcile diffs the instances a trip should have against the ones it does
// have, deleting orphans and creating what is missing. Running it twice with
// unchanged inputs is a no-op.
func (e *Engine) Reconcile(ctx context.Context, tripID string, assigned []store.ChecklistAssignment, participants []store.Participant, boats []store.Boat) (ReconcileResult, error) {
	expected := make(map[string]expectedEntry)
	// Guards against creating two instances for one user when a template is
	// assigned to several roles that could resolve to the same person.
	usersWithInstances := make(map[string]map[string]bool)

	for _, assignment := range assigned {
		if assignment.TemplateID == "" {
			continue
		}
		for _, role := range assignment.Roles {
			if role == "organizer" {
				target := OrganizerTarget()
				expected[target.key(assignment.TemplateID)] = expectedEntry{templateID: assignment.TemplateID, target: target}
				continue
			}
			for _, participant := range participants {
				if participant.Role != role {
					continue
				}
				seen := usersWithInstances[assignment.TemplateID]
				if seen == nil {
					seen = make(map[string]bool)
					usersWithInstances[assignment.TemplateID] = seen
				}
				if seen[participant.UserID] {
					continue
				}
				seen[participant.UserID] = true
				target := UserTarget(role, participant.UserID)
				expected[target.key(assignment.TemplateID)] = expectedEntry{templateID: assignment.TemplateID, target: target}
			}
		}
		if assignment.AssignToBoats {
			for _, boat := range boats {
				target := BoatTarget(boat.ID)
				expected[target.key(assignment.TemplateID)] = expectedEntry{templateID: assignment.TemplateID, target: target}
			}
		}
	}

	existing, err := e.store.ListChecklistInstancesByTrip(ctx, tripID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list trip instances: %w", err)
	}

	var result ReconcileResult
	existingKeys := make(map[string]bool, len(existing))
	for _, instance := range existing {
		key := instanceKey(instance)
		if _, want := expected[key]; !want {
			result.DeletedIDs = append(result.DeletedIDs, instance.ID)
			continue
		}
		existingKeys[key] = true
	}

	if len(result.DeletedIDs) > 0 {
		if err := e.store.DeleteChecklistInstances(ctx, result.DeletedIDs); err != nil {
			return ReconcileResult{}, fmt.Errorf("delete orphaned instances: %w", err)
		}
	}

	missing := make([]string, 0)
	for key := range expected {
		if !existingKeys[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)

	for _, key := range missing {
		entry := expected[key]
		created, err := e.CreateInstance(ctx, tripID, entry.templateID, entry.target)
		if err != nil {
			return result, fmt.Errorf("create instance for %s: %w", entry.templateID, err)
		}
		if !created.Duplicate {
			result.CreatedIDs = append(result.CreatedIDs, created.InstanceID)
		}
	}

	return result, nil
}

// SyncFromTemplate pushes a template's current item list onto every instance
// referencing it. Items are merged by id so completion state, values and
// notes survive a template edit; items removed from the template are dropped.
// Writes are independent and best-effort: a failure on one instance does not
// roll back the others, and all failures are reported together.
func (e *Engine) SyncFromTemplate(ctx context.Context, templateID string) (int, error) {
	template, err := e.store.GetChecklistTemplate(ctx, templateID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}
	if err != nil {
		return 0, fmt.Errorf("load template: %w", err)
	}

	instances, err := e.store.ListChecklistInstancesByTemplate(ctx, templateID)
	if err != nil {
		return 0, fmt.Errorf("list template instances: %w", err)
	}

	updated := 0
	var writeErrs []error
	for _, instance := range instances {
		merged := mergeItems(template.Items, instance.Items)
		if err := e.store.UpdateChecklistInstanceItems(ctx, instance.ID, merged); err != nil {
			writeErrs = append(writeErrs, fmt.Errorf("instance %s: %w", instance.ID, err))
			continue
		}
		updated++
	}
	return updated, errors.Join(writeErrs...)
}

// mergeItems builds the new item list from the template, carrying forward
// instance-local state for items whose id (or legacy itemId) survives.
func mergeItems(templateItems []store.TemplateItem, current []store.InstanceItem) []store.InstanceItem {
	previous := make(map[string]store.InstanceItem, len(current))
	for _, item := range current {
		switch {
		case item.ID != "":
			previous[item.ID] = item
		case item.LegacyID != "":
			previous[item.LegacyID] = item
		}
	}

	merged := make([]store.InstanceItem, 0, len(templateItems))
	for _, item := range templateItems {
		next := store.InstanceItem{
			ID:        item.ID,
			Text:      item.Text,
			Category:  item.Category,
			InputType: item.InputType,
			AllowNote: item.AllowNote,
			Required:  item.Required,
		}
		if prior, ok := previous[item.ID]; ok {
			next.Completed = prior.Completed
			next.Value = prior.Value
			next.Note = prior.Note
		}
		merged = append(merged, next)
	}
	return merged
}

// ItemPatch is a shallow merge onto one instance item; nil fields are left
// untouched.
type ItemPatch struct {
	Completed *bool
	Value     *string
	Note      *string
}

// UpdateItem applies a patch to a single item, matching by id first and then
// by the legacy itemId field older instances carry.
func (e *Engine) UpdateItem(ctx context.Context, instanceID, itemID string, patch ItemPatch) (store.ChecklistInstance, error) {
	instance, err := e.store.GetChecklistInstance(ctx, instanceID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ChecklistInstance{}, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
	}
	if err != nil {
		return store.ChecklistInstance{}, fmt.Errorf("load instance: %w", err)
	}

	index := -1
	for i, item := range instance.Items {
		if item.ID == itemID {
			index = i
			break
		}
	}
	if index < 0 {
		for i, item := range instance.Items {
			if item.LegacyID == itemID {
				index = i
				break
			}
		}
	}
	if index < 0 {
		return store.ChecklistInstance{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	item := instance.Items[index]
	if patch.Completed != nil {
		item.Completed = *patch.Completed
	}
	if patch.Value != nil {
		item.Value = *patch.Value
	}
	if patch.Note != nil {
		item.Note = *patch.Note
	}
	instance.Items[index] = item

	if err := e.store.UpdateChecklistInstanceItems(ctx, instance.ID, instance.Items); err != nil {
		return store.ChecklistInstance{}, fmt.Errorf("persist item update: %w", err)
	}
	return instance, nil
}
