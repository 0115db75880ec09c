package checklist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"sailplan/api/internal/store"
)

// memStore is an in-memory Store. keyedUnsupported switches the keyed query
// into the legacy-schema error path so the scan fallback gets exercised.
type memStore struct {
	templates        map[string]store.ChecklistTemplate
	instances        map[string]store.ChecklistInstance
	keyedUnsupported bool
	failUpdateFor    map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		templates:     make(map[string]store.ChecklistTemplate),
		instances:     make(map[string]store.ChecklistInstance),
		failUpdateFor: make(map[string]bool),
	}
}

func (m *memStore) GetChecklistTemplate(_ context.Context, id string) (store.ChecklistTemplate, error) {
	template, ok := m.templates[id]
	if !ok {
		return store.ChecklistTemplate{}, sql.ErrNoRows
	}
	return template, nil
}

func sameKey(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *memStore) QueryChecklistInstancesByKey(_ context.Context, tripID, templateID string, boatID, role, userID *string) ([]store.ChecklistInstance, error) {
	if m.keyedUnsupported {
		return nil, fmt.Errorf("%w: 42703", store.ErrKeyedQueryUnsupported)
	}
	var out []store.ChecklistInstance
	for _, instance := range m.instances {
		if instance.TripID == tripID && instance.TemplateID == templateID &&
			sameKey(instance.BoatID, boatID) && sameKey(instance.Role, role) && sameKey(instance.UserID, userID) {
			out = append(out, instance)
		}
	}
	return out, nil
}

func (m *memStore) ListChecklistInstancesByTrip(_ context.Context, tripID string) ([]store.ChecklistInstance, error) {
	var out []store.ChecklistInstance
	for _, instance := range m.instances {
		if instance.TripID == tripID {
			out = append(out, instance)
		}
	}
	return out, nil
}

func (m *memStore) ListChecklistInstancesByTemplate(_ context.Context, templateID string) ([]store.ChecklistInstance, error) {
	var out []store.ChecklistInstance
	for _, instance := range m.instances {
		if instance.TemplateID == templateID {
			out = append(out, instance)
		}
	}
	return out, nil
}

func (m *memStore) InsertChecklistInstance(_ context.Context, instance store.ChecklistInstance) (bool, error) {
	for _, existing := range m.instances {
		if existing.TripID == instance.TripID && existing.TemplateID == instance.TemplateID &&
			sameKey(existing.BoatID, instance.BoatID) && sameKey(existing.Role, instance.Role) && sameKey(existing.UserID, instance.UserID) {
			return false, nil
		}
	}
	m.instances[instance.ID] = instance
	return true, nil
}

func (m *memStore) GetChecklistInstance(_ context.Context, id string) (store.ChecklistInstance, error) {
	instance, ok := m.instances[id]
	if !ok {
		return store.ChecklistInstance{}, sql.ErrNoRows
	}
	return instance, nil
}

func (m *memStore) UpdateChecklistInstanceItems(_ context.Context, id string, items []store.InstanceItem) error {
	if m.failUpdateFor[id] {
		return errors.New("write refused")
	}
	instance, ok := m.instances[id]
	if !ok {
		return sql.ErrNoRows
	}
	instance.Items = items
	m.instances[id] = instance
	return nil
}

func (m *memStore) DeleteChecklistInstances(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.instances, id)
	}
	return nil
}

func seedTemplate(m *memStore, id string, itemIDs ...string) store.ChecklistTemplate {
	items := make([]store.TemplateItem, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		items = append(items, store.TemplateItem{ID: itemID, Text: "item " + itemID})
	}
	template := store.ChecklistTemplate{ID: id, OrganizerID: "org", Name: "Template " + id, Items: items}
	m.templates[id] = template
	return template
}

func TestCreateInstanceIdempotent(t *testing.T) {
	for _, keyedUnsupported := range []bool{false, true} {
		name := "keyed query"
		if keyedUnsupported {
			name = "trip scan fallback"
		}
		t.Run(name, func(t *testing.T) {
			m := newMemStore()
			m.keyedUnsupported = keyedUnsupported
			seedTemplate(m, "T1", "a", "b")
			engine := NewEngine(m)
			ctx := context.Background()

			first, err := engine.CreateInstance(ctx, "trip1", "T1", BoatTarget("B1"))
			if err != nil {
				t.Fatalf("first create: %v", err)
			}
			if first.Duplicate || first.InstanceID == "" {
				t.Fatalf("first create = %+v, want fresh instance", first)
			}

			second, err := engine.CreateInstance(ctx, "trip1", "T1", BoatTarget("B1"))
			if err != nil {
				t.Fatalf("second create: %v", err)
			}
			if !second.Duplicate {
				t.Fatal("second create should report duplicate")
			}
			if second.InstanceID != first.InstanceID {
				t.Fatalf("duplicate returned id %s, want %s", second.InstanceID, first.InstanceID)
			}
			if len(m.instances) != 1 {
				t.Fatalf("store holds %d instances, want 1", len(m.instances))
			}
		})
	}
}

func TestCreateInstanceCopiesTemplateItems(t *testing.T) {
	m := newMemStore()
	m.templates["T1"] = store.ChecklistTemplate{
		ID: "T1", Name: "Safety check",
		Items: []store.TemplateItem{{ID: "a", Text: "Check flares", Category: "safety", Required: true}},
	}
	engine := NewEngine(m)

	created, err := engine.CreateInstance(context.Background(), "trip1", "T1", OrganizerTarget())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	instance := m.instances[created.InstanceID]
	if instance.Name != "Safety check" {
		t.Fatalf("instance name = %q", instance.Name)
	}
	if instance.Role == nil || *instance.Role != "organizer" || instance.BoatID != nil || instance.UserID != nil {
		t.Fatalf("organizer target stored wrong: %+v", instance)
	}
	if len(instance.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(instance.Items))
	}
	item := instance.Items[0]
	if item.ID != "a" || item.Text != "Check flares" || !item.Required || item.Completed || item.Note != "" {
		t.Fatalf("copied item wrong: %+v", item)
	}
}

func TestCreateInstanceErrors(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)
	ctx := context.Background()

	if _, err := engine.CreateInstance(ctx, "trip1", "T1", Target{}); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("zero target: %v, want ErrInvalidTarget", err)
	}
	if _, err := engine.CreateInstance(ctx, "trip1", "missing", BoatTarget("B1")); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("missing template: %v, want ErrTemplateNotFound", err)
	}
}

func reconcileFixture(m *memStore) ([]store.ChecklistAssignment, []store.Participant, []store.Boat) {
	seedTemplate(m, "T1", "a")
	seedTemplate(m, "T2", "x", "y")
	assigned := []store.ChecklistAssignment{
		{ID: "as1", TemplateID: "T1", Roles: []string{"captain"}, AssignToBoats: true},
		{ID: "as2", TemplateID: "T2", Roles: []string{"organizer"}},
	}
	participants := []store.Participant{
		{ID: "p1", TripID: "trip1", UserID: "cap1", Role: "captain"},
		{ID: "p2", TripID: "trip1", UserID: "crew1", Role: "participant"},
	}
	boats := []store.Boat{{ID: "B1", TripID: "trip1"}}
	return assigned, participants, boats
}

func TestReconcileCreatesExpectedSet(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)
	assigned, participants, boats := reconcileFixture(m)

	result, err := engine.Reconcile(context.Background(), "trip1", assigned, participants, boats)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	// T1 for captain cap1, T1 for boat B1, T2 for the organizer role.
	if len(result.CreatedIDs) != 3 || len(result.DeletedIDs) != 0 {
		t.Fatalf("result = %+v, want 3 created 0 deleted", result)
	}
	if len(m.instances) != 3 {
		t.Fatalf("store holds %d instances, want 3", len(m.instances))
	}

	var haveBoat, haveUser, haveOrganizer bool
	for _, instance := range m.instances {
		switch {
		case instance.BoatID != nil && *instance.BoatID == "B1" && instance.TemplateID == "T1":
			haveBoat = true
		case instance.UserID != nil && *instance.UserID == "cap1" && instance.TemplateID == "T1":
			haveUser = true
		case instance.Role != nil && *instance.Role == "organizer" && instance.TemplateID == "T2":
			haveOrganizer = true
		}
	}
	if !haveBoat || !haveUser || !haveOrganizer {
		t.Fatalf("expected instance set missing: boat=%v user=%v organizer=%v", haveBoat, haveUser, haveOrganizer)
	}
}

func TestReconcileIsFixpoint(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)
	assigned, participants, boats := reconcileFixture(m)
	ctx := context.Background()

	if _, err := engine.Reconcile(ctx, "trip1", assigned, participants, boats); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	idsBefore := make(map[string]bool)
	for id := range m.instances {
		idsBefore[id] = true
	}

	result, err := engine.Reconcile(ctx, "trip1", assigned, participants, boats)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if len(result.CreatedIDs) != 0 || len(result.DeletedIDs) != 0 {
		t.Fatalf("second reconcile changed state: %+v", result)
	}
	for id := range m.instances {
		if !idsBefore[id] {
			t.Fatalf("instance %s appeared on a no-op reconcile", id)
		}
	}
}

func TestReconcileRemovesInstancesOnRoleChange(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)
	assigned, participants, boats := reconcileFixture(m)
	ctx := context.Background()

	if _, err := engine.Reconcile(ctx, "trip1", assigned, participants, boats); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// cap1 steps down to plain participant; their captain checklist must go,
	// the boat and organizer instances must survive.
	participants[0].Role = "participant"
	result, err := engine.Reconcile(ctx, "trip1", assigned, participants, boats)
	if err != nil {
		t.Fatalf("reconcile after role change: %v", err)
	}
	if len(result.DeletedIDs) != 1 || len(result.CreatedIDs) != 0 {
		t.Fatalf("result = %+v, want 1 deleted 0 created", result)
	}
	for _, instance := range m.instances {
		if instance.UserID != nil && *instance.UserID == "cap1" {
			t.Fatal("cap1's captain instance should have been deleted")
		}
	}
	if len(m.instances) != 2 {
		t.Fatalf("store holds %d instances, want 2", len(m.instances))
	}
}

func TestReconcileOneInstancePerUserPerTemplate(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)
	seedTemplate(m, "T1", "a")

	// T1 assigned to both roles; cap1 holds captain but must get one instance.
	assigned := []store.ChecklistAssignment{
		{ID: "as1", TemplateID: "T1", Roles: []string{"captain", "participant"}},
	}
	participants := []store.Participant{
		{ID: "p1", TripID: "trip1", UserID: "cap1", Role: "captain"},
	}

	result, err := engine.Reconcile(context.Background(), "trip1", assigned, participants, nil)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.CreatedIDs) != 1 {
		t.Fatalf("created %d instances for one user, want 1", len(result.CreatedIDs))
	}
}

func TestSyncFromTemplatePreservesProgress(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)
	ctx := context.Background()
	seedTemplate(m, "T1", "a", "b")

	created, err := engine.CreateInstance(ctx, "trip1", "T1", BoatTarget("B1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	done := true
	if _, err := engine.UpdateItem(ctx, created.InstanceID, "a", ItemPatch{Completed: &done, Note: strPtr("checked twice")}); err != nil {
		t.Fatalf("update item: %v", err)
	}

	// Template edit: "b" removed, "c" added, "a" reworded.
	m.templates["T1"] = store.ChecklistTemplate{
		ID: "T1", Name: "Template T1",
		Items: []store.TemplateItem{
			{ID: "a", Text: "item a, reworded"},
			{ID: "c", Text: "item c"},
		},
	}

	updated, err := engine.SyncFromTemplate(ctx, "T1")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want 1", updated)
	}

	instance := m.instances[created.InstanceID]
	if len(instance.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(instance.Items))
	}
	if instance.Items[0].ID != "a" || instance.Items[0].Text != "item a, reworded" {
		t.Fatalf("item a not refreshed: %+v", instance.Items[0])
	}
	if !instance.Items[0].Completed || instance.Items[0].Note != "checked twice" {
		t.Fatalf("item a lost progress: %+v", instance.Items[0])
	}
	if instance.Items[1].ID != "c" || instance.Items[1].Completed {
		t.Fatalf("item c wrong: %+v", instance.Items[1])
	}
}

func TestSyncFromTemplateMatchesLegacyItemID(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)
	seedTemplate(m, "T1", "a")

	m.instances["old"] = store.ChecklistInstance{
		ID: "old", TripID: "trip1", TemplateID: "T1", Role: strPtr("organizer"),
		Items: []store.InstanceItem{{LegacyID: "a", Text: "item a", Completed: true, Value: "42"}},
	}

	if _, err := engine.SyncFromTemplate(context.Background(), "T1"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	item := m.instances["old"].Items[0]
	if item.ID != "a" || !item.Completed || item.Value != "42" {
		t.Fatalf("legacy item not carried forward: %+v", item)
	}
}

func TestSyncFromTemplateBestEffort(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)
	ctx := context.Background()
	seedTemplate(m, "T1", "a")

	good, err := engine.CreateInstance(ctx, "trip1", "T1", BoatTarget("B1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bad, err := engine.CreateInstance(ctx, "trip2", "T1", BoatTarget("B2"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m.failUpdateFor[bad.InstanceID] = true

	seedTemplate(m, "T1", "a", "b")
	updated, err := engine.SyncFromTemplate(ctx, "T1")
	if err == nil {
		t.Fatal("expected an aggregated error for the failed instance")
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want 1 despite one failure", updated)
	}
	if len(m.instances[good.InstanceID].Items) != 2 {
		t.Fatal("healthy instance should have been synced")
	}
}

func TestUpdateItem(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)
	ctx := context.Background()
	seedTemplate(m, "T1", "a", "b")

	created, err := engine.CreateInstance(ctx, "trip1", "T1", UserTarget("captain", "cap1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := true
	instance, err := engine.UpdateItem(ctx, created.InstanceID, "b", ItemPatch{Completed: &done, Value: strPtr("ok")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !instance.Items[1].Completed || instance.Items[1].Value != "ok" {
		t.Fatalf("patch not applied: %+v", instance.Items[1])
	}
	if instance.Items[0].Completed {
		t.Fatal("untouched item changed")
	}

	// Nil patch fields leave prior state alone.
	instance, err = engine.UpdateItem(ctx, created.InstanceID, "b", ItemPatch{Note: strPtr("later")})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if !instance.Items[1].Completed || instance.Items[1].Value != "ok" || instance.Items[1].Note != "later" {
		t.Fatalf("shallow merge wrong: %+v", instance.Items[1])
	}

	if _, err := engine.UpdateItem(ctx, created.InstanceID, "zzz", ItemPatch{}); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("unknown item: %v, want ErrItemNotFound", err)
	}
	if _, err := engine.UpdateItem(ctx, "nope", "a", ItemPatch{}); !errors.Is(err, ErrInstanceNotFound) {
		t.Fatalf("unknown instance: %v, want ErrInstanceNotFound", err)
	}
}

func TestUpdateItemLegacyFallback(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)

	m.instances["old"] = store.ChecklistInstance{
		ID: "old", TripID: "trip1", TemplateID: "T1", Role: strPtr("organizer"),
		Items: []store.InstanceItem{{LegacyID: "a", Text: "item a"}},
	}

	done := true
	instance, err := engine.UpdateItem(context.Background(), "old", "a", ItemPatch{Completed: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !instance.Items[0].Completed {
		t.Fatal("legacy-matched item not updated")
	}
}

// End-to-end: template assigned to captains and to boats, then the captain
// leaves the trip.
func TestReconcileScenario(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(m)
	ctx := context.Background()
	seedTemplate(m, "T", "a")

	assigned := []store.ChecklistAssignment{
		{ID: "as1", TemplateID: "T", Roles: []string{"captain"}, AssignToBoats: true},
	}
	participants := []store.Participant{
		{ID: "p1", TripID: "trip1", UserID: "cap1", Role: "captain"},
	}
	boats := []store.Boat{{ID: "B1", TripID: "trip1"}}

	result, err := engine.Reconcile(ctx, "trip1", assigned, participants, boats)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(result.CreatedIDs) != 2 {
		t.Fatalf("created %d, want 2 (captain + boat)", len(result.CreatedIDs))
	}

	result, err = engine.Reconcile(ctx, "trip1", assigned, nil, boats)
	if err != nil {
		t.Fatalf("reconcile after removal: %v", err)
	}
	if len(result.DeletedIDs) != 1 || len(result.CreatedIDs) != 0 {
		t.Fatalf("result = %+v, want 1 deleted 0 created", result)
	}
	if len(m.instances) != 1 {
		t.Fatalf("store holds %d instances, want just the boat one", len(m.instances))
	}
	for _, instance := range m.instances {
		if instance.BoatID == nil || *instance.BoatID != "B1" {
			t.Fatalf("surviving instance is not the boat one: %+v", instance)
		}
	}
}

func strPtr(s string) *string { return &s }
