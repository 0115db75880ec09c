package checklist

import "sailplan/api/internal/store"

type targetKind int

const (
	targetBoat targetKind = iota + 1
	targetOrganizer
	targetUser
)

// Target identifies who a checklist instance is handed to: one boat, the
// organizer role, or one user holding a role. Exactly one dimension is ever
// set; the constructors are the only way to build a valid value.
type Target struct {
	kind   targetKind
	boatID string
	role   string
	userID string
}

func BoatTarget(boatID string) Target {
	return Target{kind: targetBoat, boatID: boatID}
}

func OrganizerTarget() Target {
	return Target{kind: targetOrganizer, role: "organizer"}
}

func UserTarget(role, userID string) Target {
	return Target{kind: targetUser, role: role, userID: userID}
}

func (t Target) IsZero() bool { return t.kind == 0 }

// BoatID, Role and UserID return the nullable column values the target maps
// to in storage.
func (t Target) BoatID() *string {
	if t.kind == targetBoat {
		return &t.boatID
	}
	return nil
}

func (t Target) Role() *string {
	if t.kind == targetOrganizer || t.kind == targetUser {
		return &t.role
	}
	return nil
}

func (t Target) UserID() *string {
	if t.kind == targetUser {
		return &t.userID
	}
	return nil
}

// key renders the identity key (templateID, boatId|role|userId) that must be
// unique per trip. Null dimensions render empty, matching the storage index.
func (t Target) key(templateID string) string {
	return templateID + "|" + t.boatID + "|" + t.role + "|" + t.userID
}

// instanceKey computes the identity key of a persisted instance so it can be
// compared against expected targets.
func instanceKey(instance store.ChecklistInstance) string {
	boatID, role, userID := "", "", ""
	if instance.BoatID != nil {
		boatID = *instance.BoatID
	}
	if instance.Role != nil {
		role = *instance.Role
	}
	if instance.UserID != nil {
		userID = *instance.UserID
	}
	return instance.TemplateID + "|" + boatID + "|" + role + "|" + userID
}

func (t Target) matches(instance store.ChecklistInstance, templateID string) bool {
	return t.key(templateID) == instanceKey(instance)
}
