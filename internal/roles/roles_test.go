package roles

import (
	"testing"

	"sailplan/api/internal/store"
)

func strPtr(s string) *string { return &s }

var (
	trip  = &store.Trip{ID: "trip1", OrganizerID: "org"}
	boat1 = &store.Boat{ID: "B1", TripID: "trip1"}
	boat2 = &store.Boat{ID: "B2", TripID: "trip1"}

	captainOfBoat1 = &store.Participant{ID: "p1", TripID: "trip1", UserID: "cap1", Role: "captain", BoatID: strPtr("B1")}
	captainOfBoat2 = &store.Participant{ID: "p2", TripID: "trip1", UserID: "cap2", Role: "captain", BoatID: strPtr("B2")}
	crewOfBoat1    = &store.Participant{ID: "p3", TripID: "trip1", UserID: "crew1", Role: "participant", BoatID: strPtr("B1")}
	crewOfBoat2    = &store.Participant{ID: "p4", TripID: "trip1", UserID: "crew2", Role: "participant", BoatID: strPtr("B2")}
)

// viewer maps each user kind of the permission matrix to its participant
// record (nil for the organizer and the unrelated user).
var viewers = []struct {
	name        string
	userID      string
	participant *store.Participant
}{
	{name: "organizer", userID: "org", participant: nil},
	{name: "captain of this boat", userID: "cap1", participant: captainOfBoat1},
	{name: "captain of other boat", userID: "cap2", participant: captainOfBoat2},
	{name: "participant of this boat", userID: "crew1", participant: crewOfBoat1},
	{name: "participant of other boat", userID: "crew2", participant: crewOfBoat2},
	{name: "unrelated user", userID: "stranger", participant: nil},
}

func TestEffectiveRole(t *testing.T) {
	cases := []struct {
		name        string
		participant *store.Participant
		userID      string
		want        Role
	}{
		{name: "organizer not joined", participant: nil, userID: "org", want: Organizer},
		{name: "organizer joined as captain", participant: &store.Participant{UserID: "org", Role: "captain"}, userID: "org", want: Captain},
		{name: "organizer joined as crew", participant: &store.Participant{UserID: "org", Role: "participant"}, userID: "org", want: Participant},
		{name: "captain", participant: captainOfBoat1, userID: "cap1", want: Captain},
		{name: "participant", participant: crewOfBoat1, userID: "crew1", want: Participant},
		{name: "unrelated", participant: nil, userID: "stranger", want: ""},
		{name: "nil trip", participant: crewOfBoat1, userID: "crew1", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := trip
			if tc.name == "nil trip" {
				target = nil
			}
			if got := EffectiveRole(target, tc.participant, tc.userID); got != tc.want {
				t.Fatalf("EffectiveRole = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHeldRoles(t *testing.T) {
	got := HeldRoles(trip, &store.Participant{UserID: "org", Role: "captain"}, "org")
	if len(got) != 2 || got[0] != Organizer || got[1] != Captain {
		t.Fatalf("HeldRoles for organizer-captain = %v, want [organizer captain]", got)
	}

	got = HeldRoles(trip, crewOfBoat1, "crew1")
	if len(got) != 1 || got[0] != Participant {
		t.Fatalf("HeldRoles for crew = %v, want [participant]", got)
	}

	if got := HeldRoles(trip, nil, "stranger"); got != nil {
		t.Fatalf("HeldRoles for stranger = %v, want nil", got)
	}
}

func TestOrganizerOnlyPredicates(t *testing.T) {
	predicates := map[string]func(*store.Trip, string) bool{
		"CanEditTrip":              CanEditTrip,
		"CanDeleteTrip":            CanDeleteTrip,
		"CanManageParticipants":    CanManageParticipants,
		"CanManageBoats":           CanManageBoats,
		"CanManageDocuments":       CanManageDocuments,
		"CanManageTimelineEvents":  CanManageTimelineEvents,
		"CanViewParticipantDetails": CanViewParticipantDetails,
	}

	for name, predicate := range predicates {
		for _, v := range viewers {
			want := v.userID == "org"
			if got := predicate(trip, v.userID); got != want {
				t.Errorf("%s(%s) = %v, want %v", name, v.name, got, want)
			}
		}
		if predicate(nil, "org") {
			t.Errorf("%s(nil trip) = true, want false", name)
		}
	}
}

func TestCanEditBoat(t *testing.T) {
	expected := map[string]bool{
		"organizer":                 true,
		"captain of this boat":      true,
		"captain of other boat":     false,
		"participant of this boat":  false,
		"participant of other boat": false,
		"unrelated user":            false,
	}

	for _, v := range viewers {
		if got := CanEditBoat(trip, boat1, v.participant, v.userID); got != expected[v.name] {
			t.Errorf("CanEditBoat(%s, B1) = %v, want %v", v.name, got, expected[v.name])
		}
		if got := CanEditBoatLog(trip, boat1, v.participant, v.userID); got != expected[v.name] {
			t.Errorf("CanEditBoatLog(%s, B1) = %v, want %v", v.name, got, expected[v.name])
		}
	}
}

func TestCanViewBoatLog(t *testing.T) {
	expected := map[string]bool{
		"organizer":                 true,
		"captain of this boat":      true,
		"captain of other boat":     false,
		"participant of this boat":  true,
		"participant of other boat": false,
		"unrelated user":            false,
	}

	for _, v := range viewers {
		if got := CanViewBoatLog(trip, boat1, v.participant, v.userID); got != expected[v.name] {
			t.Errorf("CanViewBoatLog(%s, B1) = %v, want %v", v.name, got, expected[v.name])
		}
	}
}

func TestCanEditParticipant(t *testing.T) {
	if !CanEditParticipant(trip, crewOfBoat1, "org") {
		t.Fatal("organizer should edit any participant")
	}
	if !CanEditParticipant(trip, crewOfBoat1, "crew1") {
		t.Fatal("participant should edit own record")
	}
	if CanEditParticipant(trip, crewOfBoat1, "cap1") {
		t.Fatal("captain should not edit a crewmate's participant record")
	}
	if CanEditParticipant(trip, crewOfBoat1, "stranger") {
		t.Fatal("stranger should not edit participant records")
	}
}

func TestCanEditCrewlistRow(t *testing.T) {
	cases := []struct {
		name         string
		viewer       *store.Participant
		userID       string
		targetUserID string
		view         ViewContext
		want         bool
	}{
		{name: "organizer edits any row", viewer: nil, userID: "org", targetUserID: "crew1", view: ViewAsOrganizer, want: true},
		{name: "captain edits own row", viewer: captainOfBoat1, userID: "cap1", targetUserID: "cap1", view: ViewAsCaptain, want: true},
		{name: "captain denied crewmate row", viewer: captainOfBoat1, userID: "cap1", targetUserID: "crew1", view: ViewAsCaptain, want: false},
		{name: "captain of other boat denied", viewer: captainOfBoat2, userID: "cap2", targetUserID: "cap2", view: ViewAsCaptain, want: false},
		{name: "organizer in captain context denied", viewer: nil, userID: "org", targetUserID: "crew1", view: ViewAsCaptain, want: false},
		{name: "participant context never edits", viewer: crewOfBoat1, userID: "crew1", targetUserID: "crew1", view: ViewAsParticipant, want: false},
		{name: "stranger denied", viewer: nil, userID: "stranger", targetUserID: "stranger", view: ViewAsOrganizer, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanEditCrewlistRow(trip, boat1, tc.viewer, tc.userID, tc.targetUserID, tc.view); got != tc.want {
				t.Fatalf("CanEditCrewlistRow = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanEditChecklist(t *testing.T) {
	boatInstance := &store.ChecklistInstance{ID: "i1", TripID: "trip1", BoatID: strPtr("B1")}
	userInstance := &store.ChecklistInstance{ID: "i2", TripID: "trip1", Role: strPtr("participant"), UserID: strPtr("crew1")}
	organizerInstance := &store.ChecklistInstance{ID: "i3", TripID: "trip1", Role: strPtr("organizer")}

	boatExpected := map[string]bool{
		"organizer":                 true,
		"captain of this boat":      true,
		"captain of other boat":     false,
		"participant of this boat":  false,
		"participant of other boat": false,
		"unrelated user":            false,
	}
	for _, v := range viewers {
		if got := CanEditChecklist(trip, boatInstance, v.participant, v.userID); got != boatExpected[v.name] {
			t.Errorf("CanEditChecklist(%s, boat instance) = %v, want %v", v.name, got, boatExpected[v.name])
		}
	}

	userExpected := map[string]bool{
		"organizer":                 true,
		"captain of this boat":      false,
		"captain of other boat":     false,
		"participant of this boat":  true,
		"participant of other boat": false,
		"unrelated user":            false,
	}
	for _, v := range viewers {
		if got := CanEditChecklist(trip, userInstance, v.participant, v.userID); got != userExpected[v.name] {
			t.Errorf("CanEditChecklist(%s, user instance) = %v, want %v", v.name, got, userExpected[v.name])
		}
	}

	for _, v := range viewers {
		want := v.userID == "org"
		if got := CanEditChecklist(trip, organizerInstance, v.participant, v.userID); got != want {
			t.Errorf("CanEditChecklist(%s, organizer instance) = %v, want %v", v.name, got, want)
		}
	}
}

func TestEventVisibility(t *testing.T) {
	open := &store.TimelineEvent{ID: "e1", Checkable: true}
	captainsOnly := &store.TimelineEvent{ID: "e2", Roles: []string{"captain"}, Checkable: true}
	notCheckable := &store.TimelineEvent{ID: "e3", Roles: []string{"captain"}}

	if !EventVisibleTo(open, Participant) || !EventVisibleTo(open, "") {
		t.Fatal("unrestricted event should be visible to everyone")
	}
	if !EventVisibleTo(captainsOnly, Organizer) {
		t.Fatal("organizer should see role-restricted events")
	}
	if !EventVisibleTo(captainsOnly, Captain) {
		t.Fatal("captain should see captain events")
	}
	if EventVisibleTo(captainsOnly, Participant) {
		t.Fatal("participant should not see captain-only events")
	}

	if !CanCompleteEvent(open, Participant) {
		t.Fatal("checkable unrestricted event should be completable")
	}
	if CanCompleteEvent(captainsOnly, Participant) {
		t.Fatal("participant cannot complete captain-only event")
	}
	if !CanCompleteEvent(captainsOnly, Organizer) {
		t.Fatal("organizer can complete any checkable event")
	}
	if CanCompleteEvent(notCheckable, Organizer) {
		t.Fatal("non-checkable event is never completable")
	}
}
