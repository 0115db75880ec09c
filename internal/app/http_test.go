package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sailplan/api/internal/store"
)

func newTestHandler(fake *fakeStore) http.Handler {
	return NewHTTPServer(newTestService(fake), "*").Handler()
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(newFakeStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("body = %v, want ok=true", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestReadyEndpoint(t *testing.T) {
	handler := newTestHandler(newFakeStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRoutesRequireSession(t *testing.T) {
	handler := newTestHandler(newFakeStore())

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/trips"},
		{http.MethodPost, "/api/trips"},
		{http.MethodGet, "/api/templates"},
		{http.MethodGet, "/api/trips/trip1/checklists"},
		{http.MethodGet, "/api/search?q=albatross"},
	}
	for _, tc := range paths {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestSessionEndpointWithoutToken(t *testing.T) {
	handler := newTestHandler(newFakeStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["authenticated"] != false {
		t.Fatalf("body = %v, want authenticated=false", body)
	}
}

func TestTripLifecycleOverHTTP(t *testing.T) {
	fake := newFakeStore()
	fake.users["u1"] = store.User{ID: "u1", DisplayName: "Maren"}
	svc := newTestService(fake)
	handler := NewHTTPServer(svc, "*").Handler()

	session, err := svc.CreateSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	authed := func(method, path string, body any) *httptest.ResponseRecorder {
		var reader *bytes.Reader
		if body != nil {
			raw, _ := json.Marshal(body)
			reader = bytes.NewReader(raw)
		} else {
			reader = bytes.NewReader(nil)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Authorization", "Bearer "+session.Token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := authed(http.MethodPost, "/api/trips", map[string]any{"name": "Baltic Cruise"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create trip status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	tripID, _ := created["id"].(string)
	if tripID == "" {
		t.Fatalf("create trip returned no id: %v", created)
	}
	if created["viewerRole"] != "organizer" {
		t.Fatalf("viewerRole = %v, want organizer", created["viewerRole"])
	}

	rec = authed(http.MethodGet, "/api/trips", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list trips status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), tripID) {
		t.Fatalf("trip list does not contain %s: %s", tripID, rec.Body.String())
	}

	rec = authed(http.MethodDelete, "/api/trips/"+tripID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete trip status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = authed(http.MethodGet, "/api/trips/"+tripID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted trip status = %d, want 404", rec.Code)
	}
}

func TestChecklistItemPatchOverHTTP(t *testing.T) {
	fake := newFakeStore()
	fake.users["u1"] = store.User{ID: "u1", DisplayName: "Maren"}
	seedTrip(fake, "trip1", "u1")
	fake.instances["chk1"] = store.ChecklistInstance{
		ID: "chk1", TripID: "trip1", TemplateID: "tpl1", Name: "Safety check",
		Items: []store.InstanceItem{{ID: "a", Text: "Check flares"}},
	}
	svc := newTestService(fake)
	handler := NewHTTPServer(svc, "*").Handler()

	session, err := svc.CreateSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	raw, _ := json.Marshal(map[string]any{"completed": true, "note": "two expired"})
	req := httptest.NewRequest(http.MethodPatch, "/api/checklists/chk1/items/a", bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	saved := fake.instances["chk1"].Items[0]
	if !saved.Completed || saved.Note != "two expired" {
		t.Fatalf("item not patched: %+v", saved)
	}
}
