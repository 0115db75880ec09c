package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sailplan/api/internal/auth"
	"sailplan/api/internal/authpw"
	"sailplan/api/internal/checklist"
	"sailplan/api/internal/export"
	"sailplan/api/internal/roles"
	"sailplan/api/internal/search"
	"sailplan/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleAuthSignUp(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleAuthSignIn(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/verify-email" {
		s.handleAuthVerifyEmail(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password/request" {
		s.handleAuthRequestReset(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password" {
		s.handleAuthResetPassword(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "userName": session.UserName, "userId": session.UserID})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"accessToken":  session.Token,
			"refreshToken": session.RefreshToken,
			"userName":     session.UserName,
			"userId":       session.UserID,
			"expiresAt":    session.ExpiresAt.Unix(),
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/logout" {
		session := Session{}
		if token := bearerToken(r); token != "" {
			if parsed, err := s.service.SessionFromToken(r.Context(), token); err == nil {
				session = parsed
			}
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), session, body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r, session)
		return
	}

	if r.URL.Path == "/api/trips" {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.ListTrips(r.Context(), session)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"trips": items})
		case http.MethodPost:
			var body tripBody
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateTrip(r.Context(), session, body.toInput())
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if r.URL.Path == "/api/templates" {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.ListTemplates(r.Context(), session)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"templates": items})
		case http.MethodPost:
			var body templateBody
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateTemplate(r.Context(), session, body.toInput())
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch parts[1] {
	case "templates":
		if len(parts) == 3 {
			s.handleTemplate(w, r, session, parts[2])
			return
		}
	case "checklists":
		// /api/checklists/{instanceID}/items/{itemID}
		if len(parts) == 5 && parts[3] == "items" && (r.Method == http.MethodPatch || r.Method == http.MethodPut) {
			var body struct {
				Completed *bool   `json:"completed"`
				Value     *string `json:"value"`
				Note      *string `json:"note"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateChecklistItem(r.Context(), session, parts[2], parts[4], checklist.ItemPatch{
				Completed: body.Completed,
				Value:     body.Value,
				Note:      body.Note,
			})
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
			return
		}
	case "trips":
		if len(parts) >= 3 {
			s.handleTrip(w, r, session, parts[2], parts[3:])
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleTemplate(w http.ResponseWriter, r *http.Request, session Session, templateID string) {
	switch r.Method {
	case http.MethodGet:
		payload, err := s.service.GetTemplate(r.Context(), session, templateID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
	case http.MethodPut:
		var body templateBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateTemplate(r.Context(), session, templateID, body.toInput())
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
	case http.MethodDelete:
		if err := s.service.DeleteTemplate(r.Context(), session, templateID); err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	}
}

// handleTrip routes everything below /api/trips/{tripID}.
func (s *HTTPServer) handleTrip(w http.ResponseWriter, r *http.Request, session Session, tripID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.GetTrip(r.Context(), session, tripID)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		case http.MethodPut:
			var body tripBody
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateTrip(r.Context(), session, tripID, body.toInput())
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		case http.MethodDelete:
			if err := s.service.DeleteTrip(r.Context(), session, tripID); err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	switch rest[0] {
	case "join":
		if len(rest) == 1 && r.Method == http.MethodPost {
			var body struct {
				Password    string `json:"password"`
				DisplayName string `json:"displayName"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.JoinTrip(r.Context(), session, tripID, body.Password, body.DisplayName)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
			return
		}
	case "participants":
		s.handleParticipants(w, r, session, tripID, rest[1:])
		return
	case "boats":
		s.handleBoats(w, r, session, tripID, rest[1:])
		return
	case "checklists":
		s.handleChecklists(w, r, session, tripID, rest[1:])
		return
	case "crewlist":
		if len(rest) == 2 && rest[1] == "template" && r.Method == http.MethodPut {
			var body struct {
				Fields []store.CrewlistField `json:"fields"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.PutCrewlistTemplate(r.Context(), session, tripID, body.Fields)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
			return
		}
	case "events":
		s.handleEvents(w, r, session, tripID, rest[1:])
		return
	case "documents":
		s.handleDocuments(w, r, session, tripID, rest[1:])
		return
	case "log":
		if len(rest) == 2 && rest[1] == "history" && r.Method == http.MethodGet {
			limit := 50
			if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil {
					writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
					return
				}
				limit = parsed
			}
			history, err := s.service.BoatLogHistory(r.Context(), session, tripID, limit)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"history": history})
			return
		}
	case "export":
		if len(rest) == 1 && r.Method == http.MethodGet {
			s.handleExport(w, r, session, tripID)
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleParticipants(w http.ResponseWriter, r *http.Request, session Session, tripID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodPost:
			var body participantBody
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.AddParticipant(r.Context(), session, tripID, body.toInput())
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}
	if len(rest) == 1 {
		participantID := rest[0]
		switch r.Method {
		case http.MethodPut:
			var body participantBody
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateParticipant(r.Context(), session, tripID, participantID, body.toInput())
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		case http.MethodDelete:
			if err := s.service.RemoveParticipant(r.Context(), session, tripID, participantID); err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleBoats(w http.ResponseWriter, r *http.Request, session Session, tripID string, rest []string) {
	if len(rest) == 0 && r.Method == http.MethodPost {
		var body boatBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.AddBoat(r.Context(), session, tripID, body.toInput())
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)
		return
	}
	if len(rest) == 1 {
		boatID := rest[0]
		switch r.Method {
		case http.MethodPut:
			var body boatBody
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateBoat(r.Context(), session, tripID, boatID, body.toInput())
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		case http.MethodDelete:
			if err := s.service.DeleteBoat(r.Context(), session, tripID, boatID); err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}
	// /api/trips/{id}/boats/{bid}/crewlist[...]
	if len(rest) >= 2 && rest[1] == "crewlist" {
		boatID := rest[0]
		if len(rest) == 2 && r.Method == http.MethodGet {
			payload, err := s.service.GetCrewlist(r.Context(), session, tripID, boatID)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
			return
		}
		if len(rest) == 3 && r.Method == http.MethodPut {
			var body struct {
				Values map[string]string `json:"values"`
				View   string            `json:"view"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.PutCrewlistEntry(r.Context(), session, tripID, boatID, rest[2], body.Values, roles.ViewContext(body.View))
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
			return
		}
	}
	// /api/trips/{id}/boats/{bid}/log[...]
	if len(rest) >= 2 && rest[1] == "log" {
		boatID := rest[0]
		if len(rest) == 2 {
			switch r.Method {
			case http.MethodGet:
				items, err := s.service.ListBoatLogEntries(r.Context(), session, tripID, boatID)
				if err != nil {
					s.respondError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"entries": items})
			case http.MethodPost:
				var body boatLogBody
				if err := decodeBody(r, &body); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				payload, err := s.service.CreateBoatLogEntry(r.Context(), session, tripID, boatID, body.toInput())
				if err != nil {
					s.respondError(w, err)
					return
				}
				writeJSON(w, http.StatusCreated, payload)
			default:
				writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			}
			return
		}
		if len(rest) == 3 {
			entryID := rest[2]
			switch r.Method {
			case http.MethodPut:
				var body boatLogBody
				if err := decodeBody(r, &body); err != nil {
					writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
					return
				}
				payload, err := s.service.UpdateBoatLogEntry(r.Context(), session, tripID, boatID, entryID, body.toInput())
				if err != nil {
					s.respondError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, payload)
			case http.MethodDelete:
				if err := s.service.DeleteBoatLogEntry(r.Context(), session, tripID, boatID, entryID); err != nil {
					s.respondError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			default:
				writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			}
			return
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleChecklists(w http.ResponseWriter, r *http.Request, session Session, tripID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.ListTripChecklists(r.Context(), session, tripID)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"checklists": items})
		case http.MethodPost:
			var body struct {
				TemplateID string `json:"templateId"`
				BoatID     string `json:"boatId"`
				Role       string `json:"role"`
				UserID     string `json:"userId"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateChecklistInstance(r.Context(), session, tripID, InstanceInput{
				TemplateID: body.TemplateID,
				BoatID:     body.BoatID,
				Role:       body.Role,
				UserID:     body.UserID,
			})
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}
	if len(rest) == 1 && rest[0] == "reconcile" && r.Method == http.MethodPost {
		payload, err := s.service.ReconcileTripChecklists(r.Context(), session, tripID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleEvents(w http.ResponseWriter, r *http.Request, session Session, tripID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.ListTimelineEvents(r.Context(), session, tripID)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"events": items})
		case http.MethodPost:
			var body eventBody
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateTimelineEvent(r.Context(), session, tripID, body.toInput())
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}
	if len(rest) == 2 && rest[1] == "toggle" && r.Method == http.MethodPost {
		payload, err := s.service.ToggleEventCompletion(r.Context(), session, tripID, rest[0])
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}
	if len(rest) == 1 {
		eventID := rest[0]
		switch r.Method {
		case http.MethodPut:
			var body eventBody
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateTimelineEvent(r.Context(), session, tripID, eventID, body.toInput())
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		case http.MethodDelete:
			if err := s.service.DeleteTimelineEvent(r.Context(), session, tripID, eventID); err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleDocuments(w http.ResponseWriter, r *http.Request, session Session, tripID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.ListTripDocuments(r.Context(), session, tripID)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"documents": items})
		case http.MethodPost:
			// 32 MiB in memory, the rest spills to disk
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", "expected multipart form upload", nil)
				return
			}
			file, header, err := r.FormFile("file")
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", "file field is required", nil)
				return
			}
			defer file.Close()
			name := r.FormValue("name")
			if name == "" {
				name = header.Filename
			}
			payload, err := s.service.UploadTripDocument(r.Context(), session, tripID, name, header.Header.Get("Content-Type"), header.Size, file)
			if err != nil {
				s.respondError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}
	if len(rest) == 2 && rest[1] == "url" && r.Method == http.MethodGet {
		url, err := s.service.TripDocumentURL(r.Context(), session, tripID, rest[0])
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"url": url})
		return
	}
	if len(rest) == 1 && r.Method == http.MethodDelete {
		if err := s.service.DeleteTripDocument(r.Context(), session, tripID, rest[0]); err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request, session Session) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	filterType := strings.TrimSpace(r.URL.Query().Get("type"))
	tripID := strings.TrimSpace(r.URL.Query().Get("tripId"))
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
			return
		}
		offset = parsed
	}

	payload, err := s.service.Search(r.Context(), session, search.Query{
		Text:         q,
		FilterType:   search.ResultType(filterType),
		FilterTripID: tripID,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, session Session, tripID string) {
	kind := export.Kind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if kind == "" {
		kind = export.KindCrewManifest
	}
	boatID := strings.TrimSpace(r.URL.Query().Get("boatId"))

	result, err := s.service.ExportTrip(r.Context(), session, tripID, boatID, kind)
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) respondError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, checklist.ErrTemplateNotFound) ||
		errors.Is(err, checklist.ErrInstanceNotFound) ||
		errors.Is(err, checklist.ErrItemNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, checklist.ErrInvalidTarget) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid checklist target", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

// Auth handlers for email/password authentication

func (s *HTTPServer) handleAuthSignUp(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	resp, err := authSvc.SignUp(r.Context(), authpw.SignUpRequest{
		Email:       body.Email,
		Password:    body.Password,
		DisplayName: body.DisplayName,
	})
	if err != nil {
		if err.Error() == "email already registered" {
			writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "SIGNUP_FAILED", err.Error(), nil)
		return
	}

	response := map[string]any{
		"userId":  resp.UserID,
		"message": "Please check your email to verify your account",
	}
	if s.service.SMTPConfigured() {
		s.service.SendVerificationEmail(body.Email, body.DisplayName, resp.VerificationToken)
	} else {
		// Dev bypass: surface the token when no mail server is configured
		response["devVerificationToken"] = resp.VerificationToken
		response["message"] = "Account created. Verify your email to continue."
	}

	writeJSON(w, http.StatusCreated, response)
}

func (s *HTTPServer) handleAuthSignIn(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	resp, err := authSvc.SignIn(r.Context(), authpw.SignInRequest{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}

	if resp.RequiresVerify {
		writeError(w, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Please verify your email before signing in", nil)
		return
	}

	session, err := s.service.CreateSession(r.Context(), resp.User.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SESSION_FAILED", "Failed to create session", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  session.Token,
		"refreshToken": session.RefreshToken,
		"userId":       session.UserID,
		"userName":     session.UserName,
		"expiresAt":    session.ExpiresAt.Unix(),
	})
}

func (s *HTTPServer) handleAuthVerifyEmail(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := authSvc.VerifyEmail(r.Context(), body.Token); err != nil {
		writeError(w, http.StatusBadRequest, "VERIFICATION_FAILED", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
	})
}

func (s *HTTPServer) handleAuthRequestReset(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	token, _ := authSvc.RequestPasswordReset(r.Context(), body.Email)

	response := map[string]any{
		"message": "If an account exists, a reset email has been sent",
	}
	if s.service.SMTPConfigured() {
		if token != "" {
			s.service.SendPasswordResetEmail(body.Email, "", token)
		}
	} else if token != "" {
		// Dev bypass: surface the token when no mail server is configured
		response["devResetToken"] = token
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleAuthResetPassword(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := authSvc.ResetPassword(r.Context(), authpw.ResetPasswordRequest{
		Token:       body.Token,
		NewPassword: body.NewPassword,
	}); err != nil {
		writeError(w, http.StatusBadRequest, "RESET_FAILED", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset successfully",
	})
}
