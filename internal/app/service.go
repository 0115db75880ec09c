package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sailplan/api/internal/auth"
	"sailplan/api/internal/authpw"
	"sailplan/api/internal/checklist"
	"sailplan/api/internal/config"
	"sailplan/api/internal/email"
	"sailplan/api/internal/export"
	"sailplan/api/internal/logbook"
	"sailplan/api/internal/objstore"
	"sailplan/api/internal/roles"
	"sailplan/api/internal/search"
	"sailplan/api/internal/store"
	"sailplan/api/internal/util"
)

// dataStore is the persistence surface the service needs. *store.PostgresStore
// implements it.
type dataStore interface {
	GetUserByID(ctx context.Context, userID string) (store.User, error)

	InsertTrip(ctx context.Context, trip store.Trip) error
	GetTrip(ctx context.Context, tripID string) (store.Trip, error)
	ListTripsForUser(ctx context.Context, userID string) ([]store.Trip, error)
	UpdateTrip(ctx context.Context, trip store.Trip) error
	DeleteTrip(ctx context.Context, tripID string) error

	InsertBoat(ctx context.Context, boat store.Boat) error
	GetBoat(ctx context.Context, boatID string) (store.Boat, error)
	ListBoats(ctx context.Context, tripID string) ([]store.Boat, error)
	UpdateBoat(ctx context.Context, boat store.Boat) error
	DeleteBoat(ctx context.Context, boatID string) error

	InsertParticipant(ctx context.Context, participant store.Participant) error
	GetParticipant(ctx context.Context, participantID string) (store.Participant, error)
	GetParticipantByUser(ctx context.Context, tripID, userID string) (*store.Participant, error)
	ListParticipants(ctx context.Context, tripID string) ([]store.Participant, error)
	UpdateParticipant(ctx context.Context, participant store.Participant) error
	DeleteParticipant(ctx context.Context, participantID string) error

	InsertChecklistTemplate(ctx context.Context, template store.ChecklistTemplate) error
	GetChecklistTemplate(ctx context.Context, templateID string) (store.ChecklistTemplate, error)
	ListChecklistTemplates(ctx context.Context, organizerID string) ([]store.ChecklistTemplate, error)
	UpdateChecklistTemplate(ctx context.Context, template store.ChecklistTemplate) error
	DeleteChecklistTemplate(ctx context.Context, templateID string) error

	GetChecklistInstance(ctx context.Context, instanceID string) (store.ChecklistInstance, error)
	ListChecklistInstancesByTrip(ctx context.Context, tripID string) ([]store.ChecklistInstance, error)
	ListChecklistInstancesByTemplate(ctx context.Context, templateID string) ([]store.ChecklistInstance, error)

	UpsertCrewlistTemplate(ctx context.Context, template store.CrewlistTemplate) error
	GetCrewlistTemplate(ctx context.Context, tripID string) (store.CrewlistTemplate, error)
	UpsertCrewlistEntry(ctx context.Context, entry store.CrewlistEntry) error
	ListCrewlistEntries(ctx context.Context, tripID, boatID string) ([]store.CrewlistEntry, error)
	DeleteCrewlistEntry(ctx context.Context, entryID string) error

	InsertTimelineEvent(ctx context.Context, event store.TimelineEvent) error
	GetTimelineEvent(ctx context.Context, eventID string) (store.TimelineEvent, error)
	ListTimelineEvents(ctx context.Context, tripID string) ([]store.TimelineEvent, error)
	UpdateTimelineEvent(ctx context.Context, event store.TimelineEvent) error
	DeleteTimelineEvent(ctx context.Context, eventID string) error

	InsertTripDocument(ctx context.Context, doc store.TripDocument) error
	GetTripDocument(ctx context.Context, documentID string) (store.TripDocument, error)
	ListTripDocuments(ctx context.Context, tripID string) ([]store.TripDocument, error)
	DeleteTripDocument(ctx context.Context, documentID string) error

	InsertBoatLogEntry(ctx context.Context, entry store.BoatLogEntry) error
	GetBoatLogEntry(ctx context.Context, entryID string) (store.BoatLogEntry, error)
	ListBoatLogEntries(ctx context.Context, tripID, boatID string) ([]store.BoatLogEntry, error)
	UpdateBoatLogEntry(ctx context.Context, entry store.BoatLogEntry) error
	DeleteBoatLogEntry(ctx context.Context, entryID string) error

	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)

	Ping(ctx context.Context) error
}

// sessionStore holds refresh sessions. Postgres is the default; Redis can be
// swapped in via NewWithSessionStore.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	engine   *checklist.Engine
	search   *search.Service
	export   *export.Service
	objects  *objstore.Store
	journal  *logbook.Service
	mailer   *email.Service
	pwAuth   *authpw.Service
}

func New(cfg config.Config, st dataStore, engine *checklist.Engine, searchSvc *search.Service, exportSvc *export.Service, objects *objstore.Store, journal *logbook.Service, mailer *email.Service, pwAuth *authpw.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		sessions: st,
		engine:   engine,
		search:   searchSvc,
		export:   exportSvc,
		objects:  objects,
		journal:  journal,
		mailer:   mailer,
		pwAuth:   pwAuth,
	}
}

// NewWithSessionStore is New with refresh sessions held elsewhere, e.g. Redis.
func NewWithSessionStore(cfg config.Config, st dataStore, sessions sessionStore, engine *checklist.Engine, searchSvc *search.Service, exportSvc *export.Service, objects *objstore.Store, journal *logbook.Service, mailer *email.Service, pwAuth *authpw.Service) *Service {
	svc := New(cfg, st, engine, searchSvc, exportSvc, objects, journal, mailer, pwAuth)
	svc.sessions = sessions
	return svc
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.pwAuth
}

func (s *Service) SMTPConfigured() bool {
	return s.mailer != nil && s.mailer.IsConfigured()
}

func (s *Service) SendVerificationEmail(to, userName, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := s.cfg.AppBaseURL + "/verify-email?token=" + token
	if err := s.mailer.SendVerificationEmail(to, userName, url); err != nil {
		log.Printf("send verification email: %v", err)
	}
}

func (s *Service) SendPasswordResetEmail(to, userName, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := s.cfg.AppBaseURL + "/reset-password?token=" + token
	if err := s.mailer.SendPasswordResetEmail(to, userName, url); err != nil {
		log.Printf("send password reset email: %v", err)
	}
}

// Session is the authenticated caller of a request. It carries no trip role:
// roles are per-trip and resolved against trip data on every call.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	jti := util.NewID("jti")
	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	refreshToken := util.NewID("rft")
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refreshToken), user.ID, time.Now().Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	hash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, hash)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	// Rotate: the presented refresh token is single use.
	if err := s.sessions.RevokeRefreshSession(ctx, hash); err != nil {
		return Session{}, fmt.Errorf("revoke refresh session: %w", err)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, fmt.Errorf("check revoked token: %w", err)
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		if err := s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			return fmt.Errorf("revoke access token: %w", err)
		}
	}
	if refreshToken != "" {
		if err := s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken)); err != nil {
			return fmt.Errorf("revoke refresh session: %w", err)
		}
	}
	return nil
}

// tripAccess loads the trip plus the caller's membership. Callers that are
// neither organizer nor participant get a 403.
func (s *Service) tripAccess(ctx context.Context, tripID, userID string) (store.Trip, *store.Participant, roles.Role, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return store.Trip{}, nil, "", err
	}
	participant, err := s.store.GetParticipantByUser(ctx, tripID, userID)
	if err != nil {
		return store.Trip{}, nil, "", err
	}
	role := roles.EffectiveRole(&trip, participant, userID)
	if role == "" {
		return store.Trip{}, nil, "", domainError(http.StatusForbidden, "FORBIDDEN", "Not a member of this trip", nil)
	}
	return trip, participant, role, nil
}

// reconcileTrip re-derives the trip's checklist instances from its current
// assignment spec, crew, and boats.
func (s *Service) reconcileTrip(ctx context.Context, trip store.Trip) (checklist.ReconcileResult, error) {
	participants, err := s.store.ListParticipants(ctx, trip.ID)
	if err != nil {
		return checklist.ReconcileResult{}, err
	}
	boats, err := s.store.ListBoats(ctx, trip.ID)
	if err != nil {
		return checklist.ReconcileResult{}, err
	}
	return s.engine.Reconcile(ctx, trip.ID, trip.AssignedChecklists, participants, boats)
}

type TripInput struct {
	Name               string
	Description        string
	Location           string
	StartDate          time.Time
	EndDate            time.Time
	JoinPassword       string
	AssignedChecklists []store.ChecklistAssignment
}

func (s *Service) CreateTrip(ctx context.Context, session Session, input TripInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	passwordHash := ""
	if input.JoinPassword != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.JoinPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash join password: %w", err)
		}
		passwordHash = string(hashed)
	}

	trip := store.Trip{
		ID:                 util.NewID("trip"),
		OrganizerID:        session.UserID,
		Name:               name,
		Description:        strings.TrimSpace(input.Description),
		Location:           strings.TrimSpace(input.Location),
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
		JoinPasswordHash:   passwordHash,
		AssignedChecklists: input.AssignedChecklists,
	}
	if err := s.store.InsertTrip(ctx, trip); err != nil {
		return nil, err
	}

	if s.journal != nil {
		if err := s.journal.EnsureTripJournal(trip.ID, session.UserName); err != nil {
			log.Printf("ensure trip journal %s: %v", trip.ID, err)
		}
	}
	s.indexTrip(trip)

	if len(trip.AssignedChecklists) > 0 {
		if _, err := s.reconcileTrip(ctx, trip); err != nil {
			return nil, err
		}
	}
	return s.GetTrip(ctx, session, trip.ID)
}

func (s *Service) ListTrips(ctx context.Context, session Session) ([]map[string]any, error) {
	trips, err := s.store.ListTripsForUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(trips))
	for _, trip := range trips {
		participant, err := s.store.GetParticipantByUser(ctx, trip.ID, session.UserID)
		if err != nil {
			return nil, err
		}
		items = append(items, tripPayload(trip, roles.EffectiveRole(&trip, participant, session.UserID)))
	}
	return items, nil
}

func (s *Service) GetTrip(ctx context.Context, session Session, tripID string) (map[string]any, error) {
	trip, participant, role, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	boats, err := s.store.ListBoats(ctx, tripID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, tripID)
	if err != nil {
		return nil, err
	}

	payload := tripPayload(trip, role)
	payload["heldRoles"] = roles.HeldRoles(&trip, participant, session.UserID)
	boatItems := make([]map[string]any, 0, len(boats))
	for _, boat := range boats {
		boatItems = append(boatItems, boatPayload(boat))
	}
	payload["boats"] = boatItems
	participantItems := make([]map[string]any, 0, len(participants))
	for _, p := range participants {
		participantItems = append(participantItems, participantPayload(p))
	}
	payload["participants"] = participantItems
	return payload, nil
}

func (s *Service) UpdateTrip(ctx context.Context, session Session, tripID string, input TripInput) (map[string]any, error) {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanEditTrip(&trip, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can edit the trip", nil)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		trip.Name = name
	}
	trip.Description = strings.TrimSpace(input.Description)
	trip.Location = strings.TrimSpace(input.Location)
	if !input.StartDate.IsZero() {
		trip.StartDate = input.StartDate
	}
	if !input.EndDate.IsZero() {
		trip.EndDate = input.EndDate
	}
	if input.AssignedChecklists != nil {
		trip.AssignedChecklists = input.AssignedChecklists
	}
	if err := s.store.UpdateTrip(ctx, trip); err != nil {
		return nil, err
	}

	s.indexTrip(trip)
	if _, err := s.reconcileTrip(ctx, trip); err != nil {
		return nil, err
	}
	return s.GetTrip(ctx, session, tripID)
}

func (s *Service) DeleteTrip(ctx context.Context, session Session, tripID string) error {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if !roles.CanDeleteTrip(&trip, session.UserID) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can delete the trip", nil)
	}
	if err := s.store.DeleteTrip(ctx, tripID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteTrip(tripID)
	}
	return nil
}

func (s *Service) JoinTrip(ctx context.Context, session Session, tripID, password, displayName string) (map[string]any, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.JoinPasswordHash == "" {
		return nil, domainError(http.StatusForbidden, "JOIN_DISABLED", "This trip cannot be joined with a password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(trip.JoinPasswordHash), []byte(password)); err != nil {
		return nil, domainError(http.StatusForbidden, "WRONG_PASSWORD", "Wrong trip password", nil)
	}

	existing, err := s.store.GetParticipantByUser(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		name := strings.TrimSpace(displayName)
		if name == "" {
			name = session.UserName
		}
		participant := store.Participant{
			ID:          util.NewID("part"),
			TripID:      tripID,
			UserID:      session.UserID,
			DisplayName: name,
			Role:        string(roles.Participant),
			Status:      "active",
		}
		if err := s.store.InsertParticipant(ctx, participant); err != nil {
			return nil, err
		}
		if _, err := s.reconcileTrip(ctx, trip); err != nil {
			return nil, err
		}
	}
	return s.GetTrip(ctx, session, tripID)
}

type ParticipantInput struct {
	UserID      string
	DisplayName string
	Role        string
	BoatID      *string
	Status      string
}

func (s *Service) AddParticipant(ctx context.Context, session Session, tripID string, input ParticipantInput) (map[string]any, error) {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanManageParticipants(&trip, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can manage participants", nil)
	}
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "displayName is required", nil)
	}
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "userId is required", nil)
	}
	if existing, err := s.store.GetParticipantByUser(ctx, tripID, userID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domainError(http.StatusConflict, "ALREADY_PARTICIPANT", "User already participates in this trip", nil)
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = "active"
	}
	participant := store.Participant{
		ID:          util.NewID("part"),
		TripID:      tripID,
		UserID:      userID,
		DisplayName: name,
		Role:        string(roles.Normalize(input.Role)),
		BoatID:      input.BoatID,
		Status:      status,
	}
	if err := s.store.InsertParticipant(ctx, participant); err != nil {
		return nil, err
	}
	if _, err := s.reconcileTrip(ctx, trip); err != nil {
		return nil, err
	}
	return participantPayload(participant), nil
}

func (s *Service) UpdateParticipant(ctx context.Context, session Session, tripID, participantID string, input ParticipantInput) (map[string]any, error) {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if participant.TripID != tripID {
		return nil, sql.ErrNoRows
	}
	if !roles.CanEditParticipant(&trip, &participant, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}

	// Role and boat assignment are organizer-only; self-editing participants
	// may change their display name and status.
	organizer := roles.CanManageParticipants(&trip, session.UserID)
	if name := strings.TrimSpace(input.DisplayName); name != "" {
		participant.DisplayName = name
	}
	if organizer {
		if input.Role != "" {
			participant.Role = string(roles.Normalize(input.Role))
		}
		participant.BoatID = input.BoatID
	}
	if status := strings.TrimSpace(input.Status); status != "" {
		participant.Status = status
	}
	if err := s.store.UpdateParticipant(ctx, participant); err != nil {
		return nil, err
	}
	if _, err := s.reconcileTrip(ctx, trip); err != nil {
		return nil, err
	}
	return participantPayload(participant), nil
}

func (s *Service) RemoveParticipant(ctx context.Context, session Session, tripID, participantID string) error {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return err
	}
	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	if participant.TripID != tripID {
		return sql.ErrNoRows
	}
	// Organizers remove anyone; anyone may leave a trip themselves.
	if !roles.CanManageParticipants(&trip, session.UserID) && participant.UserID != session.UserID {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if err := s.store.DeleteParticipant(ctx, participantID); err != nil {
		return err
	}
	_, err = s.reconcileTrip(ctx, trip)
	return err
}

type BoatInput struct {
	Name     string
	Model    string
	Capacity int
}

func (s *Service) AddBoat(ctx context.Context, session Session, tripID string, input BoatInput) (map[string]any, error) {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !roles.CanManageBoats(&trip, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can manage boats", nil)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	boat := store.Boat{
		ID:       util.NewID("boat"),
		TripID:   tripID,
		Name:     name,
		Model:    strings.TrimSpace(input.Model),
		Capacity: input.Capacity,
	}
	if err := s.store.InsertBoat(ctx, boat); err != nil {
		return nil, err
	}
	if _, err := s.reconcileTrip(ctx, trip); err != nil {
		return nil, err
	}
	return boatPayload(boat), nil
}

func (s *Service) UpdateBoat(ctx context.Context, session Session, tripID, boatID string, input BoatInput) (map[string]any, error) {
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
	if !roles.CanEditBoat(&trip, &boat, participant, session.UserID) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		boat.Name = name
	}
	boat.Model = strings.TrimSpace(input.Model)
	if input.Capacity > 0 {
		boat.Capacity = input.Capacity
	}
	if err := s.store.UpdateBoat(ctx, boat); err != nil {
		return nil, err
	}
	return boatPayload(boat), nil
}

func (s *Service) DeleteBoat(ctx context.Context, session Session, tripID, boatID string) error {
	trip, _, _, err := s.tripAccess(ctx, tripID, session.UserID)
	if err != nil {
		return err
	}
	if !roles.CanManageBoats(&trip, session.UserID) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Only the organizer can manage boats", nil)
	}
	boat, err := s.store.GetBoat(ctx, boatID)
	if err != nil {
		return err
	}
	if boat.TripID != tripID {
		return sql.ErrNoRows
	}
	if err := s.store.DeleteBoat(ctx, boatID); err != nil {
		return err
	}
	_, err = s.reconcileTrip(ctx, trip)
	return err
}

func (s *Service) indexTrip(trip store.Trip) {
	if s.search == nil {
		return
	}
	s.search.IndexTrip(search.TripRecord{
		ID:          trip.ID,
		Name:        trip.Name,
		Description: trip.Description,
		Location:    trip.Location,
		OrganizerID: trip.OrganizerID,
	})
}

func (s *Service) Search(ctx context.Context, session Session, q search.Query) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}, nil
	}
	if q.FilterTripID != "" {
		if _, _, _, err := s.tripAccess(ctx, q.FilterTripID, session.UserID); err != nil {
			return search.Response{}, err
		}
	}
	return s.search.Search(q), nil
}

func tripPayload(trip store.Trip, role roles.Role) map[string]any {
	assigned := trip.AssignedChecklists
	if assigned == nil {
		assigned = []store.ChecklistAssignment{}
	}
	return map[string]any{
		"id":                 trip.ID,
		"organizerId":        trip.OrganizerID,
		"name":               trip.Name,
		"description":        trip.Description,
		"location":           trip.Location,
		"startDate":          trip.StartDate,
		"endDate":            trip.EndDate,
		"hasJoinPassword":    trip.JoinPasswordHash != "",
		"assignedChecklists": assigned,
		"viewerRole":         role,
		"createdAt":          trip.CreatedAt,
		"updatedAt":          trip.UpdatedAt,
	}
}

func boatPayload(boat store.Boat) map[string]any {
	return map[string]any{
		"id":       boat.ID,
		"tripId":   boat.TripID,
		"name":     boat.Name,
		"model":    boat.Model,
		"capacity": boat.Capacity,
	}
}

func participantPayload(participant store.Participant) map[string]any {
	return map[string]any{
		"id":          participant.ID,
		"tripId":      participant.TripID,
		"userId":      participant.UserID,
		"displayName": participant.DisplayName,
		"role":        participant.Role,
		"boatId":      participant.BoatID,
		"status":      participant.Status,
	}
}
