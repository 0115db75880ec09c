package app

import (
	"time"

	"sailplan/api/internal/store"
)

// Request bodies. Timestamps are RFC 3339.

type tripBody struct {
	Name               string                      `json:"name"`
	Description        string                      `json:"description"`
	Location           string                      `json:"location"`
	StartDate          time.Time                   `json:"startDate"`
	EndDate            time.Time                   `json:"endDate"`
	JoinPassword       string                      `json:"joinPassword"`
	AssignedChecklists []store.ChecklistAssignment `json:"assignedChecklists"`
}

func (b tripBody) toInput() TripInput {
	return TripInput{
		Name:               b.Name,
		Description:        b.Description,
		Location:           b.Location,
		StartDate:          b.StartDate,
		EndDate:            b.EndDate,
		JoinPassword:       b.JoinPassword,
		AssignedChecklists: b.AssignedChecklists,
	}
}

type templateBody struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Categories  []string             `json:"categories"`
	Items       []store.TemplateItem `json:"items"`
}

func (b templateBody) toInput() TemplateInput {
	return TemplateInput{
		Name:        b.Name,
		Description: b.Description,
		Categories:  b.Categories,
		Items:       b.Items,
	}
}

type participantBody struct {
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName"`
	Role        string  `json:"role"`
	BoatID      *string `json:"boatId"`
	Status      string  `json:"status"`
}

func (b participantBody) toInput() ParticipantInput {
	return ParticipantInput{
		UserID:      b.UserID,
		DisplayName: b.DisplayName,
		Role:        b.Role,
		BoatID:      b.BoatID,
		Status:      b.Status,
	}
}

type boatBody struct {
	Name     string `json:"name"`
	Model    string `json:"model"`
	Capacity int    `json:"capacity"`
}

func (b boatBody) toInput() BoatInput {
	return BoatInput{Name: b.Name, Model: b.Model, Capacity: b.Capacity}
}

type eventBody struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"startsAt"`
	Roles       []string  `json:"roles"`
	Checkable   bool      `json:"checkable"`
}

func (b eventBody) toInput() EventInput {
	return EventInput{
		Title:       b.Title,
		Description: b.Description,
		StartsAt:    b.StartsAt,
		Roles:       b.Roles,
		Checkable:   b.Checkable,
	}
}

type boatLogBody struct {
	EntryDate time.Time `json:"entryDate"`
	Body      string    `json:"body"`
	Position  string    `json:"position"`
	Weather   string    `json:"weather"`
}

func (b boatLogBody) toInput() BoatLogInput {
	return BoatLogInput{
		EntryDate: b.EntryDate,
		Body:      b.Body,
		Position:  b.Position,
		Weather:   b.Weather,
	}
}
