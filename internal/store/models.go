package store

import "time"

type User struct {
	ID                    string
	Email                 string
	DisplayName           string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ChecklistAssignment is one entry of a trip's assignedChecklists spec. It is
// stored as JSONB on the trip row and interpreted by the reconciliation
// engine.
type ChecklistAssignment struct {
	ID            string   `json:"id"`
	TemplateID    string   `json:"templateId"`
	Roles         []string `json:"roles"`
	AssignToBoats bool     `json:"assignToBoats"`
}

type Trip struct {
	ID                 string
	OrganizerID        string
	Name               string
	Description        string
	Location           string
	StartDate          time.Time
	EndDate            time.Time
	JoinPasswordHash   string
	AssignedChecklists []ChecklistAssignment
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Boat struct {
	ID        string
	TripID    string
	Name      string
	Model     string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Participant struct {
	ID          string
	TripID      string
	UserID      string
	DisplayName string
	Role        string
	BoatID      *string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TemplateItem is one item of an organizer-authored checklist template,
// stored as JSONB on the template row.
type TemplateItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Category  string `json:"category,omitempty"`
	InputType string `json:"inputType,omitempty"`
	AllowNote bool   `json:"allowNote,omitempty"`
	Required  bool   `json:"required,omitempty"`
}

type ChecklistTemplate struct {
	ID          string
	OrganizerID string
	Name        string
	Description string
	Categories  []string
	Items       []TemplateItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InstanceItem is a template item copied onto an instance plus the
// instance-local mutable state. LegacyID carries the itemId field older
// instances used before items gained an id.
type InstanceItem struct {
	ID        string `json:"id,omitempty"`
	LegacyID  string `json:"itemId,omitempty"`
	Text      string `json:"text"`
	Category  string `json:"category,omitempty"`
	InputType string `json:"inputType,omitempty"`
	AllowNote bool   `json:"allowNote,omitempty"`
	Required  bool   `json:"required,omitempty"`
	Completed bool   `json:"completed"`
	Value     string `json:"value,omitempty"`
	Note      string `json:"note"`
}

// ChecklistInstance is a per-assignment mutable copy of a template. Exactly
// one of BoatID, Role, or Role+UserID identifies the assignment target.
type ChecklistInstance struct {
	ID         string
	TripID     string
	TemplateID string
	Name       string
	BoatID     *string
	Role       *string
	UserID     *string
	Items      []InstanceItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CrewlistField is one field definition of a trip's crewlist template.
type CrewlistField struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Type     string `json:"type,omitempty"`
	Required bool   `json:"required,omitempty"`
}

type CrewlistTemplate struct {
	ID        string
	TripID    string
	Fields    []CrewlistField
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CrewlistEntry holds one participant's filled crewlist row for a boat.
type CrewlistEntry struct {
	ID        string
	TripID    string
	BoatID    string
	UserID    string
	Values    map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TimelineEvent struct {
	ID          string
	TripID      string
	Title       string
	Description string
	StartsAt    time.Time
	Roles       []string
	Checkable   bool
	CompletedBy []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TripDocument struct {
	ID          string
	TripID      string
	Name        string
	ObjectKey   string
	ContentType string
	Size        int64
	UploadedBy  string
	CreatedAt   time.Time
}

type BoatLogEntry struct {
	ID        string
	TripID    string
	BoatID    string
	AuthorID  string
	EntryDate time.Time
	Body      string
	Position  string
	Weather   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
