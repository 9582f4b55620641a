package models

import "time"

type Status string

const (
	StatusInitiated  Status = "initiated"
	StatusAssigned   Status = "assigned"
	StatusUnassigned Status = "unassigned"
	StatusResolved   Status = "resolved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInitiated, StatusAssigned, StatusUnassigned, StatusResolved:
		return true
	}
	return false
}

// None is the explicit "nobody" marker stored in assigned_to.
const None = "none"

// Party is a name/identity snapshot embedded in a ticket at mutation time.
// It is never refreshed from the live User or Project document.
type Party struct {
	ID    string `json:"id,omitempty" bson:"id,omitempty"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
	Name  string `json:"name" bson:"name"`
}

// Unassigned is the {none, none} assignee sentinel.
var Unassigned = Party{Email: None, Name: None}

func (p Party) IsNone() bool { return p.Email == None }

func (p Party) IsZero() bool { return p == Party{} }

type Comment struct {
	Content     string    `json:"content" bson:"content"`
	Author      string    `json:"author" bson:"author"`
	AuthorEmail string    `json:"author_email" bson:"author_email"`
	Date        time.Time `json:"date" bson:"date"`
}

type Stamp struct {
	Date time.Time `json:"date" bson:"date"`
	By   string    `json:"by" bson:"by"`
}

type Ticket struct {
	ID          string    `json:"id" bson:"_id"`
	Subject     string    `json:"subject" bson:"subject"`
	Description string    `json:"description" bson:"description"`
	Type        string    `json:"type" bson:"type"`
	Priority    string    `json:"priority" bson:"priority"`
	Status      Status    `json:"status" bson:"status"`
	InitiatedBy Party     `json:"initiated_by" bson:"initiated_by"`
	AssignedTo  *Party    `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	Project     string    `json:"project" bson:"project"`
	Comments    []Comment `json:"comments" bson:"comments"`
	LastUpdated *Stamp    `json:"last_updated,omitempty" bson:"last_updated,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	Version     int64     `json:"version" bson:"version"`
}

// Assign applies an assignment decision and keeps status consistent with it.
// A nil member clears the assignment. A requested resolved status survives
// assignment; resolved -> unassigned through "none" is allowed.
func (t *Ticket) Assign(member *Party, requested Status) {
	if member == nil {
		none := Unassigned
		t.AssignedTo = &none
		t.Status = StatusUnassigned
		return
	}
	snap := *member
	t.AssignedTo = &snap
	if requested == StatusResolved {
		t.Status = StatusResolved
		return
	}
	t.Status = StatusAssigned
}

// Field returns the string value at a dotted document path.
func (t *Ticket) Field(path string) (string, bool) {
	switch path {
	case "id":
		return t.ID, true
	case "subject":
		return t.Subject, true
	case "description":
		return t.Description, true
	case "type":
		return t.Type, true
	case "priority":
		return t.Priority, true
	case "status":
		return string(t.Status), true
	case "project":
		return t.Project, true
	case "initiated_by.id":
		return t.InitiatedBy.ID, true
	case "initiated_by.name":
		return t.InitiatedBy.Name, true
	case "assigned_to.email":
		if t.AssignedTo == nil {
			return "", false
		}
		return t.AssignedTo.Email, true
	case "assigned_to.name":
		if t.AssignedTo == nil {
			return "", false
		}
		return t.AssignedTo.Name, true
	case "last_updated.by":
		if t.LastUpdated == nil {
			return "", false
		}
		return t.LastUpdated.By, true
	}
	return "", false
}

// Clone returns a deep copy, so stored documents never alias caller memory.
func (t *Ticket) Clone() *Ticket {
	c := *t
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		c.AssignedTo = &a
	}
	if t.LastUpdated != nil {
		s := *t.LastUpdated
		c.LastUpdated = &s
	}
	c.Comments = make([]Comment, len(t.Comments))
	copy(c.Comments, t.Comments)
	return &c
}
