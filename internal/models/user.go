package models

import (
	"strings"
	"time"
)

const (
	RoleEngineer = "engineer"
	RoleAdmin    = "admin"
)

type Notification struct {
	TicketID string    `json:"ticket_id" bson:"ticket_id"`
	Message  string    `json:"message" bson:"message"`
	Date     time.Time `json:"date" bson:"date"`
}

type User struct {
	ID            string         `json:"id" bson:"_id"`
	Username      string         `json:"username" bson:"username"`
	Email         string         `json:"email" bson:"email"`
	FirstName     string         `json:"firstname" bson:"firstname"`
	LastName      string         `json:"lastname" bson:"lastname"`
	Phone         string         `json:"phone,omitempty" bson:"phone,omitempty"`
	Role          string         `json:"role" bson:"role"` // engineer | admin
	PasswordHash  string         `json:"-" bson:"password"`
	Notifications []Notification `json:"notifications" bson:"notifications"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}

// FullName is the display name snapshotted into comments and assignments.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) Field(path string) (string, bool) {
	switch path {
	case "id":
		return u.ID, true
	case "username":
		return u.Username, true
	case "email":
		return u.Email, true
	case "firstname":
		return u.FirstName, true
	case "lastname":
		return u.LastName, true
	case "phone":
		return u.Phone, true
	case "role":
		return u.Role, true
	}
	return "", false
}

func (u *User) Clone() *User {
	c := *u
	c.Notifications = make([]Notification, len(u.Notifications))
	copy(c.Notifications, u.Notifications)
	return &c
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID    string
	Email string
	Name  string
	Role  string
}

func (a *Actor) IsAdmin() bool { return a != nil && a.Role == RoleAdmin }

// CanActOn reports whether the actor may mutate the account with the given id.
func (a *Actor) CanActOn(userID string) bool {
	return a != nil && (a.ID == userID || a.Role == RoleAdmin)
}

func ActorOf(u *User) *Actor {
	return &Actor{ID: u.ID, Email: u.Email, Name: u.FullName(), Role: u.Role}
}
