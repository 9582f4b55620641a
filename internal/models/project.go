package models

import "strings"

type Member struct {
	Email string `json:"email" bson:"email"`
	Name  string `json:"name" bson:"name"`
	Role  string `json:"role" bson:"role"`
}

type Project struct {
	ID      string   `json:"id" bson:"_id"`
	Name    string   `json:"name" bson:"name"`
	Members []Member `json:"members" bson:"members"`
}

// MemberByEmail returns the snapshot of the first member with a matching email.
func (p *Project) MemberByEmail(email string) (*Party, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, m := range p.Members {
		if strings.ToLower(m.Email) == email {
			return &Party{Email: m.Email, Name: m.Name}, true
		}
	}
	return nil, false
}
