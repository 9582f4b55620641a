package repository

import "github.com/google/uuid"

// NewID returns a fresh document id. Every backend uses UUID strings so ids
// look the same whichever store is configured.
func NewID() string { return uuid.NewString() }

// CheckID rejects ids that can never name a document.
func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}
