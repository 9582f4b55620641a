package utils

import (
	"html"
	"net/mail"
	"strings"
	"unicode"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
)

// CleanText trims and HTML-escapes free text before it is stored.
func CleanText(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsEmail accepts a bare address (no display name).
func IsEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

func IsAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Checker collects field errors so validation can report all of them at once.
type Checker struct {
	errs []apperr.FieldError
}

func (c *Checker) Check(ok bool, field, msg, value string) {
	if !ok {
		c.errs = append(c.errs, apperr.FieldError{Field: field, Message: msg, Value: value})
	}
}

// Err returns a validation error listing every failed check, or nil.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return apperr.Validation(c.errs)
}
