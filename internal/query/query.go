// Package query turns flat key=value pairs into equality filters.
//
// Translation is lenient: a pair without "=" is dropped and a repeated key keeps
// its last value. Field names are checked separately against a Schema.
package query

import (
	"net/url"
	"sort"
	"strings"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
)

// Filter maps a document field path to the exact string it must equal.
type Filter map[string]string

// Translate builds a filter from "key=value" pairs.
func Translate(pairs []string) Filter {
	f := Filter{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		f[unescape(k)] = unescape(v)
	}
	return f
}

// FromRawQuery translates the raw query part of a URL ("a=1&b=2").
func FromRawQuery(raw string) Filter {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return Filter{}
	}
	return Translate(strings.Split(raw, "&"))
}

// Merge copies src over f; src wins on duplicate keys.
func (f Filter) Merge(src map[string]string) Filter {
	for k, v := range src {
		f[k] = v
	}
	return f
}

// Keys returns the filter's field names in sorted order.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// Schema is the allow-list of filterable fields for one collection.
type Schema struct {
	fields  map[string]struct{}
	aliases map[string]string
}

func NewSchema(fields []string, aliases map[string]string) Schema {
	s := Schema{fields: make(map[string]struct{}, len(fields)), aliases: aliases}
	for _, f := range fields {
		s.fields[f] = struct{}{}
	}
	return s
}

// Validate canonicalises aliases and rejects fields outside the allow-list.
// Every unknown field is reported, not just the first.
func (s Schema) Validate(f Filter) (Filter, error) {
	out := make(Filter, len(f))
	var bad []apperr.FieldError
	for _, k := range f.Keys() {
		name := k
		if canon, ok := s.aliases[k]; ok {
			name = canon
		}
		if _, ok := s.fields[name]; !ok {
			bad = append(bad, apperr.FieldError{Field: k, Message: "unknown filter field"})
			continue
		}
		out[name] = f[k]
	}
	if len(bad) > 0 {
		return nil, apperr.Validation(bad)
	}
	return out, nil
}

var (
	TicketSchema = NewSchema([]string{
		"id", "subject", "description", "type", "priority", "status", "project",
		"initiated_by.id", "initiated_by.name",
		"assigned_to.email", "assigned_to.name",
		"last_updated.by",
	}, map[string]string{
		"_id":            "id",
		"assigned_to.id": "assigned_to.email",
	})

	UserSchema = NewSchema([]string{
		"id", "username", "email", "firstname", "lastname", "phone", "role",
	}, map[string]string{
		"_id": "id",
	})
)
