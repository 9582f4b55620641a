package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arenignacio/venus-bugtracker/internal/query"
)

func TestBuildDocWhere(t *testing.T) {
	where, args := buildDocWhere(query.Filter{
		"status":            "assigned",
		"assigned_to.email": "a@x.io",
		"id":                "6a1f0e9e-6f0e-4b8a-9c3e-0f1e2d3c4b5a",
	})
	assert.Equal(t,
		"WHERE 1=1 AND doc #>> $1::text[] = $2 AND id::text = $3 AND doc #>> $4::text[] = $5",
		where)
	assert.Equal(t, []any{
		[]string{"assigned_to", "email"}, "a@x.io",
		"6a1f0e9e-6f0e-4b8a-9c3e-0f1e2d3c4b5a",
		[]string{"status"}, "assigned",
	}, args)
}

func TestBuildDocWhereEmpty(t *testing.T) {
	where, args := buildDocWhere(query.Filter{})
	assert.Equal(t, "WHERE 1=1", where)
	assert.Empty(t, args)
}
