package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arenignacio/venus-bugtracker/internal/config"
	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
	"github.com/arenignacio/venus-bugtracker/internal/repository/memory"
	"github.com/arenignacio/venus-bugtracker/internal/session"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

func TestMain(m *testing.M) {
	utils.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type envelope struct {
	OK      bool            `json:"ok"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (c *client) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "session" {
			if ck.MaxAge < 0 {
				c.cookie = nil
			} else {
				c.cookie = ck
			}
		}
	}
	var env envelope
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func newServer(t *testing.T) (*client, repository.Store) {
	t.Helper()
	store := memory.New()
	cfg := config.Config{
		Env:           "dev",
		Origin:        "http://localhost:5173",
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
	}
	h := New(zerolog.Nop(), Deps{Store: store, Sessions: session.NewMemoryStore(time.Hour)}, cfg)
	return &client{t: t, h: h}, store
}

func (c *client) registerAndLogin(username string) {
	c.t.Helper()
	code, _ := c.do("POST", "/user/register", map[string]string{
		"username": username, "email": username + "@venus.io", "password": "hunter22",
		"firstname": "Test", "lastname": username,
	})
	require.Equal(c.t, http.StatusCreated, code)
	code, env := c.do("POST", "/user/login", map[string]string{"login": username, "password": "hunter22"})
	require.Equal(c.t, http.StatusOK, code, env.Message)
	require.NotNil(c.t, c.cookie)
}

func TestTicketFlowOverHTTP(t *testing.T) {
	c, store := newServer(t)

	p := &models.Project{Name: "venus", Members: []models.Member{{Email: "bob@venus.io", Name: "Bob", Role: "engineer"}}}
	require.NoError(t, store.Projects.Create(context.Background(), p))

	code, env := c.do("POST", "/ticket/create-ticket", map[string]any{"subject": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.OK)

	c.registerAndLogin("alice")

	code, env = c.do("POST", "/ticket/create-ticket", map[string]any{
		"subject": "broken", "type": "bug", "project": p.ID,
		"assigned_to": map[string]string{"id": "bob@venus.io", "name": "Bob"},
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Ticket successfully created", env.Message)
	var tk models.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &tk))
	assert.Equal(t, models.StatusAssigned, tk.Status)

	code, env = c.do("GET", "/ticket/query?type=bug&bogus", nil)
	require.Equal(t, http.StatusOK, code)
	var found []models.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)

	code, env = c.do("GET", "/ticket/query?colour=red", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", env.Error.Kind)

	code, env = c.do("PUT", "/ticket/"+tk.ID, map[string]any{"subject": "broken", "assigned_to": "none"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &tk))
	assert.Equal(t, models.StatusUnassigned, tk.Status)

	stale := int64(1)
	code, env = c.do("PUT", "/ticket/"+tk.ID, map[string]any{"subject": "again", "version": stale})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", env.Error.Kind)

	code, env = c.do("POST", "/ticket/"+tk.ID+"/comments", map[string]string{"content": "looking"})
	require.Equal(t, http.StatusCreated, code)
	var comments []models.Comment
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "alice@venus.io", comments[0].AuthorEmail)

	code, env = c.do("GET", "/ticket/summary", nil)
	require.Equal(t, http.StatusOK, code)
	var sum map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	assert.Equal(t, 1, sum["unassigned"])

	code, env = c.do("DELETE", "/ticket/"+tk.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Document "+tk.ID+" successfully deleted.", env.Message)

	code, env = c.do("DELETE", "/ticket/"+tk.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Invalid ID", env.Error.Message)

	code, _ = c.do("GET", "/ticket/"+tk.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSessionEndpoints(t *testing.T) {
	c, _ := newServer(t)

	_, env := c.do("GET", "/user/amIloggedIn", nil)
	assert.Equal(t, "false", string(env.Data))

	c.registerAndLogin("dave")
	_, env = c.do("GET", "/user/amIloggedIn", nil)
	assert.Equal(t, "true", string(env.Data))

	code, env := c.do("GET", "/user/myinfo", nil)
	require.Equal(t, http.StatusOK, code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "dave@venus.io", me["email"])
	assert.NotContains(t, me, "password")

	kept := c.cookie
	code, _ = c.do("GET", "/user/logout", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, c.cookie)

	// the old token no longer opens a session
	c.cookie = kept
	_, env = c.do("GET", "/user/amIloggedIn", nil)
	assert.Equal(t, "false", string(env.Data))
}

func TestUserEndpoints(t *testing.T) {
	c, _ := newServer(t)
	c.registerAndLogin("erin")

	code, env := c.do("PUT", "/user/update", map[string]string{"phone": "555-0100"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User successfully updated", env.Message)

	code, env = c.do("GET", "/user/query?username=erin", nil)
	require.Equal(t, http.StatusOK, code)
	var users []models.User
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "555-0100", users[0].Phone)

	code, env = c.do("DELETE", "/user/"+repository.NewID(), nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized action", env.Error.Message)

	code, env = c.do("DELETE", "/user/"+users[0].ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User successfully deleted", env.Message)
}

func TestNotFoundAndHealth(t *testing.T) {
	c, _ := newServer(t)

	code, env := c.do("GET", "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Oops. Page not found.", env.Error.Message)

	code, env = c.do("GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.OK)
}

func TestTicketQueryMatchesAnySuffix(t *testing.T) {
	c, _ := newServer(t)
	c.registerAndLogin("alice")
	code, _ := c.do("POST", "/ticket/create-ticket", map[string]any{"subject": "a", "type": "bug"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = c.do("POST", "/ticket/create-ticket", map[string]any{"subject": "b", "type": "feature"})
	require.Equal(t, http.StatusCreated, code)

	for _, path := range []string{"/ticket/query?type=bug", "/ticket/queryAll?type=bug", "/ticket/query/open?type=bug"} {
		code, env := c.do("GET", path, nil)
		require.Equal(t, http.StatusOK, code, path)
		var found []models.Ticket
		require.NoError(t, json.Unmarshal(env.Data, &found), path)
		require.Len(t, found, 1, path)
		assert.Equal(t, "a", found[0].Subject, path)
	}
}
