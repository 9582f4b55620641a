package service

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
	"github.com/arenignacio/venus-bugtracker/internal/repository/memory"
	"github.com/arenignacio/venus-bugtracker/internal/session"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

func TestMain(m *testing.M) {
	utils.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type fixture struct {
	store   repository.Store
	tickets *TicketService
	users   *UserService
	auth    *AuthService
	project *models.Project
	alice   *models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	log := zerolog.Nop()

	p := &models.Project{Name: "venus", Members: []models.Member{
		{Email: "bob@venus.io", Name: "Bob Builder", Role: "engineer"},
		{Email: "carol@venus.io", Name: "Carol Danvers", Role: "engineer"},
	}}
	require.NoError(t, store.Projects.Create(ctx, p))

	return &fixture{
		store:   store,
		tickets: NewTicketService(store.Tickets, store.Projects, store.Users, nil, log),
		users:   NewUserService(store.Users, nil, log),
		auth:    NewAuthService(store.Users, session.NewMemoryStore(time.Hour), "test-secret", time.Hour, nil, log),
		project: p,
		alice:   &models.Actor{ID: repository.NewID(), Email: "alice@venus.io", Name: "Alice Liddell", Role: models.RoleEngineer},
	}
}

func ref(email string) *AssigneeRef { return &AssigneeRef{Email: email} }

func (f *fixture) create(t *testing.T, in TicketInput) *models.Ticket {
	t.Helper()
	tk, err := f.tickets.Create(context.Background(), in, f.alice)
	require.NoError(t, err)
	return tk
}

func kindOf(err error) apperr.Kind { return apperr.From(err).Kind }

func TestCreateDerivesStatusFromAssignee(t *testing.T) {
	f := newFixture(t)

	plain := f.create(t, TicketInput{Subject: "crash on save", Project: f.project.ID})
	assert.Equal(t, models.StatusInitiated, plain.Status)
	assert.Nil(t, plain.AssignedTo)
	assert.Equal(t, models.Party{ID: f.alice.ID, Name: "Alice Liddell"}, plain.InitiatedBy)
	assert.NotNil(t, plain.Comments)

	assigned := f.create(t, TicketInput{Subject: "slow list", Project: f.project.ID, AssignedTo: ref("Bob@venus.io")})
	assert.Equal(t, models.StatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, "bob@venus.io", assigned.AssignedTo.Email)
	assert.Equal(t, "Bob Builder", assigned.AssignedTo.Name)

	none := f.create(t, TicketInput{Subject: "typo", AssignedTo: ref("none")})
	assert.Equal(t, models.StatusInitiated, none.Status)
}

func TestCreateRejectsUnknownMember(t *testing.T) {
	f := newFixture(t)
	_, err := f.tickets.Create(context.Background(), TicketInput{
		Subject: "x", Project: f.project.ID, AssignedTo: ref("mallory@venus.io"),
	}, f.alice)
	assert.Equal(t, apperr.KindValidation, kindOf(err))

	all, err := f.tickets.Find(context.Background(), query.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateRequiresActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.tickets.Create(context.Background(), TicketInput{Subject: "x"}, nil)
	assert.Equal(t, apperr.KindUnauthorized, kindOf(err))

	all, err := f.tickets.Find(context.Background(), query.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateThenGetPreservesFields(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, TicketInput{Subject: "login fails", Description: "500 on submit", Type: "bug"})

	got, err := f.tickets.Get(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "login fails", got.Subject)
	assert.Equal(t, "500 on submit", got.Description)
	assert.Equal(t, "bug", got.Type)
}

func TestGetMissingAndMalformed(t *testing.T) {
	f := newFixture(t)
	_, err := f.tickets.Get(context.Background(), repository.NewID())
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
	_, err = f.tickets.Get(context.Background(), "zzz")
	assert.Equal(t, apperr.KindInvalidID, kindOf(err))
}

func TestEditToNoneUnassignsFromAnyStatus(t *testing.T) {
	for _, status := range []string{"", "resolved", "assigned"} {
		t.Run("from_"+status, func(t *testing.T) {
			f := newFixture(t)
			tk := f.create(t, TicketInput{Subject: "s", Project: f.project.ID, AssignedTo: ref("bob@venus.io")})
			if status != "" {
				var err error
				tk, err = f.tickets.Edit(context.Background(), tk.ID, TicketPatch{Subject: "s", Status: status}, f.alice)
				require.NoError(t, err)
			}

			out, err := f.tickets.Edit(context.Background(), tk.ID, TicketPatch{Subject: "s", AssignedTo: ref("none")}, f.alice)
			require.NoError(t, err)
			assert.Equal(t, models.StatusUnassigned, out.Status)
			assert.Equal(t, models.Unassigned, *out.AssignedTo)
		})
	}
}

func TestEditAssignsAndResolves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.create(t, TicketInput{Subject: "s", Project: f.project.ID})

	out, err := f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "s2", Description: "d", Type: "bug", Status: "initiated", AssignedTo: ref("carol@venus.io")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, out.Status)
	assert.Equal(t, "Carol Danvers", out.AssignedTo.Name)
	assert.Equal(t, "s2", out.Subject)
	require.NotNil(t, out.LastUpdated)
	assert.Equal(t, "alice@venus.io", out.LastUpdated.By)

	out, err = f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "s2", Status: "resolved", AssignedTo: ref("bob@venus.io")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, out.Status)
	assert.Equal(t, "bob@venus.io", out.AssignedTo.Email)
}

func TestEditValidationIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.create(t, TicketInput{Subject: "keep", Project: f.project.ID})

	_, err := f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: " ", Status: "bogus", AssignedTo: ref("not-an-email")}, f.alice)
	require.Error(t, err)
	e := apperr.From(err)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Len(t, e.Fields, 3)

	_, err = f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "changed", AssignedTo: ref("nobody@venus.io")}, f.alice)
	assert.Equal(t, apperr.KindValidation, kindOf(err))

	got, err := f.tickets.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Subject)
	assert.Equal(t, models.StatusInitiated, got.Status)
}

func TestEditStaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.create(t, TicketInput{Subject: "v1"})
	stale := tk.Version

	_, err := f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "v2", Version: &stale}, f.alice)
	require.NoError(t, err)

	_, err = f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "v3", Version: &stale}, f.alice)
	assert.Equal(t, apperr.KindConflict, kindOf(err))

	got, err := f.tickets.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Subject)
}

func TestDeleteMissingIsInvalidID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tickets.Delete(ctx, repository.NewID(), f.alice)
	require.Error(t, err)
	assert.Equal(t, "Invalid ID", apperr.From(err).Message)

	tk := f.create(t, TicketInput{Subject: "gone"})
	msg, err := f.tickets.Delete(ctx, tk.ID, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "Document "+tk.ID+" successfully deleted.", msg)
}

func TestDeleteRequiresInitiatorOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.create(t, TicketInput{Subject: "mine"})

	eve := &models.Actor{ID: repository.NewID(), Email: "eve@venus.io", Role: models.RoleEngineer}
	_, err := f.tickets.Delete(ctx, tk.ID, eve)
	assert.Equal(t, apperr.KindUnauthorized, kindOf(err))

	admin := &models.Actor{ID: repository.NewID(), Email: "root@venus.io", Role: models.RoleAdmin}
	_, err = f.tickets.Delete(ctx, tk.ID, admin)
	assert.NoError(t, err)
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.create(t, TicketInput{Subject: "c"})

	_, err := f.tickets.AddComment(ctx, tk.ID, "drive-by", nil)
	assert.Equal(t, apperr.KindUnauthorized, kindOf(err))
	got, err := f.tickets.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Comments)

	comments, err := f.tickets.AddComment(ctx, tk.ID, "first", f.alice)
	require.NoError(t, err)
	comments, err = f.tickets.AddComment(ctx, tk.ID, "second", f.alice)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "Alice Liddell", comments[1].Author)
	assert.Equal(t, "alice@venus.io", comments[1].AuthorEmail)
}

func TestFindFiltersAndRejectsUnknownFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, TicketInput{Subject: "a", Type: "bug"})
	f.create(t, TicketInput{Subject: "b", Type: "feature"})

	out, err := f.tickets.Find(ctx, query.Translate([]string{"type=bug"}))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Subject)

	_, err = f.tickets.Find(ctx, query.Filter{"colour": "red"})
	assert.Equal(t, apperr.KindValidation, kindOf(err))
}

func TestAssignmentNotifiesAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob, err := f.users.Register(ctx, RegisterInput{Username: "bob", Email: "bob@venus.io", Password: "secret1"}, nil)
	require.NoError(t, err)

	tk := f.create(t, TicketInput{Subject: "notify me", Project: f.project.ID, AssignedTo: ref("bob@venus.io")})

	got, err := f.users.Get(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, got.Notifications, 1)
	assert.Equal(t, tk.ID, got.Notifications[0].TicketID)
	assert.Equal(t, "You have been assigned to ticket notify me", got.Notifications[0].Message)
}

func TestSummaryCountsByStatus(t *testing.T) {
	f := newFixture(t)
	f.create(t, TicketInput{Subject: "a"})
	f.create(t, TicketInput{Subject: "b", Project: f.project.ID, AssignedTo: ref("bob@venus.io")})

	sum, err := f.tickets.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum["initiated"])
	assert.Equal(t, 1, sum["assigned"])
	assert.Equal(t, 0, sum["resolved"])
	assert.Equal(t, 2, sum["total"])
}

func TestAssigneeRefDecodesStringOrObject(t *testing.T) {
	var in TicketInput
	require.NoError(t, json.Unmarshal([]byte(`{"assigned_to":"bob@venus.io"}`), &in))
	assert.Equal(t, "bob@venus.io", in.AssignedTo.Email)

	require.NoError(t, json.Unmarshal([]byte(`{"assigned_to":{"id":"carol@venus.io","name":"Carol"}}`), &in))
	assert.Equal(t, "carol@venus.io", in.AssignedTo.Email)

	assert.Error(t, json.Unmarshal([]byte(`{"assigned_to":42}`), &in))
}

func TestEditWithoutAssigneeKeepsAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tk := f.create(t, TicketInput{Subject: "s"})
	out, err := f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "renamed"}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInitiated, out.Status)
	assert.Nil(t, out.AssignedTo)

	tk = f.create(t, TicketInput{Subject: "s", Project: f.project.ID, AssignedTo: ref("bob@venus.io")})
	out, err = f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "renamed"}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, out.Status)
	assert.Equal(t, "Bob Builder", out.AssignedTo.Name)
}

func TestEditStatusWithoutAssigneeKeepsInvariant(t *testing.T) {
	cases := []struct {
		name      string
		from      models.Status
		status    string
		wantErr   bool
		want      models.Status
		wantParty *models.Party
	}{
		{name: "initiated_resolved", from: models.StatusInitiated, status: "resolved", wantErr: true},
		{name: "initiated_assigned", from: models.StatusInitiated, status: "assigned", want: models.StatusInitiated},
		{name: "unassigned_resolved", from: models.StatusUnassigned, status: "resolved", wantErr: true},
		{name: "unassigned_assigned", from: models.StatusUnassigned, status: "assigned", want: models.StatusUnassigned, wantParty: &models.Unassigned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			tk := f.create(t, TicketInput{Subject: "s", Project: f.project.ID})
			if tc.from == models.StatusUnassigned {
				var err error
				tk, err = f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "s", AssignedTo: ref("none")}, f.alice)
				require.NoError(t, err)
				require.Equal(t, models.StatusUnassigned, tk.Status)
			}

			out, err := f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "s", Status: tc.status}, f.alice)
			if tc.wantErr {
				e := apperr.From(err)
				require.Equal(t, apperr.KindValidation, e.Kind)
				require.Len(t, e.Fields, 1)
				assert.Equal(t, "status", e.Fields[0].Field)

				got, err := f.tickets.Get(ctx, tk.ID)
				require.NoError(t, err)
				assert.Equal(t, tc.from, got.Status)
				assert.Equal(t, tk.Version, got.Version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.Status)
			if tc.wantParty == nil {
				assert.Nil(t, out.AssignedTo)
			} else {
				require.NotNil(t, out.AssignedTo)
				assert.Equal(t, *tc.wantParty, *out.AssignedTo)
			}
		})
	}
}

func TestEditResolvesOnlyWithRealAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.create(t, TicketInput{Subject: "s", Project: f.project.ID, AssignedTo: ref("bob@venus.io")})

	out, err := f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "s", Status: "resolved"}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, out.Status)
	assert.Equal(t, "bob@venus.io", out.AssignedTo.Email)

	out, err = f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "s", AssignedTo: ref("none")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnassigned, out.Status)

	_, err = f.tickets.Edit(ctx, tk.ID, TicketPatch{Subject: "s", Status: "resolved"}, f.alice)
	assert.Equal(t, apperr.KindValidation, kindOf(err))
}
