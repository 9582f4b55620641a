package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/audit"
	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/observability/metrics"
	"github.com/arenignacio/venus-bugtracker/internal/query"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

const (
	MsgTicketCreated = "Ticket successfully created"
	// commentAttempts bounds retries of a comment append that lost a version race.
	commentAttempts = 3
)

// AssigneeRef is the client's choice of assignee. It decodes from either a bare
// email string or an object {"id"|"email": ..., "name": ...}.
type AssigneeRef struct {
	Email string
}

func (a *AssigneeRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		a.Email = s
		return nil
	}
	var obj struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return errors.New("assigned_to must be an email or {id, name}")
	}
	a.Email = obj.Email
	if a.Email == "" {
		a.Email = obj.ID
	}
	return nil
}

// IsNone reports whether the ref asks for "nobody".
func (a *AssigneeRef) IsNone() bool {
	return a != nil && strings.EqualFold(strings.TrimSpace(a.Email), models.None)
}

type TicketInput struct {
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
	Priority    string       `json:"priority"`
	Project     string       `json:"project"`
	AssignedTo  *AssigneeRef `json:"assigned_to"`
}

// TicketPatch replaces the editable fields of a ticket. Subject, description and
// type are always overwritten; priority only when present.
type TicketPatch struct {
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
	Priority    *string      `json:"priority"`
	Status      string       `json:"status"`
	AssignedTo  *AssigneeRef `json:"assigned_to"`
	Version     *int64       `json:"version"`
}

// Notifier delivers assignment notices to a user identified by email.
type Notifier interface {
	PushNotification(ctx context.Context, email string, n models.Notification) error
}

type TicketService struct {
	tickets  repository.TicketRepository
	projects repository.ProjectRepository
	notify   Notifier
	audit    *audit.Logger
	log      zerolog.Logger
	now      func() time.Time
}

func NewTicketService(
	tickets repository.TicketRepository,
	projects repository.ProjectRepository,
	notify Notifier,
	a *audit.Logger,
	log zerolog.Logger,
) *TicketService {
	if a == nil {
		a = audit.Nop()
	}
	return &TicketService{
		tickets:  tickets,
		projects: projects,
		notify:   notify,
		audit:    a,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new ticket on behalf of actor. Status is derived from
// whether an assignee was supplied; initiated_by always comes from actor.
func (s *TicketService) Create(ctx context.Context, in TicketInput, actor *models.Actor) (t *models.Ticket, err error) {
	ctx, span := tracer.Start(ctx, "ticket.create")
	defer span.End()
	defer func() { metrics.ObserveTicketOp("create", result(err)) }()

	if actor == nil {
		return nil, apperr.Unauthorized("Unauthorized user")
	}

	var c utils.Checker
	subject := utils.CleanText(in.Subject)
	c.Check(subject != "", "subject", "subject is required", "")
	assign := in.AssignedTo != nil && !in.AssignedTo.IsNone() && strings.TrimSpace(in.AssignedTo.Email) != ""
	var email string
	if assign {
		email = utils.NormalizeEmail(in.AssignedTo.Email)
		c.Check(utils.IsEmail(email), "assigned_to.id", "id must be an email", email)
		c.Check(strings.TrimSpace(in.Project) != "", "project", "project is required to assign a ticket", "")
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	t = &models.Ticket{
		Subject:     subject,
		Description: utils.CleanText(in.Description),
		Type:        strings.TrimSpace(in.Type),
		Priority:    strings.TrimSpace(in.Priority),
		Status:      models.StatusInitiated,
		InitiatedBy: models.Party{ID: actor.ID, Name: actor.Name},
		Project:     strings.TrimSpace(in.Project),
		Comments:    []models.Comment{},
		CreatedAt:   s.now(),
	}
	if assign {
		member, err := s.resolveMember(ctx, t.Project, email)
		if err != nil {
			return nil, err
		}
		t.Assign(member, "")
	}

	if err := s.tickets.Create(ctx, t); err != nil {
		s.log.Error().Err(err).Msg("create ticket failed")
		return nil, storeErr(err, "Ticket")
	}
	s.audit.Record(ctx, actor, "create", "ticket", t.ID, string(t.Status))
	if t.Status == models.StatusAssigned {
		s.notifyAssignee(ctx, t)
	}
	return t, nil
}

// Find returns every ticket equal to the filter on all of its fields.
func (s *TicketService) Find(ctx context.Context, f query.Filter) (out []models.Ticket, err error) {
	ctx, span := tracer.Start(ctx, "ticket.find")
	defer span.End()
	defer func() { metrics.ObserveTicketOp("find", result(err)) }()

	f, err = query.TicketSchema.Validate(f)
	if err != nil {
		return nil, err
	}
	out, err = s.tickets.Find(ctx, f)
	if err != nil {
		s.log.Error().Err(err).Interface("filter", f).Msg("find tickets failed")
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *TicketService) Get(ctx context.Context, id string) (*models.Ticket, error) {
	t, err := s.tickets.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Ticket")
	}
	return t, nil
}

// Edit applies a patch all-or-nothing: every validation failure is reported
// and nothing is written unless all checks pass.
func (s *TicketService) Edit(ctx context.Context, id string, p TicketPatch, actor *models.Actor) (t *models.Ticket, err error) {
	ctx, span := tracer.Start(ctx, "ticket.edit")
	defer span.End()
	defer func() { metrics.ObserveTicketOp("edit", result(err)) }()

	if actor == nil {
		return nil, apperr.Unauthorized("Unauthorized user")
	}

	var c utils.Checker
	subject := utils.CleanText(p.Subject)
	c.Check(subject != "", "subject", "subject is required", "")
	status := models.Status(strings.ToLower(strings.TrimSpace(p.Status)))
	c.Check(status == "" || status.Valid(), "status", "unknown status", string(status))
	if p.AssignedTo != nil && !p.AssignedTo.IsNone() {
		email := utils.NormalizeEmail(p.AssignedTo.Email)
		c.Check(utils.IsEmail(email), "assigned_to.id", "id must be an email", email)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	t, err = s.tickets.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Ticket")
	}
	if p.Version != nil && *p.Version != t.Version {
		return nil, apperr.New(apperr.KindConflict, "Ticket was modified concurrently; reload and retry")
	}

	var member *models.Party
	if p.AssignedTo != nil && !p.AssignedTo.IsNone() {
		if member, err = s.resolveMember(ctx, t.Project, utils.NormalizeEmail(p.AssignedTo.Email)); err != nil {
			return nil, err
		}
	}
	unassigned := t.AssignedTo == nil || t.AssignedTo.IsNone()
	if p.AssignedTo == nil && status == models.StatusResolved && unassigned {
		return nil, apperr.Validation([]apperr.FieldError{{
			Field: "status", Message: "cannot resolve an unassigned ticket", Value: string(status),
		}})
	}

	prevStatus, prevAssignee := t.Status, ""
	if t.AssignedTo != nil {
		prevAssignee = t.AssignedTo.Email
	}
	t.Subject = subject
	t.Description = utils.CleanText(p.Description)
	t.Type = strings.TrimSpace(p.Type)
	if p.Priority != nil {
		t.Priority = strings.TrimSpace(*p.Priority)
	}
	// Without assigned_to in the patch the current assignee stays.
	switch {
	case p.AssignedTo != nil:
		t.Assign(member, status)
	case unassigned:
		// no assignee to resolve or keep; status stays
	case status == models.StatusResolved:
		t.Status = models.StatusResolved
	case status != "":
		t.Status = models.StatusAssigned
	}
	t.LastUpdated = &models.Stamp{Date: s.now(), By: actor.Email}

	if err := s.tickets.Save(ctx, t); err != nil {
		return nil, storeErr(err, "Ticket")
	}

	metrics.ObserveTransition(string(prevStatus), string(t.Status))
	s.audit.Record(ctx, actor, "edit", "ticket", t.ID, string(t.Status))
	if t.Status == models.StatusAssigned && t.AssignedTo.Email != prevAssignee {
		s.notifyAssignee(ctx, t)
	}
	return t, nil
}

// Delete removes a ticket. Only its initiator or an admin may delete it.
// A malformed or unknown id yields the literal "Invalid ID".
func (s *TicketService) Delete(ctx context.Context, id string, actor *models.Actor) (msg string, err error) {
	ctx, span := tracer.Start(ctx, "ticket.delete")
	defer span.End()
	defer func() { metrics.ObserveTicketOp("delete", result(err)) }()

	if actor == nil {
		return "", apperr.Unauthorized("Unauthorized user")
	}
	t, err := s.tickets.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return "", apperr.InvalidID()
		}
		return "", apperr.Internal(err)
	}
	if !actor.CanActOn(t.InitiatedBy.ID) {
		return "", apperr.Unauthorized("Unauthorized action")
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return "", apperr.InvalidID()
		}
		return "", apperr.Internal(err)
	}
	s.audit.Record(ctx, actor, "delete", "ticket", id, "ok")
	return "Document " + id + " successfully deleted.", nil
}

// AddComment appends a comment and returns the ticket's full comment list.
// Appends are order-independent, so a lost version race is retried.
func (s *TicketService) AddComment(ctx context.Context, id, content string, actor *models.Actor) (out []models.Comment, err error) {
	ctx, span := tracer.Start(ctx, "ticket.comment")
	defer span.End()
	defer func() { metrics.ObserveTicketOp("comment", result(err)) }()

	if actor == nil {
		return nil, apperr.Unauthorized("Unauthorized user")
	}
	var c utils.Checker
	content = utils.CleanText(content)
	c.Check(content != "", "content", "content is required", "")
	if err := c.Err(); err != nil {
		return nil, err
	}

	comment := models.Comment{
		Content:     content,
		Author:      actor.Name,
		AuthorEmail: actor.Email,
		Date:        s.now(),
	}
	for attempt := 1; ; attempt++ {
		t, err := s.tickets.Get(ctx, id)
		if err != nil {
			return nil, storeErr(err, "Ticket")
		}
		t.Comments = append(t.Comments, comment)
		err = s.tickets.Save(ctx, t)
		if err == nil {
			s.audit.Record(ctx, actor, "comment", "ticket", id, "ok")
			return t.Comments, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) || attempt == commentAttempts {
			return nil, storeErr(err, "Ticket")
		}
		s.log.Debug().Str("ticket", id).Int("attempt", attempt).Msg("comment lost version race, retrying")
	}
}

// Summary counts tickets per status.
func (s *TicketService) Summary(ctx context.Context) (map[string]int, error) {
	items, err := s.tickets.Find(ctx, query.Filter{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := map[string]int{
		string(models.StatusInitiated):  0,
		string(models.StatusAssigned):   0,
		string(models.StatusUnassigned): 0,
		string(models.StatusResolved):   0,
		"total":                         len(items),
	}
	for _, t := range items {
		out[string(t.Status)]++
	}
	return out, nil
}

// resolveMember finds the project member to snapshot as assignee. A missing
// project or member is a validation failure, never a silent empty assignment.
func (s *TicketService) resolveMember(ctx context.Context, projectID, email string) (*models.Party, error) {
	if projectID == "" {
		return nil, apperr.Validation([]apperr.FieldError{{
			Field: "project", Message: "ticket has no project to assign from",
		}})
	}
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, apperr.Validation([]apperr.FieldError{{
				Field: "project", Message: "project does not exist", Value: projectID,
			}})
		}
		return nil, apperr.Internal(err)
	}
	m, ok := p.MemberByEmail(email)
	if !ok {
		return nil, apperr.Validation([]apperr.FieldError{{
			Field: "assigned_to", Message: "no project member with this email", Value: email,
		}})
	}
	return m, nil
}

// notifyAssignee is best effort; a failure is logged and never fails the ticket operation.
func (s *TicketService) notifyAssignee(ctx context.Context, t *models.Ticket) {
	if s.notify == nil || t.AssignedTo == nil || t.AssignedTo.IsNone() {
		return
	}
	n := models.Notification{
		TicketID: t.ID,
		Message:  "You have been assigned to ticket " + t.Subject,
		Date:     s.now(),
	}
	if err := s.notify.PushNotification(ctx, t.AssignedTo.Email, n); err != nil {
		s.log.Warn().Err(err).Str("ticket", t.ID).Str("assignee", t.AssignedTo.Email).Msg("assignment notification not delivered")
	}
}
