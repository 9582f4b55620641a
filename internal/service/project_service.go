package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/arenignacio/venus-bugtracker/internal/apperr"
	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/repository"
	"github.com/arenignacio/venus-bugtracker/internal/utils"
)

// ProjectService manages project membership. It has no HTTP surface; venusctl drives it.
type ProjectService struct {
	projects repository.ProjectRepository
}

func NewProjectService(projects repository.ProjectRepository) *ProjectService {
	return &ProjectService{projects: projects}
}

// ParseMember reads "email:name:role". Role is optional and defaults to engineer.
func ParseMember(s string) (models.Member, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return models.Member{}, fmt.Errorf("member %q: want email:name[:role]", s)
	}
	m := models.Member{
		Email: utils.NormalizeEmail(parts[0]),
		Name:  strings.TrimSpace(parts[1]),
		Role:  models.RoleEngineer,
	}
	if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
		m.Role = strings.ToLower(strings.TrimSpace(parts[2]))
	}
	if !utils.IsEmail(m.Email) {
		return models.Member{}, fmt.Errorf("member %q: invalid email", s)
	}
	if m.Name == "" {
		return models.Member{}, fmt.Errorf("member %q: name is required", s)
	}
	return m, nil
}

func (s *ProjectService) Create(ctx context.Context, name string, members []models.Member) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation([]apperr.FieldError{{Field: "name", Message: "name is required"}})
	}
	p := &models.Project{Name: name, Members: []models.Member{}}
	for _, m := range members {
		if _, dup := p.MemberByEmail(m.Email); dup {
			return nil, apperr.Validation([]apperr.FieldError{{Field: "members", Message: "duplicate member", Value: m.Email}})
		}
		p.Members = append(p.Members, m)
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, storeErr(err, "Project")
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Project")
	}
	return p, nil
}

// AddMember appends m, or replaces the existing member with the same email.
func (s *ProjectService) AddMember(ctx context.Context, id string, m models.Member) (*models.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Project")
	}
	replaced := false
	for i := range p.Members {
		if strings.EqualFold(p.Members[i].Email, m.Email) {
			p.Members[i] = m
			replaced = true
		}
	}
	if !replaced {
		p.Members = append(p.Members, m)
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, storeErr(err, "Project")
	}
	return p, nil
}
