package collaborators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/models"
)

var (
	ErrNotFound    = errors.New("collaborator not found")
	ErrInvalidName = errors.New("collaborator id and name are required")
)

// Service resolves collaborator identifiers to their display records.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Register creates or updates a collaborator.
func (s *Service) Register(ctx context.Context, id, name, email string) (*models.Collaborator, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, ErrInvalidName
	}
	return s.repo.Upsert(ctx, &models.Collaborator{ID: id, Name: name, Email: email})
}

// Resolve returns the collaborator with the given id or ErrNotFound.
func (s *Service) Resolve(ctx context.Context, id string) (*models.Collaborator, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup collaborator: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}
