package collaborators

import (
	"context"
	"errors"
	"testing"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/models"
)

type fakeRepo struct {
	lastUpsert *models.Collaborator
	getErr     error
	byID       map[string]*models.Collaborator
}

func (f *fakeRepo) Upsert(ctx context.Context, c *models.Collaborator) (*models.Collaborator, error) {
	f.lastUpsert = c
	ret := *c
	return &ret, nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*models.Collaborator, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byID[id], nil
}

func TestRegister(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Register(ctx, " u1 ", " Ann ", "ann@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != "u1" || c.Name != "Ann" {
		t.Fatalf("expected trimmed id and name, got %+v", c)
	}
	if repo.lastUpsert == nil {
		t.Fatal("expected repository Upsert to be called")
	}

	if _, err := svc.Register(ctx, "u2", "  ", ""); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	repo := &fakeRepo{byID: map[string]*models.Collaborator{"u1": {ID: "u1", Name: "Ann"}}}
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Resolve(ctx, "u1")
	if err != nil || c.Name != "Ann" {
		t.Fatalf("unexpected resolve result: %v %v", c, err)
	}
	if _, err := svc.Resolve(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Resolve(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty id, got %v", err)
	}

	repo.getErr = errors.New("mongo down")
	if _, err := svc.Resolve(ctx, "u1"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestMemoryRepositoryUpsertKeepsCreatedAt(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	first, _ := r.Upsert(ctx, &models.Collaborator{ID: "u1", Name: "Ann"})
	second, _ := r.Upsert(ctx, &models.Collaborator{ID: "u1", Name: "Ann B."})
	if !first.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("createdAt changed on update: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	got, _ := r.Get(ctx, "u1")
	if got.Name != "Ann B." {
		t.Fatalf("expected updated name, got %q", got.Name)
	}
	if missing, _ := r.Get(ctx, "u2"); missing != nil {
		t.Fatalf("expected nil for unknown collaborator, got %+v", missing)
	}
}
