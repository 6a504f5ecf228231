package repository

import (
	"context"
	"errors"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/article"
)

var (
	ErrNotFound = errors.New("article not found")
	// ErrConflict is returned by CompareAndSwap when the stored article no longer
	// matches the revision and lock holder the caller read.
	ErrConflict = errors.New("article changed concurrently")
)

// Scope selects which articles of a batch operation are affected.
type Scope int

const (
	// ScopeActive matches articles that are not in the trash.
	ScopeActive Scope = iota
	// ScopeTrashed matches trashed articles only.
	ScopeTrashed
)

// BatchChange lists the fields a batch update sets. Nil fields are left alone.
type BatchChange struct {
	Status     *article.Status
	CategoryID *string
}

// ArticleStore persists articles. Implementations return copies so callers can
// mutate what they get back freely.
type ArticleStore interface {
	Create(ctx context.Context, a *article.Article) error
	Get(ctx context.Context, id string) (*article.Article, error)
	// CompareAndSwap replaces the stored article with next iff its revision and
	// lock holder still equal prevRevision and prevLockHolder.
	CompareAndSwap(ctx context.Context, next *article.Article, prevRevision int64, prevLockHolder string) error
	// BatchUpdate applies change to the articles in ids that fall into scope and
	// returns how many were modified.
	BatchUpdate(ctx context.Context, ids []string, scope Scope, change BatchChange) (int64, error)
	// DestroyTrashed removes trashed articles among ids, or every trashed article
	// when ids is empty.
	DestroyTrashed(ctx context.Context, ids []string) (int64, error)
}

// VersionStore is the append-only history of article snapshots.
type VersionStore interface {
	// Append assigns ID, Seq and CreatedAt to s and stores it after every
	// existing snapshot of the same article.
	Append(ctx context.Context, s *article.Snapshot) (*article.Snapshot, error)
	// ListSince returns snapshots with Seq > afterSeq in creation order.
	ListSince(ctx context.Context, articleID string, afterSeq int64) ([]*article.Snapshot, error)
	// Latest returns the most recent snapshot, or nil when there is none.
	Latest(ctx context.Context, articleID string) (*article.Snapshot, error)
}

func inScope(a *article.Article, scope Scope) bool {
	if scope == ScopeTrashed {
		return a.Status == article.StatusTrash
	}
	return a.Status != article.StatusTrash
}
