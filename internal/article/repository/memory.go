package repository

import (
	"context"
	"sync"
	"time"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/article"
	"github.com/google/uuid"
)

// MemoryRepo is an in-memory ArticleStore used in development and unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*article.Article
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*article.Article)}
}

func (m *MemoryRepo) Create(ctx context.Context, a *article.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	m.store[a.ID] = a.Clone()
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*article.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.store[id]; ok {
		return a.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) CompareAndSwap(ctx context.Context, next *article.Article, prevRevision int64, prevLockHolder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[next.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Revision != prevRevision || cur.LockHolder != prevLockHolder {
		return ErrConflict
	}
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	m.store[next.ID] = next.Clone()
	return nil
}

func (m *MemoryRepo) BatchUpdate(ctx context.Context, ids []string, scope Scope, change BatchChange) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now().UTC()
	for _, id := range ids {
		a, ok := m.store[id]
		if !ok || !inScope(a, scope) {
			continue
		}
		if change.Status != nil {
			a.Status = *change.Status
		}
		if change.CategoryID != nil {
			a.CategoryID = *change.CategoryID
		}
		a.UpdatedAt = now
		n++
	}
	return n, nil
}

func (m *MemoryRepo) DestroyTrashed(ctx context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if len(ids) == 0 {
		for id, a := range m.store {
			if a.Status == article.StatusTrash {
				delete(m.store, id)
				n++
			}
		}
		return n, nil
	}
	for _, id := range ids {
		if a, ok := m.store[id]; ok && a.Status == article.StatusTrash {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

// MemoryVersions is an in-memory VersionStore.
type MemoryVersions struct {
	mu      sync.RWMutex
	history map[string][]*article.Snapshot
}

func NewMemoryVersions() *MemoryVersions {
	return &MemoryVersions{history: make(map[string][]*article.Snapshot)}
}

func (m *MemoryVersions) Append(ctx context.Context, s *article.Snapshot) (*article.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *s
	stored.ID = uuid.New().String()
	stored.Seq = int64(len(m.history[s.ArticleID])) + 1
	stored.CreatedAt = time.Now().UTC()
	m.history[s.ArticleID] = append(m.history[s.ArticleID], &stored)
	out := stored
	return &out, nil
}

func (m *MemoryVersions) ListSince(ctx context.Context, articleID string, afterSeq int64) ([]*article.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*article.Snapshot{}
	for _, s := range m.history[articleID] {
		if s.Seq > afterSeq {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MemoryVersions) Latest(ctx context.Context, articleID string) (*article.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.history[articleID]
	if len(h) == 0 {
		return nil, nil
	}
	c := *h[len(h)-1]
	return &c, nil
}
