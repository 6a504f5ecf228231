// Package editing holds the pure decision logic applied to an article during an
// edit: the soft edit lock and the save-count gate. Callers are expected to run
// these inside the article's critical section and persist the result themselves.
package editing

import "github.com/draftdesk/draftdesk/backend/go-services/internal/article"

// LockState is the outcome of a lock acquisition.
type LockState string

const (
	LockAcquired LockState = "acquired"
	LockConflict LockState = "conflict"
)

// LockResult reports who holds the soft lock after an acquisition attempt.
type LockResult struct {
	State      LockState `json:"status"`
	HeldBy     string    `json:"heldBy,omitempty"`
	HeldByName string    `json:"heldByName,omitempty"`
}

// Acquired reports whether the caller now holds the lock.
func (r LockResult) Acquired() bool { return r.State == LockAcquired }

// Err converts a conflict into a *article.LockConflictError, nil otherwise.
func (r LockResult) Err() error {
	if r.State != LockConflict {
		return nil
	}
	return &article.LockConflictError{HeldBy: r.HeldBy, HeldByName: r.HeldByName}
}

// AcquireLock gives the soft edit lock on a to collaborator when it is free or
// already theirs. When another collaborator holds it, a is left untouched and the
// result describes the holder.
func AcquireLock(a *article.Article, collaborator, displayName string) LockResult {
	if a.LockHolder != "" && a.LockHolder != collaborator {
		return LockResult{State: LockConflict, HeldBy: a.LockHolder, HeldByName: a.LockHolderName}
	}
	takeLock(a, collaborator, displayName)
	return LockResult{State: LockAcquired, HeldBy: collaborator, HeldByName: displayName}
}

// TakeOverLock hands the lock to collaborator regardless of the current holder.
// It returns the result describing the previous holder when one was displaced.
func TakeOverLock(a *article.Article, collaborator, displayName string) LockResult {
	prev := AcquireLock(a, collaborator, displayName)
	if prev.Acquired() {
		return prev
	}
	takeLock(a, collaborator, displayName)
	return prev
}

func takeLock(a *article.Article, collaborator, displayName string) {
	a.LockHolder = collaborator
	a.LockHolderName = displayName
}
