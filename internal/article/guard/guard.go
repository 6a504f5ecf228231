// Package guard provides the per-article critical section that serializes the
// read-check-write cycle of an edit. Different articles never contend.
package guard

import (
	"context"
	"errors"
)

// ErrBusy is returned when the critical section could not be entered in time.
var ErrBusy = errors.New("article is being saved by another request")

// Guard hands out exclusive access to one article at a time.
type Guard interface {
	// Acquire blocks until the caller owns articleID's critical section or
	// fails. The returned release must be called exactly once.
	Acquire(ctx context.Context, articleID string) (release func(), err error)
}
