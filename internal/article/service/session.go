package service

import (
	"github.com/draftdesk/draftdesk/backend/go-services/internal/article"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/article/editing"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/models"
	"github.com/draftdesk/draftdesk/backend/go-services/pkg/logger"
)

type sessionState int

const (
	stateStart sessionState = iota
	stateLockChecked
	stateGateChecked
	stateCommitted
	stateRejected
)

func (s sessionState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateLockChecked:
		return "lock-checked"
	case stateGateChecked:
		return "gate-checked"
	case stateCommitted:
		return "committed"
	case stateRejected:
		return "rejected"
	}
	return "unknown"
}

var sessionLog = logger.With("edit-session")

// editSession carries one save request through lock check, gate check and
// commit. It works on a private copy of the article; nothing is visible to
// other requests until the service persists that copy.
type editSession struct {
	req    EditRequest
	editor *models.Collaborator
	state  sessionState

	article      *article.Article
	prevRevision int64
	prevHolder   string
}

func newEditSession(req EditRequest, editor *models.Collaborator, a *article.Article) *editSession {
	return &editSession{
		req:          req,
		editor:       editor,
		state:        stateStart,
		article:      a,
		prevRevision: a.Revision,
		prevHolder:   a.LockHolder,
	}
}

func (e *editSession) advance(to sessionState) {
	sessionLog.Debugf("article %s by %s: %s -> %s", e.article.ID, e.editor.ID, e.state, to)
	e.state = to
}

func (e *editSession) reject(err error) error {
	e.advance(stateRejected)
	return err
}

// validate checks the stored content with the requested changes applied.
func (e *editSession) validate() error {
	return article.Validate(e.req.Changes.Apply(e.article.Content))
}

// checkLock claims the soft lock for the editor, or takes it over when the
// request is forced.
func (e *editSession) checkLock() error {
	if e.req.Force {
		if prev := editing.TakeOverLock(e.article, e.editor.ID, e.editor.Name); !prev.Acquired() {
			sessionLog.Infof("article %s: %s took the edit lock over from %s", e.article.ID, e.editor.ID, prev.HeldBy)
		}
	} else if res := editing.AcquireLock(e.article, e.editor.ID, e.editor.Name); !res.Acquired() {
		return res.Err()
	}
	e.advance(stateLockChecked)
	return nil
}

func (e *editSession) checkGate() error {
	if err := editing.CheckRevision(e.article, e.req.ExpectedRevision); err != nil {
		return err
	}
	e.advance(stateGateChecked)
	return nil
}

func (e *editSession) needsHandoff() bool {
	return editing.NeedsHandoffSnapshot(e.article, e.editor.ID)
}

// apply merges the requested changes into the working copy.
func (e *editSession) apply() {
	e.article.Content = e.req.Changes.Apply(e.article.Content)
	e.article.Revision = e.prevRevision + 1
	e.article.LastEditor = e.editor.ID
}

func (e *editSession) commit() {
	e.advance(stateCommitted)
}
