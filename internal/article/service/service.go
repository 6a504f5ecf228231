package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/article"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/article/editing"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/article/guard"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/article/repository"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/collaborators"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/models"
	"github.com/draftdesk/draftdesk/backend/go-services/pkg/logger"
	"github.com/draftdesk/draftdesk/backend/go-services/pkg/metrics"
)

// DefaultSnapshotThreshold is the number of revisions after which a snapshot is
// taken even when the same collaborator keeps editing.
const DefaultSnapshotThreshold = 100

// Directory resolves collaborator identifiers. *collaborators.Service satisfies it.
type Directory interface {
	Resolve(ctx context.Context, id string) (*models.Collaborator, error)
}

// Archiver receives every snapshot after it was stored and reads archived
// snapshots back for recovery. *storage.SnapshotArchive satisfies it.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, s *article.Snapshot) error
	LoadSnapshot(ctx context.Context, articleID string, seq int64) (*article.Snapshot, error)
}

// ErrArchiveDisabled is returned by ArchivedVersion when no archive is
// configured. It matches article.ErrNotFound.
var ErrArchiveDisabled = fmt.Errorf("snapshot archive is not configured: %w", article.ErrNotFound)

// OpenResult is returned when a collaborator opens an article for editing.
type OpenResult struct {
	Article *article.Article   `json:"article"`
	Lock    editing.LockResult `json:"lock"`
}

// EditRequest is one save from the editor. Changes only touches the fields it
// sets. ExpectedRevision is the client's local save counter. Force takes the
// soft lock over from another collaborator.
type EditRequest struct {
	ArticleID        string
	CollaboratorID   string
	Changes          article.ContentPatch
	ExpectedRevision int64
	Force            bool
}

// EditResult describes a committed edit.
type EditResult struct {
	Revision  int64               `json:"revision"`
	Snapshots []*article.Snapshot `json:"snapshots,omitempty"`
}

// BatchAction is a bulk operation on several articles at once.
type BatchAction string

const (
	BatchTrash    BatchAction = "trash"
	BatchPublish  BatchAction = "publish"
	BatchDraft    BatchAction = "draft"
	BatchRestore  BatchAction = "restore"
	BatchCategory BatchAction = "category"
	BatchDestroy  BatchAction = "destroy"
)

// Service defines the article operations used by the handler layer.
type Service interface {
	Create(ctx context.Context, collaboratorID string, content article.Content) (*article.Article, error)
	Get(ctx context.Context, id string) (*article.Article, error)
	OpenForEdit(ctx context.Context, id, collaboratorID string) (*OpenResult, error)
	SubmitEdit(ctx context.Context, req EditRequest) (*EditResult, error)
	ListVersions(ctx context.Context, id string, afterSeq int64) ([]*article.Snapshot, error)
	ArchivedVersion(ctx context.Context, id string, seq int64) (*article.Snapshot, error)
	Batch(ctx context.Context, action BatchAction, ids []string, categoryID string) (int64, error)
	EmptyTrash(ctx context.Context) (int64, error)
}

// Options wires a Service. Archive is optional. SnapshotThreshold defaults to
// DefaultSnapshotThreshold when zero; a negative value disables threshold snapshots.
type Options struct {
	Articles          repository.ArticleStore
	Versions          repository.VersionStore
	Collaborators     Directory
	Guard             guard.Guard
	Archive           Archiver
	SnapshotThreshold int64
}

type articleService struct {
	articles  repository.ArticleStore
	versions  repository.VersionStore
	people    Directory
	guard     guard.Guard
	archive   Archiver
	threshold int64
	log       *logger.Scoped
}

// New returns a Service over the given stores.
func New(opts Options) Service {
	threshold := opts.SnapshotThreshold
	if threshold == 0 {
		threshold = DefaultSnapshotThreshold
	}
	g := opts.Guard
	if g == nil {
		g = guard.NewLocal()
	}
	return &articleService{
		articles:  opts.Articles,
		versions:  opts.Versions,
		people:    opts.Collaborators,
		guard:     g,
		archive:   opts.Archive,
		threshold: threshold,
		log:       logger.With("articles"),
	}
}

// NewMemoryService returns a Service backed by in-memory stores and a local guard.
func NewMemoryService(people Directory) Service {
	return New(Options{
		Articles:      repository.NewMemoryRepo(),
		Versions:      repository.NewMemoryVersions(),
		Collaborators: people,
		Guard:         guard.NewLocal(),
	})
}

func (s *articleService) resolve(ctx context.Context, collaboratorID string) (*models.Collaborator, error) {
	c, err := s.people.Resolve(ctx, collaboratorID)
	if err != nil {
		if errors.Is(err, collaborators.ErrNotFound) {
			return nil, fmt.Errorf("collaborator %q: %w", collaboratorID, article.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

// enter opens the article's critical section. A busy guard means another save
// is in flight; the caller's copy is about to be outdated, so it is reported as
// a stale write.
func (s *articleService) enter(ctx context.Context, id string) (func(), error) {
	release, err := s.guard.Acquire(ctx, id)
	if err != nil {
		if errors.Is(err, guard.ErrBusy) {
			return nil, fmt.Errorf("%w: %w", article.ErrStaleWrite, err)
		}
		return nil, err
	}
	return release, nil
}

func (s *articleService) load(ctx context.Context, id string) (*article.Article, error) {
	a, err := s.articles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("article %q: %w", id, article.ErrNotFound)
		}
		return nil, fmt.Errorf("load article: %w", err)
	}
	return a, nil
}

func (s *articleService) save(ctx context.Context, next *article.Article, prevRevision int64, prevHolder string) error {
	err := s.articles.CompareAndSwap(ctx, next, prevRevision, prevHolder)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrConflict):
		return article.ErrStaleWrite
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("article %q: %w", next.ID, article.ErrNotFound)
	}
	return fmt.Errorf("save article: %w", err)
}

func (s *articleService) snapshot(ctx context.Context, a *article.Article, editor string, reason article.SnapshotReason) (*article.Snapshot, error) {
	snap, err := s.versions.Append(ctx, article.NewSnapshot(a, editor, reason))
	if err != nil {
		return nil, fmt.Errorf("append %s snapshot: %w", reason, err)
	}
	metrics.SnapshotsCreated.WithLabelValues(string(reason)).Inc()
	if s.archive != nil {
		if err := s.archive.ArchiveSnapshot(ctx, snap); err != nil {
			s.log.Warnf("archive snapshot %s of article %s: %v", snap.ID, snap.ArticleID, err)
		}
	}
	return snap, nil
}

func (s *articleService) Create(ctx context.Context, collaboratorID string, content article.Content) (*article.Article, error) {
	if content.Status == "" {
		content.Status = article.StatusDraft
	}
	if err := article.Validate(content); err != nil {
		return nil, err
	}
	who, err := s.resolve(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}
	a := &article.Article{Content: content, LastEditor: who.ID}
	if err := s.articles.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	// the article is stored at this point, so a failed initial snapshot is only logged
	if _, err := s.snapshot(ctx, a, who.ID, article.ReasonCreated); err != nil {
		s.log.Warnf("article %s created without initial snapshot: %v", a.ID, err)
	}
	s.log.Infof("article %s created by %s", a.ID, who.ID)
	return a, nil
}

func (s *articleService) Get(ctx context.Context, id string) (*article.Article, error) {
	return s.load(ctx, id)
}

func (s *articleService) OpenForEdit(ctx context.Context, id, collaboratorID string) (*OpenResult, error) {
	who, err := s.resolve(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}
	release, err := s.enter(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	prevHolder, prevName := a.LockHolder, a.LockHolderName
	res := editing.AcquireLock(a, who.ID, who.Name)
	if !res.Acquired() {
		metrics.LockConflicts.WithLabelValues("open").Inc()
		s.log.Debugf("article %s opened read-only by %s, locked by %s", id, who.ID, res.HeldBy)
		return &OpenResult{Article: a, Lock: res}, nil
	}
	if prevHolder != a.LockHolder || prevName != a.LockHolderName {
		if err := s.save(ctx, a, a.Revision, prevHolder); err != nil {
			return nil, err
		}
	}
	return &OpenResult{Article: a, Lock: res}, nil
}

func (s *articleService) SubmitEdit(ctx context.Context, req EditRequest) (*EditResult, error) {
	res, err := s.submit(ctx, req)
	outcome := "committed"
	if err != nil {
		if code, ok := article.CodeOf(err); ok {
			outcome = string(code)
		} else {
			outcome = "error"
			s.log.Errorf("edit of article %s by %s failed: %v", req.ArticleID, req.CollaboratorID, err)
		}
	}
	metrics.EditOutcomes.WithLabelValues(outcome).Inc()
	return res, err
}

func (s *articleService) submit(ctx context.Context, req EditRequest) (*EditResult, error) {
	who, err := s.resolve(ctx, req.CollaboratorID)
	if err != nil {
		return nil, err
	}
	release, err := s.enter(ctx, req.ArticleID)
	if err != nil {
		return nil, err
	}
	defer release()

	a, err := s.load(ctx, req.ArticleID)
	if err != nil {
		return nil, err
	}
	sess := newEditSession(req, who, a)

	if err := sess.validate(); err != nil {
		return nil, sess.reject(err)
	}
	if err := sess.checkLock(); err != nil {
		metrics.LockConflicts.WithLabelValues("submit").Inc()
		return nil, sess.reject(err)
	}
	if err := sess.checkGate(); err != nil {
		return nil, sess.reject(err)
	}

	result := &EditResult{}
	if sess.needsHandoff() {
		snap, err := s.snapshot(ctx, sess.article, sess.article.LastEditor, article.ReasonHandoff)
		if err != nil {
			return nil, sess.reject(err)
		}
		sess.article.LastSnapshotRevision = snap.Revision
		result.Snapshots = append(result.Snapshots, snap)
	}

	sess.apply()
	// The threshold snapshot is stored before the commit so LastSnapshotRevision
	// never points at a snapshot that does not exist.
	if editing.NeedsThresholdSnapshot(sess.article, s.threshold) {
		snap, err := s.snapshot(ctx, sess.article, who.ID, article.ReasonThreshold)
		if err != nil {
			return nil, sess.reject(err)
		}
		sess.article.LastSnapshotRevision = snap.Revision
		result.Snapshots = append(result.Snapshots, snap)
	}
	if err := s.save(ctx, sess.article, sess.prevRevision, sess.prevHolder); err != nil {
		return nil, sess.reject(err)
	}
	sess.commit()

	result.Revision = sess.article.Revision
	s.log.Infof("article %s saved by %s at revision %d", sess.article.ID, who.ID, result.Revision)
	return result, nil
}

func (s *articleService) ListVersions(ctx context.Context, id string, afterSeq int64) ([]*article.Snapshot, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	out, err := s.versions.ListSince(ctx, id, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return out, nil
}

// ArchivedVersion reads a snapshot back from the object store archive. The
// article itself does not have to exist any more.
func (s *articleService) ArchivedVersion(ctx context.Context, id string, seq int64) (*article.Snapshot, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	snap, err := s.archive.LoadSnapshot(ctx, id, seq)
	if err != nil {
		if errors.Is(err, article.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load archived snapshot: %w", err)
	}
	return snap, nil
}

func (s *articleService) Batch(ctx context.Context, action BatchAction, ids []string, categoryID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if action == BatchDestroy {
		n, err := s.articles.DestroyTrashed(ctx, ids)
		if err != nil {
			return 0, err
		}
		s.log.Infof("destroyed %d trashed articles", n)
		return n, nil
	}

	scope := repository.ScopeActive
	var change repository.BatchChange
	switch action {
	case BatchTrash, BatchPublish, BatchDraft:
		st := article.Status(action)
		change.Status = &st
	case BatchRestore:
		st := article.StatusDraft
		scope = repository.ScopeTrashed
		change.Status = &st
	case BatchCategory:
		if categoryID == "" {
			return 0, &article.ValidationError{Fields: map[string]string{"categoryid": "is required"}}
		}
		change.CategoryID = &categoryID
	default:
		return 0, &article.ValidationError{Fields: map[string]string{"action": "is not supported"}}
	}

	var total int64
	for _, id := range ids {
		n, err := s.batchOne(ctx, id, scope, change)
		if err != nil {
			return total, err
		}
		total += n
	}
	s.log.Infof("batch %s updated %d of %d articles", action, total, len(ids))
	return total, nil
}

// batchOne updates a single article inside its critical section so a bulk
// status change cannot land between an edit's read and its write.
func (s *articleService) batchOne(ctx context.Context, id string, scope repository.Scope, change repository.BatchChange) (int64, error) {
	release, err := s.enter(ctx, id)
	if err != nil {
		return 0, err
	}
	defer release()
	return s.articles.BatchUpdate(ctx, []string{id}, scope, change)
}

func (s *articleService) EmptyTrash(ctx context.Context) (int64, error) {
	n, err := s.articles.DestroyTrashed(ctx, nil)
	if err != nil {
		return 0, err
	}
	s.log.Infof("trash emptied, %d articles destroyed", n)
	return n, nil
}
