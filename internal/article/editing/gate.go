package editing

import "github.com/draftdesk/draftdesk/backend/go-services/internal/article"

// CheckRevision admits a write only when the client's save count is strictly
// ahead of the stored revision. Clients bump their counter before each save is
// sent, so an equal or lower value means they are working on an outdated copy.
func CheckRevision(a *article.Article, expected int64) error {
	if expected > a.Revision {
		return nil
	}
	return article.ErrStaleWrite
}

// NeedsHandoffSnapshot reports whether the outgoing editor's state must be kept
// before editor overwrites it.
func NeedsHandoffSnapshot(a *article.Article, editor string) bool {
	return a.LastEditor != "" && a.LastEditor != editor
}

// NeedsThresholdSnapshot reports whether enough revisions have accumulated since
// the last snapshot. A threshold <= 0 disables threshold snapshots.
func NeedsThresholdSnapshot(a *article.Article, threshold int64) bool {
	if threshold <= 0 {
		return false
	}
	return a.Revision-a.LastSnapshotRevision >= threshold
}
