package editing

import (
	"errors"
	"testing"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/article"
	"github.com/stretchr/testify/require"
)

func TestAcquireLock_FreeAndRefresh(t *testing.T) {
	a := &article.Article{ID: "a1"}
	res := AcquireLock(a, "alice", "Alice")
	require.True(t, res.Acquired())
	require.NoError(t, res.Err())
	require.Equal(t, "alice", a.LockHolder)
	require.Equal(t, "Alice", a.LockHolderName)

	// re-acquire by the holder refreshes the cached name
	res = AcquireLock(a, "alice", "Alice B.")
	require.True(t, res.Acquired())
	require.Equal(t, "Alice B.", a.LockHolderName)
}

func TestAcquireLock_ConflictLeavesStateUntouched(t *testing.T) {
	a := &article.Article{ID: "a1", LockHolder: "alice", LockHolderName: "Alice"}
	res := AcquireLock(a, "bob", "Bob")
	require.False(t, res.Acquired())
	require.Equal(t, LockConflict, res.State)
	require.Equal(t, "alice", res.HeldBy)
	require.Equal(t, "Alice", res.HeldByName)
	require.Equal(t, "alice", a.LockHolder)
	require.Equal(t, "Alice", a.LockHolderName)

	var lce *article.LockConflictError
	require.True(t, errors.As(res.Err(), &lce))
	require.Equal(t, "alice", lce.HeldBy)
	require.Contains(t, lce.Error(), "Alice")
}

func TestTakeOverLock(t *testing.T) {
	a := &article.Article{ID: "a1", LockHolder: "alice", LockHolderName: "Alice"}
	prev := TakeOverLock(a, "bob", "Bob")
	require.Equal(t, LockConflict, prev.State)
	require.Equal(t, "alice", prev.HeldBy)
	require.Equal(t, "bob", a.LockHolder)
	require.Equal(t, "Bob", a.LockHolderName)
}

func TestCheckRevision(t *testing.T) {
	a := &article.Article{Revision: 5}
	require.NoError(t, CheckRevision(a, 6))
	require.NoError(t, CheckRevision(a, 42))
	require.ErrorIs(t, CheckRevision(a, 5), article.ErrStaleWrite)
	require.ErrorIs(t, CheckRevision(a, 0), article.ErrStaleWrite)
	require.Equal(t, int64(5), a.Revision)
}

func TestSnapshotPolicies(t *testing.T) {
	a := &article.Article{Revision: 99, LastEditor: "alice"}
	require.False(t, NeedsHandoffSnapshot(a, "alice"))
	require.True(t, NeedsHandoffSnapshot(a, "bob"))
	require.False(t, NeedsHandoffSnapshot(&article.Article{}, "bob"))

	require.False(t, NeedsThresholdSnapshot(a, 100))
	a.Revision = 100
	require.True(t, NeedsThresholdSnapshot(a, 100))
	a.LastSnapshotRevision = 50
	require.False(t, NeedsThresholdSnapshot(a, 100))
	require.False(t, NeedsThresholdSnapshot(a, 0))
}
