package fakeinboxrepo_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-bizcard-client/inbox"
	fakeinboxrepo "github.com/jrsteele09/go-bizcard-client/inbox/repofake"
	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestFakeInboxRepo(t *testing.T) {
	repo := fakeinboxrepo.NewFakeInboxRepo()
	now := time.Unix(1_700_000_000, 0)

	older := &inbox.Notification{RecipientID: 1, SenderID: 2, Type: inbox.TypeComment, Message: "Bob commented", CreatedAt: now}
	newer := &inbox.Notification{RecipientID: 1, SenderID: 3, Type: inbox.TypePostLike, Message: "Carol liked", CreatedAt: now.Add(time.Minute)}
	other := &inbox.Notification{RecipientID: 2, SenderID: 1, Type: inbox.TypeCommentLike, Message: "Alice liked", CreatedAt: now}
	for _, n := range []*inbox.Notification{older, newer, other} {
		require.NoError(t, repo.Add(n))
	}

	list, err := repo.ListFor(1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, newer.ID, list[0].ID)
	require.Equal(t, older.ID, list[1].ID)

	t.Run("operations are scoped to the recipient", func(t *testing.T) {
		require.ErrorIs(t, repo.MarkRead(2, older.ID), errors.ErrNotFound)
		require.ErrorIs(t, repo.Delete(2, older.ID), errors.ErrNotFound)
		require.NoError(t, repo.DeleteMany(2, []int64{older.ID, newer.ID}))

		list, err := repo.ListFor(1)
		require.NoError(t, err)
		require.Len(t, list, 2)
	})

	t.Run("mark read", func(t *testing.T) {
		require.NoError(t, repo.MarkRead(1, older.ID))
		list, err := repo.ListFor(1)
		require.NoError(t, err)
		require.True(t, list[1].IsRead)
		require.False(t, list[0].IsRead)
	})

	t.Run("delete many ignores unknown ids", func(t *testing.T) {
		require.NoError(t, repo.DeleteMany(1, []int64{older.ID, newer.ID, 99}))
		list, err := repo.ListFor(1)
		require.NoError(t, err)
		require.Empty(t, list)

		list, err = repo.ListFor(2)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})
}
