package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/things/internal/model"
)

func ptr[T any](v T) *T { return &v }

// runTaskRepoContract exercises behaviour every TaskRepository must share. ownerA and ownerB must
// be existing, distinct owners with no tasks.
func runTaskRepoContract(t *testing.T, r TaskRepository, ownerA, ownerB string) {
	ctx := context.Background()

	t.Run("create assigns id and starts incomplete", func(t *testing.T) {
		task, err := r.Create(ctx, ownerA, "", "Buy milk")
		require.NoError(t, err)
		assert.NotEmpty(t, task.ID)
		assert.Equal(t, ownerA, task.OwnerID)
		assert.False(t, task.Completed)
		assert.Nil(t, task.CompletedAt)
		assert.False(t, task.CreatedAt.IsZero())
	})

	t.Run("create accepts client id", func(t *testing.T) {
		id := uuid.NewString()
		task, err := r.Create(ctx, ownerA, id, "Walk dog")
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)

		_, err = r.Create(ctx, ownerB, id, "Steal id")
		assert.ErrorIs(t, err, ErrorConflict)
	})

	t.Run("toggle keeps completed_at in step", func(t *testing.T) {
		task, err := r.Create(ctx, ownerA, "", "Toggle me")
		require.NoError(t, err)

		at := time.Now().UTC().Truncate(time.Second)
		done, err := r.Update(ctx, ownerA, task.ID, model.TaskPatch{Completed: ptr(true), CompletedAt: at})
		require.NoError(t, err)
		assert.True(t, done.Completed)
		require.NotNil(t, done.CompletedAt)
		assert.True(t, at.Equal(*done.CompletedAt))
		assert.Equal(t, "Toggle me", done.Description)

		undone, err := r.Update(ctx, ownerA, task.ID, model.TaskPatch{Completed: ptr(false)})
		require.NoError(t, err)
		assert.False(t, undone.Completed)
		assert.Nil(t, undone.CompletedAt)
	})

	t.Run("edit and save", func(t *testing.T) {
		task, err := r.Create(ctx, ownerA, "", "Draft")
		require.NoError(t, err)

		editing, err := r.Update(ctx, ownerA, task.ID, model.TaskPatch{Editing: ptr(true)})
		require.NoError(t, err)
		assert.True(t, editing.Editing)

		saved, err := r.Update(ctx, ownerA, task.ID, model.TaskPatch{Description: ptr("Final"), Editing: ptr(false)})
		require.NoError(t, err)
		assert.Equal(t, "Final", saved.Description)
		assert.False(t, saved.Editing)
	})

	t.Run("owner isolation", func(t *testing.T) {
		task, err := r.Create(ctx, ownerB, "", "Private")
		require.NoError(t, err)

		_, err = r.Update(ctx, ownerA, task.ID, model.TaskPatch{Description: ptr("Hijacked")})
		assert.ErrorIs(t, err, ErrorNotFound)
		assert.ErrorIs(t, r.Delete(ctx, ownerA, task.ID), ErrorNotFound)

		tasks, err := r.ListForOwner(ctx, ownerB)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Private", tasks[0].Description)

		for _, a := range mustList(t, r, ownerA) {
			assert.NotEqual(t, task.ID, a.ID)
		}
	})

	t.Run("delete", func(t *testing.T) {
		task, err := r.Create(ctx, ownerA, "", "Short lived")
		require.NoError(t, err)

		require.NoError(t, r.Delete(ctx, ownerA, task.ID))
		assert.ErrorIs(t, r.Delete(ctx, ownerA, task.ID), ErrorNotFound)
	})

	t.Run("clear completed then delete all", func(t *testing.T) {
		before := mustList(t, r, ownerA)
		completed := 0
		for _, task := range before {
			if task.Completed {
				completed++
			}
		}

		extra, err := r.Create(ctx, ownerA, "", "Finished")
		require.NoError(t, err)
		_, err = r.Update(ctx, ownerA, extra.ID, model.TaskPatch{Completed: ptr(true), CompletedAt: time.Now()})
		require.NoError(t, err)

		cleared, err := r.ClearCompleted(ctx, ownerA)
		require.NoError(t, err)
		assert.Len(t, cleared, completed+1)
		for _, task := range mustList(t, r, ownerA) {
			assert.False(t, task.Completed)
		}

		remaining := len(mustList(t, r, ownerA))
		deleted, err := r.DeleteAll(ctx, ownerA)
		require.NoError(t, err)
		assert.Len(t, deleted, remaining)
		assert.Empty(t, mustList(t, r, ownerA))

		assert.Len(t, mustList(t, r, ownerB), 1, "other owner untouched")
	})
}

func mustList(t *testing.T, r TaskRepository, ownerID string) []model.Task {
	t.Helper()
	tasks, err := r.ListForOwner(context.Background(), ownerID)
	require.NoError(t, err)
	return tasks
}

func runUserRepoContract(t *testing.T, r UserRepository) {
	ctx := context.Background()

	u, err := r.CreateWithCredential(ctx,
		model.User{Name: "Ada", Email: " Ada@Example.com "},
		model.Credential{Hash: "h", Salt: "s"},
	)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)

	exists, err := r.EmailExists(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	found, cred, err := r.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, "h", cred.Hash)
	assert.Equal(t, "s", cred.Salt)

	byID, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)

	_, err = r.CreateWithCredential(ctx, model.User{Name: "Ada 2", Email: "ada@example.com"}, model.Credential{Hash: "x", Salt: "y"})
	assert.ErrorIs(t, err, ErrorConflict)

	_, _, err = r.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrorNotFound)
	_, err = r.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrorNotFound)
}

func runSessionRepoContract(t *testing.T, r SessionRepository) {
	ctx := context.Background()
	now := time.Now()

	live, err := r.Create(ctx, model.SessionData{OwnerID: "owner-1"}, now.Add(time.Hour))
	require.NoError(t, err)
	stale, err := r.Create(ctx, model.SessionData{OwnerID: "owner-2"}, now.Add(-time.Minute))
	require.NoError(t, err)

	data, err := r.Get(ctx, live, now)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", data.OwnerID)

	_, err = r.Get(ctx, stale, now)
	assert.ErrorIs(t, err, ErrorNotFound, "expired sessions are not readable")

	n, err := r.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, r.Delete(ctx, live))
	_, err = r.Get(ctx, live, now)
	assert.ErrorIs(t, err, ErrorNotFound)
	assert.NoError(t, r.Delete(ctx, live), "deleting a missing session is not an error")
}
