package user_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/mercury/internal/entity"
	"github.com/Additional-Code/mercury/internal/repository/user"
	"github.com/Additional-Code/mercury/internal/testsupport"
)

func newRepo(t *testing.T) *user.Repository {
	t.Helper()
	return user.NewRepository(testsupport.NewDB(t))
}

func TestCreateAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	u := &entity.User{Username: "alice", Email: "alice@example.com", Description: "first"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, "alice@example.com", got.Email)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
}

func TestGetMissing(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 42)
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = repo.GetByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := &entity.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, repo.Create(ctx, first))

	dup := &entity.User{Username: "impostor", Email: "alice@example.com"}
	err := repo.Create(ctx, dup)
	require.ErrorIs(t, err, user.ErrEmailTaken)

	// The original record is untouched.
	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
}

func TestListPagination(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u := &entity.User{
			Username: fmt.Sprintf("user%d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
		}
		require.NoError(t, repo.Create(ctx, u))
	}

	page1, total, err := repo.List(ctx, 2, 1, user.Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page1, 2)

	page2, total, err := repo.List(ctx, 2, 2, user.Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page2, 1)
}

func TestListFilter(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.User{Username: "alice", Email: "alice@example.com"}))
	require.NoError(t, repo.Create(ctx, &entity.User{Username: "bob", Email: "bob@example.com"}))

	users, total, err := repo.List(ctx, 10, 1, user.Filter{Username: "bob"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, users, 1)
	require.Equal(t, "bob", users[0].Username)
}

func TestUpdateByID(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	u := &entity.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, repo.Create(ctx, u))

	name := "alice2"
	updated, err := repo.UpdateByID(ctx, u.ID, user.Update{Username: &name})
	require.NoError(t, err)
	require.Equal(t, "alice2", updated.Username)
	require.Equal(t, "alice@example.com", updated.Email)

	_, err = repo.UpdateByID(ctx, 999, user.Update{Username: &name})
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestDeleteByID(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	u := &entity.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.DeleteByID(ctx, u.ID))

	_, err := repo.GetByID(ctx, u.ID)
	require.ErrorIs(t, err, user.ErrNotFound)

	require.ErrorIs(t, repo.DeleteByID(ctx, u.ID), user.ErrNotFound)
}
