package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
	"github.com/sobhankiani/shopc-user-service/internal/domain/repository"
)

func seedUser(t *testing.T, repo *UserRepository) *entity.User {
	t.Helper()
	u, err := entity.New("id-1", "Sobhan", "s@x.com", "p4ssword", "addr", "111", []string{"USER"})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestCreateAndGet(t *testing.T) {
	repo := NewUserRepository()
	seedUser(t, repo)

	byID, err := repo.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, "s@x.com", byID.Email())

	byEmail, err := repo.GetByEmail(context.Background(), "s@x.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", byEmail.ID())

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := NewUserRepository()
	seedUser(t, repo)

	dup, err := entity.New("id-2", "Other", "s@x.com", "p4ssword", "addr", "222", []string{"USER"})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(context.Background(), dup), repository.ErrDuplicateEmail)
}

func TestUpdateAdvancesVersion(t *testing.T) {
	repo := NewUserRepository()
	u := seedUser(t, repo)

	name := "Renamed"
	require.NoError(t, u.ApplyUpdate(entity.UpdateFields{Name: &name}))
	require.NoError(t, repo.Update(context.Background(), u))

	assert.Equal(t, 1, u.Version().Int(), "in-memory version advances with the row")

	stored, err := repo.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version().Int())
	assert.Equal(t, "Renamed", stored.Name())
}

func TestUpdateConflictOnStaleVersion(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	seedUser(t, repo)

	// two writers read version 0
	first, err := repo.GetByID(ctx, "id-1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "id-1")
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, first))

	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 0, second.Version().Int(), "version is never advanced on a failed write")

	stored, err := repo.GetByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version().Int(), "exactly one increment, never two")
}

func TestUpdateMissingUser(t *testing.T) {
	repo := NewUserRepository()
	u, err := entity.New("ghost", "Ghost", "g@x.com", "p4ssword", "addr", "111", []string{"USER"})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Update(context.Background(), u), repository.ErrNotFound)
}

func TestUpdateReleasesOldEmail(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	u := seedUser(t, repo)

	email := "new@x.com"
	require.NoError(t, u.ApplyUpdate(entity.UpdateFields{Email: &email}))
	require.NoError(t, repo.Update(ctx, u))

	_, err := repo.GetByEmail(ctx, "s@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	again, err := repo.GetByEmail(ctx, "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", again.ID())
}

func TestDelete(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	seedUser(t, repo)

	deleted, err := repo.Delete(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "s@x.com", deleted.Email())

	_, err = repo.GetByID(ctx, "id-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Delete(ctx, "id-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
