package application

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
	"github.com/sobhankiani/shopc-user-service/internal/domain/repository"
	"github.com/sobhankiani/shopc-user-service/internal/infrastructure/memory"
	"github.com/sobhankiani/shopc-user-service/pkg/helpers"
)

func newTestService() (*Service, *memory.UserRepository) {
	repo := memory.NewUserRepository()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	return NewService(repo, jwt, logger), repo
}

func signUp(t *testing.T, svc *Service, email string) *entity.User {
	t.Helper()
	u, token, err := svc.SignUp(context.Background(), SignUpInput{
		Name:     "A",
		Email:    email,
		Password: "p4ssword",
		Address:  "addr",
		Phone:    "111",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return u
}

func TestSignUp(t *testing.T) {
	svc, _ := newTestService()
	u := signUp(t, svc, "a@x.com")

	assert.NotEmpty(t, u.ID())
	assert.Equal(t, 0, u.Version().Int())
	assert.True(t, u.IsActive())
	assert.Equal(t, []string{"USER"}, u.RoleStrings())
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	signUp(t, svc, "a@x.com")

	_, _, err := svc.SignUp(context.Background(), SignUpInput{
		Name: "B", Email: "a@x.com", Password: "p4ssword", Address: "addr", Phone: "222",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.SignUp(context.Background(), SignUpInput{
		Name: "A", Email: "nope", Password: "p4ssword", Address: "addr", Phone: "111",
	})
	var verr *entity.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	created := signUp(t, svc, "a@x.com")

	u, token, err := svc.Login(context.Background(), "a@x.com", "p4ssword")
	require.NoError(t, err)
	assert.Equal(t, created.ID(), u.ID())
	assert.NotEmpty(t, token)
	assert.Equal(t, 0, u.Version().Int(), "login is read-only")
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestService()
	signUp(t, svc, "a@x.com")

	_, _, err := svc.Login(context.Background(), "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "missing@x.com", "p4ssword")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email is indistinguishable from a bad password")
}

func TestUpdateMergesAndBumpsVersion(t *testing.T) {
	svc, _ := newTestService()
	created := signUp(t, svc, "a@x.com")

	name := "Renamed"
	u, err := svc.Update(context.Background(), created.ID(), entity.UpdateFields{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", u.Name())
	assert.Equal(t, "a@x.com", u.Email())
	assert.Equal(t, 1, u.Version().Int())
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := newTestService()
	name := "X"
	_, err := svc.Update(context.Background(), "missing", entity.UpdateFields{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// staleReads hands every load the same pre-read aggregate, simulating a
// second writer that raced ahead between this command's read and write.
type staleReads struct {
	repository.UserRepository
	stale *entity.User
}

func (r *staleReads) GetByID(context.Context, string) (*entity.User, error) {
	return r.stale, nil
}

func TestUpdateConflict(t *testing.T) {
	svc, repo := newTestService()
	created := signUp(t, svc, "a@x.com")

	stale, err := repo.GetByID(context.Background(), created.ID())
	require.NoError(t, err)

	// another actor moves the store to version 1
	name := "First Writer"
	_, err = svc.Update(context.Background(), created.ID(), entity.UpdateFields{Name: &name})
	require.NoError(t, err)

	staleSvc := NewService(&staleReads{UserRepository: repo, stale: stale}, svc.JWT, svc.Logger)
	other := "Second Writer"
	_, err = staleSvc.Update(context.Background(), created.ID(), entity.UpdateFields{Name: &other})
	assert.ErrorIs(t, err, ErrVersionConflict)

	current, err := repo.GetByID(context.Background(), created.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version().Int())
	assert.Equal(t, "First Writer", current.Name())
}

func TestConcurrentTogglesNeverSkipVersions(t *testing.T) {
	svc, repo := newTestService()
	created := signUp(t, svc, "a@x.com")

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ToggleActivation(context.Background(), created.ID())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			assert.ErrorIs(t, err, ErrVersionConflict)
		}
	}
	require.Greater(t, successes, 0)

	current, err := repo.GetByID(context.Background(), created.ID())
	require.NoError(t, err)
	assert.Equal(t, successes, current.Version().Int(), "one increment per successful write, none lost or doubled")
}

func TestToggleActivation(t *testing.T) {
	svc, _ := newTestService()
	created := signUp(t, svc, "a@x.com")

	u, err := svc.ToggleActivation(context.Background(), created.ID())
	require.NoError(t, err)
	assert.False(t, u.IsActive())
	assert.Equal(t, 1, u.Version().Int())

	u, err = svc.ToggleActivation(context.Background(), created.ID())
	require.NoError(t, err)
	assert.True(t, u.IsActive(), "toggling twice restores the original flag")
	assert.Equal(t, 2, u.Version().Int())
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService()
	created := signUp(t, svc, "a@x.com")

	u, err := svc.Delete(context.Background(), created.ID())
	require.NoError(t, err)
	assert.Equal(t, created.ID(), u.ID())

	_, err = repo.GetByID(context.Background(), created.ID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteNotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGrantAndRevokeAdmin(t *testing.T) {
	svc, _ := newTestService()
	created := signUp(t, svc, "a@x.com")

	u, err := svc.GrantAdmin(context.Background(), created.ID())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"USER", "ADMIN"}, u.RoleStrings())
	assert.Equal(t, 1, u.Version().Int())

	u, err = svc.GrantAdmin(context.Background(), created.ID())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"USER", "ADMIN"}, u.RoleStrings(), "second grant does not duplicate")
	assert.Equal(t, 2, u.Version().Int())

	u, err = svc.RevokeAdmin(context.Background(), created.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"USER"}, u.RoleStrings())
	assert.Equal(t, 3, u.Version().Int())
}

func TestVerify(t *testing.T) {
	svc, _ := newTestService()
	created := signUp(t, svc, "a@x.com")
	token, err := created.IssueToken(svc.JWT)
	require.NoError(t, err)

	u, err := svc.Verify(context.Background(), token, nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID(), u.ID())

	_, err = svc.Verify(context.Background(), "garbage-token", nil)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiredRoles(t *testing.T) {
	svc, _ := newTestService()
	created := signUp(t, svc, "a@x.com")
	token, err := created.IssueToken(svc.JWT)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token, []string{"ADMIN"})
	assert.ErrorIs(t, err, ErrForbidden, "authorization failure, not a missing user")

	_, err = svc.GrantAdmin(context.Background(), created.ID())
	require.NoError(t, err)

	u, err := svc.Verify(context.Background(), token, []string{"ADMIN"})
	require.NoError(t, err)
	assert.True(t, u.HasAnyRole(entity.RoleAdmin))
}

func TestVerifyDeletedUser(t *testing.T) {
	svc, _ := newTestService()
	created := signUp(t, svc, "a@x.com")
	token, err := created.IssueToken(svc.JWT)
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), created.ID())
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
