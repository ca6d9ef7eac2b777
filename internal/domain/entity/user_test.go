package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T) *User {
	t.Helper()
	u, err := New("id-1", "Sobhan", "s@x.com", "p4ssword", "some street 1", "111222333", []string{"USER"})
	require.NoError(t, err)
	return u
}

func TestNewUser(t *testing.T) {
	u := newTestUser(t)
	assert.Equal(t, "id-1", u.ID())
	assert.Equal(t, 0, u.Version().Int())
	assert.True(t, u.IsActive())
	assert.Equal(t, []string{"USER"}, u.RoleStrings())
	assert.True(t, u.VerifyPassword("p4ssword"))
	assert.False(t, u.VerifyPassword("other"))
}

func TestNewUserValidation(t *testing.T) {
	_, err := New("id-1", "", "s@x.com", "p4ssword", "addr", "111", []string{"USER"})
	assert.Error(t, err)

	_, err = New("id-1", "Sobhan", "bad-email", "p4ssword", "addr", "111", []string{"USER"})
	assert.Error(t, err)

	_, err = New("", "Sobhan", "s@x.com", "p4ssword", "addr", "111", []string{"USER"})
	assert.Error(t, err)

	_, err = New("id-1", "Sobhan", "s@x.com", "", "addr", "111", []string{"USER"})
	assert.Error(t, err, "empty password is rejected at creation")
}

func TestApplyUpdateMergesOnlyProvidedFields(t *testing.T) {
	u := newTestUser(t)

	name := "New Name"
	err := u.ApplyUpdate(UpdateFields{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "New Name", u.Name())
	assert.Equal(t, "s@x.com", u.Email(), "absent fields stay untouched")
	assert.Equal(t, "some street 1", u.Address())
	assert.Equal(t, 0, u.Version().Int(), "version is only advanced by the store")
}

func TestApplyUpdateRejectsInvalidField(t *testing.T) {
	u := newTestUser(t)

	bad := "not-an-email"
	err := u.ApplyUpdate(UpdateFields{Email: &bad})
	assert.Error(t, err)
	assert.Equal(t, "s@x.com", u.Email())
}

func TestApplyUpdatePassword(t *testing.T) {
	u := newTestUser(t)

	next := "new-password"
	require.NoError(t, u.ApplyUpdate(UpdateFields{Password: &next}))
	assert.True(t, u.VerifyPassword("new-password"))
	assert.False(t, u.VerifyPassword("p4ssword"))
}

func TestGrantAdminIsIdempotent(t *testing.T) {
	u := newTestUser(t)

	u.GrantAdmin()
	u.GrantAdmin()

	count := 0
	for _, r := range u.Roles() {
		if r == RoleAdmin {
			count++
		}
	}
	assert.Equal(t, 1, count, "granting twice must not duplicate")
	assert.True(t, u.HasAnyRole(RoleAdmin))
}

func TestRevokeAdminResetsToUserOnly(t *testing.T) {
	u, err := Rehydrate("id-1", "Sobhan", "s@x.com", "hash", "addr", "111", []string{"USER", "ADMIN"}, true, 3)
	require.NoError(t, err)

	u.RevokeAdmin()
	assert.Equal(t, []Role{RoleUser}, u.Roles(), "reset drops everything but USER")
}

func TestToggleActiveTwiceRestores(t *testing.T) {
	u := newTestUser(t)

	assert.False(t, u.ToggleActive())
	assert.True(t, u.ToggleActive())
	assert.True(t, u.IsActive())
}

func TestHasAnyRole(t *testing.T) {
	u := newTestUser(t)
	assert.True(t, u.HasAnyRole(RoleUser, RoleAdmin))
	assert.False(t, u.HasAnyRole(RoleAdmin))
}

func TestPublicRecordNeverContainsPassword(t *testing.T) {
	u := newTestUser(t)

	rec := u.PublicRecord()
	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var asMap map[string]any
	require.NoError(t, json.Unmarshal(b, &asMap))
	assert.NotContains(t, asMap, "password")
	assert.NotContains(t, asMap, "passwordHash")
	assert.Equal(t, "id-1", asMap["id"])
}

func TestIncrementVersion(t *testing.T) {
	u := newTestUser(t)
	u.IncrementVersion()
	u.IncrementVersion()
	assert.Equal(t, 2, u.Version().Int())
}

func TestRehydrateRejectsCorruptRecord(t *testing.T) {
	_, err := Rehydrate("id-1", "Sobhan", "s@x.com", "hash", "addr", "111", nil, true, 0)
	assert.Error(t, err, "empty role set is invalid even from the store")

	_, err = Rehydrate("id-1", "Sobhan", "s@x.com", "hash", "addr", "111", []string{"USER"}, true, -2)
	assert.Error(t, err)
}
