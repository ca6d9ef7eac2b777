package memory

import (
	"context"
	"sync"

	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
	"github.com/sobhankiani/shopc-user-service/internal/domain/repository"
)

type record struct {
	id           string
	name         string
	email        string
	passwordHash string
	address      string
	phone        string
	roles        []string
	isActive     bool
	version      int
}

// UserRepository is an in-memory aggregate store with the same conditional
// write semantics as the Postgres implementation. Used in tests and for
// running the service without infrastructure.
type UserRepository struct {
	mu    sync.Mutex
	byID  map[string]*record
	email map[string]string // email -> id
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:  make(map[string]*record),
		email: make(map[string]string),
	}
}

func snapshot(u *entity.User) *record {
	return &record{
		id:           u.ID(),
		name:         u.Name(),
		email:        u.Email(),
		passwordHash: u.PasswordHash(),
		address:      u.Address(),
		phone:        u.Phone(),
		roles:        u.RoleStrings(),
		isActive:     u.IsActive(),
		version:      u.Version().Int(),
	}
}

func rehydrate(r *record) (*entity.User, error) {
	roles := make([]string, len(r.roles))
	copy(roles, r.roles)
	return entity.Rehydrate(r.id, r.name, r.email, r.passwordHash, r.address, r.phone, roles, r.isActive, r.version)
}

func (m *UserRepository) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.email[u.Email()]; taken {
		return repository.ErrDuplicateEmail
	}
	m.byID[u.ID()] = snapshot(u)
	m.email[u.Email()] = u.ID()
	return nil
}

func (m *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rehydrate(r)
}

func (m *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.email[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rehydrate(m.byID[id])
}

// Update applies the compare-and-swap: the write lands only if the stored
// version matches the aggregate's, then both advance by one.
func (m *UserRepository) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[u.ID()]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.version != u.Version().Int() {
		return repository.ErrConflict
	}
	if owner, taken := m.email[u.Email()]; taken && owner != u.ID() {
		return repository.ErrDuplicateEmail
	}
	next := snapshot(u)
	next.version = stored.version + 1
	delete(m.email, stored.email)
	m.byID[u.ID()] = next
	m.email[next.email] = u.ID()
	u.IncrementVersion()
	return nil
}

func (m *UserRepository) Delete(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.byID, id)
	delete(m.email, r.email)
	return rehydrate(r)
}

var _ repository.UserRepository = (*UserRepository)(nil)
