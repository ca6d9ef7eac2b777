package repository

import (
	"context"
	"errors"

	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
)

var (
	// ErrNotFound means no record exists for the given id or email.
	ErrNotFound = errors.New("user not found")
	// ErrConflict means the version precondition failed: another writer
	// persisted a newer version between this caller's read and write.
	ErrConflict = errors.New("version conflict")
	// ErrDuplicateEmail means the store's email uniqueness constraint fired.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnavailable wraps infrastructure-level storage failures.
	ErrUnavailable = errors.New("storage unavailable")
)

// UserRepository persists the user aggregate. Update is a compare-and-swap:
// it only applies when the stored version equals the aggregate's in-memory
// version, and advances both by one on success. Delete is by id alone, with
// no version precondition.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) (*entity.User, error)
}
