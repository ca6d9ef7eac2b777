package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
	"github.com/sobhankiani/shopc-user-service/internal/domain/repository"
)

const uniqueViolation = "23505"

// UserRepository is the pgx-backed aggregate store. Every mutation except
// Delete is guarded by the version column: UPDATE ... WHERE id AND version,
// so concurrent writers cannot clobber each other.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, address, phone, roles, is_active, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID(), u.Name(), u.Email(), u.PasswordHash(), u.Address(), u.Phone(), u.RoleStrings(), u.IsActive(), u.Version().Int())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, address, phone, roles, is_active, version
		FROM users
		WHERE `+column+` = $1
	`, value)
	return scanUser(row)
}

// Update performs the conditional write. Zero rows affected means the stored
// version moved on under us; a probe on the id distinguishes a stale version
// from a deleted record. On success the in-memory version is advanced to
// match the persisted row.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, address = $4, phone = $5,
		    roles = $6, is_active = $7, version = version + 1, updated_at = now()
		WHERE id = $8 AND version = $9
	`, u.Name(), u.Email(), u.PasswordHash(), u.Address(), u.Phone(),
		u.RoleStrings(), u.IsActive(), u.ID(), u.Version().Int())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	if res.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, u.ID()).Scan(&exists); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	u.IncrementVersion()
	return nil
}

// Delete removes the record by id alone; deletion is last-writer-wins and
// carries no version precondition. Returns the deleted aggregate.
func (r *UserRepository) Delete(ctx context.Context, id string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM users
		WHERE id = $1
		RETURNING id, name, email, password_hash, address, phone, roles, is_active, version
	`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		id, name, email, hash, address, phone string
		roles                                 []string
		isActive                              bool
		version                               int
	)
	if err := row.Scan(&id, &name, &email, &hash, &address, &phone, &roles, &isActive, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	u, err := entity.Rehydrate(id, name, email, hash, address, phone, roles, isActive, version)
	if err != nil {
		return nil, fmt.Errorf("corrupt user record %s: %w", id, err)
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
