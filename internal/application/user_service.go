package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
	"github.com/sobhankiani/shopc-user-service/internal/domain/repository"
	"github.com/sobhankiani/shopc-user-service/pkg/helpers"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("email or password is not correct")
	ErrEmailTaken         = errors.New("email already registered")
	ErrVersionConflict    = errors.New("user was modified concurrently")
	ErrInvalidToken       = errors.New("token is not valid")
	ErrForbidden          = errors.New("insufficient roles")
)

// Service orchestrates every user command: load the aggregate, mutate it in
// memory, persist conditionally, and hand the mutated aggregate back to the
// caller. A version conflict fails the command; retrying is the caller's
// decision, never this layer's.
type Service struct {
	Repo   repository.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
}

func NewService(repo repository.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger) *Service {
	return &Service{Repo: repo, JWT: jwt, Logger: logger}
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Phone    string
}

// SignUp creates a fresh aggregate at version 0 with the USER role and an
// active account, then issues its first token.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*entity.User, string, error) {
	u, err := entity.New(uuid.NewString(), in.Name, in.Email, in.Password, in.Address, in.Phone, []string{string(entity.RoleUser)})
	if err != nil {
		return nil, "", err
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}
	token, err := u.IssueToken(s.JWT)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID()).Error("token signing failed")
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return u, token, nil
}

// Login is read-only: it verifies the password and issues a token. A missing
// account and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if !u.VerifyPassword(password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := u.IssueToken(s.JWT)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID()).Error("token signing failed")
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return u, token, nil
}

// Update merges the provided fields into the aggregate and persists with the
// version read here as the precondition.
func (s *Service) Update(ctx context.Context, id string, fields entity.UpdateFields) (*entity.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.ApplyUpdate(fields); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the record by id, no version precondition.
func (s *Service) Delete(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return u, nil
}

// ToggleActivation flips the activation flag.
func (s *Service) ToggleActivation(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	u.ToggleActive()
	if err := s.persist(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Verify checks the token signature, loads the aggregate it names, and when a
// required-role set is supplied, authorizes only if the aggregate's roles
// intersect it. An empty required set means authentication only.
func (s *Service) Verify(ctx context.Context, token string, requiredRoles []string) (*entity.User, error) {
	claims, err := s.JWT.Verify(token)
	if err != nil || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	u, err := s.load(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if len(requiredRoles) > 0 {
		roles, err := entity.ParseRoles(requiredRoles)
		if err != nil {
			return nil, err
		}
		if !u.HasAnyRole(roles...) {
			return nil, ErrForbidden
		}
	}
	return u, nil
}

// GrantAdmin adds the ADMIN role; granting twice does not duplicate it.
func (s *Service) GrantAdmin(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	u.GrantAdmin()
	if err := s.persist(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RevokeAdmin resets the role set to exactly {USER}.
func (s *Service) RevokeAdmin(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	u.RevokeAdmin()
	if err := s.persist(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) load(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *Service) persist(ctx context.Context, u *entity.User) error {
	err := s.Repo.Update(ctx, u)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrConflict):
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID(), "version": u.Version().Int()}).Warn("stale write rejected")
		return ErrVersionConflict
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	default:
		return fmt.Errorf("persist user: %w", err)
	}
}
