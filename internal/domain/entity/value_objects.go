package entity

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ValidationError reports a single field that failed value-object construction.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Name is a validated, non-empty display name.
type Name struct{ value string }

func NewName(raw string) (Name, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Name{}, invalid("name", "must not be empty")
	}
	return Name{value: raw}, nil
}

func (n Name) String() string { return n.value }

// Address is a validated, non-empty postal address.
type Address struct{ value string }

func NewAddress(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{}, invalid("address", "must not be empty")
	}
	return Address{value: raw}, nil
}

func (a Address) String() string { return a.value }

// Phone is a validated, non-empty phone number.
type Phone struct{ value string }

func NewPhone(raw string) (Phone, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Phone{}, invalid("phone", "must not be empty")
	}
	return Phone{value: raw}, nil
}

func (p Phone) String() string { return p.value }

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email is a validated email address.
type Email struct{ value string }

func NewEmail(raw string) (Email, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Email{}, invalid("email", "must not be empty")
	}
	if !emailPattern.MatchString(raw) {
		return Email{}, invalid("email", "is not a valid email address")
	}
	return Email{value: raw}, nil
}

func (e Email) String() string { return e.value }

// Role is one of the closed set of role tags.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser, RoleAdmin:
		return Role(raw), nil
	}
	return "", invalid("roles", fmt.Sprintf("unknown role %q", raw))
}

// ParseRoles parses a role list and rejects an empty result.
func ParseRoles(raw []string) ([]Role, error) {
	if len(raw) == 0 {
		return nil, invalid("roles", "must not be empty")
	}
	roles := make([]Role, 0, len(raw))
	for _, r := range raw {
		role, err := ParseRole(r)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Version is the aggregate's optimistic-concurrency counter.
type Version int

func NewVersion(raw int) (Version, error) {
	if raw < 0 {
		return 0, invalid("version", "must not be negative")
	}
	return Version(raw), nil
}

func (v Version) Int() int { return int(v) }

// Next returns the version a successful conditional write advances to.
func (v Version) Next() Version { return v + 1 }

// Password is a one-way hashed credential. The raw value is unrecoverable
// after construction and never serialized.
type Password struct{ hash string }

// NewPassword hashes a raw password with bcrypt.
func NewPassword(raw string) (Password, error) {
	if raw == "" {
		return Password{}, invalid("password", "must not be empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return Password{}, err
	}
	return Password{hash: string(b)}, nil
}

// PasswordFromHash wraps an already-hashed credential loaded from the store.
func PasswordFromHash(hash string) Password {
	return Password{hash: hash}
}

// Matches compares a raw password against the stored hash.
// A mismatch is a false return, never an error.
func (p Password) Matches(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.hash), []byte(raw)) == nil
}

// Hash exposes the stored hash for persistence only.
func (p Password) Hash() string { return p.hash }
