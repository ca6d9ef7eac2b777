package entity

// User is the aggregate root of the user domain. All fields are validated
// value objects; the zero value is not a usable aggregate, construct via
// New or Rehydrate.
type User struct {
	id       string
	name     Name
	email    Email
	password Password
	address  Address
	phone    Phone
	roles    []Role
	isActive bool
	version  Version
}

// TokenSigner signs an identity payload into an opaque bearer token.
type TokenSigner interface {
	Sign(id, email string) (string, error)
}

// PublicUser is the externally safe projection of the aggregate.
// It never carries the password, in any form.
type PublicUser struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Phone    string   `json:"phone"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	IsActive bool     `json:"isActive"`
	Version  int      `json:"version"`
}

// New validates every field and builds a fresh aggregate at version 0.
// The raw password is hashed during construction; a nil-equivalent (empty)
// password is rejected.
func New(id, name, email, rawPassword, address, phone string, roles []string) (*User, error) {
	pwd, err := NewPassword(rawPassword)
	if err != nil {
		return nil, err
	}
	return build(id, name, email, pwd, address, phone, roles, true, 0)
}

// Rehydrate rebuilds an aggregate from a stored record. The password arrives
// already hashed and the version is whatever the store last persisted.
func Rehydrate(id, name, email, passwordHash, address, phone string, roles []string, isActive bool, version int) (*User, error) {
	return build(id, name, email, PasswordFromHash(passwordHash), address, phone, roles, isActive, version)
}

func build(id, name, email string, pwd Password, address, phone string, roles []string, isActive bool, version int) (*User, error) {
	if id == "" {
		return nil, invalid("id", "must not be empty")
	}
	n, err := NewName(name)
	if err != nil {
		return nil, err
	}
	e, err := NewEmail(email)
	if err != nil {
		return nil, err
	}
	a, err := NewAddress(address)
	if err != nil {
		return nil, err
	}
	p, err := NewPhone(phone)
	if err != nil {
		return nil, err
	}
	rs, err := ParseRoles(roles)
	if err != nil {
		return nil, err
	}
	v, err := NewVersion(version)
	if err != nil {
		return nil, err
	}
	return &User{
		id:       id,
		name:     n,
		email:    e,
		password: pwd,
		address:  a,
		phone:    p,
		roles:    rs,
		isActive: isActive,
		version:  v,
	}, nil
}

func (u *User) ID() string        { return u.id }
func (u *User) Email() string     { return u.email.String() }
func (u *User) Name() string      { return u.name.String() }
func (u *User) Address() string   { return u.address.String() }
func (u *User) Phone() string     { return u.phone.String() }
func (u *User) IsActive() bool    { return u.isActive }
func (u *User) Version() Version  { return u.version }
func (u *User) PasswordHash() string { return u.password.Hash() }

// Roles returns a copy of the role set in insertion order.
func (u *User) Roles() []Role {
	out := make([]Role, len(u.roles))
	copy(out, u.roles)
	return out
}

// RoleStrings returns the roles as plain strings for serialization.
func (u *User) RoleStrings() []string {
	out := make([]string, len(u.roles))
	for i, r := range u.roles {
		out[i] = string(r)
	}
	return out
}

// UpdateFields carries a partial update. A nil field means "leave untouched";
// a non-nil field overwrites. This is a merge, not a replace.
type UpdateFields struct {
	Name     *string
	Email    *string
	Password *string
	Address  *string
	Phone    *string
	Roles    *[]string
	IsActive *bool
}

// ApplyUpdate overwrites only the provided fields, validating each through
// its value object. The version is untouched; only a successful conditional
// write advances it.
func (u *User) ApplyUpdate(f UpdateFields) error {
	if f.Name != nil {
		n, err := NewName(*f.Name)
		if err != nil {
			return err
		}
		u.name = n
	}
	if f.Email != nil {
		e, err := NewEmail(*f.Email)
		if err != nil {
			return err
		}
		u.email = e
	}
	if f.Password != nil {
		p, err := NewPassword(*f.Password)
		if err != nil {
			return err
		}
		u.password = p
	}
	if f.Address != nil {
		a, err := NewAddress(*f.Address)
		if err != nil {
			return err
		}
		u.address = a
	}
	if f.Phone != nil {
		p, err := NewPhone(*f.Phone)
		if err != nil {
			return err
		}
		u.phone = p
	}
	if f.Roles != nil {
		rs, err := ParseRoles(*f.Roles)
		if err != nil {
			return err
		}
		u.roles = rs
	}
	if f.IsActive != nil {
		u.isActive = *f.IsActive
	}
	return nil
}

// GrantAdmin adds the ADMIN role if absent. Granting twice is a no-op.
func (u *User) GrantAdmin() {
	if u.HasAnyRole(RoleAdmin) {
		return
	}
	u.roles = append(u.roles, RoleAdmin)
}

// RevokeAdmin resets the role set to exactly {USER}. Any extra roles are
// dropped; this is deliberate, not a plain removal.
func (u *User) RevokeAdmin() {
	u.roles = []Role{RoleUser}
}

// ToggleActive flips the activation flag and returns the new value.
func (u *User) ToggleActive() bool {
	u.isActive = !u.isActive
	return u.isActive
}

// VerifyPassword compares a raw password against the stored hash.
func (u *User) VerifyPassword(raw string) bool {
	return u.password.Matches(raw)
}

// IssueToken delegates to the token signer with the {id, email} payload.
func (u *User) IssueToken(signer TokenSigner) (string, error) {
	return signer.Sign(u.id, u.email.String())
}

// HasAnyRole reports whether the role set intersects the required set.
func (u *User) HasAnyRole(required ...Role) bool {
	for _, need := range required {
		for _, have := range u.roles {
			if have == need {
				return true
			}
		}
	}
	return false
}

// IncrementVersion advances the in-memory version after the store confirms
// a conditional write. Never called on a failed write.
func (u *User) IncrementVersion() {
	u.version = u.version.Next()
}

// PublicRecord produces the externally safe projection.
func (u *User) PublicRecord() PublicUser {
	return PublicUser{
		ID:       u.id,
		Name:     u.name.String(),
		Address:  u.address.String(),
		Phone:    u.phone.String(),
		Email:    u.email.String(),
		Roles:    u.RoleStrings(),
		IsActive: u.isActive,
		Version:  u.version.Int(),
	}
}
