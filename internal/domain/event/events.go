package event

import "github.com/sobhankiani/shopc-user-service/internal/domain/entity"

// Subject identifies a domain event on the bus. The set is closed; consumers
// match on the literal strings.
type Subject string

const (
	UserCreated   Subject = "User:Created"
	UserUpdated   Subject = "User:Updated"
	UserDeleted   Subject = "User:Deleted"
	UserDeactived Subject = "User:Deactived"
	UserActived   Subject = "User:Actived"
	UserToAdmin   Subject = "User:ToAdmin"
	AdminToUser   Subject = "Admin:ToUser"
)

// Event is the wire envelope published after a successful mutation.
type Event struct {
	Subject Subject `json:"subject"`
	Data    any     `json:"data"`
}

// UserData is the payload for Created/Updated/Deleted events.
type UserData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Version  int    `json:"version"`
	IsActive bool   `json:"isActive"`
}

// ActivationData is the payload for Actived/Deactived events.
type ActivationData struct {
	ID       string `json:"id"`
	IsActive bool   `json:"isActive"`
}

// RoleData is the payload for role-transition events.
type RoleData struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

func userData(u *entity.User) UserData {
	rec := u.PublicRecord()
	return UserData{
		ID:       rec.ID,
		Name:     rec.Name,
		Address:  rec.Address,
		Phone:    rec.Phone,
		Email:    rec.Email,
		Version:  rec.Version,
		IsActive: rec.IsActive,
	}
}

func NewUserCreated(u *entity.User) Event {
	return Event{Subject: UserCreated, Data: userData(u)}
}

func NewUserUpdated(u *entity.User) Event {
	return Event{Subject: UserUpdated, Data: userData(u)}
}

func NewUserDeleted(u *entity.User) Event {
	return Event{Subject: UserDeleted, Data: userData(u)}
}

// NewActivationToggled branches the subject on the post-toggle flag.
func NewActivationToggled(u *entity.User) Event {
	subject := UserDeactived
	if u.IsActive() {
		subject = UserActived
	}
	return Event{Subject: subject, Data: ActivationData{ID: u.ID(), IsActive: u.IsActive()}}
}

func NewUserToAdmin(u *entity.User) Event {
	return Event{Subject: UserToAdmin, Data: RoleData{ID: u.ID(), Version: u.Version().Int()}}
}

func NewAdminToUser(u *entity.User) Event {
	return Event{Subject: AdminToUser, Data: RoleData{ID: u.ID(), Version: u.Version().Int()}}
}
