package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/sobhankiani/shopc-user-service/internal/application"
	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
	"github.com/sobhankiani/shopc-user-service/internal/domain/event"
	"github.com/sobhankiani/shopc-user-service/pkg/response"
	"github.com/sobhankiani/shopc-user-service/pkg/validation"
)

// CommandHandler is the RPC surface of the user-management service: one named
// command per route, a uniform response envelope, and exactly one domain
// event published per successful mutation.
type CommandHandler struct {
	Svc    *userapp.Service
	Events userapp.EventPublisher
	Logger *logrus.Logger
}

func NewCommandHandler(svc *userapp.Service, events userapp.EventPublisher, logger *logrus.Logger) *CommandHandler {
	return &CommandHandler{Svc: svc, Events: events, Logger: logger}
}

// Register wires every command route under the given group.
func (h *CommandHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/rpc/USER_SIGN_UP", h.SignUp)
	rg.POST("/rpc/USER_LOGIN", h.Login)
	rg.POST("/rpc/USER_UPDATE", h.Update)
	rg.POST("/rpc/USER_DELETE", h.Delete)
	rg.POST("/rpc/USER_TOGGLE_ACTIVATION", h.ToggleActivation)
	rg.POST("/rpc/USER_VERIFY", h.Verify)
	rg.POST("/rpc/USER_MAKE_ADMIN", h.MakeAdmin)
	rg.POST("/rpc/USER_REMOVE_ADMIN_ROLE", h.RemoveAdminRole)
}

// AuthData couples a public record with its freshly issued token.
type AuthData struct {
	Token string            `json:"token"`
	User  entity.PublicUser `json:"user"`
}

type signUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Address  string `json:"address" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateData struct {
	Name     *string   `json:"name"`
	Email    *string   `json:"email"`
	Password *string   `json:"password"`
	Address  *string   `json:"address"`
	Phone    *string   `json:"phone"`
	Roles    *[]string `json:"roles"`
	IsActive *bool     `json:"isActive"`
}

type updateRequest struct {
	ID         string     `json:"id" binding:"required"`
	UpdateData updateData `json:"updateData"`
}

type idRequest struct {
	ID string `json:"id" binding:"required"`
}

type verifyRequest struct {
	Token string   `json:"token" binding:"required"`
	Roles []string `json:"roles"`
}

func (h *CommandHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, response.Fail[AuthData](http.StatusBadRequest, "Could Not Complete The Operation", validation.ToMessages(err)...))
		return
	}
	u, token, err := h.Svc.SignUp(c.Request.Context(), userapp.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Phone:    req.Phone,
	})
	if err != nil {
		fail[AuthData](c, h.Logger, err)
		return
	}
	h.publish(c, event.NewUserCreated(u))
	reply(c, response.Created("Sign Up Completed", AuthData{Token: token, User: u.PublicRecord()}))
}

func (h *CommandHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, response.Fail[AuthData](http.StatusBadRequest, "Could Not Complete The Operation", validation.ToMessages(err)...))
		return
	}
	u, token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail[AuthData](c, h.Logger, err)
		return
	}
	reply(c, response.Ok("Login Completed", AuthData{Token: token, User: u.PublicRecord()}))
}

func (h *CommandHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, response.Fail[entity.PublicUser](http.StatusBadRequest, "Could Not Complete The Operation", validation.ToMessages(err)...))
		return
	}
	u, err := h.Svc.Update(c.Request.Context(), req.ID, entity.UpdateFields{
		Name:     req.UpdateData.Name,
		Email:    req.UpdateData.Email,
		Password: req.UpdateData.Password,
		Address:  req.UpdateData.Address,
		Phone:    req.UpdateData.Phone,
		Roles:    req.UpdateData.Roles,
		IsActive: req.UpdateData.IsActive,
	})
	if err != nil {
		fail[entity.PublicUser](c, h.Logger, err)
		return
	}
	h.publish(c, event.NewUserUpdated(u))
	reply(c, response.Ok("Update Completed", u.PublicRecord()))
}

func (h *CommandHandler) Delete(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, response.Fail[entity.PublicUser](http.StatusBadRequest, "Could Not Complete The Operation", validation.ToMessages(err)...))
		return
	}
	u, err := h.Svc.Delete(c.Request.Context(), req.ID)
	if err != nil {
		fail[entity.PublicUser](c, h.Logger, err)
		return
	}
	h.publish(c, event.NewUserDeleted(u))
	reply(c, response.Ok("Delete Completed", u.PublicRecord()))
}

func (h *CommandHandler) ToggleActivation(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, response.Fail[entity.PublicUser](http.StatusBadRequest, "Could Not Complete The Operation", validation.ToMessages(err)...))
		return
	}
	u, err := h.Svc.ToggleActivation(c.Request.Context(), req.ID)
	if err != nil {
		fail[entity.PublicUser](c, h.Logger, err)
		return
	}
	h.publish(c, event.NewActivationToggled(u))
	reply(c, response.Ok("Toggle Activation Completed", u.PublicRecord()))
}

func (h *CommandHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, response.Fail[entity.PublicUser](http.StatusBadRequest, "Could Not Complete The Operation", validation.ToMessages(err)...))
		return
	}
	u, err := h.Svc.Verify(c.Request.Context(), req.Token, req.Roles)
	if err != nil {
		fail[entity.PublicUser](c, h.Logger, err)
		return
	}
	reply(c, response.Ok("Verification Completed", u.PublicRecord()))
}

func (h *CommandHandler) MakeAdmin(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, response.Fail[entity.PublicUser](http.StatusBadRequest, "Could Not Complete The Operation", validation.ToMessages(err)...))
		return
	}
	u, err := h.Svc.GrantAdmin(c.Request.Context(), req.ID)
	if err != nil {
		fail[entity.PublicUser](c, h.Logger, err)
		return
	}
	h.publish(c, event.NewUserToAdmin(u))
	reply(c, response.Ok("Make Admin Completed", u.PublicRecord()))
}

func (h *CommandHandler) RemoveAdminRole(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, response.Fail[entity.PublicUser](http.StatusBadRequest, "Could Not Complete The Operation", validation.ToMessages(err)...))
		return
	}
	u, err := h.Svc.RevokeAdmin(c.Request.Context(), req.ID)
	if err != nil {
		fail[entity.PublicUser](c, h.Logger, err)
		return
	}
	h.publish(c, event.NewAdminToUser(u))
	reply(c, response.Ok("Remove Admin Role Completed", u.PublicRecord()))
}

// reply mirrors the envelope's status on the HTTP layer.
func reply[T any](c *gin.Context, env response.Envelope[T]) {
	c.JSON(env.Status, env)
}

// fail translates a service error into the envelope taxonomy. Conflicts and
// infrastructure failures stay generic on the wire; the detail is logged.
func fail[T any](c *gin.Context, logger *logrus.Logger, err error) {
	status := http.StatusBadRequest
	msg := "Could Not Complete The Operation"
	errText := err.Error()

	var verr *entity.ValidationError
	switch {
	case errors.As(err, &verr):
		// keep 400
	case errors.Is(err, userapp.ErrUserNotFound):
		status = http.StatusNotFound
		msg = "User Not Found"
	case errors.Is(err, userapp.ErrInvalidCredentials):
		msg = "Email Or Password Is Not Correct"
	case errors.Is(err, userapp.ErrEmailTaken):
		msg = "Email Already Registered"
	case errors.Is(err, userapp.ErrInvalidToken):
		status = http.StatusUnauthorized
		msg = "Not Authenticated"
	case errors.Is(err, userapp.ErrForbidden):
		status = http.StatusForbidden
		msg = "Not Authorized"
	case errors.Is(err, userapp.ErrVersionConflict):
		// surfaced as a generic failure; the caller may re-read and retry
		errText = msg
	default:
		logger.WithError(err).WithField("path", c.FullPath()).Error("command failed")
		errText = msg
	}

	reply(c, response.Fail[T](status, msg, errText))
}

func (h *CommandHandler) publish(c *gin.Context, ev event.Event) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Publish(c.Request.Context(), ev); err != nil {
		h.Logger.WithError(err).WithField("subject", string(ev.Subject)).Warn("event publish failed")
	}
}
