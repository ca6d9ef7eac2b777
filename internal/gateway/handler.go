package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
	"github.com/sobhankiani/shopc-user-service/pkg/response"
	"github.com/sobhankiani/shopc-user-service/pkg/validation"
)

// Handler exposes the public user-management HTTP surface and relays each
// request to the corresponding named command.
type Handler struct {
	Client *Client
	Logger *logrus.Logger
}

func NewHandler(client *Client, logger *logrus.Logger) *Handler {
	return &Handler{Client: client, Logger: logger}
}

type signUpDTO struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Address  string `json:"address" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
}

type loginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateDTO struct {
	Name     *string `json:"name" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,pwd"`
	Address  *string `json:"address" binding:"omitempty,min=1"`
	Phone    *string `json:"phone" binding:"omitempty,min=1"`
}

func (h *Handler) SignUp(c *gin.Context) {
	var dto signUpDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		relay(c, response.Fail[AuthPayload](http.StatusBadRequest, "Invalid Request", validation.ToMessages(err)...))
		return
	}
	env, err := h.Client.SignUp(c.Request.Context(), dto.Name, dto.Email, dto.Password, dto.Address, dto.Phone)
	if err != nil {
		h.unreachable(c, err)
		return
	}
	relay(c, env)
}

func (h *Handler) Login(c *gin.Context) {
	var dto loginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		relay(c, response.Fail[AuthPayload](http.StatusBadRequest, "Invalid Request", validation.ToMessages(err)...))
		return
	}
	env, err := h.Client.Login(c.Request.Context(), dto.Email, dto.Password)
	if err != nil {
		h.unreachable(c, err)
		return
	}
	relay(c, env)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	user, _ := UserFrom(c)
	var dto updateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		relay(c, response.Fail[entity.PublicUser](http.StatusBadRequest, "Invalid Request", validation.ToMessages(err)...))
		return
	}
	env, err := h.Client.Update(c.Request.Context(), user.ID, UpdatePayload{
		Name:     dto.Name,
		Email:    dto.Email,
		Password: dto.Password,
		Address:  dto.Address,
		Phone:    dto.Phone,
	})
	if err != nil {
		h.unreachable(c, err)
		return
	}
	relay(c, env)
}

func (h *Handler) DeleteMe(c *gin.Context) {
	user, _ := UserFrom(c)
	env, err := h.Client.Delete(c.Request.Context(), user.ID)
	if err != nil {
		h.unreachable(c, err)
		return
	}
	relay(c, env)
}

// GetMe answers from the principal the auth guard already verified; there is
// no second round trip.
func (h *Handler) GetMe(c *gin.Context) {
	user, ok := UserFrom(c)
	if !ok {
		relay(c, response.Fail[entity.PublicUser](http.StatusUnauthorized, "Not Authenticated"))
		return
	}
	relay(c, response.Ok("Profile", user))
}

func (h *Handler) MakeAdmin(c *gin.Context) {
	env, err := h.Client.MakeAdmin(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.unreachable(c, err)
		return
	}
	relay(c, env)
}

func (h *Handler) MakeNormalUser(c *gin.Context) {
	env, err := h.Client.RemoveAdminRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.unreachable(c, err)
		return
	}
	relay(c, env)
}

// relay writes the command envelope through unchanged, mirroring its status.
func relay[T any](c *gin.Context, env response.Envelope[T]) {
	c.JSON(env.Status, env)
}

func (h *Handler) unreachable(c *gin.Context, err error) {
	h.Logger.WithError(err).Error("user service unreachable")
	relay(c, response.Fail[any](http.StatusBadGateway, "Could Not Complete The Operation"))
}
