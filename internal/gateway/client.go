package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
	"github.com/sobhankiani/shopc-user-service/pkg/response"
)

// Client is the gateway's request/reply channel to the user-management
// service. Every call is bounded by the configured timeout; on timeout the
// command is failed-unknown and the caller must not assume it applied.
type Client struct {
	BaseURL string
	Timeout time.Duration
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: timeout,
		HTTP:    &http.Client{},
	}
}

// AuthPayload mirrors the user service's sign-up/login response data.
type AuthPayload struct {
	Token string            `json:"token"`
	User  entity.PublicUser `json:"user"`
}

// UpdatePayload is the partial-update body relayed to USER_UPDATE. Absent
// fields stay untouched on the aggregate.
type UpdatePayload struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Address  *string `json:"address,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

func send[T any](ctx context.Context, c *Client, pattern string, body any) (response.Envelope[T], error) {
	var env response.Envelope[T]

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	b, err := json.Marshal(body)
	if err != nil {
		return env, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/rpc/"+pattern, bytes.NewReader(b))
	if err != nil {
		return env, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return env, fmt.Errorf("rpc %s: %w", pattern, err)
	}
	defer func() { _ = res.Body.Close() }()

	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return env, fmt.Errorf("rpc %s: decode reply: %w", pattern, err)
	}
	return env, nil
}

func (c *Client) SignUp(ctx context.Context, name, email, password, address, phone string) (response.Envelope[AuthPayload], error) {
	return send[AuthPayload](ctx, c, "USER_SIGN_UP", map[string]string{
		"name": name, "email": email, "password": password, "address": address, "phone": phone,
	})
}

func (c *Client) Login(ctx context.Context, email, password string) (response.Envelope[AuthPayload], error) {
	return send[AuthPayload](ctx, c, "USER_LOGIN", map[string]string{
		"email": email, "password": password,
	})
}

func (c *Client) Update(ctx context.Context, id string, data UpdatePayload) (response.Envelope[entity.PublicUser], error) {
	return send[entity.PublicUser](ctx, c, "USER_UPDATE", map[string]any{
		"id": id, "updateData": data,
	})
}

func (c *Client) Delete(ctx context.Context, id string) (response.Envelope[entity.PublicUser], error) {
	return send[entity.PublicUser](ctx, c, "USER_DELETE", map[string]string{"id": id})
}

// Verify authenticates a bearer token; a non-empty roles set additionally
// requires the principal to hold at least one of them.
func (c *Client) Verify(ctx context.Context, token string, roles []string) (response.Envelope[entity.PublicUser], error) {
	body := map[string]any{"token": token}
	if len(roles) > 0 {
		body["roles"] = roles
	}
	return send[entity.PublicUser](ctx, c, "USER_VERIFY", body)
}

func (c *Client) MakeAdmin(ctx context.Context, id string) (response.Envelope[entity.PublicUser], error) {
	return send[entity.PublicUser](ctx, c, "USER_MAKE_ADMIN", map[string]string{"id": id})
}

func (c *Client) RemoveAdminRole(ctx context.Context, id string) (response.Envelope[entity.PublicUser], error) {
	return send[entity.PublicUser](ctx, c, "USER_REMOVE_ADMIN_ROLE", map[string]string{"id": id})
}
