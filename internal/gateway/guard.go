package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
	"github.com/sobhankiani/shopc-user-service/pkg/response"
)

const ctxUserKey = "authUser"

// RouteMeta declares a route's access policy. Routes absent from the table
// are public with no role requirement.
type RouteMeta struct {
	Private bool
	Roles   []string
}

// RouteTable maps "METHOD /full/path" to its access policy. This is plain
// data consulted at request time; there is no reflection or decorator
// machinery behind it.
type RouteTable map[string]RouteMeta

func (t RouteTable) metaFor(c *gin.Context) RouteMeta {
	return t[c.Request.Method+" "+c.FullPath()]
}

// AuthGuard admits private requests only after a successful USER_VERIFY
// round trip. Any other outcome (missing token, RPC failure, rejection)
// rejects with an authentication failure.
func AuthGuard(client *Client, table RouteTable, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !table.metaFor(c).Private {
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "Not Authenticated")
			return
		}

		env, err := client.Verify(c.Request.Context(), token, nil)
		if err != nil {
			logger.WithError(err).Warn("verify rpc failed")
			abort(c, http.StatusUnauthorized, "Not Authenticated")
			return
		}
		if !env.OK() || env.Data == nil || (env.Data.ID == "" && env.Data.Email == "") {
			abort(c, http.StatusUnauthorized, "Not Authenticated")
			return
		}

		c.Set(ctxUserKey, *env.Data)
		c.Next()
	}
}

// RolesGuard runs after authentication and rejects when the principal's
// roles do not cover the route's declared required roles.
func RolesGuard(table RouteTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		required := table.metaFor(c).Roles
		if len(required) == 0 {
			c.Next()
			return
		}

		user, ok := UserFrom(c)
		if !ok {
			abort(c, http.StatusForbidden, "Not Authorized")
			return
		}
		for _, need := range required {
			if !contains(user.Roles, need) {
				abort(c, http.StatusForbidden, "Not Authorized")
				return
			}
		}
		c.Next()
	}
}

// UserFrom returns the principal the auth guard stored for this request.
func UserFrom(c *gin.Context) (entity.PublicUser, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return entity.PublicUser{}, false
	}
	u, ok := v.(entity.PublicUser)
	return u, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func abort(c *gin.Context, status int, message string) {
	env := response.Fail[any](status, message)
	c.AbortWithStatusJSON(env.Status, env)
}
