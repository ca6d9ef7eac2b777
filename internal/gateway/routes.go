package gateway

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sobhankiani/shopc-user-service/internal/domain/entity"
	"github.com/sobhankiani/shopc-user-service/internal/interface/middleware"
)

// Routes declares the gateway surface and each route's access policy in one
// place. The guards consult this table instead of per-handler metadata.
func Routes() RouteTable {
	admin := []string{string(entity.RoleAdmin)}
	return RouteTable{
		"POST /user-management/sign-up":              {},
		"POST /user-management/login":                {},
		"PUT /user-management/me":                    {Private: true},
		"DELETE /user-management/me":                 {Private: true},
		"GET /user-management/me":                    {Private: true},
		"POST /user-management/:id/make-admin":       {Private: true, Roles: admin},
		"POST /user-management/:id/make-normal-user": {Private: true, Roles: admin},
	}
}

// Register wires handlers, guards, and rate limiting onto the engine.
func Register(r *gin.Engine, h *Handler, client *Client, rdb *redis.Client, logger *logrus.Logger) {
	table := Routes()

	rg := r.Group("/user-management")
	rg.Use(AuthGuard(client, table, logger))
	rg.Use(RolesGuard(table))

	signUpLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath())
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath())

	rg.POST("/sign-up", signUpLimiter, h.SignUp)
	rg.POST("/login", loginLimiter, h.Login)
	rg.PUT("/me", h.UpdateMe)
	rg.DELETE("/me", h.DeleteMe)
	rg.GET("/me", h.GetMe)
	rg.POST("/:id/make-admin", h.MakeAdmin)
	rg.POST("/:id/make-normal-user", h.MakeNormalUser)
}
