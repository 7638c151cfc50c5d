// auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/model"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

type TokenValidator interface {
	ValidateToken(ctx context.Context, raw string) (*model.Actor, error)
}

// AuthMiddleware validates the bearer token and stores the caller in the
// context. Requests without a valid token are rejected.
func AuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}
		actor, err := auth.ValidateToken(c.Request.Context(), raw)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a token is present. Anonymous
// requests pass through; a present but invalid token is still rejected.
func OptionalAuth(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		actor, err := auth.ValidateToken(c.Request.Context(), raw)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// CurrentActor returns the authenticated caller, or nil for anonymous
// requests.
func CurrentActor(c *gin.Context) *model.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*model.Actor)
	return actor
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func abortErr(c *gin.Context, err error) {
	meta := apperr.MetadataFor(apperr.CodeOf(err))
	message := meta.PublicMessage
	if e := apperr.As(err); e != nil && e.Code() != apperr.CodeUnexpected {
		message = e.Message()
	}
	abort(c, meta.HTTPStatus, message)
}
