package middleware

import (
	"crowdx-backend/internal/apperr"
	"crowdx-backend/internal/models"
	"crowdx-backend/internal/services"
	"crowdx-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextUser   = "user"
	ContextClaims = "claims"
)

// AuthMiddleware rejects the request unless it carries a valid access token.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := utils.ExtractToken(c)
		if err != nil {
			utils.RespondError(c, apperr.Unauthenticated(err.Error()))
			return
		}
		if !authenticate(c, auth, tokenString) {
			return
		}
		c.Next()
	}
}

// OptionalAuth resolves the caller when a bearer token is present and lets
// anonymous requests through. A token that is present but invalid is still
// rejected.
func OptionalAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		tokenString, err := utils.ExtractToken(c)
		if err != nil {
			utils.RespondError(c, apperr.Unauthenticated(err.Error()))
			return
		}
		if !authenticate(c, auth, tokenString) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, auth *services.AuthService, tokenString string) bool {
	user, claims, err := auth.Authenticate(c.Request.Context(), tokenString)
	if err != nil {
		utils.RespondError(c, err)
		return false
	}
	c.Set(ContextUser, user)
	c.Set(ContextClaims, claims)
	return true
}

// CurrentUser returns the user resolved by AuthMiddleware or OptionalAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func CurrentClaims(c *gin.Context) (*utils.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}
