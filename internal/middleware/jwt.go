package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/courseloom/courseloom-backend/internal/authz"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
)

// RequireAuth validates the access token from the Authorization header
// and stores the claims on the context.
func RequireAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := extractAndValidateClaims(c, authService)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. It must run after
// RequireAuth. Role values were validated during token parsing, so a
// simple membership check suffices.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, roleErrCode(roles))
	}
}

// RequireWSAuth validates the access token from the query param ?token=...
// Used for WebSocket upgrade requests, which cannot send headers.
func RequireWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateAccessToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetActor builds the authorization actor from the context claims.
func GetActor(c *gin.Context) authz.Actor {
	claims := GetClaims(c)
	if claims == nil {
		return authz.Actor{}
	}
	return authz.Actor{ID: claims.UserID, Role: claims.Role}
}

func roleErrCode(roles []model.Role) response.ErrCode {
	if len(roles) == 1 {
		switch roles[0] {
		case model.RoleStudent:
			return response.ErrStudentAccessOnly
		case model.RoleInstructor:
			return response.ErrInstructorOnly
		case model.RoleAdmin:
			return response.ErrAdminAccessOnly
		}
	}
	return response.ErrForbidden
}

func extractAndValidateClaims(c *gin.Context, authService *service.AuthService) (*service.Claims, error) {
	tokenStr := ""

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			tokenStr = parts[1]
		}
	}

	if tokenStr == "" {
		return nil, fmt.Errorf("authorization header required")
	}

	return authService.ValidateAccessToken(tokenStr)
}
