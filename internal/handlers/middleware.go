package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/services"
	"github.com/coachingcourse/course-service/internal/utils"
)

// AuthMiddleware resolves the bearer token to a user and guards admin routes
type AuthMiddleware struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthMiddleware(authService services.AuthService, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// Authenticate requires a valid, unrevoked bearer token of an existing active user
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			m.RespondWithError(c, http.StatusUnauthorized, ErrorResponse{
				Message: "Not authorized, no token",
				Code:    CodeUnauthorized,
			}, nil)
			return
		}

		user, claims, err := m.authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			m.handleServiceError(c, err)
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextRoleKey, user.Role)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			m.RespondWithError(c, http.StatusUnauthorized, ErrorResponse{
				Message: "Not authorized",
				Code:    CodeUnauthorized,
			}, nil)
			return
		}

		user, ok := value.(*models.User)
		if !ok || !user.IsAdmin() {
			m.RespondWithError(c, http.StatusForbidden, ErrorResponse{
				Message: "Not authorized as an admin",
				Code:    CodeForbidden,
			}, nil)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
