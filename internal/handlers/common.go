package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coachingcourse/course-service/internal/auth"
	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/services"
	"github.com/coachingcourse/course-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeBusinessRule = "BUSINESS_RULE"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
)

// Context keys set by the auth middleware
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
	ContextClaimsKey = "claims"
)

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error handling for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// requestLogger prefers the per-request logger installed by utils.ContextLogger
func (h *BaseHandler) requestLogger(c *gin.Context) utils.Logger {
	if _, ok := c.Get("logger"); ok {
		return utils.GetLoggerFromContext(c)
	}
	return h.logger
}

func (h *BaseHandler) contextFields(c *gin.Context, additionalFields ...interface{}) []interface{} {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"user_id", h.extractUserID(c),
	}
	return append(fields, additionalFields...)
}

// LogRequest logs an incoming request with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	h.requestLogger(c).Info(message, h.contextFields(c, additionalFields...)...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.requestLogger(c).LogError(err, message, h.contextFields(c, additionalFields...)...)
}

func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.requestLogger(c).Warn(message, h.contextFields(c, additionalFields...)...)
}

func (h *BaseHandler) extractUserID(c *gin.Context) interface{} {
	if userID, exists := c.Get(ContextUserIDKey); exists {
		return userID
	}
	return nil
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, resp ErrorResponse, err error) {
	if err != nil && statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, resp.Message, "status_code", statusCode)
	} else {
		h.LogWarn(c, resp.Message, "status_code", statusCode)
	}
	c.AbortWithStatusJSON(statusCode, resp)
}

// RespondWithSuccess wraps data with a message
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// bindJSON decodes the body into req, answering 400 on malformed input
func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Error:   err.Error(),
			Code:    CodeValidation,
		}, nil)
		return false
	}
	return true
}

// currentUser returns the authenticated caller; guarded routes always have one
func (h *BaseHandler) currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		h.RespondWithError(c, http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
			Code:    CodeUnauthorized,
		}, nil)
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok || user == nil {
		h.RespondWithError(c, http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
			Code:    CodeUnauthorized,
		}, nil)
		return nil, false
	}
	return user, true
}

func currentClaims(c *gin.Context) *auth.Claims {
	if value, exists := c.Get(ContextClaimsKey); exists {
		if claims, ok := value.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// handleServiceError maps service errors onto HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
			Code:    CodeValidation,
		}, err)
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		h.RespondWithError(c, http.StatusBadRequest, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
			Code: CodeBusinessRule,
		}, err)
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
			Code: CodeForbidden,
		}, err)
		return
	}

	switch {
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Error:   err.Error(),
			Code:    CodeValidation,
		}, err)
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusBadRequest, ErrorResponse{
			Message: conflictMessage(err),
			Code:    CodeConflict,
		}, err)
	case errors.Is(err, services.ErrInvalidCredentials):
		h.RespondWithError(c, http.StatusUnauthorized, ErrorResponse{
			Message: "Invalid credentials",
			Code:    CodeUnauthorized,
		}, err)
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusUnauthorized, ErrorResponse{
			Message: "Not authorized, token failed",
			Code:    CodeUnauthorized,
		}, err)
	case errors.Is(err, services.ErrUserInactive):
		h.RespondWithError(c, http.StatusForbidden, ErrorResponse{
			Message: "Account is inactive",
			Code:    CodeForbidden,
		}, err)
	case services.IsForbidden(err):
		h.RespondWithError(c, http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
			Code:    CodeForbidden,
		}, err)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, ErrorResponse{
			Message: notFoundMessage(err),
			Code:    CodeNotFound,
		}, err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Code:    CodeInternal,
		}, err)
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, services.ErrCourseNotFound):
		return "Course not found"
	case errors.Is(err, services.ErrModuleNotFound):
		return "Module not found"
	case errors.Is(err, services.ErrSectionNotFound):
		return "Section not found"
	case errors.Is(err, services.ErrQuizNotFound):
		return "Quiz not found"
	case errors.Is(err, services.ErrSubscriptionNotFound):
		return "Subscription not found"
	default:
		return "Resource not found"
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrUserExists):
		return "User already exists"
	case errors.Is(err, services.ErrActiveSubscriptionExists):
		return "An active subscription for this level already exists"
	case errors.Is(err, services.ErrDuplicateOrder):
		return "Order already used by a sibling"
	case errors.Is(err, services.ErrSectionHasQuiz):
		return "Section already has a quiz"
	default:
		return "Resource conflict"
	}
}
