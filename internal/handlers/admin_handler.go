package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"github.com/coachingcourse/course-service/internal/services"
	"github.com/coachingcourse/course-service/internal/utils"
)

type AdminHandler struct {
	BaseHandler
	adminService        services.AdminService
	subscriptionService services.SubscriptionService
	exportService       services.ExportService
}

func NewAdminHandler(
	adminService services.AdminService,
	subscriptionService services.SubscriptionService,
	exportService services.ExportService,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:         NewBaseHandler(logger),
		adminService:        adminService,
		subscriptionService: subscriptionService,
		exportService:       exportService,
	}
}

// ===== USERS =====

// ListUsers lists accounts with paging, filters and search
// @Summary List users
// @Tags admin
// @Produce json
// @Param role query string false "student|admin"
// @Param status query string false "active|inactive"
// @Param search query string false "Matches name, username or email"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.UserListResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := parseIntQuery(c, "size", 20)

	filters := repositories.UserFilters{
		Search:    c.Query("search"),
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filters.Role = &r
	}
	if status := c.Query("status"); status != "" {
		s := models.UserStatus(status)
		filters.Status = &s
	}

	resp, err := h.adminService.ListUsers(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), id, actor, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes the account with its progress, results and subscriptions
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "User deleted", "target_user_id", id)
	h.RespondWithSuccess(c, http.StatusOK, "User removed", nil)
}

// ===== SUBSCRIPTIONS & STATS =====

func (h *AdminHandler) ListSubscriptions(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := parseIntQuery(c, "size", 20)

	filters := repositories.SubscriptionFilters{
		UserID:      parseUintQueryPtr(c, "userId"),
		CourseLevel: parseIntQueryPtr(c, "level"),
		Limit:       size,
		Offset:      (page - 1) * size,
	}
	if status := c.Query("status"); status != "" {
		s := models.SubscriptionStatus(status)
		filters.Status = &s
	}

	resp, err := h.subscriptionService.ListAll(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ===== EXPORTS =====

// ExportQuizResults streams quiz results as an XLSX workbook
// @Summary Export quiz results
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param userId query int false "Only this user"
// @Param quizId query int false "Only this quiz"
// @Param passed query bool false "Only passed or failed attempts"
// @Success 200 {file} file
// @Router /admin/exports/quiz-results [get]
func (h *AdminHandler) ExportQuizResults(c *gin.Context) {
	filters := repositories.QuizResultFilters{
		UserID: parseUintQueryPtr(c, "userId"),
		QuizID: parseUintQueryPtr(c, "quizId"),
		Passed: parseBoolQueryPtr(c, "passed"),
	}

	buf, err := h.exportService.ExportQuizResults(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendWorkbook(c, "quiz-results", buf)
}

func (h *AdminHandler) ExportUsers(c *gin.Context) {
	buf, err := h.exportService.ExportUsers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendWorkbook(c, "users", buf)
}

func (h *AdminHandler) sendWorkbook(c *gin.Context, name string, buf *bytes.Buffer) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
