package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coachingcourse/course-service/internal/services"
	"github.com/coachingcourse/course-service/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
	}
}

// RecordProgress upserts the caller's progress on a section
// @Summary Record progress
// @Tags progress
// @Accept json
// @Produce json
// @Param progress body services.ProgressRequest true "Section progress"
// @Success 200 {object} models.Progress
// @Failure 400 {object} ErrorResponse
// @Router /progress [post]
func (h *ProgressHandler) RecordProgress(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.ProgressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	progress, err := h.progressService.Record(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *ProgressHandler) ListUserProgress(c *gin.Context) {
	userID, ok := ParseUintParam(c, "userId")
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	records, err := h.progressService.ListForUser(c.Request.Context(), userID, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *ProgressHandler) ListUserModuleProgress(c *gin.Context) {
	userID, ok := ParseUintParam(c, "userId")
	if !ok {
		return
	}
	moduleID, ok := ParseUintParam(c, "moduleId")
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	records, err := h.progressService.ListForUserModule(c.Request.Context(), userID, moduleID, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// ResetUserProgress wipes a user's progress and quiz history
func (h *ProgressHandler) ResetUserProgress(c *gin.Context) {
	userID, ok := ParseUintParam(c, "userId")
	if !ok {
		return
	}

	resp, err := h.progressService.ResetUser(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "User progress reset", "target_user_id", userID,
		"progress_deleted", resp.ProgressDeleted, "quiz_results_deleted", resp.QuizResultsDeleted)
	c.JSON(http.StatusOK, resp)
}
