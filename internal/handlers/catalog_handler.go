package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coachingcourse/course-service/internal/services"
	"github.com/coachingcourse/course-service/internal/utils"
)

type CatalogHandler struct {
	BaseHandler
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService, logger utils.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler:    NewBaseHandler(logger),
		catalogService: catalogService,
	}
}

// ===== COURSES =====

// ListCourses lists courses, optionally filtered by level
// @Summary List courses
// @Tags courses
// @Produce json
// @Param level query int false "Course level (1-3)"
// @Success 200 {array} models.Course
// @Failure 400 {object} ErrorResponse
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalogService.ListCourses(c.Request.Context(), parseIntQueryPtr(c, "level"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

// GetCourse returns a course with its modules in order
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	course, err := h.catalogService.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req services.CourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.catalogService.CreateCourse(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Course created", "course_id", course.ID)
	c.JSON(http.StatusCreated, course)
}

func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.CourseUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.catalogService.UpdateCourse(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// DeleteCourse removes the course with its modules, sections and quizzes
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteCourse(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Course deleted", "course_id", id)
	h.RespondWithSuccess(c, http.StatusOK, "Course removed", nil)
}

// ===== MODULES =====

func (h *CatalogHandler) ListModules(c *gin.Context) {
	modules, err := h.catalogService.ListModules(c.Request.Context(), parseUintQueryPtr(c, "courseId"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, modules)
}

func (h *CatalogHandler) GetModule(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	module, err := h.catalogService.GetModule(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *CatalogHandler) CreateModule(c *gin.Context) {
	var req services.ModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	module, err := h.catalogService.CreateModule(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, module)
}

func (h *CatalogHandler) UpdateModule(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.ModuleUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	module, err := h.catalogService.UpdateModule(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *CatalogHandler) DeleteModule(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteModule(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Module removed", nil)
}

// ===== SECTIONS =====

func (h *CatalogHandler) ListSections(c *gin.Context) {
	sections, err := h.catalogService.ListSections(c.Request.Context(), parseUintQueryPtr(c, "moduleId"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sections)
}

func (h *CatalogHandler) GetSection(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	section, err := h.catalogService.GetSection(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

func (h *CatalogHandler) CreateSection(c *gin.Context) {
	var req services.SectionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	section, err := h.catalogService.CreateSection(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

func (h *CatalogHandler) UpdateSection(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.SectionUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	section, err := h.catalogService.UpdateSection(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

func (h *CatalogHandler) DeleteSection(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteSection(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Section removed", nil)
}
