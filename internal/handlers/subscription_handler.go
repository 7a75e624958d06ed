package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coachingcourse/course-service/internal/services"
	"github.com/coachingcourse/course-service/internal/utils"
)

type SubscriptionHandler struct {
	BaseHandler
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService services.SubscriptionService, logger utils.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         NewBaseHandler(logger),
		subscriptionService: subscriptionService,
	}
}

type AccessResponse struct {
	Level     int  `json:"level"`
	HasAccess bool `json:"hasAccess"`
}

func (h *SubscriptionHandler) ListMine(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	subs, err := h.subscriptionService.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

// CreateSubscription grants the caller access to a course level for a year
// @Summary Create subscription
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body services.CreateSubscriptionRequest true "Level and payment"
// @Success 201 {object} models.Subscription
// @Failure 400 {object} ErrorResponse
// @Router /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.CreateSubscriptionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Create(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Subscription created", "subscription_id", sub.ID, "course_level", sub.CourseLevel)
	c.JSON(http.StatusCreated, sub)
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Cancel(c.Request.Context(), id, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// RenewSubscription accepts an empty body, keeping the stored payment info
func (h *SubscriptionHandler) RenewSubscription(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.RenewSubscriptionRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Renew(c.Request.Context(), id, user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) CheckAccess(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	level, ok := ParseUintParam(c, "level")
	if !ok {
		return
	}

	hasAccess, err := h.subscriptionService.HasAccess(c.Request.Context(), user, int(level))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, AccessResponse{Level: int(level), HasAccess: hasAccess})
}
