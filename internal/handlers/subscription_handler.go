package handlers

import (
	"net/http"

	"meetspace_backend/internal/models"
	"meetspace_backend/internal/services"
	"meetspace_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
	}
}

// --- Plans (public) ---

func (h *SubscriptionHandler) GetPlans(c *gin.Context) {
	activeOnly := c.DefaultQuery("all", "false") != "true"

	plans, err := h.subscriptionService.ListPlans(h.GetDB(c), activeOnly)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plans": plans,
		"total": len(plans),
	})
}

func (h *SubscriptionHandler) GetPlan(c *gin.Context) {
	plan, err := h.subscriptionService.GetPlan(h.GetDB(c), c.Param("planId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// --- Customer ---

// GetMySubscription godoc
// @Summary Проверка квоты клиента
// @Description Активная подписка, использование текущего месяца и возможность создать комнату.
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.QuotaCheck
// @Router /api/subscriptions/me [get]
func (h *SubscriptionHandler) GetMySubscription(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	check, err := h.subscriptionService.CheckRoomPermission(h.GetDB(c), customerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *SubscriptionHandler) GetMyUsageHistory(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	history, err := h.subscriptionService.GetUsageHistory(h.GetDB(c), customerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *SubscriptionHandler) SetAutoRenew(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AutoRenewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.SetAutoRenew(h.GetDB(c), customerID, *req.AutoRenew)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) CancelMySubscription(c *gin.Context) {
	customerID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.CancelMySubscription(h.GetDB(c), customerID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// --- Admin ---

func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	plan, err := h.subscriptionService.CreatePlan(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *SubscriptionHandler) UpdatePlan(c *gin.Context) {
	var req dto.UpdatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	plan, err := h.subscriptionService.UpdatePlan(h.GetDB(c), c.Param("planId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *SubscriptionHandler) DeletePlan(c *gin.Context) {
	if err := h.subscriptionService.DeletePlan(h.GetDB(c), c.Param("planId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.CreateSubscription(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *SubscriptionHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateSubscriptionStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.UpdateStatus(h.GetDB(c), c.Param("subscriptionId"), models.SubscriptionStatus(req.Status))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// UpdateUsage godoc
// @Summary Увеличить использование подписки
// @Description Счетчики текущего месяца увеличиваются на переданные значения; при смене месяца начинаются с нуля.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subscriptionId path string true "ID подписки"
// @Param request body dto.UpdateUsageRequest true "Прирост"
// @Success 200 {object} models.Subscription
// @Router /api/subscriptions/{subscriptionId}/usage [post]
func (h *SubscriptionHandler) UpdateUsage(c *gin.Context) {
	var req dto.UpdateUsageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.UpdateUsage(h.GetDB(c), c.Param("subscriptionId"), dto.UsageDelta{
		Duration:          req.Duration,
		ParticipantsCount: req.ParticipantsCount,
		RoomsCount:        req.RoomsCount,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	var filter dto.SubscriptionFilter
	if !h.BindAndValidate_Query(c, &filter) {
		return
	}

	resp, err := h.subscriptionService.ListSubscriptions(h.GetDB(c), &filter)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ProcessExpired запускает проход воркера вручную.
func (h *SubscriptionHandler) ProcessExpired(c *gin.Context) {
	renewed, expired, err := h.subscriptionService.ProcessExpired(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"renewed": renewed, "expired": expired})
}
