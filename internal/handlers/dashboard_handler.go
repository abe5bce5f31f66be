package handlers

import (
	"net/http"

	"meetspace_backend/internal/middleware"
	"meetspace_backend/internal/services"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// DashboardHandler - JSON-бэкенд кабинета клиента. Запросы к Flat идут
// с токеном Flat из сессии.
type DashboardHandler struct {
	*BaseHandler
	dashboard     services.DashboardService
	analytics     services.AnalyticsService
	meetings      services.MeetingService
	roomTokens    services.RoomTokenService
	subscriptions services.SubscriptionService
}

func NewDashboardHandler(
	base *BaseHandler,
	dashboard services.DashboardService,
	analytics services.AnalyticsService,
	meetings services.MeetingService,
	roomTokens services.RoomTokenService,
	subscriptions services.SubscriptionService,
) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:   base,
		dashboard:     dashboard,
		analytics:     analytics,
		meetings:      meetings,
		roomTokens:    roomTokens,
		subscriptions: subscriptions,
	}
}

func (h *DashboardHandler) session(c *gin.Context) (customerID, flatToken string, ok bool) {
	customerID = middleware.GetUserID(c)
	if customerID == "" {
		WriteEnvelopeError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return "", "", false
	}
	flatToken = middleware.GetFlatToken(c)
	if flatToken == "" {
		WriteEnvelopeError(c, apperrors.NewUnauthorizedError("Flat session is missing, please log in again"))
		return "", "", false
	}
	return customerID, flatToken, true
}

func (h *DashboardHandler) ListRooms(c *gin.Context) {
	_, flatToken, ok := h.session(c)
	if !ok {
		return
	}

	rooms, err := h.dashboard.ListRooms(c.Request.Context(), flatToken, c.Query("type"))
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, rooms)
}

func (h *DashboardHandler) RoomInfo(c *gin.Context) {
	_, flatToken, ok := h.session(c)
	if !ok {
		return
	}

	info, err := h.dashboard.RoomInfo(c.Request.Context(), flatToken, c.Param("roomUUID"))
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, info)
}

func (h *DashboardHandler) StopRoom(c *gin.Context) {
	_, flatToken, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.dashboard.StopRoom(c.Request.Context(), flatToken, c.Param("roomUUID")); err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, gin.H{"roomUUID": c.Param("roomUUID")})
}

func (h *DashboardHandler) Participants(c *gin.Context) {
	_, flatToken, ok := h.session(c)
	if !ok {
		return
	}

	participants, err := h.dashboard.Participants(c.Request.Context(), flatToken, c.Param("roomUUID"))
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, participants)
}

func (h *DashboardHandler) Timeline(c *gin.Context) {
	_, flatToken, ok := h.session(c)
	if !ok {
		return
	}

	records, err := h.dashboard.Timeline(c.Request.Context(), flatToken, c.Param("roomUUID"))
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, records)
}

// Analytics godoc
// @Summary Аналитика по комнатам клиента
// @Description Минуты по комнатам и пользователям, подключения по часам. Кешируется на 5 минут.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.Envelope{data=dto.AnalyticsSummary}
// @Router /dashboard-api/analytics [get]
func (h *DashboardHandler) Analytics(c *gin.Context) {
	customerID, flatToken, ok := h.session(c)
	if !ok {
		return
	}

	summary, err := h.analytics.Summary(c.Request.Context(), customerID, flatToken)
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, summary)
}

func (h *DashboardHandler) OrganizationUsers(c *gin.Context) {
	_, flatToken, ok := h.session(c)
	if !ok {
		return
	}

	users, err := h.dashboard.OrganizationUsers(c.Request.Context(), flatToken)
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, users)
}

func (h *DashboardHandler) ListMeetings(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	page, pageSize := ParsePagination(c)

	resp, err := h.meetings.ListMeetings(h.GetDB(c), customerID, page, pageSize)
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, resp)
}

// IssueRoomToken выдает токен с параметрами комнаты для /lms-api.
func (h *DashboardHandler) IssueRoomToken(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	var req dto.RoomTokenRequest
	if !h.BindEnvelope_JSON(c, &req) {
		return
	}

	resp, err := h.roomTokens.Issue(h.GetDB(c), customerID, &req)
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusCreated, resp)
}

func (h *DashboardHandler) Subscription(c *gin.Context) {
	check, err := h.subscriptions.CheckRoomPermission(h.GetDB(c), middleware.GetUserID(c))
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, check)
}
