package handlers

import (
	"net/http"

	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/middleware"
	"meetspace_backend/internal/services"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/internal/validator"
	"meetspace_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// LMSHandler принимает операции с комнатами по токену параметров комнаты.
type LMSHandler struct {
	*BaseHandler
	meetings services.MeetingService
}

func NewLMSHandler(base *BaseHandler, meetings services.MeetingService) *LMSHandler {
	return &LMSHandler{BaseHandler: base, meetings: meetings}
}

func (h *LMSHandler) claims(c *gin.Context) (*auth.RoomTokenClaims, bool) {
	claims := middleware.GetRoomClaims(c)
	if claims == nil {
		WriteEnvelopeError(c, apperrors.ErrMissingToken)
		return nil, false
	}
	return claims, true
}

// claimsForMeeting проверяет, что токен выдан на этот meetingId.
func (h *LMSHandler) claimsForMeeting(c *gin.Context) (*auth.RoomTokenClaims, string, bool) {
	claims, ok := h.claims(c)
	if !ok {
		return nil, "", false
	}
	meetingID := c.Param("meetingId")
	if claims.MeetingID != "" && claims.MeetingID != meetingID {
		WriteEnvelopeError(c, apperrors.ErrMeetingNotFound)
		return nil, "", false
	}
	return claims, meetingID, true
}

// CreateRoom godoc
// @Summary Создать комнату по токену
// @Description Проверяет квоту подписки и окно встречи, создает комнату во Flat и сохраняет встречу.
// @Tags lms
// @Produce json
// @Param token query string false "Токен параметров комнаты (или заголовок Authorization)"
// @Param roomType query string false "OneToOne | SmallClass | BigClass"
// @Success 201 {object} handlers.Envelope{data=dto.CreateRoomResponse}
// @Failure 400 {object} handlers.Envelope "Некорректное окно встречи"
// @Failure 403 {object} handlers.Envelope "Нет подписки или исчерпан лимит"
// @Router /lms-api/rooms [post]
func (h *LMSHandler) CreateRoom(c *gin.Context) {
	claims, ok := h.claims(c)
	if !ok {
		return
	}
	if claims.MeetingID != "" {
		WriteEnvelopeError(c, apperrors.NewBadRequestError("Token was issued for an existing meeting"))
		return
	}

	req := dto.CreateRoomRequest{
		Title:             claims.Title,
		BeginTime:         claims.BeginTime,
		EndTime:           claims.EndTime,
		ParticipantEmails: claims.Emails,
		RoomType:          c.Query("roomType"),
	}
	if err := h.validator.Validate(&req); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			WriteEnvelopeError(c, apperrors.ValidationError(vErr.Errors))
			return
		}
		WriteEnvelopeError(c, apperrors.InternalError(err))
		return
	}

	resp, err := h.meetings.CreateRoom(c.Request.Context(), h.GetDB(c), claims.CustomerID, &req)
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusCreated, resp)
}

func (h *LMSHandler) UpdateRoom(c *gin.Context) {
	claims, meetingID, ok := h.claimsForMeeting(c)
	if !ok {
		return
	}

	meeting, err := h.meetings.UpdateRoom(c.Request.Context(), h.GetDB(c), claims.CustomerID, meetingID, &dto.UpdateRoomRequest{
		Title:             claims.Title,
		BeginTime:         claims.BeginTime,
		EndTime:           claims.EndTime,
		ParticipantEmails: claims.Emails,
	})
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, meeting)
}

func (h *LMSHandler) DeleteRoom(c *gin.Context) {
	claims, meetingID, ok := h.claimsForMeeting(c)
	if !ok {
		return
	}

	if err := h.meetings.DeleteRoom(c.Request.Context(), h.GetDB(c), claims.CustomerID, meetingID); err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, gin.H{"meetingId": meetingID})
}

func (h *LMSHandler) GetRoom(c *gin.Context) {
	claims, meetingID, ok := h.claimsForMeeting(c)
	if !ok {
		return
	}

	details, err := h.meetings.GetRoom(c.Request.Context(), h.GetDB(c), claims.CustomerID, meetingID)
	if err != nil {
		h.HandleEnvelopeError(c, err)
		return
	}
	RespondEnvelope(c, http.StatusOK, details)
}
