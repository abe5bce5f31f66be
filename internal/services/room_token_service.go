package services

import (
	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/repositories"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// RoomTokenService выдает и проверяет токены с параметрами комнаты для LMS.
type RoomTokenService interface {
	Issue(db *gorm.DB, customerID string, req *dto.RoomTokenRequest) (*dto.RoomTokenResponse, error)
	Verify(token string) (*auth.RoomTokenClaims, error)
}

type roomTokenService struct {
	signer      *auth.RoomTokenSigner
	meetingRepo repositories.MeetingRepository
}

func NewRoomTokenService(signer *auth.RoomTokenSigner, meetingRepo repositories.MeetingRepository) RoomTokenService {
	return &roomTokenService{signer: signer, meetingRepo: meetingRepo}
}

func (s *roomTokenService) Issue(db *gorm.DB, customerID string, req *dto.RoomTokenRequest) (*dto.RoomTokenResponse, error) {
	if !req.EndTime.After(req.BeginTime) {
		return nil, apperrors.ErrInvalidRoomWindow("End time must be after begin time")
	}
	if req.MeetingID != "" {
		if _, err := s.meetingRepo.FindByIDAndCustomer(db, req.MeetingID, customerID); err != nil {
			return nil, handleMeetingError(err)
		}
	}

	token, expiresAt, err := s.signer.Sign(auth.RoomTokenClaims{
		CustomerID: customerID,
		MeetingID:  req.MeetingID,
		Title:      req.Title,
		BeginTime:  req.BeginTime.UTC(),
		EndTime:    req.EndTime.UTC(),
		Emails:     normalizeEmails(req.ParticipantEmails),
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.RoomTokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *roomTokenService) Verify(token string) (*auth.RoomTokenClaims, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil, apperrors.ErrInvalidToken.WithError(err)
	}
	return claims, nil
}
