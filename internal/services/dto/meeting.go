package dto

import (
	"time"

	"meetspace_backend/internal/flat"
	"meetspace_backend/internal/models"
)

// CreateRoomRequest - параметры новой комнаты
type CreateRoomRequest struct {
	Title             string    `json:"title" validate:"required,max=200"`
	BeginTime         time.Time `json:"beginTime" validate:"required"`
	EndTime           time.Time `json:"endTime" validate:"required"`
	ParticipantEmails []string  `json:"participantEmails" validate:"omitempty,dive,email"`
	RoomType          string    `json:"roomType" validate:"omitempty,is-room-type"`
}

// UpdateRoomRequest - перенос встречи
type UpdateRoomRequest struct {
	Title             string    `json:"title" validate:"omitempty,max=200"`
	BeginTime         time.Time `json:"beginTime" validate:"required"`
	EndTime           time.Time `json:"endTime" validate:"required"`
	ParticipantEmails []string  `json:"participantEmails" validate:"omitempty,dive,email"`
}

type CreateRoomResponse struct {
	MeetingID  string `json:"meetingId"`
	RoomUUID   string `json:"roomUUID"`
	InviteCode string `json:"inviteCode"`
	JoinLink   string `json:"joinLink"`
}

// MeetingDetails - локальная запись встречи вместе с живым состоянием из Flat.
// Room пустой, если Flat недоступен.
type MeetingDetails struct {
	Meeting *models.Meeting `json:"meeting"`
	Room    *flat.RoomInfo  `json:"room,omitempty"`
}

type RoomTokenRequest struct {
	MeetingID         string    `json:"meetingId" validate:"omitempty,uuid"`
	Title             string    `json:"title" validate:"required,max=200"`
	BeginTime         time.Time `json:"beginTime" validate:"required"`
	EndTime           time.Time `json:"endTime" validate:"required"`
	ParticipantEmails []string  `json:"participantEmails" validate:"omitempty,dive,email"`
}

type RoomTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
