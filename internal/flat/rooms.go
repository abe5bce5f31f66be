package flat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// listPageSize is the fixed page size of /v1/room/list.
const listPageSize = 50

type RoomService struct {
	client *Client
}

func (s *RoomService) CreateOrdinary(ctx context.Context, token string, params CreateRoomParams) (*CreateRoomResult, error) {
	if params.Region == "" {
		params.Region = s.client.region
	}
	if params.Type == "" {
		params.Type = RoomTypeSmallClass
	}

	var out CreateRoomResult
	if err := s.client.do(ctx, "room_create", http.MethodPost, "/v1/room/create/ordinary", token, params, &out); err != nil {
		return nil, fmt.Errorf("flat: create room: %w", err)
	}
	return &out, nil
}

func (s *RoomService) UpdateOrdinary(ctx context.Context, token string, params UpdateRoomParams) error {
	if params.Region == "" {
		params.Region = s.client.region
	}
	if err := s.client.do(ctx, "room_update", http.MethodPost, "/v1/room/update/ordinary", token, params, nil); err != nil {
		return fmt.Errorf("flat: update room %s: %w", params.RoomUUID, err)
	}
	return nil
}

func (s *RoomService) Info(ctx context.Context, token, roomUUID string) (*RoomInfo, error) {
	var out struct {
		RoomInfo RoomInfo `json:"roomInfo"`
	}
	body := map[string]string{"roomUUID": roomUUID}
	if err := s.client.do(ctx, "room_info", http.MethodPost, "/v1/room/info/ordinary", token, body, &out); err != nil {
		return nil, fmt.Errorf("flat: room info %s: %w", roomUUID, err)
	}
	info := out.RoomInfo
	if info.RoomUUID == "" {
		info.RoomUUID = roomUUID
	}
	return &info, nil
}

func (s *RoomService) Stop(ctx context.Context, token, roomUUID string) error {
	body := map[string]string{"roomUUID": roomUUID}
	if err := s.client.do(ctx, "room_stop", http.MethodPost, "/v1/room/update-status/stopped", token, body, nil); err != nil {
		return fmt.Errorf("flat: stop room %s: %w", roomUUID, err)
	}
	return nil
}

func (s *RoomService) Cancel(ctx context.Context, token, roomUUID string) error {
	body := map[string]string{"roomUUID": roomUUID}
	if err := s.client.do(ctx, "room_cancel", http.MethodPost, "/v1/room/cancel/ordinary", token, body, nil); err != nil {
		return fmt.Errorf("flat: cancel room %s: %w", roomUUID, err)
	}
	return nil
}

// List returns one page of rooms. listType is one of the List* constants.
func (s *RoomService) List(ctx context.Context, token, listType string, page int) ([]RoomItem, error) {
	if listType == "" {
		listType = ListAll
	}
	path := "/v1/room/list/" + url.PathEscape(listType) + "?page=" + strconv.Itoa(page)

	var out []RoomItem
	if err := s.client.do(ctx, "room_list", http.MethodPost, path, token, struct{}{}, &out); err != nil {
		return nil, fmt.Errorf("flat: list rooms page %d: %w", page, err)
	}
	return out, nil
}

// ListAll walks every page of the listing.
func (s *RoomService) ListAll(ctx context.Context, token, listType string) ([]RoomItem, error) {
	return Paginate(ctx, listPageSize, func(ctx context.Context, page, _ int) (Page[RoomItem], error) {
		items, err := s.List(ctx, token, listType, page)
		return Page[RoomItem]{Items: items}, err
	})
}

func (s *RoomService) Participants(ctx context.Context, token, roomUUID string, page, pageSize int) (Page[Participant], error) {
	body := map[string]interface{}{"roomUUID": roomUUID, "page": page, "pageSize": pageSize}

	var out Page[Participant]
	if err := s.client.do(ctx, "room_participants", http.MethodPost, "/v1/room/participants", token, body, &out); err != nil {
		return Page[Participant]{}, fmt.Errorf("flat: participants %s: %w", roomUUID, err)
	}
	return out, nil
}

func (s *RoomService) AllParticipants(ctx context.Context, token, roomUUID string, pageSize int) ([]Participant, error) {
	return Paginate(ctx, pageSize, func(ctx context.Context, page, size int) (Page[Participant], error) {
		return s.Participants(ctx, token, roomUUID, page, size)
	})
}
