package flat

import (
	"context"
	"fmt"
	"net/http"
)

type UserService struct {
	client *Client
}

// InOutRecords returns one page of join/leave records for a room.
func (s *UserService) InOutRecords(ctx context.Context, token, roomUUID string, page, pageSize int) (Page[UserInOutRecord], error) {
	body := map[string]interface{}{"roomUUID": roomUUID, "page": page, "pageSize": pageSize}

	var out Page[UserInOutRecord]
	if err := s.client.do(ctx, "user_in_out", http.MethodPost, "/v1/room/user-in-out", token, body, &out); err != nil {
		return Page[UserInOutRecord]{}, fmt.Errorf("flat: in/out records %s: %w", roomUUID, err)
	}
	for i := range out.Items {
		if out.Items[i].RoomUUID == "" {
			out.Items[i].RoomUUID = roomUUID
		}
	}
	return out, nil
}

func (s *UserService) AllInOutRecords(ctx context.Context, token, roomUUID string, pageSize int) ([]UserInOutRecord, error) {
	return Paginate(ctx, pageSize, func(ctx context.Context, page, size int) (Page[UserInOutRecord], error) {
		return s.InOutRecords(ctx, token, roomUUID, page, size)
	})
}

func (s *UserService) OrganizationUsers(ctx context.Context, token string, page, pageSize int) (Page[OrgUser], error) {
	body := map[string]int{"page": page, "pageSize": pageSize}

	var out Page[OrgUser]
	if err := s.client.do(ctx, "org_users", http.MethodPost, "/v1/organization/users", token, body, &out); err != nil {
		return Page[OrgUser]{}, fmt.Errorf("flat: organization users: %w", err)
	}
	return out, nil
}

func (s *UserService) AllOrganizationUsers(ctx context.Context, token string, pageSize int) ([]OrgUser, error) {
	return Paginate(ctx, pageSize, func(ctx context.Context, page, size int) (Page[OrgUser], error) {
		return s.OrganizationUsers(ctx, token, page, size)
	})
}
