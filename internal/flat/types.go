package flat

import "time"

type RoomStatus string

const (
	RoomStatusIdle      RoomStatus = "Idle"
	RoomStatusStarted   RoomStatus = "Started"
	RoomStatusPaused    RoomStatus = "Paused"
	RoomStatusStopped   RoomStatus = "Stopped"
	RoomStatusCancelled RoomStatus = "Cancelled"
)

type RoomType string

const (
	RoomTypeOneToOne   RoomType = "OneToOne"
	RoomTypeSmallClass RoomType = "SmallClass"
	RoomTypeBigClass   RoomType = "BigClass"
)

// Room list filters accepted by /v1/room/list/{type}.
const (
	ListAll      = "all"
	ListToday    = "today"
	ListPeriodic = "periodic"
	ListHistory  = "history"
)

// Millis converts t to the millisecond timestamps Flat uses on the wire.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis is the inverse of Millis; zero stays the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

type LoginResult struct {
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	UserUUID    string `json:"userUUID"`
	Token       string `json:"token"`
	HasPhone    bool   `json:"hasPhone"`
	HasPassword bool   `json:"hasPassword"`
}

type RegisterParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
	Name     string `json:"name,omitempty"`
}

type CreateRoomParams struct {
	Title     string   `json:"title"`
	Type      RoomType `json:"type"`
	BeginTime int64    `json:"beginTime"`
	EndTime   int64    `json:"endTime"`
	Region    string   `json:"region"`
	ClientKey string   `json:"clientKey,omitempty"`
	Emails    []string `json:"emails,omitempty"`
}

type CreateRoomResult struct {
	RoomUUID   string `json:"roomUUID"`
	InviteCode string `json:"inviteCode"`
}

type UpdateRoomParams struct {
	RoomUUID  string   `json:"roomUUID"`
	Title     string   `json:"title,omitempty"`
	Type      RoomType `json:"type,omitempty"`
	BeginTime int64    `json:"beginTime"`
	EndTime   int64    `json:"endTime"`
	Region    string   `json:"region,omitempty"`
	ClientKey string   `json:"clientKey,omitempty"`
	Emails    []string `json:"emails,omitempty"`
}

// RoomItem is one row of a room listing.
type RoomItem struct {
	RoomUUID     string     `json:"roomUUID"`
	PeriodicUUID string     `json:"periodicUUID,omitempty"`
	OwnerUUID    string     `json:"ownerUUID"`
	OwnerName    string     `json:"ownerName"`
	Title        string     `json:"title"`
	RoomType     RoomType   `json:"roomType"`
	BeginTime    int64      `json:"beginTime"`
	EndTime      int64      `json:"endTime"`
	RoomStatus   RoomStatus `json:"roomStatus"`
	HasRecord    bool       `json:"hasRecord"`
	InviteCode   string     `json:"inviteCode"`
}

type RoomInfo struct {
	RoomUUID      string     `json:"roomUUID,omitempty"`
	Title         string     `json:"title"`
	BeginTime     int64      `json:"beginTime"`
	EndTime       int64      `json:"endTime"`
	RoomType      RoomType   `json:"roomType"`
	RoomStatus    RoomStatus `json:"roomStatus"`
	OwnerUUID     string     `json:"ownerUUID"`
	OwnerUserName string     `json:"ownerUserName"`
	Region        string     `json:"region"`
	InviteCode    string     `json:"inviteCode"`
}

type Participant struct {
	UserUUID string `json:"userUUID"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Email    string `json:"email,omitempty"`
	IsOwner  bool   `json:"isOwner"`
}

// UserInOutRecord is one join/leave interval. LeaveTime is 0 while the
// user is still in the room.
type UserInOutRecord struct {
	UserUUID  string `json:"userUUID"`
	UserName  string `json:"userName"`
	RoomUUID  string `json:"roomUUID"`
	JoinTime  int64  `json:"joinTime"`
	LeaveTime int64  `json:"leaveTime"`
}

type OrgUser struct {
	UserUUID string `json:"userUUID"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
}

// Page is a single page of a paginated listing. Total is 0 when the
// endpoint does not report one.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
