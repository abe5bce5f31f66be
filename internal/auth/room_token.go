package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoomTokenTTL is the lifetime of room parameter tokens.
const RoomTokenTTL = 24 * time.Hour

// RoomTokenClaims carry room create/update parameters from the dashboard
// to the LMS endpoints. MeetingID is set only for updates.
type RoomTokenClaims struct {
	CustomerID string    `json:"customerId"`
	MeetingID  string    `json:"meetingId,omitempty"`
	Title      string    `json:"title"`
	BeginTime  time.Time `json:"beginTime"`
	EndTime    time.Time `json:"endTime"`
	Emails     []string  `json:"emails,omitempty"`
	jwt.RegisteredClaims
}

type RoomTokenSigner struct {
	key []byte
	now func() time.Time
}

func NewRoomTokenSigner(privateKey string) *RoomTokenSigner {
	return &RoomTokenSigner{key: []byte(privateKey), now: time.Now}
}

func (s *RoomTokenSigner) Sign(claims RoomTokenClaims) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(RoomTokenTTL)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.CustomerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign room token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *RoomTokenSigner) Parse(tokenStr string) (*RoomTokenClaims, error) {
	claims := &RoomTokenClaims{}
	if err := parseHS256(tokenStr, s.key, claims, s.now); err != nil {
		return nil, err
	}
	if claims.CustomerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
