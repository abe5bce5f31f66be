package flat

import (
	"context"
	"fmt"
	"net/http"
)

type AuthService struct {
	client *Client
}

// Login exchanges email credentials for a Flat bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var out LoginResult
	if err := s.client.do(ctx, "login", http.MethodPost, "/v1/login/email", "", body, &out); err != nil {
		return nil, fmt.Errorf("flat: login: %w", err)
	}
	return &out, nil
}

func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*LoginResult, error) {
	var out LoginResult
	if err := s.client.do(ctx, "register", http.MethodPost, "/v2/register/email", "", params, &out); err != nil {
		return nil, fmt.Errorf("flat: register: %w", err)
	}
	return &out, nil
}

// SendVerificationCode asks Flat to email a registration code.
func (s *AuthService) SendVerificationCode(ctx context.Context, email, language string) error {
	if language == "" {
		language = "en"
	}
	body := map[string]string{"email": email, "language": language}

	if err := s.client.do(ctx, "send_code", http.MethodPost, "/v2/register/email/send-message", "", body, nil); err != nil {
		return fmt.Errorf("flat: send verification code: %w", err)
	}
	return nil
}
