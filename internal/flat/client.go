// Package flat is a typed client for the Flat meeting API.
package flat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// envelope is the wrapper every Flat response is sent in.
type envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	region     string

	Auth  *AuthService
	Rooms *RoomService
	Users *UserService
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRegion sets the region sent with room create/update calls.
func WithRegion(region string) Option {
	return func(c *Client) { c.region = region }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		region:     "cn-hz",
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{client: c}
	c.Rooms = &RoomService{client: c}
	c.Users = &UserService{client: c}
	return c
}

func (c *Client) Region() string {
	return c.region
}

// do sends body as JSON and decodes the envelope's data into out.
// op names the call in logs and metrics.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out interface{}) (err error) {
	started := time.Now()
	outcome := metrics.OutcomeSuccess
	defer func() {
		if err != nil {
			if _, ok := asAPIError(err); ok {
				outcome = metrics.OutcomeUpstream
			} else {
				outcome = metrics.OutcomeTransport
			}
		}
		metrics.ObserveFlat(op, outcome, time.Since(started).Seconds())
		logger.FlatLog(op, time.Since(started), err)
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if decodeErr := json.Unmarshal(raw, &env); decodeErr != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: 1, HTTPStatus: resp.StatusCode, Message: truncate(string(raw), 200)}
		}
		return fmt.Errorf("decode response: %w", decodeErr)
	}

	if env.Status != 0 || resp.StatusCode >= 300 {
		return &APIError{
			Status:     env.Status,
			Code:       env.Code,
			Message:    env.Message,
			HTTPStatus: resp.StatusCode,
		}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
