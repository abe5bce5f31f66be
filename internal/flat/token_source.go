package flat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meetspace_backend/internal/cache"
	"meetspace_backend/internal/logger"
)

const serviceTokenTTL = 12 * time.Hour

// TokenSource provides the bearer token of the service account used for
// calls that are not made on behalf of a logged-in customer.
type TokenSource struct {
	auth     *AuthService
	cache    cache.Cache
	email    string
	password string

	mu sync.Mutex
}

func NewTokenSource(auth *AuthService, c cache.Cache, email, password string) *TokenSource {
	return &TokenSource{auth: auth, cache: c, email: email, password: password}
}

func (ts *TokenSource) cacheKey() string {
	return "flat:service-token:" + ts.email
}

// Token returns the cached token or logs in again.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if ts.email == "" {
		return "", errors.New("flat: service account is not configured")
	}

	if token, err := ts.cache.Get(ctx, ts.cacheKey()); err == nil && token != "" {
		return token, nil
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	// другой вызов мог уже обновить токен
	if token, err := ts.cache.Get(ctx, ts.cacheKey()); err == nil && token != "" {
		return token, nil
	}

	res, err := ts.auth.Login(ctx, ts.email, ts.password)
	if err != nil {
		return "", fmt.Errorf("service login: %w", err)
	}

	if err := ts.cache.Set(ctx, ts.cacheKey(), res.Token, serviceTokenTTL); err != nil {
		logger.CtxWithError(ctx, "failed to cache flat service token", err)
	}
	return res.Token, nil
}

// Invalidate drops the cached token, e.g. after Flat answered NeedLoginAgain.
func (ts *TokenSource) Invalidate(ctx context.Context) {
	if err := ts.cache.Delete(ctx, ts.cacheKey()); err != nil {
		logger.CtxWithError(ctx, "failed to drop flat service token", err)
	}
}
