package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Service issues anonymous device sessions. Every browser/device gets an ID
// and a bearer token; the platform's own user auth (the uid) rides on top
// and is not validated here.
type Service struct {
	tokens     *tokenManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New() *Service {
	return &Service{
		tokens:     newTokenManager(),
		accessTTL:  3 * time.Hour,
		refreshTTL: 30 * 24 * time.Hour,
	}
}

// Issue mints a device ID with an access and a refresh token.
func (s *Service) Issue(ctx context.Context) (accessToken, refreshToken, deviceID string, err error) {
	deviceID = uuid.NewString()
	accessToken, err = s.tokens.Issue(deviceID, s.accessTTL)
	if err != nil {
		return "", "", "", err
	}
	refreshToken, err = s.tokens.Issue(deviceID, s.refreshTTL)
	if err != nil {
		return "", "", "", err
	}
	return accessToken, refreshToken, deviceID, nil
}

// Refresh rotates an access token off a still-valid token (typically the
// refresh token), keeping the same device ID.
func (s *Service) Refresh(ctx context.Context, token string) (accessToken, deviceID string, err error) {
	deviceID, err = s.LookupByToken(ctx, token)
	if err != nil {
		return "", "", err
	}
	accessToken, err = s.tokens.Issue(deviceID, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, deviceID, nil
}

// LookupByToken resolves a bearer token to its device ID.
func (s *Service) LookupByToken(_ context.Context, token string) (string, error) {
	meta, ok := s.tokens.Validate(token)
	if !ok {
		return "", ErrInvalidToken
	}
	return meta.DeviceID, nil
}

func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

type tokenMeta struct {
	DeviceID  string
	ExpiresAt time.Time
}

type tokenManager struct {
	mu     sync.RWMutex
	tokens map[string]tokenMeta
}

func newTokenManager() *tokenManager {
	return &tokenManager{tokens: make(map[string]tokenMeta)}
}

func (m *tokenManager) Issue(deviceID string, ttl time.Duration) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.tokens[token] = tokenMeta{DeviceID: deviceID, ExpiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return token, nil
}

func (m *tokenManager) Validate(token string) (tokenMeta, bool) {
	m.mu.RLock()
	meta, ok := m.tokens[token]
	m.mu.RUnlock()
	if !ok {
		return tokenMeta{}, false
	}
	if time.Now().After(meta.ExpiresAt) {
		m.mu.Lock()
		delete(m.tokens, token)
		m.mu.Unlock()
		return tokenMeta{}, false
	}
	return meta, true
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
