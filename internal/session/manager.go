// Package session caches token-derived session data in memory. This is a
// secondary identity cache used by the logging path; the quota key stays
// hostname-based.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/webchatkit/webchatkit/internal/clock"
	"github.com/webchatkit/webchatkit/internal/config"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrNotFound     = errors.New("session_not_found")
)

// SessionData is the validated view of an access token, refreshed on every
// activity touch.
type SessionData struct {
	UserID       string    `json:"user_id"`
	TenantID     string    `json:"tenant_id"`
	BotID        string    `json:"bot_id"`
	Permissions  []string  `json:"permissions"`
	TokenLimit   int64     `json:"token_limit"`
	LastActivity time.Time `json:"last_activity"`
}

type sessionClaims struct {
	TenantID    string   `json:"tenant_id"`
	BotID       string   `json:"bot_id"`
	Permissions []string `json:"permissions"`
	TokenLimit  int64    `json:"token_limit"`
	jwt.RegisteredClaims
}

// Manager validates session tokens and holds the resulting SessionData in
// an in-memory map keyed by the raw token string. Entries idle past the
// configured TTL are evicted by a periodic sweep.
type Manager struct {
	log    *zap.Logger
	clock  clock.Clock
	secret []byte
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*SessionData
}

func NewManager(cfg config.Config, log *zap.Logger, clk clock.Clock) *Manager {
	return &Manager{
		log:      log.Named("session.manager"),
		clock:    clk,
		secret:   []byte(cfg.Session.JWTSecret),
		ttl:      cfg.Session.IdleTTL,
		sessions: make(map[string]*SessionData),
	}
}

// Resolve returns the session for a raw token, validating and caching it on
// first sight and refreshing its activity timestamp on every call.
func (m *Manager) Resolve(token string) (SessionData, error) {
	if token == "" {
		return SessionData{}, ErrInvalidToken
	}

	now := m.clock.Now().UTC()

	m.mu.Lock()
	if existing, ok := m.sessions[token]; ok {
		existing.LastActivity = now
		data := *existing
		m.mu.Unlock()
		return data, nil
	}
	m.mu.Unlock()

	data, err := m.validate(token, now)
	if err != nil {
		return SessionData{}, err
	}

	m.mu.Lock()
	m.sessions[token] = &data
	m.mu.Unlock()

	return data, nil
}

// Touch refreshes the activity timestamp of a known session.
func (m *Manager) Touch(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return ErrNotFound
	}
	session.LastActivity = m.clock.Now().UTC()
	return nil
}

// Invalidate drops a session regardless of its activity.
func (m *Manager) Invalidate(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Len reports the number of cached sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle longer than the TTL and returns the eviction
// count.
func (m *Manager) Sweep() int {
	cutoff := m.clock.Now().UTC().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for token, session := range m.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(m.sessions, token)
			evicted++
		}
	}
	return evicted
}

func (m *Manager) validate(token string, now time.Time) (SessionData, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return SessionData{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return SessionData{}, ErrInvalidToken
	}
	return SessionData{
		UserID:       claims.Subject,
		TenantID:     claims.TenantID,
		BotID:        claims.BotID,
		Permissions:  claims.Permissions,
		TokenLimit:   claims.TokenLimit,
		LastActivity: now,
	}, nil
}

// RunSweeper sweeps on the configured interval until the context is
// cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := m.Sweep(); evicted > 0 {
				m.log.Debug("idle sessions evicted", zap.Int("count", evicted))
			}
		}
	}
}
