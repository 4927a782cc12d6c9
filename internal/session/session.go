// Package session keeps one map surface per connected client. Creating a
// session is the map-ready signal; the returned token addresses it afterwards.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/controller"
	"github.com/jengzang/shelter-map/internal/heat"
	"github.com/jengzang/shelter-map/internal/mapsurface"
	"github.com/jengzang/shelter-map/internal/models"
)

var (
	// ErrSessionNotFound is returned for expired or unknown sessions
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidToken is returned when a token fails verification
	ErrInvalidToken = errors.New("invalid session token")
)

const issuer = "shelter-map"

// Session is one map surface and the controller driving it
type Session struct {
	ID         string
	Scene      *mapsurface.Scene
	Controller *controller.Controller
	ExpiresAt  time.Time
}

// Config configures a Manager
type Config struct {
	Secret     []byte
	TTL        time.Duration
	Controller controller.Config
}

// Manager creates, resolves and expires sessions
type Manager struct {
	cfg     Config
	dataset *models.Dataset
	heat    heat.Source // nil disables the heat overlay
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. All sessions share the dataset and heat source.
func NewManager(cfg Config, dataset *models.Dataset, source heat.Source, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		dataset:  dataset,
		heat:     source,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create builds a new map surface, runs map-ready on it and returns a signed token
func (m *Manager) Create(ctx context.Context) (*Session, string, error) {
	id := uuid.NewString()
	logger := m.logger.With(zap.String("session", id))

	var loader *heat.Loader
	if m.heat != nil {
		loader = heat.NewLoader(m.heat, logger)
	}
	scene := mapsurface.NewScene()
	ctrl := controller.New(scene, m.dataset, loader, m.cfg.Controller, logger)

	if err := ctrl.OnMapReady(ctx); err != nil {
		return nil, "", fmt.Errorf("failed to initialise map: %w", err)
	}

	now := m.now()
	s := &Session{ID: id, Scene: scene, Controller: ctrl, ExpiresAt: now.Add(m.cfg.TTL)}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}).SignedString(m.cfg.Secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.Info("session created", zap.Time("expires_at", s.ExpiresAt))
	return s, token, nil
}

// Resolve verifies a token and returns its session
func (m *Manager) Resolve(token string) (*Session, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[claims.ID]
	if !ok || !m.now().Before(s.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired sessions removed", zap.Int("count", removed))
	}
	return removed
}

// Run sweeps on every interval until ctx is cancelled
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
