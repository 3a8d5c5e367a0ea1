package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/redisclient"
	"github.com/prefeitura-rio/app-social/internal/utils"
)

// draftSlotPrefix namespaces one draft slot per session. Each session
// tracks exactly one active draft.
const draftSlotPrefix = "application:draft:"

// SessionManager hands out one form controller per session. Controllers
// are created lazily and seeded from their session's draft slot.
type SessionManager struct {
	mu          sync.Mutex
	redis       *redisclient.Client
	repo        ApplicationRepository
	ttl         time.Duration
	logger      *zap.Logger
	controllers map[string]*FormController
}

// NewSessionManager creates a session manager
func NewSessionManager(redis *redisclient.Client, repo ApplicationRepository, ttl time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		redis:       redis,
		repo:        repo,
		ttl:         ttl,
		logger:      logger,
		controllers: make(map[string]*FormController),
	}
}

// Controller returns the form controller for a session, creating it on
// first use. The language selects the validation message table.
func (m *SessionManager) Controller(ctx context.Context, sessionID, lang string) *FormController {
	if sessionID == "" {
		sessionID = "default"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.controllers[sessionID]; ok {
		return c
	}

	store := NewDraftStore(m.redis, draftSlotPrefix+sessionID, m.ttl, m.logger)
	c := NewFormController(ctx, store, m.repo, utils.MessagesFor(lang), m.logger)
	m.controllers[sessionID] = c
	return c
}

// Release drops a session's controller; its draft slot is untouched
func (m *SessionManager) Release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.controllers, sessionID)
}
