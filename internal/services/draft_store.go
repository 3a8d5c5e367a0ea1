package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/models"
	"github.com/prefeitura-rio/app-social/internal/observability"
	"github.com/prefeitura-rio/app-social/internal/redisclient"
)

// DefaultDraftSlot is the fixed slot holding the active draft when no
// session is identified
const DefaultDraftSlot = "application:draft:default"

// DraftStore persists the in-progress draft to a single fixed Redis slot.
// Writes are best-effort: the edit path must never fail because the slot
// could not be written.
type DraftStore struct {
	redis  *redisclient.Client
	slot   string
	ttl    time.Duration
	logger *zap.Logger
}

// NewDraftStore creates a draft store bound to one slot key
func NewDraftStore(client *redisclient.Client, slot string, ttl time.Duration, logger *zap.Logger) *DraftStore {
	if slot == "" {
		slot = DefaultDraftSlot
	}
	return &DraftStore{
		redis:  client,
		slot:   slot,
		ttl:    ttl,
		logger: logger,
	}
}

// Slot returns the slot key this store writes to
func (s *DraftStore) Slot() string {
	return s.slot
}

// Save serializes the full draft (including current_step) and overwrites
// the slot. Failures are swallowed and only logged.
func (s *DraftStore) Save(ctx context.Context, draft *models.ApplicationDraft) {
	data, err := json.Marshal(draft)
	if err != nil {
		s.logger.Warn("failed to serialize draft", zap.String("slot", s.slot), zap.Error(err))
		observability.DraftSaves.WithLabelValues("error").Inc()
		return
	}

	if err := s.redis.Set(ctx, s.slot, data, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to write draft slot", zap.String("slot", s.slot), zap.Error(err))
		observability.DraftSaves.WithLabelValues("error").Inc()
		return
	}

	observability.DraftSaves.WithLabelValues("success").Inc()
}

// Load reads the slot. A missing value or one that fails to parse is
// treated as "no saved draft", never as an error.
func (s *DraftStore) Load(ctx context.Context) (*models.ApplicationDraft, bool) {
	data, err := s.redis.Get(ctx, s.slot).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to read draft slot", zap.String("slot", s.slot), zap.Error(err))
		}
		return nil, false
	}

	var draft models.ApplicationDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		s.logger.Warn("stored draft failed to parse, treating as empty",
			zap.String("slot", s.slot), zap.Error(err))
		return nil, false
	}

	return &draft, true
}

// Clear removes the slot. Clearing an empty slot is a no-op.
func (s *DraftStore) Clear(ctx context.Context) {
	if err := s.redis.Del(ctx, s.slot).Err(); err != nil {
		s.logger.Warn("failed to clear draft slot", zap.String("slot", s.slot), zap.Error(err))
	}
}
