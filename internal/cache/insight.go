package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// InsightBackend is the durable home of insight records.
type InsightBackend interface {
	GetDiveInsight(ctx context.Context, userID uuid.UUID, diveID string) ([]byte, error)
	SaveDiveInsight(ctx context.Context, userID uuid.UUID, diveID string, record []byte) error
}

// InsightStore mirrors insight records from a backend into the cache.
// Reads try the cache first; cache failures fall through to the backend.
// Writes go to the backend first and are only mirrored once it succeeds.
// Read fills never replace an entry, so a concurrent write wins over a fill
// carrying the record it replaced.
type InsightStore struct {
	backend InsightBackend
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
}

func NewInsightStore(backend InsightBackend, c Cache, ttl time.Duration, logger *slog.Logger) *InsightStore {
	return &InsightStore{
		backend: backend,
		cache:   c,
		ttl:     ttl,
		logger:  logger.With("component", "insight_cache"),
	}
}

func (s *InsightStore) GetDiveInsight(ctx context.Context, userID uuid.UUID, diveID string) ([]byte, error) {
	key := DiveInsightKey(userID, diveID)

	val, found, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.logger.Warn("cache read failed", "key", key, "error", err)
	case found:
		return val, nil
	}

	raw, err := s.backend.GetDiveInsight(ctx, userID, diveID)
	if err != nil {
		return nil, err
	}
	if _, err := s.cache.SetNX(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("cache fill failed", "key", key, "error", err)
	}
	return raw, nil
}

func (s *InsightStore) SaveDiveInsight(ctx context.Context, userID uuid.UUID, diveID string, record []byte) error {
	if err := s.backend.SaveDiveInsight(ctx, userID, diveID, record); err != nil {
		return err
	}

	key := DiveInsightKey(userID, diveID)
	if err := s.cache.Set(ctx, key, record, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
		// A previous mirror must not outlive the record it copied.
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("cache invalidation failed", "key", key, "error", err)
		}
	}
	return nil
}
