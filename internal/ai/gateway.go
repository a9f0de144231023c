package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/divelog/internal/metrics"
	"github.com/kiranshivaraju/divelog/internal/store"
	"github.com/kiranshivaraju/divelog/pkg/models"
)

// InsightStore is the read/write port for stored insight records.
// Implementations return store.ErrNotFound when a dive has no record.
type InsightStore interface {
	GetDiveInsight(ctx context.Context, userID uuid.UUID, diveID string) ([]byte, error)
	SaveDiveInsight(ctx context.Context, userID uuid.UUID, diveID string, record []byte) error
}

// lookup returns the stored record when it matches fingerprint. Every
// failure is reported as a miss; the outcome string says which kind.
func (s *InsightService) lookup(ctx context.Context, userID uuid.UUID, diveID, fingerprint string, regenerate bool) (*models.StoredDiveInsight, string) {
	if regenerate {
		return nil, metrics.CacheBypass
	}

	raw, err := s.store.GetDiveInsight(ctx, userID, diveID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, metrics.CacheMiss
	}
	if err != nil {
		s.logger.Warn("reading stored insight failed", "dive_id", diveID, "error", err)
		return nil, metrics.CacheError
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		s.logger.Warn("stored insight is malformed", "dive_id", diveID, "error", err)
		return nil, metrics.CacheMalformed
	}
	if rec.Fingerprint != fingerprint {
		return nil, metrics.CacheStale
	}
	return rec, metrics.CacheHit
}

// persist overwrites the stored record. Failures are logged and swallowed.
func (s *InsightService) persist(ctx context.Context, userID uuid.UUID, diveID string, rec models.StoredDiveInsight) {
	data, err := json.Marshal(rec)
	if err == nil {
		err = s.store.SaveDiveInsight(ctx, userID, diveID, data)
	}
	if err != nil {
		s.metrics.PersistFailure()
		s.logger.Error("persisting insight failed", "dive_id", diveID, "error", err)
	}
}

// decodeRecord parses a stored record and rejects anything that could not
// have been written by persist.
func decodeRecord(raw []byte) (*models.StoredDiveInsight, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty record")
	}
	var rec models.StoredDiveInsight
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	switch {
	case rec.Fingerprint == "":
		return nil, errors.New("record has no fingerprint")
	case rec.Insight.Recap == "" || rec.Insight.DiveInsight.Text == "" || rec.Insight.DiveInsight.BaselineComparison == "":
		return nil, errors.New("record has an incomplete insight")
	}
	return &rec, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
