package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/divelog/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	// GetDiveInsight returns the raw ai_insight JSON for a dive, or
	// ErrNotFound when the dive has no stored insight.
	GetDiveInsight(ctx context.Context, userID uuid.UUID, diveID string) ([]byte, error)
	// SaveDiveInsight overwrites the ai_insight column, creating the dive row
	// if it does not exist yet.
	SaveDiveInsight(ctx context.Context, userID uuid.UUID, diveID string, record []byte) error
}
