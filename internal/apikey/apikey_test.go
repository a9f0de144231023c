package apikey_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/divelog/internal/apikey"
	"github.com/kiranshivaraju/divelog/internal/store"
	"github.com/kiranshivaraju/divelog/pkg/models"
)

type keyStore struct {
	store.Store
	created []*models.APIKey
	err     error
}

func (s *keyStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, key)
	return nil
}

func TestIssue(t *testing.T) {
	s := &keyStore{}
	userID := uuid.New()

	raw, key, err := apikey.Issue(context.Background(), s, userID, "  logbook app ")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, apikey.Prefix))
	assert.Len(t, raw, len(apikey.Prefix)+48)
	assert.Equal(t, raw[:apikey.PrefixLen], key.KeyPrefix)
	assert.Equal(t, "logbook app", key.Name)
	assert.Equal(t, userID, key.UserID)
	assert.False(t, key.CreatedAt.IsZero())
	assert.NotContains(t, key.KeyHash, raw)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(raw)))

	require.Len(t, s.created, 1)
	assert.Same(t, key, s.created[0])
}

func TestIssue_UniqueKeys(t *testing.T) {
	s := &keyStore{}
	a, _, err := apikey.Issue(context.Background(), s, uuid.New(), "a")
	require.NoError(t, err)
	b, _, err := apikey.Issue(context.Background(), s, uuid.New(), "b")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIssue_InvalidName(t *testing.T) {
	for _, name := range []string{"", "   ", strings.Repeat("x", 101)} {
		_, _, err := apikey.Issue(context.Background(), &keyStore{}, uuid.New(), name)
		assert.ErrorIs(t, err, apikey.ErrInvalidName)
	}
}

func TestIssue_StoreError(t *testing.T) {
	_, _, err := apikey.Issue(context.Background(), &keyStore{err: errors.New("db down")}, uuid.New(), "app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storing key")
}
