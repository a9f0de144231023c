// Package apikey issues bearer credentials for divers' client apps.
package apikey

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/divelog/internal/store"
	"github.com/kiranshivaraju/divelog/pkg/models"
)

const (
	// Prefix marks every raw key so leaked keys are easy to recognise.
	Prefix = "dl_"
	// PrefixLen must match the length the auth middleware looks keys up by.
	PrefixLen = 8

	secretBytes = 24
	maxNameLen  = 100
)

var ErrInvalidName = errors.New("key name must be 1-100 characters")

// Issue creates and stores a new key for userID. The raw key is returned
// once and never persisted.
func Issue(ctx context.Context, s store.Store, userID uuid.UUID, name string) (string, *models.APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return "", nil, ErrInvalidName
	}

	raw, err := generate()
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hashing key: %w", err)
	}

	now := time.Now().UTC()
	key := &models.APIKey{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:PrefixLen],
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateAPIKey(ctx, key); err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}
	return raw, key, nil
}

func generate() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return Prefix + hex.EncodeToString(buf), nil
}
