package analysis

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/kiranshivaraju/divelog/pkg/models"
)

// FingerprintInput is everything that determines a generated insight.
type FingerprintInput struct {
	Dive          models.DiveContext     `json:"dive"`
	Profile       models.DiverProfile    `json:"profile"`
	Metrics       models.ComputedMetrics `json:"metrics"`
	Signals       []models.Signal        `json:"signals"`
	PromptVersion string                 `json:"prompt_version"`
	Model         string                 `json:"model"`
}

// Fingerprint computes a stable SHA-256 fingerprint over the canonical JSON
// encoding of in.
func Fingerprint(in FingerprintInput) (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encoding fingerprint input: %w", err)
	}
	canonical, err := Canonicalize(data)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(canonical)
	return fmt.Sprintf("%x", hash), nil
}

// Canonicalize re-encodes a JSON document with object keys sorted and
// insignificant whitespace removed, so logically equal documents produce
// identical bytes.
func Canonicalize(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding for canonical form: %w", err)
	}
	// encoding/json writes map keys in sorted order.
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding canonical form: %w", err)
	}
	return out, nil
}
