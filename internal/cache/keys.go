package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

func DiveInsightKey(userID uuid.UUID, diveID string) string {
	return fmt.Sprintf("dive:insight:%s:%s", userID, diveID)
}
