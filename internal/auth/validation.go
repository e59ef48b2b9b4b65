package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	minAPIKeyLength = 24
	maxAPIKeyLength = 128
)

// ValidateAPIKey rejects keys that are too short, too long or trivially weak
func ValidateAPIKey(key string) error {
	if len(key) < minAPIKeyLength {
		return fmt.Errorf("api key must be at least %d characters long", minAPIKeyLength)
	}

	// Argon2 and bcrypt inputs are bounded
	if len(key) > maxAPIKeyLength {
		return fmt.Errorf("api key must be at most %d characters long", maxAPIKeyLength)
	}

	if isRepeatingChar(key) {
		return fmt.Errorf("api key cannot be a single repeating character")
	}

	return nil
}

// GenerateAPIKey returns a random URL-safe admin API key
func GenerateAPIKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// isRepeatingChar checks if s is just the same character repeated
func isRepeatingChar(s string) bool {
	if len(s) == 0 {
		return false
	}
	runes := []rune(s)
	first := runes[0]
	for _, r := range runes[1:] {
		if r != first {
			return false
		}
	}
	return true
}
