package loader

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// APIKey summarises the claims of a repository API key. API keys are JWTs;
// the signature is not verified here, only the payload is read so the CLI
// can warn about expired or malformed keys before contacting the endpoint.
type APIKey struct {
	Login     string         `json:"login,omitempty" yaml:"login,omitempty"`
	KeyID     string         `json:"api_key_id,omitempty" yaml:"api_key_id,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Header    map[string]any `json:"header" yaml:"header"`
	Claims    map[string]any `json:"claims" yaml:"claims"`
}

// Expired reports whether the key carries an expiry that lies before now.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// IsJWT detects if input looks like a JWT token.
// A valid JWT has exactly 3 dot-separated parts where the first two
// are valid base64url-encoded JSON objects.
func IsJWT(input string) bool {
	parts, ok := jwtParts(input)
	if !ok {
		return false
	}
	for i := 0; i < 2; i++ {
		if _, err := decodeSegment(parts[i]); err != nil {
			return false
		}
	}
	_, err := base64.RawURLEncoding.DecodeString(parts[2])
	return err == nil
}

// DecodeAPIKey decodes the header and payload of a JWT API key.
func DecodeAPIKey(input string) (*APIKey, error) {
	parts, ok := jwtParts(input)
	if !ok {
		return nil, fmt.Errorf("invalid API key: expected 3 non-empty dot-separated parts")
	}
	header, err := decodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid API key header: %w", err)
	}
	claims, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid API key payload: %w", err)
	}

	key := &APIKey{Header: header, Claims: claims}
	key.Login = stringClaim(claims, "login", "sub")
	key.KeyID = stringClaim(claims, "api_key_id", "jti")
	if exp, ok := claims["exp"].(float64); ok {
		t := time.Unix(int64(exp), 0).UTC()
		key.ExpiresAt = &t
	}
	return key, nil
}

func jwtParts(input string) ([]string, bool) {
	input = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), "Bearer "))
	parts := strings.Split(input, ".")
	if len(parts) != 3 {
		return nil, false
	}
	for _, part := range parts {
		if part == "" {
			return nil, false
		}
	}
	return parts, true
}

func decodeSegment(segment string) (map[string]any, error) {
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func stringClaim(claims map[string]any, names ...string) string {
	for _, name := range names {
		if s, ok := claims[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
