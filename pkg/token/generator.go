package token

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
)

const (
	// DefaultLength is the number of random bytes in a token body.
	DefaultLength = 32

	AccessPrefix  = "sttk_"
	RefreshPrefix = "strt_"
)

// Generate returns DefaultLength random bytes, Base64 RawURL encoded.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a token body with the specified byte length.
func GenerateWithLength(length int) (string, error) {
	b, err := GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateBytes generates random bytes.
func GenerateBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewAccessToken returns a fresh access token.
func NewAccessToken() (string, error) {
	return withPrefix(AccessPrefix)
}

// NewRefreshToken returns a fresh refresh token.
func NewRefreshToken() (string, error) {
	return withPrefix(RefreshPrefix)
}

// IsAccessToken reports whether s has the access-token shape.
func IsAccessToken(s string) bool {
	return strings.HasPrefix(s, AccessPrefix) && len(s) == len(AccessPrefix)+43
}

func withPrefix(prefix string) (string, error) {
	body, err := Generate()
	if err != nil {
		return "", err
	}
	return prefix + body, nil
}
