// Package authutil generates the opaque secrets handed out by the connector.
package authutil

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	sessionTokenBytes = 48
	stateBytes        = 24
)

// GenerateToken generates a URL-safe session token from 48 random bytes.
//
// Example:
//
//	0E3ZZhnnBENG9oz8IeIzbFx0EzyXa_pEK32kjWaZVtliD1SOXsA2gHGeSfwOu_8i
func GenerateToken() (string, error) {
	return generate(sessionTokenBytes)
}

// GenerateState generates the URL-safe state parameter of an OAuth login.
// It is shorter than a session token since it lives in the authorization URL.
func GenerateState() (string, error) {
	return generate(stateBytes)
}

func generate(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
