package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"os"
	"sync"
)

// Authentication errors.
var (
	ErrAuthRequired      = errors.New("api: authentication required")
	ErrAuthTokenMismatch = errors.New("api: auth token mismatch")
)

// AuthConfig holds authentication configuration for the control server.
type AuthConfig struct {
	// Enabled determines if authentication is required.
	Enabled bool
	// Token is the secret bearer token clients must provide.
	Token string
}

// Authenticator validates bearer tokens on incoming requests, adapted
// from hierachain-engine/api/auth.go's Authenticator.
type Authenticator struct {
	config AuthConfig
	mu     sync.RWMutex
}

// NewAuthenticator creates a new Authenticator with the given config.
func NewAuthenticator(config AuthConfig) *Authenticator {
	return &Authenticator{config: config}
}

// NewAuthenticatorFromEnv creates an Authenticator from CONSENSUS_AUTH_ENABLED
// and CONSENSUS_AUTH_TOKEN environment variables, generating a random
// token if auth is enabled but none was provided.
func NewAuthenticatorFromEnv() *Authenticator {
	enabled := os.Getenv("CONSENSUS_AUTH_ENABLED") == "true" || os.Getenv("CONSENSUS_AUTH_ENABLED") == "1"
	token := os.Getenv("CONSENSUS_AUTH_TOKEN")

	if enabled && token == "" {
		token = GenerateToken()
	}

	return NewAuthenticator(AuthConfig{Enabled: enabled, Token: token})
}

// IsEnabled returns true if authentication is enabled.
func (a *Authenticator) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.Enabled
}

// GetToken returns the current auth token (for displaying to an operator).
func (a *Authenticator) GetToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.Token
}

// ValidateToken checks providedToken against the configured token using
// constant-time comparison to prevent timing attacks.
func (a *Authenticator) ValidateToken(providedToken string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.config.Enabled {
		return nil
	}
	if providedToken == "" {
		return ErrAuthRequired
	}
	if subtle.ConstantTimeCompare([]byte(a.config.Token), []byte(providedToken)) != 1 {
		return ErrAuthTokenMismatch
	}
	return nil
}

// GenerateToken generates a cryptographically secure random token.
func GenerateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "consensus-default-token-change-me"
	}
	return hex.EncodeToString(b)
}
