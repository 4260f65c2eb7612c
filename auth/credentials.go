// Package auth resolves Tencent Cloud access credentials and signs
// Cloud API requests with the TC3-HMAC-SHA256 scheme.
package auth

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// Default environment variable names holding the account access key.
const (
	EnvSecretID     = "TENCENTCLOUD_SECRETID"
	EnvSecretKey    = "TENCENTCLOUD_SECRETKEY"
	EnvSessionToken = "TENCENTCLOUD_SESSIONTOKEN"
)

var (
	// ErrNoSecret reports that a credential source resolved to an
	// empty secret ID or secret key.
	ErrNoSecret = errors.New("auth: secret id or secret key missing")
)

// Secret is the raw key material used to sign a request. Token is
// empty unless the credentials are temporary (STS session).
type Secret struct {
	ID    string
	Key   string
	Token string
}

func (s Secret) validate() error {
	if s.ID == "" || s.Key == "" {
		return ErrNoSecret
	}
	return nil
}

// Credentials yields the secret used to sign a request. Secret is
// called once per request, so dynamic sources (environment, metadata
// services) refresh naturally.
type Credentials interface {
	Secret() (Secret, error)
}

// NewCredentials returns static credentials for an explicit access key.
func NewCredentials(secretID, secretKey string) (*StaticCredentials, error) {
	return NewSessionCredentials(secretID, secretKey, "")
}

// NewSessionCredentials returns static credentials carrying a
// temporary session token.
func NewSessionCredentials(secretID, secretKey, sessionToken string) (*StaticCredentials, error) {
	c := &StaticCredentials{}
	if err := c.SetSecret(Secret{ID: secretID, Key: secretKey, Token: sessionToken}); err != nil {
		return nil, err
	}
	return c, nil
}

// StaticCredentials holds an explicitly supplied access key. The
// secret may be swapped at runtime with SetSecret; reads and writes
// are safe for concurrent use.
type StaticCredentials struct {
	mu     sync.RWMutex
	secret Secret
}

func (c *StaticCredentials) Secret() (Secret, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.secret, c.secret.validate()
}

// SetSecret replaces the access key material.
func (c *StaticCredentials) SetSecret(secret Secret) error {
	if err := secret.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.secret = secret
	c.mu.Unlock()
	return nil
}

// EnvironmentCredentials resolves the access key from environment
// variables on every request, so rotated process environments take
// effect without re-constructing the client.
type EnvironmentCredentials struct {
	// Variable names; zero values mean the TENCENTCLOUD_* defaults.
	SecretIDVar     string
	SecretKeyVar    string
	SessionTokenVar string
}

// NewEnvironmentCredentials returns environment-backed credentials
// using the default variable names. It fails fast when the mandatory
// variables are absent.
func NewEnvironmentCredentials() (*EnvironmentCredentials, error) {
	c := &EnvironmentCredentials{}
	if _, err := c.Secret(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *EnvironmentCredentials) Secret() (Secret, error) {
	idVar, keyVar, tokenVar := c.SecretIDVar, c.SecretKeyVar, c.SessionTokenVar
	if idVar == "" {
		idVar = EnvSecretID
	}
	if keyVar == "" {
		keyVar = EnvSecretKey
	}
	if tokenVar == "" {
		tokenVar = EnvSessionToken
	}

	id, ok := os.LookupEnv(idVar)
	if !ok {
		return Secret{}, fmt.Errorf("auth: missing environment variable %s", idVar)
	}
	key, ok := os.LookupEnv(keyVar)
	if !ok {
		return Secret{}, fmt.Errorf("auth: missing environment variable %s", keyVar)
	}

	secret := Secret{ID: id, Key: key, Token: os.Getenv(tokenVar)}
	return secret, secret.validate()
}
