// Package keyring keeps secrets in the OS keyring: the PostgreSQL
// connection string and the Google Calendar OAuth token.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitline/internal/constants"
)

var (
	// ErrNotFound is returned when no secret is stored under the requested slot.
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available.
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	secret, err := keyring.Get(constants.AppName, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func set(user, secret, what string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, user, secret); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(user string) error {
	err := keyring.Delete(constants.AppName, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// GetConnectionString returns the stored PostgreSQL connection string.
func GetConnectionString() (string, error) { return get(constants.DefaultKeyringUser) }

// SetConnectionString stores the PostgreSQL connection string.
func SetConnectionString(connStr string) error {
	return set(constants.DefaultKeyringUser, connStr, "connection string")
}

// DeleteConnectionString removes the PostgreSQL connection string.
func DeleteConnectionString() error { return del(constants.DefaultKeyringUser) }

// GetOAuthToken returns the serialized Google OAuth token.
func GetOAuthToken() (string, error) { return get(constants.OAuthKeyringUser) }

// SetOAuthToken stores the serialized Google OAuth token.
func SetOAuthToken(token string) error {
	return set(constants.OAuthKeyringUser, token, "OAuth token")
}

// DeleteOAuthToken forgets the Google OAuth token.
func DeleteOAuthToken() error { return del(constants.OAuthKeyringUser) }

// IsAvailable is a best-effort check that the OS keyring can be read.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
