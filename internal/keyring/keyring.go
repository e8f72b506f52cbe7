// Package keyring keeps connection secrets (the PostgreSQL connection string
// and the Redis cache URL) in the OS keyring.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/tally/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Secret names an entry stored under the application's keyring service.
type Secret string

const (
	DatabaseConnection Secret = constants.DefaultKeyringUser
	CacheURL           Secret = constants.CacheKeyringUser
)

// Secrets lists every entry the application may store.
var Secrets = []Secret{DatabaseConnection, CacheURL}

// ParseSecret maps a CLI name such as "database-connection" to a Secret.
func ParseSecret(name string) (Secret, error) {
	for _, s := range Secrets {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown secret %q (expected one of %v)", name, Secrets)
}

// Get retrieves a secret. Returns ErrNotFound if nothing is stored.
func Get(s Secret) (string, error) {
	value, err := keyring.Get(constants.AppName, string(s))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

// Set stores a secret, replacing any previous value.
func Set(s Secret, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", s)
	}
	if err := keyring.Set(constants.AppName, string(s), value); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// Delete removes a secret.
func Delete(s Secret) error {
	if err := keyring.Delete(constants.AppName, string(s)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string.
func GetConnectionString() (string, error) {
	return Get(DatabaseConnection)
}

// SetConnectionString stores the database connection string.
func SetConnectionString(connStr string) error {
	return Set(DatabaseConnection, connStr)
}

// DeleteConnectionString removes the database connection string.
func DeleteConnectionString() error {
	return Delete(DatabaseConnection)
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	// ErrNotFound means the keyring answered and is merely empty
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
