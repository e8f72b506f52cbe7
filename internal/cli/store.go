package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/storage/postgres"
	"github.com/julianstephens/tally/internal/storage/sqlite"
)

// IsPostgres reports whether config is a PostgreSQL URI or key=value DSN.
func IsPostgres(config string) bool {
	return postgres.IsConnString(config) || strings.Contains(config, "host=")
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// OpenStore picks a backend from config: a PostgreSQL connection string, a
// *.json file, or otherwise a SQLite database path. The store is not loaded.
// Passwords inside a connection string are only accepted from trusted
// sources (the keyring or the environment), never from a flag.
func OpenStore(config string, trusted bool) (storage.Provider, error) {
	if IsPostgres(config) {
		if _, err := postgres.ValidateConnString(config); err != nil {
			if stderrors.Is(err, postgres.ErrEmbeddedCredentials) {
				if trusted {
					return postgres.New(config), nil
				}
				return nil, fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed; " +
					"store the connection string with 'tally keyring set', export TALLY_DB_CONNECTION, or use .pgpass")
			}
			return nil, err
		}
		return postgres.New(config), nil
	}

	path, err := ExpandPath(config)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".json") {
		return storage.NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}
