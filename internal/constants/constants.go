package constants

import "time"

const (
	AppName           = "tally"
	Version           = "v0.3.0"
	DefaultConfigPath = "~/.config/tally/tally.db"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Environment variables
	EnvConfig       = "TALLY_CONFIG"
	EnvDBConnection = "TALLY_DB_CONNECTION"
	EnvCacheURL     = "TALLY_CACHE_URL"

	// Keyring
	DefaultKeyringUser = "database-connection"
	CacheKeyringUser   = "cache-url"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "tally-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "tally-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.tally"
	TrayExecutablePrefix   = "tally-tray"

	// StreakScanWindow is the number of days fetched per range query while
	// walking a streak backwards.
	StreakScanWindow = 64

	// MonthlyStatsCacheTTL bounds how long a closed month's aggregate is cached.
	MonthlyStatsCacheTTL = 30 * 24 * time.Hour
)

func init() {
	if StreakScanWindow < 1 {
		panic("StreakScanWindow must be positive")
	}
}
