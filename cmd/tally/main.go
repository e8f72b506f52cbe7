package main

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/tally/internal/cache"
	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/cli/backups"
	"github.com/julianstephens/tally/internal/cli/checkins"
	"github.com/julianstephens/tally/internal/cli/habits"
	"github.com/julianstephens/tally/internal/cli/settings"
	"github.com/julianstephens/tally/internal/cli/stats"
	"github.com/julianstephens/tally/internal/cli/system"
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/keyring"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/metrics"
	"github.com/julianstephens/tally/internal/notifier"
	"github.com/julianstephens/tally/internal/storage"
)

var CLI struct {
	Version     kong.VersionFlag
	Config      string `help:"Database path (*.db SQLite, *.json file) or PostgreSQL connection string. Credentials must NOT be embedded; use TALLY_DB_CONNECTION, the OS keyring or .pgpass instead." type:"string" default:"${default_config}" env:"TALLY_CONFIG"`
	Output      string `help:"Output format." short:"o" enum:"text,json,yaml" default:"text"`
	Debug       bool   `help:"Log debug output to stderr."`
	LogLevel    string `help:"Log level (debug, info, warn, error)." name:"log-level"`
	MetricsFile string `help:"Write Prometheus metrics to this file on exit." name:"metrics-file" type:"path"`
	CacheURL    string `help:"Redis URL for the monthly statistics cache." name:"cache-url" env:"TALLY_CACHE_URL"`

	Init     system.InitCmd     `cmd:"" help:"Initialize tally storage."`
	Migrate  system.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Validate system.ValidateCmd `cmd:"" help:"Validate habits for conflicts."`
	Tui      system.TuiCmd      `cmd:"" help:"Launch the interactive TUI." default:"1"`

	Habit    habits.HabitCmd     `cmd:"" help:"Manage habits."`
	Checkin  checkins.CheckinCmd `cmd:"" help:"Toggle a habit's check-in for a day."`
	Retro    checkins.RetroCmd   `cmd:"" help:"Record a check-in for a past day."`
	Value    checkins.ValueCmd   `cmd:"" help:"Record a value for a numeric habit."`

	Streak       stats.StreakCmd       `cmd:"" help:"Show a habit's current and longest streak."`
	Stats        stats.StatsCmd        `cmd:"" help:"Show weekly or monthly statistics."`
	Calendar     stats.CalendarCmd     `cmd:"" help:"Show a habit's monthly heat-map."`
	Achievements stats.AchievementsCmd `cmd:"" help:"Show achievement progress."`
	Rank         stats.RankCmd         `cmd:"" help:"Rank habits by current streak."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Keyring  system.KeyringCmd    `cmd:"" help:"Manage secrets in the OS keyring."`
	DebugCmd system.DebugCmd      `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Notify   system.NotifyCmd     `cmd:"" hidden:"" help:"Announce new achievements (used internally)."`
}

func main() {
	loadEnv()

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit check-ins, streaks and statistics"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir(CLI.Config),
		Level:     CLI.LogLevel,
	}); err != nil {
		errors.Fatal(err)
	}

	command := strings.Fields(ctx.Command())[0]
	logger.Debug("Starting", "command", ctx.Command(), "version", constants.Version)

	store, err := resolveStore()
	if err != nil {
		errors.Fatal(err)
	}

	// init creates the store; migrate and doctor open it themselves
	needsLoad := command != "init" && command != "migrate" && command != "doctor" && command != "keyring"
	opts := cli.Options{Output: CLI.Output}
	if needsLoad {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
		current, err := store.GetSettings()
		if err != nil {
			store.Close()
			errors.Fatal(err)
		}
		opts.Location = cli.LoadLocation(current.Timezone)
		if current.NotificationsEnabled && command != "notify" {
			opts.OnUnlock = notifier.New().UnlockHook(context.Background())
		}
	}

	c := resolveCache()
	opts.Cache = c
	opts.Metrics = metrics.New()

	appCtx := cli.NewContext(store, opts)
	err = ctx.Run(appCtx)

	if CLI.MetricsFile != "" {
		if werr := opts.Metrics.WriteTextfile(CLI.MetricsFile); werr != nil {
			logger.Warn("Failed to write metrics", "path", CLI.MetricsFile, "error", werr)
		}
	}
	if cerr := c.Close(); cerr != nil {
		logger.Warn("Failed to close cache", "error", cerr)
	}
	if cerr := store.Close(); cerr != nil {
		logger.Debug("Failed to close store", "error", cerr)
	}

	errors.Fatal(cli.Classify(err))
}

// loadEnv reads .env from the working directory and the default config
// directory. Variables already set in the environment win.
func loadEnv() {
	paths := []string{".env"}
	if dir, err := cli.ExpandPath(filepath.Dir(constants.DefaultConfigPath)); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		// logger is not initialized yet; a broken .env must not block the CLI
		_ = godotenv.Load(p)
	}
}

// configDir is where logs are written: next to a file store, or the default
// config directory for PostgreSQL.
func configDir(config string) string {
	if !cli.IsPostgres(config) {
		if path, err := cli.ExpandPath(config); err == nil {
			return filepath.Dir(path)
		}
	}
	dir, err := cli.ExpandPath(filepath.Dir(constants.DefaultConfigPath))
	if err != nil {
		return os.TempDir()
	}
	return dir
}

// resolveStore picks the database in order: TALLY_DB_CONNECTION, the keyring
// (only when --config was left at its default), then --config.
func resolveStore() (storage.Provider, error) {
	if conn := os.Getenv(constants.EnvDBConnection); conn != "" {
		logger.Debug("Using database connection from environment")
		return cli.OpenStore(conn, true)
	}

	if CLI.Config == constants.DefaultConfigPath {
		conn, err := keyring.Get(keyring.DatabaseConnection)
		switch {
		case err == nil && conn != "":
			logger.Debug("Using database connection from keyring")
			return cli.OpenStore(conn, true)
		case err != nil && !stderrors.Is(err, keyring.ErrNotFound):
			logger.Debug("Keyring lookup failed", "error", err)
		}
	}

	return cli.OpenStore(CLI.Config, false)
}

// resolveCache connects to Redis when a URL is configured and falls back to
// the in-process cache otherwise.
func resolveCache() cache.Cache {
	url := CLI.CacheURL
	if url == "" {
		if v, err := keyring.Get(keyring.CacheURL); err == nil {
			url = v
		}
	}
	if url == "" {
		return cache.NewMemory()
	}

	r, err := cache.NewRedis(context.Background(), url)
	if err != nil {
		logger.Warn("Redis cache unavailable, using in-memory cache", "error", err)
		return cache.NewMemory()
	}
	return r
}
