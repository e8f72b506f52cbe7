package backups

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/tally/internal/backup"
	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/logger"
)

func manager(ctx *cli.Context) (*backup.Manager, error) {
	path := ctx.Store.GetConfigPath()
	if !cli.IsSQLitePath(path) {
		return nil, fmt.Errorf("backups are only supported for SQLite storage")
	}
	return backup.NewManager(path), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Fprintf(ctx.Out, "✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	return ctx.Render(backups, func(w io.Writer) error {
		if len(backups) == 0 {
			fmt.Fprintln(w, "No backups found.")
			fmt.Fprintf(w, "Backups are stored in: %s\n", mgr.GetBackupDir())
			return nil
		}

		fmt.Fprintf(w, "Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
		for _, b := range backups {
			fmt.Fprintf(w, "  %s  %s  %-9s (%s)\n",
				b.Timestamp.Format(constants.DateFormat+" 15:04:05"), b.Name, humanize.Bytes(uint64(b.Size)), humanize.Time(b.Timestamp))
		}
		fmt.Fprintf(w, "\nBackup directory: %s\n", mgr.GetBackupDir())
		return nil
	})
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}

	// A bare name may live in the working directory or the backup directory.
	backupPath := c.BackupFile
	if _, err := os.Stat(backupPath); err != nil {
		backupPath = mgr.Resolve(c.BackupFile)
	}
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file not found: tried current directory and %s", mgr.GetBackupDir())
	}
	if abs, err := filepath.Abs(backupPath); err == nil {
		backupPath = abs
	}

	if !c.Yes {
		fmt.Fprintln(ctx.Out, "⚠️  WARNING: This will replace your current database with the backup.")
		fmt.Fprintln(ctx.Out, "⚠️  IMPORTANT: All tally processes (including the TUI) must be stopped before restore.")
		fmt.Fprintln(ctx.Out, "A backup of your current database will be created before restoring.")
		fmt.Fprintf(ctx.Out, "\nRestore from: %s\n", backupPath)
		fmt.Fprint(ctx.Out, "Continue? [y/N]: ")

		response, err := bufio.NewReader(ctx.In).ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(ctx.Out, "Restore cancelled.")
			return nil
		}
	}

	// Close the current store connection before restoring
	if err := ctx.Store.Close(); err != nil {
		logger.Warn("Failed to close database connection", "error", err)
	}

	safety, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.Engine.InvalidateAll(context.Background())

	if safety != "" {
		fmt.Fprintf(ctx.Out, "Previous database saved as: %s\n", filepath.Base(safety))
	}
	fmt.Fprintln(ctx.Out, "✓ Database restored successfully!")
	return nil
}
