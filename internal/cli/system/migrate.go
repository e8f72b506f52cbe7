package system

import (
	"fmt"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/storage"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	migrator, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return fmt.Errorf("migrate command only supports SQLite and PostgreSQL storage")
	}
	defer ctx.Store.Close()

	count, err := migrator.Migrate(func(msg string) {
		fmt.Fprintln(ctx.Out, msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Fprintln(ctx.Out, "No migrations to apply. Database is up to date.")
	} else {
		fmt.Fprintf(ctx.Out, "\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
