package system

import (
	"fmt"
	"io"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/validation"
)

type ValidateCmd struct {
	Archived bool `help:"Include archived habits." default:"true" negatable:""`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.ListHabits(c.Archived)
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}

	result := validation.New().ValidateHabits(habits)
	if err := ctx.Render(result.Conflicts, func(w io.Writer) error {
		_, err := fmt.Fprint(w, result.FormatReport())
		if !result.HasConflicts() {
			fmt.Fprintln(w)
		}
		return err
	}); err != nil {
		return err
	}
	return cli.Classify(result.Err())
}
