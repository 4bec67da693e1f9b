package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/backlog-forge/internal/app"
)

func (c *cli) boardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List boards available from the configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx, app.Options{SkipStore: true})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			boards, err := a.Boards.ListBoards(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(boards))
			for _, b := range boards {
				modified := ""
				if !b.LastModified.IsZero() {
					modified = b.LastModified.Format(time.DateOnly)
				}
				rows = append(rows, []string{b.ID, b.Name, modified})
			}
			c.console.Title("Boards (%s)", a.BoardMode)
			c.console.Table([]string{"ID", "NAME", "MODIFIED"}, rows)
			return nil
		},
	}
}
