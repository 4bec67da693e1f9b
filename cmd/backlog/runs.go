package main

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/backlog-forge/internal/app"
)

func (c *cli) runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recent pipeline runs, or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			if a.Runs == nil {
				return errors.New("run store is disabled; set STORE_DSN")
			}

			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return err
				}
				run, err := a.Runs.Get(ctx, id)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}

			runs, err := a.Runs.List(ctx, limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID.String(),
					string(r.Status),
					string(r.InputKind),
					r.Source,
					r.StartedAt.Local().Format(time.DateTime),
					r.ErrorCode,
				})
			}
			c.console.Table([]string{"ID", "STATUS", "KIND", "SOURCE", "STARTED", "ERROR"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	return cmd
}
