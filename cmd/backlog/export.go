package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/backlog-forge/internal/app"
)

func (c *cli) exportCmd() *cobra.Command {
	var (
		in     string
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a saved backlog JSON as markdown, xlsx or json",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if in == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(in)
			}
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := c.newApp(ctx, app.Options{SkipStore: true})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			b, err := a.Validator.ValidateJSON(data)
			if err != nil {
				return err
			}
			doc, err := a.Exporter.Render(ctx, format, b)
			if err != nil {
				return err
			}
			if out == "" {
				out = doc.Filename
			}
			if err := writeDocument(doc, out, os.Stdout); err != nil {
				return err
			}
			if out != "-" {
				c.console.Success("Wrote %s", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "Backlog JSON file, '-' for stdin")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown, xlsx or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path, '-' for stdout")
	return cmd
}
