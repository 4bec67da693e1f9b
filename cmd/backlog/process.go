package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/backlog-forge/internal/app"
	"github.com/joseph-ayodele/backlog-forge/internal/ingest"
	"github.com/joseph-ayodele/backlog-forge/internal/pipeline"
)

func (c *cli) processCmd() *cobra.Command {
	var (
		boardRef string
		file     string
		format   string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Generate a backlog from one board or file",
		Example: `  backlog process --board https://miro.com/app/board/uXjVO8k9aBc=/
  backlog process --file notes.md --format xlsx --out discovery.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			var in pipeline.Input
			switch {
			case file != "" && boardRef != "":
				return errors.New("only one of --file or --board should be provided")
			case file != "":
				f, err := ingest.LoadFile(file, a.Config.MaxUploadBytes())
				if err != nil {
					return err
				}
				in.File = &f
			case boardRef != "":
				in.BoardRef = boardRef
			default:
				return errors.New("either --file or --board must be provided")
			}

			b, err := a.Processor.Process(ctx, in, func(st pipeline.Status) {
				c.console.Status(st.Step, st.Message, st.Progress)
			})
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
				c.console.Success("Wrote %s (%d epics, %d stories, %d risks)", out, len(b.Epics), b.StoryCount(), len(b.Risks))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&boardRef, "board", "b", "", "Miro board URL or id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Image, PDF, JSON or text file")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown, xlsx or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path, '-' for stdout (default: derived from the project title)")
	return cmd
}
