package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/backlog-forge/internal/app"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/export"
	"github.com/joseph-ayodele/backlog-forge/internal/utils"
)

// cli carries the flags and output shared by every subcommand.
type cli struct {
	envFile string
	verbose bool
	noColor bool

	console *utils.Console
	logger  *slog.Logger
}

func main() {
	c := &cli{console: utils.NewConsole(os.Stdout)}

	rootCmd := &cobra.Command{
		Use:           "backlog",
		Short:         "Turn whiteboards and documents into a structured product backlog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.noColor || !utils.IsTerminal() {
				utils.DisableColor()
			}
			level := "warn"
			if c.verbose {
				level = "debug"
			}
			c.logger = app.NewLogger(os.Stderr, level, false)
			slog.SetDefault(c.logger)
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.envFile, "env", ".env", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log pipeline events to stderr")
	rootCmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		c.processCmd(),
		c.boardsCmd(),
		c.exportCmd(),
		c.batchCmd(),
		c.runsCmd(),
		c.extractCmd(),
		c.dbHealthCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		c.console.Error("%s", common.UserMessage(err))
		for _, is := range common.IssuesOf(err) {
			c.console.Warn("%s", is.String())
		}
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the optional env file and then the environment.
func (c *cli) loadConfig() (*common.Config, error) {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", c.envFile, err)
		}
	}
	return common.LoadConfig()
}

func (c *cli) newApp(ctx context.Context, opts app.Options) (*app.App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, c.logger, opts)
}

// writeDocument writes doc to path, or to stdout when path is "-".
func writeDocument(doc export.Document, path string, stdout io.Writer) error {
	if path == "-" {
		_, err := stdout.Write(doc.Data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, doc.Data, 0o644)
}
