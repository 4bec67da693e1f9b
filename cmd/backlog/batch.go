package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/backlog-forge/internal/app"
	"github.com/joseph-ayodele/backlog-forge/internal/async"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/ingest"
	"github.com/joseph-ayodele/backlog-forge/internal/pipeline"
)

func (c *cli) batchCmd() *cobra.Command {
	var (
		dir     string
		out     string
		format  string
		workers int
		timeout time.Duration
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate one backlog per file in a directory",
		Long: "Scans a directory for supported files and runs each one through the pipeline on a bounded worker pool.\n" +
			"With --watch it keeps running and processes files as they appear.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("--dir is required")
			}
			dir = filepath.Clean(dir)
			if out == "" {
				out = filepath.Join(filepath.Dir(dir), filepath.Base(dir)+"-backlog")
			}

			ctx := cmd.Context()
			a, err := c.newApp(ctx, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			if workers <= 0 {
				workers = a.Config.Pipeline.BatchWorkers
			}
			if timeout <= 0 {
				timeout = a.Config.Pipeline.BatchTimeout
			}

			b := &batch{cli: c, app: a, outDir: out, format: format}
			q := async.NewProcessorQueue(a.Processor, c.logger,
				async.WithWorkers(workers),
				async.WithQueueSize(workers*4),
				async.WithProcessTimeout(timeout),
				async.WithResultHandler(b.handle),
			)

			cands, stats, err := ingest.ScanDirectory(dir, nil, true)
			if err != nil {
				q.Shutdown(context.Background())
				return err
			}
			c.console.Title("Batch %s → %s", dir, out)
			c.console.Info("Found %d files (%d scanned, %d skipped)", stats.Matched, stats.Scanned, stats.Skipped)

			for _, cand := range cands {
				if b.isOutput(cand.Path) {
					continue
				}
				b.submit(ctx, q, cand.Path)
			}

			if watch {
				if err := b.watch(ctx, q, dir); err != nil {
					q.Shutdown(context.Background())
					return err
				}
			}

			q.Shutdown(context.Background())
			return b.summary()
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to process (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory (default: <dir>-backlog next to dir)")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown, xlsx or json")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent pipeline runs (default BATCH_WORKERS)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-file timeout (default BATCH_TIMEOUT)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep watching the directory for new files")
	return cmd
}

// batch tracks one batch invocation. Results arrive on worker goroutines.
type batch struct {
	cli    *cli
	app    *app.App
	outDir string
	format string

	mu        sync.Mutex
	submitted int
	done      int
	failed    int
}

func (b *batch) submit(ctx context.Context, q async.Queue, path string) {
	f, err := ingest.LoadFile(path, b.app.Config.MaxUploadBytes())
	if err != nil {
		b.cli.console.Warn("skipping %s: %v", path, err)
		return
	}
	b.mu.Lock()
	b.submitted++
	b.mu.Unlock()

	job := async.Job{Label: path, Input: pipeline.Input{File: &f}, SubmittedAt: time.Now()}
	if err := q.Enqueue(ctx, job); err != nil {
		b.mu.Lock()
		b.submitted--
		b.mu.Unlock()
		b.cli.console.Warn("not queued %s: %v", path, err)
	}
}

func (b *batch) handle(r async.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done++

	if r.Err != nil {
		b.failed++
		b.cli.console.Error("[%d/%d] %s: %s", b.done, b.submitted, r.Job.Label, common.UserMessage(r.Err))
		return
	}
	doc, err := b.app.Exporter.Render(context.Background(), b.format, r.Backlog)
	if err == nil {
		base := strings.TrimSuffix(filepath.Base(r.Job.Label), filepath.Ext(r.Job.Label))
		path := filepath.Join(b.outDir, base+filepath.Ext(doc.Filename))
		if err = writeDocument(doc, path, nil); err == nil {
			b.cli.console.Progress(b.done, b.submitted, fmt.Sprintf("%s → %s (%s)", r.Job.Label, path, r.Elapsed.Round(time.Millisecond)))
			return
		}
	}
	b.failed++
	b.cli.console.Error("[%d/%d] %s: %v", b.done, b.submitted, r.Job.Label, err)
}

// watch feeds new files into q until ctx is cancelled.
func (b *batch) watch(ctx context.Context, q async.Queue, dir string) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:      []string{dir},
		SkipHidden: true,
		Debounce:   500 * time.Millisecond,
	}, b.cli.logger)
	if err != nil {
		return err
	}
	b.cli.console.Info("Watching %s (Ctrl+C to stop)", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if !b.isOutput(path) {
				b.submit(ctx, q, path)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			b.cli.console.Warn("watcher: %v", err)
		}
	}
}

func (b *batch) isOutput(path string) bool {
	rel, err := filepath.Rel(b.outDir, path)
	return err == nil && !strings.HasPrefix(rel, "..")
}

func (b *batch) summary() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cli.console.Separator()
	b.cli.console.Info("Processed: %d", b.done)
	if b.failed > 0 {
		b.cli.console.Error("Failures: %d", b.failed)
		return fmt.Errorf("%d of %d files failed", b.failed, b.done)
	}
	b.cli.console.Success("All files processed")
	return nil
}
