package cli

import (
	"context"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
)

// reloadDelay lets the file system settle before a changed document is read.
const reloadDelay = 100 * time.Millisecond

type playResult struct {
	step domain.Step
	err  error
}

// RunWatch plays a dialogue in development mode, restarting it from the
// root whenever a document changes. The runtime blackboard survives reloads.
func RunWatch(opts RunOptions) error {
	logger := NewLogger(opts.Config.Level(), opts.Debug)
	tui.PrintBanner(opts.Out, parley.Version)

	signals := runner.NewSignalManager(context.Background())
	defer signals.Stop()
	ctx := signals.Context()

	engine, err := NewEngine(ctx, opts.Config, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	events, err := engine.Watch(ctx)
	if err != nil {
		return err
	}

	// One presenter for every iteration, so there is a single stdin pump.
	presenter := newPresenter(false, opts.In, opts.Out)
	signals.CloseOn(presenter.Closed())
	r := runner.NewRunner(presenter, runner.WithLogger(logger))

	logger.Info("starting watcher", "path", opts.Config.Docs)
	printSystemMessage("Watching '%s'.", opts.Config.Docs)

	first := true
	for {
		doc, err := loadEntryDocument(ctx, engine, opts, logger)
		if err != nil {
			logger.Error("document load failed", "err", err)
			printSystemMessage("Cannot load document: %v", err)
		} else {
			if first && opts.Fresh {
				if err := engine.ClearRuntimeState(ctx, doc); err != nil {
					logger.Warn("failed to reset runtime state", "err", err)
				}
			}
			first = false

			res, reloaded := playUntilChange(ctx, r, engine, doc, events)
			if reloaded {
				time.Sleep(reloadDelay)
				continue
			}
			logCompletion(res.step, res.err, false, signals)
			if ctx.Err() != nil {
				return handleExecutionError(res.err)
			}
		}

		printSystemMessage("Waiting for changes...")
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-events:
			if !ok {
				return nil
			}
			printSystemMessage("Change detected in '%s'.", changed)
			time.Sleep(reloadDelay)
		}
	}
}

// playUntilChange plays doc and reports whether a document change cut it short.
func playUntilChange(ctx context.Context, r *runner.Runner, engine *Engine, doc *domain.Document, events <-chan string) (playResult, bool) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan playResult, 1)
	go func() {
		step, err := r.Play(runCtx, engine, doc)
		done <- playResult{step: step, err: err}
	}()

	select {
	case res := <-done:
		return res, false
	case changed, ok := <-events:
		cancel()
		res := <-done
		if !ok {
			return res, false
		}
		printSystemMessage("Change detected in '%s'.", changed)
		return res, true
	}
}
