package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Runner drives a dialogue engine through a Presenter: it presents every
// suspension point, waits for the presenter's callback (or a timer) and resumes
// the engine until the session ends.
type Runner struct {
	// Presenter shows speech and options. Required.
	Presenter ports.Presenter

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// after creates timer channels; replaced in tests.
	after func(time.Duration) (<-chan time.Time, func())
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// NewRunner creates a Runner bound to the given presenter.
func NewRunner(presenter ports.Presenter, opts ...Option) *Runner {
	r := &Runner{
		Presenter: presenter,
		Logger:    logging.NewNop(),
		after:     realTimer,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

func realTimer(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}

// Play starts a session on doc and runs it to the end.
// It returns the final step. When ctx is cancelled the session is ended and
// the context error is returned alongside the last known step.
func (r *Runner) Play(ctx context.Context, engine ports.Engine, doc *domain.Document) (domain.Step, error) {
	if r.Presenter == nil {
		return domain.Step{}, errors.New("runner: presenter is required")
	}

	step, err := engine.Start(ctx, doc)
	if err != nil {
		r.Presenter.Hide(ctx)
		return step, err
	}

	for !step.IsEnded() {
		input, err := r.await(ctx, engine, step)
		if err != nil {
			// The caller's context is gone; end with a fresh one so the blackboard is persisted.
			if endErr := engine.End(context.WithoutCancel(ctx)); endErr != nil {
				r.Logger.Warn("end after cancellation failed", "err", endErr)
			}
			r.Presenter.Hide(context.WithoutCancel(ctx))
			final, _ := engine.Current()
			return final, err
		}

		next, err := engine.Resume(ctx, input)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidChoice) || errors.Is(err, domain.ErrUnexpectedInput) {
				r.Logger.Warn("input rejected, presenting again", "input", input.Kind, "err", err)
				continue
			}
			r.Presenter.Hide(ctx)
			return next, err
		}
		step = next
	}

	r.Logger.Debug("dialogue ended", "document_id", step.DocumentID, "reason", step.Reason)
	r.Presenter.Hide(ctx)
	return step, step.Err
}

// await presents the step and blocks until an input is produced by the
// presenter or a timer.
func (r *Runner) await(ctx context.Context, engine ports.Engine, step domain.Step) (domain.Input, error) {
	inputs := make(chan domain.Input, 1)
	var once sync.Once
	submit := func(in domain.Input) {
		once.Do(func() { inputs <- in })
	}

	var (
		delay    time.Duration
		fallback domain.Input
	)

	switch step.Status {
	case domain.AwaitingSpeech:
		node, _ := step.Speech()
		if node.AutoAdvanceSeconds > 0 {
			delay = seconds(node.AutoAdvanceSeconds)
			fallback = domain.Advance()
		}
		r.Presenter.PresentSpeech(ctx, node, engine.Render(node.Text), func() { submit(domain.Advance()) })

	case domain.AwaitingChoice:
		node, _ := step.Choice()
		options := make([]ports.PresentedOption, 0, len(step.Options))
		for _, opt := range step.Options {
			options = append(options, ports.PresentedOption{Index: opt.Index, Text: engine.Render(opt.Option.Text)})
		}
		if choice, ok := DefaultChoice(node, step.Options); ok && node.TimeoutSeconds > 0 {
			delay = seconds(node.TimeoutSeconds)
			fallback = domain.Choose(choice)
		}
		r.Presenter.PresentOptions(ctx, node, options, func(index int) { submit(domain.Choose(index)) })

	default:
		return domain.Input{}, domain.ErrUnexpectedInput
	}

	var timeout <-chan time.Time
	if delay > 0 {
		c, stop := r.after(delay)
		defer stop()
		timeout = c
	}

	select {
	case in := <-inputs:
		return in, nil
	case <-timeout:
		r.Logger.Debug("timer elapsed", "node", step.Node.Base().ID, "input", fallback.Kind)
		// Late callbacks must not leak into the next step.
		once.Do(func() {})
		return fallback, nil
	case <-ctx.Done():
		once.Do(func() {})
		return domain.Input{}, ctx.Err()
	}
}

// DefaultChoice returns the option picked when an option node times out:
// DefaultOptionIndex when it is available, else the first available option.
// It reports false when the node has no default, in which case the timeout
// never fires and the menu waits for the player.
func DefaultChoice(node *domain.OptionNode, available []domain.AvailableOption) (int, bool) {
	if node.DefaultOptionIndex < 0 || len(available) == 0 {
		return 0, false
	}
	for _, opt := range available {
		if opt.Index == node.DefaultOptionIndex {
			return opt.Index, true
		}
	}
	return available[0].Index, true
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
