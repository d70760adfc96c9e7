package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/session"
)

// DefaultStepBudget bounds the number of nodes entered in one Start or Resume
// call. Only Root and Branch nodes chain synchronously, so the budget is only
// reached by a cycle that never presents anything.
const DefaultStepBudget = 1000

// Engine is the dialogue interpreter. It owns the single session slot: at most
// one document is being traversed at a time, and its runtime blackboard is only
// written through actions or the variable API.
//
// Lifecycle hooks run while the engine is busy and must not call Start,
// Resume or End.
type Engine struct {
	mu       sync.Mutex
	sessions *session.Manager
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	budget   int
	now      func() time.Time

	active *activeSession
	last   domain.Step
	bound  atomic.Pointer[binding]
}

// binding is the runtime blackboard served by the variable API: the one of
// the active session, or of the last document once the session ended.
type binding struct {
	documentID string
	vars       *domain.Blackboard
}

type activeSession struct {
	doc     *domain.Document
	vars    *domain.Blackboard
	current domain.Node
	step    domain.Step
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithStepBudget overrides DefaultStepBudget. Values below 1 are ignored.
func WithStepBudget(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.budget = n
		}
	}
}

// WithSessionManager sets where runtime blackboards live.
// The default keeps them in memory only.
func WithSessionManager(m *session.Manager) Option {
	return func(e *Engine) {
		e.sessions = m
	}
}

// NewEngine creates an idle engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		budget: DefaultStepBudget,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessions == nil {
		e.sessions = session.NewManager(memory.NewStore(), session.WithLogger(e.logger))
	}
	return e
}

// Sessions returns the manager holding the runtime blackboards.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Start begins a session on doc and runs it up to the first speech or option
// node. An active session is ended first. A document without a Root node is
// refused before anything else happens, so an active session keeps running.
func (e *Engine) Start(ctx context.Context, doc *domain.Document) (domain.Step, error) {
	if doc == nil {
		return domain.Step{}, fmt.Errorf("start: %w", domain.ErrDocumentNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := doc.Root(); !ok {
		e.logger.Error("cannot start dialogue", "document_id", doc.ID, "err", domain.ErrNoRoot)
		refused := domain.Step{Status: domain.Ended, DocumentID: doc.ID, Reason: domain.EndNotStarted, Err: domain.ErrNoRoot}
		if e.active == nil {
			e.last = refused
		}
		return refused, domain.ErrNoRoot
	}

	if e.active != nil {
		e.finish(ctx, domain.EndSuperseded, nil)
	}

	if report := doc.Repair(); report.Changed() {
		e.logger.Warn("document repaired before traversal",
			"document_id", doc.ID,
			"purged_connections", report.PurgedConnections,
			"reassigned_nodes", len(report.ReassignedNodes),
		)
	}
	root, ok := doc.Root()
	if !ok {
		return domain.Step{}, domain.ErrNoRoot
	}

	vars, err := e.sessions.Acquire(ctx, doc)
	if err != nil {
		return domain.Step{}, fmt.Errorf("start %s: %w", doc.ID, err)
	}

	e.active = &activeSession{doc: doc, vars: vars}
	e.bound.Store(&binding{documentID: doc.ID, vars: vars})
	e.logger.Debug("dialogue started", "document_id", doc.ID)
	if e.hooks.OnSessionStart != nil {
		e.hooks.OnSessionStart(ctx, &domain.SessionEvent{EventBase: e.event(domain.EventSessionStart)})
	}

	return e.run(ctx, root.Base().ID), nil
}

// Resume continues a suspended session: Advance after a speech, Choose with
// an absolute option index after a choice. Invalid input leaves the session
// untouched.
func (e *Engine) Resume(ctx context.Context, input domain.Input) (domain.Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.active
	if s == nil {
		return e.last, domain.ErrNoActiveSession
	}

	switch s.step.Status {
	case domain.AwaitingSpeech:
		if input.Kind != domain.InputAdvance {
			return s.step, fmt.Errorf("%w: %s while awaiting speech", domain.ErrUnexpectedInput, input.Kind)
		}
		return e.advance(ctx, 0), nil

	case domain.AwaitingChoice:
		if input.Kind != domain.InputChoose {
			return s.step, fmt.Errorf("%w: %s while awaiting choice", domain.ErrUnexpectedInput, input.Kind)
		}
		var chosen *domain.AvailableOption
		for i := range s.step.Options {
			if s.step.Options[i].Index == input.Choice {
				chosen = &s.step.Options[i]
				break
			}
		}
		if chosen == nil {
			return s.step, fmt.Errorf("%w: %d", domain.ErrInvalidChoice, input.Choice)
		}
		if e.hooks.OnOptionSelected != nil {
			e.hooks.OnOptionSelected(ctx, &domain.OptionEvent{
				EventBase: e.event(domain.EventOptionSelected),
				NodeID:    s.current.Base().ID,
				Index:     chosen.Index,
				Text:      chosen.Option.Text,
				HookID:    chosen.Option.OnSelected,
			})
		}
		return e.advance(ctx, chosen.Index), nil
	}
	return s.step, fmt.Errorf("%w: session is %s", domain.ErrUnexpectedInput, s.step.Status)
}

// End terminates the active session. It is idempotent.
func (e *Engine) End(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil
	}
	e.finish(ctx, domain.EndExternal, nil)
	return nil
}

// Current returns the last step and whether a session is active.
func (e *Engine) Current() (domain.Step, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return e.active.step, true
	}
	return e.last, false
}

// ActiveDocument returns the document being traversed, if any.
func (e *Engine) ActiveDocument() (*domain.Document, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil, false
	}
	return e.active.doc, true
}

// ClearRuntimeState resets the runtime blackboard of doc to its schema
// defaults, including the one of a running session.
func (e *Engine) ClearRuntimeState(ctx context.Context, doc *domain.Document) error {
	return e.sessions.Clear(ctx, doc)
}

// ClearAllRuntimeState forgets every runtime blackboard. A running session
// keeps going on a blackboard reset to its schema.
func (e *Engine) ClearAllRuntimeState(ctx context.Context) error {
	err := e.sessions.ClearAll(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.active; s != nil {
		s.vars.Reset(s.doc.Schema)
		e.sessions.Adopt(s.doc.ID, s.vars)
	} else {
		e.bound.Store(nil)
	}
	return err
}

func (e *Engine) event(t domain.EventType) domain.EventBase {
	base := domain.EventBase{Timestamp: e.now(), Type: t}
	if e.active != nil {
		base.DocumentID = e.active.doc.ID
	}
	return base
}

// finish closes the active session. The runtime blackboard stays with the
// session manager for the next session of the same document.
func (e *Engine) finish(ctx context.Context, reason domain.EndReason, cause error) domain.Step {
	s := e.active
	if s == nil {
		return e.last
	}
	e.leave(ctx)

	if err := e.sessions.Save(context.WithoutCancel(ctx), s.doc.ID, s.vars); err != nil {
		e.logger.Error("failed to persist runtime blackboard", "document_id", s.doc.ID, "err", err)
	}

	if cause != nil {
		e.logger.Warn("dialogue ended early", "document_id", s.doc.ID, "reason", reason, "err", cause)
	} else {
		e.logger.Debug("dialogue ended", "document_id", s.doc.ID, "reason", reason)
	}
	if e.hooks.OnSessionEnd != nil {
		e.hooks.OnSessionEnd(ctx, &domain.SessionEvent{EventBase: e.event(domain.EventSessionEnd), Reason: reason, Err: cause})
	}

	e.last = domain.Step{Status: domain.Ended, DocumentID: s.doc.ID, Reason: reason, Err: cause}
	e.active = nil
	return e.last
}
