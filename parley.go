package parley

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/adapters/file"
	loamAdapter "github.com/aretw0/parley/pkg/adapters/loam"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
)

// Engine is the high-level entry point for the parley library.
// It pairs the traversal runtime with a document loader and a blackboard store.
type Engine struct {
	*runtime.Engine

	loader  ports.DocumentLoader
	store   ports.BlackboardStore
	locker  ports.DistributedLocker
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	budget  int
	Name    string
	closers []io.Closer
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLoader injects a custom DocumentLoader, bypassing the default Loam initialization.
func WithLoader(l ports.DocumentLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore sets where runtime blackboards are persisted.
// By default they are written under .parley/blackboards.
func WithStore(s ports.BlackboardStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker coordinates blackboard writes across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStepBudget bounds the nodes chained by a single Start or Resume.
func WithStepBudget(n int) Option {
	return func(e *Engine) {
		e.budget = n
	}
}

// WithCloser registers a resource released by Close, e.g. a database pool
// behind the store.
func WithCloser(c io.Closer) Option {
	return func(e *Engine) {
		e.closers = append(e.closers, c)
	}
}

// New initializes a new parley Engine.
// By default, documents are read from a Loam repository at docsPath.
// If WithLoader option is provided, docsPath can be empty and Loam is skipped.
func New(docsPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if docsPath == "" {
			return nil, fmt.Errorf("docsPath is required when no custom loader is provided")
		}
		loader, err := loamAdapter.Open(docsPath)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
	}
	if docsPath != "" {
		if abs, err := filepath.Abs(docsPath); err == nil {
			eng.Name = filepath.Base(abs)
		}
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("project", eng.Name)
	}
	if eng.store == nil {
		eng.store = file.New("")
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}

	runtimeOpts := []runtime.Option{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithSessionManager(session.NewManager(eng.store, sessionOpts...)),
	}
	if eng.budget > 0 {
		runtimeOpts = append(runtimeOpts, runtime.WithStepBudget(eng.budget))
	}
	eng.Engine = runtime.NewEngine(runtimeOpts...)

	return eng, nil
}

// Play loads a document and starts a session on it.
func (e *Engine) Play(ctx context.Context, documentID string) (domain.Step, error) {
	doc, err := e.loader.LoadDocument(ctx, documentID)
	if err != nil {
		return domain.Step{Status: domain.Ended, DocumentID: documentID, Reason: domain.EndNotStarted, Err: err}, err
	}
	return e.Start(ctx, doc)
}

// Document loads a document by ID.
func (e *Engine) Document(ctx context.Context, id string) (*domain.Document, error) {
	return e.loader.LoadDocument(ctx, id)
}

// Documents lists the IDs of the available documents.
func (e *Engine) Documents(ctx context.Context) ([]string, error) {
	return e.loader.ListDocuments(ctx)
}

// Watch returns a channel that signals when a document changes.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Loader returns the underlying DocumentLoader used by the engine.
func (e *Engine) Loader() ports.DocumentLoader {
	return e.loader
}

// Store returns the blackboard store used by the engine.
func (e *Engine) Store() ports.BlackboardStore {
	return e.store
}

// Close ends the active session and releases the registered resources.
func (e *Engine) Close() error {
	err := e.End(context.Background())
	for _, c := range e.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
