package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns the runtime blackboards, one per document ID.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.BlackboardStore

	mu    sync.Mutex            // Global lock for the maps
	locks map[string]*lockEntry // Map of active locks
	live  map[string]*domain.Blackboard

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager with the given persistence store.
func NewManager(store ports.BlackboardStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*domain.Blackboard),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

func (m *Manager) cached(documentID string) (*domain.Blackboard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vars, ok := m.live[documentID]
	return vars, ok
}

func (m *Manager) remember(documentID string, vars *domain.Blackboard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vars == nil {
		delete(m.live, documentID)
		return
	}
	m.live[documentID] = vars
}

// Acquire returns the runtime blackboard of doc. The first call for a document
// loads it from the store, or clones the schema when nothing was saved yet;
// later calls return the same instance.
func (m *Manager) Acquire(ctx context.Context, doc *domain.Document) (*domain.Blackboard, error) {
	var vars *domain.Blackboard
	err := m.WithLock(ctx, doc.ID, func(ctx context.Context) error {
		if cached, ok := m.cached(doc.ID); ok {
			vars = cached
			return nil
		}

		loaded, err := m.store.Load(ctx, doc.ID)
		switch {
		case err == nil:
			if added := reconcile(loaded, doc.Schema); len(added) > 0 {
				m.logger.Info("runtime blackboard extended with new schema variables",
					"document_id", doc.ID, "variables", added)
			}
			vars = loaded
		case errors.Is(err, domain.ErrBlackboardNotFound):
			vars = doc.Schema.Clone()
			if err := m.store.Save(ctx, doc.ID, vars); err != nil {
				return fmt.Errorf("failed to initialize runtime blackboard: %w", err)
			}
		default:
			return fmt.Errorf("failed to load runtime blackboard: %w", err)
		}
		m.remember(doc.ID, vars)
		return nil
	})
	return vars, err
}

// reconcile defines in vars every schema variable it lacks.
func reconcile(vars, schema *domain.Blackboard) []string {
	var added []string
	for _, v := range schema.Variables() {
		if vars.Has(v.Name) {
			continue
		}
		if err := vars.Define(v.Name, v.Kind, v.Value); err == nil {
			added = append(added, v.Name)
		}
	}
	return added
}

// Adopt makes vars the runtime blackboard of a document without touching the store.
func (m *Manager) Adopt(documentID string, vars *domain.Blackboard) {
	m.remember(documentID, vars)
}

// Save persists the runtime blackboard of a document.
func (m *Manager) Save(ctx context.Context, documentID string, vars *domain.Blackboard) error {
	return m.WithLock(ctx, documentID, func(ctx context.Context) error {
		return m.store.Save(ctx, documentID, vars)
	})
}

// Clear resets the runtime blackboard of doc to the schema defaults.
// An instance already handed out is reset in place.
func (m *Manager) Clear(ctx context.Context, doc *domain.Document) error {
	return m.WithLock(ctx, doc.ID, func(ctx context.Context) error {
		if vars, ok := m.cached(doc.ID); ok {
			vars.Reset(doc.Schema)
		}
		return m.store.Delete(ctx, doc.ID)
	})
}

// ClearAll forgets every runtime blackboard, in memory and in the store.
func (m *Manager) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	m.live = make(map[string]*domain.Blackboard)
	m.mu.Unlock()

	ids, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runtime blackboards: %w", err)
	}
	var errs []error
	for _, id := range ids {
		if err := m.WithLock(ctx, id, func(ctx context.Context) error {
			return m.store.Delete(ctx, id)
		}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying blackboard store.
func (m *Manager) Store() ports.BlackboardStore {
	return m.store
}

// WithLock executes a function while holding the lock for the document.
func (m *Manager) WithLock(ctx context.Context, documentID string, fn func(context.Context) error) error {
	entry := m.acquire(documentID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(documentID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, documentID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"document_id", documentID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
