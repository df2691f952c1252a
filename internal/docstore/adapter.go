// Package docstore exposes a document-store API (collections of schemaless
// records addressed by _id) on top of a relational database reached through
// database.DB. Each collection is one table; each document field is one
// column.
package docstore

import (
	"context"
	"sync"

	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"
	"github.com/koustreak/docstore/internal/logger"
)

// Adapter is safe for concurrent use. All operations other than Connect,
// Close, State and OnEvent fail with errs.ErrKindDisconnected unless the
// adapter is connected.
type Adapter struct {
	cfg  *database.Config
	log  *logger.Logger
	open Opener

	lc *lifecycle

	mu        sync.RWMutex
	db        database.DB
	observers []Observer
	tables    map[string]*database.TableInfo // known collections; nil value means not yet inspected
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger. The default discards everything. A
// logger attached to an operation's context with logger.WithContext takes
// precedence for that operation.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// WithOpener replaces the default driver dispatch, mainly for tests.
func WithOpener(o Opener) Option {
	return func(a *Adapter) {
		if o != nil {
			a.open = o
		}
	}
}

// New creates a disconnected adapter. No I/O happens until Connect.
func New(cfg *database.Config, opts ...Option) *Adapter {
	a := &Adapter{
		cfg:  cfg,
		log:  logger.Nop(),
		open: Open,
		lc:   newLifecycle(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnEvent registers an observer for lifecycle events.
func (a *Adapter) OnEvent(o Observer) {
	if o == nil {
		return
	}
	a.mu.Lock()
	a.observers = append(a.observers, o)
	a.mu.Unlock()
}

// State returns the current readiness state.
func (a *Adapter) State() State {
	return a.lc.current()
}

// Connect opens the backend. It emits EventConnected on success and
// EventConnectionError on failure, in which case the adapter returns to
// StateDisconnected and the error is also returned. Connecting an already
// connected adapter is a no-op.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	err := a.lc.fire(transitionDial)
	connected := a.lc.is(StateConnected)
	a.mu.Unlock()
	if err != nil {
		if connected {
			return nil
		}
		return errs.Wrap(errs.ErrKindInvalidInput, "connect already in progress", err)
	}

	db, err := a.open(ctx, a.cfg)
	if err == nil && db == nil {
		err = errs.New(errs.ErrKindConnectionFailed, "opener returned no database")
	}
	if err != nil {
		a.mu.Lock()
		_ = a.lc.fire(transitionFail)
		a.mu.Unlock()
		a.log.ErrorWith("connection failed", err, map[string]interface{}{
			"driver": a.driverName(),
		})
		a.emit(EventConnectionError, err)
		return err
	}

	// Lifecycle transitions only fire under mu, so state and handle agree.
	a.mu.Lock()
	a.db = db
	a.tables = make(map[string]*database.TableInfo)
	_ = a.lc.fire(transitionReady)
	a.mu.Unlock()

	a.log.InfoWith("connected", map[string]interface{}{
		"driver":  a.driverName(),
		"dialect": db.Dialect().String(),
	})
	a.emit(EventConnected, nil)
	return nil
}

// Close releases the backend and returns the adapter to StateDisconnected.
// Closing a disconnected adapter is a no-op.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if err := a.lc.fire(transitionClose); err != nil {
		a.mu.Unlock()
		if a.lc.is(StateConnecting) {
			return errs.Wrap(errs.ErrKindInvalidInput, "cannot close while connecting", err)
		}
		return nil
	}
	db := a.db
	a.db = nil
	a.tables = nil
	a.mu.Unlock()

	if db != nil {
		db.Close()
		a.log.Info("connection closed")
	}
	return nil
}

func (a *Adapter) emit(ev Event, err error) {
	a.mu.RLock()
	observers := make([]Observer, len(a.observers))
	copy(observers, a.observers)
	a.mu.RUnlock()

	for _, o := range observers {
		o(ev, err)
	}
}

func (a *Adapter) driverName() string {
	if a.cfg == nil {
		return ""
	}
	return string(a.cfg.Driver)
}

// conn returns the live database or ErrKindDisconnected.
func (a *Adapter) conn() (database.DB, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.lc.is(StateConnected) || a.db == nil {
		return nil, errs.New(errs.ErrKindDisconnected, "database not connected")
	}
	return a.db, nil
}

// logFor returns the logger for one operation on collection: the logger
// carried by ctx if there is one, else the adapter's.
func (a *Adapter) logFor(ctx context.Context, collection string) *logger.Logger {
	return logger.FromContext(ctx, a.log).With().Str("collection", collection).Logger()
}

// withTimeout bounds ctx by the configured per-operation deadline.
func (a *Adapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg == nil || a.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.QueryTimeout)
}

func (a *Adapter) cachedTable(name string) (*database.TableInfo, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	info, ok := a.tables[name]
	return info, ok
}

func (a *Adapter) rememberTable(name string, info *database.TableInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tables == nil {
		return
	}
	if cur, ok := a.tables[name]; ok && cur != nil && info == nil {
		return
	}
	a.tables[name] = info
}
