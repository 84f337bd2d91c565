package session

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/goliatone/go-session-cache/internal/procsnap"
	"github.com/goliatone/go-session-cache/internal/propwrite"
)

// Backend is the physical execution primitive a session delegates to. Row
// mapping happens inside the backend and is opaque to the session.
type Backend interface {
	// Fetch runs a read statement and returns the mapped rows.
	Fetch(ctx context.Context, stmt Statement, params any, bounds Bounds) ([]any, error)
	// Write runs a mutating statement and returns the affected row count.
	Write(ctx context.Context, stmt Statement, params any) (int64, error)
	// Flush executes any buffered statements. Backends that execute eagerly
	// treat this as a no-op. When rollback is true buffered work is
	// discarded instead of executed.
	Flush(ctx context.Context, rollback bool) error
}

// Transaction is the externally supplied transaction primitive.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// Close releases the underlying resources. It must be safe to call after
	// Commit or Rollback.
	Close() error
}

// TransactionFactory opens new transactions for sessions and for isolated
// single-use fetch contexts.
type TransactionFactory interface {
	NewTransaction(ctx context.Context) (Transaction, error)
}

// TransactionFactoryFunc adapts a function to TransactionFactory.
type TransactionFactoryFunc func(ctx context.Context) (Transaction, error)

// NewTransaction implements TransactionFactory.
func (f TransactionFactoryFunc) NewTransaction(ctx context.Context) (Transaction, error) {
	return f(ctx)
}

// BackendFactory binds a Backend to a freshly opened transaction.
type BackendFactory interface {
	NewBackend(tx Transaction) Backend
}

// BackendFactoryFunc adapts a function to BackendFactory.
type BackendFactoryFunc func(tx Transaction) Backend

// NewBackend implements BackendFactory.
func (f BackendFactoryFunc) NewBackend(tx Transaction) Backend {
	return f(tx)
}

// PropertyWriter writes a resolved row list into a property of an
// already-returned target object.
type PropertyWriter interface {
	WriteRows(target any, property string, rows []any) error
}

// OutputSnapshotter copies named output values between a cached snapshot and
// a live stored-procedure parameter object.
type OutputSnapshotter interface {
	Snapshot(params any) ([]byte, error)
	Restore(snapshot []byte, params any, outNames []string) error
}

// Environment bundles the external collaborators every session in one
// deployment shares: the transaction source, the execution backend, and the
// glue used to apply lazily resolved values.
type Environment struct {
	// ID names the environment and participates in every fingerprint, so
	// identical queries against different environments never share memo
	// entries.
	ID string
	// Transactions opens a transaction per session.
	Transactions TransactionFactory
	// Backends binds the physical fetch primitive to a transaction.
	Backends BackendFactory
	// Writer applies deferred loads. Defaults to the reflection writer.
	Writer PropertyWriter
	// Snapshots handles stored-procedure output parameters. Defaults to the
	// msgpack codec.
	Snapshots OutputSnapshotter
	// Logger is shared by sessions that do not configure their own.
	Logger *zap.Logger
}

// Validate checks that the environment can open sessions.
func (e Environment) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.Required),
		validation.Field(&e.Transactions, validation.Required),
		validation.Field(&e.Backends, validation.Required),
	)
}

// NewSession opens a transaction and wraps it in a session owned by the
// calling goroutine. The session must be closed by the caller.
func (e *Environment) NewSession(ctx context.Context, cfg Config) (*Session, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMisconfiguredEnvironment, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tx, err := e.Transactions.NewTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return newSession(e, cfg, tx, e.Backends.NewBackend(tx)), nil
}

// spawnIsolated opens a self-contained session for exactly one lazy fetch
// issued from a foreign goroutine or after the owning session closed. The
// caller closes it immediately after extracting the value.
func (e *Environment) spawnIsolated(ctx context.Context) (*Session, error) {
	return e.NewSession(ctx, Config{Scope: ScopeSession, Logger: e.Logger})
}

func (e *Environment) writer() PropertyWriter {
	if e.Writer != nil {
		return e.Writer
	}
	return propwrite.Writer{}
}

func (e *Environment) snapshotter() OutputSnapshotter {
	if e.Snapshots != nil {
		return e.Snapshots
	}
	return procsnap.Codec{}
}

func (e *Environment) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}
