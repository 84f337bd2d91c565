package session

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-session-cache/fingerprint"
	"github.com/goliatone/go-session-cache/internal/goid"
)

// Session is one logical unit of work: a transaction, the memo scoped to it,
// the deferred-load queue, and the nesting counter that marks the outermost
// query boundary. A session belongs to the goroutine that created it and is
// not safe for concurrent use; lazy loads arriving from other goroutines go
// through ResultLoader, which detects the mismatch and falls back to an
// isolated context instead of touching this state.
type Session struct {
	id      string
	env     *Environment
	cfg     Config
	tx      Transaction
	backend Backend
	logger  *zap.Logger

	memo      *memoStore
	outParams map[fingerprint.Fingerprint][]byte
	deferred  []deferredLoad

	queryDepth int
	closed     bool
	creator    uint64
}

func newSession(env *Environment, cfg Config, tx Transaction, backend Backend) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = env.logger()
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		env:       env,
		cfg:       cfg,
		tx:        tx,
		backend:   backend,
		logger:    logger.With(zap.String("session", id)),
		memo:      newMemoStore(),
		outParams: make(map[fingerprint.Fingerprint][]byte),
		creator:   goid.Current(),
	}
}

// ID returns the session's unique identifier, used for log correlation.
func (s *Session) ID() string { return s.id }

// Closed reports whether the session reached its terminal state.
func (s *Session) Closed() bool { return s.closed }

// Environment returns the environment this session was opened from.
func (s *Session) Environment() *Environment { return s.env }

// CreateFingerprint computes the memo key for a statement, its parameters,
// and the pagination bounds, without executing anything.
func (s *Session) CreateFingerprint(stmt Statement, params any, bounds Bounds) (fingerprint.Fingerprint, error) {
	if s.closed {
		return fingerprint.Fingerprint{}, ErrSessionClosed
	}
	return fingerprint.New(stmt.ID, bounds.Offset, bounds.Limit, stmt.SQL, ParamValues(stmt, params), s.env.ID), nil
}

// IsCached reports whether key holds a fully loaded result. A pending entry
// does not count: it is an in-flight placeholder, not a result.
func (s *Session) IsCached(key fingerprint.Fingerprint) bool {
	if s.closed {
		return false
	}
	e, ok := s.memo.get(key)
	return ok && e.state == stateResolved
}

// CachedKeys returns the resolved and pending fingerprints in insertion
// order, for diagnostics.
func (s *Session) CachedKeys() []fingerprint.Fingerprint {
	if s.closed {
		return nil
	}
	return s.memo.keys()
}

// Query executes a read statement, serving repeats of the same fingerprint
// from the memo. Exactly one physical fetch happens per fingerprint per
// fully-loaded window; a failed fetch rolls the memo entry back to absent so
// the call can be retried. When the outermost query on the call stack
// completes, queued deferred loads are drained in registration order and,
// under ScopeStatement, the memo is cleared.
func (s *Session) Query(ctx context.Context, stmt Statement, params any, bounds Bounds) ([]any, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.queryDepth == 0 && stmt.FlushOnExecute {
		s.clearCaches()
	}

	key := fingerprint.New(stmt.ID, bounds.Offset, bounds.Limit, stmt.SQL, ParamValues(stmt, params), s.env.ID)
	return s.query(ctx, stmt, params, bounds, key)
}

// QueryWithKey is Query with a precomputed fingerprint, used by lazy loaders
// that captured the key when the association was first encountered.
func (s *Session) QueryWithKey(ctx context.Context, stmt Statement, params any, bounds Bounds, key fingerprint.Fingerprint) ([]any, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.queryDepth == 0 && stmt.FlushOnExecute {
		s.clearCaches()
	}
	return s.query(ctx, stmt, params, bounds, key)
}

func (s *Session) query(ctx context.Context, stmt Statement, params any, bounds Bounds, key fingerprint.Fingerprint) ([]any, error) {
	s.queryDepth++
	rows, err := s.lookupOrFetch(ctx, stmt, params, bounds, key)
	s.queryDepth--

	if err != nil {
		return nil, err
	}

	if s.queryDepth == 0 {
		s.drainDeferred()
		if s.cfg.Scope == ScopeStatement {
			s.clearCaches()
		}
	}
	return rows, nil
}

func (s *Session) lookupOrFetch(ctx context.Context, stmt Statement, params any, bounds Bounds, key fingerprint.Fingerprint) ([]any, error) {
	entry, ok := s.memo.get(key)
	switch {
	case ok && entry.state == stateResolved:
		s.logger.Debug("memo hit",
			zap.String("statement", stmt.ID),
			zap.Stringer("key", key))
		if stmt.Kind == KindCall {
			s.restoreOutputParams(stmt, params, key)
		}
		return entry.rows, nil

	case ok && entry.state == statePending:
		// Same fingerprint re-entered on this call stack: a cycle reached
		// through a synchronous read instead of a deferred load.
		return nil, ErrExecutionPending

	default:
		return s.fetchFromBackend(ctx, stmt, params, bounds, key)
	}
}

// fetchFromBackend performs the single physical execution for key. The
// pending placeholder makes the in-flight fingerprint observable to nested
// deferred loads; it never survives a failure.
func (s *Session) fetchFromBackend(ctx context.Context, stmt Statement, params any, bounds Bounds, key fingerprint.Fingerprint) ([]any, error) {
	s.memo.putPending(key)

	rows, err := s.backend.Fetch(ctx, stmt, params, bounds)
	if err != nil {
		s.memo.remove(key)
		return nil, &FetchError{StatementID: stmt.ID, Err: err}
	}

	s.memo.resolve(key, rows)
	if stmt.Kind == KindCall {
		s.snapshotOutputParams(stmt, params, key)
	}
	return rows, nil
}

// Update executes a mutating statement. All memoized reads are invalidated
// unconditionally before the write runs.
func (s *Session) Update(ctx context.Context, stmt Statement, params any) (int64, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	s.clearCaches()
	return s.backend.Write(ctx, stmt, params)
}

// Flush executes any statements the backend has buffered.
func (s *Session) Flush(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.backend.Flush(ctx, false)
}

// Commit clears the memo, flushes buffered writes, and commits the
// underlying transaction.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.clearCaches()
	if err := s.backend.Flush(ctx, false); err != nil {
		return err
	}
	return s.tx.Commit(ctx)
}

// Rollback clears the memo, discards buffered writes, and rolls the
// underlying transaction back. The rollback is attempted even when the
// discard fails; the first error wins.
func (s *Session) Rollback(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.clearCaches()
	flushErr := s.backend.Flush(ctx, true)
	if err := s.tx.Rollback(ctx); err != nil && flushErr == nil {
		flushErr = err
	}
	return flushErr
}

// ClearCache evicts every memoized read and output-parameter snapshot.
func (s *Session) ClearCache() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.clearCaches()
	return nil
}

// Close rolls back best-effort, releases the transaction, and drops all
// owned state. Cleanup errors are logged, not returned: the session is being
// torn down regardless. Close is idempotent; every other operation on a
// closed session fails with ErrSessionClosed.
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}

	if err := s.Rollback(ctx); err != nil {
		s.logger.Warn("rollback during close failed", zap.Error(err))
	}
	if s.tx != nil {
		if err := s.tx.Close(); err != nil {
			s.logger.Warn("closing transaction failed", zap.Error(err))
		}
	}

	s.memo.clear()
	s.outParams = nil
	s.deferred = nil
	s.queryDepth = 0
	s.tx = nil
	s.backend = nil
	s.closed = true
}

func (s *Session) clearCaches() {
	s.memo.clear()
	s.outParams = make(map[fingerprint.Fingerprint][]byte)
}

// snapshotOutputParams stores the post-execution state of a procedure's
// parameter object in the parallel memo so a later memo hit can replay it.
func (s *Session) snapshotOutputParams(stmt Statement, params any, key fingerprint.Fingerprint) {
	if params == nil || len(stmt.OutNames) == 0 {
		return
	}
	snap, err := s.env.snapshotter().Snapshot(params)
	if err != nil {
		s.logger.Warn("snapshotting output parameters failed",
			zap.String("statement", stmt.ID), zap.Error(err))
		return
	}
	s.outParams[key] = snap
}

func (s *Session) restoreOutputParams(stmt Statement, params any, key fingerprint.Fingerprint) {
	snap, ok := s.outParams[key]
	if !ok || params == nil {
		return
	}
	if err := s.env.snapshotter().Restore(snap, params, stmt.OutNames); err != nil {
		s.logger.Warn("restoring output parameters failed",
			zap.String("statement", stmt.ID), zap.Error(err))
	}
}
