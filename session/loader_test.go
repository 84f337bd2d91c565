package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestResultLoader_ServesFromOwningSessionOnSameGoroutine(t *testing.T) {
	backend := &stubBackend{
		fetchFn: func(ctx context.Context, stmt Statement, params any, bounds Bounds) ([]any, error) {
			return []any{"lazy-value"}, nil
		},
	}
	sess := openTestSession(t, backend, &stubTx{}, DefaultConfig())
	defer sess.Close(context.Background())

	stmt := queryStmt("Lazy.byId")
	params := map[string]any{"id": 1}
	key, _ := sess.CreateFingerprint(stmt, params, DefaultBounds)
	loader := NewResultLoader(sess, stmt, params, DefaultBounds, key)

	value, err := loader.LoadOne(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if value != "lazy-value" {
		t.Errorf("expected lazy-value, got %v", value)
	}
	if !loader.Loaded() {
		t.Error("loader must report loaded")
	}

	// A second load on the same goroutine hits the session memo.
	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if backend.fetchCalls != 1 {
		t.Errorf("expected a single physical fetch, got %d", backend.fetchCalls)
	}
}

func TestResultLoader_ClosedSessionUsesIsolatedContext(t *testing.T) {
	var sessionsOpened atomic.Int32
	backend := &stubBackend{
		fetchFn: func(ctx context.Context, stmt Statement, params any, bounds Bounds) ([]any, error) {
			return []any{"isolated-value"}, nil
		},
	}
	isolatedTx := &stubTx{}

	env := &Environment{
		ID: "test",
		Transactions: TransactionFactoryFunc(func(ctx context.Context) (Transaction, error) {
			sessionsOpened.Add(1)
			return isolatedTx, nil
		}),
		Backends: BackendFactoryFunc(func(Transaction) Backend { return backend }),
	}

	sess, err := env.NewSession(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	stmt := queryStmt("Lazy.byId")
	params := map[string]any{"id": 1}
	key, _ := sess.CreateFingerprint(stmt, params, DefaultBounds)
	loader := NewResultLoader(sess, stmt, params, DefaultBounds, key)

	sess.Close(context.Background())

	// Direct use of the closed session still fails.
	if _, err := sess.Query(context.Background(), stmt, params, DefaultBounds); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed on the original session, got %v", err)
	}

	// The loader succeeds through a throwaway session.
	value, err := loader.LoadOne(context.Background())
	if err != nil {
		t.Fatalf("isolated load failed: %v", err)
	}
	if value != "isolated-value" {
		t.Errorf("expected isolated-value, got %v", value)
	}
	if got := sessionsOpened.Load(); got != 2 {
		t.Errorf("expected one extra isolated transaction, got %d total", got)
	}
	// The isolated session was closed right after the fetch.
	if isolatedTx.closes == 0 {
		t.Error("isolated context must be closed after extracting the value")
	}
}

func TestResultLoader_ForeignGoroutineUsesIsolatedContext(t *testing.T) {
	var fetches atomic.Int32
	backend := &stubBackend{
		fetchFn: func(ctx context.Context, stmt Statement, params any, bounds Bounds) ([]any, error) {
			fetches.Add(1)
			return []any{"cross-goroutine"}, nil
		},
	}
	var transactions atomic.Int32
	env := &Environment{
		ID: "test",
		Transactions: TransactionFactoryFunc(func(ctx context.Context) (Transaction, error) {
			transactions.Add(1)
			return &stubTx{}, nil
		}),
		Backends: BackendFactoryFunc(func(Transaction) Backend { return backend }),
	}

	sess, err := env.NewSession(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close(context.Background())

	stmt := queryStmt("Lazy.byId")
	params := map[string]any{"id": 1}
	key, _ := sess.CreateFingerprint(stmt, params, DefaultBounds)
	loader := NewResultLoader(sess, stmt, params, DefaultBounds, key)

	type result struct {
		value any
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := loader.LoadOne(context.Background())
		done <- result{v, err}
	}()
	res := <-done

	if res.err != nil {
		t.Fatalf("cross-goroutine load failed: %v", res.err)
	}
	if res.value != "cross-goroutine" {
		t.Errorf("expected cross-goroutine, got %v", res.value)
	}
	if transactions.Load() != 2 {
		t.Errorf("foreign goroutine must get its own transaction, got %d total", transactions.Load())
	}
	// The original session's memo was never touched by the foreign load.
	if sess.IsCached(key) {
		t.Error("isolated load must not populate the owning session's memo")
	}
}

func TestResultLoader_MisconfiguredEnvironment(t *testing.T) {
	backend := &stubBackend{}
	sess := openTestSession(t, backend, &stubTx{}, DefaultConfig())

	stmt := queryStmt("Lazy.byId")
	key, _ := sess.CreateFingerprint(stmt, nil, DefaultBounds)
	loader := NewResultLoader(sess, stmt, nil, DefaultBounds, key)

	// Tear out the factories, then close: the loader's fallback path has
	// nothing to build an isolated context from.
	sess.Close(context.Background())
	sess.env.Transactions = nil

	_, err := loader.Load(context.Background())
	if !errors.Is(err, ErrMisconfiguredEnvironment) {
		t.Fatalf("expected ErrMisconfiguredEnvironment, got %v", err)
	}
}

func TestResultLoader_LoadOneRejectsMultipleRows(t *testing.T) {
	backend := &stubBackend{
		fetchFn: func(ctx context.Context, stmt Statement, params any, bounds Bounds) ([]any, error) {
			return []any{"a", "b"}, nil
		},
	}
	sess := openTestSession(t, backend, &stubTx{}, DefaultConfig())
	defer sess.Close(context.Background())

	stmt := queryStmt("Lazy.byId")
	key, _ := sess.CreateFingerprint(stmt, nil, DefaultBounds)
	loader := NewResultLoader(sess, stmt, nil, DefaultBounds, key)

	if _, err := loader.LoadOne(context.Background()); err == nil {
		t.Fatal("expected an error for a multi-row scalar load")
	}
}

func TestResultLoader_WasNull(t *testing.T) {
	backend := &stubBackend{
		fetchFn: func(ctx context.Context, stmt Statement, params any, bounds Bounds) ([]any, error) {
			return nil, nil
		},
	}
	sess := openTestSession(t, backend, &stubTx{}, DefaultConfig())
	defer sess.Close(context.Background())

	stmt := queryStmt("Lazy.byId")
	key, _ := sess.CreateFingerprint(stmt, nil, DefaultBounds)
	loader := NewResultLoader(sess, stmt, nil, DefaultBounds, key)

	value, err := loader.LoadOne(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if value != nil {
		t.Errorf("expected nil value, got %v", value)
	}
	if !loader.WasNull() {
		t.Error("WasNull must report true after an empty load")
	}
}
