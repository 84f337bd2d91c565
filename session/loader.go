package session

import (
	"context"
	"fmt"

	"github.com/goliatone/go-session-cache/fingerprint"
	"github.com/goliatone/go-session-cache/internal/goid"
)

// ResultLoader performs a lazy association fetch on behalf of an object that
// has already left the session. It remembers the goroutine that created it;
// when Load is called from a different goroutine, or after the owning
// session closed, it spins up an isolated single-use session from the
// environment instead of touching the original session's state, and closes
// it immediately after extracting the value.
type ResultLoader struct {
	env     *Environment
	session *Session
	stmt    Statement
	params  any
	bounds  Bounds
	key     fingerprint.Fingerprint

	creator uint64
	loaded  bool
	rows    []any
}

// NewResultLoader captures everything needed to run the association query
// later. The fingerprint must be the one computed when the association was
// first encountered, so an on-stack result can be served from the memo.
func NewResultLoader(s *Session, stmt Statement, params any, bounds Bounds, key fingerprint.Fingerprint) *ResultLoader {
	return &ResultLoader{
		env:     s.env,
		session: s,
		stmt:    stmt,
		params:  params,
		bounds:  bounds,
		key:     key,
		creator: goid.Current(),
	}
}

// Loaded reports whether Load has completed at least once.
func (l *ResultLoader) Loaded() bool { return l.loaded }

// Load runs the association query and returns the mapped rows. The owning
// session serves it when Load runs on the creating goroutine and the
// session is still open; otherwise the fetch goes through an isolated
// context with its own transaction.
func (l *ResultLoader) Load(ctx context.Context) ([]any, error) {
	rows, err := l.selectRows(ctx)
	if err != nil {
		return nil, err
	}
	l.rows = rows
	l.loaded = true
	return rows, nil
}

// LoadOne is Load for single-valued associations: zero rows yield nil, one
// row yields that row, more than one row is an error.
func (l *ResultLoader) LoadOne(ctx context.Context) (any, error) {
	rows, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("session: statement %s returned %d rows, expected one", l.stmt.ID, len(rows))
	}
}

// WasNull reports whether the last LoadOne produced no value.
func (l *ResultLoader) WasNull() bool {
	return l.loaded && len(l.rows) == 0
}

func (l *ResultLoader) selectRows(ctx context.Context) ([]any, error) {
	if goid.Current() != l.creator || l.session == nil || l.session.Closed() {
		isolated, err := l.env.spawnIsolated(ctx)
		if err != nil {
			return nil, err
		}
		defer isolated.Close(ctx)
		return isolated.Query(ctx, l.stmt, l.params, l.bounds)
	}
	return l.session.QueryWithKey(ctx, l.stmt, l.params, l.bounds, l.key)
}
