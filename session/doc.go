// Package session implements a transaction-scoped query cache with deferred
// resolution of lazy associations.
//
// # Overview
//
// A Session is one logical unit of work over a relational data source. Every
// read it executes is keyed by a fingerprint of the statement identity,
// pagination bounds, SQL text, ordered parameter values, and environment
// identity. Within one session the same fingerprint triggers at most one
// physical fetch per fully-loaded window: repeats are served from the memo,
// and the memo is invalidated wholesale by writes, commit, rollback,
// explicit clears, and close. Under ScopeStatement it is also cleared when
// the outermost query on the call stack completes.
//
//	env := &session.Environment{ID: "production", Transactions: txf, Backends: bf}
//	sess, err := env.NewSession(ctx, session.DefaultConfig())
//	if err != nil { ... }
//	defer sess.Close(ctx)
//
//	rows, err := sess.Query(ctx, stmt, map[string]any{"id": 7}, session.DefaultBounds)
//
// # Nested queries and deferred loads
//
// Lazy associations fire queries while another query is still executing.
// The session tracks its nesting depth; while a fetch is in flight its
// fingerprint holds a pending placeholder, so an association that points
// back at an in-flight result can be detected instead of recursing forever.
// Such associations are registered with DeferLoad and applied in
// registration order once the outermost query completes. A descriptor whose
// fingerprint never resolved is a genuine cycle: its target property is left
// unset and the drain logs a warning.
//
// # Ownership and goroutines
//
// A session, its memo, its deferred queue, and its depth counter belong to
// the goroutine that created it. Nothing here locks; the single concurrency
// hazard, a lazy property touched after the session moved on, is resolved
// by avoidance. ResultLoader compares the calling goroutine with its
// creator and, on mismatch or after close, runs the fetch through an
// isolated single-use session with its own transaction.
//
// # External collaborators
//
// SQL generation, row mapping, value codecs, and connection handling live
// behind the Backend, Transaction, PropertyWriter, and OutputSnapshotter
// interfaces on Environment. The session owns no persistent state; all of it
// dies with Close.
package session
