// Package bunbackend adapts a bun database handle to the session package's
// Backend and Transaction interfaces. Statements execute as raw SQL inside
// the session's transaction; rows are scanned into generic maps and handed
// to an optional row mapper.
package bunbackend

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-session-cache/session"
)

// RowMapper converts raw scanned rows into the mapped objects a caller
// expects. The default mapper passes the generic maps through unchanged.
type RowMapper func(rows []map[string]any) ([]any, error)

// Option configures a Factory.
type Option func(*Factory)

// WithRowMapper installs a custom row mapper on every backend the factory
// creates.
func WithRowMapper(m RowMapper) Option {
	return func(f *Factory) { f.mapper = m }
}

// WithTxOptions sets the sql.TxOptions used when opening transactions.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(f *Factory) { f.txOptions = opts }
}

// Factory opens bun transactions and binds backends to them. It implements
// both session.TransactionFactory and session.BackendFactory, so one Factory
// is enough to configure an Environment.
type Factory struct {
	db        *bun.DB
	mapper    RowMapper
	txOptions *sql.TxOptions
}

var (
	_ session.TransactionFactory = (*Factory)(nil)
	_ session.BackendFactory     = (*Factory)(nil)
)

// New creates a Factory over db.
func New(db *bun.DB, opts ...Option) *Factory {
	f := &Factory{db: db}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewTransaction implements session.TransactionFactory.
func (f *Factory) NewTransaction(ctx context.Context) (session.Transaction, error) {
	tx, err := f.db.BeginTx(ctx, f.txOptions)
	if err != nil {
		return nil, err
	}
	return &transaction{tx: tx}, nil
}

// NewBackend implements session.BackendFactory. The transaction must have
// been produced by this package.
func (f *Factory) NewBackend(tx session.Transaction) session.Backend {
	bt, _ := tx.(*transaction)
	return &backend{tx: bt, mapper: f.mapper}
}

// transaction wraps bun.Tx with idempotent completion so Close after Commit
// or Rollback is a no-op.
type transaction struct {
	tx   bun.Tx
	done bool
}

func (t *transaction) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Commit()
}

func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

func (t *transaction) Close() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

type backend struct {
	tx     *transaction
	mapper RowMapper
}

// Fetch implements session.Backend. Bounds are applied to the scanned row
// set in memory, mirroring how unbounded statements are windowed when the
// SQL itself carries no limit clause.
func (b *backend) Fetch(ctx context.Context, stmt session.Statement, params any, bounds session.Bounds) ([]any, error) {
	args := session.ParamValues(stmt, params)

	var raw []map[string]any
	if err := b.tx.tx.NewRaw(stmt.SQL, args...).Scan(ctx, &raw); err != nil {
		return nil, err
	}
	raw = window(raw, bounds)

	if b.mapper != nil {
		return b.mapper(raw)
	}
	rows := make([]any, len(raw))
	for i, r := range raw {
		rows[i] = r
	}
	return rows, nil
}

// Write implements session.Backend.
func (b *backend) Write(ctx context.Context, stmt session.Statement, params any) (int64, error) {
	args := session.ParamValues(stmt, params)
	res, err := b.tx.tx.ExecContext(ctx, stmt.SQL, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Flush implements session.Backend. Statements execute eagerly here, so
// there is never buffered work to flush or discard.
func (b *backend) Flush(ctx context.Context, rollback bool) error {
	return nil
}

func window(rows []map[string]any, bounds session.Bounds) []map[string]any {
	if bounds.Offset <= 0 && (bounds.Limit <= 0 || bounds.Limit >= len(rows)) {
		return rows
	}
	if bounds.Offset >= len(rows) {
		return nil
	}
	end := len(rows)
	if bounds.Limit > 0 && bounds.Offset+bounds.Limit < end {
		end = bounds.Offset + bounds.Limit
	}
	return rows[bounds.Offset:end]
}
