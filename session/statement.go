package session

import (
	"math"

	"github.com/goliatone/go-session-cache/internal/propwrite"
)

// StatementKind classifies how a statement interacts with the memo.
type StatementKind int

const (
	// KindQuery is a read statement; results are memoized per fingerprint.
	KindQuery StatementKind = iota
	// KindWrite is a mutating statement; executing one clears the memo.
	KindWrite
	// KindCall is a stored-procedure invocation; output parameter values are
	// snapshotted alongside the memoized rows.
	KindCall
)

// String returns the kind's name for log output.
func (k StatementKind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindWrite:
		return "write"
	case KindCall:
		return "call"
	default:
		return "unknown"
	}
}

// Statement describes one executable statement. SQL generation is external;
// the session only consumes the finished text and the metadata that shapes
// caching.
type Statement struct {
	// ID is the statement's stable identity, e.g. "UserMapper.selectById".
	ID string
	// SQL is the literal statement text with positional placeholders.
	SQL string
	// Kind selects query, write, or stored-procedure semantics.
	Kind StatementKind
	// FlushOnExecute clears the memo before an outermost execution of this
	// statement, forcing a fresh physical fetch.
	FlushOnExecute bool
	// ParamNames orders named parameters for value extraction when the
	// caller passes a map or struct parameter object.
	ParamNames []string
	// OutNames lists the output properties of a KindCall statement that are
	// snapshotted and replayed on memo hits.
	OutNames []string
}

// AllRows marks an unbounded limit. It is a fixed 32-bit constant so
// fingerprints stay identical across architectures.
const AllRows = math.MaxInt32

// Bounds restricts the window of rows a query returns.
type Bounds struct {
	Offset int
	Limit  int
}

// DefaultBounds selects every row.
var DefaultBounds = Bounds{Offset: 0, Limit: AllRows}

// ParamValues extracts the ordered bound parameter values that feed the
// fingerprint. The parameter object may be nil (no values), an ordered
// []any, a map keyed by parameter name, or a struct whose fields are looked
// up by the statement's ParamNames. A statement without ParamNames treats a
// non-nil object as a single typed value. Missing or unreadable values
// become nil markers rather than being skipped.
func ParamValues(stmt Statement, params any) []any {
	switch p := params.(type) {
	case nil:
		return nil
	case []any:
		return p
	case map[string]any:
		values := make([]any, 0, len(stmt.ParamNames))
		for _, name := range stmt.ParamNames {
			values = append(values, p[name])
		}
		return values
	}

	if len(stmt.ParamNames) == 0 {
		return []any{params}
	}

	values := make([]any, 0, len(stmt.ParamNames))
	for _, name := range stmt.ParamNames {
		value, err := propwrite.Get(params, name)
		if err != nil {
			value = nil
		}
		values = append(values, value)
	}
	return values
}
