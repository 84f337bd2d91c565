package fingerprint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ComponentSeparator delimits folded components inside a fingerprint's text form.
const ComponentSeparator = "::"

// Fingerprint is an immutable, order-sensitive composite key identifying one
// logical query invocation. Two fingerprints are equal iff every folded
// component is equal in the same order; the full folded text participates in
// equality so hash collisions cannot produce false matches.
//
// Fingerprint is comparable and can be used directly as a map key. The zero
// value means "no fingerprint" and never equals a built one.
type Fingerprint struct {
	count int
	sum   uint64
	text  string
}

// IsZero reports whether f is the zero fingerprint.
func (f Fingerprint) IsZero() bool {
	return f.count == 0 && f.sum == 0 && f.text == ""
}

// Count returns the number of components folded into f.
func (f Fingerprint) Count() int { return f.count }

// Sum64 returns the xxhash digest of the folded text. Intended for logging
// and diagnostics; equality uses the full text.
func (f Fingerprint) Sum64() uint64 { return f.sum }

// String returns a compact form suitable for log output.
func (f Fingerprint) String() string {
	if f.IsZero() {
		return "fingerprint:zero"
	}
	return fmt.Sprintf("fingerprint:%d:%016x", f.count, f.sum)
}

// Builder folds an ordered sequence of heterogeneous components into a
// Fingerprint. Each component is serialized deterministically and prefixed
// with its ordinal, so folding the same components in a different order
// always yields a different fingerprint.
type Builder struct {
	parts []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Fold appends one component. A nil component is folded as a distinguished
// null marker rather than skipped. Returns the builder for chaining.
func (b *Builder) Fold(component any) *Builder {
	part := strconv.Itoa(len(b.parts)) + ":" + serializeValue(component)
	b.parts = append(b.parts, part)
	return b
}

// Build freezes the folded components into a Fingerprint. The builder may be
// reused afterwards; the returned value is independent of it.
func (b *Builder) Build() Fingerprint {
	text := strings.Join(b.parts, ComponentSeparator)
	return Fingerprint{
		count: len(b.parts),
		sum:   xxhash.Sum64String(text),
		text:  text,
	}
}

// New builds the fingerprint for one logical query invocation from the
// statement identity, pagination bounds, literal SQL text, the ordered bound
// parameter values, and the environment identity. The fold order is fixed:
// statement id, offset, limit, sql, each parameter value, environment id.
// An empty environment id is not folded, matching configurations that run
// without a named environment.
func New(statementID string, offset, limit int, sql string, params []any, environmentID string) Fingerprint {
	b := NewBuilder()
	b.Fold(statementID)
	b.Fold(offset)
	b.Fold(limit)
	b.Fold(sql)
	for _, p := range params {
		b.Fold(p)
	}
	if environmentID != "" {
		b.Fold(environmentID)
	}
	return b.Build()
}
