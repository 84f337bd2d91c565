package session

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

// CacheScope controls when the memo is evicted wholesale.
type CacheScope int

const (
	// ScopeSession keeps memo entries until a write, commit, rollback,
	// explicit clear, or close.
	ScopeSession CacheScope = iota
	// ScopeStatement additionally clears the memo every time the outermost
	// query on the call stack completes.
	ScopeStatement
)

// String returns the scope's name for log output.
func (s CacheScope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopeStatement:
		return "statement"
	default:
		return "unknown"
	}
}

// Config carries per-session options.
type Config struct {
	// Scope selects the memo eviction policy.
	Scope CacheScope
	// Logger, when set, overrides the environment's logger for this session.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with session-scoped caching.
func DefaultConfig() Config {
	return Config{Scope: ScopeSession}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Scope, validation.Min(ScopeSession), validation.Max(ScopeStatement)),
	)
}
