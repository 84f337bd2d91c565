package di

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-session-cache/session"
)

// Container provides dependency injection for session components. It holds
// one configured Environment plus the session Config applied to every
// session it opens, and tracks open sessions so an application can tear them
// all down at shutdown.
type Container struct {
	env      *session.Environment
	config   session.Config
	sessions *xsync.MapOf[string, *session.Session]
}

// NewContainer creates a container around env, validating both the
// environment and the config up front.
func NewContainer(env *session.Environment, config session.Config) (*Container, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Container{
		env:      env,
		config:   config,
		sessions: xsync.NewMapOf[string, *session.Session](),
	}, nil
}

// NewContainerWithDefaults creates a container using the default session
// configuration. This is a convenience constructor for typical use cases
// where custom configuration is not required.
func NewContainerWithDefaults(env *session.Environment) (*Container, error) {
	return NewContainer(env, session.DefaultConfig())
}

// Environment returns the configured environment.
func (c *Container) Environment() *session.Environment {
	return c.env
}

// Config returns a copy of the session configuration used by this container.
func (c *Container) Config() session.Config {
	return c.config
}

// OpenSession opens a new session and registers it with the container. The
// caller still owns the session's lifecycle; CloseSession (or CloseAll)
// unregisters it.
func (c *Container) OpenSession(ctx context.Context) (*session.Session, error) {
	s, err := c.env.NewSession(ctx, c.config)
	if err != nil {
		return nil, err
	}
	c.sessions.Store(s.ID(), s)
	return s, nil
}

// CloseSession closes s and removes it from the registry.
func (c *Container) CloseSession(ctx context.Context, s *session.Session) {
	s.Close(ctx)
	c.sessions.Delete(s.ID())
}

// Sessions returns the currently registered sessions.
func (c *Container) Sessions() []*session.Session {
	var out []*session.Session
	c.sessions.Range(func(_ string, s *session.Session) bool {
		out = append(out, s)
		return true
	})
	return out
}

// CloseAll closes every registered session. Intended for shutdown paths.
func (c *Container) CloseAll(ctx context.Context) {
	c.sessions.Range(func(id string, s *session.Session) bool {
		s.Close(ctx)
		c.sessions.Delete(id)
		return true
	})
}
