package session

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-session-cache/fingerprint"
)

// deferredLoad says: property of target should be populated from whatever
// the memo eventually holds under key. Descriptors never outlive the
// outermost query call that spawned them.
type deferredLoad struct {
	target   any
	property string
	key      fingerprint.Fingerprint
}

// DeferLoad registers a pending association load. If the fingerprint is
// already fully loaded the value is written immediately, the common case
// for non-cyclic lazy associations whose query completed during an earlier
// traversal. Otherwise the descriptor is queued and applied when the
// outermost query on the call stack completes.
func (s *Session) DeferLoad(target any, property string, key fingerprint.Fingerprint) error {
	if s.closed {
		return ErrSessionClosed
	}

	load := deferredLoad{target: target, property: property, key: key}
	if entry, ok := s.memo.get(key); ok && entry.state == stateResolved {
		return s.applyLoad(load, entry.rows)
	}

	s.deferred = append(s.deferred, load)
	return nil
}

// drainDeferred applies queued loads in registration order, then empties the
// queue. Draining is one-shot: a descriptor whose fingerprint never resolved
// is a genuine cycle, and its property is left unset. The only trace is a
// warning.
func (s *Session) drainDeferred() {
	loads := s.deferred
	s.deferred = nil

	for _, load := range loads {
		entry, ok := s.memo.get(load.key)
		if !ok || entry.state != stateResolved {
			s.logger.Warn("deferred load unresolved, property left unset",
				zap.String("property", load.property),
				zap.Stringer("key", load.key))
			continue
		}
		if err := s.applyLoad(load, entry.rows); err != nil {
			s.logger.Warn("applying deferred load failed",
				zap.String("property", load.property),
				zap.Stringer("key", load.key),
				zap.Error(err))
		}
	}
}

func (s *Session) applyLoad(load deferredLoad, rows []any) error {
	return s.env.writer().WriteRows(load.target, load.property, rows)
}

// PendingLoads returns the number of queued deferred loads, for diagnostics.
func (s *Session) PendingLoads() int {
	return len(s.deferred)
}
