package session

import (
	"github.com/goliatone/go-session-cache/fingerprint"
)

// entryState tags a memo slot. Absence is represented by the key not being
// present at all, so a looked-up entry is always pending or resolved.
type entryState int

const (
	statePending entryState = iota + 1
	stateResolved
)

// memoEntry is one memo slot: either the pending placeholder installed while
// a physical fetch is in flight, or the resolved row list. The placeholder
// is a tagged state rather than a sentinel value, so it can never be
// mistaken for a real result.
type memoEntry struct {
	state entryState
	rows  []any
}

// memoStore is the session-scoped memo: an insertion-ordered mapping from
// fingerprint to entry. It is owned by exactly one session and is not safe
// for concurrent use; cross-goroutine readers must go through ResultLoader.
type memoStore struct {
	entries map[fingerprint.Fingerprint]memoEntry
	order   []fingerprint.Fingerprint
}

func newMemoStore() *memoStore {
	return &memoStore{entries: make(map[fingerprint.Fingerprint]memoEntry)}
}

func (m *memoStore) get(key fingerprint.Fingerprint) (memoEntry, bool) {
	e, ok := m.entries[key]
	return e, ok
}

// putPending installs the in-flight placeholder for key.
func (m *memoStore) putPending(key fingerprint.Fingerprint) {
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = memoEntry{state: statePending}
}

// resolve replaces the placeholder (or installs a fresh entry) with rows.
func (m *memoStore) resolve(key fingerprint.Fingerprint, rows []any) {
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = memoEntry{state: stateResolved, rows: rows}
}

// remove drops the entry entirely, returning the key to the absent state so
// a later call may retry the fetch.
func (m *memoStore) remove(key fingerprint.Fingerprint) {
	delete(m.entries, key)
}

func (m *memoStore) clear() {
	m.entries = make(map[fingerprint.Fingerprint]memoEntry)
	m.order = nil
}

func (m *memoStore) size() int {
	return len(m.entries)
}

// keys returns live fingerprints in insertion order. Ordering is for
// deterministic diagnostics, not correctness.
func (m *memoStore) keys() []fingerprint.Fingerprint {
	keys := make([]fingerprint.Fingerprint, 0, len(m.entries))
	for _, key := range m.order {
		if _, ok := m.entries[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}
