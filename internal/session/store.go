package session

import (
	"sync"

	"github.com/hiwwer/marketbot/core/logger"
	"log/slog"
)

// Store keeps one session per chat. Mutations of the same chat are applied
// atomically; different chats never block each other.
type Store struct {
	mu      sync.RWMutex
	entries map[int64]*entry
}

type entry struct {
	mu sync.Mutex
	s  Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

func (st *Store) entryFor(chatID int64) *entry {
	st.mu.RLock()
	e, ok := st.entries[chatID]
	st.mu.RUnlock()
	if ok {
		return e
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok = st.entries[chatID]; ok {
		return e
	}
	e = &entry{s: newSession(chatID)}
	st.entries[chatID] = e
	if logger.ShouldSampleDebug() {
		logger.SESSION.Debug("session created",
			slog.String("event", "session.create"),
			slog.Int64("chat_id", chatID),
		)
	}
	return e
}

// Get returns a snapshot of the chat's session, creating a default one
// (main_menu, no token, empty pending) if absent. Absence is the new-user
// case, not an error.
func (st *Store) Get(chatID int64) Session {
	e := st.entryFor(chatID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s
}

// Update applies the mutator atomically with respect to other updates for the
// same chat. The mutator receives the live session by pointer.
func (st *Store) Update(chatID int64, mutate func(*Session)) Session {
	e := st.entryFor(chatID)
	e.mu.Lock()
	defer e.mu.Unlock()
	mutate(&e.s)
	if !e.s.State.Valid() {
		logger.SESSION.Warn("invalid state written, resetting",
			slog.String("event", "session.invalid_state"),
			slog.Int64("chat_id", chatID),
			slog.String("state", string(e.s.State)),
		)
		e.s.State = StateMainMenu
	}
	return e.s
}

// Len reports the number of tracked sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}
