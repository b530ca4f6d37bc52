// Package session tracks per-chat edit prompts awaiting exactly one reply.
// Each chat holds at most one live session; starting a new one cancels the
// previous so a stale reply can never land on the wrong key.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mirrorops/settings-bot/internal/log"
)

const ReplyTimeout = 60 * time.Second

// replyTimeout is what Wait actually uses; tests shorten it.
var replyTimeout = ReplyTimeout

var (
	ErrTimeout   = errors.New("session: reply timeout")
	ErrCancelled = errors.New("session: cancelled")
)

// Reply is the single message captured for an edit prompt. Exactly one of
// Text or FileID is meaningful depending on the setting's kind.
type Reply struct {
	MessageID int
	Text      string
	FileID    string
	FileName  string
}

type Session struct {
	ID         string
	ChatID     int64
	UserID     int64
	Key        string
	OriginMenu string
	OriginPage int
	PromptID   int
	StartedAt  time.Time

	replyCh  chan Reply
	cancelCh chan struct{}
}

// Wait blocks until the session's reply arrives, the session is cancelled,
// or the timeout elapses. A timed-out session is removed by the manager.
func (s *Session) Wait() (Reply, error) {
	select {
	case r := <-s.replyCh:
		return r, nil
	case <-s.cancelCh:
		return Reply{}, ErrCancelled
	case <-time.After(replyTimeout):
		return Reply{}, ErrTimeout
	}
}

type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// Begin opens an edit session for a chat. A session already open for the
// chat is cancelled first.
func (m *Manager) Begin(chatID, userID int64, key, originMenu string, originPage, promptID int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[chatID]; ok {
		close(old.cancelCh)
		log.Debug("session").Str("key", old.Key).Int64("chat", chatID).Msg("superseded by new edit")
	}
	s := &Session{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		UserID:     userID,
		Key:        key,
		OriginMenu: originMenu,
		OriginPage: originPage,
		PromptID:   promptID,
		StartedAt:  time.Now(),
		replyCh:    make(chan Reply, 1),
		cancelCh:   make(chan struct{}),
	}
	m.sessions[chatID] = s
	return s
}

// Deliver routes an incoming message to the chat's live session. It reports
// whether the message was consumed; messages from a different user than the
// one who opened the prompt are not.
func (m *Manager) Deliver(chatID, userID int64, r Reply) bool {
	m.mu.Lock()
	s, ok := m.sessions[chatID]
	if ok && s.UserID != userID {
		m.mu.Unlock()
		return false
	}
	if ok {
		delete(m.sessions, chatID)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case s.replyCh <- r:
		return true
	default:
		return false
	}
}

// Cancel terminates the chat's live session, if any.
func (m *Manager) Cancel(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		close(s.cancelCh)
		delete(m.sessions, chatID)
	}
}

// Finish removes the session if it is still the chat's current one. Called
// by the waiter after Wait returns so a timed-out session does not linger.
func (m *Manager) Finish(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[s.ChatID]; ok && cur.ID == s.ID {
		delete(m.sessions, s.ChatID)
	}
}

// Active reports whether the chat has a live session.
func (m *Manager) Active(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[chatID]
	return ok
}

// ActiveKey returns the key of the chat's live session, if any. Callers use
// it to decide whether an incoming message matches what the prompt expects.
func (m *Manager) ActiveKey(chatID int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		return s.Key, true
	}
	return "", false
}
