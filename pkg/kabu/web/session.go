package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/komsit37/kabu/pkg/kabu/provider"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "kabu_session"

// Session is one browser's state: its own cached live provider.
type Session struct {
	ID   string
	Live provider.Provider

	lastSeen time.Time
}

// Sessions maps session ids to sessions. Sessions unused for longer than
// the idle timeout are dropped by Evict, cache included.
type Sessions struct {
	idle    time.Duration
	newLive func() provider.Provider

	// Now is the clock; tests replace it.
	Now func() time.Time

	mu    sync.Mutex
	items map[string]*Session
}

func NewSessions(idle time.Duration, newLive func() provider.Provider) *Sessions {
	return &Sessions{idle: idle, newLive: newLive, items: make(map[string]*Session)}
}

// Acquire returns the session named by the request cookie, creating one (and
// setting the cookie) when the cookie is missing or its session has expired.
func (s *Sessions) Acquire(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.get(c.Value); ok {
			return sess
		}
	}
	sess := s.create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *Sessions) get(id string) (*Session, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok || now.Sub(sess.lastSeen) >= s.idle {
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

func (s *Sessions) create() *Session {
	sess := &Session{ID: uuid.NewString(), lastSeen: s.now()}
	if s.newLive != nil {
		sess.Live = s.newLive()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.ID] = sess
	return sess
}

// Evict drops idle sessions and returns how many were removed.
func (s *Sessions) Evict() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.items {
		if now.Sub(sess.lastSeen) >= s.idle {
			delete(s.items, id)
			n++
		}
	}
	return n
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Sessions) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
