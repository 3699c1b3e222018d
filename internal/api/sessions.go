package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/lox/weatherwidget/internal/metrics"
	"github.com/lox/weatherwidget/internal/widget"
)

const sessionCookie = "ww_session"

type session struct {
	id       string
	widget   *widget.Widget
	lastSeen time.Time
}

// sessions maps browser sessions to their own widget, so concurrent visitors never
// share a display or a lookup sequence.
type sessions struct {
	mu        sync.Mutex
	byID      map[string]*session
	ttl       time.Duration
	clock     clockwork.Clock
	newWidget func(id string) *widget.Widget
}

func newSessions(ttl time.Duration, clock clockwork.Clock, newWidget func(id string) *widget.Widget) *sessions {
	return &sessions{
		byID:      make(map[string]*session),
		ttl:       ttl,
		clock:     clock,
		newWidget: newWidget,
	}
}

// get returns the caller's session, creating one and setting the cookie if the
// request carries no live session.
func (s *sessions) get(w http.ResponseWriter, r *http.Request) *session {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.byID[c.Value]; ok && now.Sub(sess.lastSeen) <= s.ttl {
			sess.lastSeen = now
			return sess
		}
	}

	id := uuid.NewString()
	sess := &session{id: id, widget: s.newWidget(id), lastSeen: now}
	s.byID[id] = sess
	metrics.ActiveSessions.Set(float64(len(s.byID)))

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return sess
}

// sweep drops sessions idle for longer than the TTL and returns how many remain.
func (s *sessions) sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.byID {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.byID, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.byID)))
	return len(s.byID)
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *sessions) sweepLoop(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.sweep()
		}
	}
}
