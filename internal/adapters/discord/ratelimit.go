package discord

import (
	"sync"
	"time"
)

// userLimiter corta el spam de comandos: un comando por usuario por ventana.
type userLimiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	win  time.Duration
}

func newUserLimiter(window time.Duration) *userLimiter {
	return &userLimiter{next: map[string]time.Time{}, win: window}
}

func (l *userLimiter) Allow(userID string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	until, ok := l.next[userID]
	if ok && now.Before(until) {
		return false
	}
	// limpieza oportunista para que el mapa no crezca sin límite
	for id, t := range l.next {
		if now.After(t) {
			delete(l.next, id)
		}
	}
	l.next[userID] = now.Add(l.win)
	return true
}
