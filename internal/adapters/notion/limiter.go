package notion

import (
	"context"
	"sync"
)

// DefaultMaxConcurrent respecte le quota moyen de l'API (3 requêtes/s).
const DefaultMaxConcurrent = 3

// requestLimiter plafonne les requêtes en vol, partagé par le relais websocket,
// la synchronisation et la vérification périodique.
type requestLimiter struct {
	mu       sync.Mutex
	max      int
	inFlight int
	wake     chan struct{}
}

func newRequestLimiter(max int) *requestLimiter {
	if max <= 0 {
		max = DefaultMaxConcurrent
	}
	return &requestLimiter{max: max, wake: make(chan struct{})}
}

func (l *requestLimiter) acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.inFlight < l.max {
			l.inFlight++
			l.mu.Unlock()
			return nil
		}
		ch := l.wake
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (l *requestLimiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight > 0 {
		l.inFlight--
	}
	// Fermer puis recréer réveille tous les appels en attente.
	close(l.wake)
	l.wake = make(chan struct{})
}

func (l *requestLimiter) busy() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}
