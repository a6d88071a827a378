package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultCleanupInterval = 5 * time.Minute

// Store is a thread-safe in-memory session registry with idle-TTL eviction
// and a maximum size. When full, the least recently used session is evicted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	log      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStore(ttl time.Duration, max int, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      max,
		log:      log,
	}
}

// Put registers sess, evicting the least recently used session if the store is full.
func (s *Store) Put(sess *Session) {
	var evicted *Session
	s.mu.Lock()
	if s.max > 0 && len(s.sessions) >= s.max {
		if _, replacing := s.sessions[sess.ID]; !replacing {
			evicted = s.oldestLocked()
			if evicted != nil {
				delete(s.sessions, evicted.ID)
			}
		}
	}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if evicted != nil {
		s.log.Info("session evicted", "session_id", evicted.ID, "reason", "capacity")
		evicted.Close()
	}
}

// Get returns a session by ID and marks it active.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.Touch()
	return sess, nil
}

// Delete closes and removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	sess.Close()
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the TTL and returns how many.
func (s *Store) Cleanup() int {
	if s.ttl <= 0 {
		return 0
	}
	now := time.Now()
	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.LastAccess()) > s.ttl {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		s.log.Info("expired sessions removed", "count", len(expired))
	}
	return len(expired)
}

// Start launches periodic cleanup.
func (s *Store) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	cleanupCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Stop ends periodic cleanup and closes every session.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	for _, sess := range all {
		sess.Close()
	}
}

func (s *Store) oldestLocked() *Session {
	var oldest *Session
	for _, sess := range s.sessions {
		if oldest == nil || sess.LastAccess().Before(oldest.LastAccess()) {
			oldest = sess
		}
	}
	return oldest
}
