package session

import (
	"context"
	"sync"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/domain"
)

// MemoryStore keeps session hashes in process. Expired entries are dropped
// when read and by a periodic sweep.
type MemoryStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

var _ domain.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore starts a sweeper running every interval; zero disables it.
func NewMemoryStore(interval time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	s := &MemoryStore{
		expires: make(map[string]time.Time),
		now:     now,
		stop:    make(chan struct{}),
	}
	if interval > 0 {
		go s.sweepEvery(interval)
	}
	return s
}

func (s *MemoryStore) Save(_ context.Context, tokenHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[tokenHash] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expires[tokenHash]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.expires, tokenHash)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expires, tokenHash)
	return nil
}

func (s *MemoryStore) DeleteAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.expires)
	return nil
}

// Sweep drops every expired session and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for hash, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, hash)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}
