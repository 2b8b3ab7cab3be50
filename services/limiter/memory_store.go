package limiter

import (
	"context"
	"sync"
	"time"
)

type memoryWindow struct {
	stamps    []time.Time
	expiresAt time.Time
}

// MemoryStore holds windows in process memory. Keys expire after their last
// window elapses and are evicted by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*memoryWindow)}
}

func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = &memoryWindow{}
		s.windows[key] = w
	}

	windowStart := now.Add(-window)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	w.stamps = append(kept, now)
	w.expiresAt = now.Add(window)

	out := make([]time.Time, len(w.stamps))
	copy(out, w.stamps)
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.windows, key)
	s.mu.Unlock()
	return nil
}

// Sweep evicts every key whose TTL has passed and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		if !now.Before(w.expiresAt) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := s.Sweep(now)
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}
