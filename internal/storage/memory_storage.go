package storage

import (
	"sync"

	"github.com/BetterCallFirewall/PhishGuard/internal/classifier"
)

// MemoryStorage хранит последние вердикты в памяти. При переполнении
// вытесняются самые старые записи.
type MemoryStorage struct {
	verdicts map[string]classifier.Verdict
	order    []string // от старых к новым
	capacity int
	mu       sync.RWMutex
}

// NewMemoryStorage creates a store for up to capacity verdicts. A zero
// capacity disables storing.
func NewMemoryStorage(capacity int) *MemoryStorage {
	if capacity < 0 {
		capacity = 0
	}
	return &MemoryStorage{
		verdicts: make(map[string]classifier.Verdict, capacity),
		capacity: capacity,
	}
}

func (s *MemoryStorage) StoreVerdict(v classifier.Verdict) {
	if s.capacity == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.verdicts[v.ID]; !ok {
		s.order = append(s.order, v.ID)
	}
	s.verdicts[v.ID] = v

	for len(s.order) > s.capacity {
		delete(s.verdicts, s.order[0])
		s.order = s.order[1:]
	}
}

// Recent returns stored verdicts, newest first.
func (s *MemoryStorage) Recent() []classifier.Verdict {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]classifier.Verdict, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.verdicts[s.order[i]])
	}
	return out
}
