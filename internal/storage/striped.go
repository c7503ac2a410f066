package storage

import (
	"hash/fnv"
	"sync"

	"golang.org/x/exp/slices"
)

// DefaultStripes is the stripe count used when NewStripedStore gets n <= 0
const DefaultStripes = 16

// StripedStore implements GroupStore with one lock per stripe of the
// keyspace. Keys are assigned to stripes with FNV-1a, so merge workers
// appending to different keys rarely contend.
type StripedStore struct {
	stripes []*stripe
}

type stripe struct {
	mu   sync.Mutex
	data map[string][]int
}

// NewStripedStore creates a store with n independently locked stripes
func NewStripedStore(n int) *StripedStore {
	if n <= 0 {
		n = DefaultStripes
	}
	s := &StripedStore{stripes: make([]*stripe, n)}
	for i := range s.stripes {
		s.stripes[i] = &stripe{data: make(map[string][]int)}
	}
	return s
}

// stripeFor hashes the key to its owning stripe
func (s *StripedStore) stripeFor(key string) *stripe {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key)) // hash.Hash writes never fail
	return s.stripes[int(h.Sum32()%uint32(len(s.stripes)))]
}

// Register pre-creates empty lists for keys
func (s *StripedStore) Register(keys ...string) {
	for _, key := range keys {
		st := s.stripeFor(key)
		st.mu.Lock()
		if _, exists := st.data[key]; !exists {
			st.data[key] = []int{}
		}
		st.mu.Unlock()
	}
}

// Append extends the key's list while holding only that key's stripe lock
func (s *StripedStore) Append(key string, values []int) error {
	st := s.stripeFor(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	current := st.data[key]
	extended := make([]int, 0, len(current)+len(values))
	extended = append(extended, current...)
	extended = append(extended, values...)
	st.data[key] = extended

	return nil
}

// Get retrieves a copy of the value list for key
func (s *StripedStore) Get(key string) ([]int, error) {
	st := s.stripeFor(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	values, exists := st.data[key]
	if !exists {
		return nil, ErrKeyNotFound
	}
	return slices.Clone(values), nil
}

// List returns all keys across stripes in sorted order
func (s *StripedStore) List() []string {
	var keys []string
	for _, st := range s.stripes {
		st.mu.Lock()
		for key := range st.data {
			keys = append(keys, key)
		}
		st.mu.Unlock()
	}
	slices.Sort(keys)
	return keys
}

// Snapshot copies every list out of the store. Stripes are locked one at a
// time, so the result is only consistent once writers have finished.
func (s *StripedStore) Snapshot() map[string][]int {
	out := make(map[string][]int)
	for _, st := range s.stripes {
		st.mu.Lock()
		for key, values := range st.data {
			out[key] = slices.Clone(values)
		}
		st.mu.Unlock()
	}
	return out
}

// Stats returns storage statistics
func (s *StripedStore) Stats() StoreStats {
	var stats StoreStats
	for _, st := range s.stripes {
		st.mu.Lock()
		stats.Keys += len(st.data)
		for _, values := range st.data {
			stats.Values += len(values)
		}
		st.mu.Unlock()
	}
	return stats
}
