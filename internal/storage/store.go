package storage

import (
	"errors"
	"sync"

	"golang.org/x/exp/slices"
)

// ErrKeyNotFound is returned when a key doesn't exist in the store
var ErrKeyNotFound = errors.New("key not found")

// GroupStore defines the interface for the shared key to value-list structure
// written by merge workers. All implementations must be thread-safe for
// concurrent access.
type GroupStore interface {
	// Register creates an empty value list for every key not yet present.
	// Existing lists are left untouched.
	Register(keys ...string)

	// Append adds values to the end of the key's list as one atomic
	// read-modify-write. An unregistered key gets a new list.
	Append(key string, values []int) error

	// Get returns a copy of the key's value list
	// Returns ErrKeyNotFound if the key doesn't exist
	Get(key string) ([]int, error)

	// List returns all keys in the store, sorted
	List() []string

	// Snapshot returns a deep copy of the whole store
	Snapshot() map[string][]int

	// Stats returns storage statistics
	Stats() StoreStats
}

// StoreStats contains statistics about the store
type StoreStats struct {
	Keys   int // Number of keys
	Values int // Total number of values across all lists
}

// MemoryStore implements GroupStore with a single mutex covering the map.
// Every Append holds the lock for the whole read, extend and write back.
type MemoryStore struct {
	mu   sync.Mutex       // Protects data
	data map[string][]int // Key to value list
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]int),
	}
}

// Register pre-creates empty lists for keys
func (m *MemoryStore) Register(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		if _, exists := m.data[key]; !exists {
			m.data[key] = []int{}
		}
	}
}

// Append extends the key's list under the store lock
func (m *MemoryStore) Append(key string, values []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.data[key]
	extended := make([]int, 0, len(current)+len(values))
	extended = append(extended, current...)
	extended = append(extended, values...)
	m.data[key] = extended

	return nil
}

// Get retrieves a value list by key
// Returns a copy of the list to prevent external modification
func (m *MemoryStore) Get(key string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	values, exists := m.data[key]
	if !exists {
		return nil, ErrKeyNotFound
	}
	return slices.Clone(values), nil
}

// List returns all keys in the store in sorted order
func (m *MemoryStore) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Snapshot copies every list out of the store
func (m *MemoryStore) Snapshot() map[string][]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]int, len(m.data))
	for key, values := range m.data {
		out[key] = slices.Clone(values)
	}
	return out
}

// Stats returns storage statistics
func (m *MemoryStore) Stats() StoreStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, values := range m.data {
		total += len(values)
	}

	return StoreStats{
		Keys:   len(m.data),
		Values: total,
	}
}
