package replica

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrIndexOutOfRange is returned when a read is outside the dataset
var ErrIndexOutOfRange = errors.New("index out of range")

// Replica is one simulated holder of a full copy of the dataset.
// The data slice is shared read-only with every other replica of the
// same stream; redundancy exists for failure simulation, not sharding.
type Replica struct {
	ID     int          // Position in the failover order, 0 is consulted first
	data   []string     // Read-only dataset
	health HealthModel  // Sampled on every Healthy call
	stats  ReplicaStats // Operation counters, updated atomically
}

// ReplicaStats tracks operation counts for a replica
type ReplicaStats struct {
	Checks    uint64 // Number of health samples taken
	Unhealthy uint64 // Number of samples that reported unhealthy
	Reads     uint64 // Number of successful reads served
}

// NewReplica creates a replica serving data with the given health model
func NewReplica(id int, data []string, health HealthModel) *Replica {
	return &Replica{
		ID:     id,
		data:   data,
		health: health,
	}
}

// Healthy samples the replica's health. The result is never cached;
// two consecutive calls may disagree.
func (r *Replica) Healthy() bool {
	atomic.AddUint64(&r.stats.Checks, 1)
	ok := r.health.Healthy(r.ID)
	if !ok {
		atomic.AddUint64(&r.stats.Unhealthy, 1)
	}
	return ok
}

// Get returns the element at index
func (r *Replica) Get(index int) (string, error) {
	if index < 0 || index >= len(r.data) {
		return "", fmt.Errorf("replica %d: %w: %d", r.ID, ErrIndexOutOfRange, index)
	}
	atomic.AddUint64(&r.stats.Reads, 1)
	return r.data[index], nil
}

// Stats returns a snapshot of the replica's counters
func (r *Replica) Stats() ReplicaStats {
	return ReplicaStats{
		Checks:    atomic.LoadUint64(&r.stats.Checks),
		Unhealthy: atomic.LoadUint64(&r.stats.Unhealthy),
		Reads:     atomic.LoadUint64(&r.stats.Reads),
	}
}
