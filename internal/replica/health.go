package replica

import (
	"log"
	"math/rand"
	"sync"
)

// DefaultReliableFrom is the first replica ID of the always-healthy tier.
// It is also the upper bound: a model may make more replicas reliable, never
// fewer, so replica 2 and above are healthy under every built-in model.
const DefaultReliableFrom = 2

// reliable reports whether replicaID is in the always-healthy tier for a
// model configured with reliableFrom
func reliable(replicaID, reliableFrom int) bool {
	return replicaID >= min(reliableFrom, DefaultReliableFrom)
}

// HealthModel decides whether a replica is healthy at the moment of a read.
// Implementations must be safe for concurrent use; streams for different
// partitions sample the same model from different goroutines.
type HealthModel interface {
	Healthy(replicaID int) bool
}

// HealthFunc adapts a plain function to HealthModel
type HealthFunc func(replicaID int) bool

// Healthy calls f
func (f HealthFunc) Healthy(replicaID int) bool { return f(replicaID) }

// AlwaysHealthy reports every replica healthy
var AlwaysHealthy HealthModel = HealthFunc(func(int) bool { return true })

// NeverHealthy reports every replica unhealthy
var NeverHealthy HealthModel = HealthFunc(func(int) bool { return false })

// RandomHealth models the unreliable tier as a fair coin flipped on every
// check. Replicas with ID >= ReliableFrom are always healthy; values above
// DefaultReliableFrom are capped at it.
type RandomHealth struct {
	ReliableFrom int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomHealth creates a coin-flip model. A nil rng uses the global source.
func NewRandomHealth(reliableFrom int, rng *rand.Rand) *RandomHealth {
	return &RandomHealth{ReliableFrom: reliableFrom, rng: rng}
}

// Healthy flips a fresh coin for unreliable replicas
func (h *RandomHealth) Healthy(replicaID int) bool {
	if reliable(replicaID, h.ReliableFrom) {
		return true
	}
	if h.rng == nil {
		return rand.Intn(2) == 0
	}
	// *rand.Rand is not safe for concurrent use
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Intn(2) == 0
}

// ReplicaHealth is the tracked state of one replica under OutageHealth
type ReplicaHealth struct {
	ReplicaID        int    // Replica being tracked
	Status           string // "healthy" or "unhealthy"
	ConsecutiveFails int    // Checks answered unhealthy in a row
	remaining        int    // Checks left in the current outage
}

// OutageHealth is a stateful alternative to RandomHealth. When an unreliable
// replica fails a check it stays down for Window consecutive checks
// (including the failing one) and then recovers, instead of being re-sampled
// independently on each call.
type OutageHealth struct {
	ReliableFrom int
	FailureRate  float64 // Chance a healthy replica goes down on a check
	Window       int     // Length of an outage in checks

	mu       sync.Mutex
	rng      *rand.Rand
	replicas map[int]*ReplicaHealth
	logger   *log.Logger
}

// NewOutageHealth creates a stateful outage model
func NewOutageHealth(reliableFrom int, failureRate float64, window int, rng *rand.Rand) *OutageHealth {
	if window < 1 {
		window = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &OutageHealth{
		ReliableFrom: reliableFrom,
		FailureRate:  failureRate,
		Window:       window,
		rng:          rng,
		replicas:     make(map[int]*ReplicaHealth),
		logger:       log.Default(),
	}
}

// SetLogger replaces the logger used for state transitions
func (h *OutageHealth) SetLogger(l *log.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = l
}

// Healthy advances the replica's state machine by one check
func (h *OutageHealth) Healthy(replicaID int) bool {
	if reliable(replicaID, h.ReliableFrom) {
		return true
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	state, exists := h.replicas[replicaID]
	if !exists {
		state = &ReplicaHealth{ReplicaID: replicaID, Status: "healthy"}
		h.replicas[replicaID] = state
	}

	if state.remaining == 0 && h.rng.Float64() < h.FailureRate {
		state.remaining = h.Window
		h.logger.Printf("replica %d down for %d checks", replicaID, h.Window)
	}

	if state.remaining > 0 {
		state.remaining--
		state.ConsecutiveFails++
		state.Status = "unhealthy"
		return false
	}

	if state.Status == "unhealthy" {
		h.logger.Printf("replica %d recovered after %d failed checks", replicaID, state.ConsecutiveFails)
	}
	state.Status = "healthy"
	state.ConsecutiveFails = 0
	return true
}

// Status returns a copy of the tracked state of a replica, or nil if it
// has never been checked
func (h *OutageHealth) Status(replicaID int) *ReplicaHealth {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, exists := h.replicas[replicaID]
	if !exists {
		return nil
	}
	cp := *state
	return &cp
}
