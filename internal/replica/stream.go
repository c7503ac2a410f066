package replica

import (
	"errors"
	"fmt"
	"io"
)

// DefaultReplicas is the number of replicas a stream builds when asked for
// zero or fewer
const DefaultReplicas = 3

// ErrDataUnavailable is returned when every replica reports unhealthy for a read
var ErrDataUnavailable = errors.New("data unavailable")

// DataUnavailableError describes a read that found no healthy replica.
// It matches ErrDataUnavailable with errors.Is.
type DataUnavailableError struct {
	Index     int // Dataset index that was requested
	Consulted int // Number of replicas asked
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("read %d: all %d replicas unhealthy: %v", e.Index, e.Consulted, ErrDataUnavailable)
}

// Is reports whether target is ErrDataUnavailable
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// RedundantStream is a forward-only, single-pass sequence over a dataset.
// Each read goes to the first replica, in ascending ID order, that reports
// healthy at that moment. A stream is owned by one goroutine.
type RedundantStream struct {
	replicas []*Replica
	cursor   int
	size     int
}

// NewRedundantStream builds n replicas over data and positions the cursor at
// the first element. All replicas share data read-only and sample the same
// health model; replica 0 is consulted first on every read.
//
// Parameters:
//   - data: The dataset, not copied and never modified
//   - n: Number of replicas (n <= 0 means DefaultReplicas)
//   - health: Health model (nil means coin-flip health for replicas below DefaultReliableFrom)
//
// Returns:
//   - *RedundantStream: Single-pass stream producing exactly len(data) elements
//
// Example:
//
//	stream := NewRedundantStream([]string{"Java", "Lisp"}, 3, nil)
//	words, err := stream.Drain()
//	if errors.Is(err, ErrDataUnavailable) {
//	    // every replica was down for one read
//	}
func NewRedundantStream(data []string, n int, health HealthModel) *RedundantStream {
	if n <= 0 {
		n = DefaultReplicas
	}
	if health == nil {
		health = NewRandomHealth(DefaultReliableFrom, nil)
	}
	replicas := make([]*Replica, n)
	for i := range replicas {
		replicas[i] = NewReplica(i, data, health)
	}
	return &RedundantStream{
		replicas: replicas,
		size:     len(data),
	}
}

// Get reads index from the first healthy replica. If none is healthy the
// read fails with a *DataUnavailableError; the stream does not retry.
func (s *RedundantStream) Get(index int) (string, error) {
	for _, r := range s.replicas {
		if r.Healthy() {
			return r.Get(index)
		}
	}
	return "", &DataUnavailableError{Index: index, Consulted: len(s.replicas)}
}

// Next returns the element at the cursor and advances it. io.EOF signals
// exhaustion. A failed read leaves the cursor in place.
func (s *RedundantStream) Next() (string, error) {
	if s.cursor >= s.size {
		return "", io.EOF
	}
	v, err := s.Get(s.cursor)
	if err != nil {
		return "", err
	}
	s.cursor++
	return v, nil
}

// Drain reads every remaining element, stopping at the first error
func (s *RedundantStream) Drain() ([]string, error) {
	out := make([]string, 0, s.size-s.cursor)
	for {
		v, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// Len returns the logical size of the dataset
func (s *RedundantStream) Len() int { return s.size }

// Position returns the number of elements already produced
func (s *RedundantStream) Position() int { return s.cursor }

// Replicas returns the replicas in failover order
func (s *RedundantStream) Replicas() []*Replica {
	return append([]*Replica(nil), s.replicas...)
}
