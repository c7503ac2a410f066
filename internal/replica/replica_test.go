package replica

import (
	"errors"
	"io"
	"log"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{"Java", "Hadoop", "RDBMS", "Prolog", "Lisp", "Pascal"}

// healthyOnly returns a model where only the listed replicas are healthy
func healthyOnly(ids ...int) HealthModel {
	set := make(map[int]bool)
	for _, id := range ids {
		set[id] = true
	}
	return HealthFunc(func(id int) bool { return set[id] })
}

// TestReplicaGet verifies indexed reads and bounds checking.
func TestReplicaGet(t *testing.T) {
	r := NewReplica(0, corpus, AlwaysHealthy)

	v, err := r.Get(3)
	require.NoError(t, err)
	assert.Equal(t, "Prolog", v)

	_, err = r.Get(len(corpus))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = r.Get(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	assert.Equal(t, uint64(1), r.Stats().Reads)
}

// TestReplicaHealthSampledPerCall checks that health is not cached between calls.
func TestReplicaHealthSampledPerCall(t *testing.T) {
	answers := []bool{true, false, true}
	calls := 0
	r := NewReplica(0, corpus, HealthFunc(func(int) bool {
		v := answers[calls]
		calls++
		return v
	}))

	assert.True(t, r.Healthy())
	assert.False(t, r.Healthy())
	assert.True(t, r.Healthy())

	stats := r.Stats()
	assert.Equal(t, uint64(3), stats.Checks)
	assert.Equal(t, uint64(1), stats.Unhealthy)
}

// TestRandomHealthTiers verifies the reliable tier never fails and the
// unreliable tier produces both answers.
func TestRandomHealthTiers(t *testing.T) {
	h := NewRandomHealth(DefaultReliableFrom, rand.New(rand.NewSource(1)))

	seen := map[bool]int{}
	for i := 0; i < 1000; i++ {
		assert.True(t, h.Healthy(2))
		assert.True(t, h.Healthy(5))
		seen[h.Healthy(0)]++
		seen[h.Healthy(1)]++
	}
	assert.Greater(t, seen[true], 0)
	assert.Greater(t, seen[false], 0)

	// global source path
	g := NewRandomHealth(1, nil)
	assert.True(t, g.Healthy(1))
}

// TestRandomHealthConcurrent exercises the shared rng from many goroutines.
func TestRandomHealthConcurrent(t *testing.T) {
	h := NewRandomHealth(DefaultReliableFrom, rand.New(rand.NewSource(7)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				h.Healthy(j % 3)
			}
		}()
	}
	wg.Wait()
}

// TestRedundantStreamFailover covers the first-healthy-replica rule.
func TestRedundantStreamFailover(t *testing.T) {
	tests := []struct {
		name     string
		health   HealthModel
		wantErr  bool
		wantRead int // replica expected to serve the read
	}{
		{name: "first replica healthy", health: healthyOnly(0, 1, 2), wantRead: 0},
		{name: "first down", health: healthyOnly(1, 2), wantRead: 1},
		{name: "only last healthy", health: healthyOnly(2), wantRead: 2},
		{name: "all down", health: NeverHealthy, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRedundantStream(corpus, 3, tt.health)

			v, err := s.Get(1)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrDataUnavailable))

				var due *DataUnavailableError
				require.True(t, errors.As(err, &due))
				assert.Equal(t, 1, due.Index)
				assert.Equal(t, 3, due.Consulted)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Hadoop", v)
			for _, r := range s.Replicas() {
				if r.ID == tt.wantRead {
					assert.Equal(t, uint64(1), r.Stats().Reads)
				} else {
					assert.Equal(t, uint64(0), r.Stats().Reads)
				}
			}
		})
	}
}

// TestRedundantStreamDefaultNeverFails reads many times through the default
// three replicas; the reliable tier must always catch the read.
func TestRedundantStreamDefaultNeverFails(t *testing.T) {
	for i := 0; i < 200; i++ {
		s := NewRedundantStream(corpus, 0, nil)
		got, err := s.Drain()
		require.NoError(t, err)
		assert.Equal(t, corpus, got)
	}
}

// TestRedundantStreamIteration verifies the single-pass contract.
func TestRedundantStreamIteration(t *testing.T) {
	s := NewRedundantStream(corpus, 3, AlwaysHealthy)
	assert.Equal(t, len(corpus), s.Len())

	for i, want := range corpus {
		assert.Equal(t, i, s.Position())
		v, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	_, err := s.Next()
	assert.Equal(t, io.EOF, err)
	_, err = s.Next()
	assert.Equal(t, io.EOF, err, "exhausted stream stays exhausted")
	assert.Equal(t, len(corpus), s.Position())
}

// TestRedundantStreamFailedReadKeepsCursor checks that a failed read can be
// retried by the caller at the same index.
func TestRedundantStreamFailedReadKeepsCursor(t *testing.T) {
	down := true
	s := NewRedundantStream(corpus, 2, HealthFunc(func(int) bool { return !down }))

	_, err := s.Next()
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Equal(t, 0, s.Position())

	down = false
	v, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "Java", v)
}

// TestRedundantStreamDrainFailsFast checks Drain surfaces the first failure.
func TestRedundantStreamDrainFailsFast(t *testing.T) {
	reads := 0
	s := NewRedundantStream(corpus, 1, HealthFunc(func(int) bool {
		reads++
		return reads <= 2
	}))

	got, err := s.Drain()
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Equal(t, 2, s.Position())
}

// TestRedundantStreamUnreliableOnly shows the unreliable tier alone can fail.
func TestRedundantStreamUnreliableOnly(t *testing.T) {
	h := NewRandomHealth(DefaultReliableFrom, rand.New(rand.NewSource(3)))

	failures := 0
	for i := 0; i < 200; i++ {
		s := NewRedundantStream(corpus, 2, h)
		if _, err := s.Get(0); err != nil {
			assert.ErrorIs(t, err, ErrDataUnavailable)
			failures++
		}
	}
	assert.Greater(t, failures, 0)
	assert.Less(t, failures, 200)
}

// TestOutageHealth verifies outage windows persist and then recover.
func TestOutageHealth(t *testing.T) {
	h := NewOutageHealth(DefaultReliableFrom, 1.0, 3, rand.New(rand.NewSource(1)))
	h.SetLogger(log.New(io.Discard, "", 0))

	assert.Nil(t, h.Status(0))
	assert.True(t, h.Healthy(2), "reliable tier is never down")

	// FailureRate 1.0: down for exactly Window checks, then a fresh outage.
	assert.False(t, h.Healthy(0))
	assert.False(t, h.Healthy(0))
	assert.False(t, h.Healthy(0))

	st := h.Status(0)
	require.NotNil(t, st)
	assert.Equal(t, "unhealthy", st.Status)
	assert.Equal(t, 3, st.ConsecutiveFails)

	h.FailureRate = 0
	assert.True(t, h.Healthy(0))
	st = h.Status(0)
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, 0, st.ConsecutiveFails)
}

// TestOutageHealthStream checks the stream fails over during an outage.
func TestOutageHealthStream(t *testing.T) {
	h := NewOutageHealth(DefaultReliableFrom, 0.5, 4, rand.New(rand.NewSource(9)))
	h.SetLogger(log.New(io.Discard, "", 0))

	s := NewRedundantStream(corpus, 3, h)
	got, err := s.Drain()
	require.NoError(t, err)
	assert.Equal(t, corpus, got)
}

// TestReliableTierCapped checks that a threshold above replica 2 cannot pull
// replica 2 into the unreliable tier, so three-replica reads never fail.
func TestReliableTierCapped(t *testing.T) {
	random := NewRandomHealth(10, rand.New(rand.NewSource(4)))
	outage := NewOutageHealth(10, 1.0, 2, rand.New(rand.NewSource(4)))
	outage.SetLogger(log.New(io.Discard, "", 0))

	for _, h := range []HealthModel{random, outage} {
		for i := 0; i < 1000; i++ {
			assert.True(t, h.Healthy(2))
		}
		for i := 0; i < 200; i++ {
			s := NewRedundantStream(corpus, 3, h)
			_, err := s.Get(0)
			require.NoError(t, err)
		}
	}

	// A lower threshold only widens the healthy tier.
	low := NewRandomHealth(1, rand.New(rand.NewSource(4)))
	for i := 0; i < 100; i++ {
		assert.True(t, low.Healthy(1))
	}
}
