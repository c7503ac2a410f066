package mapreduce

import (
	"context"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/dreamware/tally/internal/storage"
	"github.com/dreamware/tally/internal/workerpool"
)

// MapStage runs mapper once per partition on the pool. The result holds one
// pair sequence per partition, in partition order.
func MapStage(ctx context.Context, pool *workerpool.Pool, partitions []Partition, mapper Mapper) ([][]Pair, error) {
	return workerpool.Run(ctx, pool, partitions, func(_ context.Context, p Partition) ([]Pair, error) {
		return mapper.Map(p)
	})
}

// Sorter groups mapped pairs by key
type Sorter interface {
	Sort(ctx context.Context, mapped [][]Pair) (Grouped, error)
}

// SorterFunc adapts a function to Sorter
type SorterFunc func(ctx context.Context, mapped [][]Pair) (Grouped, error)

// Sort calls f
func (f SorterFunc) Sort(ctx context.Context, mapped [][]Pair) (Grouped, error) {
	return f(ctx, mapped)
}

// SequentialSorter folds all pairs into one mapping on the calling goroutine
type SequentialSorter struct{}

// Sort implements Sorter
func (SequentialSorter) Sort(_ context.Context, mapped [][]Pair) (Grouped, error) {
	return ShuffleSequential(mapped), nil
}

// ConcurrentSorter groups each partition in parallel and merges the local
// mappings into a shared store
type ConcurrentSorter struct {
	Pool     *workerpool.Pool
	NewStore func() storage.GroupStore // nil means storage.NewMemoryStore
}

// Sort implements Sorter
func (s ConcurrentSorter) Sort(ctx context.Context, mapped [][]Pair) (Grouped, error) {
	var store storage.GroupStore
	if s.NewStore != nil {
		store = s.NewStore()
	} else {
		store = storage.NewMemoryStore()
	}
	pool := s.Pool
	if pool == nil {
		pool = workerpool.New(0)
	}
	return ShuffleConcurrent(ctx, pool, mapped, store)
}

// groupLocal groups one partition's pairs, keeping their order
func groupLocal(pairs []Pair) Grouped {
	g := make(Grouped)
	for _, p := range pairs {
		g[p.Key] = append(g[p.Key], p.Value)
	}
	return g
}

// ShuffleSequential groups every pair by key in partition order
func ShuffleSequential(mapped [][]Pair) Grouped {
	g := make(Grouped)
	for _, pairs := range mapped {
		for _, p := range pairs {
			g[p.Key] = append(g[p.Key], p.Value)
		}
	}
	return g
}

// ShuffleConcurrent groups mapped pairs by key using the pool and a shared
// store.
//
// Steps:
//  1. Group each partition's pairs into a local mapping, in parallel
//  2. Register the union of all keys in store before any writer starts
//  3. Run one merge task per local mapping; each appends its lists through
//     store.Append, which performs the read-modify-write of a key atomically
//  4. Copy the merged lists out of store
//
// Parameters:
//   - ctx: Context for the pool runs
//   - pool: Bounds local grouping and merge tasks
//   - mapped: One pair sequence per partition
//   - store: Empty GroupStore, owned by this call until it returns
//
// Returns:
//   - Grouped: Equivalent to ShuffleSequential(mapped); empty for no input
//   - error: A wrapped *workerpool.WorkerFailure if any task fails
//
// Example:
//
//	grouped, err := ShuffleConcurrent(ctx, workerpool.New(8), mapped, storage.NewStripedStore(16))
func ShuffleConcurrent(ctx context.Context, pool *workerpool.Pool, mapped [][]Pair, store storage.GroupStore) (Grouped, error) {
	locals, err := workerpool.Run(ctx, pool, mapped, func(_ context.Context, pairs []Pair) (Grouped, error) {
		return groupLocal(pairs), nil
	})
	if err != nil {
		return nil, fmt.Errorf("local grouping: %w", err)
	}

	seen := make(map[string]struct{})
	var keys []string
	for _, local := range locals {
		for k := range local {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	store.Register(keys...)

	err = workerpool.ForEach(ctx, pool, locals, func(_ context.Context, local Grouped) error {
		for k, values := range local {
			if err := store.Append(k, values); err != nil {
				return fmt.Errorf("append %q: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	return Grouped(store.Snapshot()), nil
}

type reducedEntry struct {
	key   string
	value int
}

// ReduceStage calls reducer once per key on the pool and collects the
// results. Keys are dispatched in sorted order.
func ReduceStage(ctx context.Context, pool *workerpool.Pool, grouped Grouped, reducer Reducer) (Reduced, error) {
	keys := grouped.Keys()
	entries, err := workerpool.Run(ctx, pool, keys, func(_ context.Context, k string) (reducedEntry, error) {
		rk, v, err := reducer.Reduce(k, slices.Clone(grouped[k]))
		if err != nil {
			return reducedEntry{}, fmt.Errorf("reduce %q: %w", k, err)
		}
		return reducedEntry{key: rk, value: v}, nil
	})
	if err != nil {
		return nil, err
	}

	out := make(Reduced, len(entries))
	for _, e := range entries {
		if _, dup := out[e.key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, e.key)
		}
		out[e.key] = e.value
	}
	return out, nil
}
