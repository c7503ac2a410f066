// Package mapreduce implements a single-process map, shuffle and reduce
// pipeline on top of a bounded worker pool.
//
// # Stages
//
//	partitions ──► RedundantStream ──► Mapper ──► Sorter ──► Reducer ──► Output
//	               (per partition)     (pool)    (seq or    (pool,
//	                                              pool)      per key)
//
// MapStage: one Mapper call per partition, results in partition order.
//
// Shuffle: two strategies producing equivalent Grouped mappings.
//   - ShuffleSequential folds every pair on the calling goroutine.
//   - ShuffleConcurrent groups each partition locally on the pool, registers
//     the union of keys in a storage.GroupStore, then merges every local
//     mapping through the store's atomic Append.
//
// ReduceStage: one Reducer call per key on the pool. Keys are unique per
// call, so collecting results needs no merge; a custom reducer that maps two
// keys onto the same output key is reported as ErrDuplicateKey.
//
// # Substitution
//
// Every stage function is an interface (Mapper, Sorter, Reducer, Output)
// with a Func adapter. Defaults are UnitMapper, SequentialSorter, SumReducer
// and a text printer on stdout.
//
// # Failure
//
// Every error is fatal to the run. A replica read with no healthy replica,
// a failing or panicking stage function, or a failing output all surface
// from Run wrapped with the stage name, and the output is never called with
// partial results.
package mapreduce
