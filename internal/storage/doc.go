// Package storage provides the shared keyed structure that merge workers
// write into during the concurrent shuffle.
//
// # Overview
//
// A GroupStore maps each key to an ordered list of integer contributions.
// The only mutation is Append, which performs the read of the current list,
// the extension and the write back as one step under a lock. Two merge
// workers appending to the same key therefore never lose each other's values.
//
// # Implementations
//
// MemoryStore: one sync.Mutex for the whole map
//   - Simplest correct choice
//   - All writers serialize, regardless of key
//
// StripedStore: one sync.Mutex per stripe of the keyspace
//   - Keys hashed with FNV-1a onto a fixed number of stripes
//   - Writers on different stripes proceed in parallel
//   - List, Snapshot and Stats visit stripes one at a time
//
// # Key Registration
//
// Callers register the full key set with Register before any writer starts.
// Append on an unknown key still works, but pre-registration keeps the key
// set fixed while merge workers run and makes Get on a key with no
// contributions return an empty list instead of ErrKeyNotFound.
//
// # Usage
//
//	store := storage.NewStripedStore(16)
//	store.Register("Java", "Lisp")
//	_ = store.Append("Java", []int{1, 1})
//	values, _ := store.Get("Java") // [1 1]
//
// All returned slices and maps are copies; callers may modify them freely.
package storage
