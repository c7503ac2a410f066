// Package replica simulates a redundant data source: several in-process
// replicas of one read-only dataset, read through a stream that fails over
// between them.
//
// # Tiers
//
// Replicas are numbered from 0. Those below the reliable threshold (2 by
// default) belong to the unreliable tier and answer health checks according
// to a HealthModel; replicas at or above it are always healthy. With the
// default three replicas every read therefore succeeds, and
// ErrDataUnavailable only surfaces when a stream is built with fewer
// replicas or a model that fails the reliable tier too.
//
// # Health Models
//
//   - RandomHealth: independent fair coin per check, no memory
//   - OutageHealth: an outage lasts a fixed number of checks, then recovers
//   - HealthFunc: any function, used by tests
//
// # Reads
//
//	stream := replica.NewRedundantStream(data, 3, nil)
//	for {
//	    v, err := stream.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err // errors.Is(err, replica.ErrDataUnavailable)
//	    }
//	    use(v)
//	}
//
// A failed read is not retried by the stream. The next Next call reads the
// same index again with freshly sampled health, so callers may retry.
package replica
