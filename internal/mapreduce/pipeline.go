package mapreduce

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/tally/internal/input"
	"github.com/dreamware/tally/internal/output"
	"github.com/dreamware/tally/internal/replica"
	"github.com/dreamware/tally/internal/storage"
	"github.com/dreamware/tally/internal/workerpool"
)

// RunStats describes the most recent pipeline run
type RunStats struct {
	RunID      string        // Identifier used in log lines
	Partitions int           // Input partitions read
	Pairs      int           // Pairs emitted by the map stage
	Keys       int           // Distinct keys after the shuffle
	Map        time.Duration // Read + map stage wall time
	Shuffle    time.Duration // Shuffle/merge stage wall time
	Reduce     time.Duration // Reduce stage wall time
}

// Pipeline sequences the map, shuffle, reduce and output stages.
// A Pipeline may be run any number of times; runs do not share state.
type Pipeline struct {
	mapper   Mapper
	sorter   Sorter
	reducer  Reducer
	output   Output
	pool     *workerpool.Pool
	replicas int
	health   replica.HealthModel
	logger   *log.Logger

	concurrent bool
	newStore   func() storage.GroupStore

	mu    sync.Mutex
	stats RunStats
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMapper replaces UnitMapper
func WithMapper(m Mapper) Option { return func(p *Pipeline) { p.mapper = m } }

// WithSorter replaces the sequential shuffle
func WithSorter(s Sorter) Option {
	return func(p *Pipeline) {
		p.sorter = s
		p.concurrent = false
	}
}

// WithConcurrentShuffle selects the concurrent shuffle on the pipeline's
// pool, merging into a store from newStore (nil means a MemoryStore)
func WithConcurrentShuffle(newStore func() storage.GroupStore) Option {
	return func(p *Pipeline) {
		p.concurrent = true
		p.newStore = newStore
	}
}

// WithReducer replaces SumReducer
func WithReducer(r Reducer) Option { return func(p *Pipeline) { p.reducer = r } }

// WithOutput replaces the stdout text printer
func WithOutput(o Output) Option { return func(p *Pipeline) { p.output = o } }

// WithParallelism sets the worker pool size. n <= 0 means
// workerpool.DefaultParallelism.
func WithParallelism(n int) Option { return func(p *Pipeline) { p.pool = workerpool.New(n) } }

// WithReplicas sets how many replicas back each partition stream
func WithReplicas(n int) Option { return func(p *Pipeline) { p.replicas = n } }

// WithHealth sets the health model shared by all replicas
func WithHealth(h replica.HealthModel) Option { return func(p *Pipeline) { p.health = h } }

// WithLogger sets the logger for stage progress
func WithLogger(l *log.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// NewPipeline creates a pipeline with defaults for every stage, then applies
// opts in order.
//
// Defaults:
//   - Mapper: UnitMapper, one (element, 1) pair per element
//   - Sorter: SequentialSorter
//   - Reducer: SumReducer
//   - Output: text printer on stdout
//   - Parallelism: workerpool.DefaultParallelism (2x CPUs)
//   - Replicas: replica.DefaultReplicas, coin-flip health for replicas 0 and 1
//   - Logger: log.Default()
//
// WithConcurrentShuffle is resolved after all options, so the concurrent
// sorter always shares the final worker pool regardless of option order.
//
// Parameters:
//   - opts: Stage substitutions and tuning options
//
// Returns:
//   - *Pipeline: Ready to Run or Start any number of times
//
// Example:
//
//	p := NewPipeline(
//	    WithParallelism(8),
//	    WithConcurrentShuffle(func() storage.GroupStore { return storage.NewStripedStore(16) }),
//	    WithOutput(PrintOutput(os.Stdout, output.FormatJSON)),
//	)
//	counts, err := p.Start(ctx, input.DefaultDescriptor)
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		mapper:   UnitMapper,
		sorter:   SequentialSorter{},
		reducer:  SumReducer,
		output:   PrintOutput(os.Stdout, output.FormatText),
		pool:     workerpool.New(0),
		replicas: replica.DefaultReplicas,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrent {
		p.sorter = ConcurrentSorter{Pool: p.pool, NewStore: p.newStore}
	}
	if p.health == nil {
		p.health = replica.NewRandomHealth(replica.DefaultReliableFrom, nil)
	}
	return p
}

// Pool returns the worker pool shared by all stages
func (p *Pipeline) Pool() *workerpool.Pool {
	return p.pool
}

// Start loads the partitions named by desc and runs the pipeline on them.
// An unsupported descriptor fails before any stage runs.
func (p *Pipeline) Start(ctx context.Context, desc input.Descriptor) (Reduced, error) {
	partitions, err := input.Load(desc)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, partitions)
}

// Run reads every partition through its own RedundantStream, then maps,
// shuffles and reduces. The output is called only when every stage has
// succeeded; any failure aborts the run without output.
func (p *Pipeline) Run(ctx context.Context, partitions []Partition) (Reduced, error) {
	stats := RunStats{RunID: uuid.NewString(), Partitions: len(partitions)}
	p.logger.Printf("run %s: starting with %d partitions, parallelism %d",
		stats.RunID, len(partitions), p.pool.Parallelism())

	start := time.Now()
	mapped, err := MapStage(ctx, p.pool, partitions, p.streamMapper())
	if err != nil {
		p.logger.Printf("run %s: map stage failed: %v", stats.RunID, err)
		return nil, fmt.Errorf("map stage: %w", err)
	}
	stats.Map = time.Since(start)
	for _, pairs := range mapped {
		stats.Pairs += len(pairs)
	}

	start = time.Now()
	grouped, err := p.sorter.Sort(ctx, mapped)
	if err != nil {
		p.logger.Printf("run %s: shuffle stage failed: %v", stats.RunID, err)
		return nil, fmt.Errorf("shuffle stage: %w", err)
	}
	stats.Shuffle = time.Since(start)
	stats.Keys = len(grouped)

	start = time.Now()
	reduced, err := ReduceStage(ctx, p.pool, grouped, p.reducer)
	if err != nil {
		p.logger.Printf("run %s: reduce stage failed: %v", stats.RunID, err)
		return nil, fmt.Errorf("reduce stage: %w", err)
	}
	stats.Reduce = time.Since(start)

	p.logger.Printf("run %s: %d pairs, %d keys (map %v, shuffle %v, reduce %v)",
		stats.RunID, stats.Pairs, stats.Keys, stats.Map, stats.Shuffle, stats.Reduce)

	if err := p.output.Emit(reduced); err != nil {
		p.logger.Printf("run %s: output failed: %v", stats.RunID, err)
		return nil, fmt.Errorf("output: %w", err)
	}

	p.mu.Lock()
	p.stats = stats
	p.mu.Unlock()
	return reduced, nil
}

// LastStats returns the statistics of the most recent successful run
func (p *Pipeline) LastStats() RunStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// streamMapper reads a partition through a RedundantStream before handing
// it to the configured mapper
func (p *Pipeline) streamMapper() Mapper {
	return MapperFunc(func(part Partition) ([]Pair, error) {
		stream := replica.NewRedundantStream(part, p.replicas, p.health)
		data, err := stream.Drain()
		if err != nil {
			return nil, err
		}
		return p.mapper.Map(data)
	})
}
