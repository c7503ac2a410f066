package mapreduce

import (
	"errors"
	"io"

	"golang.org/x/exp/slices"

	"github.com/dreamware/tally/internal/output"
)

// ErrDuplicateKey is returned when two reduce invocations produce the same key
var ErrDuplicateKey = errors.New("duplicate reduced key")

// Partition is one independent sub-sequence of the input corpus
type Partition = []string

// Pair is a single (key, value) contribution emitted by a mapper
type Pair struct {
	Key   string
	Value int
}

// Grouped maps each key to the values contributed for it. Values from one
// partition keep their order; order across partitions is unspecified.
type Grouped map[string][]int

// Reduced maps each key to its aggregate, the final output of a run
type Reduced map[string]int

// Keys returns the grouped keys in sorted order
func (g Grouped) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Equivalent reports whether g and other have the same keys and, per key,
// the same values as a multiset
func (g Grouped) Equivalent(other Grouped) bool {
	if len(g) != len(other) {
		return false
	}
	for k, a := range g {
		b, ok := other[k]
		if !ok || len(a) != len(b) {
			return false
		}
		sa, sb := slices.Clone(a), slices.Clone(b)
		slices.Sort(sa)
		slices.Sort(sb)
		if !slices.Equal(sa, sb) {
			return false
		}
	}
	return true
}

// Mapper turns one partition into pairs
type Mapper interface {
	Map(p Partition) ([]Pair, error)
}

// MapperFunc adapts a function to Mapper
type MapperFunc func(p Partition) ([]Pair, error)

// Map calls f
func (f MapperFunc) Map(p Partition) ([]Pair, error) { return f(p) }

// UnitMapper emits (element, 1) for every element, in order
var UnitMapper Mapper = MapperFunc(func(p Partition) ([]Pair, error) {
	pairs := make([]Pair, len(p))
	for i, e := range p {
		pairs[i] = Pair{Key: e, Value: 1}
	}
	return pairs, nil
})

// Reducer aggregates the values of one key. Implementations must not depend
// on the order of values.
type Reducer interface {
	Reduce(key string, values []int) (string, int, error)
}

// ReducerFunc adapts a function to Reducer
type ReducerFunc func(key string, values []int) (string, int, error)

// Reduce calls f
func (f ReducerFunc) Reduce(key string, values []int) (string, int, error) {
	return f(key, values)
}

// SumReducer returns the sum of the values
var SumReducer Reducer = ReducerFunc(func(key string, values []int) (string, int, error) {
	total := 0
	for _, v := range values {
		total += v
	}
	return key, total, nil
})

// Output receives the reduced mapping once a run succeeds
type Output interface {
	Emit(r Reduced) error
}

// OutputFunc adapts a function to Output
type OutputFunc func(r Reduced) error

// Emit calls f
func (f OutputFunc) Emit(r Reduced) error { return f(r) }

// PrintOutput writes the reduced mapping to w in the given format
func PrintOutput(w io.Writer, format output.Format) Output {
	p := output.NewPrinter(w, format)
	return OutputFunc(func(r Reduced) error {
		return p.Print(r)
	})
}
