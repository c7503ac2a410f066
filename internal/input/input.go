// Package input supplies the partitions a pipeline run consumes.
package input

import (
	"errors"
	"fmt"
)

// ErrUnsupportedInput is returned for descriptors this package cannot serve
var ErrUnsupportedInput = errors.New("unsupported input")

// Descriptor names an input source. The empty descriptor and DefaultDescriptor
// both select the built-in corpus.
type Descriptor string

// DefaultDescriptor selects the built-in corpus
const DefaultDescriptor Descriptor = "default"

// Default returns a fresh copy of the built-in three-partition corpus
func Default() [][]string {
	return [][]string{
		{"Java", "Hadoop", "RDBMS", "Prolog", "Lisp", "Pascal"},
		{"Java", "Java", "RDBMS", "Prolog", "Prolog"},
		{"Java", "Hadoop", "RDBMS", "Prolog", "Lisp", "Pascal"},
	}
}

// Load resolves a descriptor into partitions
func Load(d Descriptor) ([][]string, error) {
	switch d {
	case "", DefaultDescriptor:
		return Default(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInput, string(d))
	}
}
