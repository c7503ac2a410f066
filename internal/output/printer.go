// Package output presents a reduced mapping.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for formats the printer does not support
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects how a Printer renders results
type Format string

const (
	// FormatText prints one sorted "key: value" line per key
	FormatText Format = "text"
	// FormatJSON prints an indented JSON object
	FormatJSON Format = "json"
	// FormatYAML prints a YAML mapping
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. The empty string means FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Printer writes results to W
type Printer struct {
	W      io.Writer
	Format Format
}

// NewPrinter creates a printer for w
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{W: w, Format: format}
}

// Print renders results. Keys always appear in sorted order.
func (p *Printer) Print(results map[string]int) error {
	switch p.Format {
	case FormatText, "":
		keys := make([]string, 0, len(results))
		for k := range results {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if _, err := fmt.Fprintf(p.W, "%s: %d\n", k, results[k]); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(p.W)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case FormatYAML:
		enc := yaml.NewEncoder(p.W)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(p.Format))
	}
}
