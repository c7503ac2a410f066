package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var results = map[string]int{"Java": 4, "Hadoop": 2, "Lisp": 2}

func TestPrintText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatText).Print(results))
	assert.Equal(t, "Hadoop: 2\nJava: 4\nLisp: 2\n", buf.String())
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON).Print(results))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, results, got)
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatYAML).Print(results))
	assert.Equal(t, "Hadoop: 2\nJava: 4\nLisp: 2\n", buf.String())

	var got map[string]int
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, results, got)
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatText).Print(map[string]int{}))
	assert.Empty(t, buf.String())
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "text": FormatText, "json": FormatJSON, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	err = NewPrinter(&bytes.Buffer{}, Format("xml")).Print(results)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
