package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stdJSON is the encoding/json reference GoJSON must match byte for byte.
type stdJSON struct{}

func (stdJSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (stdJSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (stdJSON) Name() string                       { return "json" }

var _ Codec = stdJSON{}

type node struct {
	Operator string            `json:"operator"`
	Params   map[string]string `json:"params,omitempty"`
	Children []node            `json:"children,omitempty"`
}

func TestCodecsAgree(t *testing.T) {
	v := node{
		Operator: "FILTER",
		Params:   map[string]string{"b": "2", "a": "1"},
		Children: []node{{Operator: "SEQ_SCAN"}},
	}

	std, err := stdJSON{}.Marshal(v)
	require.NoError(t, err)
	fast, err := GoJSON{}.Marshal(v)
	require.NoError(t, err)

	assert.Equal(t, string(std), string(fast))

	var back node
	require.NoError(t, GoJSON{}.Unmarshal(fast, &back))
	assert.Equal(t, v, back)
}

func TestDefaultIsDeterministic(t *testing.T) {
	v := node{Operator: "GET", Params: map[string]string{"table": "trips", "columns": "id, bbox", "function": "seq_scan"}}

	first, err := Default.Marshal(v)
	require.NoError(t, err)
	for range 10 {
		again, err := Default.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "go-json", Default.Name())
}
