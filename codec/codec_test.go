package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

type upperJSON struct{ JSON }

func (upperJSON) Name() string { return "json-upper" }

func TestRegisterCustom(t *testing.T) {
	Register(upperJSON{})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, "json-upper")
		registryMu.Unlock()
	})

	c, ok := ByName("json-upper")
	require.True(t, ok)
	assert.Equal(t, "json-upper", c.Name())
}

func TestCodecsAgree(t *testing.T) {
	type record struct {
		Kind  string    `json:"kind"`
		Local []float64 `json:"local"`
	}
	in := record{Kind: "dense", Local: []float64{1, 0.5, -2}}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b, err := c.Marshal(in)
		require.NoError(t, err, c.Name())

		var out record
		require.NoError(t, c.Unmarshal(b, &out), c.Name())
		assert.Equal(t, in, out, c.Name())
	}
}

func TestMustMarshalDefault(t *testing.T) {
	b := MustMarshal(nil, map[string]int{"n": 1})
	assert.JSONEq(t, `{"n":1}`, string(b))
}
