// Package codec centralizes record encoding for persisted model state.
//
// Codec selection is a compatibility boundary: snapshot files record the
// codec name in their header, so bytes written with one codec are always
// decoded with the same one.
package codec

import (
	"fmt"
	"sync"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Codec{}
)

// Register makes a codec selectable by its Name. The built-in JSON codecs
// are registered at init; a custom codec registers before the first snapshot
// is written or read with it.
func Register(c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c.Name()] = c
}

// ByName returns the codec registered under name.
//
// Snapshot files are self-describing: the header stores the codec name and
// the reader selects the codec with it.
func ByName(name string) (Codec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

func init() {
	Register(JSON{})
	Register(GoJSON{})
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
