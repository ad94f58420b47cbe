package snapshot

import (
	"errors"
	"sync"

	"github.com/goccy/go-json"

	"github.com/quantara/paramvec/member"
	"github.com/quantara/paramvec/operator"
)

// DecodeFunc reconstructs a member from its persisted configuration and its
// already-decoded children.
type DecodeFunc func(config []byte, children []member.Member) (member.Member, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]DecodeFunc{}
)

// RegisterKind makes a member kind decodable. The name must match the
// member's SnapshotKind. Built-in operator kinds are pre-registered;
// custom member types register theirs before the first Load.
func RegisterKind(name string, decode DecodeFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = decode
}

func lookupKind(name string) (DecodeFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	decode, ok := registry[name]
	return decode, ok
}

type dimConfig struct {
	Dim int `json:"dim"`
}

type staticConfig struct {
	Dim    int       `json:"dim"`
	Matrix []float64 `json:"matrix"`
}

func init() {
	RegisterKind("dense", func(config []byte, _ []member.Member) (member.Member, error) {
		var cfg dimConfig
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, err
		}
		d, err := operator.NewDense(cfg.Dim)
		if err != nil {
			return nil, err
		}
		return d, nil
	})

	RegisterKind("tp", func(config []byte, _ []member.Member) (member.Member, error) {
		var cfg dimConfig
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, err
		}
		t, err := operator.NewTP(cfg.Dim)
		if err != nil {
			return nil, err
		}
		return t, nil
	})

	RegisterKind("static", func(config []byte, _ []member.Member) (member.Member, error) {
		var cfg staticConfig
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, err
		}
		s, err := operator.NewStatic(cfg.Dim, cfg.Matrix)
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	RegisterKind("composed", func(_ []byte, children []member.Member) (member.Member, error) {
		return operator.NewComposed(children...), nil
	})

	RegisterKind("embedded", func(config []byte, children []member.Member) (member.Member, error) {
		var cfg dimConfig
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, err
		}
		if len(children) != 1 {
			return nil, errors.New("embedded member requires exactly one child")
		}
		e, err := operator.NewEmbedded(children[0], cfg.Dim)
		if err != nil {
			return nil, err
		}
		return e, nil
	})
}
