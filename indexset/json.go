package indexset

import (
	"encoding/json"
	"fmt"
)

// jsonIndexSet is the persisted plain-data form of an IndexSet.
type jsonIndexSet struct {
	Kind  string `json:"kind"`
	Start int    `json:"start,omitempty"`
	Len   int    `json:"len,omitempty"`
	Elems []int  `json:"elems,omitempty"`
}

// MarshalJSON encodes the set as plain data so persisted descriptors can be
// round-tripped verbatim across serialization boundaries.
func (s IndexSet) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindRange:
		return json.Marshal(jsonIndexSet{Kind: "range", Start: s.start, Len: s.length})
	case KindExplicit:
		return json.Marshal(jsonIndexSet{Kind: "explicit", Elems: s.elems})
	default:
		return nil, fmt.Errorf("unknown IndexSet kind: %d", s.kind)
	}
}

// UnmarshalJSON decodes the plain-data form produced by MarshalJSON.
func (s *IndexSet) UnmarshalJSON(data []byte) error {
	var raw jsonIndexSet
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "range":
		out, err := NewRange(raw.Start, raw.Len)
		if err != nil {
			return err
		}
		*s = out
	case "explicit":
		out, err := NewExplicit(raw.Elems)
		if err != nil {
			return err
		}
		*s = out
	default:
		return fmt.Errorf("unknown IndexSet kind: %q", raw.Kind)
	}
	return nil
}
