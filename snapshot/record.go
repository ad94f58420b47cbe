package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/quantara/paramvec/indexset"
	"github.com/quantara/paramvec/member"
)

// memberRecord is the persisted form of one member: its kind and
// constructor configuration, the descriptor it held, its local parameter
// values (leaves only; composites derive theirs from children), and its
// children in order.
type memberRecord struct {
	Kind     string             `json:"kind"`
	Config   json.RawMessage    `json:"config,omitempty"`
	Indices  *indexset.IndexSet `json:"indices,omitempty"`
	Local    []float64          `json:"local,omitempty"`
	Children []*memberRecord    `json:"children,omitempty"`
}

// modelRecord is the persisted form of a whole model: labeled member trees
// in registration order plus the flat parameter vector.
type modelRecord struct {
	Labels   []string        `json:"labels"`
	Members  []*memberRecord `json:"members"`
	Paramvec []float64       `json:"paramvec"`
}

// encodeMember converts a member tree into records, children in order.
// Aliased member objects are recorded once per referencing tree; sharing is
// re-established on load through the descriptors, which round-trip
// verbatim.
func encodeMember(mm member.Member) (*memberRecord, error) {
	snap, ok := mm.(member.Snapshotter)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMember, mm)
	}

	cfg, err := snap.MarshalConfig()
	if err != nil {
		return nil, fmt.Errorf("marshal %s config: %w", snap.SnapshotKind(), err)
	}

	rec := &memberRecord{
		Kind:    snap.SnapshotKind(),
		Config:  cfg,
		Indices: mm.Indices(),
	}

	subs := mm.Submembers()
	if len(subs) == 0 {
		rec.Local = mm.LocalVector()
	}
	for _, sub := range subs {
		child, err := encodeMember(sub)
		if err != nil {
			return nil, err
		}
		rec.Children = append(rec.Children, child)
	}
	return rec, nil
}

// decodeMember reconstructs a member tree bottom-up: children first, then
// the member itself via its registered decoder, then descriptor and local
// values restored verbatim.
func decodeMember(rec *memberRecord) (member.Member, error) {
	children := make([]member.Member, 0, len(rec.Children))
	for _, child := range rec.Children {
		sub, err := decodeMember(child)
		if err != nil {
			return nil, err
		}
		children = append(children, sub)
	}

	decode, ok := lookupKind(rec.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}
	mm, err := decode(rec.Config, children)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rec.Kind, err)
	}

	mm.RestoreIndices(rec.Indices)
	if len(rec.Local) > 0 {
		if err := mm.LoadLocalVector(rec.Local); err != nil {
			return nil, fmt.Errorf("restore %s values: %w", rec.Kind, err)
		}
	}
	return mm, nil
}
