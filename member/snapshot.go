package member

// Snapshotter is implemented by member kinds that can be persisted.
//
// Persisted state per member is its kind name, a kind-specific config blob,
// its indices as plain data, its local vector, and its children in order.
// Parent links are never persisted; they are re-established with
// RelinkParent after loading.
type Snapshotter interface {
	Member

	// SnapshotKind returns the stable kind name used to look up a decoder.
	SnapshotKind() string

	// MarshalConfig returns the kind-specific configuration (dimensions,
	// frozen payloads) needed to reconstruct the member before its local
	// vector is loaded.
	MarshalConfig() ([]byte, error)
}
