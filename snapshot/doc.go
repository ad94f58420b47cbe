// Package snapshot persists models and their parameter trees.
//
// A snapshot stores, per member, its kind, constructor configuration, index
// descriptor, local parameter values and children, in registration order,
// followed by the flat parameter vector. Parent back-references are never
// persisted (they would create reference cycles): loading reconstructs the
// tree bottom-up and relinks parents top-down, round-tripping descriptors
// verbatim.
//
// Files are self-describing. The header records the codec and compression
// by name, and a CRC32 footer guards against storage corruption.
package snapshot
