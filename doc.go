// Package paramvec maintains the single flat parameter vector shared by a
// tree of model members.
//
// A Model owns an ordered registry of top-level members and the flat store
// their parameters live in. Members own IndexSet descriptors of store
// positions, never the positions themselves, so independent, nested and
// parameter-sharing members all project into one optimization vector:
//
//	m := paramvec.New()
//	_ = m.Register("Gx", opX)   // 3 parameters
//	_ = m.Register("Gy", opY)   // 2 parameters
//	v, _ := m.ToVector()        // len(v) == 5; allocation happened lazily
//	_ = m.FromVector(fitted)    // push optimizer results back into members
//
// Mutating a member marks it dirty; structural changes (adding or removing
// parameters) mark the model for rebuild. Before the vector is next read or
// written the model reconciles allocation (compacting removed positions and
// assigning fresh ranges) and then values (syncing dirty members against the
// store). External numerical optimizers only ever see ToVector, FromVector
// and NumParams.
//
// Subpackages: indexset holds the position-descriptor type, member the tree
// node contract, operator concrete member kinds, snapshot persistence of a
// model tree, and blobstore pluggable storage for snapshot archives.
package paramvec
