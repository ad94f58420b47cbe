// Package operator provides concrete member kinds for building model trees.
//
// Each kind carries a dense square-matrix payload and differs only in which
// entries are free parameters and how kinds nest: Dense exposes every entry,
// TP freezes the first row, Static exposes nothing, Composed aggregates an
// ordered factor list, and Embedded wraps a single member inside a larger
// space. The physical interpretation of the matrices is out of scope here;
// these kinds exist to give the parameter-allocation machinery realistic
// leaves and composites.
package operator
