// Package mef models a multi-extension FITS file as a composite
// image+metadata object: an ordered set of science extensions, each bundling
// pixel data with optional variance, mask and named auxiliary payloads, plus
// free-floating tables, all backed by one header store.
//
// The central type is Provider. A Provider opened from a path knows its
// headers immediately but defers pixel and table payloads until first use;
// materialization happens exactly once and either completes fully or leaves
// the Provider untouched. Slices of a Provider are non-owning views that
// observe (and can apply) in-place mutation; MaterializeSubset turns a view
// into an independent Provider.
//
// The package is synchronous and single-threaded. Providers must not be
// mutated concurrently.
package mef
