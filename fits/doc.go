// Package fits implements a pure Go codec for FITS files, scoped to what a
// multi-extension (MEF) data provider needs: image units in all six BITPIX
// encodings, a binary-table subset (float64, int64 and fixed-width string
// columns), and ordered header cards with comments.
//
// The package presents a file as an ordered list of Units. A Unit is one
// header/data block pair: the primary unit first, then zero or more IMAGE or
// BINTABLE extensions. Reading is backed by mmap on unix platforms; the
// mapping never outlives the call, so no descriptor is retained once the
// units are in memory.
//
// Based on version 3.0 of the FITS standard. Random groups, variable-length
// arrays and BSCALE/BZERO application are out of scope.
package fits
